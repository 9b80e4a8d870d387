package logging

// NewLogger 快捷构建一个控制台 Logger，测试与默认路径使用。
func NewLogger() Logger {
	return NewLoggingBuilder().AddConsole().Build().CreateLogger("default")
}
