package logging

// LoggingBuilder 组装日志工厂：登记提供者，确定最小级别。
type LoggingBuilder struct {
	providers []LoggerProvider
	minimum   LogLevel
}

func NewLoggingBuilder() *LoggingBuilder {
	return &LoggingBuilder{minimum: LogLevelInfo}
}

// SetMinimumLevel 设置全局最小日志级别。
func (b *LoggingBuilder) SetMinimumLevel(level LogLevel) *LoggingBuilder {
	b.minimum = level
	return b
}

// AddProvider 登记一个日志提供者。
func (b *LoggingBuilder) AddProvider(provider LoggerProvider) *LoggingBuilder {
	b.providers = append(b.providers, provider)
	return b
}

// AddConsole 登记控制台输出。无参调用取带时间戳、带颜色的默认样式。
func (b *LoggingBuilder) AddConsole(options ...ConsoleLoggerOptions) *LoggingBuilder {
	opts := ConsoleLoggerOptions{
		IncludeTimestamp: true,
		TimestampFormat:  "2006-01-02 15:04:05",
		ColorOutput:      true,
	}
	if len(options) > 0 {
		opts = options[0]
	}
	return b.AddProvider(NewConsoleLoggerProvider(opts))
}

// AddFile 登记异步文件输出。
func (b *LoggingBuilder) AddFile(path string, options ...FileLoggerOptions) *LoggingBuilder {
	opts := FileLoggerOptions{Path: path}
	if len(options) > 0 {
		opts = options[0]
		opts.Path = path
	}
	return b.AddProvider(NewFileLoggerProvider(opts))
}

// Build 构建日志工厂。
func (b *LoggingBuilder) Build() LoggerFactory {
	factory := &loggerFactory{minimum: b.minimum}
	for _, provider := range b.providers {
		factory.AddProvider(provider)
	}
	return factory
}
