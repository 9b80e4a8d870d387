package logging

import (
	"time"
)

// LogEntry 一条已组装、待落地的日志。
type LogEntry struct {
	Time     time.Time
	Level    LogLevel
	Category string
	Message  string
	Fields   []Field
}

// Formatter 把日志条目序列化为一行输出（含换行符）。
// 返回的字节不引用内部缓冲，异步消费是安全的。
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
}
