package logging

import (
	"fmt"
)

// TextFormatter 人类可读的单行文本格式：
//
//	2026-01-02 15:04:05 INFO [category] message {key=val, key2=val2}
type TextFormatter struct {
	IncludeTimestamp bool
	TimestampFormat  string
	ColorOutput      bool
}

func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		IncludeTimestamp: true,
		TimestampFormat:  "2006-01-02 15:04:05",
	}
}

func (f *TextFormatter) Format(entry *LogEntry) ([]byte, error) {
	buf := bufPool.get()
	defer bufPool.put(buf)

	if f.IncludeTimestamp {
		buf.WriteString(entry.Time.Format(f.TimestampFormat))
		buf.WriteByte(' ')
	}

	if f.ColorOutput {
		buf.WriteString(colorize(entry.Level, entry.Level.String()))
	} else {
		buf.WriteString(entry.Level.String())
	}

	if entry.Category != "" {
		buf.WriteString(" [")
		buf.WriteString(entry.Category)
		buf.WriteByte(']')
	}

	buf.WriteByte(' ')
	buf.WriteString(entry.Message)

	if len(entry.Fields) > 0 {
		buf.WriteString(" {")
		for i, field := range entry.Fields {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(field.Key)
			buf.WriteByte('=')
			fmt.Fprintf(buf, "%v", field.Value)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('\n')

	// 缓冲即将归还，交出副本
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// colorize 按级别给终端输出上色。
func colorize(level LogLevel, text string) string {
	const reset = "\033[0m"
	var color string
	switch level {
	case LogLevelTrace:
		color = "\033[90m"
	case LogLevelDebug:
		color = "\033[36m"
	case LogLevelInfo:
		color = "\033[32m"
	case LogLevelWarn:
		color = "\033[33m"
	case LogLevelError:
		color = "\033[31m"
	case LogLevelFatal:
		color = "\033[35m"
	default:
		return text
	}
	return color + text + reset
}
