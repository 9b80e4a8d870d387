package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// ConsoleLoggerOptions 控制台日志选项
type ConsoleLoggerOptions struct {
	IncludeTimestamp bool
	TimestampFormat  string
	ColorOutput      bool
	Output           io.Writer
}

// ConsoleLoggerProvider 控制台日志提供者：文本格式、同步写出。
type ConsoleLoggerProvider struct {
	formatter *TextFormatter
	out       io.Writer
	outMu     sync.Mutex
	level     *levelVar
}

func NewConsoleLoggerProvider(options ConsoleLoggerOptions) *ConsoleLoggerProvider {
	if options.Output == nil {
		options.Output = os.Stdout
	}
	formatter := NewTextFormatter()
	formatter.IncludeTimestamp = options.IncludeTimestamp
	if options.TimestampFormat != "" {
		formatter.TimestampFormat = options.TimestampFormat
	}
	formatter.ColorOutput = options.ColorOutput
	return &ConsoleLoggerProvider{
		formatter: formatter,
		out:       options.Output,
		level:     newLevelVar(LogLevelInfo),
	}
}

func (p *ConsoleLoggerProvider) CreateLogger(category string) Logger {
	return newEntryLogger(category, p.level, p.write)
}

func (p *ConsoleLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.level.set(level)
}

func (p *ConsoleLoggerProvider) write(entry *LogEntry) {
	data, err := p.formatter.Format(entry)
	if err != nil {
		return
	}
	// 整条写出，多个 Logger 并发时条目不交错
	p.outMu.Lock()
	p.out.Write(data)
	p.outMu.Unlock()
}

// FileLoggerOptions 文件日志选项
type FileLoggerOptions struct {
	Path string
	// BufferSize 异步队列容量，0 取默认值。
	BufferSize int
	// JsonFormat 为 true 时按 JSON 行写出，否则为文本格式。
	JsonFormat bool
}

const defaultFileBuffer = 1024

// FileLoggerProvider 文件日志提供者：条目进异步队列，
// 由后台协程格式化并追加写入。
type FileLoggerProvider struct {
	options FileLoggerOptions
	level   *levelVar

	mu     sync.Mutex
	file   *os.File
	writer *AsyncWriter
	broken bool
}

func NewFileLoggerProvider(options FileLoggerOptions) *FileLoggerProvider {
	if options.BufferSize <= 0 {
		options.BufferSize = defaultFileBuffer
	}
	return &FileLoggerProvider{
		options: options,
		level:   newLevelVar(LogLevelInfo),
	}
}

func (p *FileLoggerProvider) CreateLogger(category string) Logger {
	return newEntryLogger(category, p.level, p.enqueue)
}

func (p *FileLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.level.set(level)
}

// Close 冲刷队列中的条目并关闭文件。
func (p *FileLoggerProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writer != nil {
		p.writer.Close()
		p.writer = nil
	}
	if p.file != nil {
		err := p.file.Close()
		p.file = nil
		return err
	}
	return nil
}

func (p *FileLoggerProvider) enqueue(entry *LogEntry) {
	w := p.ensureWriter()
	if w == nil {
		return
	}
	w.WriteLog(entry)
}

// ensureWriter 首条日志到达时才打开文件。打开失败记为 broken，
// 报一次错后丢弃后续条目，不让日志问题拖垮业务。
func (p *FileLoggerProvider) ensureWriter() *AsyncWriter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writer != nil {
		return p.writer
	}
	if p.broken {
		return nil
	}

	file, err := os.OpenFile(p.options.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		p.broken = true
		fmt.Fprintf(os.Stderr, "logging: open %s: %v\n", p.options.Path, err)
		return nil
	}
	p.file = file

	var formatter Formatter
	if p.options.JsonFormat {
		formatter = NewJsonFormatter()
	} else {
		plain := NewTextFormatter()
		plain.ColorOutput = false
		formatter = plain
	}
	p.writer = NewAsyncWriter(file, formatter, p.options.BufferSize)
	return p.writer
}
