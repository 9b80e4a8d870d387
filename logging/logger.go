package logging

import (
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// LogLevel 日志级别
type LogLevel int

const (
	LogLevelTrace LogLevel = iota
	LogLevelDebug
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	LogLevelFatal
)

var levelNames = [...]string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

// String 返回日志级别的字符串表示
func (l LogLevel) String() string {
	if l < LogLevelTrace || l > LogLevelFatal {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// levelVar 可原子更新的级别阈值。
// 同一提供者发出的所有 Logger 共享一个阈值，
// SetMinimumLevel 的调整对已创建的 Logger 立即生效。
type levelVar struct {
	v atomic.Int32
}

func newLevelVar(l LogLevel) *levelVar {
	lv := &levelVar{}
	lv.set(l)
	return lv
}

func (lv *levelVar) get() LogLevel  { return LogLevel(lv.v.Load()) }
func (lv *levelVar) set(l LogLevel) { lv.v.Store(int32(l)) }

// Field 日志字段
type Field struct {
	Key   string
	Value any
}

// Logger 日志接口
type Logger interface {
	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
	Log(level LogLevel, msg string, fields ...Field)
	WithFields(fields ...Field) Logger
	WithCategory(category string) Logger
}

// LoggerFactory 日志工厂接口
type LoggerFactory interface {
	CreateLogger(category string) Logger
	AddProvider(provider LoggerProvider)
	SetMinimumLevel(level LogLevel)
}

// LoggerProvider 日志提供者接口
type LoggerProvider interface {
	CreateLogger(category string) Logger
	SetMinimumLevel(level LogLevel)
}

// loggerFactory 聚合多个提供者，CreateLogger 产出扇出 Logger。
type loggerFactory struct {
	mu        sync.RWMutex
	providers []LoggerProvider
	minimum   LogLevel
}

func (f *loggerFactory) CreateLogger(category string) Logger {
	f.mu.RLock()
	defer f.mu.RUnlock()

	targets := make([]Logger, 0, len(f.providers))
	for _, p := range f.providers {
		targets = append(targets, p.CreateLogger(category))
	}
	return &fanoutLogger{targets: targets, category: category}
}

func (f *loggerFactory) AddProvider(provider LoggerProvider) {
	f.mu.Lock()
	defer f.mu.Unlock()
	provider.SetMinimumLevel(f.minimum)
	f.providers = append(f.providers, provider)
}

func (f *loggerFactory) SetMinimumLevel(level LogLevel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.minimum = level
	for _, p := range f.providers {
		p.SetMinimumLevel(level)
	}
}

// entrySink 消费一条已组装的日志条目。
// 提供者决定条目如何落地：同步写控制台、进异步队列等。
type entrySink func(entry *LogEntry)

// entryLogger 所有提供者共用的 Logger 实现：
// 级别过滤 → 组装 LogEntry → 交给 sink。
type entryLogger struct {
	category string
	fields   []Field
	level    *levelVar
	sink     entrySink
}

func newEntryLogger(category string, level *levelVar, sink entrySink) *entryLogger {
	return &entryLogger{category: category, level: level, sink: sink}
}

func (l *entryLogger) Trace(msg string, fields ...Field) { l.Log(LogLevelTrace, msg, fields...) }
func (l *entryLogger) Debug(msg string, fields ...Field) { l.Log(LogLevelDebug, msg, fields...) }
func (l *entryLogger) Info(msg string, fields ...Field)  { l.Log(LogLevelInfo, msg, fields...) }
func (l *entryLogger) Warn(msg string, fields ...Field)  { l.Log(LogLevelWarn, msg, fields...) }
func (l *entryLogger) Error(msg string, fields ...Field) { l.Log(LogLevelError, msg, fields...) }

func (l *entryLogger) Fatal(msg string, fields ...Field) {
	l.Log(LogLevelFatal, msg, fields...)
	os.Exit(1)
}

func (l *entryLogger) Log(level LogLevel, msg string, fields ...Field) {
	if level < l.level.get() {
		return
	}
	entry := &LogEntry{
		Time:     time.Now(),
		Level:    level,
		Category: l.category,
		Message:  msg,
	}
	if n := len(l.fields) + len(fields); n > 0 {
		merged := make([]Field, 0, n)
		merged = append(merged, l.fields...)
		merged = append(merged, fields...)
		entry.Fields = merged
	}
	l.sink(entry)
}

func (l *entryLogger) WithFields(fields ...Field) Logger {
	clone := *l
	clone.fields = append(append([]Field{}, l.fields...), fields...)
	return &clone
}

func (l *entryLogger) WithCategory(category string) Logger {
	clone := *l
	clone.category = category
	return &clone
}

// fanoutLogger 把每条日志转发给全部提供者的 Logger。
// 级别过滤由各提供者自己做，这里只负责扇出。
type fanoutLogger struct {
	targets  []Logger
	category string
	fields   []Field
}

func (l *fanoutLogger) Trace(msg string, fields ...Field) { l.Log(LogLevelTrace, msg, fields...) }
func (l *fanoutLogger) Debug(msg string, fields ...Field) { l.Log(LogLevelDebug, msg, fields...) }
func (l *fanoutLogger) Info(msg string, fields ...Field)  { l.Log(LogLevelInfo, msg, fields...) }
func (l *fanoutLogger) Warn(msg string, fields ...Field)  { l.Log(LogLevelWarn, msg, fields...) }
func (l *fanoutLogger) Error(msg string, fields ...Field) { l.Log(LogLevelError, msg, fields...) }

func (l *fanoutLogger) Fatal(msg string, fields ...Field) {
	l.Log(LogLevelFatal, msg, fields...)
	os.Exit(1)
}

func (l *fanoutLogger) Log(level LogLevel, msg string, fields ...Field) {
	merged := fields
	if len(l.fields) > 0 {
		merged = append(append([]Field{}, l.fields...), fields...)
	}
	for _, target := range l.targets {
		target.Log(level, msg, merged...)
	}
}

func (l *fanoutLogger) WithFields(fields ...Field) Logger {
	return &fanoutLogger{
		targets:  l.targets,
		category: l.category,
		fields:   append(append([]Field{}, l.fields...), fields...),
	}
}

func (l *fanoutLogger) WithCategory(category string) Logger {
	retargeted := make([]Logger, 0, len(l.targets))
	for _, target := range l.targets {
		retargeted = append(retargeted, target.WithCategory(category))
	}
	return &fanoutLogger{targets: retargeted, category: category, fields: l.fields}
}
