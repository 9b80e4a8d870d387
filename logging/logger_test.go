package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

func sampleEntry() *LogEntry {
	return &LogEntry{
		Time:     time.Now(),
		Level:    LogLevelInfo,
		Category: "Test",
		Message:  "Hello",
		Fields:   []Field{{Key: "key", Value: "val"}},
	}
}

func TestTextFormatter(t *testing.T) {
	f := NewTextFormatter()
	out, err := f.Format(sampleEntry())
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	str := string(out)
	for _, want := range []string{"INFO", "[Test]", "Hello", "key=val"} {
		if !strings.Contains(str, want) {
			t.Errorf("Expected output to contain %q, got %q", want, str)
		}
	}
	if !strings.HasSuffix(str, "\n") {
		t.Error("Text output must end with a newline")
	}
}

func TestJsonFormatter(t *testing.T) {
	f := NewJsonFormatter()
	out, err := f.Format(sampleEntry())
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !bytes.HasSuffix(out, []byte("\n")) {
		t.Error("JSON output must end with a newline")
	}

	var data map[string]any
	if err := json.Unmarshal(out, &data); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if data["level"] != "INFO" {
		t.Error("Expected level INFO")
	}
	if data["category"] != "Test" {
		t.Error("Expected category Test")
	}
	fields, ok := data["fields"].(map[string]any)
	if !ok {
		t.Error("Expected fields map")
	} else if fields["key"] != "val" {
		t.Error("Expected key=val")
	}
}

func TestConsoleProviderLevelAndFields(t *testing.T) {
	var buf bytes.Buffer
	provider := NewConsoleLoggerProvider(ConsoleLoggerOptions{Output: &buf})
	logger := provider.CreateLogger("svc")

	// 低于阈值的条目被过滤
	logger.Debug("hidden")
	logger.Info("visible", Field{Key: "n", Value: 1})

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Debug entry should be filtered at Info level")
	}
	if !strings.Contains(out, "visible") || !strings.Contains(out, "n=1") {
		t.Errorf("Missing expected entry, got %q", out)
	}

	// 阈值调整对已创建的 Logger 立即生效
	provider.SetMinimumLevel(LogLevelDebug)
	logger.Debug("now-visible")
	if !strings.Contains(buf.String(), "now-visible") {
		t.Error("SetMinimumLevel should apply to existing loggers")
	}
}

func TestWithFieldsAndCategory(t *testing.T) {
	var buf bytes.Buffer
	provider := NewConsoleLoggerProvider(ConsoleLoggerOptions{Output: &buf})
	base := provider.CreateLogger("base")

	derived := base.WithFields(Field{Key: "req", Value: "42"}).WithCategory("sub")
	derived.Info("tagged")

	out := buf.String()
	if !strings.Contains(out, "[sub]") {
		t.Errorf("Expected derived category, got %q", out)
	}
	if !strings.Contains(out, "req=42") {
		t.Errorf("Expected inherited field, got %q", out)
	}

	// 派生不影响原 Logger
	buf.Reset()
	base.Info("plain")
	if strings.Contains(buf.String(), "req=42") {
		t.Error("WithFields must not mutate the source logger")
	}
}

func TestFactoryFansOutToAllProviders(t *testing.T) {
	var first, second bytes.Buffer
	factory := NewLoggingBuilder().
		AddConsole(ConsoleLoggerOptions{Output: &first}).
		AddConsole(ConsoleLoggerOptions{Output: &second}).
		Build()

	factory.CreateLogger("app").Info("broadcast")

	if !strings.Contains(first.String(), "broadcast") {
		t.Error("First provider did not receive the entry")
	}
	if !strings.Contains(second.String(), "broadcast") {
		t.Error("Second provider did not receive the entry")
	}
}

func TestAsyncWriter(t *testing.T) {
	writer := &lockedWriter{}
	asyncWriter := NewAsyncWriter(writer, NewTextFormatter(), 10)

	entry := &LogEntry{Time: time.Now(), Level: LogLevelInfo, Message: "Async"}
	for i := 0; i < 5; i++ {
		asyncWriter.WriteLog(entry)
	}
	// Close 等待队列排空
	asyncWriter.Close()

	lines := strings.Split(strings.TrimSpace(writer.String()), "\n")
	if len(lines) != 5 {
		t.Errorf("Expected 5 lines, got %d", len(lines))
	}
}

// lockedWriter 后台协程与断言之间的线程安全缓冲。
type lockedWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *lockedWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func BenchmarkAsyncLogging(b *testing.B) {
	asyncWriter := NewAsyncWriter(io.Discard, NewTextFormatter(), 10000)
	defer asyncWriter.Close()

	entry := &LogEntry{Time: time.Now(), Level: LogLevelInfo, Message: "Benchmark"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		asyncWriter.WriteLog(entry)
	}
}
