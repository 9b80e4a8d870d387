package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// AsyncWriter 把日志条目的格式化与写出挪到后台协程。
// 队列满时 WriteLog 阻塞而不是丢日志。
type AsyncWriter struct {
	writer    io.Writer
	formatter Formatter
	queue     chan *LogEntry

	wg        sync.WaitGroup
	closeOnce sync.Once

	onError func(error)
}

func NewAsyncWriter(writer io.Writer, formatter Formatter, bufferSize int) *AsyncWriter {
	w := &AsyncWriter{
		writer:    writer,
		formatter: formatter,
		queue:     make(chan *LogEntry, bufferSize),
	}
	w.wg.Add(1)
	go w.drain()
	return w
}

// WriteLog 条目入队。Close 之后调用会 panic。
func (w *AsyncWriter) WriteLog(entry *LogEntry) {
	w.queue <- entry
}

// Close 停止接收并等待队列排空。
func (w *AsyncWriter) Close() error {
	w.closeOnce.Do(func() {
		close(w.queue)
	})
	w.wg.Wait()
	return nil
}

// SetErrorHandler 替换默认的 stderr 错误报告。
func (w *AsyncWriter) SetErrorHandler(handler func(error)) {
	w.onError = handler
}

func (w *AsyncWriter) drain() {
	defer w.wg.Done()
	for entry := range w.queue {
		data, err := w.formatter.Format(entry)
		if err != nil {
			w.report(fmt.Errorf("format: %w", err))
			continue
		}
		if _, err := w.writer.Write(data); err != nil {
			w.report(fmt.Errorf("write: %w", err))
		}
	}
}

func (w *AsyncWriter) report(err error) {
	if w.onError != nil {
		w.onError(err)
		return
	}
	fmt.Fprintf(os.Stderr, "logging: async writer: %v\n", err)
}
