package logging

import (
	"bytes"
	"sync"
)

// bufferPool 复用格式化缓冲，日志热路径上不反复分配。
type bufferPool struct {
	pool sync.Pool
}

func (p *bufferPool) get() *bytes.Buffer {
	return p.pool.Get().(*bytes.Buffer)
}

func (p *bufferPool) put(b *bytes.Buffer) {
	b.Reset()
	p.pool.Put(b)
}

var bufPool = &bufferPool{
	pool: sync.Pool{
		New: func() any { return new(bytes.Buffer) },
	},
}
