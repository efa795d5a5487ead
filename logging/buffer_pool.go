package logging

import (
	"bytes"
	"sync"
)

// maxPooledBuffer 超过这个容量的缓冲区不再放回池中，避免个别超长日志长期占用内存
const maxPooledBuffer = 64 << 10

var bufferPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

func getBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

func putBuffer(b *bytes.Buffer) {
	if b.Cap() > maxPooledBuffer {
		return
	}
	b.Reset()
	bufferPool.Put(b)
}

// detach 返回缓冲区内容的副本，缓冲区随后会被复用
func detach(b *bytes.Buffer) []byte {
	out := make([]byte, b.Len())
	copy(out, b.Bytes())
	return out
}
