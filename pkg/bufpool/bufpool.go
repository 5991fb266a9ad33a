// Package bufpool provides pooled transfer buffers sized to the chunk sizes
// devices advise.
//
// Devices report an optimal transfer size per resource handle. Sizes vary by
// device and object, so buffers are grouped in power-of-two classes between
// MinSize and MaxSize; a request is served from the smallest class that fits.
// Requests above MaxSize are allocated directly and never pooled.
//
// # Usage
//
//	buf := bufpool.Get(chunk)
//	defer bufpool.Put(buf)
package bufpool

import (
	"math/bits"
	"sync"
)

const (
	// MinSize is the smallest pooled class (4KB).
	MinSize = 4 << 10

	// MaxSize is the largest pooled class (8MB).
	MaxSize = 8 << 20

	// DefaultChunkSize is used when a device advises no transfer size.
	DefaultChunkSize = 256 << 10
)

var (
	minShift = bits.Len(uint(MinSize)) - 1
	maxShift = bits.Len(uint(MaxSize)) - 1
)

// Pool hands out byte slices in power-of-two size classes.
type Pool struct {
	classes []sync.Pool
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	p := &Pool{classes: make([]sync.Pool, maxShift-minShift+1)}
	for i := range p.classes {
		size := 1 << (minShift + i)
		p.classes[i].New = func() any {
			buf := make([]byte, size)
			return &buf
		}
	}
	return p
}

// classIndex returns the index of the smallest class holding size bytes, or
// -1 if size is above MaxSize.
func classIndex(size int) int {
	if size <= MinSize {
		return 0
	}
	if size > MaxSize {
		return -1
	}
	return bits.Len(uint(size-1)) - minShift
}

// Get returns a slice of length size backed by a pooled buffer. The caller
// must Put it back when finished.
func (p *Pool) Get(size int) []byte {
	if size <= 0 {
		size = DefaultChunkSize
	}
	idx := classIndex(size)
	if idx < 0 {
		return make([]byte, size)
	}
	buf := *p.classes[idx].Get().(*[]byte)
	return buf[:size]
}

// Put returns a buffer obtained from Get. Buffers whose capacity is not an
// exact class size are dropped.
func (p *Pool) Put(buf []byte) {
	c := cap(buf)
	if c < MinSize || c > MaxSize || c&(c-1) != 0 {
		return
	}
	full := buf[:c]
	p.classes[classIndex(c)].Put(&full)
}

var globalPool = NewPool()

// Get returns a buffer of length size from the global pool.
func Get(size int) []byte {
	return globalPool.Get(size)
}

// Put returns a buffer to the global pool.
func Put(buf []byte) {
	globalPool.Put(buf)
}

// GetChunk is Get for the uint32 chunk sizes drivers report.
func GetChunk(size uint32) []byte {
	return globalPool.Get(int(size))
}
