package bufpool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferAllocation(t *testing.T) {
	t.Run("AllocatesMinimumClass", func(t *testing.T) {
		buf := Get(100)
		defer Put(buf)

		assert.Len(t, buf, 100)
		assert.Equal(t, MinSize, cap(buf))
	})

	t.Run("RoundsUpToPowerOfTwo", func(t *testing.T) {
		buf := Get(100 * 1024)
		defer Put(buf)

		assert.Len(t, buf, 100*1024)
		assert.Equal(t, 128*1024, cap(buf))
	})

	t.Run("ExactClassSizeIsNotRounded", func(t *testing.T) {
		buf := Get(256 * 1024)
		defer Put(buf)

		assert.Equal(t, 256*1024, cap(buf))
	})

	t.Run("AllocatesOversizedBuffer", func(t *testing.T) {
		buf := Get(MaxSize + 1)
		defer Put(buf)

		assert.Len(t, buf, MaxSize+1)
		assert.Equal(t, len(buf), cap(buf))
	})

	t.Run("ZeroSizeUsesDefaultChunk", func(t *testing.T) {
		buf := Get(0)
		defer Put(buf)

		assert.Len(t, buf, DefaultChunkSize)
	})

	t.Run("GetChunkAcceptsUint32", func(t *testing.T) {
		buf := GetChunk(65536)
		defer Put(buf)

		assert.Len(t, buf, 65536)
	})
}

func TestClassIndex(t *testing.T) {
	assert.Equal(t, 0, classIndex(1))
	assert.Equal(t, 0, classIndex(MinSize))
	assert.Equal(t, 1, classIndex(MinSize+1))
	assert.Equal(t, 1, classIndex(2*MinSize))
	assert.Equal(t, maxShift-minShift, classIndex(MaxSize))
	assert.Equal(t, -1, classIndex(MaxSize+1))
}

func TestPut(t *testing.T) {
	t.Run("ReusesReturnedBuffer", func(t *testing.T) {
		p := NewPool()
		buf := p.Get(MinSize)
		buf[0] = 42
		p.Put(buf)

		again := p.Get(10)
		require.Equal(t, MinSize, cap(again))
	})

	t.Run("IgnoresForeignBuffers", func(t *testing.T) {
		p := NewPool()
		assert.NotPanics(t, func() {
			p.Put(nil)
			p.Put(make([]byte, 5000))
			p.Put(make([]byte, MaxSize*2))
		})
	})
}

func TestConcurrentAccess(t *testing.T) {
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := range 100 {
				size := (n + 1) * (j + 1) * 1024
				buf := Get(size)
				assert.Len(t, buf, size)
				Put(buf)
			}
		}(i)
	}
	wg.Wait()
}
