package capture

import "sync"

// Raw RGBA buffers are canvas-sized and requested every iteration, so they
// are pooled instead of reallocated. Only the raw buffer is pooled: encoded
// frames are handed downstream and never come back.

var rawPool sync.Pool // stores *[]byte

// acquireRaw returns a zeroed-length buffer of exactly n bytes.
func acquireRaw(n int) []byte {
	if v := rawPool.Get(); v != nil {
		buf := *v.(*[]byte)
		if cap(buf) >= n {
			return buf[:n]
		}
	}
	return make([]byte, n)
}

// recycleRaw returns buf to the pool. buf must not be used afterwards.
func recycleRaw(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	rawPool.Put(&buf)
}
