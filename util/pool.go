package util

import "sync"

// DefaultBufSize is the standard buffer size for serial I/O (4 KiB).
// Serial lines run at kilobytes per second; bigger buffers only delay
// delivery of console output.
const DefaultBufSize = 4 * 1024

// BufPool provides reusable byte buffers for serial I/O, reducing GC
// pressure in the console relay and tool-output streaming loops.
var BufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, DefaultBufSize)
		return &buf
	},
}

// GetBuf retrieves a buffer from the pool.  Callers must return it
// with [PutBuf] when finished.
func GetBuf() *[]byte {
	return BufPool.Get().(*[]byte)
}

// PutBuf returns a buffer to the pool for reuse.
func PutBuf(buf *[]byte) {
	if buf == nil {
		return
	}
	BufPool.Put(buf)
}
