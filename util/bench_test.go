package util

import (
	"bytes"
	"context"
	"io"
	"testing"
)

// BenchmarkRelay measures throughput of the console relay loop that
// carries every interactive session.
func BenchmarkRelay(b *testing.B) {
	payload := bytes.Repeat([]byte("X"), DefaultBufSize)

	b.SetBytes(int64(len(payload)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		host, dev := pipePair()

		// Device side: emit one payload, then EOF.
		go func() {
			dev.Write(payload)
			dev.Close()
		}()

		inR, inW := io.Pipe()
		Relay(context.Background(), host, inR, io.Discard, quitByte) //nolint:errcheck
		// Release the abandoned input goroutine.
		inR.Close()
		inW.Close()
	}
}

// BenchmarkBufPool measures the allocation advantage of sync.Pool
// buffer reuse versus fresh allocation.
func BenchmarkBufPool(b *testing.B) {
	b.Run("pool", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			buf := GetBuf()
			_ = (*buf)[0]
			PutBuf(buf)
		}
	})

	b.Run("alloc", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			buf := make([]byte, DefaultBufSize)
			_ = buf[0]
		}
	})
}

// BenchmarkLogger_Disabled measures the cost of a suppressed log call,
// the common case on hot paths when running without -v.
func BenchmarkLogger_Disabled(b *testing.B) {
	l := NewLogger(0)
	l.SetOutput(io.Discard)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.Debug("byte %02x at offset %d", 0x41, i)
	}
}
