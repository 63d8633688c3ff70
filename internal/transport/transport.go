// Package transport provides the byte-oriented serial channel every
// higher layer drives.  It handles the "how" of moving bytes to a
// board — opening ports, bounded reads, discovery — independent of
// what the bytes mean (which is the protocol layers' job).
package transport

import (
	"time"

	"mpboard/internal/metrics"
)

// Channel is the surface the protocol layers (raw-mode runner, remote
// filesystem) operate on.  Implementations must make Close idempotent
// and bound every read with a timeout.
type Channel interface {
	// Write sends p in full or fails with an IOError.
	Write(p []byte) (int, error)

	// ReadByte returns the next byte, waiting at most the channel's
	// read timeout.
	ReadByte() (byte, error)

	// ReadLine returns the next LF-terminated line with the
	// terminator (and a preceding CR) stripped.  The whole line must
	// arrive within the channel's read timeout.
	ReadLine() ([]byte, error)

	// FlushInput discards unread device output (boot banners, stale
	// prompt text).
	FlushInput() error

	// Port returns the port identifier, for error context.
	Port() string

	// Close releases the port.  Safe to call more than once.
	Close() error
}

// Settings carries the line parameters for Open.  The zero value is
// not usable; baud is required.
type Settings struct {
	Baud        int
	ReadTimeout time.Duration

	// Collector receives byte counters for the session.  May be nil.
	Collector *metrics.Collector
}
