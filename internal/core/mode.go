// Package core composes the device-facing layers into complete CLI
// actions and arbitrates ownership of the serial connection.
//
// Architecture layers (bottom → top):
//
//	transport  →  board  →  repl / files / flash  →  core  →  cmd (CLI)
//
// The builder in this package is the single dispatch point mapping a
// parsed Config onto one Mode; the Controller enforces that the REPL,
// the file manager, and the flasher never drive the same connection
// at the same time.
package core

import (
	"context"
	"io"

	"mpboard/internal/transport"
)

// Mode is one complete CLI action (run, ls, flash, ...).  Each mode
// owns its full lifecycle from port discovery to teardown.
type Mode interface {
	Run(ctx context.Context) error
}

// Device is the connection surface modes operate on: the protocol
// channel plus raw reads for the console relay.  transport.Conn
// satisfies it; tests substitute fakes.
type Device interface {
	transport.Channel
	io.Reader
}
