package core

import (
	"context"
	"io"
	"os"

	"mpboard/config"
	"mpboard/internal/board"
	"mpboard/internal/metrics"
	"mpboard/util"
)

// consoleQuit ends the interactive console: CTRL-], the classic
// telnet escape.
const consoleQuit = 0x1d

// ReplMode attaches the local terminal to the board's interactive
// prompt.
type ReplMode struct {
	Config    *config.Config
	Family    *board.Family
	UI        Notifier
	Logger    *util.Logger
	Collector *metrics.Collector

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	// Override in tests for deterministic I/O.
	Stdin  io.Reader
	Stdout io.Writer

	// MakeRaw, when set, switches the terminal into raw mode for the
	// session.  The CLI supplies it when stdin is a real terminal;
	// piped input needs no terminal handling.
	MakeRaw func() (restore func(), err error)
}

func (m *ReplMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func (m *ReplMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run opens the device and relays bytes between it and the terminal
// until the quit byte shows up or the device side fails.
func (m *ReplMode) Run(ctx context.Context) error {
	dev, err := openDevice(ctx, m.Config, m.Family, m.Collector, m.Logger)
	if err != nil {
		return err
	}
	ctrl := NewController(dev, m.UI, m.Logger)
	defer ctrl.Close()
	if err := ctrl.Acquire("repl"); err != nil {
		return err
	}
	defer ctrl.Release("repl")

	m.Logger.Info("connected to %s; CTRL-] exits", dev.Port())

	if m.MakeRaw != nil {
		restore, err := m.MakeRaw()
		if err != nil {
			return err
		}
		defer restore()
	}

	// Coax the firmware into printing a fresh prompt: CTRL-B clears a
	// raw mode a previous session may have left the board stuck in,
	// and the CR makes it redraw.
	if _, err := dev.Write([]byte{0x02, '\r'}); err != nil {
		return err
	}
	return util.Relay(ctx, dev, m.stdin(), m.stdout(), consoleQuit)
}
