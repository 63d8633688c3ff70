package core

import (
	"context"

	"mpboard/config"
	"mpboard/internal/board"
	"mpboard/internal/metrics"
	"mpboard/internal/repl"
	"mpboard/util"
)

// RunMode sends a program to the board for one-shot execution through
// raw-REPL mode.
type RunMode struct {
	Config    *config.Config
	Family    *board.Family
	Source    SourceProvider
	UI        Notifier
	Logger    *util.Logger
	Collector *metrics.Collector
}

// Run reads the source, opens the device, and drives the raw-mode
// sequence.  On interrupt-capable boards any running program is
// stopped first, the way a user at the prompt would CTRL-C before
// pasting new code.
func (m *RunMode) Run(ctx context.Context) error {
	src, err := m.Source.SourceText()
	if err != nil {
		return err
	}

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

	if err := dev.FlushInput(); err != nil {
		return err
	}
	sess := repl.New(dev, m.Family, m.Logger, m.Collector)
	if m.Family.ForceInterrupt {
		if err := sess.Stop(); err != nil {
			return err
		}
	}
	if err := sess.Run(src); err != nil {
		return err
	}
	m.Logger.Info("sent %d bytes to %s for execution", len(src), dev.Port())
	return nil
}

// StopMode interrupts running code and returns the board to the
// friendly prompt.
type StopMode struct {
	Config    *config.Config
	Family    *board.Family
	UI        Notifier
	Logger    *util.Logger
	Collector *metrics.Collector
}

// Run opens the device and sends the stop sequence.  Families with
// interrupts disabled fail with ErrInterruptDisabled before anything
// is written, so the user learns why nothing happened.
func (m *StopMode) Run(ctx context.Context) error {
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

	sess := repl.New(dev, m.Family, m.Logger, m.Collector)
	if err := sess.Stop(); err != nil {
		return err
	}
	m.Logger.Info("stopped running code on %s", dev.Port())
	return nil
}
