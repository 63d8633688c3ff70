package core

import (
	"context"
	"fmt"

	"mpboard/config"
	"mpboard/internal/board"
	"mpboard/internal/flash"
	"mpboard/internal/metrics"
	"mpboard/util"
)

// FlashMode rewrites the board's firmware with the external tool.
//
// The serial port stays closed on our side: the flashing tool opens
// it itself, and holding it open here would make the tool find the
// port busy.
type FlashMode struct {
	Config    *config.Config
	Family    *board.Family
	Firmware  string // local image path; empty downloads the family URL
	UI        Frontend
	Logger    *util.Logger
	Collector *metrics.Collector
}

// Run resolves the target port, asks for confirmation, and drives the
// flash pipeline to its terminal event.  Declining the confirmation
// is a quiet no-op.
func (m *FlashMode) Run(ctx context.Context) error {
	port, err := resolvePort(ctx, m.Config, m.Family, m.Logger)
	if err != nil {
		return err
	}

	prompt := fmt.Sprintf("Erase %s on %s and write new firmware? [y/N] ",
		m.Family.DisplayName, port)
	if !m.UI.Confirm(prompt) {
		m.Logger.Info("flash cancelled")
		return nil
	}

	ctrl := NewController(nil, m.UI, m.Logger)
	defer ctrl.Close()
	if err := ctrl.Acquire("flash"); err != nil {
		return err
	}
	defer ctrl.Release("flash")

	flasher := flash.NewFlasher(m.Config.FlashTool, ctrl.Notify, m.Logger, m.Collector)
	job := flash.NewJob(port, m.Family, m.Firmware)
	if err := flasher.Start(ctx, job); err != nil {
		return err
	}
	flasher.Wait()

	if job.Status() == flash.Failed {
		return job.Err()
	}
	return nil
}
