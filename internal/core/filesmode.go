package core

import (
	"context"

	"mpboard/config"
	"mpboard/internal/board"
	"mpboard/internal/files"
	"mpboard/internal/metrics"
	"mpboard/util"
)

// FileOp selects which remote filesystem operation a FilesMode runs.
type FileOp string

const (
	OpList   FileOp = "ls"
	OpGet    FileOp = "get"
	OpPut    FileOp = "put"
	OpDelete FileOp = "rm"
)

// FilesMode runs one remote filesystem action through the background
// file manager, reporting results as events.
type FilesMode struct {
	Config    *config.Config
	Family    *board.Family
	Op        FileOp
	Name      string // remote name (get/rm) or local source path (put)
	Local     string // local destination for get; "" means the remote name
	UI        Notifier
	Logger    *util.Logger
	Collector *metrics.Collector
}

// Run opens the device, starts the file manager worker, and queues
// the operation.  The manager emits the device listing on startup;
// mutations queue a fresh listing afterwards so the frontend always
// ends on current state.  All results arrive as events before Run
// returns.
func (m *FilesMode) Run(ctx context.Context) error {
	dev, err := openDevice(ctx, m.Config, m.Family, m.Collector, m.Logger)
	if err != nil {
		return err
	}
	ctrl := NewController(dev, m.UI, m.Logger)
	defer ctrl.Close()
	if err := ctrl.Acquire("files"); err != nil {
		return err
	}
	defer ctrl.Release("files")

	client := files.NewClient(dev, m.Family, m.Logger, m.Collector)
	mgr := files.NewManager(client, ctrl.Notify, m.Logger)
	mgr.Start()

	switch m.Op {
	case OpList:
		// The startup listing is the result.
	case OpGet:
		mgr.Get(m.Name, m.Local)
	case OpPut:
		mgr.Put(m.Name)
		mgr.List()
	case OpDelete:
		mgr.Delete(m.Name)
		mgr.List()
	}

	mgr.Stop()
	return nil
}
