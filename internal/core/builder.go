package core

import (
	"fmt"
	"strings"

	"mpboard/config"
	"mpboard/internal/board"
	"mpboard/internal/metrics"
	"mpboard/util"
)

// actionList is every verb Build accepts, for error messages.
const actionList = "run, stop, repl, ls, get, put, rm, flash, ports"

// Build constructs the Mode for cfg.Action.  This is the single
// dispatch point between the CLI surface and the device layers.
func Build(cfg *config.Config, ui Frontend, col *metrics.Collector, logger *util.Logger) (Mode, error) {
	reg, fam, err := loadFamilies(cfg)
	if err != nil {
		return nil, err
	}

	switch cfg.Action {
	case "run":
		if len(cfg.Args) < 1 {
			return nil, fmt.Errorf("run: source file required (or - for stdin)")
		}
		return &RunMode{Config: cfg, Family: fam, Source: ui, UI: ui,
			Logger: logger, Collector: col}, nil

	case "stop":
		return &StopMode{Config: cfg, Family: fam, UI: ui,
			Logger: logger, Collector: col}, nil

	case "repl":
		return &ReplMode{Config: cfg, Family: fam, UI: ui,
			Logger: logger, Collector: col}, nil

	case "ls", "get", "put", "rm":
		return buildFiles(cfg, fam, ui, col, logger)

	case "flash":
		return buildFlash(cfg, fam, ui, col, logger)

	case "ports":
		return &PortsMode{Registry: reg, Logger: logger}, nil

	case "":
		return nil, fmt.Errorf("no action given (one of: %s)", actionList)
	default:
		return nil, fmt.Errorf("unknown action %q (one of: %s)", cfg.Action, actionList)
	}
}

func buildFiles(cfg *config.Config, fam *board.Family, ui Frontend, col *metrics.Collector, logger *util.Logger) (Mode, error) {
	m := &FilesMode{Config: cfg, Family: fam, Op: FileOp(cfg.Action), UI: ui,
		Logger: logger, Collector: col}

	switch m.Op {
	case OpList:
	case OpGet:
		if len(cfg.Args) < 1 {
			return nil, fmt.Errorf("get: remote filename required")
		}
		m.Name = cfg.Args[0]
		if len(cfg.Args) > 1 {
			m.Local = cfg.Args[1]
		}
	case OpPut:
		if len(cfg.Args) < 1 {
			return nil, fmt.Errorf("put: local file required")
		}
		m.Name = cfg.Args[0]
	case OpDelete:
		if len(cfg.Args) < 1 {
			return nil, fmt.Errorf("rm: remote filename required")
		}
		m.Name = cfg.Args[0]
	}
	return m, nil
}

func buildFlash(cfg *config.Config, fam *board.Family, ui Frontend, col *metrics.Collector, logger *util.Logger) (Mode, error) {
	firmware := cfg.Firmware
	if strings.HasPrefix(firmware, "http://") || strings.HasPrefix(firmware, "https://") {
		// A URL override replaces the family's release URL; the
		// pipeline still downloads to a temp file first.
		custom := *fam
		custom.FirmwareURL = firmware
		fam = &custom
		firmware = ""
	}
	if !fam.CanFlash() {
		return nil, fmt.Errorf(
			"board family %q has no flashing geometry; pick one with -B or define flash_baud in a boards file",
			fam.Name)
	}
	if firmware == "" && fam.FirmwareURL == "" {
		return nil, fmt.Errorf(
			"board family %q has no firmware URL; pass --firmware <image>", fam.Name)
	}
	return &FlashMode{Config: cfg, Family: fam, Firmware: firmware, UI: ui,
		Logger: logger, Collector: col}, nil
}
