package core

import (
	"context"

	"mpboard/config"
	"mpboard/internal/board"
	"mpboard/internal/metrics"
	"mpboard/internal/transport"
	"mpboard/util"
)

// Seams for tests; discovery and opening need real hardware.
var (
	findDevice = transport.FindDevice
	openPort   = func(name string, st transport.Settings) (Device, error) {
		return transport.Open(name, st)
	}
)

// resolvePort returns the port to use: an explicit --port wins,
// otherwise USB discovery filtered by the family's adapter IDs.
// Boards enumerate a beat after plug-in, so discovery retries.
func resolvePort(ctx context.Context, cfg *config.Config, fam *board.Family, logger *util.Logger) (string, error) {
	if cfg.Port != "" {
		return cfg.Port, nil
	}
	logger.Verbose("no port given; looking for a %s board", fam.DisplayName)
	info, err := findDevice(ctx, fam.Matches,
		config.DefaultDiscoverAttempts, config.DefaultDiscoverDelay)
	if err != nil {
		return "", err
	}
	logger.Info("found %s on %s", fam.DisplayName, info.Name)
	return info.Name, nil
}

// openDevice resolves the port and opens it with the configured line
// settings.
func openDevice(ctx context.Context, cfg *config.Config, fam *board.Family, col *metrics.Collector, logger *util.Logger) (Device, error) {
	port, err := resolvePort(ctx, cfg, fam, logger)
	if err != nil {
		return nil, err
	}
	dev, err := openPort(port, transport.Settings{
		Baud:        cfg.Baud,
		ReadTimeout: cfg.Timeout,
		Collector:   col,
	})
	if err != nil {
		return nil, err
	}
	logger.Verbose("opened %s at %d baud", port, cfg.Baud)
	return dev, nil
}

// loadFamilies builds the family registry from the compiled-in
// defaults plus the optional user boards file, then resolves the
// configured family.
func loadFamilies(cfg *config.Config) (*board.Registry, *board.Family, error) {
	reg := board.Builtin()
	if cfg.BoardsFile != "" {
		if err := board.LoadFile(reg, cfg.BoardsFile); err != nil {
			return nil, nil, err
		}
	}
	fam, err := reg.Lookup(cfg.Board)
	if err != nil {
		return nil, nil, err
	}
	return reg, fam, nil
}
