// Package cmd wires up the CLI flags and dispatches to the board core.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"mpboard/config"
	"mpboard/internal/core"
	"mpboard/internal/metrics"
	"mpboard/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X mpboard/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs the requested mpboard action.
func Execute(ctx context.Context, args []string) error {
	cfg := &config.Config{
		Baud:      config.DefaultBaud,
		Timeout:   config.DefaultReadTimeout,
		Board:     config.DefaultBoard,
		FlashTool: config.DefaultFlashTool,
	}
	// Environment fills in before flag registration so flags win.
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("mpboard", flag.ContinueOnError)

	// ── connection ───────────────────────────────────────────────
	fs.StringVarP(&cfg.Port, "port", "p", cfg.Port, "Serial port, optionally port@baud (default: discover)")
	fs.IntVarP(&cfg.Baud, "baud", "b", cfg.Baud, "Line speed for the interactive connection")
	fs.StringVarP(&cfg.Board, "board", "B", cfg.Board, "Board family")
	fs.StringVar(&cfg.BoardsFile, "boards-file", cfg.BoardsFile, "YAML file with custom board families")

	var timeoutSec int
	fs.IntVarP(&timeoutSec, "timeout", "w", 0, "Serial read timeout in seconds")

	// ── flashing ─────────────────────────────────────────────────
	fs.StringVarP(&cfg.Firmware, "firmware", "f", cfg.Firmware, "Firmware image path, or URL to download")
	fs.StringVar(&cfg.FlashTool, "flash-tool", cfg.FlashTool, "External flashing tool binary")
	fs.BoolVarP(&cfg.Yes, "yes", "y", cfg.Yes, "Answer yes to every confirmation")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var showVersion, showHelp, dryRun bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")
	fs.BoolVar(&dryRun, "dry-run", false, "Validate the configuration and exit")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp || len(args) == 0 {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("mpboard %s\n", version)
		return nil
	}

	if timeoutSec > 0 {
		cfg.Timeout = time.Duration(timeoutSec) * time.Second
	}

	// -p accepts port@baud; the suffix overrides -b.
	if cfg.Port != "" {
		port, baud, err := config.ParsePortSpec(cfg.Port)
		if err != nil {
			return err
		}
		cfg.Port = port
		if baud > 0 {
			cfg.Baud = baud
		}
	}

	// ── positional arguments ─────────────────────────────────────
	if rest := fs.Args(); len(rest) > 0 {
		cfg.Action = rest[0]
		cfg.Args = rest[1:]
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	// ── build components ─────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)
	col := metrics.New()
	ui := newTerminal(cfg, logger)

	mode, err := core.Build(cfg, ui, col, logger)
	if err != nil {
		return err
	}

	// The console needs the local terminal in raw mode, but only when
	// stdin really is one; piped input stays cooked.
	if rm, ok := mode.(*core.ReplMode); ok && term.IsTerminal(int(os.Stdin.Fd())) {
		fd := int(os.Stdin.Fd())
		rm.MakeRaw = func() (func(), error) {
			old, err := term.MakeRaw(fd)
			if err != nil {
				return nil, err
			}
			return func() { _ = term.Restore(fd, old) }, nil
		}
	}

	if dryRun {
		logger.Verbose("configuration OK; %s mode ready", cfg.Action)
		return nil
	}

	err = mode.Run(ctx)
	if logger.Level() >= util.LogVerbose {
		logger.Verbose("session metrics:\n%s", col.JSON())
	}
	if err != nil {
		return err
	}
	// Operations that report failures as events still exit nonzero.
	return ui.Err()
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `mpboard – MicroPython board tool v%s

Talk to MicroPython-class boards over serial: run code, manage the
device filesystem, flash firmware.

Usage:
  mpboard [options] run <file.py | ->     Execute a program on the board
  mpboard [options] stop                  Interrupt running code
  mpboard [options] repl                  Open the interactive prompt
  mpboard [options] ls                    List files on the device
  mpboard [options] get <name> [local]    Copy a file from the device
  mpboard [options] put <file>            Copy a file to the device
  mpboard [options] rm <name>             Delete a file on the device
  mpboard [options] flash                 Erase and write firmware
  mpboard [options] ports                 List serial ports

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  mpboard -B esp32 run blink.py           Run a program on an ESP32
  echo "print(1)" | mpboard run -         Run code piped on stdin
  mpboard -p /dev/ttyUSB0@57600 repl      Prompt at a custom baud rate
  mpboard -B esp32 flash --yes            Download and flash the family firmware
  mpboard -B esp32 flash -f custom.bin    Flash a local image
  mpboard ports                           Show ports and the families claiming them

Environment:
  MPBOARD_PORT, MPBOARD_BAUD, MPBOARD_BOARD, MPBOARD_BOARDS_FILE,
  MPBOARD_TIMEOUT, MPBOARD_FIRMWARE, MPBOARD_FLASH_TOOL, MPBOARD_YES
  and MPBOARD_VERBOSE set defaults; flags override them.
`)
}
