// Package config defines the runtime configuration for mpboard and
// provides helpers for parsing port specifications.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"mpboard/internal/errors"
)

// Config holds every tuneable for a single mpboard session.
type Config struct {
	// ── Action ───────────────────────────────────────────────────────
	Action string   // CLI verb: run, stop, repl, ls, get, put, rm, flash, ports
	Args   []string // positional arguments after the verb

	// ── Connection ───────────────────────────────────────────────────
	Port    string        // serial port, e.g. /dev/ttyUSB0 or COM3
	Baud    int           // line speed for the interactive connection
	Timeout time.Duration // bounded read timeout on the serial channel

	// ── Board ────────────────────────────────────────────────────────
	Board      string // family name, e.g. "esp32"
	BoardsFile string // optional YAML file with custom families

	// ── Flashing ─────────────────────────────────────────────────────
	Firmware  string // local image path or URL override; empty → family URL
	FlashTool string // external tool binary, resolved on PATH
	Yes       bool   // skip the destructive-flash confirmation

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
}

// ── Port-spec parser ─────────────────────────────────────────────────

// portRe matches port[@baud], e.g. "/dev/ttyUSB0@57600" or "COM3".
var portRe = regexp.MustCompile(`^([^@]+)(?:@(\d+))?$`)

// ParsePortSpec extracts the port name and an optional baud override
// from a string such as "/dev/ttyACM0@57600".  Baud 0 means "not
// given"; the caller falls back to the configured default.
func ParsePortSpec(spec string) (port string, baud int, err error) {
	m := portRe.FindStringSubmatch(spec)
	if m == nil || m[1] == "" {
		return "", 0, fmt.Errorf("invalid port spec %q – expected port[@baud]", spec)
	}
	port = m[1]
	if m[2] != "" {
		baud, err = strconv.Atoi(m[2])
		if err != nil || baud < 1 {
			return "", 0, fmt.Errorf("invalid baud %q in port spec", m[2])
		}
	}
	return port, baud, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
// Port may legitimately be empty here: discovery fills it in later.
func (c *Config) Validate() error {
	if c.Baud < 1 {
		return &errors.ConfigError{
			Field:   "baud",
			Value:   fmt.Sprintf("%d", c.Baud),
			Message: "baud rate must be positive",
			Hint:    "common rates are 9600, 57600, and 115200",
		}
	}
	if c.Timeout <= 0 {
		return &errors.ConfigError{
			Field:   "timeout",
			Value:   c.Timeout.String(),
			Message: "read timeout must be positive",
			Hint:    "use -w <seconds>, e.g. -w 2",
		}
	}
	if c.Board == "" {
		return &errors.ConfigError{
			Field:   "board",
			Message: "board family is required",
			Hint:    "use -B <family> or MPBOARD_BOARD; `mpboard ports` lists candidates per family",
		}
	}
	if c.FlashTool == "" {
		return &errors.ConfigError{
			Field:   "flash-tool",
			Message: "flash tool must not be empty",
			Hint:    "the default is esptool.py; install it with `pip install esptool`",
		}
	}
	return nil
}
