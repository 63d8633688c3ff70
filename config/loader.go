package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the MPBOARD_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("MPBOARD_PORT"); v != "" {
		cfg.Port = v
	}
	if v := envInt("MPBOARD_BAUD"); v > 0 {
		cfg.Baud = v
	}
	if v := os.Getenv("MPBOARD_BOARD"); v != "" {
		cfg.Board = v
	}
	if v := os.Getenv("MPBOARD_BOARDS_FILE"); v != "" {
		cfg.BoardsFile = v
	}
	if v := envInt("MPBOARD_TIMEOUT"); v > 0 {
		cfg.Timeout = secondsDuration(v)
	}

	// Flashing
	if v := os.Getenv("MPBOARD_FIRMWARE"); v != "" {
		cfg.Firmware = v
	}
	if v := os.Getenv("MPBOARD_FLASH_TOOL"); v != "" {
		cfg.FlashTool = v
	}
	if envBool("MPBOARD_YES") {
		cfg.Yes = true
	}

	// Output
	if v := envInt("MPBOARD_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func secondsDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
