package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultBaud is the interactive line speed every MicroPython
	// firmware ships with.
	DefaultBaud = 115200

	// DefaultBoard is the family used when none is specified.
	DefaultBoard = "micropython"

	// DefaultReadTimeout bounds blocking serial reads so a silent
	// device cannot hang a worker.
	DefaultReadTimeout = 2 * time.Second

	// DefaultFlashTool is the external flashing binary, resolved on
	// PATH.
	DefaultFlashTool = "esptool.py"

	// DefaultDownloadTimeout bounds the whole firmware fetch.
	DefaultDownloadTimeout = 90 * time.Second

	// DefaultDiscoverAttempts is how many enumeration passes device
	// discovery makes.  Boards enumerate slowly right after plug-in.
	DefaultDiscoverAttempts = 3

	// DefaultDiscoverDelay is the initial backoff between discovery
	// attempts.
	DefaultDiscoverDelay = 500 * time.Millisecond
)
