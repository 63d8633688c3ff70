// Package errors provides domain-specific error types for mpboard.
//
// These types carry structured context (operation, port, filename,
// flash stage) that lets callers map failures onto user-facing
// notifications and provides better diagnostics than plain string
// wrapping.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrTimeout           = errors.New("serial read timed out")
	ErrNotConnected      = errors.New("not connected")
	ErrNoDevice          = errors.New("no matching device found")
	ErrBusy              = errors.New("connection owned by another session")
	ErrInterruptDisabled = errors.New("board does not support keyboard interrupt")
	ErrFlashActive       = errors.New("a flash job is already running")
)

// ── Structured error types ───────────────────────────────────────────

// ConnectionError represents a failure to locate or open a serial port.
type ConnectionError struct {
	Port string // port name involved ("" when discovery itself failed)
	Err  error  // underlying error
	Busy bool   // whether another program holds the port
}

func (e *ConnectionError) Error() string {
	port := e.Port
	if port == "" {
		port = "device"
	}
	s := fmt.Sprintf("open %s: %v", port, e.Err)
	if e.Busy {
		s += " (port in use by another program)"
	}
	return s
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IOError represents a read or write failure on an open connection.
type IOError struct {
	Op   string // "write", "read", "read-line"
	Port string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// EncodingError reports that a source buffer is not ASCII-encodable.
// It is raised before any byte reaches the device.
type EncodingError struct {
	Offset int  // index of the first offending byte
	Byte   byte // the offending byte
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("source is not ASCII: byte 0x%02x at offset %d", e.Byte, e.Offset)
}

// RunError represents a failure of one step of the raw-REPL run
// sequence.  Step is one of "enter-raw", "send", "execute", "exit-raw".
type RunError struct {
	Step string
	Err  error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("run: %s: %v", e.Step, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// FileError represents the failure of a single remote filesystem
// operation.  Name is the remote filename (or local source path for
// failed puts), so callers can surface it in the notification.
type FileError struct {
	Op   string // "list", "get", "put", "delete"
	Name string
	Err  error
}

func (e *FileError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Name, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// FlashError represents the failure of one firmware pipeline stage.
type FlashError struct {
	Stage string // "download", "erase", "write"
	Err   error
}

func (e *FlashError) Error() string {
	return fmt.Sprintf("flash %s: %v", e.Stage, e.Err)
}

func (e *FlashError) Unwrap() error { return e.Err }

// ToolFailure represents an unexpected fault of the external flashing
// tool: missing binary, crash, or a kill before completion.
type ToolFailure struct {
	Tool string
	Err  error
}

func (e *ToolFailure) Error() string {
	return fmt.Sprintf("flash tool %s: %v", e.Tool, e.Err)
}

func (e *ToolFailure) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// WrapConn creates a ConnectionError, automatically detecting whether
// the port is held by another program.
func WrapConn(port string, err error) *ConnectionError {
	return &ConnectionError{Port: port, Err: err, Busy: classifyBusy(err)}
}

// WrapIO creates an IOError.
func WrapIO(op, port string, err error) *IOError {
	return &IOError{Op: op, Port: port, Err: err}
}

// ListError creates a FileError for a failed listing.
func ListError(err error) *FileError { return &FileError{Op: "list", Err: err} }

// GetError creates a FileError for a failed download of name.
func GetError(name string, err error) *FileError {
	return &FileError{Op: "get", Name: name, Err: err}
}

// PutError creates a FileError for a failed upload of the local source.
func PutError(local string, err error) *FileError {
	return &FileError{Op: "put", Name: local, Err: err}
}

// DeleteError creates a FileError for a failed deletion of name.
func DeleteError(name string, err error) *FileError {
	return &FileError{Op: "delete", Name: name, Err: err}
}

// DownloadError creates a FlashError for the download stage.
func DownloadError(err error) *FlashError { return &FlashError{Stage: "download", Err: err} }

// EraseError creates a FlashError for the erase stage.
func EraseError(err error) *FlashError { return &FlashError{Stage: "erase", Err: err} }

// WriteError creates a FlashError for the write stage.
func WriteError(err error) *FlashError { return &FlashError{Stage: "write", Err: err} }

// ── Classification helpers ───────────────────────────────────────────

// IsBusy reports whether err indicates the serial port is held by
// another program.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	var ce *ConnectionError
	if errors.As(err, &ce) {
		return ce.Busy
	}
	return classifyBusy(err)
}

// IsTimeout reports whether err is (or wraps) a serial read timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// classifyBusy inspects the error text for the platform-specific
// phrasings of "somebody else has the port": Windows reports access
// denials, POSIX reports EBUSY variants.
func classifyBusy(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "access is denied") ||
		strings.Contains(s, "permission denied") ||
		strings.Contains(s, "resource busy") ||
		strings.Contains(s, "device or resource busy") ||
		strings.Contains(s, "in use")
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use mpboard/internal/errors as a drop-in
// replacement for the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
