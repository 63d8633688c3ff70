// Package events defines the messages the device-facing workers send
// back to whatever frontend is attached.
//
// Worker goroutines (the file manager, the firmware flasher) never
// touch the frontend directly; they emit Events, and the controller
// delivers them on a single goroutine so the frontend needs no
// locking.  Every event carries enough payload (filename, message,
// stage) to build the user-facing notification without reaching back
// into the worker.
package events

import "fmt"

// Kind discriminates the event union.
type Kind int

const (
	// Remote filesystem outcomes, one success/failure pair per
	// operation.
	FileListed Kind = iota
	FileListFailed
	FileFetched
	FileFetchFailed
	FileStored
	FileStoreFailed
	FileDeleted
	FileDeleteFailed

	// Firmware pipeline.
	FlashStarted
	FlashProgress
	FlashSucceeded
	FlashFailed
)

func (k Kind) String() string {
	switch k {
	case FileListed:
		return "file-listed"
	case FileListFailed:
		return "file-list-failed"
	case FileFetched:
		return "file-fetched"
	case FileFetchFailed:
		return "file-fetch-failed"
	case FileStored:
		return "file-stored"
	case FileStoreFailed:
		return "file-store-failed"
	case FileDeleted:
		return "file-deleted"
	case FileDeleteFailed:
		return "file-delete-failed"
	case FlashStarted:
		return "flash-started"
	case FlashProgress:
		return "flash-progress"
	case FlashSucceeded:
		return "flash-succeeded"
	case FlashFailed:
		return "flash-failed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is the single message type crossing the worker → frontend
// boundary.  Which fields are populated depends on Kind.
type Event struct {
	Kind  Kind
	Name  string   // file events: the filename involved
	Names []string // FileListed: the ordered device listing
	Stage string   // flash events: "download", "erase", "write"
	Msg   string   // human-readable line for the UI
	Bytes int64    // byte progress, when known (downloads)
	Total int64    // total bytes, when known (0 = unknown)
	Err   error    // failure events: the underlying cause
}

// ── Constructors ─────────────────────────────────────────────────────
//
// One constructor per emission site keeps the payload contracts in a
// single place.

// Listed reports a successful device listing.
func Listed(names []string) Event { return Event{Kind: FileListed, Names: names} }

// ListFailed reports that the device listing could not be obtained.
func ListFailed(err error) Event { return Event{Kind: FileListFailed, Err: err} }

// Fetched reports that the named remote file was copied locally.
func Fetched(name string) Event { return Event{Kind: FileFetched, Name: name} }

// FetchFailed reports a failed download of the named remote file.
func FetchFailed(name string, err error) Event {
	return Event{Kind: FileFetchFailed, Name: name, Err: err}
}

// Stored reports that a local file landed on the device under name.
func Stored(name string) Event { return Event{Kind: FileStored, Name: name} }

// StoreFailed reports a failed upload; name is the local source path.
func StoreFailed(name string, err error) Event {
	return Event{Kind: FileStoreFailed, Name: name, Err: err}
}

// Deleted reports that the named remote file was removed.
func Deleted(name string) Event { return Event{Kind: FileDeleted, Name: name} }

// DeleteFailed reports a failed removal of the named remote file.
func DeleteFailed(name string, err error) Event {
	return Event{Kind: FileDeleteFailed, Name: name, Err: err}
}

// Started reports that a flash job began against port.
func Started(port string) Event {
	return Event{Kind: FlashStarted, Msg: fmt.Sprintf("flashing device on %s", port)}
}

// Progress reports one line of flash pipeline output.
func Progress(stage, msg string) Event {
	return Event{Kind: FlashProgress, Stage: stage, Msg: msg}
}

// TransferProgress reports byte-level progress for stages where the
// totals are known, so frontends can render a real progress bar.
func TransferProgress(stage string, bytes, total int64) Event {
	return Event{Kind: FlashProgress, Stage: stage, Bytes: bytes, Total: total}
}

// Succeeded reports flash completion with a human-readable summary.
func Succeeded(msg string) Event { return Event{Kind: FlashSucceeded, Msg: msg} }

// Failed reports flash failure.  The message must be shown to the
// user; it includes the do-not-disconnect warning.
func Failed(msg string, err error) Event {
	return Event{Kind: FlashFailed, Msg: msg, Err: err}
}
