// Package flash implements the firmware update pipeline: resolve an
// image (local file or downloaded from the family's release URL),
// erase the board's storage with the external flashing tool, and
// write the image at the family's flash offset.
//
// The pipeline runs on a background worker and reports through
// events.  Tool output is streamed line by line as it appears; a
// whole flash can take minutes, and buffering the output until the
// end would make any frontend look hung.  Once erasing has begun the
// job runs to completion or failure — there is no cancelling a half
// erased board into a working state.
package flash

import (
	"sync"

	"mpboard/internal/board"
)

// Status of a flash job.  Succeeded and Failed are terminal.
type Status int

const (
	Pending Status = iota
	Downloading
	Erasing
	Writing
	Succeeded
	Failed
)

var statusNames = [...]string{
	"pending", "downloading", "erasing", "writing", "succeeded", "failed",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool { return s == Succeeded || s == Failed }

// Job is one firmware-update attempt.  The worker mutates it;
// accessors are safe to call from any goroutine.
type Job struct {
	Port     string        // serial port to flash through
	Firmware string        // local image path; empty means download
	Family   *board.Family // supplies URL, baud, and offset

	mu      sync.Mutex
	status  Status
	lastErr error
	bytes   int64 // download progress
	lines   int   // tool output lines seen
}

// NewJob describes a flash of the family's firmware through port.
// firmware overrides the family's download URL with a local image.
func NewJob(port string, fam *board.Family, firmware string) *Job {
	return &Job{Port: port, Firmware: firmware, Family: fam}
}

// Status returns the job's current stage.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Err returns the error that moved the job to Failed, or nil.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastErr
}

// Progress returns bytes downloaded and tool output lines seen so
// far.
func (j *Job) Progress() (int64, int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.bytes, j.lines
}

func (j *Job) setStatus(s Status) {
	j.mu.Lock()
	j.status = s
	j.mu.Unlock()
}

func (j *Job) setFailed(err error) {
	j.mu.Lock()
	j.status = Failed
	j.lastErr = err
	j.mu.Unlock()
}

func (j *Job) setBytes(n int64) {
	j.mu.Lock()
	j.bytes = n
	j.mu.Unlock()
}

func (j *Job) addLine() {
	j.mu.Lock()
	j.lines++
	j.mu.Unlock()
}
