// Package metrics provides lightweight, lock-free counters for
// tracking runtime statistics of an mpboard session.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for an mpboard session.
// A nil Collector is safe to use — all methods become no-ops.
type Collector struct {
	connectionsActive atomic.Int64
	connectionsTotal  atomic.Int64
	bytesIn           atomic.Int64
	bytesOut          atomic.Int64
	runsTotal         atomic.Int64
	interruptsTotal   atomic.Int64
	fileOpsTotal      atomic.Int64
	flashSucceeded    atomic.Int64
	flashFailed       atomic.Int64
	errorsTotal       atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Connection metrics ───────────────────────────────────────────────

// ConnectionOpened increments both the active and total counters.
func (c *Collector) ConnectionOpened() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(1)
	c.connectionsTotal.Add(1)
}

// ConnectionClosed decrements the active connection counter.
func (c *Collector) ConnectionClosed() {
	if c == nil {
		return
	}
	c.connectionsActive.Add(-1)
}

// ActiveConnections returns the current number of open ports.
func (c *Collector) ActiveConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsActive.Load()
}

// TotalConnections returns the lifetime connection count.
func (c *Collector) TotalConnections() int64 {
	if c == nil {
		return 0
	}
	return c.connectionsTotal.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesReceived records n bytes read from the serial line.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesSent records n bytes written to the serial line.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Protocol metrics ─────────────────────────────────────────────────

// RunCompleted records one raw-mode run sequence.
func (c *Collector) RunCompleted() {
	if c == nil {
		return
	}
	c.runsTotal.Add(1)
}

// InterruptSent records one keyboard interrupt.
func (c *Collector) InterruptSent() {
	if c == nil {
		return
	}
	c.interruptsTotal.Add(1)
}

// FileOpCompleted records one remote filesystem operation.
func (c *Collector) FileOpCompleted() {
	if c == nil {
		return
	}
	c.fileOpsTotal.Add(1)
}

// TotalRuns returns the number of completed run sequences.
func (c *Collector) TotalRuns() int64 {
	if c == nil {
		return 0
	}
	return c.runsTotal.Load()
}

// TotalInterrupts returns the number of interrupts sent.
func (c *Collector) TotalInterrupts() int64 {
	if c == nil {
		return 0
	}
	return c.interruptsTotal.Load()
}

// TotalFileOps returns the number of completed file operations.
func (c *Collector) TotalFileOps() int64 {
	if c == nil {
		return 0
	}
	return c.fileOpsTotal.Load()
}

// ── Flash metrics ────────────────────────────────────────────────────

// FlashCompleted records the outcome of one firmware job.
func (c *Collector) FlashCompleted(ok bool) {
	if c == nil {
		return
	}
	if ok {
		c.flashSucceeded.Add(1)
	} else {
		c.flashFailed.Add(1)
	}
}

// FlashOutcomes returns (succeeded, failed) firmware job counts.
func (c *Collector) FlashOutcomes() (int64, int64) {
	if c == nil {
		return 0, 0
	}
	return c.flashSucceeded.Load(), c.flashFailed.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime            string `json:"uptime"`
	ConnectionsActive int64  `json:"connections_active"`
	ConnectionsTotal  int64  `json:"connections_total"`
	BytesIn           int64  `json:"bytes_in"`
	BytesOut          int64  `json:"bytes_out"`
	RunsTotal         int64  `json:"runs_total"`
	InterruptsTotal   int64  `json:"interrupts_total"`
	FileOpsTotal      int64  `json:"file_ops_total"`
	FlashSucceeded    int64  `json:"flash_succeeded"`
	FlashFailed       int64  `json:"flash_failed"`
	ErrorsTotal       int64  `json:"errors_total"`
	LastError         string `json:"last_error,omitempty"`
	LastErrorMessage  string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:            time.Since(c.startTime).Truncate(time.Second).String(),
		ConnectionsActive: c.connectionsActive.Load(),
		ConnectionsTotal:  c.connectionsTotal.Load(),
		BytesIn:           c.bytesIn.Load(),
		BytesOut:          c.bytesOut.Load(),
		RunsTotal:         c.runsTotal.Load(),
		InterruptsTotal:   c.interruptsTotal.Load(),
		FileOpsTotal:      c.fileOpsTotal.Load(),
		FlashSucceeded:    c.flashSucceeded.Load(),
		FlashFailed:       c.flashFailed.Load(),
		ErrorsTotal:       c.errorsTotal.Load(),
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
