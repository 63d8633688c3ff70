package metrics

import (
	"strings"
	"sync"
	"testing"
)

func TestNilCollector(t *testing.T) {
	var c *Collector // nil on purpose

	// Every method must be a safe no-op on a nil receiver.
	c.ConnectionOpened()
	c.ConnectionClosed()
	c.BytesReceived(100)
	c.BytesSent(50)
	c.RunCompleted()
	c.InterruptSent()
	c.FileOpCompleted()
	c.FlashCompleted(true)
	c.RecordError("boom")

	if c.ActiveConnections() != 0 {
		t.Error("nil collector should report 0 active connections")
	}
	if c.TotalBytesIn() != 0 || c.TotalBytesOut() != 0 {
		t.Error("nil collector should report 0 bytes")
	}
	if c.TotalRuns() != 0 {
		t.Error("nil collector should report 0 runs")
	}
	if ok, fail := c.FlashOutcomes(); ok != 0 || fail != 0 {
		t.Error("nil collector should report 0 flash outcomes")
	}
	if s := c.Snapshot(); s.ErrorsTotal != 0 {
		t.Error("nil collector snapshot should be zero-valued")
	}
}

func TestConnectionCounters(t *testing.T) {
	c := New()

	c.ConnectionOpened()
	c.ConnectionOpened()
	if got := c.ActiveConnections(); got != 2 {
		t.Errorf("ActiveConnections = %d, want 2", got)
	}

	c.ConnectionClosed()
	if got := c.ActiveConnections(); got != 1 {
		t.Errorf("ActiveConnections = %d, want 1", got)
	}
	if got := c.TotalConnections(); got != 2 {
		t.Errorf("TotalConnections = %d, want 2", got)
	}
}

func TestByteCounters(t *testing.T) {
	c := New()

	c.BytesReceived(1000)
	c.BytesReceived(24)
	c.BytesSent(512)

	if got := c.TotalBytesIn(); got != 1024 {
		t.Errorf("TotalBytesIn = %d, want 1024", got)
	}
	if got := c.TotalBytesOut(); got != 512 {
		t.Errorf("TotalBytesOut = %d, want 512", got)
	}
}

func TestProtocolCounters(t *testing.T) {
	c := New()

	c.RunCompleted()
	c.RunCompleted()
	c.InterruptSent()
	c.FileOpCompleted()
	c.FileOpCompleted()
	c.FileOpCompleted()

	if got := c.TotalRuns(); got != 2 {
		t.Errorf("TotalRuns = %d, want 2", got)
	}
	if got := c.TotalInterrupts(); got != 1 {
		t.Errorf("TotalInterrupts = %d, want 1", got)
	}
	if got := c.TotalFileOps(); got != 3 {
		t.Errorf("TotalFileOps = %d, want 3", got)
	}
}

func TestFlashOutcomes(t *testing.T) {
	c := New()

	c.FlashCompleted(true)
	c.FlashCompleted(false)
	c.FlashCompleted(false)

	ok, fail := c.FlashOutcomes()
	if ok != 1 || fail != 2 {
		t.Errorf("FlashOutcomes = (%d, %d), want (1, 2)", ok, fail)
	}
}

func TestErrorTracking(t *testing.T) {
	c := New()

	c.RecordError("port busy")
	c.RecordError("read timed out")

	if got := c.ErrorCount(); got != 2 {
		t.Errorf("ErrorCount = %d, want 2", got)
	}

	s := c.Snapshot()
	if s.LastErrorMessage != "read timed out" {
		t.Errorf("LastErrorMessage = %q, want latest", s.LastErrorMessage)
	}
	if s.LastError == "" {
		t.Error("LastError timestamp missing")
	}
}

func TestSnapshotJSON(t *testing.T) {
	c := New()
	c.BytesSent(42)
	c.FlashCompleted(true)

	out := c.JSON()
	for _, want := range []string{`"bytes_out": 42`, `"flash_succeeded": 1`, `"uptime"`} {
		if !strings.Contains(out, want) {
			t.Errorf("JSON() missing %q:\n%s", want, out)
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.BytesReceived(1)
				c.BytesSent(1)
				c.RunCompleted()
				c.FileOpCompleted()
				c.RecordError("x")
			}
		}()
	}
	wg.Wait()

	if got := c.TotalBytesIn(); got != 1000 {
		t.Errorf("TotalBytesIn = %d, want 1000", got)
	}
	if got := c.TotalRuns(); got != 1000 {
		t.Errorf("TotalRuns = %d, want 1000", got)
	}
	if got := c.ErrorCount(); got != 1000 {
		t.Errorf("ErrorCount = %d, want 1000", got)
	}
}
