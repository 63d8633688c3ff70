package core

import (
	"fmt"
	"sync"

	"mpboard/internal/errors"
	"mpboard/internal/events"
	"mpboard/util"
)

// Controller owns a device connection and the event path to the
// frontend.  Ownership is exclusive: the REPL session, the file
// manager, and the flasher must each Acquire before driving the
// device and Release afterwards.  Two owners interleaving writes
// would corrupt the wire protocol, so a second Acquire fails with
// ErrBusy instead of blocking.
//
// Worker events funnel through Notify into a single pump goroutine,
// which preserves emission order and spares the frontend any locking.
type Controller struct {
	dev Device
	log *util.Logger

	mu    sync.Mutex
	owner string

	pump      chan events.Event
	pumpDone  chan struct{}
	closeOnce sync.Once
}

// NewController starts the event pump delivering to ui.  dev may be
// nil when the action reaches the device through an external tool
// only (flashing).
func NewController(dev Device, ui Notifier, log *util.Logger) *Controller {
	c := &Controller{
		dev:      dev,
		log:      log,
		pump:     make(chan events.Event, 32),
		pumpDone: make(chan struct{}),
	}
	go func() {
		defer close(c.pumpDone)
		for e := range c.pump {
			ui.Notify(e)
		}
	}()
	return c
}

// Device returns the owned connection, nil for tool-only actions.
func (c *Controller) Device() Device { return c.dev }

// Owner returns who currently holds the connection, "" when free.
func (c *Controller) Owner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owner
}

// Acquire claims the connection for owner ("repl", "files", "flash").
// Ownership transfer requires an explicit Release by the previous
// holder first.
func (c *Controller) Acquire(owner string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.owner != "" {
		return fmt.Errorf("%w (%s wants it, %s holds it)", errors.ErrBusy, owner, c.owner)
	}
	c.owner = owner
	c.log.Debug("connection acquired by %s", owner)
	return nil
}

// Release gives the connection up.  Releasing on behalf of a
// different owner is a bug; it is logged and ignored.
func (c *Controller) Release(owner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.owner != owner {
		c.log.Warn("%s released a connection held by %q", owner, c.owner)
		return
	}
	c.owner = ""
	c.log.Debug("connection released by %s", owner)
}

// Notify queues an event for ordered delivery to the frontend.  Only
// call while the controller is open; Close waits for the queue to
// drain first.
func (c *Controller) Notify(e events.Event) { c.pump <- e }

// Close drains and stops the event pump, then closes the device.
// Call it after every worker that emits events has stopped.
func (c *Controller) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.pump)
		<-c.pumpDone
		if c.dev != nil {
			err = c.dev.Close()
		}
	})
	return err
}
