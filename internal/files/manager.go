package files

import (
	"fmt"
	"sync"

	"mpboard/internal/events"
	"mpboard/util"
)

type opKind int

const (
	opList opKind = iota
	opGet
	opPut
	opDelete
)

func (k opKind) String() string {
	switch k {
	case opGet:
		return "get"
	case opPut:
		return "put"
	case opDelete:
		return "delete"
	default:
		return "list"
	}
}

type request struct {
	op    opKind
	name  string // remote name, or the local source for puts
	local string // local destination for gets
}

// Manager runs filesystem operations on a worker goroutine so the
// frontend never blocks on the serial line.  Every outcome crosses
// back as an event; failures are independent, so one failed operation
// never aborts the ones queued behind it.
type Manager struct {
	client *Client
	notify func(events.Event)
	log    *util.Logger

	reqs     chan request
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewManager wraps client with a worker delivering results to notify.
// notify is called from the worker goroutine.
func NewManager(client *Client, notify func(events.Event), logger *util.Logger) *Manager {
	return &Manager{
		client: client,
		notify: notify,
		log:    logger,
		reqs:   make(chan request, 8),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the worker.  The first event is always a listing (or
// its failure) so the frontend sees the device contents without
// asking.
func (m *Manager) Start() {
	go m.worker()
}

// Stop finishes the queued operations and waits for the worker to
// exit.  Requests issued after Stop are dropped.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.quit) })
	<-m.done
}

// List requests a fresh device listing.
func (m *Manager) List() { m.enqueue(request{op: opList}) }

// Get requests a copy of the named remote file to localDest.
func (m *Manager) Get(name, localDest string) {
	m.enqueue(request{op: opGet, name: name, local: localDest})
}

// Put requests an upload of the local file.
func (m *Manager) Put(localSrc string) { m.enqueue(request{op: opPut, name: localSrc}) }

// Delete requests removal of the named remote file.
func (m *Manager) Delete(name string) { m.enqueue(request{op: opDelete, name: name}) }

func (m *Manager) enqueue(req request) {
	select {
	case m.reqs <- req:
	case <-m.quit:
		m.log.Warn("file manager stopped; %s request dropped", req.op)
	}
}

func (m *Manager) worker() {
	defer close(m.done)
	m.handle(request{op: opList})
	for {
		select {
		case req := <-m.reqs:
			m.handle(req)
		case <-m.quit:
			// Finish what was queued before the stop.
			for {
				select {
				case req := <-m.reqs:
					m.handle(req)
				default:
					return
				}
			}
		}
	}
}

// handle runs one operation and converts its outcome to an event.
// Nothing escapes the worker: even a panic becomes a failure event,
// because an uncaught fault here would silently strand the frontend.
func (m *Manager) handle(req request) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("file worker panic: %v", r)
			m.log.Error("%v", err)
			m.notify(m.failureFor(req, err))
		}
	}()

	switch req.op {
	case opList:
		names, err := m.client.List()
		if err != nil {
			m.log.Error("list failed: %v", err)
			m.notify(events.ListFailed(err))
			return
		}
		m.notify(events.Listed(names))
	case opGet:
		name, err := m.client.Get(req.name, req.local)
		if err != nil {
			m.log.Error("get %s failed: %v", req.name, err)
			m.notify(events.FetchFailed(req.name, err))
			return
		}
		m.notify(events.Fetched(name))
	case opPut:
		name, err := m.client.Put(req.name)
		if err != nil {
			m.log.Error("put %s failed: %v", req.name, err)
			m.notify(events.StoreFailed(req.name, err))
			return
		}
		m.notify(events.Stored(name))
	case opDelete:
		name, err := m.client.Delete(req.name)
		if err != nil {
			m.log.Error("delete %s failed: %v", req.name, err)
			m.notify(events.DeleteFailed(req.name, err))
			return
		}
		m.notify(events.Deleted(name))
	}
}

func (m *Manager) failureFor(req request, err error) events.Event {
	switch req.op {
	case opGet:
		return events.FetchFailed(req.name, err)
	case opPut:
		return events.StoreFailed(req.name, err)
	case opDelete:
		return events.DeleteFailed(req.name, err)
	default:
		return events.ListFailed(err)
	}
}
