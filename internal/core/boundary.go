package core

import "mpboard/internal/events"

// The core never talks to a user interface directly; it calls through
// these boundary interfaces, and the CLI (or any other frontend)
// implements them.

// Notifier receives worker events.  The Controller serializes all
// deliveries onto one goroutine, so implementations need no locking.
type Notifier interface {
	Notify(e events.Event)
}

// Confirmer asks the user to approve a destructive action, blocking
// until they answer.
type Confirmer interface {
	Confirm(prompt string) bool
}

// SourceProvider supplies the program text for the run action.
type SourceProvider interface {
	SourceText() ([]byte, error)
}

// Frontend bundles everything the CLI hands the core.
type Frontend interface {
	Notifier
	Confirmer
	SourceProvider
}
