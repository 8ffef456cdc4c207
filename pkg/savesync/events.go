package savesync

import "time"

// EventHandler receives notifications about session operations.
// Methods are called synchronously on the goroutine doing the operation.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnLoad(event LoadEvent)
	OnSave(event SaveEvent)
}

// StateChangeEvent describes a lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// LoadEvent describes a finished load or refresh.
type LoadEvent struct {
	// ID identifies the operation in logs.
	ID       string
	Path     string
	Duration time.Duration

	// Err is nil when the load was committed.
	Err error
}

// SaveEvent describes a finished write.
type SaveEvent struct {
	ID       string
	Path     string
	Duration time.Duration
	Err      error
}

// BaseEventHandler implements EventHandler with no-ops.
// Embed it to handle only some events.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent) {}
func (BaseEventHandler) OnLoad(LoadEvent)               {}
func (BaseEventHandler) OnSave(SaveEvent)               {}
