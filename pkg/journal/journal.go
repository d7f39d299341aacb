// Package journal records the routing decisions a machine makes as an
// append-only stream of events, keyed by the machine's run ID. It is an
// observability surface: the engine itself never reads the journal back,
// and journaling has no effect on routing semantics.
package journal

import (
	"context"
	"time"
)

// EventType identifies what happened.
type EventType string

const (
	EventMachineStart    EventType = "machine-start"
	EventMachineStop     EventType = "machine-stop"
	EventTaskRouted      EventType = "task-routed"
	EventTaskAccumulated EventType = "task-accumulated"
	EventTaskDiscarded   EventType = "task-discarded"
	EventHandlerFailed   EventType = "handler-failed"
)

// Event is one recorded routing decision.
type Event struct {
	ID      string
	RunID   string
	Machine string
	At      time.Time
	Type    EventType

	// State is the state the event happened in; Target is the
	// destination state for task-routed events, empty otherwise.
	State  string
	Target string

	// Task is the string form of the task involved, empty for machine
	// lifecycle events.
	Task string

	// Detail carries the error text for machine-stop and handler-failed
	// events.
	Detail string
}

// Store is an append-only event store.
type Store interface {
	AppendEvent(ctx context.Context, ev Event) error
	ListEvents(ctx context.Context, runID string) ([]Event, error)
}

// NoopStore discards all events.
type NoopStore struct{}

func (NoopStore) AppendEvent(ctx context.Context, ev Event) error { return nil }
func (NoopStore) ListEvents(ctx context.Context, runID string) ([]Event, error) {
	return nil, nil
}
