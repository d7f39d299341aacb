package api

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyStarted is returned by Start on a running machine.
	ErrAlreadyStarted = errors.New("machine already started")

	// ErrNotStarted is returned by operations that need running workers.
	ErrNotStarted = errors.New("machine not started")

	// ErrClosed is returned once the machine has been joined.
	ErrClosed = errors.New("machine closed")

	// ErrDrainInProgress is returned by Accumulated when another sequence
	// is still draining the same accumulator.
	ErrDrainInProgress = errors.New("accumulator drain already in progress")

	// ErrNotAccumulating is returned by Accumulated for a state that was
	// not configured to accumulate.
	ErrNotAccumulating = errors.New("state does not accumulate")
)

// UnknownStateError reports a reference to a state id that is not part of
// the graph.
type UnknownStateError struct {
	State StateID
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("unknown state %q", e.State)
}

// HandlerError wraps an error (or recovered panic) raised out of a state's
// handler. It is what Join returns after a handler failure tears the
// machine down.
type HandlerError struct {
	State StateID
	Task  string // string form of the offending task
	Err   error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("state %q: handler failed on task %s: %v", e.State, e.Task, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }
