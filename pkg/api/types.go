package api

import "context"

// StateID names a processing state. It must be unique within a graph.
type StateID string

// Handler is the fundamental executable unit of a state: it consumes one
// task and returns a finite, possibly-empty, ordered slice of successor
// tasks. A handler may block (I/O, timers, human interaction); the engine
// applies no timeout. Returning an error fails the whole machine.
type Handler func(ctx context.Context, task any) ([]any, error)

// Predicate decides whether a transition applies to a task.
// A nil Predicate matches every task.
type Predicate func(task any) bool

// Transition is one (destination, predicate) pair. A state's transitions
// are evaluated in declaration order against each handler output; the
// first match wins.
type Transition struct {
	Target StateID
	When   Predicate
}

// StateConfig is the immutable description of one processing state.
// The live queue, accumulator, and workers are internal runtime state
// instantiated by the machine at Start.
type StateConfig struct {
	// ID names the state. Required, unique within the graph.
	ID StateID

	// Handler transforms one task into zero or more successors. Required.
	Handler Handler

	// UserInteraction documents that this state's handler may block on a
	// human and should run at low concurrency. Advisory only; the engine
	// does not enforce it.
	UserInteraction bool

	// MaxQueueSize bounds the state's input queue. 0 means unbounded.
	MaxQueueSize int

	// Concurrency is the number of workers for this state. 0 derives the
	// worker count from MaxQueueSize; it must then be positive.
	// When MaxQueueSize > 0, Concurrency must not exceed it.
	Concurrency int

	// Accumulate exposes this state's outputs to the host application
	// through Machine.Accumulated.
	Accumulate bool

	// MaxAccumulatorSize bounds the accumulator. 0 means unbounded.
	// A bounded accumulator that is not drained will eventually block
	// the state's workers; draining is a caller obligation.
	MaxAccumulatorSize int
}

// Workers returns the effective worker count for the state.
func (c StateConfig) Workers() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return c.MaxQueueSize
}

// StateDefinition pairs a state's configuration with its ordered
// transition list.
type StateDefinition struct {
	Config      StateConfig
	Transitions []Transition
}

// GraphDefinition describes a whole routing graph as an ordered
// collection of states. Cycles are permitted.
type GraphDefinition struct {
	Name   string
	States []StateDefinition
}

// State returns the definition for the given id, if present.
func (g GraphDefinition) State(id StateID) (StateDefinition, bool) {
	for _, s := range g.States {
		if s.Config.ID == id {
			return s, true
		}
	}
	return StateDefinition{}, false
}
