package api

import (
	"context"
	"iter"
)

// Machine is a validated, runnable routing graph.
//
// A Machine is one-shot: Start may be called once, Join tears the machine
// down permanently. Tasks move from state to state according to the
// graph's transition lists; bounded queues propagate backpressure all the
// way to Inject.
type Machine interface {
	// Start spawns every state's worker pool. It fails if the machine has
	// already been started or joined.
	Start(ctx context.Context) error

	// Inject enqueues a task into the named state's queue. It blocks under
	// backpressure exactly as an internal enqueue would, honouring ctx.
	// It fails if the machine is not started or the state is unknown.
	Inject(ctx context.Context, state StateID, task any) error

	// Accumulated returns a lazy, single-pass, ordered sequence of the
	// tasks recorded by the named accumulating state. The sequence drains
	// the accumulator as it is consumed and ends once the machine is
	// quiescent and the accumulator is empty.
	//
	// Accumulators are single-consumer: a second call for the same state
	// while an earlier sequence is still live fails with
	// ErrDrainInProgress. The accumulator stays locked until the
	// sequence finishes or its consumer stops iterating early; a
	// sequence that is obtained but never iterated holds the lock
	// indefinitely.
	Accumulated(ctx context.Context, state StateID) (iter.Seq[any], error)

	// Empty reports whether every state's queue is empty right now. It is
	// a point-in-time check, not a quiescence guarantee.
	Empty() bool

	// EmptyWait blocks until the machine is quiescent: every queue empty
	// and no dequeued task still being processed. New work can appear
	// while it waits (fan-out, cycles), so the condition is re-checked in
	// a loop.
	EmptyWait(ctx context.Context) error

	// Join waits for quiescence, cancels every worker, awaits their
	// termination, and closes the machine. It returns the handler error
	// that tore the machine down, if any; cancellation arising from the
	// shutdown itself is swallowed. If ctx expires before quiescence,
	// remaining tasks are dropped and the ctx error is returned.
	Join(ctx context.Context) error
}
