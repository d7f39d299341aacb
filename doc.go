// Package taskgraph provides an in-process, concurrent task-routing
// engine for Go.
//
// A taskgraph machine is a directed graph of named processing states.
// Each state owns a bounded input queue and an independently sized pool
// of workers; tasks move from state to state according to ordered,
// data-dependent transition rules. The engine knows nothing about the
// payloads or handlers supplied by its caller: it guarantees bounded
// memory via backpressure, deterministic routing, graceful cancellation,
// and support for cyclic graphs, and leaves everything else to the host
// application.
//
// # Core Concepts
//
// The programming model is intentionally small:
//
//  1. Machine
//  2. GraphBuilder
//  3. Handler
//  4. Transition
//  5. Accumulator
//
// # Machine
//
// A Machine is a validated, runnable graph. The host application starts
// it, injects tasks into named states, optionally drains accumulated
// results, and joins it:
//
//	m, err := taskgraph.New("pipeline").
//	    State(taskgraph.StateConfig{ID: "scan", Handler: scan, Concurrency: 2, MaxQueueSize: 8},
//	        taskgraph.To("lookup", nil)).
//	    State(taskgraph.StateConfig{ID: "lookup", Handler: lookup, Concurrency: 4, MaxQueueSize: 16, Accumulate: true}).
//	    Build()
//
// Machines are one-shot: once joined they cannot be restarted.
//
// # Handler
//
// A Handler is the fundamental executable unit of a state:
//
//	type Handler func(ctx context.Context, task any) ([]any, error)
//
// It consumes one task and returns zero or more successor tasks. Each
// successor is routed through the state's transition list in declaration
// order; the first matching transition wins. Handlers may block for
// arbitrary reasons; the engine applies no timeout. A handler error (or
// panic) is never retried and never isolated: it tears down the whole
// machine and is returned from Join.
//
// # Backpressure and quiescence
//
// Every queue and accumulator is a bounded FIFO. Enqueuing into a full
// queue blocks the producer, whether that is an upstream worker or an
// external Inject call, so memory stays bounded all the way to the graph
// edge. EmptyWait blocks until the machine is quiescent: every queue is
// empty and no dequeued task is still being processed.
//
// A bounded accumulator that is not drained will eventually block the
// workers that feed it. Draining every accumulating state while
// injecting large volumes of work is a caller obligation; the engine
// does not detect the resulting deadlock.
//
// # Observers and the journal
//
// Logging and metrics hook in through the Observer interface (see
// NewLoggingObserver, BasicMetrics, NewCompositeObserver). The journal
// subpackage records routing decisions to an append-only store, either
// in memory or in SQLite.
//
// # Declarative topologies
//
// The graphfile subpackage loads a graph topology from a YAML document,
// resolving handler and predicate names against a registry.
//
// For examples, see the package tests and ExampleScoped.
package taskgraph
