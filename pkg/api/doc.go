// Package api contains the core building blocks of the taskgraph
// routing engine: graph and state definitions, the Machine interface,
// and the observer suite.
//
// Most users interact with the higher-level taskgraph package, which
// re-exports selected types and helpers from this package and adds the
// fluent GraphBuilder. The api package is intended for custom
// integrations, such as alternative graph sources (see pkg/graphfile)
// or additional observers.
//
// # Concepts
//
// A GraphDefinition names a set of states. Each state owns a queue of
// pending tasks, a handler invoked by a pool of workers, and an ordered
// list of guarded transitions evaluated for every task the handler
// produces. States may additionally accumulate their outputs for
// external consumption. The Machine interface is the running form of a
// definition; internal/engine provides the implementation.
//
// Observers receive machine lifecycle and routing callbacks. The
// package ships a no-op base for embedding, a composite fan-out, a
// slog-backed logging observer, and an atomic-counter metrics observer.
package api
