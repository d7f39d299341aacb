package taskgraph

import (
	"fmt"

	"github.com/jkorri/taskgraph/pkg/api"
)

// GraphBuilder provides a fluent API for defining routing graphs:
//
//	m, err := taskgraph.New("tagging").
//	    State(taskgraph.StateConfig{ID: "scan", Handler: scan, Concurrency: 1, MaxQueueSize: 4},
//	        taskgraph.To("lookup", nil)).
//	    State(taskgraph.StateConfig{ID: "lookup", Handler: lookup, Concurrency: 4, MaxQueueSize: 16, Accumulate: true}).
//	    Build(taskgraph.WithLogger(logger))
//
// States are declared in order; a state's transitions are evaluated in
// the order given to State, and the first matching transition wins.
type GraphBuilder struct {
	def api.GraphDefinition
}

// New creates a new graph builder with the given name.
func New(name string) *GraphBuilder {
	return &GraphBuilder{
		def: api.GraphDefinition{
			Name:   name,
			States: make([]api.StateDefinition, 0),
		},
	}
}

// Name returns the graph name.
func (b *GraphBuilder) Name() string {
	return b.def.Name
}

// Definition returns the underlying GraphDefinition.
// Typically used when interacting with lower-level APIs.
func (b *GraphBuilder) Definition() GraphDefinition {
	return b.def
}

// State appends a state with its ordered transition list. Structural
// problems (duplicate ids, dangling targets, bad limits) are reported by
// Build, which validates the whole graph at once.
func (b *GraphBuilder) State(cfg StateConfig, transitions ...Transition) *GraphBuilder {
	if cfg.ID == "" {
		panic("taskgraph: state id must not be empty")
	}
	if cfg.Handler == nil {
		panic(fmt.Sprintf("taskgraph: state %q has nil handler", cfg.ID))
	}

	b.def.States = append(b.def.States, api.StateDefinition{
		Config:      cfg,
		Transitions: transitions,
	})
	return b
}

// To declares a transition to target, taken when the predicate matches.
// A nil predicate matches every task.
func To(target StateID, when Predicate) Transition {
	return Transition{Target: target, When: when}
}

// Build validates the graph and constructs the machine.
func (b *GraphBuilder) Build(opts ...Option) (Machine, error) {
	return NewMachine(b.def, opts...)
}

// MustBuild is like Build but panics on error.
// Useful for initialization in main().
func (b *GraphBuilder) MustBuild(opts ...Option) Machine {
	m, err := b.Build(opts...)
	if err != nil {
		panic(err)
	}
	return m
}
