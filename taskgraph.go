package taskgraph

import (
	"context"
	"log/slog"

	"github.com/jkorri/taskgraph/internal/engine"
	"github.com/jkorri/taskgraph/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Machine              = api.Machine
	StateID              = api.StateID
	Handler              = api.Handler
	Predicate            = api.Predicate
	Transition           = api.Transition
	StateConfig          = api.StateConfig
	StateDefinition      = api.StateDefinition
	GraphDefinition      = api.GraphDefinition
	MachineInfo          = api.MachineInfo
	Observer             = api.Observer
	NoopObserver         = api.NoopObserver
	CompositeObserver    = api.CompositeObserver
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	HandlerError         = api.HandlerError
	UnknownStateError    = api.UnknownStateError
)

// Re-export common observer helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
)

// Re-export sentinel errors for convenience.

var (
	ErrAlreadyStarted  = api.ErrAlreadyStarted
	ErrNotStarted      = api.ErrNotStarted
	ErrClosed          = api.ErrClosed
	ErrDrainInProgress = api.ErrDrainInProgress
	ErrNotAccumulating = api.ErrNotAccumulating
)

// Option configures machine construction.
type Option func(*engine.Config)

// WithLogger injects the logger that receives machine diagnostics.
// Without it, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *engine.Config) {
		cfg.Logger = logger
	}
}

// WithObserver attaches an observer for lifecycle and routing callbacks.
// Use NewCompositeObserver to attach more than one.
func WithObserver(obs Observer) Option {
	return func(cfg *engine.Config) {
		cfg.Observer = obs
	}
}

// NewMachine validates def and constructs a machine from it. Most
// callers use the GraphBuilder instead; NewMachine is the entry point
// for definitions produced elsewhere, such as pkg/graphfile.
func NewMachine(def GraphDefinition, opts ...Option) (Machine, error) {
	var cfg engine.Config
	for _, opt := range opts {
		opt(&cfg)
	}
	return engine.NewMachine(def, cfg)
}

// Scoped runs fn against a started machine and guarantees the machine is
// joined on every exit path, including a panic inside fn. It returns
// fn's error, or the error from Join (for example a handler failure)
// when fn succeeds.
func Scoped(ctx context.Context, m Machine, fn func(ctx context.Context, m Machine) error) (err error) {
	if err := m.Start(ctx); err != nil {
		return err
	}
	defer func() {
		joinErr := m.Join(ctx)
		if err == nil {
			err = joinErr
		}
	}()
	return fn(ctx, m)
}
