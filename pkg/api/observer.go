package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// MachineInfo identifies one running machine to observers.
type MachineInfo struct {
	// Name is the graph name given at construction.
	Name string

	// RunID uniquely identifies this Start/Join cycle.
	RunID string
}

// Observer receives callbacks from the routing machine for logging and
// metrics.
//
// Implementations should be fast and non-blocking; heavy work should be
// done asynchronously so as not to delay task routing.
type Observer interface {
	// OnMachineStart is called once from Start, before any worker runs.
	OnMachineStart(ctx context.Context, m MachineInfo)

	// OnMachineStop is called once from Join after every worker has
	// terminated. err is the handler error that tore the machine down,
	// or nil on a clean shutdown.
	OnMachineStop(ctx context.Context, m MachineInfo, err error)

	// OnHandlerStart is called before a state's handler is invoked.
	OnHandlerStart(ctx context.Context, m MachineInfo, state StateID, task any)

	// OnHandlerCompleted is called after a handler returns, for both
	// successes and failures (err != nil). produced is the number of
	// successor tasks returned.
	OnHandlerCompleted(ctx context.Context, m MachineInfo, state StateID, task any, produced int, err error, duration time.Duration)

	// OnTaskRouted is called when a handler output is enqueued into a
	// downstream state's queue.
	OnTaskRouted(ctx context.Context, m MachineInfo, from, to StateID, task any)

	// OnTaskAccumulated is called when a handler output is recorded in
	// its state's accumulator.
	OnTaskAccumulated(ctx context.Context, m MachineInfo, state StateID, task any)

	// OnTaskDiscarded is called when no transition matched and the state
	// does not accumulate. Discarding is a normal, non-error outcome.
	OnTaskDiscarded(ctx context.Context, m MachineInfo, state StateID, task any)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnMachineStart(ctx context.Context, m MachineInfo)           {}
func (NoopObserver) OnMachineStop(ctx context.Context, m MachineInfo, err error) {}
func (NoopObserver) OnHandlerStart(ctx context.Context, m MachineInfo, state StateID, task any) {
}
func (NoopObserver) OnHandlerCompleted(ctx context.Context, m MachineInfo, state StateID, task any, produced int, err error, d time.Duration) {
}
func (NoopObserver) OnTaskRouted(ctx context.Context, m MachineInfo, from, to StateID, task any) {}
func (NoopObserver) OnTaskAccumulated(ctx context.Context, m MachineInfo, state StateID, task any) {
}
func (NoopObserver) OnTaskDiscarded(ctx context.Context, m MachineInfo, state StateID, task any) {}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnMachineStart(ctx context.Context, m MachineInfo) {
	for _, o := range c.observers {
		o.OnMachineStart(ctx, m)
	}
}

func (c *CompositeObserver) OnMachineStop(ctx context.Context, m MachineInfo, err error) {
	for _, o := range c.observers {
		o.OnMachineStop(ctx, m, err)
	}
}

func (c *CompositeObserver) OnHandlerStart(ctx context.Context, m MachineInfo, state StateID, task any) {
	for _, o := range c.observers {
		o.OnHandlerStart(ctx, m, state, task)
	}
}

func (c *CompositeObserver) OnHandlerCompleted(ctx context.Context, m MachineInfo, state StateID, task any, produced int, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnHandlerCompleted(ctx, m, state, task, produced, err, d)
	}
}

func (c *CompositeObserver) OnTaskRouted(ctx context.Context, m MachineInfo, from, to StateID, task any) {
	for _, o := range c.observers {
		o.OnTaskRouted(ctx, m, from, to, task)
	}
}

func (c *CompositeObserver) OnTaskAccumulated(ctx context.Context, m MachineInfo, state StateID, task any) {
	for _, o := range c.observers {
		o.OnTaskAccumulated(ctx, m, state, task)
	}
}

func (c *CompositeObserver) OnTaskDiscarded(ctx context.Context, m MachineInfo, state StateID, task any) {
	for _, o := range c.observers {
		o.OnTaskDiscarded(ctx, m, state, task)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs machine / task
// lifecycle events using the provided slog.Logger. If logger is nil,
// slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnMachineStart(ctx context.Context, m MachineInfo) {
	o.Logger.InfoContext(ctx, "machine_start",
		slog.String("machine", m.Name),
		slog.String("run_id", m.RunID),
	)
}

func (o *LoggingObserver) OnMachineStop(ctx context.Context, m MachineInfo, err error) {
	if err != nil {
		o.Logger.ErrorContext(ctx, "machine_stop",
			slog.String("machine", m.Name),
			slog.String("run_id", m.RunID),
			slog.Any("error", err),
		)
		return
	}
	o.Logger.InfoContext(ctx, "machine_stop",
		slog.String("machine", m.Name),
		slog.String("run_id", m.RunID),
	)
}

func (o *LoggingObserver) OnHandlerStart(ctx context.Context, m MachineInfo, state StateID, task any) {
	o.Logger.DebugContext(ctx, "handler_start",
		slog.String("machine", m.Name),
		slog.String("state", string(state)),
	)
}

func (o *LoggingObserver) OnHandlerCompleted(ctx context.Context, m MachineInfo, state StateID, task any, produced int, err error, d time.Duration) {
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "handler_completed",
		slog.String("machine", m.Name),
		slog.String("state", string(state)),
		slog.Int("produced", produced),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnTaskRouted(ctx context.Context, m MachineInfo, from, to StateID, task any) {
	o.Logger.DebugContext(ctx, "task_routed",
		slog.String("machine", m.Name),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
}

func (o *LoggingObserver) OnTaskAccumulated(ctx context.Context, m MachineInfo, state StateID, task any) {
	o.Logger.DebugContext(ctx, "task_accumulated",
		slog.String("machine", m.Name),
		slog.String("state", string(state)),
	)
}

func (o *LoggingObserver) OnTaskDiscarded(ctx context.Context, m MachineInfo, state StateID, task any) {
	o.Logger.DebugContext(ctx, "task_discarded",
		slog.String("machine", m.Name),
		slog.String("state", string(state)),
	)
}

// BasicMetrics collects simple counters and aggregate handler durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	handlersCompleted    atomic.Int64
	handlerFailures      atomic.Int64
	tasksRouted          atomic.Int64
	tasksAccumulated     atomic.Int64
	tasksDiscarded       atomic.Int64
	totalHandlerDuration atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	HandlersCompleted  int64
	HandlerFailures    int64
	TasksRouted        int64
	TasksAccumulated   int64
	TasksDiscarded     int64
	AvgHandlerDuration time.Duration
}

func (m *BasicMetrics) OnHandlerCompleted(ctx context.Context, mi MachineInfo, state StateID, task any, produced int, err error, d time.Duration) {
	if err != nil {
		m.handlerFailures.Add(1)
		return
	}
	m.handlersCompleted.Add(1)
	m.totalHandlerDuration.Add(d.Nanoseconds())
}

func (m *BasicMetrics) OnTaskRouted(ctx context.Context, mi MachineInfo, from, to StateID, task any) {
	m.tasksRouted.Add(1)
}

func (m *BasicMetrics) OnTaskAccumulated(ctx context.Context, mi MachineInfo, state StateID, task any) {
	m.tasksAccumulated.Add(1)
}

func (m *BasicMetrics) OnTaskDiscarded(ctx context.Context, mi MachineInfo, state StateID, task any) {
	m.tasksDiscarded.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	completed := m.handlersCompleted.Load()
	totalNs := m.totalHandlerDuration.Load()

	var avg time.Duration
	if completed > 0 {
		avg = time.Duration(totalNs / completed)
	}

	return BasicMetricsSnapshot{
		HandlersCompleted:  completed,
		HandlerFailures:    m.handlerFailures.Load(),
		TasksRouted:        m.tasksRouted.Load(),
		TasksAccumulated:   m.tasksAccumulated.Load(),
		TasksDiscarded:     m.tasksDiscarded.Load(),
		AvgHandlerDuration: avg,
	}
}
