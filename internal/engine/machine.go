package engine

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"

	"github.com/jkorri/taskgraph/pkg/api"
)

// pollInterval paces the quiescence and accumulator-drain re-checks.
// New work can keep appearing while either loop waits (fan-out, cycles),
// so both conditions are re-evaluated rather than signalled once.
const pollInterval = 2 * time.Millisecond

// errJoined is the cancellation cause used for an orderly Join, so that a
// clean shutdown is distinguishable from a handler failure.
var errJoined = errors.New("machine joined")

// Config describes how to construct a machine. Both fields are optional.
type Config struct {
	// Logger receives machine diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// Observer receives lifecycle and routing callbacks.
	Observer api.Observer
}

type phase int

const (
	phaseConstructed phase = iota
	phaseStarted
	phaseJoined
)

// stateRuntime is the live counterpart of one immutable StateConfig,
// instantiated by the machine. It owns the state's queue and, for
// accumulating states, the accumulator.
type stateRuntime struct {
	cfg         api.StateConfig
	transitions []api.Transition
	queue       *taskQueue
	acc         *taskQueue // nil unless cfg.Accumulate
	draining    atomic.Bool
}

type machine struct {
	def      api.GraphDefinition
	states   map[api.StateID]*stateRuntime
	logger   *slog.Logger
	observer api.Observer

	// pending counts tasks that are queued or being processed anywhere
	// in the machine. Forwarded successors are counted before the
	// consumed input is uncounted, so the counter never reads zero while
	// a task is in transit between two states.
	pending atomic.Int64

	mu     sync.Mutex
	phase  phase
	info   api.MachineInfo
	runCtx context.Context
	cancel context.CancelCauseFunc
	pool   pond.Pool
}

// NewMachine validates def and returns a runnable machine. Validation
// reports every violation found, not just the first.
func NewMachine(def api.GraphDefinition, cfg Config) (api.Machine, error) {
	if err := validate(def); err != nil {
		return nil, fmt.Errorf("invalid graph %q: %w", def.Name, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	observer := cfg.Observer
	if observer == nil {
		observer = api.NoopObserver{}
	}

	m := &machine{
		def:      def,
		states:   make(map[api.StateID]*stateRuntime, len(def.States)),
		logger:   logger,
		observer: observer,
	}
	for _, s := range def.States {
		rt := &stateRuntime{
			cfg:         s.Config,
			transitions: s.Transitions,
			queue:       newTaskQueue(s.Config.MaxQueueSize),
		}
		if s.Config.Accumulate {
			rt.acc = newTaskQueue(s.Config.MaxAccumulatorSize)
		}
		m.states[s.Config.ID] = rt
	}

	if !accumulates(def) {
		logger.Warn("no state accumulates; the graph produces no externally observable result",
			slog.String("machine", def.Name))
	}

	return m, nil
}

func (m *machine) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.phase {
	case phaseStarted:
		return api.ErrAlreadyStarted
	case phaseJoined:
		return api.ErrClosed
	}

	m.info = api.MachineInfo{Name: m.def.Name, RunID: uuid.NewString()}
	m.runCtx, m.cancel = context.WithCancelCause(ctx)

	total := 0
	for _, s := range m.def.States {
		total += s.Config.Workers()
	}
	m.pool = pond.NewPool(total)

	for _, s := range m.def.States {
		rt := m.states[s.Config.ID]
		for i := 0; i < s.Config.Workers(); i++ {
			if err := m.pool.Go(func() { m.runWorker(rt) }); err != nil {
				m.cancel(errJoined)
				return fmt.Errorf("spawning workers for state %q: %w", s.Config.ID, err)
			}
		}
	}

	// Unblock external injectors and drains once the machine stops for
	// any reason (Join, handler failure, parent cancellation).
	queues := make([]*taskQueue, 0, 2*len(m.states))
	for _, rt := range m.states {
		queues = append(queues, rt.queue)
		if rt.acc != nil {
			queues = append(queues, rt.acc)
		}
	}
	runCtx := m.runCtx
	go func() {
		<-runCtx.Done()
		for _, q := range queues {
			q.close()
		}
	}()

	m.phase = phaseStarted
	m.observer.OnMachineStart(ctx, m.info)
	m.logger.Info("machine started",
		slog.String("machine", m.info.Name),
		slog.String("run_id", m.info.RunID),
		slog.Int("states", len(m.def.States)),
		slog.Int("workers", total),
	)
	return nil
}

// runWorker is one worker loop: dequeue, invoke the handler, route every
// successor, mark the dequeued task done. It exits when the machine is
// cancelled or its queue is closed.
func (m *machine) runWorker(rt *stateRuntime) {
	for {
		task, err := rt.queue.take(m.runCtx)
		if err != nil {
			return
		}
		m.process(m.runCtx, rt, task)
	}
}

func (m *machine) process(ctx context.Context, rt *stateRuntime, task any) {
	// Uncounted only after every successor has been counted by route.
	defer m.pending.Add(-1)

	m.observer.OnHandlerStart(ctx, m.info, rt.cfg.ID, task)
	start := time.Now()
	out, err := invokeHandler(ctx, rt.cfg.Handler, task)
	m.observer.OnHandlerCompleted(ctx, m.info, rt.cfg.ID, task, len(out), err, time.Since(start))

	if err != nil {
		herr := &api.HandlerError{State: rt.cfg.ID, Task: fmt.Sprintf("%v", task), Err: err}
		m.logger.Error("handler failed; tearing down machine",
			slog.String("machine", m.info.Name),
			slog.String("state", string(rt.cfg.ID)),
			slog.String("task", herr.Task),
			slog.Any("error", err),
		)
		m.cancel(herr)
		return
	}

	for _, succ := range out {
		if err := m.route(ctx, rt, succ); err != nil {
			return
		}
	}
}

// invokeHandler converts a handler panic into an error so it propagates
// through the same teardown path as a returned error.
func invokeHandler(ctx context.Context, h api.Handler, task any) (out []any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, task)
}

// route delivers one handler output. The state's transition list is
// walked in declaration order and the first matching destination wins.
// Forwarding and accumulating are independent outcomes: an accumulating
// state records the task whether or not a transition matched. A task
// that is neither forwarded nor recorded is discarded, which is normal.
func (m *machine) route(ctx context.Context, rt *stateRuntime, task any) error {
	var dest *stateRuntime
	for _, tr := range rt.transitions {
		if tr.When == nil || tr.When(task) {
			dest = m.states[tr.Target]
			break
		}
	}

	delivered := false
	if dest != nil {
		m.pending.Add(1)
		if err := dest.queue.put(ctx, task); err != nil {
			m.pending.Add(-1)
			return err
		}
		m.observer.OnTaskRouted(ctx, m.info, rt.cfg.ID, dest.cfg.ID, task)
		delivered = true
	}
	if rt.acc != nil {
		if err := rt.acc.put(ctx, task); err != nil {
			return err
		}
		m.observer.OnTaskAccumulated(ctx, m.info, rt.cfg.ID, task)
		delivered = true
	}
	if !delivered {
		m.observer.OnTaskDiscarded(ctx, m.info, rt.cfg.ID, task)
	}
	return nil
}

func (m *machine) Inject(ctx context.Context, state api.StateID, task any) error {
	m.mu.Lock()
	switch m.phase {
	case phaseConstructed:
		m.mu.Unlock()
		return api.ErrNotStarted
	case phaseJoined:
		m.mu.Unlock()
		return api.ErrClosed
	}
	m.mu.Unlock()

	rt := m.states[state]
	if rt == nil {
		return &api.UnknownStateError{State: state}
	}

	m.pending.Add(1)
	if err := rt.queue.put(ctx, task); err != nil {
		m.pending.Add(-1)
		if errors.Is(err, errQueueClosed) {
			if cause := m.failure(); cause != nil {
				return cause
			}
			return api.ErrClosed
		}
		return err
	}
	return nil
}

func (m *machine) Accumulated(ctx context.Context, state api.StateID) (iter.Seq[any], error) {
	m.mu.Lock()
	if m.phase == phaseConstructed {
		m.mu.Unlock()
		return nil, api.ErrNotStarted
	}
	runCtx := m.runCtx
	m.mu.Unlock()

	rt := m.states[state]
	if rt == nil {
		return nil, &api.UnknownStateError{State: state}
	}
	if rt.acc == nil {
		return nil, fmt.Errorf("state %q: %w", state, api.ErrNotAccumulating)
	}

	if !rt.draining.CompareAndSwap(false, true) {
		return nil, api.ErrDrainInProgress
	}

	// The accumulator stays locked to this sequence until it finishes or
	// its consumer stops early; an unconsumed sequence keeps the lock.
	seq := func(yield func(any) bool) {
		defer rt.draining.Store(false)
		for {
			if task, ok := rt.acc.tryTake(); ok {
				if !yield(task) {
					return
				}
				continue
			}
			if m.quiescent() {
				// Nothing pending or in flight anywhere, so no worker can
				// still add to this accumulator. Re-check once for an item
				// that landed between the two tests.
				if task, ok := rt.acc.tryTake(); ok {
					if !yield(task) {
						return
					}
					continue
				}
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-runCtx.Done():
				// Machine failed or joined: yield leftovers, then stop.
				for {
					task, ok := rt.acc.tryTake()
					if !ok {
						return
					}
					if !yield(task) {
						return
					}
				}
			case <-time.After(pollInterval):
			}
		}
	}
	return seq, nil
}

func (m *machine) Empty() bool {
	for _, rt := range m.states {
		if rt.queue.len() != 0 {
			return false
		}
	}
	return true
}

// quiescent reports whether no task is queued or being processed
// anywhere in the machine. A single counter is used instead of a
// per-queue sweep: a sweep can observe the destination queue before a
// forwarding put lands and the source queue after its worker finished,
// missing a task in transit. The counter counts a forwarded successor
// before the consumed input is uncounted, so it never reads zero while
// a task exists. A worker blocked while forwarding to a full queue or
// accumulator still counts its input task, so the machine is not
// quiescent while any such push is stuck.
func (m *machine) quiescent() bool {
	return m.pending.Load() == 0
}

func (m *machine) EmptyWait(ctx context.Context) error {
	m.mu.Lock()
	if m.phase == phaseConstructed {
		m.mu.Unlock()
		return api.ErrNotStarted
	}
	runCtx := m.runCtx
	m.mu.Unlock()

	for {
		if m.quiescent() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-runCtx.Done():
			return m.failure()
		case <-time.After(pollInterval):
		}
	}
}

func (m *machine) Join(ctx context.Context) error {
	m.mu.Lock()
	switch m.phase {
	case phaseConstructed:
		m.mu.Unlock()
		return api.ErrNotStarted
	case phaseJoined:
		m.mu.Unlock()
		return api.ErrClosed
	}
	// Marking the machine closed up front makes a concurrent second Join
	// fail with ErrClosed instead of racing the teardown.
	m.phase = phaseJoined
	cancel := m.cancel
	pool := m.pool
	m.mu.Unlock()

	// Drain first, then tear down. EmptyWait returns early if the
	// machine already cancelled itself after a handler failure.
	waitErr := m.EmptyWait(ctx)

	cancel(errJoined)
	pool.StopAndWait()

	err := m.failure()
	m.observer.OnMachineStop(ctx, m.info, err)
	m.logger.Info("machine stopped",
		slog.String("machine", m.info.Name),
		slog.String("run_id", m.info.RunID),
		slog.Any("error", err),
	)
	if err != nil {
		return err
	}
	// waitErr is ctx.Err() when the caller's context expired before
	// quiescence: remaining tasks were dropped, so report it.
	return waitErr
}

// failure returns the handler error that cancelled the machine, if any.
// An orderly Join and plain context cancellation are not failures.
func (m *machine) failure() error {
	m.mu.Lock()
	runCtx := m.runCtx
	m.mu.Unlock()

	if runCtx == nil {
		return nil
	}
	cause := context.Cause(runCtx)
	if cause == nil ||
		errors.Is(cause, errJoined) ||
		errors.Is(cause, context.Canceled) ||
		errors.Is(cause, context.DeadlineExceeded) {
		return nil
	}
	return cause
}
