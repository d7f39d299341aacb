package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jkorri/taskgraph/pkg/api"
)

// Recorder is an api.Observer that appends a journal event for every
// routing decision. Append failures are logged and otherwise ignored:
// the journal must never stall or fail the machine.
type Recorder struct {
	api.NoopObserver

	store  Store
	logger *slog.Logger
}

// NewRecorder creates a journaling observer writing to store. If logger
// is nil, slog.Default() is used for append failures.
func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger}
}

func (r *Recorder) append(ctx context.Context, ev Event) {
	ev.ID = uuid.NewString()
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	if err := r.store.AppendEvent(ctx, ev); err != nil {
		r.logger.Warn("journal append failed",
			slog.String("machine", ev.Machine),
			slog.String("type", string(ev.Type)),
			slog.Any("error", err),
		)
	}
}

func (r *Recorder) OnMachineStart(ctx context.Context, m api.MachineInfo) {
	r.append(ctx, Event{
		RunID:   m.RunID,
		Machine: m.Name,
		Type:    EventMachineStart,
	})
}

func (r *Recorder) OnMachineStop(ctx context.Context, m api.MachineInfo, err error) {
	ev := Event{
		RunID:   m.RunID,
		Machine: m.Name,
		Type:    EventMachineStop,
	}
	if err != nil {
		ev.Detail = err.Error()
	}
	r.append(ctx, ev)
}

func (r *Recorder) OnHandlerCompleted(ctx context.Context, m api.MachineInfo, state api.StateID, task any, produced int, err error, d time.Duration) {
	if err == nil {
		return
	}
	r.append(ctx, Event{
		RunID:   m.RunID,
		Machine: m.Name,
		Type:    EventHandlerFailed,
		State:   string(state),
		Task:    fmt.Sprintf("%v", task),
		Detail:  err.Error(),
	})
}

func (r *Recorder) OnTaskRouted(ctx context.Context, m api.MachineInfo, from, to api.StateID, task any) {
	r.append(ctx, Event{
		RunID:   m.RunID,
		Machine: m.Name,
		Type:    EventTaskRouted,
		State:   string(from),
		Target:  string(to),
		Task:    fmt.Sprintf("%v", task),
	})
}

func (r *Recorder) OnTaskAccumulated(ctx context.Context, m api.MachineInfo, state api.StateID, task any) {
	r.append(ctx, Event{
		RunID:   m.RunID,
		Machine: m.Name,
		Type:    EventTaskAccumulated,
		State:   string(state),
		Task:    fmt.Sprintf("%v", task),
	})
}

func (r *Recorder) OnTaskDiscarded(ctx context.Context, m api.MachineInfo, state api.StateID, task any) {
	r.append(ctx, Event{
		RunID:   m.RunID,
		Machine: m.Name,
		Type:    EventTaskDiscarded,
		State:   string(state),
		Task:    fmt.Sprintf("%v", task),
	})
}
