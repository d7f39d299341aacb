package journal

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jkorri/taskgraph/pkg/api"
)

func TestRecorder_RecordsRoutingDecisions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()
	rec := NewRecorder(store, slog.New(slog.DiscardHandler))

	info := api.MachineInfo{Name: "tagger", RunID: "run-1"}

	rec.OnMachineStart(ctx, info)
	rec.OnTaskRouted(ctx, info, "scan", "lookup", 42)
	rec.OnTaskAccumulated(ctx, info, "lookup", 42)
	rec.OnTaskDiscarded(ctx, info, "scan", 43)
	rec.OnHandlerCompleted(ctx, info, "scan", 44, 0, errors.New("boom"), time.Millisecond)
	rec.OnMachineStop(ctx, info, errors.New("boom"))

	// Successful handler completions are not journaled.
	rec.OnHandlerCompleted(ctx, info, "scan", 45, 1, nil, time.Millisecond)

	got, err := store.ListEvents(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 6)

	types := make([]EventType, 0, len(got))
	for _, ev := range got {
		require.NotEmpty(t, ev.ID, "recorder should assign event ids")
		require.False(t, ev.At.IsZero(), "recorder should stamp events")
		require.Equal(t, "tagger", ev.Machine)
		types = append(types, ev.Type)
	}
	require.Equal(t, []EventType{
		EventMachineStart,
		EventTaskRouted,
		EventTaskAccumulated,
		EventTaskDiscarded,
		EventHandlerFailed,
		EventMachineStop,
	}, types)

	routed := got[1]
	require.Equal(t, "scan", routed.State)
	require.Equal(t, "lookup", routed.Target)
	require.Equal(t, "42", routed.Task)

	failed := got[4]
	require.Equal(t, "boom", failed.Detail)
	require.Equal(t, "44", failed.Task)

	stop := got[5]
	require.Equal(t, "boom", stop.Detail)
}

// failingStore rejects every append.
type failingStore struct {
	NoopStore

	mu    sync.Mutex
	calls int
}

func (s *failingStore) AppendEvent(ctx context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return errors.New("disk full")
}

func TestRecorder_AppendFailureLogsAndContinues(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &failingStore{}
	rec := NewRecorder(store, slog.New(slog.DiscardHandler))

	info := api.MachineInfo{Name: "tagger", RunID: "run-1"}

	// None of these may panic or surface the store error.
	rec.OnMachineStart(ctx, info)
	rec.OnTaskRouted(ctx, info, "a", "b", 1)
	rec.OnMachineStop(ctx, info, nil)

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Equal(t, 3, store.calls)
}
