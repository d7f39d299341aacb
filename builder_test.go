package taskgraph

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// doubler is a simple helper used by multiple tests.
func doubler() Handler {
	return TypedMap(func(ctx context.Context, in int) (int, error) {
		return in * 2, nil
	})
}

func TestGraphBuilder_BuildsDefinition(t *testing.T) {
	b := New("builder-sample").
		State(StateConfig{ID: "scan", Handler: doubler(), Concurrency: 1, MaxQueueSize: 4},
			To("store", nil)).
		State(StateConfig{ID: "store", Handler: Passthrough(), Concurrency: 1, MaxQueueSize: 4, Accumulate: true})

	if b.Name() != "builder-sample" {
		t.Fatalf("unexpected name: %s", b.Name())
	}

	def := b.Definition()
	if def.Name != "builder-sample" || len(def.States) != 2 {
		t.Fatalf("unexpected definition: %+v", def)
	}
	if def.States[0].Transitions[0].Target != "store" {
		t.Fatalf("unexpected transition target: %s", def.States[0].Transitions[0].Target)
	}

	m, err := b.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if m == nil {
		t.Fatalf("build returned nil machine")
	}
}

func TestGraphBuilder_StatePanicsOnEmptyID(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic for empty state id")
		}
	}()
	New("bad").State(StateConfig{Handler: Passthrough(), Concurrency: 1, MaxQueueSize: 1})
}

func TestGraphBuilder_StatePanicsOnNilHandler(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic for nil handler")
		}
		if !strings.Contains(r.(string), "scan") {
			t.Fatalf("panic should name the state: %v", r)
		}
	}()
	New("bad").State(StateConfig{ID: "scan", Concurrency: 1, MaxQueueSize: 1})
}

func TestGraphBuilder_BuildRejectsDanglingTarget(t *testing.T) {
	_, err := New("dangling").
		State(StateConfig{ID: "a", Handler: Passthrough(), Concurrency: 1, MaxQueueSize: 1, Accumulate: true},
			To("nowhere", nil)).
		Build()
	if err == nil {
		t.Fatalf("expected build to fail on unknown target")
	}
	if !strings.Contains(err.Error(), "nowhere") {
		t.Fatalf("error should name the unknown target: %v", err)
	}
}

func TestGraphBuilder_MustBuildPanicsOnInvalidGraph(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected MustBuild to panic on invalid graph")
		}
	}()
	New("empty").MustBuild()
}

func TestGraphBuilder_BuildErrorIsJoined(t *testing.T) {
	_, err := New("multi").
		State(StateConfig{ID: "a", Handler: Passthrough(), Concurrency: 1, MaxQueueSize: 1}, To("x", nil)).
		State(StateConfig{ID: "b", Handler: Passthrough(), Concurrency: 8, MaxQueueSize: 2}, To("y", nil)).
		Build()
	if err == nil {
		t.Fatalf("expected build to fail")
	}
	// Every structural problem is reported, not just the first.
	for _, want := range []string{"x", "y", "concurrency"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error should mention %q: %v", want, err)
		}
	}
}

func TestNewMachine_InvalidDefinition(t *testing.T) {
	_, err := NewMachine(GraphDefinition{Name: "empty"})
	if err == nil {
		t.Fatalf("expected error for graph without states")
	}
	if errors.Is(err, ErrNotStarted) {
		t.Fatalf("construction failure must not be a lifecycle error: %v", err)
	}
}
