package api

import (
	"errors"
	"strings"
	"testing"
)

func TestHandlerError_MessageAndUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("tag lookup timed out")
	err := &HandlerError{State: "lookup", Task: "track-17", Err: cause}

	msg := err.Error()
	for _, want := range []string{"lookup", "track-17", "tag lookup timed out"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected message to contain %q, got %q", want, msg)
		}
	}

	if !errors.Is(err, cause) {
		t.Errorf("expected HandlerError to unwrap to its cause")
	}
}

func TestUnknownStateError_Message(t *testing.T) {
	t.Parallel()

	err := &UnknownStateError{State: "nope"}
	if !strings.Contains(err.Error(), `"nope"`) {
		t.Errorf("expected message to name the state, got %q", err.Error())
	}
}

func TestStateConfig_Workers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  StateConfig
		want int
	}{
		{"explicit concurrency", StateConfig{Concurrency: 3, MaxQueueSize: 10}, 3},
		{"derived from queue size", StateConfig{MaxQueueSize: 4}, 4},
		{"explicit with unbounded queue", StateConfig{Concurrency: 2}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Workers(); got != tt.want {
				t.Errorf("Workers() = %d, want %d", got, tt.want)
			}
		})
	}
}
