package taskgraph

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	flaky := func(ctx context.Context, task any) ([]any, error) {
		if calls.Add(1) < 3 {
			return nil, errors.New("transient")
		}
		return []any{task}, nil
	}

	h := Retry(3).Immediate().Wrap(flaky)
	out, err := h(context.Background(), "x")
	if err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if len(out) != 1 || out[0] != "x" {
		t.Fatalf("unexpected output: %v", out)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	var calls atomic.Int32
	failing := func(ctx context.Context, task any) ([]any, error) {
		calls.Add(1)
		return nil, boom
	}

	h := Retry(4).Immediate().Wrap(failing)
	_, err := h(context.Background(), 1)
	if !errors.Is(err, boom) {
		t.Fatalf("expected the last handler error, got %v", err)
	}
	if calls.Load() != 4 {
		t.Fatalf("expected 4 attempts, got %d", calls.Load())
	}
}

func TestRetry_ZeroAttemptsMeansOne(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	failing := func(ctx context.Context, task any) ([]any, error) {
		calls.Add(1)
		return nil, errors.New("boom")
	}

	h := Retry(0).Wrap(failing)
	if _, err := h(context.Background(), 1); err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestRetry_BackoffStopsOnCancel(t *testing.T) {
	t.Parallel()

	failing := func(ctx context.Context, task any) ([]any, error) {
		return nil, errors.New("boom")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := Retry(5).WithConstantBackoff(time.Hour).Wrap(failing)

	start := time.Now()
	_, err := h(ctx, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("cancelled retry should return promptly")
	}
}

func TestRetry_ExponentialBackoffCapsDelay(t *testing.T) {
	t.Parallel()

	r := Retry(3).WithExponentialBackoff(time.Millisecond, 0, 4*time.Millisecond)
	if r.multiplier != 2.0 {
		t.Fatalf("non-positive multiplier should default to 2.0, got %v", r.multiplier)
	}

	var calls atomic.Int32
	failing := func(ctx context.Context, task any) ([]any, error) {
		calls.Add(1)
		return nil, errors.New("boom")
	}

	start := time.Now()
	_, err := r.Wrap(failing)(context.Background(), 1)
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
	// 1ms + 2ms of backoff, generous upper bound for slow CI.
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("backoff took too long: %v", elapsed)
	}
}
