package taskgraph

import (
	"context"
	"time"
)

// RetryBuilder provides a fluent way to wrap a Handler with retries.
// A handler error tears the whole machine down, so states whose
// handlers fail transiently (network lookups, rate limits) should
// retry before letting the error escape.
type RetryBuilder struct {
	maxAttempts int
	initial     time.Duration
	max         time.Duration
	multiplier  float64
}

// Retry creates a RetryBuilder with the given maxAttempts.
//
// maxAttempts <= 0 is treated as 1 (no retries).
func Retry(maxAttempts int) RetryBuilder {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return RetryBuilder{maxAttempts: maxAttempts}
}

// WithExponentialBackoff configures exponential backoff:
//
//   - initial is the delay before the first retry.
//   - multiplier > 1 grows the delay each attempt (default 2.0 if <= 0).
//   - max caps the delay; if <= 0, there is no cap.
//
// Example:
//
//	Retry(3).WithExponentialBackoff(100*time.Millisecond, 2.0, 2*time.Second)
func (r RetryBuilder) WithExponentialBackoff(initial time.Duration, multiplier float64, max time.Duration) RetryBuilder {
	if multiplier <= 0 {
		multiplier = 2.0
	}
	r.initial = initial
	r.max = max
	r.multiplier = multiplier
	return r
}

// WithConstantBackoff configures a constant backoff between retries.
func (r RetryBuilder) WithConstantBackoff(delay time.Duration) RetryBuilder {
	r.initial = delay
	r.max = 0
	r.multiplier = 1.0
	return r
}

// Immediate disables any sleep between retries.
// Retries still respect maxAttempts.
func (r RetryBuilder) Immediate() RetryBuilder {
	r.initial = 0
	r.max = 0
	r.multiplier = 0
	return r
}

// Wrap returns a Handler that invokes h up to maxAttempts times,
// sleeping per the configured backoff between attempts. The last error
// is returned once attempts are exhausted. A context cancellation stops
// retrying immediately; a handler panic is not retried.
func (r RetryBuilder) Wrap(h Handler) Handler {
	return func(ctx context.Context, task any) ([]any, error) {
		delay := r.initial
		var lastErr error
		for attempt := 1; attempt <= r.maxAttempts; attempt++ {
			out, err := h(ctx, task)
			if err == nil {
				return out, nil
			}
			lastErr = err

			if attempt == r.maxAttempts {
				break
			}
			if delay > 0 {
				timer := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					timer.Stop()
					return nil, ctx.Err()
				case <-timer.C:
				}
				delay = time.Duration(float64(delay) * r.multiplier)
				if r.max > 0 && delay > r.max {
					delay = r.max
				}
			} else if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		return nil, lastErr
	}
}
