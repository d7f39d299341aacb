package taskgraph

import (
	"context"
	"fmt"
)

// Passthrough returns a handler that forwards its input task unchanged
// as a single successor. Useful for states that exist purely to fan
// tasks out through their transition list or to accumulate.
func Passthrough() Handler {
	return func(ctx context.Context, task any) ([]any, error) {
		return []any{task}, nil
	}
}

// Discard returns a handler that produces no successors. Combined with
// an effectful closure it models a pure side-effect sink state.
func Discard() Handler {
	return func(ctx context.Context, task any) ([]any, error) {
		return nil, nil
	}
}

// Map wraps a one-in, one-out transformation as a Handler.
func Map(fn func(ctx context.Context, task any) (any, error)) Handler {
	return func(ctx context.Context, task any) ([]any, error) {
		out, err := fn(ctx, task)
		if err != nil {
			return nil, err
		}
		return []any{out}, nil
	}
}

// Typed wraps a strongly-typed handler into a Handler. A task of any
// other type fails the handler, and with it the machine.
// Example:
//
//	taskgraph.Typed(func(ctx context.Context, t Track) ([]any, error) { ... })
func Typed[I any](fn func(ctx context.Context, task I) ([]any, error)) Handler {
	return func(ctx context.Context, task any) ([]any, error) {
		v, ok := task.(I)
		if !ok {
			return nil, fmt.Errorf("expected task of type %T, got %T", v, task)
		}
		return fn(ctx, v)
	}
}

// TypedMap wraps a strongly-typed one-in, one-out transformation into a
// Handler.
func TypedMap[I, O any](fn func(ctx context.Context, task I) (O, error)) Handler {
	return Typed(func(ctx context.Context, task I) ([]any, error) {
		out, err := fn(ctx, task)
		if err != nil {
			return nil, err
		}
		return []any{out}, nil
	})
}

// Always returns a predicate matching every task. A nil predicate on a
// transition means the same thing; Always reads better in graphs that
// mix conditional and unconditional transitions.
func Always() Predicate {
	return func(task any) bool { return true }
}

// Not negates a predicate.
func Not(p Predicate) Predicate {
	return func(task any) bool { return !p(task) }
}

// TypedWhen wraps a strongly-typed predicate. Tasks of any other type do
// not match.
func TypedWhen[I any](fn func(task I) bool) Predicate {
	return func(task any) bool {
		v, ok := task.(I)
		if !ok {
			return false
		}
		return fn(v)
	}
}
