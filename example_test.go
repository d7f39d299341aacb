package taskgraph_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jkorri/taskgraph"
)

// ExampleScoped demonstrates defining a small routing graph with the
// GraphBuilder and running it inside a Scoped block, which joins the
// machine on every exit path.
func ExampleScoped() {
	ctx := context.Background()

	upper := taskgraph.TypedMap(func(ctx context.Context, s string) (string, error) {
		return strings.ToUpper(s), nil
	})
	exclaim := taskgraph.TypedMap(func(ctx context.Context, s string) (string, error) {
		return s + "!", nil
	})

	m := taskgraph.New("shout").
		State(taskgraph.StateConfig{ID: "upper", Handler: upper, Concurrency: 1, MaxQueueSize: 4},
			taskgraph.To("exclaim", nil)).
		State(taskgraph.StateConfig{ID: "exclaim", Handler: exclaim, Concurrency: 1, MaxQueueSize: 4, Accumulate: true}).
		MustBuild()

	err := taskgraph.Scoped(ctx, m, func(ctx context.Context, m taskgraph.Machine) error {
		for _, word := range []string{"hello", "gopher"} {
			if err := m.Inject(ctx, "upper", word); err != nil {
				return err
			}
		}
		if err := m.EmptyWait(ctx); err != nil {
			return err
		}

		seq, err := m.Accumulated(ctx, "exclaim")
		if err != nil {
			return err
		}
		for task := range seq {
			fmt.Println(task)
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	// Output:
	// HELLO!
	// GOPHER!
}

// ExampleGraphBuilder shows conditional routing: even numbers go to one
// state, everything else to another. Transitions are evaluated in order
// and the first match wins.
func ExampleGraphBuilder() {
	ctx := context.Background()

	even := taskgraph.TypedWhen(func(n int) bool { return n%2 == 0 })

	m := taskgraph.New("parity").
		State(taskgraph.StateConfig{ID: "classify", Handler: taskgraph.Passthrough(), Concurrency: 1, MaxQueueSize: 4},
			taskgraph.To("evens", even),
			taskgraph.To("odds", nil)).
		State(taskgraph.StateConfig{ID: "evens", Handler: taskgraph.Passthrough(), Concurrency: 1, MaxQueueSize: 8, Accumulate: true}).
		State(taskgraph.StateConfig{ID: "odds", Handler: taskgraph.Passthrough(), Concurrency: 1, MaxQueueSize: 8, Accumulate: true}).
		MustBuild()

	err := taskgraph.Scoped(ctx, m, func(ctx context.Context, m taskgraph.Machine) error {
		for i := 1; i <= 4; i++ {
			if err := m.Inject(ctx, "classify", i); err != nil {
				return err
			}
		}
		if err := m.EmptyWait(ctx); err != nil {
			return err
		}

		for _, state := range []taskgraph.StateID{"evens", "odds"} {
			seq, err := m.Accumulated(ctx, state)
			if err != nil {
				return err
			}
			for task := range seq {
				fmt.Printf("%s: %d\n", state, task)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	// Output:
	// evens: 2
	// evens: 4
	// odds: 1
	// odds: 3
}
