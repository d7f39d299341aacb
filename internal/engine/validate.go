package engine

import (
	"errors"
	"fmt"

	"github.com/jkorri/taskgraph/pkg/api"
)

// validate checks a graph definition for structural correctness. All
// violations found are reported in a single joined error, not just the
// first. A nil return means the graph is runnable.
func validate(def api.GraphDefinition) error {
	if len(def.States) == 0 {
		return errors.New("graph has no states")
	}

	var errs []error

	seen := make(map[api.StateID]int, len(def.States))
	for _, s := range def.States {
		seen[s.Config.ID]++
	}
	for _, s := range def.States {
		if seen[s.Config.ID] > 1 {
			errs = append(errs, fmt.Errorf("duplicate state id %q", s.Config.ID))
			seen[s.Config.ID] = 0 // report each duplicate id once
		}
	}

	for _, s := range def.States {
		cfg := s.Config
		if cfg.ID == "" {
			errs = append(errs, errors.New("state with empty id"))
		}
		if cfg.Handler == nil {
			errs = append(errs, fmt.Errorf("state %q has no handler", cfg.ID))
		}
		if cfg.MaxQueueSize < 0 {
			errs = append(errs, fmt.Errorf("state %q: negative max queue size %d", cfg.ID, cfg.MaxQueueSize))
		}
		if cfg.Concurrency < 0 {
			errs = append(errs, fmt.Errorf("state %q: negative concurrency %d", cfg.ID, cfg.Concurrency))
		}
		switch {
		case cfg.MaxQueueSize > 0 && cfg.Concurrency > cfg.MaxQueueSize:
			errs = append(errs, fmt.Errorf("state %q: concurrency %d exceeds max queue size %d",
				cfg.ID, cfg.Concurrency, cfg.MaxQueueSize))
		case cfg.MaxQueueSize == 0 && cfg.Concurrency == 0:
			errs = append(errs, fmt.Errorf("state %q: unbounded queue requires explicit concurrency", cfg.ID))
		}
		if cfg.MaxAccumulatorSize < 0 {
			errs = append(errs, fmt.Errorf("state %q: negative max accumulator size %d", cfg.ID, cfg.MaxAccumulatorSize))
		}

		for _, tr := range s.Transitions {
			if _, ok := def.State(tr.Target); !ok {
				errs = append(errs, fmt.Errorf("state %q: transition to unknown state %q", cfg.ID, tr.Target))
			}
		}
	}

	return errors.Join(errs...)
}

// accumulates reports whether at least one state exposes results. A graph
// where nothing accumulates is legal (side-effect-only handlers) but
// surprising enough to warrant a warning at construction.
func accumulates(def api.GraphDefinition) bool {
	for _, s := range def.States {
		if s.Config.Accumulate {
			return true
		}
	}
	return false
}
