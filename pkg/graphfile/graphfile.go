// Package graphfile loads a routing-graph topology from a YAML document.
//
// The document describes state ids, limits, and transitions; handlers and
// predicates are code, so the document refers to them by name and a
// Registry supplies the implementations. A loaded GraphDefinition still
// goes through the engine's structural validation when the machine is
// built.
//
// Example document:
//
//	name: tagging
//	states:
//	  - id: scan
//	    handler: scan-files
//	    concurrency: 2
//	    max_queue_size: 8
//	    transitions:
//	      - to: lookup
//	        when: has-audio
//	  - id: lookup
//	    handler: lookup-metadata
//	    concurrency: 4
//	    max_queue_size: 16
//	    accumulate: true
package graphfile

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jkorri/taskgraph/pkg/api"
)

// Registry maps the handler and predicate names used in a graph document
// to their implementations.
type Registry struct {
	handlers   map[string]api.Handler
	predicates map[string]api.Predicate
}

func NewRegistry() *Registry {
	return &Registry{
		handlers:   make(map[string]api.Handler),
		predicates: make(map[string]api.Predicate),
	}
}

// Handler registers a named handler. It replaces any previous handler
// registered under the same name and returns the registry for chaining.
func (r *Registry) Handler(name string, h api.Handler) *Registry {
	r.handlers[name] = h
	return r
}

// Predicate registers a named predicate.
func (r *Registry) Predicate(name string, p api.Predicate) *Registry {
	r.predicates[name] = p
	return r
}

type fileTransition struct {
	To   string `yaml:"to"`
	When string `yaml:"when"` // empty = always
}

type fileState struct {
	ID                 string           `yaml:"id"`
	Handler            string           `yaml:"handler"`
	UserInteraction    bool             `yaml:"user_interaction"`
	MaxQueueSize       int              `yaml:"max_queue_size"`
	Concurrency        int              `yaml:"concurrency"`
	Accumulate         bool             `yaml:"accumulate"`
	MaxAccumulatorSize int              `yaml:"max_accumulator_size"`
	Transitions        []fileTransition `yaml:"transitions"`
}

type fileGraph struct {
	Name   string      `yaml:"name"`
	States []fileState `yaml:"states"`
}

// Parse decodes a YAML graph document and resolves every handler and
// predicate reference against reg. All unresolved references are
// reported together.
func Parse(data []byte, reg *Registry) (api.GraphDefinition, error) {
	var fg fileGraph
	if err := yaml.Unmarshal(data, &fg); err != nil {
		return api.GraphDefinition{}, fmt.Errorf("parsing graph document: %w", err)
	}

	var errs []error

	def := api.GraphDefinition{Name: fg.Name}
	for _, fs := range fg.States {
		handler, ok := reg.handlers[fs.Handler]
		if !ok {
			errs = append(errs, fmt.Errorf("state %q: unknown handler %q", fs.ID, fs.Handler))
		}

		sd := api.StateDefinition{
			Config: api.StateConfig{
				ID:                 api.StateID(fs.ID),
				Handler:            handler,
				UserInteraction:    fs.UserInteraction,
				MaxQueueSize:       fs.MaxQueueSize,
				Concurrency:        fs.Concurrency,
				Accumulate:         fs.Accumulate,
				MaxAccumulatorSize: fs.MaxAccumulatorSize,
			},
		}
		for _, ft := range fs.Transitions {
			var when api.Predicate
			if ft.When != "" {
				when, ok = reg.predicates[ft.When]
				if !ok {
					errs = append(errs, fmt.Errorf("state %q: unknown predicate %q", fs.ID, ft.When))
				}
			}
			sd.Transitions = append(sd.Transitions, api.Transition{
				Target: api.StateID(ft.To),
				When:   when,
			})
		}
		def.States = append(def.States, sd)
	}

	if err := errors.Join(errs...); err != nil {
		return api.GraphDefinition{}, err
	}
	return def, nil
}

// ParseFile reads and parses a YAML graph document from path.
func ParseFile(path string, reg *Registry) (api.GraphDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return api.GraphDefinition{}, fmt.Errorf("reading graph document: %w", err)
	}
	return Parse(data, reg)
}
