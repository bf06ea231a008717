package engine

import (
	"fmt"

	"github.com/roach88/sieve/internal/graph"
	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/queryir"
)

// Endpoint is a declared endpoint bound to the graph: its root entity and
// its checked descriptors.
type Endpoint struct {
	Name        string
	Root        *graph.Entity
	Descriptors []Descriptor
}

// Bind converts spec into an Endpoint and runs Check on its descriptors, so
// an endpoint that binds never fails for configuration reasons at request
// time.
func (e *Engine) Bind(spec ir.EndpointSpec) (*Endpoint, error) {
	root, ok := e.graph.Entity(spec.Root)
	if !ok {
		return nil, &graph.InvalidPathError{Root: spec.Root, Reason: "unknown root entity"}
	}

	descs, err := DescriptorsFromEndpoint(spec)
	if err != nil {
		return nil, fmt.Errorf("endpoint %s: %w", spec.Name, err)
	}
	if err := e.Check(descs, spec.Root); err != nil {
		return nil, fmt.Errorf("endpoint %s: %w", spec.Name, err)
	}

	return &Endpoint{Name: spec.Name, Root: root, Descriptors: descs}, nil
}

// EvaluateEndpoint evaluates the descriptors of ep against params.
func (e *Engine) EvaluateEndpoint(ep *Endpoint, params Params) (queryir.Predicate, error) {
	return e.Evaluate(ep.Descriptors, params, ep.Root.Name)
}
