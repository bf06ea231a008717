package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/sieve/internal/graph"
	"github.com/roach88/sieve/internal/queryir"
)

// Engine evaluates filter descriptors against request parameters.
//
// Thread-safety model:
//   - The graph is immutable and the engine has no other state
//   - Evaluate and Check are safe from any goroutine
type Engine struct {
	graph   *graph.Graph
	combine Combinator
}

// Option configures an Engine.
type Option func(*Engine)

// WithCombinator replaces the conjunction used to combine descriptors.
func WithCombinator(c Combinator) Option {
	return func(e *Engine) {
		if c != nil {
			e.combine = c
		}
	}
}

// New creates an Engine over g.
func New(g *graph.Graph, opts ...Option) *Engine {
	e := &Engine{
		graph:   g,
		combine: Conjunction,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the entity graph the engine resolves paths against.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// Evaluate builds the predicate selecting the rows of root that pass every
// descriptor.
//
// Descriptors are processed in order: path, then argument, then, unless the
// argument is SKIP, the predicate. The path is resolved even for descriptors
// that end up skipped, so a declaration that does not fit the graph fails on
// every request. The first failure aborts evaluation and is returned as a
// *FilterError wrapping one of *graph.InvalidPathError,
// *ArgumentConversionError, *UnsupportedPathKindError or *DescriptorError.
func (e *Engine) Evaluate(descs []Descriptor, params Params, root string) (queryir.Predicate, error) {
	outcomes := make([]Outcome, 0, len(descs))

	for i, d := range descs {
		out, err := e.evaluateOne(i, d, params, root)
		if err != nil {
			slog.Debug("filter evaluation failed",
				"root", root,
				"index", i,
				"path", d.Path,
				"error", err)
			return nil, &FilterError{Index: i, Path: d.Path, Err: err}
		}
		if out.Skipped {
			slog.Debug("filter skipped: parameter absent",
				"root", root,
				"index", i,
				"param", d.Params[0])
		}
		outcomes = append(outcomes, out)
	}

	return composeWith(e.combine, outcomes), nil
}

func (e *Engine) evaluateOne(index int, d Descriptor, params Params, root string) (Outcome, error) {
	path, err := e.graph.Resolve(root, d.Path)
	if err != nil {
		return Outcome{}, err
	}

	arg, skip, err := resolveArgument(d, params)
	if err != nil {
		return Outcome{}, err
	}
	if skip {
		return Skip(), nil
	}

	rule, err := ruleFor(d.Operator, path)
	if err != nil {
		return Outcome{}, err
	}
	value, err := rule.convert(arg, path.Terminal())
	if err != nil {
		return Outcome{}, err
	}

	b := &builder{index: index, path: path}
	return Built(rule.build(b, value)), nil
}

// Check validates descriptors without a request: every path must resolve,
// every operator must accept its terminal kind, every descriptor must
// declare a parameter or a constant, and constants must convert.
//
// Call it when an endpoint is registered so configuration errors such as
// *UnsupportedPathKindError surface at startup. All failures are joined.
func (e *Engine) Check(descs []Descriptor, root string) error {
	var errs []error
	for i, d := range descs {
		if err := e.checkOne(d, root); err != nil {
			errs = append(errs, &FilterError{Index: i, Path: d.Path, Err: err})
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) checkOne(d Descriptor, root string) error {
	if _, ok := operatorNames[d.Operator]; !ok {
		return &DescriptorError{Path: d.Path, Message: fmt.Sprintf("unknown operator %s", d.Operator)}
	}
	path, err := e.graph.Resolve(root, d.Path)
	if err != nil {
		return err
	}
	rule, err := ruleFor(d.Operator, path)
	if err != nil {
		return err
	}
	if d.ConstVal == nil && len(d.Params) == 0 {
		return &DescriptorError{Path: d.Path, Message: "no parameter or constant declared"}
	}
	if d.ConstVal != nil {
		if _, err := rule.convert(rawArgument{value: *d.ConstVal}, path.Terminal()); err != nil {
			return err
		}
	}
	return nil
}
