package harness

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"reflect"

	"github.com/roach88/sieve/internal/compiler"
	"github.com/roach88/sieve/internal/engine"
	"github.com/roach88/sieve/internal/graph"
	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/queryir"
	"github.com/roach88/sieve/internal/store"
)

// Harness holds what one scenario run shares across its requests.
type Harness struct {
	specs  *ir.SpecSet
	engine *engine.Engine
	store  *store.Store
	bound  map[string]*engine.Endpoint
}

// Run executes a scenario against a fresh in-memory store.
//
// Errors in the scenario environment (declarations that do not compile, a
// dataset that does not load) are returned as errors. Expectation failures
// are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	value, err := compiler.BuildDir(scenario.Specs)
	if err != nil {
		return nil, fmt.Errorf("load specs: %w", err)
	}
	specs, errs := compiler.CompileSpecs(value, true)
	if len(errs) > 0 {
		return nil, fmt.Errorf("compile specs: %w", errs[0])
	}

	g, err := graph.New(specs.Entities)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := st.Migrate(ctx, g); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	if scenario.Seed != "" {
		ds, err := store.LoadDataset(scenario.Seed)
		if err != nil {
			return nil, err
		}
		if err := st.Seed(ctx, g, ds); err != nil {
			return nil, fmt.Errorf("seed store: %w", err)
		}
	}

	h := &Harness{
		specs:  specs,
		engine: engine.New(g),
		store:  st,
		bound:  make(map[string]*engine.Endpoint),
	}

	result := NewResult()
	for i := range scenario.Requests {
		if err := h.execute(ctx, int64(i+1), &scenario.Requests[i], result); err != nil {
			return nil, err
		}
	}

	slog.Debug("scenario finished", "scenario", scenario.Name, "requests", len(scenario.Requests), "pass", result.Pass)
	return result, nil
}

// endpoint binds the named endpoint on first use. Binding errors are
// returned to the request so scenarios can expect them.
func (h *Harness) endpoint(name string) (*engine.Endpoint, error) {
	if ep, ok := h.bound[name]; ok {
		return ep, nil
	}
	spec, ok := h.specs.Endpoint(name)
	if !ok {
		return nil, fmt.Errorf("unknown endpoint %s", name)
	}
	ep, err := h.engine.Bind(*spec)
	if err != nil {
		return nil, err
	}
	h.bound[name] = ep
	return ep, nil
}

func (h *Harness) execute(ctx context.Context, seq int64, req *Request, result *Result) error {
	params := req.query()
	event := TraceEvent{Seq: seq, Endpoint: req.Endpoint, Params: params}
	where := fmt.Sprintf("request %d (%s)", seq, req.Endpoint)

	if _, ok := h.specs.Endpoint(req.Endpoint); !ok {
		result.AddError(fmt.Sprintf("%s: unknown endpoint", where))
		return nil
	}

	ep, err := h.endpoint(req.Endpoint)
	var pred queryir.Predicate
	if err == nil {
		pred, err = h.engine.EvaluateEndpoint(ep, engine.Params(params))
	}
	if err != nil {
		kind := engine.ErrorKind(err)
		if kind == "" {
			return fmt.Errorf("%s: %w", where, err)
		}
		event.Error = kind
		result.Trace = append(result.Trace, event)

		switch {
		case req.ExpectError == "":
			result.AddError(fmt.Sprintf("%s: unexpected error: %v", where, err))
		case req.ExpectError != kind:
			result.AddError(fmt.Sprintf("%s: expected error %s, got %s: %v", where, req.ExpectError, kind, err))
		}
		return nil
	}

	sqlText, args, err := store.Explain(ep.Root, pred)
	if err != nil {
		return fmt.Errorf("%s: %w", where, err)
	}
	rows, err := h.store.Find(ctx, ep.Root, pred)
	if err != nil {
		return fmt.Errorf("%s: %w", where, err)
	}

	event.SQL = sqlText
	event.Args = args
	event.Keys = store.Column(rows, ep.Root.Key)
	result.Trace = append(result.Trace, event)

	if req.ExpectError != "" {
		result.AddError(fmt.Sprintf("%s: expected error %s, got %d rows", where, req.ExpectError, len(rows)))
		return nil
	}
	if req.Expect != nil {
		got := store.Column(rows, req.Expect.Column)
		want := normalizeValues(req.Expect.Values)
		if !reflect.DeepEqual(got, want) {
			result.AddError(fmt.Sprintf("%s: %s: expected %v, got %v", where, req.Expect.Column, want, got))
		}
	}
	return nil
}

// normalizeValues converts YAML-decoded values to the types Find returns.
// Integers above MaxInt64 are left as uint64 and never match a row.
func normalizeValues(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		switch n := v.(type) {
		case int:
			out[i] = int64(n)
		case uint64:
			if n > math.MaxInt64 {
				out[i] = n
				continue
			}
			out[i] = int64(n)
		default:
			out[i] = v
		}
	}
	return out
}
