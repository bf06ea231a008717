package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sieve/internal/engine"
	"github.com/roach88/sieve/internal/graph"
	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/store"
)

// environment is what the runtime commands share: the compiled
// declarations, the entity graph and an engine over it.
type environment struct {
	specs  *ir.SpecSet
	graph  *graph.Graph
	engine *engine.Engine
}

// loadEnvironment compiles specsDir and builds the graph. Failures are
// reported through formatter and returned as command errors.
func loadEnvironment(formatter *OutputFormatter, specsDir string) (*environment, error) {
	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeFailFast)
	if len(loadErrors) > 0 {
		code, message := parseLoadError(loadErrors[0])
		return nil, commandError(formatter, code, message)
	}
	formatter.VerboseLog("Loaded %d entity(s), %d endpoint(s) from %s",
		len(loadResult.Specs.Entities), len(loadResult.Specs.Endpoints), specsDir)

	g, err := graph.New(loadResult.Specs.Entities)
	if err != nil {
		return nil, commandError(formatter, ErrCodeGraphFailed, err.Error())
	}

	return &environment{
		specs:  loadResult.Specs,
		graph:  g,
		engine: engine.New(g),
	}, nil
}

// bind binds the named endpoint.
func (env *environment) bind(formatter *OutputFormatter, name string) (*engine.Endpoint, error) {
	spec, ok := env.specs.Endpoint(name)
	if !ok {
		return nil, commandError(formatter, ErrCodeNotFound, fmt.Sprintf("unknown endpoint %q", name))
	}
	ep, err := env.engine.Bind(*spec)
	if err != nil {
		return nil, commandError(formatter, ErrCodeBindFailed, err.Error())
	}
	return ep, nil
}

// openStore opens and migrates the database at path, seeding it when
// seedFile is set.
func (env *environment) openStore(ctx context.Context, formatter *OutputFormatter, path, seedFile string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, commandError(formatter, ErrCodeStoreFailed, err.Error())
	}
	if err := st.Migrate(ctx, env.graph); err != nil {
		st.Close()
		return nil, commandError(formatter, ErrCodeStoreFailed, err.Error())
	}
	if seedFile != "" {
		if _, err := env.seed(ctx, formatter, st, seedFile); err != nil {
			st.Close()
			return nil, err
		}
	}
	return st, nil
}

// seed loads the YAML dataset at path into st.
func (env *environment) seed(ctx context.Context, formatter *OutputFormatter, st *store.Store, path string) (store.Dataset, error) {
	ds, err := store.LoadDataset(path)
	if err == nil {
		err = st.Seed(ctx, env.graph, ds)
	}
	if err != nil {
		return nil, commandError(formatter, ErrCodeStoreFailed, err.Error())
	}
	formatter.VerboseLog("Seeded %d batch(es) from %s", len(ds), path)
	return ds, nil
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// commandError reports an error and returns it with ExitCommandError.
func commandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// parseParams converts repeated --param name=value flags to engine.Params.
// A name given twice keeps both values in flag order.
func parseParams(flags []string) (engine.Params, error) {
	params := engine.Params{}
	for _, f := range flags {
		name, value, ok := strings.Cut(f, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --param %q: expected name=value", f)
		}
		if name == "" {
			return nil, fmt.Errorf("invalid --param %q: empty name", f)
		}
		params[name] = append(params[name], value)
	}
	return params, nil
}

// paramNames returns the parameter names in sorted order.
func paramNames(params engine.Params) []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
