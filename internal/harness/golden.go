package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/sieve/internal/ir"
)

// Snapshot renders the trace of a result as canonical JSON. Golden files
// hold exactly these bytes.
func Snapshot(name string, result *Result) ([]byte, error) {
	trace := make([]any, len(result.Trace))
	for i, event := range result.Trace {
		m := map[string]any{
			"seq":      event.Seq,
			"endpoint": event.Endpoint,
		}
		if len(event.Params) > 0 {
			params := make(map[string]any, len(event.Params))
			for k, v := range event.Params {
				params[k] = v
			}
			m["params"] = params
		}
		if event.Error != "" {
			m["error"] = event.Error
		} else {
			m["sql"] = event.SQL
			m["args"] = orEmpty(event.Args)
			m["keys"] = orEmpty(event.Keys)
		}
		trace[i] = m
	}
	return ir.MarshalCanonical(map[string]any{
		"scenario_name": name,
		"trace":         trace,
	})
}

func orEmpty(v []any) []any {
	if v == nil {
		return []any{}
	}
	return v
}

// RunWithGolden executes a scenario and compares its trace against
// {scenario.GoldenDir()}/{scenario.Name}.golden, the same file the
// `sieve test` command checks.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result of scenario against its golden
// file without re-running it.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenario.Name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(scenario.GoldenDir()),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}
