package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a request scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs is the directory holding the CUE declarations.
	// Relative paths are resolved against the scenario file location.
	Specs string `yaml:"specs"`

	// Seed is an optional YAML dataset loaded before the first request.
	Seed string `yaml:"seed,omitempty"`

	// Requests are evaluated in order against one store.
	Requests []Request `yaml:"requests"`

	// dir is the directory the scenario was parsed relative to.
	dir string
}

// GoldenDir is the directory holding the scenario's golden trace:
// golden/ next to the scenario file, or testdata/golden when the scenario
// was parsed without a base directory.
func (s *Scenario) GoldenDir() string {
	if s.dir == "" {
		return filepath.Join("testdata", "golden")
	}
	return filepath.Join(s.dir, "golden")
}

// Request is one call to a declared endpoint.
type Request struct {
	Endpoint string                 `yaml:"endpoint"`
	Params   map[string]ParamValues `yaml:"params,omitempty"`

	// Expect checks the returned rows. Mutually exclusive with ExpectError.
	Expect *Expect `yaml:"expect,omitempty"`

	// ExpectError is the error kind the request must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Expect lists the values one column must take, in row order.
type Expect struct {
	Column string `yaml:"column"`
	Values []any  `yaml:"values"`
}

// ParamValues holds the values of one query parameter. In YAML it is either
// a scalar or a sequence of scalars.
type ParamValues []string

// UnmarshalYAML accepts `p: true` as well as `p: [a, b]`. Scalars keep their
// source text, so `p: TRUE` stays "TRUE".
func (p *ParamValues) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*p = ParamValues{node.Value}
		return nil
	case yaml.SequenceNode:
		out := make(ParamValues, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: parameter values must be scalars", item.Line)
			}
			out = append(out, item.Value)
		}
		*p = out
		return nil
	default:
		return fmt.Errorf("line %d: parameter must be a scalar or a list", node.Line)
	}
}

// query converts the request parameters to url.Values form.
func (r *Request) query() map[string][]string {
	out := make(map[string][]string, len(r.Params))
	for k, v := range r.Params {
		out[k] = []string(v)
	}
	return out
}

// LoadScenario reads and parses a scenario YAML file. Specs and Seed paths
// are resolved relative to the file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML, resolving relative paths against
// baseDir. Unknown fields are rejected.
func ParseScenario(data []byte, baseDir string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	scenario.dir = baseDir
	scenario.Specs = resolve(baseDir, scenario.Specs)
	scenario.Seed = resolve(baseDir, scenario.Seed)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) || base == "" {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Specs == "" {
		return fmt.Errorf("specs is required")
	}
	if len(s.Requests) == 0 {
		return fmt.Errorf("requests list is required and must be non-empty")
	}

	for i, r := range s.Requests {
		if r.Endpoint == "" {
			return fmt.Errorf("requests[%d]: endpoint is required", i)
		}
		if r.Expect != nil && r.ExpectError != "" {
			return fmt.Errorf("requests[%d]: expect and expect_error are mutually exclusive", i)
		}
		if r.Expect != nil && r.Expect.Column == "" {
			return fmt.Errorf("requests[%d]: expect.column is required", i)
		}
		if r.ExpectError != "" && !errorKinds[r.ExpectError] {
			return fmt.Errorf("requests[%d]: unknown error kind %q", i, r.ExpectError)
		}
	}
	return nil
}
