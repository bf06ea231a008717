package harness

import "github.com/roach88/sieve/internal/engine"

// errorKinds are the values ExpectError may take.
var errorKinds = map[string]bool{
	engine.KindInvalidPath:         true,
	engine.KindArgumentConversion:  true,
	engine.KindInvalidFilter:       true,
	engine.KindUnsupportedPathKind: true,
}

// TraceEvent records one evaluated request. A failed evaluation carries the
// error kind and no SQL.
type TraceEvent struct {
	Seq      int64               `json:"seq"`
	Endpoint string              `json:"endpoint"`
	Params   map[string][]string `json:"params,omitempty"`
	SQL      string              `json:"sql,omitempty"`
	Args     []any               `json:"args,omitempty"`
	Keys     []any               `json:"keys,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// Trace contains one event per request, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
