package graph

import (
	"errors"
	"fmt"
)

// InvalidPathError reports a declared path that does not fit the graph: an
// unknown root or attribute, an empty segment, or a traversal through an
// attribute that cannot be descended into.
//
// It stems from a mismatch between an endpoint declaration and the schema,
// so boundary layers should report it as a client-visible bad filter
// configuration rather than a server fault.
type InvalidPathError struct {
	Root    string
	Path    string
	Segment string
	Reason  string
}

func (e *InvalidPathError) Error() string {
	if e.Segment != "" {
		return fmt.Sprintf("invalid path %q on %s at %q: %s", e.Path, e.Root, e.Segment, e.Reason)
	}
	return fmt.Sprintf("invalid path %q on %s: %s", e.Path, e.Root, e.Reason)
}

// IsInvalidPath returns true if err is or wraps an *InvalidPathError.
func IsInvalidPath(err error) bool {
	var pe *InvalidPathError
	return errors.As(err, &pe)
}

// SchemaError reports an entity declaration that cannot be turned into a graph.
type SchemaError struct {
	Entity    string
	Attribute string
	Message   string
}

func (e *SchemaError) Error() string {
	if e.Attribute != "" {
		return fmt.Sprintf("entity %s attribute %s: %s", e.Entity, e.Attribute, e.Message)
	}
	return fmt.Sprintf("entity %s: %s", e.Entity, e.Message)
}
