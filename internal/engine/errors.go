package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/sieve/internal/graph"
	"github.com/roach88/sieve/internal/ir"
)

// ArgumentConversionError reports a parameter or constant value that is not
// a valid argument for the descriptor's operator.
type ArgumentConversionError struct {
	// Param is the parameter the value came from; empty for constants.
	Param string

	// Value is the raw value as received.
	Value string

	// Expected names the accepted form, e.g. "bool (true|false)".
	Expected string

	// Reason is set when there is no usable value at all.
	Reason string
}

func (e *ArgumentConversionError) Error() string {
	source := "constant"
	if e.Param != "" {
		source = fmt.Sprintf("parameter %q", e.Param)
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", source, e.Reason)
	}
	return fmt.Sprintf("%s: cannot convert %q to %s", source, e.Value, e.Expected)
}

// UnsupportedPathKindError reports an operator declared against a path whose
// terminal attribute kind it cannot test, e.g. emptiness of a scalar.
// It is a configuration error; Check reports it before any request.
type UnsupportedPathKindError struct {
	Operator Operator
	Path     string
	Kind     ir.AttributeKind
}

func (e *UnsupportedPathKindError) Error() string {
	return fmt.Sprintf("operator %s is not supported on %s attribute %s", e.Operator, e.Kind, e.Path)
}

// DescriptorError reports a descriptor that cannot be evaluated regardless
// of request parameters: unknown operator, or neither parameter nor constant.
type DescriptorError struct {
	Path    string
	Message string
}

func (e *DescriptorError) Error() string {
	if e.Path == "" {
		return "invalid filter: " + e.Message
	}
	return fmt.Sprintf("invalid filter on %s: %s", e.Path, e.Message)
}

// FilterError locates a failure at one descriptor of an evaluation.
// The underlying typed error is reachable with errors.As.
type FilterError struct {
	Index int
	Path  string
	Err   error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filter %d (%s): %v", e.Index, e.Path, e.Err)
}

func (e *FilterError) Unwrap() error {
	return e.Err
}

// IsInvalidPath returns true if err is or wraps a *graph.InvalidPathError.
func IsInvalidPath(err error) bool {
	return graph.IsInvalidPath(err)
}

// IsArgumentConversion returns true if err is or wraps an
// *ArgumentConversionError.
func IsArgumentConversion(err error) bool {
	var ae *ArgumentConversionError
	return errors.As(err, &ae)
}

// IsUnsupportedPathKind returns true if err is or wraps an
// *UnsupportedPathKindError.
func IsUnsupportedPathKind(err error) bool {
	var ue *UnsupportedPathKindError
	return errors.As(err, &ue)
}

// IsDescriptorError returns true if err is or wraps a *DescriptorError.
func IsDescriptorError(err error) bool {
	var de *DescriptorError
	return errors.As(err, &de)
}

// Error kinds reported by ErrorKind.
const (
	KindInvalidPath         = "invalid_path"
	KindArgumentConversion  = "argument_conversion"
	KindInvalidFilter       = "invalid_filter"
	KindUnsupportedPathKind = "unsupported_path_kind"
)

// ErrorKind names the typed error err wraps, or returns "" for errors that
// did not come from the engine.
func ErrorKind(err error) string {
	switch {
	case IsInvalidPath(err):
		return KindInvalidPath
	case IsArgumentConversion(err):
		return KindArgumentConversion
	case IsDescriptorError(err):
		return KindInvalidFilter
	case IsUnsupportedPathKind(err):
		return KindUnsupportedPathKind
	default:
		return ""
	}
}
