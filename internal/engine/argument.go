package engine

import (
	"github.com/roach88/sieve/internal/ir"
)

// Params is the parameter multimap of one request. It has the same shape
// as url.Values, so engine.Params(r.URL.Query()) converts directly.
type Params map[string][]string

// Lookup returns the values of a parameter and whether it was present.
// A parameter that is present with no values returns (nil or empty, true).
func (p Params) Lookup(name string) ([]string, bool) {
	v, ok := p[name]
	return v, ok
}

// rawArgument is the unconverted argument of one descriptor.
type rawArgument struct {
	value string
	param string // empty for constants
}

// resolveArgument picks the raw argument of d.
//
// The constant, when set, wins and parameters are not consulted at all.
// Otherwise the first declared parameter is looked up: absent means skip,
// present uses its first value. A present parameter without a usable value
// is an *ArgumentConversionError, never a skip.
func resolveArgument(d Descriptor, params Params) (arg rawArgument, skip bool, err error) {
	if d.ConstVal != nil {
		return rawArgument{value: *d.ConstVal}, false, nil
	}
	if len(d.Params) == 0 {
		return rawArgument{}, false, &DescriptorError{Path: d.Path, Message: "no parameter or constant declared"}
	}

	name := d.Params[0]
	values, ok := params.Lookup(name)
	if !ok {
		return rawArgument{}, true, nil
	}
	if len(values) == 0 {
		return rawArgument{}, false, &ArgumentConversionError{Param: name, Reason: "parameter has no value"}
	}
	if values[0] == "" {
		return rawArgument{}, false, &ArgumentConversionError{Param: name, Reason: "parameter value is empty"}
	}
	return rawArgument{value: values[0], param: name}, false, nil
}

// ParseBool accepts exactly "true" and "false". Case variants, "1", "yes"
// and the like are rejected.
func ParseBool(s string) (bool, error) {
	v, err := ir.ParseValue(ir.TypeBool, s)
	if err != nil {
		return false, err
	}
	return bool(v.(ir.IRBool)), nil
}

// convertBool is the argument rule of the boolean operators.
func convertBool(arg rawArgument) (ir.IRValue, error) {
	b, err := ParseBool(arg.value)
	if err != nil {
		return nil, &ArgumentConversionError{Param: arg.param, Value: arg.value, Expected: "bool (true|false)"}
	}
	return ir.IRBool(b), nil
}

// convertTyped converts the argument to the value type of the terminal
// attribute.
func convertTyped(arg rawArgument, typ string) (ir.IRValue, error) {
	v, err := ir.ParseValue(typ, arg.value)
	if err != nil {
		return nil, &ArgumentConversionError{Param: arg.param, Value: arg.value, Expected: typ}
	}
	return v, nil
}
