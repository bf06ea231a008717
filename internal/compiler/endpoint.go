package compiler

import (
	"fmt"
	"strconv"

	"cuelang.org/go/cue"

	"github.com/roach88/sieve/internal/ir"
)

var filterFields = map[string]bool{
	"path":   true,
	"op":     true,
	"params": true,
	"const":  true,
}

// CompileEndpoint parses a CUE value into an EndpointSpec. The endpoint name
// is the struct label:
//
//	endpoint: "/notEmpty/customerOrders": {
//		root: "Customer"
//		filters: [{path: "orders", op: "not_empty", params: ["notEmptyOrders"]}]
//	}
//
// A const may be given as a string or a bool; it is stored as its string form.
func CompileEndpoint(v cue.Value) (*ir.EndpointSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.EndpointSpec{Name: labelOf(v)}

	rootVal := v.LookupPath(cue.ParsePath("root"))
	if !rootVal.Exists() {
		return nil, &CompileError{
			Field:   "root",
			Message: "root entity is required",
			Pos:     v.Pos(),
		}
	}
	root, err := rootVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	spec.Root = root

	filtersVal := v.LookupPath(cue.ParsePath("filters"))
	if !filtersVal.Exists() {
		return spec, nil
	}

	iter, err := filtersVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		f, err := parseFilter(iter.Value(), fmt.Sprintf("filters[%d]", i))
		if err != nil {
			return nil, err
		}
		spec.Filters = append(spec.Filters, f)
	}

	return spec, nil
}

func parseFilter(v cue.Value, where string) (ir.FilterSpec, error) {
	var f ir.FilterSpec

	fields, err := v.Fields()
	if err != nil {
		return f, formatCUEError(err)
	}
	for fields.Next() {
		if !filterFields[fields.Label()] {
			return f, &CompileError{
				Field:   where + "." + fields.Label(),
				Message: "unknown filter field",
				Pos:     fields.Value().Pos(),
			}
		}
	}

	if f.Path, err = optionalString(v, "path", where); err != nil {
		return f, err
	}
	if f.Operator, err = optionalString(v, "op", where); err != nil {
		return f, err
	}

	if paramsVal := v.LookupPath(cue.ParsePath("params")); paramsVal.Exists() {
		if f.Params, err = stringList(paramsVal, where+".params"); err != nil {
			return f, err
		}
	}

	if constVal := v.LookupPath(cue.ParsePath("const")); constVal.Exists() {
		c, err := constString(constVal, where)
		if err != nil {
			return f, err
		}
		f.Const = &c
	}

	return f, nil
}

func constString(v cue.Value, where string) (string, error) {
	switch v.Kind() {
	case cue.StringKind:
		return v.String()
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return "", formatCUEError(err)
		}
		return strconv.FormatBool(b), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return "", formatCUEError(err)
		}
		return strconv.FormatInt(n, 10), nil
	default:
		return "", &CompileError{
			Field:   where + ".const",
			Message: "must be a concrete string, bool or int",
			Pos:     v.Pos(),
		}
	}
}
