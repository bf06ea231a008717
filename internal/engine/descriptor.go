package engine

import (
	"fmt"
	"strings"

	"github.com/roach88/sieve/internal/ir"
)

// Operator identifies the test a descriptor applies to its path.
type Operator int

const (
	// OpNotEmpty tests a to_many or element_collection attribute for related
	// rows: argument true keeps rows with at least one, false rows with none.
	OpNotEmpty Operator = iota + 1

	// OpEmpty is OpNotEmpty with the argument inverted.
	OpEmpty

	// OpNull tests a scalar or to_one attribute for NULL: argument true keeps
	// rows where it is NULL, false rows where it is set.
	OpNull

	// OpNotNull is OpNull with the argument inverted.
	OpNotNull

	// OpEqual compares a scalar, to_one key or element_collection value with
	// the argument, converted to the attribute's value type. On collections
	// it keeps rows with at least one equal element.
	OpEqual
)

var operatorNames = map[Operator]string{
	OpNotEmpty: "not_empty",
	OpEmpty:    "empty",
	OpNull:     "null",
	OpNotNull:  "not_null",
	OpEqual:    "equal",
}

func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return fmt.Sprintf("operator(%d)", int(o))
}

// ParseOperator returns the operator with the given declared name.
// Names are matched exactly.
func ParseOperator(name string) (Operator, error) {
	for op, n := range operatorNames {
		if n == name {
			return op, nil
		}
	}
	return 0, &DescriptorError{Message: fmt.Sprintf("unknown operator %q", name)}
}

// Descriptor is one declared filter: the attribute path it tests, the
// operator, the parameters supplying its argument and an optional constant
// that overrides parameter lookup. Descriptors are values; the engine never
// modifies them.
type Descriptor struct {
	Path     string
	Operator Operator
	Params   []string
	ConstVal *string
}

// Const returns a copy of d with its constant set to v.
func (d Descriptor) Const(v string) Descriptor {
	d.ConstVal = &v
	return d
}

func (d Descriptor) String() string {
	var b strings.Builder
	b.WriteString(d.Path)
	b.WriteByte(' ')
	b.WriteString(d.Operator.String())
	if d.ConstVal != nil {
		fmt.Fprintf(&b, " const=%q", *d.ConstVal)
	} else if len(d.Params) > 0 {
		b.WriteString(" param=")
		b.WriteString(strings.Join(d.Params, ","))
	}
	return b.String()
}

// DescriptorFromSpec converts a declared filter into a Descriptor.
func DescriptorFromSpec(fs ir.FilterSpec) (Descriptor, error) {
	op, err := ParseOperator(fs.Operator)
	if err != nil {
		return Descriptor{}, &DescriptorError{Path: fs.Path, Message: fmt.Sprintf("unknown operator %q", fs.Operator)}
	}

	d := Descriptor{Path: fs.Path, Operator: op}
	if len(fs.Params) > 0 {
		d.Params = append([]string(nil), fs.Params...)
	}
	if fs.Const != nil {
		v := *fs.Const
		d.ConstVal = &v
	}
	return d, nil
}

// DescriptorsFromEndpoint converts every filter of an endpoint, in
// declaration order.
func DescriptorsFromEndpoint(ep ir.EndpointSpec) ([]Descriptor, error) {
	out := make([]Descriptor, 0, len(ep.Filters))
	for i, fs := range ep.Filters {
		d, err := DescriptorFromSpec(fs)
		if err != nil {
			return nil, &FilterError{Index: i, Path: fs.Path, Err: err}
		}
		out = append(out, d)
	}
	return out, nil
}
