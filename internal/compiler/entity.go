package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/sieve/internal/ir"
)

// attributeFields lists the fields accepted in the struct form of an attribute.
var attributeFields = map[string]bool{
	"kind":         true,
	"type":         true,
	"target":       true,
	"column":       true,
	"mapped_by":    true,
	"table":        true,
	"join_column":  true,
	"value_column": true,
}

// CompileEntity parses a CUE value into an EntitySchema.
//
// The CUE value should be the entity struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`entity: Customer: { attributes: { name: string } }`)
//	spec, err := CompileEntity(v.LookupPath(cue.ParsePath("entity.Customer")))
//
// An attribute is either a bare type (string, int or bool), which declares a
// scalar, or a struct carrying kind and mapping overrides:
//
//	orders:       {kind: "to_many", target: "Order"}
//	customer:     {kind: "to_one", target: "Customer", column: "buyer_id"}
//	phoneNumbers: {kind: "element_collection", type: string}
//
// Attributes keep their declaration order.
func CompileEntity(v cue.Value) (*ir.EntitySchema, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.EntitySchema{Name: labelOf(v)}

	var err error
	if spec.Table, err = optionalString(v, "table", "entity"); err != nil {
		return nil, err
	}
	if spec.Key, err = optionalString(v, "key", "entity"); err != nil {
		return nil, err
	}

	attrsVal := v.LookupPath(cue.ParsePath("attributes"))
	if !attrsVal.Exists() {
		return nil, &CompileError{
			Field:   "attributes",
			Message: "attributes are required",
			Pos:     v.Pos(),
		}
	}

	iter, err := attrsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		attr, err := parseAttribute(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		spec.Attributes = append(spec.Attributes, attr)
	}

	if len(spec.Attributes) == 0 {
		return nil, &CompileError{
			Field:   "attributes",
			Message: "at least one attribute is required",
			Pos:     attrsVal.Pos(),
		}
	}

	return spec, nil
}

// parseAttribute handles both the bare-type and the struct form.
func parseAttribute(name string, v cue.Value) (ir.AttributeSchema, error) {
	attr := ir.AttributeSchema{Name: name}
	where := "attributes." + name

	if v.IncompleteKind() != cue.StructKind {
		typ, err := extractTypeName(v)
		if err != nil {
			return attr, err
		}
		attr.Kind = ir.KindScalar
		attr.Type = typ
		return attr, nil
	}

	fields, err := v.Fields()
	if err != nil {
		return attr, formatCUEError(err)
	}
	for fields.Next() {
		if !attributeFields[fields.Label()] {
			return attr, &CompileError{
				Field:   where + "." + fields.Label(),
				Message: "unknown attribute field",
				Pos:     fields.Value().Pos(),
			}
		}
	}

	kind, err := optionalString(v, "kind", where)
	if err != nil {
		return attr, err
	}
	if kind == "" {
		kind = string(ir.KindScalar)
	}
	attr.Kind = ir.AttributeKind(kind)

	if typeVal := v.LookupPath(cue.ParsePath("type")); typeVal.Exists() {
		if attr.Type, err = typeOf(typeVal, where); err != nil {
			return attr, err
		}
	}

	mapping := []struct {
		field string
		dst   *string
	}{
		{"target", &attr.Target},
		{"column", &attr.Column},
		{"mapped_by", &attr.MappedBy},
		{"table", &attr.Table},
		{"join_column", &attr.JoinColumn},
		{"value_column", &attr.ValueColumn},
	}
	for _, m := range mapping {
		if *m.dst, err = optionalString(v, m.field, where); err != nil {
			return attr, err
		}
	}

	return attr, nil
}

// typeOf accepts either a type name ("int") or a CUE type (int).
func typeOf(v cue.Value, where string) (string, error) {
	if !v.IsConcrete() {
		return extractTypeName(v)
	}
	s, err := v.String()
	if err != nil {
		return "", &CompileError{
			Field:   where + ".type",
			Message: "must be string, int or bool",
			Pos:     v.Pos(),
		}
	}
	switch s {
	case ir.TypeString, ir.TypeInt, ir.TypeBool:
		return s, nil
	case "float", "number":
		return "", &CompileError{
			Field:   where + ".type",
			Message: "float types are forbidden - use int instead",
			Pos:     v.Pos(),
		}
	default:
		return "", &CompileError{
			Field:   where + ".type",
			Message: fmt.Sprintf("unsupported type %q", s),
			Pos:     v.Pos(),
		}
	}
}

// extractTypeName converts a CUE type to an IR type string.
func extractTypeName(v cue.Value) (string, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return ir.TypeString, nil
	case cue.IntKind:
		return ir.TypeInt, nil
	case cue.BoolKind:
		return ir.TypeBool, nil
	case cue.FloatKind, cue.NumberKind:
		return "", &CompileError{
			Field:   "type",
			Message: "float types are forbidden - use int instead",
			Pos:     v.Pos(),
		}
	default:
		return "", &CompileError{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}
