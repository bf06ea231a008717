package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/sieve/internal/engine"
	"github.com/roach88/sieve/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100)
	ErrUnsupportedIRType = "E100" // unsupported IR type for validation

	// EntitySchema errors (E101-E109)
	ErrEntityNameEmpty    = "E101" // entity name is required
	ErrEntityNoAttributes = "E102" // at least one attribute required
	ErrDuplicateName      = "E103" // duplicate attribute name
	ErrInvalidFieldType   = "E104" // invalid type string
	ErrInvalidKind        = "E105" // unknown attribute kind
	ErrFloatTypeForbidden = "E106" // float types not allowed
	ErrMissingTarget      = "E107" // association without target
	ErrMappingMismatch    = "E108" // mapping field does not apply to kind

	// EndpointSpec errors (E110-E119)
	ErrEndpointName      = "E110" // endpoint name must start with "/"
	ErrEndpointNoRoot    = "E111" // root entity is required
	ErrFilterPathEmpty   = "E112" // filter path is required
	ErrUnknownOperator   = "E113" // unknown filter operator
	ErrFilterNoArgument  = "E114" // neither params nor const declared
	ErrFilterParamEmpty  = "E115" // empty parameter name
	ErrDuplicateEndpoint = "E116" // duplicate endpoint name
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates compiled IR against schema rules.
// Returns all errors found (does not fail-fast).
// Supports EntitySchema and EndpointSpec.
func Validate(v any) []ValidationError {
	switch spec := v.(type) {
	case *ir.EntitySchema:
		return validateEntity(spec)
	case ir.EntitySchema:
		return validateEntity(&spec)
	case *ir.EndpointSpec:
		return validateEndpoint(spec)
	case ir.EndpointSpec:
		return validateEndpoint(&spec)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported IR type: %T", v),
			Code:    ErrUnsupportedIRType,
		}}
	}
}

// ValidateEndpoints checks each endpoint and reports duplicate names.
func ValidateEndpoints(eps []ir.EndpointSpec) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for i := range eps {
		if seen[eps[i].Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("endpoints[%d].name", i),
				Message: fmt.Sprintf("duplicate endpoint %q", eps[i].Name),
				Code:    ErrDuplicateEndpoint,
			})
		}
		seen[eps[i].Name] = true
		errs = append(errs, validateEndpoint(&eps[i])...)
	}
	return errs
}

func validateEntity(spec *ir.EntitySchema) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(spec.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "entity name is required",
			Code:    ErrEntityNameEmpty,
		})
	}

	if len(spec.Attributes) == 0 {
		errs = append(errs, ValidationError{
			Field:   "attributes",
			Message: "at least one attribute is required",
			Code:    ErrEntityNoAttributes,
		})
	}

	names := make(map[string]bool)
	for i, attr := range spec.Attributes {
		field := fmt.Sprintf("attributes[%d]", i)

		if names[attr.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate attribute name: %q", attr.Name),
				Code:    ErrDuplicateName,
			})
		}
		names[attr.Name] = true

		if !ir.ValidAttributeKinds[attr.Kind] {
			errs = append(errs, ValidationError{
				Field:   field + ".kind",
				Message: fmt.Sprintf("invalid kind %q for attribute %q", attr.Kind, attr.Name),
				Code:    ErrInvalidKind,
			})
			continue
		}

		errs = append(errs, validateAttribute(attr, field)...)
	}

	return errs
}

func validateAttribute(attr ir.AttributeSchema, field string) []ValidationError {
	var errs []ValidationError

	mismatch := func(name, value string) {
		if value == "" {
			return
		}
		errs = append(errs, ValidationError{
			Field:   field + "." + name,
			Message: fmt.Sprintf("%s does not apply to %s attribute %q", name, attr.Kind, attr.Name),
			Code:    ErrMappingMismatch,
		})
	}

	switch attr.Kind {
	case ir.KindScalar, ir.KindElementCollection:
		errs = append(errs, validateFieldType(attr.Type, field+".type", attr.Name)...)
		mismatch("target", attr.Target)
		mismatch("mapped_by", attr.MappedBy)
		if attr.Kind == ir.KindScalar {
			mismatch("table", attr.Table)
			mismatch("join_column", attr.JoinColumn)
			mismatch("value_column", attr.ValueColumn)
		} else {
			mismatch("column", attr.Column)
		}
	case ir.KindToOne, ir.KindToMany:
		if strings.TrimSpace(attr.Target) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".target",
				Message: fmt.Sprintf("%s attribute %q requires a target entity", attr.Kind, attr.Name),
				Code:    ErrMissingTarget,
			})
		}
		mismatch("type", attr.Type)
		mismatch("table", attr.Table)
		mismatch("join_column", attr.JoinColumn)
		mismatch("value_column", attr.ValueColumn)
		if attr.Kind == ir.KindToOne {
			mismatch("mapped_by", attr.MappedBy)
		} else {
			mismatch("column", attr.Column)
		}
	}

	return errs
}

// validateFieldType validates a type string, returning errors for invalid types and floats.
// An empty type defaults to string.
func validateFieldType(fieldType, fieldPath, fieldName string) []ValidationError {
	if fieldType == "" {
		return nil
	}
	if isFloatType(fieldType) {
		return []ValidationError{{
			Field:   fieldPath,
			Message: fmt.Sprintf("float type forbidden for field %q, use int instead", fieldName),
			Code:    ErrFloatTypeForbidden,
		}}
	}
	if !ir.ValidValueTypes[fieldType] {
		return []ValidationError{{
			Field:   fieldPath,
			Message: fmt.Sprintf("invalid type %q for field %q", fieldType, fieldName),
			Code:    ErrInvalidFieldType,
		}}
	}
	return nil
}

func isFloatType(t string) bool {
	switch strings.ToLower(t) {
	case "float", "float32", "float64", "number":
		return true
	}
	return false
}

func validateEndpoint(spec *ir.EndpointSpec) []ValidationError {
	var errs []ValidationError

	if !strings.HasPrefix(spec.Name, "/") {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("endpoint %q must start with \"/\"", spec.Name),
			Code:    ErrEndpointName,
		})
	}

	if strings.TrimSpace(spec.Root) == "" {
		errs = append(errs, ValidationError{
			Field:   "root",
			Message: "root entity is required",
			Code:    ErrEndpointNoRoot,
		})
	}

	for i, f := range spec.Filters {
		field := fmt.Sprintf("filters[%d]", i)

		if strings.TrimSpace(f.Path) == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".path",
				Message: "filter path is required",
				Code:    ErrFilterPathEmpty,
			})
		}

		if _, err := engine.ParseOperator(f.Operator); err != nil {
			errs = append(errs, ValidationError{
				Field:   field + ".op",
				Message: fmt.Sprintf("unknown operator %q", f.Operator),
				Code:    ErrUnknownOperator,
			})
		}

		if len(f.Params) == 0 && f.Const == nil {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "filter declares neither params nor const",
				Code:    ErrFilterNoArgument,
			})
		}

		for j, p := range f.Params {
			if strings.TrimSpace(p) == "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.params[%d]", field, j),
					Message: "parameter name must not be empty",
					Code:    ErrFilterParamEmpty,
				})
			}
		}
	}

	return errs
}
