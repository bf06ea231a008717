package ir

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"
)

// IRValue is a sealed interface representing constrained value types.
// Only the scalar kinds IRNull, IRString, IRInt and IRBool implement it.
// There is no float variant: literals compared in SQL must be exact.
type IRValue interface {
	irValue()
}

// IRNull represents an explicit null.
type IRNull struct{}

func (IRNull) irValue() {}

// IRString represents a string value.
type IRString string

func (IRString) irValue() {}

// IRInt represents an integer value. Always int64.
type IRInt int64

func (IRInt) irValue() {}

// IRBool represents a boolean value.
type IRBool bool

func (IRBool) irValue() {}

// sortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings orders by UTF-8 bytes, which differs for astral code points.
func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < len(a16) && i < len(b16); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	return len(a16) - len(b16)
}

// ParseValue converts a raw request string into a value of the named type.
// Booleans accept exactly "true" and "false".
func ParseValue(typeName, raw string) (IRValue, error) {
	switch typeName {
	case TypeString, "":
		return IRString(raw), nil
	case TypeInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an int", raw)
		}
		return IRInt(n), nil
	case TypeBool:
		switch raw {
		case "true":
			return IRBool(true), nil
		case "false":
			return IRBool(false), nil
		}
		return nil, fmt.Errorf("%q is not a boolean (expected \"true\" or \"false\")", raw)
	default:
		return nil, fmt.Errorf("unsupported value type %q", typeName)
	}
}

// CoerceValue converts a decoded document value (YAML or JSON) into a value
// of the named type. nil maps to IRNull.
func CoerceValue(typeName string, v any) (IRValue, error) {
	if v == nil {
		return IRNull{}, nil
	}
	switch typeName {
	case TypeString, "":
		if s, ok := v.(string); ok {
			return IRString(s), nil
		}
	case TypeInt:
		switch n := v.(type) {
		case int:
			return IRInt(n), nil
		case int64:
			return IRInt(n), nil
		case uint64:
			if n > math.MaxInt64 {
				return nil, fmt.Errorf("value %d overflows int64", n)
			}
			return IRInt(int64(n)), nil
		}
	case TypeBool:
		if b, ok := v.(bool); ok {
			return IRBool(b), nil
		}
	default:
		return nil, fmt.Errorf("unsupported value type %q", typeName)
	}
	return nil, fmt.Errorf("value %v (%T) is not a %s", v, v, typeName)
}

// Native returns the database/sql friendly form of a scalar value.
func Native(v IRValue) (any, error) {
	switch val := v.(type) {
	case IRString:
		return string(val), nil
	case IRInt:
		return int64(val), nil
	case IRBool:
		return bool(val), nil
	case IRNull, nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("%T cannot be used as a scalar value", v)
	}
}
