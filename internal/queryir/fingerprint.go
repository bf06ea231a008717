package queryir

import (
	"fmt"

	"github.com/roach88/sieve/internal/ir"
)

// Fingerprint returns a stable identifier for a predicate tree: the
// domain-separated SHA-256 of its canonical JSON encoding. Structurally
// equal trees, in value or pointer form, share a fingerprint.
func Fingerprint(p Predicate) (string, error) {
	data, err := MarshalPredicate(p)
	if err != nil {
		return "", err
	}
	return ir.Hash(ir.DomainPredicate, data), nil
}

// MarshalPredicate encodes a predicate tree as canonical JSON.
func MarshalPredicate(p Predicate) ([]byte, error) {
	v, err := encodePredicate(p)
	if err != nil {
		return nil, err
	}
	return ir.MarshalCanonical(v)
}

func encodePredicate(p Predicate) (any, error) {
	switch pred := p.(type) {
	case nil:
		return nil, fmt.Errorf("nil predicate")
	case True, *True:
		return map[string]any{"true": map[string]any{}}, nil
	case Equals:
		if pred.Value == nil {
			return nil, fmt.Errorf("equals %s: missing value", pred.Field)
		}
		return map[string]any{"eq": map[string]any{"field": pred.Field.String(), "value": pred.Value}}, nil
	case *Equals:
		return encodePredicate(*pred)
	case ColumnEquals:
		return map[string]any{"col_eq": []any{pred.Left.String(), pred.Right.String()}}, nil
	case *ColumnEquals:
		return encodePredicate(*pred)
	case IsNull:
		return map[string]any{"is_null": pred.Field.String()}, nil
	case *IsNull:
		return encodePredicate(*pred)
	case And:
		items := make([]any, 0, len(pred.Predicates))
		for _, sub := range pred.Predicates {
			enc, err := encodePredicate(sub)
			if err != nil {
				return nil, err
			}
			items = append(items, enc)
		}
		return map[string]any{"and": items}, nil
	case *And:
		return encodePredicate(*pred)
	case Not:
		inner, err := encodePredicate(pred.Predicate)
		if err != nil {
			return nil, err
		}
		return map[string]any{"not": inner}, nil
	case *Not:
		return encodePredicate(*pred)
	case Exists:
		q, err := encodeQuery(pred.Query)
		if err != nil {
			return nil, err
		}
		return map[string]any{"exists": q}, nil
	case *Exists:
		return encodePredicate(*pred)
	default:
		return nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func encodeQuery(q Query) (any, error) {
	switch query := q.(type) {
	case nil:
		return nil, fmt.Errorf("nil query")
	case Select:
		m := map[string]any{"from": query.From, "alias": aliasOf(query)}
		if query.Key != "" {
			m["key"] = query.Key
		}
		if query.Filter != nil {
			f, err := encodePredicate(query.Filter)
			if err != nil {
				return nil, err
			}
			m["filter"] = f
		}
		if len(query.Bindings) > 0 {
			b := make(map[string]any, len(query.Bindings))
			for col, name := range query.Bindings {
				b[col] = name
			}
			m["bindings"] = b
		}
		return map[string]any{"select": m}, nil
	case *Select:
		return encodeQuery(*query)
	case Join:
		left, err := encodeQuery(query.Left)
		if err != nil {
			return nil, err
		}
		right, err := encodeQuery(query.Right)
		if err != nil {
			return nil, err
		}
		if query.On == nil {
			return nil, fmt.Errorf("join without ON condition")
		}
		on, err := encodePredicate(query.On)
		if err != nil {
			return nil, err
		}
		return map[string]any{"join": map[string]any{"left": left, "right": right, "on": on}}, nil
	case *Join:
		return encodeQuery(*query)
	default:
		return nil, fmt.Errorf("unsupported query type: %T", q)
	}
}
