package queryir

// AllOf combines predicates into a conjunction in the given order.
// No predicates yield True; a single predicate is returned unchanged.
func AllOf(preds ...Predicate) Predicate {
	switch len(preds) {
	case 0:
		return True{}
	case 1:
		return preds[0]
	}
	out := make([]Predicate, len(preds))
	copy(out, preds)
	return And{Predicates: out}
}

// Negate returns the negation of p. A double negation is removed.
func Negate(p Predicate) Predicate {
	switch n := p.(type) {
	case Not:
		return n.Predicate
	case *Not:
		return n.Predicate
	}
	return Not{Predicate: p}
}

// ExistsIn returns a predicate that holds when q yields any row.
func ExistsIn(q Query) Predicate {
	return Exists{Query: q}
}

// IsTrue reports whether p is trivially true: True, nil or an empty And.
func IsTrue(p Predicate) bool {
	switch n := p.(type) {
	case nil:
		return true
	case True, *True:
		return true
	case And:
		return len(n.Predicates) == 0
	case *And:
		return len(n.Predicates) == 0
	}
	return false
}
