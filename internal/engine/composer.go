package engine

import "github.com/roach88/sieve/internal/queryir"

// Outcome is the result of one descriptor: a predicate, or SKIP when its
// parameter was absent.
type Outcome struct {
	Predicate queryir.Predicate
	Skipped   bool
}

// Skip is the outcome of a descriptor that applies no filtering.
func Skip() Outcome {
	return Outcome{Skipped: true}
}

// Built wraps a predicate built for a descriptor.
func Built(p queryir.Predicate) Outcome {
	return Outcome{Predicate: p}
}

// Combinator combines the predicates of all non-skipped descriptors, in
// declaration order, into one. It is only called with at least one
// predicate.
type Combinator func(preds []queryir.Predicate) queryir.Predicate

// Conjunction is the default Combinator: a row must pass every predicate.
func Conjunction(preds []queryir.Predicate) queryir.Predicate {
	return queryir.AllOf(preds...)
}

// Compose combines outcomes with Conjunction.
func Compose(outcomes []Outcome) queryir.Predicate {
	return composeWith(Conjunction, outcomes)
}

// composeWith drops skipped outcomes and combines the rest. Nothing left
// yields queryir.True, a single predicate is returned as is.
func composeWith(combine Combinator, outcomes []Outcome) queryir.Predicate {
	preds := make([]queryir.Predicate, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Skipped {
			continue
		}
		preds = append(preds, o.Predicate)
	}
	switch len(preds) {
	case 0:
		return queryir.True{}
	case 1:
		return preds[0]
	}
	return combine(preds)
}
