package queryir

import (
	"fmt"

	"github.com/roach88/sieve/internal/ir"
)

// ValidationResult contains the structural analysis of a query.
type ValidationResult struct {
	// IsValid is true when no warnings were raised.
	IsValid bool

	// Warnings lists structural problems found in the query.
	Warnings []string
}

// Validate checks a query for structural problems that a backend would
// either reject or compile into something unintended:
//  1. nil query or predicate nodes
//  2. Select without a source table
//  3. top-level Select without bindings (SELECT *)
//  4. Equals against a null literal
//  5. Exists sub-queries that never refer to an outer alias
//
// An uncorrelated Exists is legal SQL but tests the whole table instead of
// the rows related to the outer row, so it is reported.
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	v.validateQuery(query, true)

	return ValidationResult{
		IsValid:  len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query, top bool) {
	if q == nil {
		v.addWarning("nil query")
		return
	}

	switch query := q.(type) {
	case Select:
		v.validateSelect(query, top)
	case *Select:
		v.validateSelect(*query, top)
	case Join:
		v.validateJoin(query, top)
	case *Join:
		v.validateJoin(*query, top)
	default:
		v.addWarning("unknown query type: %T", q)
	}
}

func (v *validator) validateSelect(sel Select, top bool) {
	if sel.From == "" {
		v.addWarning("select without source table")
	}
	if top && len(sel.Bindings) == 0 {
		v.addWarning("empty bindings (SELECT *) - explicit columns required")
	}
	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

func (v *validator) validateJoin(join Join, top bool) {
	v.validateQuery(join.Left, top)
	v.validateQuery(join.Right, false)

	if join.On == nil {
		v.addWarning("join without ON condition")
		return
	}
	v.validatePredicate(join.On)
}

func (v *validator) validatePredicate(p Predicate) {
	if p == nil {
		v.addWarning("nil predicate")
		return
	}

	switch pred := p.(type) {
	case True, *True, ColumnEquals, *ColumnEquals, IsNull, *IsNull:
		// always well-formed
	case Equals:
		v.validateEquals(pred)
	case *Equals:
		v.validateEquals(*pred)
	case And:
		v.validateAnd(pred)
	case *And:
		v.validateAnd(*pred)
	case Not:
		v.validatePredicate(pred.Predicate)
	case *Not:
		v.validatePredicate(pred.Predicate)
	case Exists:
		v.validateExists(pred)
	case *Exists:
		v.validateExists(*pred)
	default:
		v.addWarning("unknown predicate type: %T", p)
	}
}

func (v *validator) validateEquals(eq Equals) {
	if eq.Value == nil {
		v.addWarning("column '%s' compared to missing value", eq.Field)
		return
	}
	if _, isNull := eq.Value.(ir.IRNull); isNull {
		v.addWarning("column '%s' compared to NULL - use IsNull", eq.Field)
	}
}

func (v *validator) validateAnd(and And) {
	for _, sub := range and.Predicates {
		v.validatePredicate(sub)
	}
}

func (v *validator) validateExists(ex Exists) {
	if ex.Query == nil {
		v.addWarning("exists without sub-query")
		return
	}
	v.validateQuery(ex.Query, false)

	w := &refWalker{local: map[string]bool{}}
	w.query(ex.Query)
	for _, r := range w.refs {
		if r.Alias != "" && !w.local[r.Alias] {
			return
		}
	}
	v.addWarning("uncorrelated EXISTS over %s - sub-query never refers to the outer row", sourceName(ex.Query))
}

// refWalker gathers the aliases bound inside a sub-query and the column
// references its predicates make, nested sub-queries included.
type refWalker struct {
	local map[string]bool
	refs  []ColumnRef
}

func (w *refWalker) query(q Query) {
	switch query := q.(type) {
	case Select:
		w.local[aliasOf(query)] = true
		w.pred(query.Filter)
	case *Select:
		w.query(*query)
	case Join:
		w.query(query.Left)
		w.query(query.Right)
		w.pred(query.On)
	case *Join:
		w.query(*query)
	}
}

func (w *refWalker) pred(p Predicate) {
	switch pred := p.(type) {
	case Equals:
		w.refs = append(w.refs, pred.Field)
	case *Equals:
		w.refs = append(w.refs, pred.Field)
	case ColumnEquals:
		w.refs = append(w.refs, pred.Left, pred.Right)
	case *ColumnEquals:
		w.refs = append(w.refs, pred.Left, pred.Right)
	case IsNull:
		w.refs = append(w.refs, pred.Field)
	case *IsNull:
		w.refs = append(w.refs, pred.Field)
	case And:
		for _, sub := range pred.Predicates {
			w.pred(sub)
		}
	case *And:
		w.pred(*pred)
	case Not:
		w.pred(pred.Predicate)
	case *Not:
		w.pred(pred.Predicate)
	case Exists:
		w.query(pred.Query)
	case *Exists:
		w.query(pred.Query)
	}
}

func aliasOf(s Select) string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.From
}

// sourceName returns the leftmost table of q.
func sourceName(q Query) string {
	switch query := q.(type) {
	case Select:
		return query.From
	case *Select:
		return query.From
	case Join:
		return sourceName(query.Left)
	case *Join:
		return sourceName(query.Left)
	}
	return "?"
}
