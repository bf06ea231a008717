package engine

import (
	"fmt"

	"github.com/roach88/sieve/internal/graph"
	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/queryir"
)

// operatorRule is the behaviour of one operator variant: which terminal
// kinds it accepts, how it converts its argument, and how it builds its
// predicate.
type operatorRule struct {
	kinds   []ir.AttributeKind
	convert func(arg rawArgument, terminal *graph.Attribute) (ir.IRValue, error)
	build   func(b *builder, arg ir.IRValue) queryir.Predicate
}

var operatorRules = map[Operator]operatorRule{
	OpNotEmpty: {
		kinds:   []ir.AttributeKind{ir.KindToMany, ir.KindElementCollection},
		convert: boolArgument,
		build: func(b *builder, arg ir.IRValue) queryir.Predicate {
			return b.exists(bool(arg.(ir.IRBool)))
		},
	},
	OpEmpty: {
		kinds:   []ir.AttributeKind{ir.KindToMany, ir.KindElementCollection},
		convert: boolArgument,
		build: func(b *builder, arg ir.IRValue) queryir.Predicate {
			return b.exists(!bool(arg.(ir.IRBool)))
		},
	},
	OpNull: {
		kinds:   []ir.AttributeKind{ir.KindScalar, ir.KindToOne},
		convert: boolArgument,
		build: func(b *builder, arg ir.IRValue) queryir.Predicate {
			return b.isNull(bool(arg.(ir.IRBool)))
		},
	},
	OpNotNull: {
		kinds:   []ir.AttributeKind{ir.KindScalar, ir.KindToOne},
		convert: boolArgument,
		build: func(b *builder, arg ir.IRValue) queryir.Predicate {
			return b.isNull(!bool(arg.(ir.IRBool)))
		},
	},
	OpEqual: {
		kinds: []ir.AttributeKind{ir.KindScalar, ir.KindToOne, ir.KindElementCollection},
		convert: func(arg rawArgument, terminal *graph.Attribute) (ir.IRValue, error) {
			return convertTyped(arg, terminal.Type)
		},
		build: func(b *builder, arg ir.IRValue) queryir.Predicate {
			return b.equal(arg)
		},
	},
}

func boolArgument(arg rawArgument, _ *graph.Attribute) (ir.IRValue, error) {
	return convertBool(arg)
}

// ruleFor returns the rule of op after checking it accepts the terminal
// kind of path.
func ruleFor(op Operator, path *graph.BoundPath) (operatorRule, error) {
	rule, ok := operatorRules[op]
	if !ok {
		return operatorRule{}, &DescriptorError{Path: path.Path, Message: fmt.Sprintf("unknown operator %s", op)}
	}
	kind := path.Kind()
	for _, k := range rule.kinds {
		if k == kind {
			return rule, nil
		}
	}
	return operatorRule{}, &UnsupportedPathKindError{Operator: op, Path: path.String(), Kind: kind}
}

// builder constructs the predicate of one descriptor. Sub-query aliases are
// f<index>_<step>, so predicates of different descriptors never collide and
// the same inputs always give the same tree.
type builder struct {
	index int
	path  *graph.BoundPath
}

func (b *builder) alias(step int) string {
	return fmt.Sprintf("f%d_%d", b.index, step)
}

// exists tests for rows reachable through the whole path; want false
// negates the test.
func (b *builder) exists(want bool) queryir.Predicate {
	pred := queryir.ExistsIn(b.walk(len(b.path.Steps), nil))
	if want {
		return pred
	}
	return queryir.Negate(pred)
}

// isNull tests the terminal column for NULL; want false negates the test.
func (b *builder) isNull(want bool) queryir.Predicate {
	return b.onTerminalColumn(func(col queryir.ColumnRef) queryir.Predicate {
		p := queryir.Predicate(queryir.IsNull{Field: col})
		if want {
			return p
		}
		return queryir.Negate(p)
	})
}

// equal compares the terminal attribute with v. Element collections are
// walked to their table and compared on the value column.
func (b *builder) equal(v ir.IRValue) queryir.Predicate {
	terminal := b.path.Terminal()
	if terminal.Kind == ir.KindElementCollection {
		last := len(b.path.Steps) - 1
		leaf := queryir.Equals{Field: queryir.Col(b.alias(last), terminal.ValueColumn), Value: v}
		return queryir.ExistsIn(b.walk(len(b.path.Steps), leaf))
	}
	return b.onTerminalColumn(func(col queryir.ColumnRef) queryir.Predicate {
		return queryir.Equals{Field: col, Value: v}
	})
}

// onTerminalColumn applies leaf to the column a scalar or to_one terminal
// maps to. A single-segment path tests the outer row directly; longer paths
// walk the association steps in a correlated sub-query and test the column
// of the last row reached.
func (b *builder) onTerminalColumn(leaf func(queryir.ColumnRef) queryir.Predicate) queryir.Predicate {
	steps := len(b.path.Steps)
	terminal := b.path.Terminal()
	if steps == 1 {
		return leaf(queryir.Col(graph.RootAlias, terminal.Column))
	}
	col := queryir.Col(b.alias(steps-2), terminal.Column)
	return queryir.ExistsIn(b.walk(steps-1, leaf(col)))
}

// walk builds the sub-query over the first n steps of the path. Step 0 is
// correlated to the outer row; each further step is inner-joined to the one
// before it. leaf, when set, filters the rows of step n-1.
func (b *builder) walk(n int, leaf queryir.Predicate) queryir.Query {
	var q queryir.Query
	outer := graph.RootAlias

	for i := 0; i < n; i++ {
		step := b.path.Steps[i]
		sel := queryir.Select{Alias: b.alias(i)}
		var link queryir.Predicate

		switch step.Kind {
		case ir.KindToOne:
			sel.From = step.Target.Table
			sel.Key = step.Target.Key
			link = queryir.ColumnEquals{Left: queryir.Col(sel.Alias, step.Target.Key), Right: queryir.Col(outer, step.Column)}
		case ir.KindToMany:
			sel.From = step.Target.Table
			sel.Key = step.Target.Key
			link = queryir.ColumnEquals{Left: queryir.Col(sel.Alias, step.MappedBy), Right: queryir.Col(outer, b.path.Owner(i).Key)}
		case ir.KindElementCollection:
			sel.From = step.Table
			sel.Key = step.JoinColumn
			link = queryir.ColumnEquals{Left: queryir.Col(sel.Alias, step.JoinColumn), Right: queryir.Col(outer, b.path.Owner(i).Key)}
		}

		var filters []queryir.Predicate
		if i == 0 {
			filters = append(filters, link)
		}
		if i == n-1 && leaf != nil {
			filters = append(filters, leaf)
		}
		if len(filters) > 0 {
			sel.Filter = queryir.AllOf(filters...)
		}

		if i == 0 {
			q = sel
		} else {
			q = queryir.Join{Left: q, Right: sel, On: link}
		}
		outer = sel.Alias
	}
	return q
}
