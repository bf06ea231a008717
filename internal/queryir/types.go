package queryir

import "github.com/roach88/sieve/internal/ir"

// Query represents an abstract query in the IR.
//
// This is a sealed interface - only types in this package implement it.
//
// Query types:
//   - Select: table access with filtering and column bindings
//   - Join: two queries combined with an inner join
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Predicate represents a filter condition in the IR.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - True: always holds
//   - Equals: column = literal
//   - ColumnEquals: column = column (join and correlation conditions)
//   - IsNull: column IS NULL
//   - And: all predicates hold
//   - Not: the predicate does not hold
//   - Exists: the sub-query yields at least one row
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// ColumnRef names a column of an aliased source.
// An empty Alias refers to the column unqualified.
type ColumnRef struct {
	Alias  string
	Column string
}

// Col returns a reference to alias.column.
func Col(alias, column string) ColumnRef {
	return ColumnRef{Alias: alias, Column: column}
}

func (c ColumnRef) String() string {
	if c.Alias == "" {
		return c.Column
	}
	return c.Alias + "." + c.Column
}

// Select represents table access with filtering.
//
// Semantics:
//
//	SELECT <bindings> FROM <from> AS <alias> WHERE <filter>
//
// Example:
//
//	Select{
//	  From:   "customers",
//	  Alias:  "root",
//	  Filter: Exists{Query: Select{
//	    From:   "orders",
//	    Alias:  "f0_0",
//	    Filter: ColumnEquals{Left: Col("f0_0", "customer_id"), Right: Col("root", "id")},
//	  }},
//	  Bindings: map[string]string{"first_name": "firstName"},
//	}
//
// Translates to SQL:
//
//	SELECT root.first_name AS firstName FROM customers AS root
//	WHERE EXISTS (SELECT 1 FROM orders AS f0_0 WHERE f0_0.customer_id = root.id)
//	ORDER BY root.id COLLATE BINARY ASC
//
// Bindings map source columns to output names. They are ignored inside
// Exists, where only row existence matters.
type Select struct {
	From     string            // Table name
	Alias    string            // Row alias (empty = table name)
	Key      string            // Ordering key column (empty = "id")
	Filter   Predicate         // WHERE conditions (nil = no filter)
	Bindings map[string]string // source column → output name
}

func (Select) queryNode() {}

// Join represents an inner join of two queries.
//
// Semantics:
//
//	<left> INNER JOIN <right> ON <on>
//
// Filters of both sides apply to the joined rows. Joins nest to the left:
// a path of three tables is Join{Left: Join{Left: a, Right: b}, Right: c}.
type Join struct {
	Left  Query     // Left query (Select or Join)
	Right Query     // Right query (Select)
	On    Predicate // Join condition (required)
}

func (Join) queryNode() {}

// True is the predicate that holds for every row. It is what an empty
// specification compiles to.
type True struct{}

func (True) predicateNode() {}

// Equals represents a column-equals-literal predicate.
//
// Semantics:
//
//	<field> = <value>
//
// Value must not be ir.IRNull; use IsNull instead.
type Equals struct {
	Field ColumnRef
	Value ir.IRValue
}

func (Equals) predicateNode() {}

// ColumnEquals represents a column-equals-column predicate.
//
// Semantics:
//
//	<left> = <right>
//
// Join conditions and correlations to an outer row are expressed with it.
type ColumnEquals struct {
	Left  ColumnRef
	Right ColumnRef
}

func (ColumnEquals) predicateNode() {}

// IsNull represents a column-is-null predicate.
type IsNull struct {
	Field ColumnRef
}

func (IsNull) predicateNode() {}

// And represents a conjunction of predicates.
//
// Semantics:
//
//	<predicate1> AND <predicate2> AND ... AND <predicateN>
//
// An empty Predicates slice is always true (vacuous truth).
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Not negates a predicate. Not{Exists{...}} is NOT EXISTS.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// Exists holds when Query yields at least one row.
//
// Semantics:
//
//	EXISTS (SELECT 1 FROM ... WHERE ...)
type Exists struct {
	Query Query
}

func (Exists) predicateNode() {}
