// Package queryir provides the abstract query intermediate representation
// (IR) that filter specifications are compiled into.
//
// ARCHITECTURE:
//
// The IR sits between the specification engine and the query executor:
//
//	[filter descriptors] → [Predicate IR] → [SQL backend]
//
// The engine only ever produces predicates over the outer (root) row. The
// executor wraps them in a Select over the root entity and compiles the
// result for its backend.
//
// NODES:
//
//   - Select(from, alias, filter, bindings) - table access with filtering
//   - Join(left, right, on) - inner joins only
//   - Predicates: True, Equals, ColumnEquals, IsNull, And, Not, Exists
//
// Exists carries a complete sub-query. A sub-query is correlated when one of
// its predicates refers to an alias bound outside it, which is how
// collection-valued attributes are tested without joining them into the
// outer row set (and without duplicating outer rows).
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed interfaces using the marker method pattern.
// Only types in this package can implement them, so backends can switch
// exhaustively:
//
//	switch p := pred.(type) {
//	case Exists:
//	    // correlated sub-query
//	case Not:
//	    // negation
//	default:
//	    // unsupported
//	}
//
// Both value and pointer forms of every node are accepted by Validate and by
// the SQL backend.
//
// VALUES:
//
// All literal values use ir.IRValue types (no floats) so that predicates
// have a canonical encoding and a stable Fingerprint.
package queryir
