// Package engine turns declared filter descriptors and the parameters of one
// request into a single predicate over the request's root entity.
//
// ARCHITECTURE:
//
// Evaluation is a linear per-request pipeline:
//
//	[descriptors] → path resolution → argument resolution → predicate build → compose
//
// 1. Each descriptor's path is resolved against the entity graph
// 2. Its argument is taken from the constant or from the first parameter;
// an absent parameter turns the descriptor into SKIP
// 3. The operator builds one predicate from the bound path and argument
// 4. The composer conjoins all non-SKIP predicates in declaration order;
// nothing left means True (no filtering)
//
// Any failure aborts the evaluation; no partial predicate is returned.
//
// COLLECTIONS:
//
// to_many associations and element collections have no nullable column to
// test. Emptiness is always expressed as a correlated EXISTS / NOT EXISTS
// sub-query that walks the path from the outer row (alias graph.RootAlias).
//
// CONCURRENCY:
//
// The engine holds only the immutable graph and its options. Evaluate does
// no I/O and shares nothing between calls, so one Engine serves concurrent
// requests without locking.
package engine
