// Package store provides the SQLite-backed query executor for filter
// predicates.
//
// The store maps an entity graph to tables:
//   - one table per entity, key column first, then scalar and foreign key
//     columns
//   - one table per element collection, holding (join column, value) rows
//
// Migrate creates the tables and pins the graph fingerprint in the
// sieve_meta table. Opening the same database with a different graph fails
// with ErrSchemaMismatch instead of silently querying stale tables.
//
// # Deterministic Query Results
//
// Find wraps a predicate in a Select over the root entity, aliased
// graph.RootAlias, and compiles it with querysql. Every query is ordered by
// the entity key with COLLATE BINARY, so identical data always yields
// identical result order.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
