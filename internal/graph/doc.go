// Package graph holds the entity relationship graph and resolves dotted
// attribute paths against it.
//
// A Graph is built once from ir.EntitySchema declarations and is read-only
// afterwards, so a single *Graph can be shared by every request without
// locking.
//
// Path resolution walks the graph segment by segment:
//
//	Customer + "orders"              → [orders(to_many → Order)]
//	Order    + "customer.phoneNumbers" → [customer(to_one → Customer), phoneNumbers(element_collection)]
//
// Every non-terminal segment must be an association (to_one or to_many).
// Scalars and element collections may only appear as the terminal segment.
package graph
