// Package testutil provides deterministic fixtures shared by package tests:
// the Customer/Order entity declarations, a seed dataset, and fixed ID
// generators.
package testutil
