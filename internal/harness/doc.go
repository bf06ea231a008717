// Package harness runs request scenarios against declared endpoints.
//
// A scenario names a declarations directory, an optional seed dataset and a
// list of requests. Run compiles the declarations, seeds a fresh in-memory
// store and evaluates each request the way the HTTP layer would, recording
// a trace of the SQL that ran and the keys of the rows it returned.
//
// EXPECTATIONS
//
// A request may expect the values of one column, in row order, or an error
// kind (invalid_path, argument_conversion, invalid_filter,
// unsupported_path_kind). A request without expectations only contributes
// to the trace.
//
// GOLDEN TRACES
//
// RunWithGolden compares the canonical JSON trace against
// golden/<scenario>.golden next to the scenario file, the file `sieve test`
// checks. Regenerate with:
//
//	go test ./internal/harness -update
package harness
