// Package httpapi serves declared endpoints over HTTP.
//
// Each endpoint becomes a GET route. The query string is the parameter
// source for the engine, the resulting predicate is run through a Finder
// and the matching rows are returned as a JSON array.
//
// ERRORS
//
//	400  invalid_path, argument_conversion, invalid_filter
//	500  unsupported_path_kind, query_failed
//
// Every response carries X-Request-ID; successful responses also carry
// X-Filter-Fingerprint, the fingerprint of the evaluated predicate.
package httpapi
