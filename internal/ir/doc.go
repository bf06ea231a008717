// Package ir provides the declaration and value types shared by every other
// sieve package.
//
// This package contains type definitions and canonical encoding only. All
// other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - numeric values are int64
//   - All JSON tags use snake_case
//   - Fingerprints are SHA-256 over RFC 8785 canonical JSON with a domain
//     prefix, so identical declarations hash identically across processes
package ir
