package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for fingerprints. The version suffix allows the encoding
// to change without colliding with older fingerprints.
const (
	DomainGraph     = "sieve/graph/v1"
	DomainPredicate = "sieve/predicate/v1"
)

// Hash computes SHA-256 with domain separation: SHA256(domain + 0x00 + data).
// The null byte prevents domain/data boundary ambiguity.
func Hash(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// GraphFingerprint hashes a set of entity declarations. Declaration order of
// entities and attributes is significant; mapping defaults are not applied,
// so callers should pass the normalized schemas they actually migrate.
func GraphFingerprint(entities []EntitySchema) (string, error) {
	list := make([]any, len(entities))
	for i, e := range entities {
		attrs := make([]any, len(e.Attributes))
		for j, a := range e.Attributes {
			attrs[j] = map[string]any{
				"name":         a.Name,
				"kind":         string(a.Kind),
				"type":         a.Type,
				"target":       a.Target,
				"column":       a.Column,
				"mapped_by":    a.MappedBy,
				"table":        a.Table,
				"join_column":  a.JoinColumn,
				"value_column": a.ValueColumn,
			}
		}
		list[i] = map[string]any{
			"name":       e.Name,
			"table":      e.Table,
			"key":        e.Key,
			"attributes": attrs,
		}
	}

	canonical, err := MarshalCanonical(map[string]any{
		"ir_version": IRVersion,
		"entities":   list,
	})
	if err != nil {
		return "", fmt.Errorf("GraphFingerprint: failed to marshal: %w", err)
	}
	return Hash(DomainGraph, canonical), nil
}
