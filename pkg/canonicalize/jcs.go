// Package canonicalize provides RFC 8785 (JSON Canonicalization Scheme)
// compliant serialization for deterministic hashing of engine artifacts —
// most importantly the audit hash chain (spec.md §4.7), where every event's
// hash is computed over the canonical JSON of its fields.
package canonicalize

import (
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"

	"github.com/atomledger/provenance-engine/pkg/hashing"
)

// JCS returns the RFC 8785 canonical JSON representation of v: object keys
// sorted lexicographically by UTF-8 bytes, no insignificant whitespace, no
// HTML-escaping, and normalized number formatting.
func JCS(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("jcs: marshal failed: %w", err)
	}
	canon, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("jcs: transform failed: %w", err)
	}
	return canon, nil
}

// CanonicalHash returns the SHA-256 hex digest of the canonical JSON
// representation of v.
func CanonicalHash(v interface{}) (string, error) {
	b, err := JCS(v)
	if err != nil {
		return "", err
	}
	return HashBytes(b), nil
}

// HashBytes computes the SHA-256 hex digest of raw bytes.
func HashBytes(data []byte) string {
	return hashing.SHA256Hex(data)
}

// JCSString returns the JCS canonical form as a string.
func JCSString(v interface{}) (string, error) {
	data, err := JCS(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
