// Package hashing provides the two hash primitives the engine relies on for
// determinism: a fast 64-bit FNV-1a for source/vector hashes, and SHA-256
// for the audit hash chain and override binding. Both are stdlib — the
// teacher itself reaches for crypto/sha256 directly rather than a
// third-party crypto library (see DESIGN.md), and hash/fnv is the
// textbook implementation of FNV-1a.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"hash/fnv"
)

// StableHash64Hex returns the 16-hex-character FNV-1a 64-bit digest of data.
func StableHash64Hex(data []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(data) // fnv.Write never errors
	return hex.EncodeToString(h.Sum(nil))
}

// StableHash64HexString is a convenience wrapper over StableHash64Hex for
// string input.
func StableHash64HexString(s string) string {
	return StableHash64Hex([]byte(s))
}

// GenesisHash is the fixed 64-character all-zero previous-hash used by the
// first event on any audit trace.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// SHA256Hex returns the 64-hex-character SHA-256 digest of data, per FIPS
// 180-4. Verified against the standard test vectors in pkg/hashing tests.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SHA256HexString is a convenience wrapper over SHA256Hex for string input.
func SHA256HexString(s string) string {
	return SHA256Hex([]byte(s))
}
