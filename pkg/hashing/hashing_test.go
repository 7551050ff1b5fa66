package hashing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atomledger/provenance-engine/pkg/hashing"
)

// TestSHA256Hex_MatchesFIPSTestVectors is spec.md §8's fixed hash-vector
// invariant.
func TestSHA256Hex_MatchesFIPSTestVectors(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", hashing.SHA256HexString(""))
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", hashing.SHA256HexString("abc"))
}

func TestSHA256Hex_IsDeterministic(t *testing.T) {
	assert.Equal(t, hashing.SHA256HexString("same input"), hashing.SHA256HexString("same input"))
}

func TestStableHash64Hex_IsDeterministic(t *testing.T) {
	assert.Equal(t, hashing.StableHash64HexString("same input"), hashing.StableHash64HexString("same input"))
	assert.Len(t, hashing.StableHash64HexString("x"), 16)
}
