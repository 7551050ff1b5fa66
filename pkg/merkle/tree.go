// Package merkle builds Merkle trees and inclusion proofs over an audit
// trace's events, giving an auditor a way to confirm a single event is
// part of a committed trace without replaying and re-verifying the whole
// hash chain. A generic path->value evidence tree, adapted here to hash
// leaves through this engine's own canonical JSON
// (pkg/canonicalize) of one audit event per leaf.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/atomledger/provenance-engine/pkg/canonicalize"
)

// LeafNamePrefix and NodeNamePrefix domain-separate leaf and internal node
// hashing so a leaf hash can never be replayed as an internal node hash
// (and vice versa).
const (
	LeafNamePrefix = "provenance-engine:audit:leaf:v1"
	NodeNamePrefix = "provenance-engine:audit:node:v1"
)

type Leaf struct {
	Path     string
	LeafHash string
}

// Tree is a binary Merkle tree built bottom-up over a set of named leaves,
// sorted by path so the root is independent of insertion order.
type Tree struct {
	Leaves []Leaf
	Root   string
	Levels [][]string // level 0 is leaf hashes, last level is [Root]
}

// Build constructs a Tree from path->value, canonicalizing each value to
// RFC 8785 JSON before hashing so the tree is reproducible across
// processes and languages.
func Build(data map[string]interface{}) (*Tree, error) {
	paths := make([]string, 0, len(data))
	for k := range data {
		paths = append(paths, k)
	}
	sort.Strings(paths)

	leaves := make([]Leaf, len(paths))
	for i, path := range paths {
		canon, err := canonicalize.JCS(data[path])
		if err != nil {
			return nil, err
		}
		leaves[i] = Leaf{Path: path, LeafHash: leafHash(path, canon)}
	}

	if len(leaves) == 0 {
		return &Tree{}, nil
	}

	tree := &Tree{Leaves: leaves}
	level := make([]string, len(leaves))
	for i, l := range leaves {
		level[i] = l.LeafHash
	}

	for {
		tree.Levels = append(tree.Levels, level)
		if len(level) == 1 {
			break
		}
		level = nextLevel(level)
	}
	tree.Root = tree.Levels[len(tree.Levels)-1][0]
	return tree, nil
}

func leafHash(path string, canonical []byte) string {
	var buf bytes.Buffer
	buf.WriteString(LeafNamePrefix)
	buf.WriteByte(0)
	buf.WriteString(path)
	buf.WriteByte(0)
	buf.Write(canonical)
	return sha256Hex(buf.Bytes())
}

func nextLevel(hashes []string) []string {
	count := len(hashes)
	if count%2 != 0 {
		hashes = append(hashes, hashes[count-1]) // duplicate last to balance
		count++
	}
	next := make([]string, count/2)
	for i := 0; i < count; i += 2 {
		next[i/2] = nodeHash(hashes[i], hashes[i+1])
	}
	return next
}

func nodeHash(left, right string) string {
	var buf bytes.Buffer
	buf.WriteString(NodeNamePrefix)
	buf.WriteByte(0)
	buf.Write(hexToBytes(left))
	buf.Write(hexToBytes(right))
	return sha256Hex(buf.Bytes())
}

func sha256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func hexToBytes(s string) []byte {
	b, _ := hex.DecodeString(s)
	return b
}
