package merkle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomledger/provenance-engine/pkg/merkle"
)

func TestBuild_RootIsOrderIndependent(t *testing.T) {
	a, err := merkle.Build(map[string]interface{}{"0": "event-a", "1": "event-b", "2": "event-c"})
	require.NoError(t, err)

	b, err := merkle.Build(map[string]interface{}{"2": "event-c", "0": "event-a", "1": "event-b"})
	require.NoError(t, err)

	assert.Equal(t, a.Root, b.Root)
	assert.NotEmpty(t, a.Root)
	assert.Len(t, a.Leaves, 3)
}

func TestGenerateProof_VerifiesForEveryLeaf(t *testing.T) {
	tree, err := merkle.Build(map[string]interface{}{
		"0": "event-a",
		"1": "event-b",
		"2": "event-c",
		"3": "event-d",
		"4": "event-e", // odd count forces duplicate-last balancing
	})
	require.NoError(t, err)

	for _, path := range []string{"0", "1", "2", "3", "4"} {
		proof, err := tree.GenerateProof(path)
		require.NoError(t, err)
		assert.True(t, merkle.VerifyInclusionProof(proof, tree.Root), "path %s", path)
	}
}

func TestVerifyInclusionProof_RejectsTamperedLeaf(t *testing.T) {
	tree, err := merkle.Build(map[string]interface{}{"0": "event-a", "1": "event-b"})
	require.NoError(t, err)

	proof, err := tree.GenerateProof("0")
	require.NoError(t, err)

	proof.LeafHash = "0000000000000000000000000000000000000000000000000000000000000"
	assert.False(t, merkle.VerifyInclusionProof(proof, tree.Root))
}

func TestVerifyInclusionProof_RejectsWrongExpectedRoot(t *testing.T) {
	tree, err := merkle.Build(map[string]interface{}{"0": "event-a", "1": "event-b"})
	require.NoError(t, err)

	proof, err := tree.GenerateProof("0")
	require.NoError(t, err)

	assert.False(t, merkle.VerifyInclusionProof(proof, "not-the-real-root"))
}

func TestBuild_EmptyInputHasEmptyRoot(t *testing.T) {
	tree, err := merkle.Build(map[string]interface{}{})
	require.NoError(t, err)
	assert.Empty(t, tree.Root)
	assert.Empty(t, tree.Leaves)
}
