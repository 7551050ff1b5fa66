package audit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomledger/provenance-engine/pkg/attestation"
	"github.com/atomledger/provenance-engine/pkg/audit"
)

func buildTrace(t *testing.T) []audit.Event {
	t.Helper()
	log := audit.NewMemoryAuditLog()
	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		_, err := log.Append(audit.Event{
			TraceId:   "trace-1",
			EventType: audit.EventRunStarted,
			CreatedAt: now,
		})
		require.NoError(t, err)
	}
	events, err := log.Query("trace-1")
	require.NoError(t, err)
	return events
}

func TestBuildCommitment_IsDeterministic(t *testing.T) {
	events := buildTrace(t)
	now := time.Now().UTC()

	a, err := audit.BuildCommitment("trace-1", events, now)
	require.NoError(t, err)
	b, err := audit.BuildCommitment("trace-1", events, now)
	require.NoError(t, err)

	assert.Equal(t, a.MerkleRoot, b.MerkleRoot)
	assert.NotEmpty(t, a.MerkleRoot)
	assert.Equal(t, 3, a.EventCount)
}

func TestSignCommitment_VerifiesAndDetectsTampering(t *testing.T) {
	events := buildTrace(t)
	commitment, err := audit.BuildCommitment("trace-1", events, time.Now().UTC())
	require.NoError(t, err)

	signer, err := attestation.NewEd25519Signer("audit-key-1")
	require.NoError(t, err)

	signed, err := audit.SignCommitment(commitment, signer)
	require.NoError(t, err)
	assert.NotEmpty(t, signed.Signature)

	valid, err := audit.VerifyCommitmentSignature(signed)
	require.NoError(t, err)
	assert.True(t, valid)

	signed.MerkleRoot = "tampered"
	valid, err = audit.VerifyCommitmentSignature(signed)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestEventProof_VerifiesEachEventAgainstTheCommitment(t *testing.T) {
	events := buildTrace(t)
	commitment, err := audit.BuildCommitment("trace-1", events, time.Now().UTC())
	require.NoError(t, err)

	for _, e := range events {
		proof, err := audit.EventProof(events, e.Idx)
		require.NoError(t, err)
		assert.True(t, proof.LeafHash != "" && proof.MerkleRoot == commitment.MerkleRoot)
	}
}
