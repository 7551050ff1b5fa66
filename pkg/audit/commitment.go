package audit

import (
	"fmt"
	"strconv"
	"time"

	"github.com/atomledger/provenance-engine/pkg/attestation"
	"github.com/atomledger/provenance-engine/pkg/merkle"
)

// Commitment is a single Merkle root over one trace's events, keyed by
// event index, plus an optional attestation signature over the root. It
// lets an auditor who holds only one event and this commitment prove that
// event's membership (via EventProof) without re-verifying the entire hash
// chain, and lets a verifier outside the system confirm the commitment
// itself came from this engine instance.
type Commitment struct {
	TraceId     string    `json:"trace_id"`
	MerkleRoot  string    `json:"merkle_root"`
	EventCount  int       `json:"event_count"`
	GeneratedAt time.Time `json:"generated_at"`
	SignerKeyId string    `json:"signer_key_id,omitempty"`
	PublicKey   string    `json:"public_key,omitempty"`
	Signature   string    `json:"signature,omitempty"`
}

// BuildCommitment builds a Merkle tree over events (one leaf per event,
// keyed by its index in the chain) and returns the root, unsigned.
func BuildCommitment(traceId string, events []Event, now time.Time) (Commitment, error) {
	tree, err := buildEventTree(events)
	if err != nil {
		return Commitment{}, err
	}
	return Commitment{
		TraceId:     traceId,
		MerkleRoot:  tree.Root,
		EventCount:  len(events),
		GeneratedAt: now,
	}, nil
}

// SignCommitment signs c's canonical JSON with signer and returns the
// signed copy. The signature covers trace_id, merkle_root, event_count,
// and generated_at — not signer_key_id/public_key/signature themselves.
func SignCommitment(c Commitment, signer attestation.Signer) (Commitment, error) {
	unsigned := c
	unsigned.SignerKeyId, unsigned.PublicKey, unsigned.Signature = "", "", ""

	sig, err := signer.Sign(unsigned)
	if err != nil {
		return Commitment{}, fmt.Errorf("audit: sign commitment: %w", err)
	}
	c.SignerKeyId = signer.KeyId()
	c.PublicKey = signer.PublicKeyHex()
	c.Signature = sig
	return c, nil
}

// VerifyCommitmentSignature checks a signed Commitment's signature against
// its own embedded public key.
func VerifyCommitmentSignature(c Commitment) (bool, error) {
	if c.Signature == "" || c.PublicKey == "" {
		return false, fmt.Errorf("audit: commitment is unsigned")
	}
	unsigned := c
	unsigned.SignerKeyId, unsigned.PublicKey, unsigned.Signature = "", "", ""
	return attestation.VerifyDetached(c.PublicKey, unsigned, c.Signature)
}

// EventProof proves a single event's membership in a trace's committed
// Merkle root.
func EventProof(events []Event, idx uint64) (merkle.InclusionProof, error) {
	tree, err := buildEventTree(events)
	if err != nil {
		return merkle.InclusionProof{}, err
	}
	return tree.GenerateProof(strconv.FormatUint(idx, 10))
}

func buildEventTree(events []Event) (*merkle.Tree, error) {
	leaves := make(map[string]interface{}, len(events))
	for _, e := range events {
		leaves[strconv.FormatUint(e.Idx, 10)] = e.hashable()
	}
	return merkle.Build(leaves)
}
