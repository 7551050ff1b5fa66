// Package attestation provides Ed25519 signing over the canonical JSON of
// engine artifacts — the engine signs audit trace commitments with it — so
// a holder of the evidence pack can prove it came from this engine instance
// without trusting the transport it arrived over.
package attestation

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/atomledger/provenance-engine/pkg/canonicalize"
)

// Signer signs and verifies arbitrary values by first reducing them to
// their RFC 8785 canonical JSON form, so the same payload always produces
// the same signature regardless of struct field ordering.
type Signer interface {
	Sign(v interface{}) (signatureHex string, err error)
	Verify(v interface{}, signatureHex string) (bool, error)
	PublicKeyHex() string
	KeyId() string
}

// Ed25519Signer is the Signer backing this engine ships. Keys are either
// generated fresh (NewEd25519Signer, for ephemeral/CLI use) or loaded from
// an operator-supplied seed (NewEd25519SignerFromSeed, for a stable
// identity across restarts).
type Ed25519Signer struct {
	privKey ed25519.PrivateKey
	pubKey  ed25519.PublicKey
	keyId   string
}

// NewEd25519Signer generates a fresh Ed25519 key pair.
func NewEd25519Signer(keyId string) (*Ed25519Signer, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("attestation: generate key: %w", err)
	}
	return &Ed25519Signer{privKey: priv, pubKey: pub, keyId: keyId}, nil
}

// NewEd25519SignerFromSeed rebuilds a signer from a 32-byte hex-encoded
// seed, for an operator who wants the same signing identity across
// process restarts.
func NewEd25519SignerFromSeed(seedHex, keyId string) (*Ed25519Signer, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("attestation: decode seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("attestation: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Ed25519Signer{privKey: priv, pubKey: priv.Public().(ed25519.PublicKey), keyId: keyId}, nil
}

func (s *Ed25519Signer) Sign(v interface{}) (string, error) {
	payload, err := canonicalize.JCS(v)
	if err != nil {
		return "", fmt.Errorf("attestation: canonicalize payload: %w", err)
	}
	return hex.EncodeToString(ed25519.Sign(s.privKey, payload)), nil
}

func (s *Ed25519Signer) Verify(v interface{}, signatureHex string) (bool, error) {
	payload, err := canonicalize.JCS(v)
	if err != nil {
		return false, fmt.Errorf("attestation: canonicalize payload: %w", err)
	}
	sig, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false, fmt.Errorf("attestation: decode signature: %w", err)
	}
	return ed25519.Verify(s.pubKey, payload, sig), nil
}

func (s *Ed25519Signer) PublicKeyHex() string {
	return hex.EncodeToString(s.pubKey)
}

func (s *Ed25519Signer) KeyId() string {
	return s.keyId
}

// VerifyDetached verifies a signature against a known public key, without
// needing a live Signer holding the private key — the shape an auditor who
// only has the evidence pack and an out-of-band public key uses.
func VerifyDetached(publicKeyHex string, v interface{}, signatureHex string) (bool, error) {
	pubKey, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return false, fmt.Errorf("attestation: decode public key: %w", err)
	}
	if len(pubKey) != ed25519.PublicKeySize {
		return false, fmt.Errorf("attestation: public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pubKey))
	}
	payload, err := canonicalize.JCS(v)
	if err != nil {
		return false, fmt.Errorf("attestation: canonicalize payload: %w", err)
	}
	sig, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false, fmt.Errorf("attestation: decode signature: %w", err)
	}
	return ed25519.Verify(ed25519.PublicKey(pubKey), payload, sig), nil
}
