package audit

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/atomledger/provenance-engine/pkg/attestation"
)

// ErrEmptyTraceID is returned when export is requested without a trace id.
var ErrEmptyTraceID = errors.New("audit: trace_id must not be empty")

// ExportRequest selects the trace to bundle into an evidence pack.
type ExportRequest struct {
	TraceId string
}

// EvidencePack is an exported, checksummed bundle of one trace's audit
// events, suitable for handing to an auditor outside the system.
type EvidencePack struct {
	TraceId     string     `json:"trace_id"`
	GeneratedAt time.Time  `json:"generated_at"`
	Checksum    string     `json:"checksum"`
	EventCount  int        `json:"event_count"`
	Commitment  Commitment `json:"commitment"`
}

// Exporter bundles a trace's events, chain-verification result, a Merkle
// commitment over the events, and a manifest into a zip archive, keyed to
// the single-trace shape this engine's AuditLog exposes.
type Exporter struct {
	log    AuditLog
	clock  func() time.Time
	signer attestation.Signer // optional; nil means the commitment ships unsigned
}

// NewExporter builds an Exporter over log. now is the clock used to stamp
// generated_at; pass a fixed function in tests for reproducibility.
func NewExporter(log AuditLog, now func() time.Time) *Exporter {
	return &Exporter{log: log, clock: now}
}

// NewSignedExporter is NewExporter plus a Signer that attests every
// generated commitment, so an auditor holding only the public key can
// confirm the pack came from this engine instance.
func NewSignedExporter(log AuditLog, now func() time.Time, signer attestation.Signer) *Exporter {
	return &Exporter{log: log, clock: now, signer: signer}
}

// GeneratePack reads the trace's events, verifies the chain, and produces
// a zip archive containing events.json, manifest.json, and README.txt.
// Returns the archive bytes and their SHA-256 checksum.
func (e *Exporter) GeneratePack(req ExportRequest) ([]byte, EvidencePack, error) {
	if req.TraceId == "" {
		return nil, EvidencePack{}, ErrEmptyTraceID
	}

	events, err := e.log.Query(req.TraceId)
	if err != nil {
		return nil, EvidencePack{}, err
	}

	verification := VerifyAuditChain(events)

	eventsJSON, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return nil, EvidencePack{}, err
	}

	generatedAt := e.clock()

	commitment, err := BuildCommitment(req.TraceId, events, generatedAt)
	if err != nil {
		return nil, EvidencePack{}, fmt.Errorf("audit: build commitment: %w", err)
	}
	if e.signer != nil {
		commitment, err = SignCommitment(commitment, e.signer)
		if err != nil {
			return nil, EvidencePack{}, err
		}
	}

	manifest := map[string]interface{}{
		"trace_id":     req.TraceId,
		"generated_at": generatedAt,
		"event_count":  len(events),
		"chain_valid":  verification.Valid,
		"commitment":   commitment,
	}
	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, EvidencePack{}, fmt.Errorf("audit: failed to marshal manifest: %w", err)
	}

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	if f, err := w.Create("events.json"); err != nil {
		return nil, EvidencePack{}, err
	} else if _, err := f.Write(eventsJSON); err != nil {
		return nil, EvidencePack{}, err
	}

	if f, err := w.Create("manifest.json"); err != nil {
		return nil, EvidencePack{}, err
	} else if _, err := f.Write(manifestJSON); err != nil {
		return nil, EvidencePack{}, err
	}

	if f, err := w.Create("README.txt"); err != nil {
		return nil, EvidencePack{}, err
	} else if _, err := fmt.Fprintf(f, "Evidence pack for trace %s\nGenerated at %s\n", req.TraceId, generatedAt); err != nil {
		return nil, EvidencePack{}, err
	}

	if err := w.Close(); err != nil {
		return nil, EvidencePack{}, err
	}

	zipBytes := buf.Bytes()
	hash := sha256.Sum256(zipBytes)

	return zipBytes, EvidencePack{
		TraceId:     req.TraceId,
		GeneratedAt: generatedAt,
		Checksum:    hex.EncodeToString(hash[:]),
		EventCount:  len(events),
		Commitment:  commitment,
	}, nil
}
