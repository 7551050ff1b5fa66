// Package indexbuild implements the index-build pipeline of spec.md §4.6.
package indexbuild

import (
	"encoding/json"
	"sort"

	"github.com/atomledger/provenance-engine/pkg/domain"
	"github.com/atomledger/provenance-engine/pkg/embedding"
	"github.com/atomledger/provenance-engine/pkg/hashing"
	"github.com/atomledger/provenance-engine/pkg/ids"
)

// Scope selects which artifact sets run_index_build covers.
type Scope string

const (
	ScopeAtoms         Scope = "atoms"
	ScopeResumes       Scope = "resumes"
	ScopeOpportunities Scope = "opportunities"
	ScopeAll           Scope = "all"
)

// RunStore allocates index run identities and persists IndexRun/IndexEntry
// records, including the drift lookup keyed on the five fields of spec.md
// §4.6's "Drift semantics" paragraph.
type RunStore interface {
	NextIndexRunId() domain.RunId
	SaveRun(run domain.IndexRun) error
	LastSourceHash(artifactId string, artifactType domain.ArtifactType, providerId, modelId, promptVersion string) (string, bool)
	SaveEntry(entry domain.IndexEntry, providerId, modelId, promptVersion string) error
}

// Inputs bundles the artifact sets a run_index_build call scans. Each set
// is iterated in the given order, which must be stable across calls for
// drift lookups and audit output to be reproducible.
type Inputs struct {
	Atoms         []domain.ExperienceAtom
	Resumes       []domain.IngestedResume
	Opportunities []domain.Opportunity
}

// Summary is the per-run indexed/skipped/stale tally, serialized verbatim
// into IndexRun.SummaryJSON.
type Summary struct {
	Indexed int    `json:"indexed"`
	Skipped int    `json:"skipped"`
	Stale   int    `json:"stale"`
	Scope   string `json:"scope"`
}

// IndexedArtifact is the payload of the per-artifact IndexRunStarted-scoped
// audit event emitted for each embedded (non-skipped) artifact.
type IndexedArtifact struct {
	ArtifactType domain.ArtifactType
	ArtifactId   string
	SourceHash   string
	Stale        bool
}

// Result is what Run returns: the completed IndexRun plus the per-artifact
// events a caller (the orchestration pipeline) is expected to emit to the
// audit log alongside IndexRunStarted/IndexRunCompleted.
type Result struct {
	Run              domain.IndexRun
	IndexedArtifacts []IndexedArtifact
}

// Run executes run_index_build. clock is the injected determinism seam
// and the run id comes from store.NextIndexRunId; index is the embedding
// index entries are upserted into; provider computes embeddings.
func Run(store RunStore, index embedding.Index, provider embedding.Provider, clock ids.Clock, scope Scope, providerId, modelId, promptVersion string, in Inputs) (Result, error) {
	runId := store.NextIndexRunId()
	startedAt := clock.Now()

	run := domain.IndexRun{
		RunId:         runId,
		StartedAt:     &startedAt,
		ProviderId:    providerId,
		ModelId:       modelId,
		PromptVersion: promptVersion,
		Status:        domain.IndexRunRunning,
	}
	if err := store.SaveRun(run); err != nil {
		return Result{}, err
	}

	summary := Summary{Scope: string(scope)}
	var indexedArtifacts []IndexedArtifact

	if scope == ScopeAtoms || scope == ScopeAll {
		atoms := append([]domain.ExperienceAtom(nil), in.Atoms...)
		sort.Slice(atoms, func(i, j int) bool { return atoms[i].AtomId.Value() < atoms[j].AtomId.Value() })
		for _, a := range atoms {
			if err := indexOne(store, index, provider, clock, runId, domain.ArtifactAtom, a.AtomId.Value(), a.CanonicalText(), providerId, modelId, promptVersion, &summary, &indexedArtifacts); err != nil {
				return Result{}, err
			}
		}
	}
	if scope == ScopeResumes || scope == ScopeAll {
		resumes := append([]domain.IngestedResume(nil), in.Resumes...)
		sort.Slice(resumes, func(i, j int) bool { return resumes[i].ResumeId.Value() < resumes[j].ResumeId.Value() })
		for _, r := range resumes {
			if err := indexOne(store, index, provider, clock, runId, domain.ArtifactResume, r.ResumeId.Value(), r.CanonicalText(), providerId, modelId, promptVersion, &summary, &indexedArtifacts); err != nil {
				return Result{}, err
			}
		}
	}
	if scope == ScopeOpportunities || scope == ScopeAll {
		opps := append([]domain.Opportunity(nil), in.Opportunities...)
		sort.Slice(opps, func(i, j int) bool { return opps[i].OpportunityId.Value() < opps[j].OpportunityId.Value() })
		for _, o := range opps {
			if err := indexOne(store, index, provider, clock, runId, domain.ArtifactOpportunity, o.OpportunityId.Value(), o.CanonicalText(), providerId, modelId, promptVersion, &summary, &indexedArtifacts); err != nil {
				return Result{}, err
			}
		}
	}

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return Result{}, err
	}
	completedAt := clock.Now()
	run.Status = domain.IndexRunCompleted
	run.CompletedAt = &completedAt
	run.SummaryJSON = string(summaryJSON)
	if err := store.SaveRun(run); err != nil {
		return Result{}, err
	}

	return Result{Run: run, IndexedArtifacts: indexedArtifacts}, nil
}

func indexOne(store RunStore, index embedding.Index, provider embedding.Provider, clock ids.Clock, runId domain.RunId, artifactType domain.ArtifactType, artifactId, canonicalText, providerId, modelId, promptVersion string, summary *Summary, indexed *[]IndexedArtifact) error {
	srcHash := hashing.StableHash64HexString(canonicalText)

	priorHash, hadPrior := store.LastSourceHash(artifactId, artifactType, providerId, modelId, promptVersion)
	if hadPrior && priorHash == srcHash {
		summary.Skipped++
		return nil
	}

	vec := provider.EmbedText(canonicalText)
	if len(vec) == 0 {
		return nil
	}

	key := indexKey(artifactType, artifactId)
	index.Upsert(key, vec, map[string]string{
		"artifact_type": string(artifactType),
		"artifact_id":   artifactId,
		"source_hash":   srcHash,
	})

	indexedAt := clock.Now()
	if err := store.SaveEntry(domain.IndexEntry{
		RunId:        runId,
		ArtifactType: artifactType,
		ArtifactId:   artifactId,
		SourceHash:   srcHash,
		VectorHash:   embedding.VectorHash(vec),
		IndexedAt:    &indexedAt,
	}, providerId, modelId, promptVersion); err != nil {
		return err
	}

	summary.Indexed++
	if hadPrior {
		summary.Stale++
	}
	*indexed = append(*indexed, IndexedArtifact{ArtifactType: artifactType, ArtifactId: artifactId, SourceHash: srcHash, Stale: hadPrior})
	return nil
}

func indexKey(artifactType domain.ArtifactType, artifactId string) string {
	switch artifactType {
	case domain.ArtifactResume:
		return "resume:" + artifactId
	case domain.ArtifactOpportunity:
		return "opp:" + artifactId
	default:
		return artifactId
	}
}
