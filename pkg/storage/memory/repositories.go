// Package memory provides in-memory implementations of the engine's
// repository contracts (spec.md §6), used by tests and single-process
// deployments.
package memory

import (
	"sort"
	"sync"

	"github.com/atomledger/provenance-engine/pkg/domain"
)

// AtomRepository is an in-memory AtomRepository.
type AtomRepository struct {
	mu    sync.RWMutex
	atoms map[domain.AtomId]domain.ExperienceAtom
}

func NewAtomRepository() *AtomRepository {
	return &AtomRepository{atoms: make(map[domain.AtomId]domain.ExperienceAtom)}
}

func (r *AtomRepository) Upsert(atom domain.ExperienceAtom) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.atoms[atom.AtomId] = atom
}

func (r *AtomRepository) Get(id domain.AtomId) (domain.ExperienceAtom, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.atoms[id]
	return a, ok
}

func (r *AtomRepository) ListVerified() []domain.ExperienceAtom {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.ExperienceAtom
	for _, a := range r.atoms {
		if a.Verified {
			out = append(out, a)
		}
	}
	sortAtomsById(out)
	return out
}

func (r *AtomRepository) ListAll() []domain.ExperienceAtom {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ExperienceAtom, 0, len(r.atoms))
	for _, a := range r.atoms {
		out = append(out, a)
	}
	sortAtomsById(out)
	return out
}

func sortAtomsById(atoms []domain.ExperienceAtom) {
	sort.Slice(atoms, func(i, j int) bool { return atoms[i].AtomId.Value() < atoms[j].AtomId.Value() })
}

// OpportunityRepository is an in-memory OpportunityRepository, same shape
// as AtomRepository keyed by opportunity_id.
type OpportunityRepository struct {
	mu            sync.RWMutex
	opportunities map[domain.OpportunityId]domain.Opportunity
}

func NewOpportunityRepository() *OpportunityRepository {
	return &OpportunityRepository{opportunities: make(map[domain.OpportunityId]domain.Opportunity)}
}

func (r *OpportunityRepository) Upsert(o domain.Opportunity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opportunities[o.OpportunityId] = o
}

func (r *OpportunityRepository) Get(id domain.OpportunityId) (domain.Opportunity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.opportunities[id]
	return o, ok
}

func (r *OpportunityRepository) ListAll() []domain.Opportunity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Opportunity, 0, len(r.opportunities))
	for _, o := range r.opportunities {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpportunityId.Value() < out[j].OpportunityId.Value() })
	return out
}

// InteractionRepository is an in-memory InteractionRepository with an
// additional list_by_opportunity index.
type InteractionRepository struct {
	mu           sync.RWMutex
	interactions map[domain.InteractionId]domain.Interaction
}

func NewInteractionRepository() *InteractionRepository {
	return &InteractionRepository{interactions: make(map[domain.InteractionId]domain.Interaction)}
}

func (r *InteractionRepository) Upsert(ia domain.Interaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interactions[ia.InteractionId] = ia
}

func (r *InteractionRepository) Get(id domain.InteractionId) (domain.Interaction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ia, ok := r.interactions[id]
	return ia, ok
}

func (r *InteractionRepository) ListAll() []domain.Interaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Interaction, 0, len(r.interactions))
	for _, ia := range r.interactions {
		out = append(out, ia)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InteractionId.Value() < out[j].InteractionId.Value() })
	return out
}

func (r *InteractionRepository) ListByOpportunity(oppId domain.OpportunityId) []domain.Interaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Interaction
	for _, ia := range r.interactions {
		if ia.OpportunityId == oppId {
			out = append(out, ia)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InteractionId.Value() < out[j].InteractionId.Value() })
	return out
}
