// Package postgres provides Postgres-backed implementations of the
// engine's repository contracts (spec.md §6's "a SQL table satisfies
// each repository interface equally"), for deployments that need
// multi-process durability beyond pkg/storage/memory. Grounded on
// pkg/registry/postgres_registry.go's Init/ExecContext schema-creation
// pattern and pkg/decision/postgres_store.go's JSONB-document-per-row
// shape, both already adapted into this module.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	_ "github.com/lib/pq"

	"github.com/atomledger/provenance-engine/pkg/domain"
)

// AtomRepository implements pipeline.AtomLister against a Postgres table,
// one JSONB document per atom keyed by atom_id.
type AtomRepository struct {
	db *sql.DB
}

func NewAtomRepository(db *sql.DB) *AtomRepository {
	return &AtomRepository{db: db}
}

const atomSchema = `
CREATE TABLE IF NOT EXISTS experience_atoms (
	atom_id TEXT PRIMARY KEY,
	verified BOOLEAN NOT NULL,
	atom_json JSONB NOT NULL
);`

func (r *AtomRepository) Init(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, atomSchema)
	return err
}

// Upsert takes no context, like memory.AtomRepository's Upsert; it runs
// against context.Background() since the repository interfaces the
// pipeline depends on predate context plumbing (spec.md §6 describes the
// interface, not the transport).
func (r *AtomRepository) Upsert(atom domain.ExperienceAtom) error {
	data, err := json.Marshal(atom)
	if err != nil {
		return fmt.Errorf("postgres: marshal atom: %w", err)
	}
	_, err = r.db.ExecContext(context.Background(), `
		INSERT INTO experience_atoms (atom_id, verified, atom_json)
		VALUES ($1, $2, $3)
		ON CONFLICT (atom_id) DO UPDATE SET verified = $2, atom_json = $3`,
		atom.AtomId.Value(), atom.Verified, data)
	return err
}

func (r *AtomRepository) Get(id domain.AtomId) (domain.ExperienceAtom, bool) {
	var data []byte
	err := r.db.QueryRowContext(context.Background(), `SELECT atom_json FROM experience_atoms WHERE atom_id = $1`, id.Value()).Scan(&data)
	if err != nil {
		return domain.ExperienceAtom{}, false
	}
	var atom domain.ExperienceAtom
	if err := json.Unmarshal(data, &atom); err != nil {
		return domain.ExperienceAtom{}, false
	}
	return atom, true
}

func (r *AtomRepository) ListVerified() []domain.ExperienceAtom {
	return r.list(`SELECT atom_json FROM experience_atoms WHERE verified ORDER BY atom_id`)
}

func (r *AtomRepository) ListAll() []domain.ExperienceAtom {
	return r.list(`SELECT atom_json FROM experience_atoms ORDER BY atom_id`)
}

func (r *AtomRepository) list(query string) []domain.ExperienceAtom {
	rows, err := r.db.QueryContext(context.Background(), query)
	if err != nil {
		return nil
	}
	defer func() { _ = rows.Close() }()

	var out []domain.ExperienceAtom
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			continue
		}
		var atom domain.ExperienceAtom
		if err := json.Unmarshal(data, &atom); err != nil {
			continue
		}
		out = append(out, atom)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AtomId.Value() < out[j].AtomId.Value() })
	return out
}

// OpportunityRepository implements pipeline.OpportunityGetter against a
// Postgres table, same JSONB-per-row shape as AtomRepository.
type OpportunityRepository struct {
	db *sql.DB
}

func NewOpportunityRepository(db *sql.DB) *OpportunityRepository {
	return &OpportunityRepository{db: db}
}

const opportunitySchema = `
CREATE TABLE IF NOT EXISTS opportunities (
	opportunity_id TEXT PRIMARY KEY,
	opportunity_json JSONB NOT NULL
);`

func (r *OpportunityRepository) Init(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, opportunitySchema)
	return err
}

func (r *OpportunityRepository) Upsert(o domain.Opportunity) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("postgres: marshal opportunity: %w", err)
	}
	_, err = r.db.ExecContext(context.Background(), `
		INSERT INTO opportunities (opportunity_id, opportunity_json)
		VALUES ($1, $2)
		ON CONFLICT (opportunity_id) DO UPDATE SET opportunity_json = $2`,
		o.OpportunityId.Value(), data)
	return err
}

func (r *OpportunityRepository) Get(id domain.OpportunityId) (domain.Opportunity, bool) {
	var data []byte
	err := r.db.QueryRowContext(context.Background(), `SELECT opportunity_json FROM opportunities WHERE opportunity_id = $1`, id.Value()).Scan(&data)
	if err != nil {
		return domain.Opportunity{}, false
	}
	var o domain.Opportunity
	if err := json.Unmarshal(data, &o); err != nil {
		return domain.Opportunity{}, false
	}
	return o, true
}

func (r *OpportunityRepository) ListAll() []domain.Opportunity {
	rows, err := r.db.QueryContext(context.Background(), `SELECT opportunity_json FROM opportunities ORDER BY opportunity_id`)
	if err != nil {
		return nil
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Opportunity
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			continue
		}
		var o domain.Opportunity
		if err := json.Unmarshal(data, &o); err != nil {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpportunityId.Value() < out[j].OpportunityId.Value() })
	return out
}
