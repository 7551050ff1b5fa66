// Package sqlite provides SQLite-backed implementations of the engine's
// repository contracts, for single-box deployments that want durability
// across restarts without standing up Postgres. Grounded on
// embedding.SQLiteIndex (pkg/embedding/index_sqlite.go, itself adapted
// from pkg/store/receipt_store_sqlite.go): `?`-placeholder queries, a
// migrate() call inside the constructor, modernc.org/sqlite as the
// driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/atomledger/provenance-engine/pkg/domain"
)

// AtomRepository implements pipeline.AtomLister against a SQLite table.
type AtomRepository struct {
	db *sql.DB
}

func NewAtomRepository(db *sql.DB) (*AtomRepository, error) {
	r := &AtomRepository{db: db}
	if err := r.migrate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *AtomRepository) migrate() error {
	_, err := r.db.ExecContext(context.Background(), `
	CREATE TABLE IF NOT EXISTS experience_atoms (
		atom_id TEXT PRIMARY KEY,
		verified INTEGER NOT NULL,
		atom_json JSON NOT NULL
	);`)
	return err
}

func (r *AtomRepository) Upsert(atom domain.ExperienceAtom) error {
	data, err := json.Marshal(atom)
	if err != nil {
		return fmt.Errorf("sqlite: marshal atom: %w", err)
	}
	verified := 0
	if atom.Verified {
		verified = 1
	}
	_, err = r.db.ExecContext(context.Background(),
		`INSERT INTO experience_atoms (atom_id, verified, atom_json) VALUES (?, ?, ?)
		 ON CONFLICT(atom_id) DO UPDATE SET verified=excluded.verified, atom_json=excluded.atom_json`,
		atom.AtomId.Value(), verified, string(data))
	return err
}

func (r *AtomRepository) Get(id domain.AtomId) (domain.ExperienceAtom, bool) {
	row := r.db.QueryRowContext(context.Background(), `SELECT atom_json FROM experience_atoms WHERE atom_id = ?`, id.Value())
	var data string
	if err := row.Scan(&data); err != nil {
		return domain.ExperienceAtom{}, false
	}
	var atom domain.ExperienceAtom
	if err := json.Unmarshal([]byte(data), &atom); err != nil {
		return domain.ExperienceAtom{}, false
	}
	return atom, true
}

func (r *AtomRepository) ListVerified() []domain.ExperienceAtom {
	return r.list(`SELECT atom_json FROM experience_atoms WHERE verified = 1`)
}

func (r *AtomRepository) ListAll() []domain.ExperienceAtom {
	return r.list(`SELECT atom_json FROM experience_atoms`)
}

func (r *AtomRepository) list(query string) []domain.ExperienceAtom {
	rows, err := r.db.QueryContext(context.Background(), query)
	if err != nil {
		return nil
	}
	defer func() { _ = rows.Close() }()

	var out []domain.ExperienceAtom
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			continue
		}
		var atom domain.ExperienceAtom
		if err := json.Unmarshal([]byte(data), &atom); err != nil {
			continue
		}
		out = append(out, atom)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AtomId.Value() < out[j].AtomId.Value() })
	return out
}

// OpportunityRepository implements pipeline.OpportunityGetter against a
// SQLite table.
type OpportunityRepository struct {
	db *sql.DB
}

func NewOpportunityRepository(db *sql.DB) (*OpportunityRepository, error) {
	r := &OpportunityRepository{db: db}
	if err := r.migrate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *OpportunityRepository) migrate() error {
	_, err := r.db.ExecContext(context.Background(), `
	CREATE TABLE IF NOT EXISTS opportunities (
		opportunity_id TEXT PRIMARY KEY,
		opportunity_json JSON NOT NULL
	);`)
	return err
}

func (r *OpportunityRepository) Upsert(o domain.Opportunity) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("sqlite: marshal opportunity: %w", err)
	}
	_, err = r.db.ExecContext(context.Background(),
		`INSERT INTO opportunities (opportunity_id, opportunity_json) VALUES (?, ?)
		 ON CONFLICT(opportunity_id) DO UPDATE SET opportunity_json=excluded.opportunity_json`,
		o.OpportunityId.Value(), string(data))
	return err
}

func (r *OpportunityRepository) Get(id domain.OpportunityId) (domain.Opportunity, bool) {
	row := r.db.QueryRowContext(context.Background(), `SELECT opportunity_json FROM opportunities WHERE opportunity_id = ?`, id.Value())
	var data string
	if err := row.Scan(&data); err != nil {
		return domain.Opportunity{}, false
	}
	var o domain.Opportunity
	if err := json.Unmarshal([]byte(data), &o); err != nil {
		return domain.Opportunity{}, false
	}
	return o, true
}

func (r *OpportunityRepository) ListAll() []domain.Opportunity {
	rows, err := r.db.QueryContext(context.Background(), `SELECT opportunity_json FROM opportunities`)
	if err != nil {
		return nil
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Opportunity
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			continue
		}
		var o domain.Opportunity
		if err := json.Unmarshal([]byte(data), &o); err != nil {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpportunityId.Value() < out[j].OpportunityId.Value() })
	return out
}
