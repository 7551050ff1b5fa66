package decision

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/atomledger/provenance-engine/pkg/domain"
)

// PostgresStore implements Store with SQL persistence.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const postgresDecisionSchema = `
CREATE TABLE IF NOT EXISTS decision_records (
	decision_id TEXT PRIMARY KEY,
	trace_id TEXT NOT NULL,
	artifact_id TEXT NOT NULL,
	created_at TIMESTAMP,
	record_json JSONB NOT NULL
);`

func (s *PostgresStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, postgresDecisionSchema)
	return err
}

func (s *PostgresStore) Put(ctx context.Context, record domain.DecisionRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("decision: marshal record: %w", err)
	}
	var createdAt interface{}
	if record.CreatedAt != nil {
		createdAt = record.CreatedAt.UTC()
	}
	query := `
		INSERT INTO decision_records (decision_id, trace_id, artifact_id, created_at, record_json)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (decision_id) DO UPDATE
		SET trace_id = $2, artifact_id = $3, created_at = $4, record_json = $5`
	_, err = s.db.ExecContext(ctx, query, record.DecisionId.Value(), record.TraceId.Value(), record.ArtifactId, createdAt, recordJSON)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id domain.DecisionId) (domain.DecisionRecord, error) {
	var recordJSON []byte
	err := s.db.QueryRowContext(ctx, `SELECT record_json FROM decision_records WHERE decision_id = $1`, id.Value()).Scan(&recordJSON)
	if err == sql.ErrNoRows {
		return domain.DecisionRecord{}, ErrNotFound
	}
	if err != nil {
		return domain.DecisionRecord{}, err
	}
	var record domain.DecisionRecord
	if err := json.Unmarshal(recordJSON, &record); err != nil {
		return domain.DecisionRecord{}, err
	}
	return record, nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]domain.DecisionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record_json FROM decision_records ORDER BY created_at DESC NULLS LAST LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.DecisionRecord
	for rows.Next() {
		var recordJSON []byte
		if err := rows.Scan(&recordJSON); err != nil {
			return nil, err
		}
		var record domain.DecisionRecord
		if err := json.Unmarshal(recordJSON, &record); err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByTrace returns every decision recorded under traceId, ordered by
// decision_id ascending.
func (s *PostgresStore) ListByTrace(ctx context.Context, traceId domain.TraceId) ([]domain.DecisionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record_json FROM decision_records WHERE trace_id = $1 ORDER BY decision_id ASC`, traceId.Value())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.DecisionRecord
	for rows.Next() {
		var recordJSON []byte
		if err := rows.Scan(&recordJSON); err != nil {
			return nil, err
		}
		var record domain.DecisionRecord
		if err := json.Unmarshal(recordJSON, &record); err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
