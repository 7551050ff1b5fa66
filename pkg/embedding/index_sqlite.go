package embedding

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"

	_ "modernc.org/sqlite"
)

// SQLiteIndex is an Index backed by a SQLite table storing vectors as raw
// float32 BLOBs. Query still does a full scan and computes cosine
// similarity in Go; the table buys durability, not an ANN speedup.
type SQLiteIndex struct {
	db *sql.DB
}

func NewSQLiteIndex(db *sql.DB) (*SQLiteIndex, error) {
	idx := &SQLiteIndex{db: db}
	if err := idx.migrate(); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *SQLiteIndex) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS embedding_vectors (
		key TEXT PRIMARY KEY,
		vector BLOB NOT NULL,
		metadata JSON
	);`
	_, err := idx.db.ExecContext(context.Background(), query)
	return err
}

func (idx *SQLiteIndex) Upsert(key string, vec Vector, metadata map[string]string) {
	metaJSON, _ := json.Marshal(metadata)
	_, err := idx.db.ExecContext(context.Background(),
		`INSERT INTO embedding_vectors (key, vector, metadata) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET vector=excluded.vector, metadata=excluded.metadata`,
		key, encodeVector(vec), string(metaJSON))
	if err != nil {
		panic(fmt.Errorf("embedding: sqlite upsert %q: %w", key, err))
	}
}

func (idx *SQLiteIndex) Get(key string) (Vector, bool) {
	row := idx.db.QueryRowContext(context.Background(), `SELECT vector FROM embedding_vectors WHERE key = ?`, key)
	var blob []byte
	if err := row.Scan(&blob); err != nil {
		return nil, false
	}
	return decodeVector(blob), true
}

func (idx *SQLiteIndex) Query(q Vector, topK int) []Result {
	rows, err := idx.db.QueryContext(context.Background(), `SELECT key, vector, metadata FROM embedding_vectors`)
	if err != nil {
		return nil
	}
	defer func() { _ = rows.Close() }()

	var results []Result
	for rows.Next() {
		var key string
		var blob []byte
		var metaJSON sql.NullString
		if err := rows.Scan(&key, &blob, &metaJSON); err != nil {
			continue
		}
		var meta map[string]string
		if metaJSON.Valid && metaJSON.String != "" {
			_ = json.Unmarshal([]byte(metaJSON.String), &meta)
		}
		results = append(results, Result{Key: key, Score: CosineSimilarity(q, decodeVector(blob)), Metadata: meta})
	}
	sortResults(results)
	if topK >= 0 && topK < len(results) {
		results = results[:topK]
	}
	return results
}

func encodeVector(v Vector) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		bits := math.Float32bits(f)
		buf[4*i] = byte(bits)
		buf[4*i+1] = byte(bits >> 8)
		buf[4*i+2] = byte(bits >> 16)
		buf[4*i+3] = byte(bits >> 24)
	}
	return buf
}

func decodeVector(buf []byte) Vector {
	n := len(buf) / 4
	v := make(Vector, n)
	for i := 0; i < n; i++ {
		bits := uint32(buf[4*i]) | uint32(buf[4*i+1])<<8 | uint32(buf[4*i+2])<<16 | uint32(buf[4*i+3])<<24
		v[i] = math.Float32frombits(bits)
	}
	return v
}
