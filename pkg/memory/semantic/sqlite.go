package semantic

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const schema = `
CREATE TABLE IF NOT EXISTS memories (
	id         TEXT PRIMARY KEY,
	collection TEXT NOT NULL,
	content    TEXT NOT NULL,
	metadata   TEXT NOT NULL DEFAULT '{}',
	vector     TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memories_collection ON memories(collection);
`

// SQLite persists documents in one table, partitioned by collection. Scoring happens in process.
type SQLite struct {
	db         *sql.DB
	collection string
	strategy   Strategy
}

func NewSQLite(ctx context.Context, db *sql.DB, collection string, s Strategy) (*SQLite, error) {
	if s == nil {
		s = Keyword{}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, storeErr("migrate", err)
	}
	return &SQLite{db: db, collection: collection, strategy: s}, nil
}

func (s *SQLite) Store(ctx context.Context, content string, metadata map[string]any) (string, error) {
	id, err := newID()
	if err != nil {
		return "", storeErr("store", err)
	}
	vec, err := s.strategy.Vectorize(ctx, content)
	if err != nil {
		return "", storeErr("store", err)
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	meta, err := json.Marshal(metadata)
	if err != nil {
		return "", storeErr("store", fmt.Errorf("metadata: %w", err))
	}
	var vector sql.NullString
	if vec != nil {
		b, err := json.Marshal(vec)
		if err != nil {
			return "", storeErr("store", fmt.Errorf("vector: %w", err))
		}
		vector = sql.NullString{String: string(b), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO memories (id, collection, content, metadata, vector, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, s.collection, content, string(meta), vector, time.Now().UnixNano())
	if err != nil {
		return "", storeErr("store", err)
	}
	return id, nil
}

func (s *SQLite) Query(ctx context.Context, text string, k int, filter map[string]any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, metadata, vector, created_at FROM memories WHERE collection = ? ORDER BY created_at, rowid`,
		s.collection)
	if err != nil {
		return nil, storeErr("query", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, storeErr("query", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("query", err)
	}

	return rank(ctx, s.strategy, docs, text, k, filter)
}

func (s *SQLite) Get(ctx context.Context, id string) (Record, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, content, metadata, vector, created_at FROM memories WHERE collection = ? AND id = ?`,
		s.collection, id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, storeErr("get", err)
	}
	return toRecord(d), true, nil
}

func (s *SQLite) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE collection = ? AND id = ?`, s.collection, id)
	if err != nil {
		return false, storeErr("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storeErr("delete", err)
	}
	return n > 0, nil
}

func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories WHERE collection = ?`, s.collection).Scan(&n)
	if err != nil {
		return 0, storeErr("count", err)
	}
	return n, nil
}

func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE collection = ?`, s.collection); err != nil {
		return storeErr("clear", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (Document, error) {
	var (
		d       Document
		meta    string
		vector  sql.NullString
		created int64
	)
	if err := row.Scan(&d.ID, &d.Content, &meta, &vector, &created); err != nil {
		return Document{}, err
	}
	if err := json.Unmarshal([]byte(meta), &d.Metadata); err != nil {
		return Document{}, fmt.Errorf("metadata: %w", err)
	}
	if vector.Valid {
		if err := json.Unmarshal([]byte(vector.String), &d.Vector); err != nil {
			return Document{}, fmt.Errorf("vector: %w", err)
		}
	}
	d.CreatedAt = time.Unix(0, created)
	return d, nil
}
