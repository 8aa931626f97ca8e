package ginblog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const sqlCacheSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	cache_key  TEXT PRIMARY KEY,
	data       BYTEA NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS cache_tags (
	tag       TEXT NOT NULL,
	cache_key TEXT NOT NULL REFERENCES cache_entries(cache_key) ON DELETE CASCADE,
	PRIMARY KEY (tag, cache_key)
);
CREATE INDEX IF NOT EXISTS cache_tags_key_idx ON cache_tags (cache_key);
`

// SQLCacheService stores entries in PostgreSQL. Tag rows cascade with their
// entry.
type SQLCacheService struct {
	db *sql.DB
}

func NewSQLCacheService(ctx context.Context, db *sql.DB) (*SQLCacheService, error) {
	if _, err := db.ExecContext(ctx, sqlCacheSchema); err != nil {
		return nil, fmt.Errorf("failed to create cache tables: %w", err)
	}
	return &SQLCacheService{db: db}, nil
}

func (s *SQLCacheService) Set(ctx context.Context, key string, data []byte, tags []string, duration time.Duration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO cache_entries (cache_key, data, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cache_key) DO UPDATE
		SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at, created_at = EXCLUDED.created_at`,
		key, data, now.Add(duration), now)
	if err != nil {
		return fmt.Errorf("failed to store cache entry %s: %w", key, err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM cache_tags WHERE cache_key = $1`, key); err != nil {
		return fmt.Errorf("failed to reset tags of %s: %w", key, err)
	}
	if len(tags) > 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO cache_tags (tag, cache_key)
			SELECT DISTINCT unnest($1::text[]), $2
			ON CONFLICT DO NOTHING`,
			pq.Array(tags), key)
		if err != nil {
			return fmt.Errorf("failed to tag %s: %w", key, err)
		}
	}
	return tx.Commit()
}

func (s *SQLCacheService) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	var expiresAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT data, expires_at FROM cache_entries WHERE cache_key = $1`, key).
		Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !time.Now().Before(expiresAt) {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_key = $1`, key)
		return nil, nil
	}
	return data, nil
}

func (s *SQLCacheService) Invalidate(ctx context.Context, tags ...string) error {
	if len(tags) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM cache_entries
		WHERE cache_key IN (SELECT cache_key FROM cache_tags WHERE tag = ANY($1))`,
		pq.Array(tags))
	if err != nil {
		return fmt.Errorf("failed to invalidate %v: %w", tags, err)
	}
	return nil
}
