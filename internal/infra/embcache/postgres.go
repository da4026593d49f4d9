package embcache

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/yanqian/papersearch/internal/domain/questionsearch"
)

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS question_embeddings (
	content_hash TEXT NOT NULL,
	model        TEXT NOT NULL,
	embedding    vector NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (content_hash, model)
);`

// PostgresCache persists question embeddings in a pgvector column.
type PostgresCache struct {
	pool *pgxpool.Pool
}

// NewPostgresCache constructs the adapter.
func NewPostgresCache(pool *pgxpool.Pool) *PostgresCache {
	return &PostgresCache{pool: pool}
}

// EnsureSchema creates the extension and table when missing.
func (c *PostgresCache) EnsureSchema(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure embedding schema: %w", err)
	}
	return nil
}

// Lookup fetches vectors for the given content hashes.
func (c *PostgresCache) Lookup(ctx context.Context, model string, keys []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	rows, err := c.pool.Query(ctx, `
		SELECT content_hash, embedding::text
		FROM question_embeddings
		WHERE model = $1 AND content_hash = ANY($2)
	`, model, keys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key string
			raw string
		)
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		vec, err := parseVector(raw)
		if err != nil {
			return nil, fmt.Errorf("parse embedding %s: %w", key, err)
		}
		out[key] = vec
	}
	return out, rows.Err()
}

// Store upserts vectors in a single batch.
func (c *PostgresCache) Store(ctx context.Context, model string, vectors map[string][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for key, vec := range vectors {
		batch.Queue(`
			INSERT INTO question_embeddings (content_hash, model, embedding)
			VALUES ($1, $2, $3)
			ON CONFLICT (content_hash, model)
			DO UPDATE SET embedding = EXCLUDED.embedding, created_at = now()
		`, key, model, pgvector.NewVector(vec))
	}
	return c.pool.SendBatch(ctx, batch).Close()
}

var _ questionsearch.EmbeddingCache = (*PostgresCache)(nil)

// parseVector reads pgvector's text form, e.g. "[0.1,0.2]".
func parseVector(raw string) ([]float32, error) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "[")
	trimmed = strings.TrimSuffix(trimmed, "]")
	if trimmed == "" {
		return nil, nil
	}
	parts := strings.Split(trimmed, ",")
	out := make([]float32, 0, len(parts))
	for _, p := range parts {
		numStr := strings.TrimSpace(p)
		if numStr == "" {
			continue
		}
		f, err := strconv.ParseFloat(numStr, 32)
		if err != nil {
			return nil, err
		}
		out = append(out, float32(f))
	}
	return out, nil
}
