package questionsearch

import (
	"context"

	"github.com/yanqian/papersearch/internal/domain/corpus"
)

// Embedder produces embeddings for free form text, one vector per input in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingCache persists question embeddings across builds, keyed by content hash and model.
type EmbeddingCache interface {
	Lookup(ctx context.Context, model string, keys []string) (map[string][]float32, error)
	Store(ctx context.Context, model string, vectors map[string][]float32) error
}

// DocumentLoader enumerates papers and extracts their pages.
type DocumentLoader interface {
	Documents(ctx context.Context, kind corpus.Kind) ([]corpus.Document, error)
	Pages(ctx context.Context, doc corpus.Document) ([]corpus.Page, error)
}

// JobQueue schedules background work.
type JobQueue interface {
	Enqueue(ctx context.Context, name string, payload any) error
}
