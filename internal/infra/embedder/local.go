package embedder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/yanqian/papersearch/internal/domain/questionsearch"
)

// LocalEmbedder talks to a self-hosted OpenAI-compatible embedding server,
// e.g. one serving paraphrase-MiniLM-L3-v2.
type LocalEmbedder struct {
	embedder  embeddings.Embedder
	batchSize int
	logger    *slog.Logger
}

// NewLocalEmbedder builds the langchaingo client for baseURL.
func NewLocalEmbedder(baseURL, model string, batchSize int, logger *slog.Logger) (*LocalEmbedder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	// local servers do not check the token
	client, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("init local embedding client: %w", err)
	}
	if batchSize <= 0 {
		batchSize = 64
	}
	emb, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(batchSize),
	)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	return &LocalEmbedder{
		embedder:  emb,
		batchSize: batchSize,
		logger:    logger.With("component", "embedder.local"),
	}, nil
}

// Embed generates vector embeddings for multiple texts.
func (e *LocalEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	e.logger.Debug("generating embeddings", "count", len(texts))
	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "error", err)
		return nil, err
	}
	return vectors, nil
}

var _ questionsearch.Embedder = (*LocalEmbedder)(nil)
