package embedder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/yanqian/papersearch/internal/domain/questionsearch"
	"github.com/yanqian/papersearch/internal/infra/llm/chatgpt"
)

// EmbeddingClient is the subset of the OpenAI client the embedder needs.
type EmbeddingClient interface {
	CreateEmbedding(ctx context.Context, req chatgpt.EmbeddingRequest) (chatgpt.EmbeddingResponse, error)
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings API, batching by token budget.
type OpenAIEmbedder struct {
	client         EmbeddingClient
	model          string
	dimensions     int
	maxBatchTokens int
	logger         *slog.Logger

	encOnce sync.Once
	enc     *tiktoken.Tiktoken
}

// NewOpenAIEmbedder constructs an embedder backed by the OpenAI client.
func NewOpenAIEmbedder(client EmbeddingClient, model string, dimensions, maxBatchTokens int, logger *slog.Logger) *OpenAIEmbedder {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBatchTokens <= 0 {
		maxBatchTokens = 200_000 // stay well below provider's 300k cap
	}
	return &OpenAIEmbedder{
		client:         client,
		model:          strings.TrimSpace(model),
		dimensions:     dimensions,
		maxBatchTokens: maxBatchTokens,
		logger:         logger.With("component", "embedder.openai"),
	}
}

// Embed requests embeddings for the given texts.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	var (
		out         [][]float32
		batch       []string
		batchTokens int
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		resp, err := e.client.CreateEmbedding(ctx, chatgpt.EmbeddingRequest{
			Model:      e.model,
			Input:      batch,
			Dimensions: e.dimensions,
		})
		if err != nil {
			return fmt.Errorf("create embedding: %w", err)
		}
		if len(resp.Data) != len(batch) {
			return fmt.Errorf("embedding result count mismatch: expected %d, got %d", len(batch), len(resp.Data))
		}
		for _, item := range resp.Data {
			vec := make([]float32, len(item.Embedding))
			copy(vec, item.Embedding)
			out = append(out, vec)
		}
		batch = batch[:0]
		batchTokens = 0
		return nil
	}

	for _, text := range texts {
		tokens := e.countTokens(text)
		if tokens > e.maxBatchTokens {
			return nil, fmt.Errorf("text too large for embedding request: tokens=%d", tokens)
		}
		if batchTokens+tokens > e.maxBatchTokens && len(batch) > 0 {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		batch = append(batch, text)
		batchTokens += tokens
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *OpenAIEmbedder) countTokens(text string) int {
	e.encOnce.Do(func() {
		enc, err := tiktoken.EncodingForModel(e.model)
		if err != nil {
			enc, err = tiktoken.GetEncoding("cl100k_base")
		}
		if err != nil {
			e.logger.Warn("tokenizer unavailable, estimating tokens", "model", e.model, "error", err)
			return
		}
		e.enc = enc
	})
	if e.enc == nil {
		return estimateTokens(text)
	}
	return len(e.enc.Encode(text, nil, nil))
}

var _ questionsearch.Embedder = (*OpenAIEmbedder)(nil)

// estimateTokens provides a rough, upper-biased token count.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	runes := utf8.RuneCountInString(text)
	words := len(strings.Fields(text))
	// assume ~1 token per 2 runes and never below word count
	byRunes := (runes + 1) / 2
	if byRunes < words {
		return words
	}
	return byRunes
}
