package questionsearch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/yanqian/papersearch/internal/domain/corpus"
	apperrors "github.com/yanqian/papersearch/pkg/errors"
	"github.com/yanqian/papersearch/pkg/metrics"
)

type extraction struct {
	doc   corpus.Document
	pages []corpus.Page
	err   error
}

// extractAll loads the pages of every document on a bounded worker pool. Results keep the
// order of docs.
func (s *service) extractAll(ctx context.Context, docs []corpus.Document) ([]extraction, error) {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("create extraction pool: %w", err)
	}
	defer pool.Release()

	results := make([]extraction, len(docs))
	var wg sync.WaitGroup
	for i, doc := range docs {
		results[i].doc = doc
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if ctxErr := ctx.Err(); ctxErr != nil {
				results[i].err = ctxErr
				return
			}
			results[i].pages, results[i].err = s.loader.Pages(ctx, doc)
		})
		if err != nil {
			wg.Done()
			results[i].err = err
		}
	}
	wg.Wait()
	return results, nil
}

// segmentAll turns extracted documents into numbered questions, skipping failed documents.
func (s *service) segmentAll(extractions []extraction, stats *metrics.IngestStats, logger *slog.Logger) []Question {
	var questions []Question
	for _, ex := range extractions {
		if ex.err != nil {
			stats.FailedDocuments++
			logger.Warn("skipping document", "key", ex.doc.Key(), "error", ex.err)
			continue
		}
		stats.Documents++
		stats.Pages += len(ex.pages)
		segments := s.segmenter.Segment(ex.pages)
		for i, seg := range segments {
			questions = append(questions, Question{
				Document: ex.doc,
				Number:   i + 1,
				Text:     seg.Text,
				Page:     seg.Page,
			})
		}
		logger.Debug("document segmented", "key", ex.doc.Key(), "pages", len(ex.pages), "questions", len(segments))
	}
	return questions
}

// embedQuestions resolves a vector for every question, reusing cached vectors when possible.
func (s *service) embedQuestions(ctx context.Context, questions []Question, stats *metrics.IngestStats, logger *slog.Logger) ([][]float32, error) {
	keys := make([]string, len(questions))
	for i, q := range questions {
		keys[i] = contentKey(q.Text)
	}

	cached := map[string][]float32{}
	if s.cache != nil {
		found, err := s.cache.Lookup(ctx, s.cfg.EmbeddingModel, uniqueStrings(keys))
		if err != nil {
			logger.Warn("embedding cache lookup failed", "error", err)
		} else if found != nil {
			cached = found
		}
	}

	var missing []string
	pending := make(map[string]struct{})
	for i, key := range keys {
		if _, ok := cached[key]; ok {
			continue
		}
		if _, ok := pending[key]; ok {
			continue
		}
		pending[key] = struct{}{}
		missing = append(missing, questions[i].Text)
	}

	fresh := make(map[string][]float32, len(missing))
	batch := s.cfg.EmbedBatchSize
	if batch <= 0 {
		batch = len(missing)
	}
	for start := 0; start < len(missing); start += batch {
		end := min(start+batch, len(missing))
		vectors, err := s.embedder.Embed(ctx, missing[start:end])
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeModel, "failed to embed questions", err)
		}
		if len(vectors) != end-start {
			return nil, apperrors.Wrap(apperrors.CodeModel, fmt.Sprintf("embedder returned %d vectors for %d texts", len(vectors), end-start), nil)
		}
		for j, vec := range vectors {
			fresh[contentKey(missing[start+j])] = vec
		}
	}

	if s.cache != nil && len(fresh) > 0 {
		if err := s.cache.Store(ctx, s.cfg.EmbeddingModel, fresh); err != nil {
			logger.Warn("embedding cache store failed", "error", err)
		}
	}

	out := make([][]float32, len(questions))
	for i, key := range keys {
		if vec, ok := fresh[key]; ok {
			out[i] = vec
			stats.EmbeddingsNew++
			continue
		}
		out[i] = cached[key]
		stats.EmbeddingsCached++
	}
	return out, nil
}

func contentKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
