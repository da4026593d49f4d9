package questionsearch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/papersearch/internal/domain/corpus"
	apperrors "github.com/yanqian/papersearch/pkg/errors"
	"github.com/yanqian/papersearch/pkg/metrics"
	"github.com/yanqian/papersearch/pkg/util"
)

// Service builds the question index and answers searches against it.
type Service interface {
	Build(ctx context.Context) (metrics.IngestStats, error)
	Search(ctx context.Context, query string, k int) ([]ScoredResult, error)
	Query(ctx context.Context, req SearchRequest) (SearchResponse, error)
	Status() Status
	RequestRebuild(ctx context.Context, reason string) (RebuildTicket, error)
	HandleJob(ctx context.Context, name string, payload map[string]any)
}

type service struct {
	cfg       Config
	loader    DocumentLoader
	embedder  Embedder
	cache     EmbeddingCache
	queue     JobQueue
	segmenter *Segmenter
	ranker    *Ranker
	logger    *slog.Logger

	buildMu  sync.Mutex
	index    atomic.Pointer[Index]
	statusMu sync.RWMutex
	status   Status
}

// NewService constructs the search service. cache and queue may be nil.
func NewService(cfg Config, loader DocumentLoader, embedder Embedder, cache EmbeddingCache, queue JobQueue, logger *slog.Logger) Service {
	return &service{
		cfg:       cfg,
		loader:    loader,
		embedder:  embedder,
		cache:     cache,
		queue:     queue,
		segmenter: NewSegmenter(cfg.Segmenter),
		ranker:    NewRanker(cfg.Ranker),
		logger:    logger.With("component", "questionsearch.service"),
		status:    Status{State: StateUninitialized, Message: "Not started"},
	}
}

// Build ingests every paper and atomically publishes a new index. Concurrent builds run
// one after another. On failure the previously published index keeps serving.
func (s *service) Build(ctx context.Context) (metrics.IngestStats, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	if s.cfg.BuildTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.BuildTimeout)
		defer cancel()
	}

	buildID := uuid.NewString()
	logger := s.logger.With("build_id", buildID)
	started := time.Now()
	s.updateStatus(func(st *Status) {
		st.State = StateBuilding
		st.Message = "Processing documents..."
		st.Reason = ""
		st.IsProcessing = true
	})
	logger.Info("index build started")

	ix, stats, err := s.build(ctx, buildID, logger)
	stats.Duration = time.Since(started)
	if err != nil {
		logger.Error("index build failed", "error", err, "duration_ms", stats.Duration.Milliseconds())
		s.updateStatus(func(st *Status) {
			st.State = StateFailed
			st.Reason = err.Error()
			st.Message = "Error: " + err.Error()
			st.IsProcessing = false
			st.Stats = stats
		})
		return stats, err
	}

	s.index.Store(ix)
	s.updateStatus(func(st *Status) {
		st.State = StateReady
		st.Message = fmt.Sprintf("Ready! Processed %d questions", ix.Len())
		st.Reason = ""
		st.IsProcessing = false
		st.Questions = ix.Len()
		st.Dimensions = ix.Dim()
		st.BuildID = ix.ID()
		st.BuiltAt = ix.BuiltAt()
		st.Stats = stats
	})
	logger.Info("index build finished",
		"documents", stats.Documents,
		"failed_documents", stats.FailedDocuments,
		"questions", stats.Questions,
		"dimensions", ix.Dim(),
		"embeddings_cached", stats.EmbeddingsCached,
		"duration_ms", stats.Duration.Milliseconds(),
	)
	return stats, nil
}

func (s *service) build(ctx context.Context, buildID string, logger *slog.Logger) (*Index, metrics.IngestStats, error) {
	var stats metrics.IngestStats

	docs, err := s.loader.Documents(ctx, corpus.KindPaper)
	if err != nil {
		return nil, stats, err
	}
	if !s.cfg.IncludeDeferred {
		filtered := docs[:0]
		for _, doc := range docs {
			if !doc.Deferred {
				filtered = append(filtered, doc)
			}
		}
		docs = filtered
	}
	if len(docs) == 0 {
		return nil, stats, apperrors.Wrap(apperrors.CodeDocumentNotFound, "no papers found in corpus", nil)
	}

	extractions, err := s.extractAll(ctx, docs)
	if err != nil {
		return nil, stats, err
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, apperrors.Wrap(apperrors.CodeTimeout, "index build interrupted", err)
	}

	questions := s.segmentAll(extractions, &stats, logger)
	stats.Questions = len(questions)
	if len(questions) == 0 {
		return nil, stats, apperrors.Wrap(apperrors.CodeExtraction, fmt.Sprintf("no questions extracted from %d documents", len(docs)), nil)
	}

	vectors, err := s.embedQuestions(ctx, questions, &stats, logger)
	if err != nil {
		return nil, stats, err
	}

	entries := make([]IndexEntry, len(questions))
	for i, q := range questions {
		entries[i] = IndexEntry{Question: q, Vector: vectors[i]}
	}
	ix, err := NewIndex(buildID, util.NowUTC(), entries)
	if err != nil {
		return nil, stats, apperrors.Wrap(apperrors.CodeModel, "invalid embeddings", err)
	}
	return ix, stats, nil
}

// Search ranks indexed questions against query and returns at most k results.
func (s *service) Search(ctx context.Context, query string, k int) ([]ScoredResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "query cannot be empty", nil)
	}
	if k <= 0 {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "number of results must be positive", nil)
	}
	ix := s.index.Load()
	if ix == nil {
		return nil, apperrors.Wrap(apperrors.CodeNotReady, s.notReadyMessage(), nil)
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeModel, "failed to embed query", err)
	}
	if len(vectors) != 1 {
		return nil, apperrors.Wrap(apperrors.CodeModel, fmt.Sprintf("embedder returned %d vectors for 1 query", len(vectors)), nil)
	}

	results, err := s.ranker.Rank(ix, query, vectors[0], k)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeModel, "failed to rank questions", err)
	}
	s.logger.Debug("search served", "results", len(results), "index", ix.ID())
	return results, nil
}

// Query applies result count defaults and caps, then flattens Search output for clients.
func (s *service) Query(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	k := req.NumResults
	switch {
	case k < 0:
		return SearchResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "numResults cannot be negative", nil)
	case k == 0:
		k = s.cfg.DefaultResults
	case s.cfg.MaxResults > 0 && k > s.cfg.MaxResults:
		k = s.cfg.MaxResults
	}

	results, err := s.Search(ctx, req.Query, k)
	if err != nil {
		return SearchResponse{}, err
	}

	hits := make([]SearchHit, len(results))
	for i, r := range results {
		q := r.Question
		hits[i] = SearchHit{
			Year:           q.Document.Year,
			Paper:          q.Document.Paper,
			Deferred:       q.Document.Deferred,
			QuestionNumber: q.Number,
			PageNumber:     q.Page,
			Filename:       q.Document.Filename(),
			Text:           util.TruncateRunes(q.Text, s.cfg.MaxPreviewChars),
			Similarity:     r.CombinedScore,
			SemanticScore:  r.SemanticScore,
			KeywordScore:   r.KeywordScore,
		}
	}
	return SearchResponse{
		Query:   strings.TrimSpace(req.Query),
		Weights: s.ranker.WeightsFor(req.Query),
		Results: hits,
	}, nil
}

// Status returns a copy of the lifecycle state.
func (s *service) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	st := s.status
	st.Ready = s.index.Load() != nil
	return st
}

// RequestRebuild enqueues a rebuild job.
func (s *service) RequestRebuild(ctx context.Context, reason string) (RebuildTicket, error) {
	if s.queue == nil {
		return RebuildTicket{}, apperrors.Wrap(apperrors.CodeStorage, "job queue unavailable", nil)
	}
	ticket := RebuildTicket{JobID: uuid.NewString(), Reason: strings.TrimSpace(reason)}
	if ticket.Reason == "" {
		ticket.Reason = "manual"
	}
	payload := map[string]any{"jobId": ticket.JobID, "reason": ticket.Reason}
	if err := s.queue.Enqueue(ctx, JobRebuildIndex, payload); err != nil {
		return RebuildTicket{}, apperrors.Wrap(apperrors.CodeStorage, "failed to enqueue rebuild", err)
	}
	s.logger.Info("index rebuild enqueued", "job_id", ticket.JobID, "reason", ticket.Reason)
	return ticket, nil
}

// HandleJob is the queue handler for rebuild jobs.
func (s *service) HandleJob(ctx context.Context, name string, payload map[string]any) {
	if name != JobRebuildIndex {
		s.logger.Warn("ignoring unknown job", "name", name)
		return
	}
	jobID, _ := payload["jobId"].(string)
	reason, _ := payload["reason"].(string)
	s.logger.Info("rebuild job received", "job_id", jobID, "reason", reason)
	if _, err := s.Build(ctx); err != nil {
		s.logger.Error("rebuild job failed", "job_id", jobID, "error", err)
	}
}

func (s *service) updateStatus(fn func(*Status)) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	fn(&s.status)
}

func (s *service) notReadyMessage() string {
	st := s.Status()
	switch st.State {
	case StateBuilding:
		return "index is still building"
	case StateFailed:
		return "index build failed: " + st.Reason
	default:
		return "index has not been built"
	}
}
