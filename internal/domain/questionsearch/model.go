package questionsearch

import (
	"time"

	"github.com/yanqian/papersearch/internal/domain/corpus"
	"github.com/yanqian/papersearch/pkg/metrics"
)

// JobRebuildIndex is the queue job name that triggers a full index build.
const JobRebuildIndex = "rebuild_index"

// Question is one segmented, independently searchable unit of a paper.
type Question struct {
	Document corpus.Document `json:"document"`
	Number   int             `json:"questionNumber"`
	Text     string          `json:"text"`
	Page     int             `json:"pageNumber"`
}

// IndexEntry pairs a question with its embedding.
type IndexEntry struct {
	Question Question
	Vector   []float32
}

// ScoredResult is a question ranked against one query.
type ScoredResult struct {
	Question      Question `json:"question"`
	SemanticScore float64  `json:"semanticScore"`
	KeywordScore  float64  `json:"keywordScore"`
	CombinedScore float64  `json:"combinedScore"`
}

// SearchRequest is the transport facing search input. NumResults 0 selects the default.
type SearchRequest struct {
	Query      string `json:"query"`
	NumResults int    `json:"numResults"`
}

// SearchHit flattens a ScoredResult for clients.
type SearchHit struct {
	Year           int     `json:"year"`
	Paper          int     `json:"paper"`
	Deferred       bool    `json:"deferred,omitempty"`
	QuestionNumber int     `json:"questionNumber"`
	PageNumber     int     `json:"pageNumber"`
	Filename       string  `json:"filename"`
	Text           string  `json:"text"`
	Similarity     float64 `json:"similarity"`
	SemanticScore  float64 `json:"semanticScore"`
	KeywordScore   float64 `json:"keywordScore"`
}

// SearchResponse is returned by Query.
type SearchResponse struct {
	Query   string      `json:"query"`
	Weights Weights     `json:"weights"`
	Results []SearchHit `json:"results"`
}

// State is the lifecycle of the question index.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateBuilding      State = "building"
	StateReady         State = "ready"
	StateFailed        State = "failed"
)

// Status reports the lifecycle state. Ready is true whenever a built index is being served,
// which stays the case while a rebuild runs or after a rebuild fails.
type Status struct {
	State        State               `json:"state"`
	Message      string              `json:"status"`
	Reason       string              `json:"reason,omitempty"`
	IsProcessing bool                `json:"isProcessing"`
	Ready        bool                `json:"ready"`
	Questions    int                 `json:"questions"`
	Dimensions   int                 `json:"dimensions,omitempty"`
	BuildID      string              `json:"buildId,omitempty"`
	BuiltAt      time.Time           `json:"builtAt,omitempty"`
	Stats        metrics.IngestStats `json:"stats"`
}

// RebuildTicket acknowledges an enqueued rebuild.
type RebuildTicket struct {
	JobID  string `json:"jobId"`
	Reason string `json:"reason"`
}
