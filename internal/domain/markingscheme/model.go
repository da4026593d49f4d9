package markingscheme

import (
	"time"

	"github.com/yanqian/papersearch/internal/domain/corpus"
)

// ContentType classifies the page a locate request resolved to.
type ContentType string

const (
	ContentSolution ContentType = "solution"
	ContentSummary  ContentType = "summary"
	ContentUnknown  ContentType = "unknown"
)

// Request asks for the page grading one question of a year's marking scheme.
type Request struct {
	Year           int  `json:"year"`
	Deferred       bool `json:"deferred,omitempty"`
	QuestionNumber int  `json:"questionNumber"`
}

// Result is the outcome of a locate request. Negative outcomes are encoded here rather
// than returned as errors: Found=false with Page 1 is the fallback, Unsupported marks
// years whose marking scheme layout is not searchable.
type Result struct {
	Document       corpus.Document `json:"document"`
	QuestionNumber int             `json:"questionNumber"`
	Page           int             `json:"page,omitempty"`
	Found          bool            `json:"found"`
	ContentType    ContentType     `json:"contentType"`
	MatchedText    string          `json:"matchedText,omitempty"`
	Message        string          `json:"message,omitempty"`
	Unsupported    bool            `json:"unsupported,omitempty"`
	Tier           string          `json:"tier,omitempty"`
}

// Config tunes the locator heuristics.
type Config struct {
	CutoffYear       int
	MinMathSymbols   int
	MinSolutionWords int
	MatchedTextChars int
	Timeout          time.Duration
}

// DefaultConfig mirrors the production defaults.
func DefaultConfig() Config {
	return Config{
		CutoffYear:       2000,
		MinMathSymbols:   3,
		MinSolutionWords: 2,
		MatchedTextChars: 100,
		Timeout:          20 * time.Second,
	}
}
