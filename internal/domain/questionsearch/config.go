package questionsearch

import "time"

// Config defines the heuristics and limits for question search.
type Config struct {
	Segmenter       SegmenterConfig
	Ranker          RankerConfig
	DefaultResults  int
	MaxResults      int
	MaxPreviewChars int
	EmbeddingModel  string
	EmbedBatchSize  int
	Workers         int
	IncludeDeferred bool
	BuildTimeout    time.Duration
}

// DefaultConfig mirrors the production defaults.
func DefaultConfig() Config {
	return Config{
		Segmenter:       SegmenterConfig{MinRawChars: 50, MinCleanChars: 30, MinYield: 3},
		Ranker:          DefaultRankerConfig(),
		DefaultResults:  5,
		MaxResults:      20,
		MaxPreviewChars: 800,
		EmbeddingModel:  "paraphrase-MiniLM-L3-v2",
		EmbedBatchSize:  64,
		Workers:         4,
		BuildTimeout:    30 * time.Minute,
	}
}
