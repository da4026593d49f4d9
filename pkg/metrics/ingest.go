package metrics

import "time"

// IngestStats summarises one index build.
type IngestStats struct {
	Documents        int           `json:"documents"`
	FailedDocuments  int           `json:"failedDocuments"`
	Pages            int           `json:"pages"`
	Questions        int           `json:"questions"`
	EmbeddingsCached int           `json:"embeddingsCached"`
	EmbeddingsNew    int           `json:"embeddingsNew"`
	Duration         time.Duration `json:"duration"`
}
