package questionsearch

import (
	"fmt"
	"math"
	"time"
)

// Index is an immutable snapshot of embedded questions. A rebuild creates a new Index.
type Index struct {
	id       string
	builtAt  time.Time
	dim      int
	entries  []IndexEntry
	norms    []float64
	keywords []keywordDocument
}

// NewIndex validates the entries and precomputes norms and keyword tokens.
func NewIndex(id string, builtAt time.Time, entries []IndexEntry) (*Index, error) {
	ix := &Index{
		id:       id,
		builtAt:  builtAt,
		entries:  entries,
		norms:    make([]float64, len(entries)),
		keywords: make([]keywordDocument, len(entries)),
	}
	for i, entry := range entries {
		if len(entry.Vector) == 0 {
			return nil, fmt.Errorf("entry %d has an empty embedding", i)
		}
		if ix.dim == 0 {
			ix.dim = len(entry.Vector)
		} else if len(entry.Vector) != ix.dim {
			return nil, fmt.Errorf("entry %d has dimension %d, expected %d", i, len(entry.Vector), ix.dim)
		}
		ix.norms[i] = norm(entry.Vector)
		ix.keywords[i] = newKeywordDocument(entry.Question.Text)
	}
	return ix, nil
}

// Len reports the number of indexed questions.
func (ix *Index) Len() int { return len(ix.entries) }

// Dim reports the embedding dimension, 0 for an empty index.
func (ix *Index) Dim() int { return ix.dim }

// ID identifies the build that produced the snapshot.
func (ix *Index) ID() string { return ix.id }

// BuiltAt is when the snapshot was published.
func (ix *Index) BuiltAt() time.Time { return ix.builtAt }

// Similarities computes the cosine similarity of query against every entry.
func (ix *Index) Similarities(query []float32) ([]float64, error) {
	if len(ix.entries) > 0 && len(query) != ix.dim {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), ix.dim)
	}
	qNorm := norm(query)
	sims := make([]float64, len(ix.entries))
	for i, entry := range ix.entries {
		sims[i] = cosine(query, entry.Vector, qNorm, ix.norms[i])
	}
	return sims, nil
}

func cosine(a, b []float32, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
