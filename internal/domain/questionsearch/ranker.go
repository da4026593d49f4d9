package questionsearch

import (
	"sort"
	"strings"
)

// Weights is the convex combination applied to semantic and keyword scores.
type Weights struct {
	Semantic float64 `json:"semantic"`
	Keyword  float64 `json:"keyword"`
}

// RankerConfig selects the weights. Queries mentioning any of TermWords, such as named
// theorems or formulas, lean further on keyword overlap.
type RankerConfig struct {
	Default   Weights
	Term      Weights
	TermWords []string
}

// DefaultRankerConfig returns the stock weighting.
func DefaultRankerConfig() RankerConfig {
	return RankerConfig{
		Default:   Weights{Semantic: 0.7, Keyword: 0.3},
		Term:      Weights{Semantic: 0.6, Keyword: 0.4},
		TermWords: []string{"theorem", "formula", "rule", "law", "principle", "identity", "equation", "inequality"},
	}
}

// Ranker combines embedding similarity with keyword overlap.
type Ranker struct {
	cfg RankerConfig
}

// NewRanker constructs a ranker.
func NewRanker(cfg RankerConfig) *Ranker {
	terms := make([]string, 0, len(cfg.TermWords))
	for _, term := range cfg.TermWords {
		if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
			terms = append(terms, term)
		}
	}
	cfg.TermWords = terms
	return &Ranker{cfg: cfg}
}

// WeightsFor picks the weights for a query.
func (r *Ranker) WeightsFor(query string) Weights {
	lower := strings.ToLower(query)
	for _, term := range r.cfg.TermWords {
		if strings.Contains(lower, term) {
			return r.cfg.Term
		}
	}
	return r.cfg.Default
}

// Rank scores every entry of ix and returns the top k, highest combined score first.
// Equal scores keep index order.
func (r *Ranker) Rank(ix *Index, query string, queryVec []float32, k int) ([]ScoredResult, error) {
	sims, err := ix.Similarities(queryVec)
	if err != nil {
		return nil, err
	}
	weights := r.WeightsFor(query)
	prepared := prepareQuery(query)

	results := make([]ScoredResult, len(sims))
	for i, sim := range sims {
		kw := prepared.score(ix.keywords[i])
		results[i] = ScoredResult{
			Question:      ix.entries[i].Question,
			SemanticScore: sim,
			KeywordScore:  kw,
			CombinedScore: weights.Semantic*sim + weights.Keyword*kw,
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CombinedScore > results[j].CombinedScore
	})
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}
