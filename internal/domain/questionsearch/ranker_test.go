package questionsearch

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/papersearch/internal/domain/corpus"
)

func TestRanker_WeightsFor(t *testing.T) {
	r := NewRanker(DefaultRankerConfig())

	require.Equal(t, Weights{Semantic: 0.6, Keyword: 0.4}, r.WeightsFor("Use the Pythagoras THEOREM"))
	require.Equal(t, Weights{Semantic: 0.6, Keyword: 0.4}, r.WeightsFor("quadratic formula"))
	require.Equal(t, Weights{Semantic: 0.7, Keyword: 0.3}, r.WeightsFor("area of a triangle"))
}

func TestRanker_CombinesScoresConvexly(t *testing.T) {
	ix := mustIndex(t,
		entry(2019, 1, "Prove the theorem of Pythagoras for a right angled triangle.", 1, 0, 0),
		entry(2019, 2, "Find the derivative of sin x.", 0, 1, 0),
		entry(2020, 1, "Calculate the area of a circle of radius 3.", 0.5, 0.5, 0),
	)
	r := NewRanker(DefaultRankerConfig())

	for _, query := range []string{"pythagoras theorem", "area of circle"} {
		results, err := r.Rank(ix, query, []float32{1, 0, 0}, 10)
		require.NoError(t, err)
		require.Len(t, results, 3)
		w := r.WeightsFor(query)
		for _, res := range results {
			want := w.Semantic*res.SemanticScore + w.Keyword*res.KeywordScore
			require.InDelta(t, want, res.CombinedScore, 1e-9)
			require.InDelta(t, KeywordScore(query, res.Question.Text), res.KeywordScore, 1e-9)
		}
		for i := 1; i < len(results); i++ {
			require.GreaterOrEqual(t, results[i-1].CombinedScore, results[i].CombinedScore)
		}
	}
}

func TestRanker_ResultCountBounds(t *testing.T) {
	ix := mustIndex(t,
		entry(2019, 1, "Alpha question text about vectors.", 1, 0, 0),
		entry(2019, 2, "Beta question text about matrices.", 0, 1, 0),
	)
	r := NewRanker(DefaultRankerConfig())

	results, err := r.Rank(ix, "vectors", []float32{1, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = r.Rank(ix, "vectors", []float32{1, 1, 0}, 50)
	require.NoError(t, err)
	require.Len(t, results, 2)
}

func TestRanker_TiesKeepIndexOrder(t *testing.T) {
	ix := mustIndex(t,
		entry(2019, 1, "Same text about probability.", 0, 1, 0),
		entry(2020, 1, "Same text about probability.", 0, 1, 0),
		entry(2021, 1, "Same text about probability.", 0, 1, 0),
	)
	r := NewRanker(DefaultRankerConfig())

	results, err := r.Rank(ix, "dice", []float32{0, 1, 0}, 3)
	require.NoError(t, err)
	require.Equal(t, 2019, results[0].Question.Document.Year)
	require.Equal(t, 2020, results[1].Question.Document.Year)
	require.Equal(t, 2021, results[2].Question.Document.Year)
}

func TestIndex_RejectsMixedDimensions(t *testing.T) {
	_, err := NewIndex("x", time.Now(), []IndexEntry{
		entry(2019, 1, "a", 1, 0, 0),
		{Question: Question{Text: "b"}, Vector: []float32{1, 0}},
	})
	require.Error(t, err)

	_, err = NewIndex("x", time.Now(), []IndexEntry{{Question: Question{Text: "c"}}})
	require.Error(t, err)
}

func TestIndex_QueryDimensionMismatch(t *testing.T) {
	ix := mustIndex(t, entry(2019, 1, "a", 1, 0, 0))
	_, err := ix.Similarities([]float32{1, 0})
	require.Error(t, err)
}

func TestIndex_Similarities(t *testing.T) {
	ix := mustIndex(t,
		entry(2019, 1, "a", 2, 4, 6),
		entry(2019, 2, "b", 0, 0, 1),
		entry(2019, 3, "c", -1, -2, -3),
		entry(2019, 4, "d", 0, 0, 0),
	)
	require.Equal(t, 3, ix.Dim())

	sims, err := ix.Similarities([]float32{1, 2, 3})
	require.NoError(t, err)
	require.InDelta(t, 1.0, sims[0], 1e-9)
	require.InDelta(t, 3/math.Sqrt(14), sims[1], 1e-9)
	require.InDelta(t, -1.0, sims[2], 1e-9)
	require.Equal(t, 0.0, sims[3])

	sims, err = ix.Similarities([]float32{0, 0, 0})
	require.NoError(t, err)
	for _, s := range sims {
		require.False(t, math.IsNaN(s))
		require.Equal(t, 0.0, s)
	}
}

func entry(year, number int, text string, vec ...float32) IndexEntry {
	return IndexEntry{
		Question: Question{
			Document: corpus.Document{Year: year, Kind: corpus.KindPaper, Paper: 1},
			Number:   number,
			Text:     text,
			Page:     1,
		},
		Vector: vec,
	}
}

func mustIndex(t *testing.T, entries ...IndexEntry) *Index {
	t.Helper()
	ix, err := NewIndex("test", time.Now(), entries)
	require.NoError(t, err)
	return ix
}
