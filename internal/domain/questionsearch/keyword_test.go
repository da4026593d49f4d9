package questionsearch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Pythagoras’ Theorem!", "pythagoras' theorem"},
		{"  f(x) = 3x^2\n\t+ 1 ", "f x 3x 2 1"},
		{"Don`t  STOP", "don't stop"},
		{"area_of-triangle", "area_of triangle"},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, Normalize(tc.in), tc.in)
	}
}

func TestQueryTerms(t *testing.T) {
	got := QueryTerms("Find the area of a triangle using the sine rule")
	require.Equal(t, []string{"area", "triangle", "using", "sine", "rule"}, got)
}

func TestKeywordScore(t *testing.T) {
	tests := []struct {
		name  string
		query string
		text  string
		want  float64
	}{
		{"no significant terms", "find the x", "find the x value", 0},
		{"phrase and exact", "quadratic equation", "Solve the quadratic equation x^2 = 4.", 0.8},
		{"exact only", "circle radius", "The radius of the circle is 5 cm.", 0.3},
		{"phrase with partial", "integral", "Evaluate the integrals below.", 0.6},
		{"partial only", "integral sequence", "Evaluate the integrals of each sequence.", 0.15 + 0.05},
		{"no overlap", "probability", "Differentiate y = x^3.", 0},
	}
	for _, tc := range tests {
		require.InDelta(t, tc.want, KeywordScore(tc.query, tc.text), 1e-9, tc.name)
	}
}

func TestKeywordScoreBounds(t *testing.T) {
	queries := []string{"", "the", "complex numbers argand diagram", "sum of geometric series", "x"}
	texts := []string{"", "Plot z on an Argand diagram.", "complex numbers argand diagram complex numbers", "Find the sum."}
	for _, q := range queries {
		for _, text := range texts {
			got := KeywordScore(q, text)
			require.GreaterOrEqual(t, got, 0.0, "%q/%q", q, text)
			require.LessOrEqual(t, got, 1.0, "%q/%q", q, text)
		}
	}
}
