package questionsearch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/papersearch/internal/domain/corpus"
)

func TestSegmenter_TwoQuestionHeaders(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{MinYield: 3})
	pages := []corpus.Page{{Number: 1, Text: "Question 1 (25 marks)\nFind x.\nQuestion 2 (30 marks)\nProve y."}}

	got := seg.Segment(pages)
	require.Len(t, got, 2)
	require.True(t, strings.HasPrefix(got[0].Text, "Find x."), got[0].Text)
	require.True(t, strings.HasPrefix(got[1].Text, "Prove y."), got[1].Text)
	for _, s := range got {
		require.Equal(t, 1, s.Page)
	}
}

func TestSegmenter_DefaultThresholdsDropShortFragments(t *testing.T) {
	seg := NewSegmenter(DefaultConfig().Segmenter)
	pages := []corpus.Page{{Number: 1, Text: "Question 1 (25 marks)\nFind x.\nQuestion 2 (30 marks)\nProve y."}}

	require.Empty(t, seg.Segment(pages))
}

func TestSegmenter_AttributesPagesAcrossBoundaries(t *testing.T) {
	seg := NewSegmenter(DefaultConfig().Segmenter)
	pages := []corpus.Page{
		{Number: 1, Text: "LEAVING CERTIFICATE EXAMINATION\nMathematics Paper 1\nQuestion 1 (25 marks)\nThe function f is defined as f(x) = 3x^2 - 2x + 1 for all real x values.\n"},
		{Number: 2, Text: "Question 2 (30 marks)\nA sequence is given by u_n = 2n + 5. Determine the sum of the first ten terms.\nPage 2 of 12\nQuestion 3 (25 marks)\nA circle has centre (2, -1) and passes through the point (5, 3). Write its equation.\n"},
	}

	got := seg.Segment(pages)
	require.Len(t, got, 3)
	wantPages := []int{1, 2, 2}
	for i, s := range got {
		require.Equal(t, wantPages[i], s.Page, "segment %d", i)
		require.NotContains(t, strings.ToLower(s.Text), "marks", "segment %d kept boilerplate", i)
		require.NotContains(t, s.Text, "Page 2 of 12", "segment %d kept boilerplate", i)
	}
	require.True(t, strings.HasPrefix(got[0].Text, "The function f"), got[0].Text)
	require.True(t, strings.HasPrefix(got[2].Text, "A circle has centre"), got[2].Text)
}

func TestSegmenter_FallsBackToSubpartNumbering(t *testing.T) {
	seg := NewSegmenter(DefaultConfig().Segmenter)
	text := strings.Join([]string{
		"1. (a) Solve the quadratic equation x^2 - 5x + 6 = 0 and verify both roots.",
		"(b) Sketch it.",
		"2. (a) Differentiate the function y = sin(2x) with respect to x carefully.",
		"3. (a) Evaluate the definite integral of 2x from 0 to 3 showing all work.",
	}, "\n")

	got := seg.Segment([]corpus.Page{{Number: 1, Text: text}})
	require.Len(t, got, 3)
	require.True(t, strings.HasPrefix(got[0].Text, "1. (a) Solve"), got[0].Text)
	require.Contains(t, got[0].Text, "(b) Sketch it.")
	require.True(t, strings.HasPrefix(got[2].Text, "3. (a) Evaluate"), got[2].Text)
}

func TestSegmenter_PagesMonotoneAndInRange(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{MinYield: 3})
	var pages []corpus.Page
	for i := 1; i <= 6; i++ {
		var b strings.Builder
		for j := 0; j < 2; j++ {
			b.WriteString("Question 9 (10 marks)\nConsider the polynomial p(x) and determine all of its real roots.\n")
		}
		pages = append(pages, corpus.Page{Number: i, Text: b.String()})
	}

	got := seg.Segment(pages)
	require.Len(t, got, 12)
	prevPage, prevOffset := 0, -1
	for i, s := range got {
		require.GreaterOrEqual(t, s.Page, 1, "segment %d", i)
		require.LessOrEqual(t, s.Page, len(pages), "segment %d", i)
		require.GreaterOrEqual(t, s.Page, prevPage, "segment %d page went backwards", i)
		require.Greater(t, s.Offset, prevOffset, "segment %d offset went backwards", i)
		prevPage, prevOffset = s.Page, s.Offset
	}
	require.Equal(t, 1, got[0].Page)
	require.Equal(t, 6, got[11].Page)
}

func TestSegmenter_EmptyInput(t *testing.T) {
	require.Nil(t, NewSegmenter(DefaultConfig().Segmenter).Segment(nil))
}

func TestPageAt(t *testing.T) {
	pages := []corpus.Page{{Number: 1}, {Number: 2}, {Number: 3}}
	boundaries := []int{10, 20, 30}
	tests := []struct{ offset, want int }{
		{0, 1}, {9, 1}, {10, 2}, {19, 2}, {29, 3}, {45, 3},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, pageAt(pages, boundaries, tc.offset), "offset %d", tc.offset)
	}
}
