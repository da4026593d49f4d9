package markingscheme

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/papersearch/internal/domain/corpus"
)

func TestLocator_ModelSolutionBeatsOverview(t *testing.T) {
	pages := []corpus.Page{
		{Number: 1, Text: "Section A — Answer all questions"},
		{Number: 2, Text: "Q3 Model Solution – 25 Marks\nMethod: correct substitution, Marks: 10"},
	}

	res, err := NewLocator(DefaultConfig()).Locate(context.Background(), pages, 3)
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Equal(t, 2, res.Page)
	require.Equal(t, ContentSolution, res.ContentType)
	require.Equal(t, "Q3 Model Solution – 25 Marks", res.MatchedText)
}

func TestLocator_ModelSolutionSeparators(t *testing.T) {
	variants := []string{
		"Q.4 Model Solution",
		"q 4 - model solution",
		"Q4. Model Solution",
		"Question 4 Model Solution",
		"Q4\nModel Solution",
	}
	for _, heading := range variants {
		pages := []corpus.Page{
			{Number: 1, Text: "cover page"},
			{Number: 2, Text: heading + "\nScale 10C (0, 4, 7, 10)"},
		}
		res, err := NewLocator(DefaultConfig()).Locate(context.Background(), pages, 4)
		require.NoError(t, err, heading)
		require.True(t, res.Found, heading)
		require.Equal(t, 2, res.Page, heading)
	}
}

func TestLocator_DoesNotConfuseMultiDigitNumbers(t *testing.T) {
	pages := []corpus.Page{
		{Number: 1, Text: "Q10 Model Solution\nMarks: 5, method shown"},
		{Number: 2, Text: "Q1 Model Solution\nMarks: 10, method shown"},
	}

	res, err := NewLocator(DefaultConfig()).Locate(context.Background(), pages, 1)
	require.NoError(t, err)
	require.Equal(t, 2, res.Page)

	res, err = NewLocator(DefaultConfig()).Locate(context.Background(), pages, 10)
	require.NoError(t, err)
	require.Equal(t, 1, res.Page)
}

func TestLocator_ModelSolutionNeedsEvidence(t *testing.T) {
	pages := []corpus.Page{
		{Number: 1, Text: "Contents\nQ2 Model Solution ........ 14"},
	}
	res, err := NewLocator(DefaultConfig()).Locate(context.Background(), pages, 2)
	require.NoError(t, err)
	require.False(t, res.Found)
	require.Equal(t, 1, res.Page)
}

func TestLocator_QuestionReferenceSkipsOverviewPages(t *testing.T) {
	pages := []corpus.Page{
		{Number: 1, Text: "Instructions\nSection A: answer all questions\nQ1 25 marks\nQ2 25 marks"},
		{Number: 2, Text: "Q1\n(a) x = 3 + 2 = 5\nScale 5C (0, 2, 5)\nPartial credit: one correct step"},
	}

	res, err := NewLocator(DefaultConfig()).Locate(context.Background(), pages, 1)
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Equal(t, 2, res.Page)
	require.Equal(t, ContentSolution, res.ContentType)
	require.Equal(t, "Q1", res.MatchedText)
}

func TestLocator_SummaryContent(t *testing.T) {
	pages := []corpus.Page{
		{Number: 1, Text: "Mark allocation table\nQ5   25 marks   (a) 10 (b) 15 = 25"},
	}

	res, err := NewLocator(DefaultConfig()).Locate(context.Background(), pages, 5)
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Equal(t, ContentSummary, res.ContentType)
}

func TestLocator_RejectsPagesWithoutEvidence(t *testing.T) {
	pages := []corpus.Page{
		{Number: 1, Text: "Cover"},
		{Number: 2, Text: "Q4 appears here with nothing else"},
	}

	res, err := NewLocator(DefaultConfig()).Locate(context.Background(), pages, 4)
	require.NoError(t, err)
	require.False(t, res.Found)
	require.Equal(t, 1, res.Page)
	require.Equal(t, ContentUnknown, res.ContentType)
	require.Equal(t, "Question 4 not found, showing first page", res.Message)
}

func TestLocator_ConfigurableFloors(t *testing.T) {
	pages := []corpus.Page{{Number: 1, Text: "Q4 appears here with nothing else"}}
	cfg := DefaultConfig()
	cfg.MinMathSymbols = 0
	cfg.MinSolutionWords = 0

	res, err := NewLocator(cfg).Locate(context.Background(), pages, 4)
	require.NoError(t, err)
	require.True(t, res.Found)
	require.Equal(t, ContentSummary, res.ContentType)
}

func TestLocator_NumberedLines(t *testing.T) {
	pages := []corpus.Page{
		{Number: 1, Text: "Marking notes\n3.5 marks awarded"},
		{Number: 2, Text: "3. Method: f(x) = 2x + 1, f(2) = 5\nscale 10D"},
	}

	res, err := NewLocator(DefaultConfig()).Locate(context.Background(), pages, 3)
	require.NoError(t, err)
	require.Equal(t, 2, res.Page)
}

func TestLocator_MidLineReferenceNeedsContextWord(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		found bool
	}{
		{name: "marks on the line", line: "Refer to Q3 for marks", found: true},
		{name: "scale on the line", line: "Apply scale 10C to question 3", found: true},
		{name: "no context word", line: "Refer to Q3 next", found: false},
		{name: "context on another line only", line: "See question 3 below", found: false},
	}
	for _, tc := range tests {
		pages := []corpus.Page{
			{Number: 1, Text: "Cover"},
			{Number: 2, Text: tc.line + "\nMethod: x = 2 + 1\nscale 5C"},
		}
		res, err := NewLocator(DefaultConfig()).Locate(context.Background(), pages, 3)
		require.NoError(t, err, tc.name)
		require.Equal(t, tc.found, res.Found, tc.name)
		if tc.found {
			require.Equal(t, 2, res.Page, tc.name)
			require.Equal(t, ContentSolution, res.ContentType, tc.name)
			require.Equal(t, tc.line, res.MatchedText, tc.name)
		} else {
			require.Equal(t, 1, res.Page, tc.name)
		}
	}
}

func TestLocator_IgnoresGluedReferences(t *testing.T) {
	pages := []corpus.Page{
		{Number: 1, Text: "See faq3 for marks, method and solution scale = + -"},
	}

	res, err := NewLocator(DefaultConfig()).Locate(context.Background(), pages, 3)
	require.NoError(t, err)
	require.False(t, res.Found)
}

func TestLocator_HonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLocator(DefaultConfig()).Locate(ctx, []corpus.Page{{Number: 1, Text: "x"}}, 1)
	require.ErrorIs(t, err, context.Canceled)
}
