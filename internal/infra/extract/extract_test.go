package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/papersearch/internal/domain/corpus"
)

func TestSplitPages(t *testing.T) {
	pages := splitPages("first\fsecond\f\fthird\f")
	require.Len(t, pages, 4)
	require.Equal(t, corpus.Page{Number: 1, Text: "first"}, pages[0])
	require.Equal(t, "", pages[2].Text)
	require.Equal(t, 4, pages[3].Number)
	require.Equal(t, "third", pages[3].Text)

	single := splitPages("only page")
	require.Len(t, single, 1)
}

type stubExtractor struct {
	pages []corpus.Page
	err   error
	calls int
}

func (s *stubExtractor) ExtractPages(ctx context.Context, name string, data []byte) ([]corpus.Page, error) {
	s.calls++
	return s.pages, s.err
}

func TestChain_FallsBack(t *testing.T) {
	first := &stubExtractor{err: errors.New("broken xref")}
	second := &stubExtractor{pages: []corpus.Page{{Number: 1, Text: "ok"}}}
	chain := NewChain(testLogger(), first, second)

	pages, err := chain.ExtractPages(context.Background(), "2019-paper1.pdf", []byte("%PDF"))
	require.NoError(t, err)
	require.Equal(t, "ok", pages[0].Text)
	require.Equal(t, 1, first.calls)
	require.Equal(t, 1, second.calls)
}

func TestChain_JoinsErrors(t *testing.T) {
	chain := NewChain(testLogger(),
		&stubExtractor{err: errors.New("a")},
		&stubExtractor{err: errors.New("b")},
	)
	_, err := chain.ExtractPages(context.Background(), "x.pdf", nil)
	require.ErrorContains(t, err, "a")
	require.ErrorContains(t, err, "b")
}

func TestChain_SkipsPDFReaderForOtherFormats(t *testing.T) {
	fallback := &stubExtractor{pages: []corpus.Page{{Number: 1, Text: "docx"}}}
	chain := NewChain(testLogger(), NewPDFExtractor(testLogger()), fallback)

	pages, err := chain.ExtractPages(context.Background(), "notes.docx", []byte("PK"))
	require.NoError(t, err)
	require.Equal(t, "docx", pages[0].Text)
}

func TestPDFExtractor_RejectsGarbage(t *testing.T) {
	_, err := NewPDFExtractor(testLogger()).ExtractPages(context.Background(), "bad.pdf", []byte("not a pdf"))
	require.Error(t, err)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
