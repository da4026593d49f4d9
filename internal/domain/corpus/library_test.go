package corpus

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/papersearch/pkg/errors"
)

func TestLibraryDocumentsFiltersAndSorts(t *testing.T) {
	src := &fakeSource{files: map[string]string{
		"papers/2020-paper2.pdf":               "",
		"papers/2019-paper1.pdf":               "",
		"papers/2020-paper1.pdf":               "",
		"markingscheme/2020-markingscheme.pdf": "",
		"papers/readme.txt":                    "",
	}}
	lib := NewLibrary(src, &fakeExtractor{}, testLogger())

	docs, err := lib.Documents(context.Background(), KindPaper)
	require.NoError(t, err)
	require.Equal(t, []Document{
		{Year: 2019, Kind: KindPaper, Paper: 1},
		{Year: 2020, Kind: KindPaper, Paper: 1},
		{Year: 2020, Kind: KindPaper, Paper: 2},
	}, docs)
}

func TestBuildListing(t *testing.T) {
	docs := []Document{
		{Year: 2019, Kind: KindPaper, Paper: 2},
		{Year: 2019, Kind: KindPaper, Paper: 1},
		{Year: 2021, Kind: KindPaper, Paper: 1},
		{Year: 2021, Kind: KindMarkingScheme},
		{Year: 2022, Kind: KindPaper, Paper: 1, Deferred: true},
		{Year: 2018, Kind: KindMarkingScheme},
	}

	got := BuildListing(docs, false)
	require.Len(t, got, 2)
	require.Equal(t, 2021, got[0].Year)
	require.True(t, got[0].HasMarkingScheme)
	require.Equal(t, 2019, got[1].Year)
	require.False(t, got[1].HasMarkingScheme)
	require.Equal(t, 1, got[1].Papers[0].Paper)
	require.Equal(t, 2, got[1].Papers[1].Paper)

	withDeferred := BuildListing(docs, true)
	require.Equal(t, 2022, withDeferred[0].Year)
}

func TestLibraryPagesRenumbers(t *testing.T) {
	src := &fakeSource{files: map[string]string{"papers/2019-paper1.pdf": "a\fb"}}
	extractor := &fakeExtractor{pages: []Page{{Number: 7, Text: "a"}, {Number: 9, Text: "b"}}}
	lib := NewLibrary(src, extractor, testLogger())

	pages, err := lib.Pages(context.Background(), Document{Year: 2019, Kind: KindPaper, Paper: 1})
	require.NoError(t, err)
	require.Equal(t, []Page{{Number: 1, Text: "a"}, {Number: 2, Text: "b"}}, pages)
	require.Equal(t, "2019-paper1.pdf", extractor.lastName)
}

func TestLibraryPagesErrors(t *testing.T) {
	lib := NewLibrary(&fakeSource{files: map[string]string{}}, &fakeExtractor{}, testLogger())
	_, err := lib.Pages(context.Background(), Document{Year: 2019, Kind: KindPaper, Paper: 1})
	require.True(t, apperrors.IsCode(err, apperrors.CodeDocumentNotFound))

	broken := NewLibrary(
		&fakeSource{files: map[string]string{"papers/2019-paper1.pdf": "junk"}},
		&fakeExtractor{err: errors.New("bad xref")},
		testLogger(),
	)
	_, err = broken.Pages(context.Background(), Document{Year: 2019, Kind: KindPaper, Paper: 1})
	require.True(t, apperrors.IsCode(err, apperrors.CodeExtraction))
	require.Contains(t, err.Error(), "bad xref")
}

type fakeSource struct {
	files map[string]string
}

func (s *fakeSource) List(context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.files))
	for k := range s.files {
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *fakeSource) Open(_ context.Context, key string) (Object, error) {
	body, ok := s.files[key]
	if !ok {
		return Object{}, apperrors.Wrap(apperrors.CodeDocumentNotFound, "missing "+key, nil)
	}
	return Object{Body: io.NopCloser(strings.NewReader(body)), Size: int64(len(body))}, nil
}

type fakeExtractor struct {
	pages    []Page
	err      error
	lastName string
}

func (e *fakeExtractor) ExtractPages(_ context.Context, name string, data []byte) ([]Page, error) {
	e.lastName = name
	if e.err != nil {
		return nil, e.err
	}
	if e.pages != nil {
		return e.pages, nil
	}
	var pages []Page
	for i, part := range bytes.Split(data, []byte("\f")) {
		pages = append(pages, Page{Number: i + 1, Text: string(part)})
	}
	return pages, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
