package corpus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		key  string
		want Document
		ok   bool
	}{
		{"papers/2019-paper1.pdf", Document{Year: 2019, Kind: KindPaper, Paper: 1}, true},
		{"data/papers/2023-paper2.pdf", Document{Year: 2023, Kind: KindPaper, Paper: 2}, true},
		{"markingscheme/2015-markingscheme.pdf", Document{Year: 2015, Kind: KindMarkingScheme}, true},
		{"deferredpaper/2021-paper1.pdf", Document{Year: 2021, Kind: KindPaper, Paper: 1, Deferred: true}, true},
		{"deferredmarkingscheme/2021-markingscheme.pdf", Document{Year: 2021, Kind: KindMarkingScheme, Deferred: true}, true},
		{"papers/2019-markingscheme.pdf", Document{}, false},
		{"markingscheme/2019-paper1.pdf", Document{}, false},
		{"papers/notes.pdf", Document{}, false},
		{"other/2019-paper1.pdf", Document{}, false},
		{"2019-paper1.pdf", Document{}, false},
	}
	for _, tc := range tests {
		got, ok := ParseKey(tc.key)
		require.Equal(t, tc.ok, ok, tc.key)
		require.Equal(t, tc.want, got, tc.key)
	}
}

func TestDocumentKeyRoundTrip(t *testing.T) {
	docs := []Document{
		{Year: 2019, Kind: KindPaper, Paper: 1},
		{Year: 2005, Kind: KindMarkingScheme},
		{Year: 2021, Kind: KindPaper, Paper: 2, Deferred: true},
		{Year: 2021, Kind: KindMarkingScheme, Deferred: true},
	}
	for _, doc := range docs {
		got, ok := ParseKey(doc.Key())
		require.True(t, ok, doc.Key())
		require.Equal(t, doc, got)
	}
}
