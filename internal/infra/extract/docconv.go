package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"code.sajari.com/docconv/v2"

	"github.com/yanqian/papersearch/internal/domain/corpus"
)

// DocconvExtractor converts documents with docconv and splits the body on form feeds.
type DocconvExtractor struct{}

// NewDocconvExtractor builds the docconv-backed extractor.
func NewDocconvExtractor() *DocconvExtractor {
	return &DocconvExtractor{}
}

func (e *DocconvExtractor) ExtractPages(ctx context.Context, name string, data []byte) ([]corpus.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := docconv.Convert(bytes.NewReader(data), docconv.MimeTypeByExtension(name), false)
	if err != nil {
		return nil, fmt.Errorf("failed to convert document: %w", err)
	}
	pages := splitPages(res.Body)
	if len(pages) == 0 || blank(pages) {
		return nil, fmt.Errorf("no text extracted from %s", name)
	}
	return pages, nil
}

// splitPages treats each form feed as a page break. A trailing empty page is dropped.
func splitPages(body string) []corpus.Page {
	parts := strings.Split(body, "\f")
	if len(parts) > 1 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	pages := make([]corpus.Page, 0, len(parts))
	for i, part := range parts {
		pages = append(pages, corpus.Page{Number: i + 1, Text: part})
	}
	return pages
}

var _ corpus.Extractor = (*DocconvExtractor)(nil)
