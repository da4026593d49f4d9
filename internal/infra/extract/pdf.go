package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/yanqian/papersearch/internal/domain/corpus"
)

// PDFExtractor reads per-page text straight from the PDF content streams.
type PDFExtractor struct {
	logger *slog.Logger
}

// NewPDFExtractor builds the native PDF extractor.
func NewPDFExtractor(logger *slog.Logger) *PDFExtractor {
	return &PDFExtractor{logger: logger.With("component", "extract.pdf")}
}

// ExtractPages returns one page per PDF page, keeping empty pages so numbering stays aligned.
func (e *PDFExtractor) ExtractPages(ctx context.Context, name string, data []byte) (pages []corpus.Page, err error) {
	// the parser panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("parse %s: %v", name, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	total := reader.NumPage()
	pages = make([]corpus.Page, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, corpus.Page{Number: i})
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Debug("page text failed", "name", name, "page", i, "error", err)
			text = ""
		}
		pages = append(pages, corpus.Page{Number: i, Text: strings.TrimRight(text, " \n")})
	}
	if total > 0 && blank(pages) {
		return nil, fmt.Errorf("no text layer in %s", name)
	}
	return pages, nil
}

func blank(pages []corpus.Page) bool {
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			return false
		}
	}
	return true
}

var _ corpus.Extractor = (*PDFExtractor)(nil)
