package extract

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/yanqian/papersearch/internal/domain/corpus"
)

// Chain tries extractors in order and returns the first usable result.
type Chain struct {
	extractors []corpus.Extractor
	logger     *slog.Logger
}

// NewChain wraps the given extractors.
func NewChain(logger *slog.Logger, extractors ...corpus.Extractor) *Chain {
	return &Chain{extractors: extractors, logger: logger.With("component", "extract.chain")}
}

// NewDefault prefers the native PDF reader and falls back to docconv for
// PDFs without a usable text layer and for other formats.
func NewDefault(logger *slog.Logger) *Chain {
	return NewChain(logger, NewPDFExtractor(logger), NewDocconvExtractor())
}

func (c *Chain) ExtractPages(ctx context.Context, name string, data []byte) ([]corpus.Page, error) {
	candidates := c.extractors
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		candidates = nonPDF(candidates)
	}
	if len(candidates) == 0 {
		return nil, errors.New("no extractor available for " + name)
	}

	var errs []error
	for _, ex := range candidates {
		pages, err := ex.ExtractPages(ctx, name, data)
		if err == nil {
			return pages, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Debug("extractor failed", "name", name, "error", err)
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

func nonPDF(in []corpus.Extractor) []corpus.Extractor {
	out := make([]corpus.Extractor, 0, len(in))
	for _, ex := range in {
		if _, ok := ex.(*PDFExtractor); ok {
			continue
		}
		out = append(out, ex)
	}
	return out
}

var _ corpus.Extractor = (*Chain)(nil)
