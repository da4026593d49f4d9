package markingscheme

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yanqian/papersearch/internal/domain/corpus"
	apperrors "github.com/yanqian/papersearch/pkg/errors"
)

// PageLoader extracts the pages of a corpus document.
type PageLoader interface {
	Pages(ctx context.Context, doc corpus.Document) ([]corpus.Page, error)
}

// Service resolves question numbers to marking scheme pages.
type Service interface {
	Locate(ctx context.Context, req Request) (Result, error)
}

type service struct {
	cfg     Config
	loader  PageLoader
	locator *Locator
	logger  *slog.Logger
}

// NewService constructs the marking scheme service.
func NewService(cfg Config, loader PageLoader, logger *slog.Logger) Service {
	return &service{
		cfg:     cfg,
		loader:  loader,
		locator: NewLocator(cfg),
		logger:  logger.With("component", "markingscheme.service"),
	}
}

// Locate finds the page grading req.QuestionNumber. Years up to the cutoff are answered
// with an unsupported result without opening the document.
func (s *service) Locate(ctx context.Context, req Request) (Result, error) {
	if req.QuestionNumber <= 0 {
		return Result{}, apperrors.Wrap(apperrors.CodeInvalidInput, "question number must be positive", nil)
	}
	if req.Year <= 0 {
		return Result{}, apperrors.Wrap(apperrors.CodeInvalidInput, "year must be positive", nil)
	}

	doc := corpus.Document{Year: req.Year, Kind: corpus.KindMarkingScheme, Deferred: req.Deferred}
	if req.Year <= s.cfg.CutoffYear {
		return Result{
			Document:       doc,
			QuestionNumber: req.QuestionNumber,
			ContentType:    ContentUnknown,
			Unsupported:    true,
			Message:        fmt.Sprintf("Marking scheme lookup is not supported for %d and earlier", s.cfg.CutoffYear),
		}, nil
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	pages, err := s.loader.Pages(ctx, doc)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{}, apperrors.Wrap(apperrors.CodeTimeout, "marking scheme extraction timed out", err)
		}
		return Result{}, err
	}

	res, err := s.locator.Locate(ctx, pages, req.QuestionNumber)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{}, apperrors.Wrap(apperrors.CodeTimeout, "marking scheme scan timed out", err)
		}
		return Result{}, fmt.Errorf("marking scheme scan: %w", err)
	}
	res.Document = doc
	s.logger.Info("marking scheme located",
		"key", doc.Key(),
		"question", req.QuestionNumber,
		"page", res.Page,
		"found", res.Found,
		"content_type", res.ContentType,
		"tier", res.Tier,
	)
	return res, nil
}
