package corpus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	apperrors "github.com/yanqian/papersearch/pkg/errors"
)

const maxDocumentBytes = 64 << 20

// Library resolves documents against a Source and extracts their pages.
type Library struct {
	source    Source
	extractor Extractor
	logger    *slog.Logger
}

// NewLibrary wires a Source with an Extractor.
func NewLibrary(source Source, extractor Extractor, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	return &Library{
		source:    source,
		extractor: extractor,
		logger:    logger.With("component", "corpus.library"),
	}
}

// Documents returns every well named document of the given kind, sorted.
func (l *Library) Documents(ctx context.Context, kind Kind) ([]Document, error) {
	all, err := l.all(ctx)
	if err != nil {
		return nil, err
	}
	docs := all[:0]
	for _, doc := range all {
		if doc.Kind == kind {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// Listing groups papers by year, newest year first, and flags years with a marking scheme.
func (l *Library) Listing(ctx context.Context, includeDeferred bool) ([]PaperListing, error) {
	all, err := l.all(ctx)
	if err != nil {
		return nil, err
	}
	return BuildListing(all, includeDeferred), nil
}

// BuildListing is the pure grouping behind Listing.
func BuildListing(docs []Document, includeDeferred bool) []PaperListing {
	byYear := make(map[int]*PaperListing)
	for _, doc := range docs {
		if doc.Deferred && !includeDeferred {
			continue
		}
		entry, ok := byYear[doc.Year]
		if !ok {
			entry = &PaperListing{Year: doc.Year, Papers: []Document{}}
			byYear[doc.Year] = entry
		}
		if doc.Kind == KindMarkingScheme {
			entry.HasMarkingScheme = true
			continue
		}
		entry.Papers = append(entry.Papers, doc)
	}

	out := make([]PaperListing, 0, len(byYear))
	for _, entry := range byYear {
		if len(entry.Papers) == 0 {
			continue
		}
		sort.Slice(entry.Papers, func(i, j int) bool { return entry.Papers[i].Less(entry.Papers[j]) })
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out
}

// Open streams a document body.
func (l *Library) Open(ctx context.Context, doc Document) (Object, error) {
	return l.source.Open(ctx, doc.Key())
}

// Pages reads a document and extracts its pages, renumbered 1..n.
func (l *Library) Pages(ctx context.Context, doc Document) ([]Page, error) {
	obj, err := l.source.Open(ctx, doc.Key())
	if err != nil {
		return nil, err
	}
	defer obj.Body.Close()

	data, err := io.ReadAll(io.LimitReader(obj.Body, maxDocumentBytes+1))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "failed to read document", err)
	}
	if len(data) > maxDocumentBytes {
		return nil, apperrors.Wrap(apperrors.CodeExtraction, fmt.Sprintf("document %s exceeds %d bytes", doc.Key(), maxDocumentBytes), nil)
	}

	pages, err := l.extractor.ExtractPages(ctx, doc.Filename(), data)
	if err != nil {
		if apperrors.CodeOf(err) != "" {
			return nil, err
		}
		return nil, apperrors.Wrap(apperrors.CodeExtraction, "failed to extract "+doc.Key(), err)
	}
	for i := range pages {
		pages[i].Number = i + 1
	}
	l.logger.Debug("document extracted", "key", doc.Key(), "pages", len(pages))
	return pages, nil
}

func (l *Library) all(ctx context.Context) ([]Document, error) {
	keys, err := l.source.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "failed to list corpus", err)
	}
	docs := make([]Document, 0, len(keys))
	seen := make(map[Document]struct{}, len(keys))
	for _, key := range keys {
		doc, ok := ParseKey(key)
		if !ok {
			l.logger.Debug("skipping unrecognised corpus entry", "key", key)
			continue
		}
		if _, dup := seen[doc]; dup {
			continue
		}
		seen[doc] = struct{}{}
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Less(docs[j]) })
	return docs, nil
}
