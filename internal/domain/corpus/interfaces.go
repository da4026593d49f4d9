package corpus

import "context"

// Source lists and opens raw corpus files by slash separated key.
type Source interface {
	List(ctx context.Context) ([]string, error)
	// Open returns a document_not_found AppError when the key does not exist.
	Open(ctx context.Context, key string) (Object, error)
}

// Extractor turns a document body into ordered per-page text.
type Extractor interface {
	ExtractPages(ctx context.Context, name string, data []byte) ([]Page, error)
}
