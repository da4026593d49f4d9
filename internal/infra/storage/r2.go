package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/papersearch/internal/domain/corpus"
	apperrors "github.com/yanqian/papersearch/pkg/errors"
)

// R2Source reads the corpus from Cloudflare R2 via the S3-compatible API.
type R2Source struct {
	client *minio.Client
	bucket string
	prefix string
	logger *slog.Logger
}

// NewR2Source constructs the read-only corpus adapter.
func NewR2Source(endpoint, accessKey, secretKey, bucket, region, prefix string, logger *slog.Logger) (*R2Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cleanEndpoint := sanitizeEndpoint(endpoint)
	useSSL := !strings.HasPrefix(strings.ToLower(strings.TrimSpace(endpoint)), "http://")
	client, err := minio.New(cleanEndpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       useSSL,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init r2 client: %w", err)
	}
	return &R2Source{
		client: client,
		bucket: bucket,
		prefix: normalizePrefix(prefix),
		logger: logger.With("component", "storage.r2"),
	}, nil
}

// List returns keys relative to the configured prefix.
func (s *R2Source) List(ctx context.Context) ([]string, error) {
	var keys []string
	for _, dir := range corpus.Directories() {
		objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
			Prefix:    s.prefix + dir + "/",
			Recursive: false,
		})
		for obj := range objects {
			if obj.Err != nil {
				return nil, fmt.Errorf("list %s: %w", dir, obj.Err)
			}
			if strings.HasSuffix(obj.Key, "/") {
				continue
			}
			rel := strings.TrimPrefix(obj.Key, s.prefix)
			if !strings.EqualFold(path.Ext(rel), ".pdf") {
				continue
			}
			keys = append(keys, rel)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Open fetches an object for reading.
func (s *R2Source) Open(ctx context.Context, key string) (corpus.Object, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.prefix+key, minio.GetObjectOptions{})
	if err != nil {
		return corpus.Object{}, s.mapError(key, err)
	}
	// GetObject is lazy; Stat surfaces a missing key.
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return corpus.Object{}, s.mapError(key, err)
	}
	return corpus.Object{Body: obj, Size: info.Size, ModTime: info.LastModified}, nil
}

func (s *R2Source) mapError(key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return apperrors.Wrap(apperrors.CodeDocumentNotFound, "document not found: "+key, err)
	}
	s.logger.Warn("r2 request failed", "key", key, "error", err)
	return apperrors.Wrap(apperrors.CodeStorage, "failed to fetch document", err)
}

var _ corpus.Source = (*R2Source)(nil)

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if i := strings.Index(raw, "/"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}
