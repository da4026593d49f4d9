package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yanqian/papersearch/internal/domain/corpus"
	apperrors "github.com/yanqian/papersearch/pkg/errors"
)

// FilesystemSource serves the corpus from a local directory tree.
type FilesystemSource struct {
	root   string
	logger *slog.Logger
}

// NewFilesystemSource roots the source at dir. Missing corpus directories are tolerated.
func NewFilesystemSource(dir string, logger *slog.Logger) *FilesystemSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FilesystemSource{root: filepath.Clean(dir), logger: logger.With("component", "storage.filesystem")}
}

// List returns slash separated keys of every PDF in the corpus directories.
func (s *FilesystemSource) List(ctx context.Context) ([]string, error) {
	var keys []string
	for _, dir := range corpus.Directories() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := os.ReadDir(filepath.Join(s.root, dir))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", dir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			if !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
				continue
			}
			keys = append(keys, path.Join(dir, entry.Name()))
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Open returns the file for key. Keys escaping the root are treated as missing.
func (s *FilesystemSource) Open(ctx context.Context, key string) (corpus.Object, error) {
	if err := ctx.Err(); err != nil {
		return corpus.Object{}, err
	}
	clean := path.Clean("/" + key)[1:]
	if clean == "" || !fs.ValidPath(clean) {
		return corpus.Object{}, apperrors.Wrap(apperrors.CodeDocumentNotFound, "document not found: "+key, nil)
	}
	full := filepath.Join(s.root, filepath.FromSlash(clean))
	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return corpus.Object{}, apperrors.Wrap(apperrors.CodeDocumentNotFound, "document not found: "+key, err)
	}
	if err != nil {
		return corpus.Object{}, apperrors.Wrap(apperrors.CodeStorage, "failed to open document", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return corpus.Object{}, apperrors.Wrap(apperrors.CodeStorage, "failed to stat document", err)
	}
	if info.IsDir() {
		f.Close()
		return corpus.Object{}, apperrors.Wrap(apperrors.CodeDocumentNotFound, "document not found: "+key, nil)
	}
	return corpus.Object{Body: f, Size: info.Size(), ModTime: info.ModTime()}, nil
}

var _ corpus.Source = (*FilesystemSource)(nil)
