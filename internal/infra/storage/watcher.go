package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yanqian/papersearch/internal/domain/corpus"
)

// RebuildFunc is invoked once per burst of corpus changes.
type RebuildFunc func(ctx context.Context, reason string) error

// Watcher triggers index rebuilds when PDFs under a filesystem corpus change.
type Watcher struct {
	root     string
	debounce time.Duration
	rebuild  RebuildFunc
	logger   *slog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
}

// NewWatcher prepares a watcher; Start attaches it to the corpus directories.
func NewWatcher(root string, debounce time.Duration, rebuild RebuildFunc, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		root:     root,
		debounce: debounce,
		rebuild:  rebuild,
		logger:   logger.With("component", "storage.watcher"),
	}
}

// Start watches every existing corpus directory until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	watched := 0
	for _, dir := range corpus.Directories() {
		full := filepath.Join(w.root, dir)
		if err := fw.Add(full); err != nil {
			w.logger.Debug("corpus directory not watched", "dir", full, "error", err)
			continue
		}
		watched++
	}
	if watched == 0 {
		fw.Close()
		return fmt.Errorf("no corpus directories to watch under %s", w.root)
	}

	w.mu.Lock()
	w.watcher = fw
	w.mu.Unlock()

	go w.loop(ctx, fw)
	w.logger.Info("watching corpus", "root", w.root, "directories", watched)
	return nil
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	w.watcher = nil
	return err
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	var (
		timer   *time.Timer
		fire    <-chan time.Time
		lastKey string
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			_ = w.Close()
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			lastKey = filepath.Base(event.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		case <-fire:
			fire = nil
			reason := "corpus changed: " + lastKey
			if err := w.rebuild(ctx, reason); err != nil {
				w.logger.Error("rebuild request failed", "error", err)
				continue
			}
			w.logger.Info("rebuild requested", "reason", reason)
		}
	}
}

// relevant keeps content changes to visible PDF files.
func relevant(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
