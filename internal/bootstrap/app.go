package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/papersearch/internal/domain/questionsearch"
	"github.com/yanqian/papersearch/internal/infra/config"
	"github.com/yanqian/papersearch/internal/infra/queue"
	"github.com/yanqian/papersearch/internal/infra/storage"
	mcpiface "github.com/yanqian/papersearch/internal/interface/mcp"
	"github.com/yanqian/papersearch/pkg/metrics"
)

// App encapsulates the server lifecycles and the background index build.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	server  *http.Server
	mcp     *mcpiface.SSEServer
	search  questionsearch.Service
	queue   queue.HandlerQueue
	watcher *storage.Watcher
}

// NewApp is used by Wire to build the runnable app. watcher may be nil.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, mcp *mcpiface.SSEServer, search questionsearch.Service, jobs queue.HandlerQueue, watcher *storage.Watcher) *App {
	return &App{
		cfg:     cfg,
		logger:  logger.With("component", "bootstrap"),
		server:  server,
		mcp:     mcp,
		search:  search,
		queue:   jobs,
		watcher: watcher,
	}
}

// Run starts the servers and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	a.queue.SetHandler(a.search.HandleJob)

	if a.cfg.Ingestion.OnStartup {
		go func() {
			if _, err := a.search.Build(ctx); err != nil {
				a.logger.Error("startup index build failed", "error", err)
			}
		}()
	}

	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err != nil {
			a.logger.Warn("corpus watcher disabled", "error", err)
		} else {
			defer a.watcher.Close()
		}
	}

	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	if a.mcp != nil && a.mcp.Enabled() {
		go func() {
			if err := a.mcp.Start(); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		return a.shutdown()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		_ = a.shutdown()
		return err
	}
}

// BuildIndex runs one synchronous index build without starting any server.
func (a *App) BuildIndex(ctx context.Context) (metrics.IngestStats, error) {
	return a.search.Build(ctx)
}

func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var errs []error
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if a.mcp != nil {
		if err := a.mcp.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	// Servers first so no new rebuild can be enqueued while the queue drains.
	if err := a.queue.Close(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("close job queue: %w", err))
	}
	return errors.Join(errs...)
}
