package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/papersearch/internal/domain/corpus"
	"github.com/yanqian/papersearch/internal/domain/markingscheme"
	"github.com/yanqian/papersearch/internal/domain/questionsearch"
	"github.com/yanqian/papersearch/internal/infra/config"
	"github.com/yanqian/papersearch/internal/infra/embcache"
	"github.com/yanqian/papersearch/internal/infra/embedder"
	"github.com/yanqian/papersearch/internal/infra/llm/chatgpt"
	"github.com/yanqian/papersearch/internal/infra/queue"
	"github.com/yanqian/papersearch/internal/infra/storage"
	httpiface "github.com/yanqian/papersearch/internal/interface/http"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func provideVersion() string {
	return version
}

func provideSearchConfig(cfg *config.Config) questionsearch.Config {
	return questionsearch.Config{
		Segmenter: questionsearch.SegmenterConfig{
			MinRawChars:   cfg.Segmenter.MinRawChars,
			MinCleanChars: cfg.Segmenter.MinCleanChars,
			MinYield:      cfg.Segmenter.MinYield,
		},
		Ranker: questionsearch.RankerConfig{
			Default:   questionsearch.Weights{Semantic: cfg.Search.SemanticWeight, Keyword: cfg.Search.KeywordWeight},
			Term:      questionsearch.Weights{Semantic: cfg.Search.TermSemanticWeight, Keyword: cfg.Search.TermKeywordWeight},
			TermWords: cfg.Search.TermWords,
		},
		DefaultResults:  cfg.Search.DefaultResults,
		MaxResults:      cfg.Search.MaxResults,
		MaxPreviewChars: cfg.Search.MaxPreviewChars,
		EmbeddingModel:  cfg.Embedding.Model,
		EmbedBatchSize:  cfg.Embedding.BatchSize,
		Workers:         cfg.Ingestion.Workers,
		IncludeDeferred: cfg.Search.IncludeDeferred,
		BuildTimeout:    cfg.Ingestion.Timeout,
	}
}

func provideLocatorConfig(cfg *config.Config) markingscheme.Config {
	return markingscheme.Config{
		CutoffYear:       cfg.Locator.CutoffYear,
		MinMathSymbols:   cfg.Locator.MinMathSymbols,
		MinSolutionWords: cfg.Locator.MinSolutionWords,
		MatchedTextChars: cfg.Locator.MatchedTextChars,
		Timeout:          cfg.Locator.Timeout,
	}
}

func provideIncludeDeferred(cfg *config.Config) bool {
	return cfg.Search.IncludeDeferred
}

func provideCorpusSource(cfg *config.Config, logger *slog.Logger) (corpus.Source, error) {
	switch cfg.Corpus.Backend {
	case "r2":
		r2 := cfg.Corpus.R2
		src, err := storage.NewR2Source(r2.Endpoint, r2.AccessKey, r2.SecretKey, r2.Bucket, r2.Region, r2.Prefix, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("corpus served from r2", "bucket", r2.Bucket, "prefix", r2.Prefix)
		return src, nil
	default:
		logger.Info("corpus served from filesystem", "root", cfg.Corpus.Root)
		return storage.NewFilesystemSource(cfg.Corpus.Root, logger), nil
	}
}

func provideEmbedder(cfg *config.Config, logger *slog.Logger) (questionsearch.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		client, err := chatgpt.NewClient(cfg.Embedding.APIKey, cfg.Embedding.BaseURL)
		if err != nil {
			return nil, err
		}
		return embedder.NewOpenAIEmbedder(client, cfg.Embedding.Model, cfg.Embedding.Dimensions, cfg.Embedding.BatchTokens, logger), nil
	case "local":
		return embedder.NewLocalEmbedder(cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Embedding.BatchSize, logger)
	case "deterministic":
		logger.Warn("using deterministic embedder, semantic scores are lexical only")
		return embedder.NewDeterministicEmbedder(cfg.Embedding.Dimensions), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", cfg.Embedding.Provider)
	}
}

func provideEmbeddingCache(cfg *config.Config, logger *slog.Logger) questionsearch.EmbeddingCache {
	fallback := embcache.NewMemoryCache()
	dsn := strings.TrimSpace(cfg.Cache.Postgres.DSN)
	if dsn == "" {
		logger.Info("embedding cache dsn not set, using memory cache")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory cache", "error", err)
		return fallback
	}
	if cfg.Cache.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Cache.Postgres.MaxConns
	}
	if cfg.Cache.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Cache.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory cache", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory cache", "error", err)
		pool.Close()
		return fallback
	}
	cache := embcache.NewPostgresCache(pool)
	if err := cache.EnsureSchema(ctx); err != nil {
		logger.Error("embedding schema unavailable, using memory cache", "error", err)
		pool.Close()
		return fallback
	}
	logger.Info("postgres embedding cache enabled")
	return cache
}

func provideJobQueue(cfg *config.Config, logger *slog.Logger) queue.HandlerQueue {
	if cfg.Queue.Valkey.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to immediate queue", "error", err)
			return queue.NewImmediateQueue(nil)
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to immediate queue", "error", err)
			return queue.NewImmediateQueue(nil)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to immediate queue", "error", err)
			client.Close()
		} else {
			logger.Info("valkey job queue enabled", "addr", cfg.Queue.Valkey.Addr)
			return queue.NewValkeyQueue(client, cfg.Queue.Key, logger)
		}
	}
	return queue.NewImmediateQueue(nil)
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Queue.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Queue.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Queue.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

func provideSearchService(cfg questionsearch.Config, lib *corpus.Library, emb questionsearch.Embedder, cache questionsearch.EmbeddingCache, jobs queue.HandlerQueue, logger *slog.Logger) questionsearch.Service {
	return questionsearch.NewService(cfg, lib, emb, cache, jobs, logger)
}

// provideWatcher returns nil unless watching is enabled for a filesystem corpus.
func provideWatcher(cfg *config.Config, search questionsearch.Service, logger *slog.Logger) *storage.Watcher {
	if !cfg.Corpus.Watch.Enabled || cfg.Corpus.Backend != "filesystem" {
		return nil
	}
	rebuild := func(ctx context.Context, reason string) error {
		_, err := search.RequestRebuild(ctx, reason)
		return err
	}
	return storage.NewWatcher(cfg.Corpus.Root, cfg.Corpus.Watch.Debounce, rebuild, logger)
}

func provideAdminAuth(cfg *config.Config) *httpiface.AdminAuth {
	return httpiface.NewAdminAuth(cfg.Admin.JWTSecret, cfg.Admin.Issuer)
}
