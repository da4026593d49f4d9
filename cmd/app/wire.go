//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/papersearch/internal/bootstrap"
	"github.com/yanqian/papersearch/internal/domain/corpus"
	"github.com/yanqian/papersearch/internal/domain/markingscheme"
	"github.com/yanqian/papersearch/internal/infra/config"
	"github.com/yanqian/papersearch/internal/infra/extract"
	httpiface "github.com/yanqian/papersearch/internal/interface/http"
	mcpiface "github.com/yanqian/papersearch/internal/interface/mcp"
	"github.com/yanqian/papersearch/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideSearchConfig,
		provideLocatorConfig,
		provideCorpusSource,
		extract.NewDefault,
		corpus.NewLibrary,
		provideEmbedder,
		provideEmbeddingCache,
		provideJobQueue,
		provideSearchService,
		markingscheme.NewService,
		provideWatcher,
		provideIncludeDeferred,
		provideAdminAuth,
		provideVersion,
		wire.Bind(new(corpus.Extractor), new(*extract.Chain)),
		wire.Bind(new(markingscheme.PageLoader), new(*corpus.Library)),
		wire.Bind(new(httpiface.Catalog), new(*corpus.Library)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		mcpiface.NewTools,
		mcpiface.NewServer,
		mcpiface.NewSSEServer,
		bootstrap.NewApp,
	)
	return nil, nil
}
