package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/papersearch/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, admin *AdminAuth) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	// An empty list trusts no proxy, so ClientIP falls back to the peer address.
	if err := router.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		handler.logger.Error("invalid trusted proxies, trusting none", "error", err)
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		renderErrors(handler.logger),
	)
	limiter := newRateLimiter(cfg.HTTP.RateLimit, handler.logger)
	if limiter != nil {
		router.Use(limiter.middleware())
	}

	api := router.Group("/api/v1")
	{
		api.GET("/status", handler.Status)
		api.GET("/papers", handler.Papers)
		api.POST("/search", handler.Search)
		api.GET("/pdf/:year/:paper", handler.PaperPDF)
		api.GET("/pdf/:year/:paper/:page", handler.PaperPDF)
		api.GET("/markingscheme/:year", handler.MarkingSchemePDF)
		api.GET("/markingscheme/:year/:page", handler.MarkingSchemePDF)
		api.GET("/locate/:year/:number", handler.Locate)
	}

	adminGroup := api.Group("/index")
	adminGroup.Use(adminMiddleware(admin))
	{
		adminGroup.POST("/rebuild", handler.Rebuild)
	}

	srv := &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, handler.logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
	if limiter != nil {
		go limiter.evictIdle()
		srv.RegisterOnShutdown(limiter.stop)
	}
	return srv
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}
