package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Segmenter SegmenterConfig `yaml:"segmenter"`
	Locator   LocatorConfig   `yaml:"locator"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Cache     CacheConfig     `yaml:"cache"`
	Queue     QueueConfig     `yaml:"queue"`
	Admin     AdminConfig     `yaml:"admin"`
	MCP       MCPConfig       `yaml:"mcp"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	TrustedProxies []string        `yaml:"trustedProxies"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the per-client request limiter. Routes listed in Routes (keyed by
// route pattern) get their own budget; every other route shares the default one.
type RateLimitConfig struct {
	Enabled           bool                   `yaml:"enabled"`
	RequestsPerMinute int                    `yaml:"requestsPerMinute"`
	Burst             int                    `yaml:"burst"`
	IdleTTL           time.Duration          `yaml:"idleTTL"`
	Routes            map[string]RouteBudget `yaml:"routes"`
}

// RouteBudget is a per-client allowance for one route.
type RouteBudget struct {
	RequestsPerMinute int `yaml:"requestsPerMinute"`
	Burst             int `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// CorpusConfig says where exam papers and marking schemes live.
type CorpusConfig struct {
	Backend string      `yaml:"backend"`
	Root    string      `yaml:"root"`
	R2      R2Config    `yaml:"r2"`
	Watch   WatchConfig `yaml:"watch"`
}

// R2Config contains S3-compatible bucket settings.
type R2Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"`
}

// WatchConfig controls rebuilds on local corpus changes.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// EmbeddingConfig selects the embedding backend.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"`
	APIKey      string `yaml:"apiKey"`
	BaseURL     string `yaml:"baseUrl"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"`
	BatchSize   int    `yaml:"batchSize"`
	BatchTokens int    `yaml:"batchTokens"`
}

// SearchConfig controls ranking weights and result limits.
type SearchConfig struct {
	DefaultResults     int      `yaml:"defaultResults"`
	MaxResults         int      `yaml:"maxResults"`
	MaxPreviewChars    int      `yaml:"maxPreviewChars"`
	SemanticWeight     float64  `yaml:"semanticWeight"`
	KeywordWeight      float64  `yaml:"keywordWeight"`
	TermSemanticWeight float64  `yaml:"termSemanticWeight"`
	TermKeywordWeight  float64  `yaml:"termKeywordWeight"`
	TermWords          []string `yaml:"termWords"`
	IncludeDeferred    bool     `yaml:"includeDeferred"`
}

// SegmenterConfig holds the question cleaning thresholds.
type SegmenterConfig struct {
	MinRawChars   int `yaml:"minRawChars"`
	MinCleanChars int `yaml:"minCleanChars"`
	MinYield      int `yaml:"minYield"`
}

// LocatorConfig tunes the marking scheme page locator.
type LocatorConfig struct {
	CutoffYear       int           `yaml:"cutoffYear"`
	MinMathSymbols   int           `yaml:"minMathSymbols"`
	MinSolutionWords int           `yaml:"minSolutionWords"`
	MatchedTextChars int           `yaml:"matchedTextChars"`
	Timeout          time.Duration `yaml:"timeout"`
}

// IngestionConfig controls index builds.
type IngestionConfig struct {
	Workers   int           `yaml:"workers"`
	OnStartup bool          `yaml:"onStartup"`
	Timeout   time.Duration `yaml:"timeout"`
}

// CacheConfig configures the embedding cache.
type CacheConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// QueueConfig configures the rebuild job queue.
type QueueConfig struct {
	Valkey ValkeyConfig `yaml:"valkey"`
	Key    string       `yaml:"key"`
}

// ValkeyConfig contains connection information for the job queue.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// AdminConfig protects maintenance endpoints. An empty secret disables them.
type AdminConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
	Issuer    string `yaml:"issuer"`
}

// MCPConfig controls the Model Context Protocol SSE server.
type MCPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	BaseURL string `yaml:"baseUrl"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.HTTP.Address, "HTTP_ADDRESS")
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_TRUSTED_PROXIES"); v != "" {
		cfg.HTTP.TrustedProxies = splitList(v)
	}
	setBool(&cfg.HTTP.RateLimit.Enabled, "HTTP_RATE_LIMIT_ENABLED")
	setInt(&cfg.HTTP.RateLimit.RequestsPerMinute, "HTTP_RATE_LIMIT_RPM")
	setInt(&cfg.HTTP.RateLimit.Burst, "HTTP_RATE_LIMIT_BURST")
	setDuration(&cfg.HTTP.RateLimit.IdleTTL, "HTTP_RATE_LIMIT_IDLE_TTL")
	setBool(&cfg.HTTP.Retry.Enabled, "HTTP_RETRY_ENABLED")
	setInt(&cfg.HTTP.Retry.MaxAttempts, "HTTP_RETRY_MAX_ATTEMPTS")
	setDuration(&cfg.HTTP.Retry.BaseBackoff, "HTTP_RETRY_BASE_BACKOFF")

	setString(&cfg.Corpus.Backend, "CORPUS_BACKEND")
	setString(&cfg.Corpus.Root, "CORPUS_ROOT")
	setString(&cfg.Corpus.R2.Endpoint, "R2_ENDPOINT")
	setString(&cfg.Corpus.R2.AccessKey, "R2_ACCESS_KEY")
	setString(&cfg.Corpus.R2.SecretKey, "R2_SECRET_KEY")
	setString(&cfg.Corpus.R2.Bucket, "R2_BUCKET")
	setString(&cfg.Corpus.R2.Region, "R2_REGION")
	setString(&cfg.Corpus.R2.Prefix, "R2_PREFIX")
	setBool(&cfg.Corpus.Watch.Enabled, "CORPUS_WATCH_ENABLED")
	setDuration(&cfg.Corpus.Watch.Debounce, "CORPUS_WATCH_DEBOUNCE")

	setString(&cfg.Embedding.Provider, "EMBEDDING_PROVIDER")
	setString(&cfg.Embedding.APIKey, "EMBEDDING_API_KEY")
	setString(&cfg.Embedding.BaseURL, "EMBEDDING_BASE_URL")
	setString(&cfg.Embedding.Model, "EMBEDDING_MODEL")
	setInt(&cfg.Embedding.Dimensions, "EMBEDDING_DIMENSIONS")
	setInt(&cfg.Embedding.BatchSize, "EMBEDDING_BATCH_SIZE")

	setInt(&cfg.Search.DefaultResults, "SEARCH_DEFAULT_RESULTS")
	setInt(&cfg.Search.MaxResults, "SEARCH_MAX_RESULTS")
	setBool(&cfg.Search.IncludeDeferred, "SEARCH_INCLUDE_DEFERRED")

	setInt(&cfg.Locator.CutoffYear, "LOCATOR_CUTOFF_YEAR")
	setInt(&cfg.Locator.MinMathSymbols, "LOCATOR_MIN_MATH_SYMBOLS")
	setInt(&cfg.Locator.MinSolutionWords, "LOCATOR_MIN_SOLUTION_WORDS")
	setDuration(&cfg.Locator.Timeout, "LOCATOR_TIMEOUT")

	setInt(&cfg.Ingestion.Workers, "INGESTION_WORKERS")
	setBool(&cfg.Ingestion.OnStartup, "INGESTION_ON_STARTUP")
	setDuration(&cfg.Ingestion.Timeout, "INGESTION_TIMEOUT")

	setString(&cfg.Cache.Postgres.DSN, "CACHE_POSTGRES_DSN")
	if v := os.Getenv("CACHE_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Cache.Postgres.MaxConns = int32(parsed)
		}
	}

	setBool(&cfg.Queue.Valkey.Enabled, "QUEUE_VALKEY_ENABLED")
	setString(&cfg.Queue.Valkey.Addr, "QUEUE_VALKEY_ADDR")
	setString(&cfg.Queue.Key, "QUEUE_KEY")

	setString(&cfg.Admin.JWTSecret, "ADMIN_JWT_SECRET")

	setBool(&cfg.MCP.Enabled, "MCP_ENABLED")
	setString(&cfg.MCP.Address, "MCP_ADDRESS")
	setString(&cfg.MCP.BaseURL, "MCP_BASE_URL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
				IdleTTL:           5 * time.Minute,
				Routes: map[string]RouteBudget{
					"/api/v1/search":               {RequestsPerMinute: 60, Burst: 10},
					"/api/v1/locate/:year/:number": {RequestsPerMinute: 30, Burst: 5},
				},
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 2,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/api/v1/index/rebuild",
				},
			},
		},
		Corpus: CorpusConfig{
			Backend: "filesystem",
			Root:    "data",
			Watch: WatchConfig{
				Enabled:  false,
				Debounce: 2 * time.Second,
			},
		},
		Embedding: EmbeddingConfig{
			Provider:    "local",
			BaseURL:     "http://localhost:8000/v1",
			Model:       "paraphrase-MiniLM-L3-v2",
			Dimensions:  384,
			BatchSize:   64,
			BatchTokens: 200_000,
		},
		Search: SearchConfig{
			DefaultResults:     5,
			MaxResults:         20,
			MaxPreviewChars:    800,
			SemanticWeight:     0.7,
			KeywordWeight:      0.3,
			TermSemanticWeight: 0.6,
			TermKeywordWeight:  0.4,
			TermWords:          []string{"theorem", "formula", "rule", "law", "principle", "identity", "equation", "inequality"},
		},
		Segmenter: SegmenterConfig{
			MinRawChars:   50,
			MinCleanChars: 30,
			MinYield:      3,
		},
		Locator: LocatorConfig{
			CutoffYear:       2000,
			MinMathSymbols:   3,
			MinSolutionWords: 2,
			MatchedTextChars: 100,
			Timeout:          20 * time.Second,
		},
		Ingestion: IngestionConfig{
			Workers:   4,
			OnStartup: true,
			Timeout:   30 * time.Minute,
		},
		Cache: CacheConfig{
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
		Queue: QueueConfig{
			Key: "papersearch:jobs",
		},
		Admin: AdminConfig{
			Issuer: "papersearch",
		},
		MCP: MCPConfig{
			Enabled: false,
			Address: ":8090",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
		for route, b := range c.HTTP.RateLimit.Routes {
			if b.RequestsPerMinute <= 0 || b.Burst <= 0 {
				return fmt.Errorf("http.rateLimit.routes[%s] needs a positive requestsPerMinute and burst", route)
			}
		}
	}
	for _, proxy := range c.HTTP.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				return fmt.Errorf("http.trustedProxies: %q is not an IP or CIDR", proxy)
			}
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}

	switch c.Corpus.Backend {
	case "filesystem":
		if strings.TrimSpace(c.Corpus.Root) == "" {
			return errors.New("corpus.root cannot be empty")
		}
	case "r2":
		if strings.TrimSpace(c.Corpus.R2.Endpoint) == "" || strings.TrimSpace(c.Corpus.R2.Bucket) == "" {
			return errors.New("corpus.r2.endpoint and corpus.r2.bucket are required for the r2 backend")
		}
	default:
		return fmt.Errorf("corpus.backend %q is not supported", c.Corpus.Backend)
	}
	if c.Corpus.Watch.Enabled && c.Corpus.Backend != "filesystem" {
		return errors.New("corpus.watch requires the filesystem backend")
	}

	switch c.Embedding.Provider {
	case "openai":
		if strings.TrimSpace(c.Embedding.APIKey) == "" {
			return errors.New("embedding.apiKey cannot be empty for the openai provider")
		}
	case "local":
		if strings.TrimSpace(c.Embedding.BaseURL) == "" {
			return errors.New("embedding.baseUrl cannot be empty for the local provider")
		}
	case "deterministic":
		if c.Embedding.Dimensions <= 0 {
			return errors.New("embedding.dimensions must be positive")
		}
	default:
		return fmt.Errorf("embedding.provider %q is not supported", c.Embedding.Provider)
	}
	if strings.TrimSpace(c.Embedding.Model) == "" {
		return errors.New("embedding.model cannot be empty")
	}

	if c.Search.DefaultResults <= 0 {
		return errors.New("search.defaultResults must be positive")
	}
	if c.Search.MaxResults < c.Search.DefaultResults {
		return errors.New("search.maxResults must be at least search.defaultResults")
	}
	if err := validateWeights("search", c.Search.SemanticWeight, c.Search.KeywordWeight); err != nil {
		return err
	}
	if err := validateWeights("search.term", c.Search.TermSemanticWeight, c.Search.TermKeywordWeight); err != nil {
		return err
	}
	if c.Segmenter.MinRawChars < 0 || c.Segmenter.MinCleanChars < 0 {
		return errors.New("segmenter thresholds cannot be negative")
	}
	if c.Segmenter.MinYield <= 0 {
		return errors.New("segmenter.minYield must be positive")
	}
	if c.Locator.MinMathSymbols < 0 || c.Locator.MinSolutionWords < 0 {
		return errors.New("locator floors cannot be negative")
	}
	if c.Locator.Timeout <= 0 {
		return errors.New("locator.timeout must be positive")
	}
	if c.Ingestion.Workers <= 0 {
		return errors.New("ingestion.workers must be positive")
	}
	if c.Queue.Valkey.Enabled && strings.TrimSpace(c.Queue.Valkey.Addr) == "" {
		return errors.New("queue.valkey.addr cannot be empty when the valkey queue is enabled")
	}
	if c.MCP.Enabled && strings.TrimSpace(c.MCP.Address) == "" {
		return errors.New("mcp.address cannot be empty when mcp is enabled")
	}
	return nil
}

func validateWeights(prefix string, semantic, keyword float64) error {
	if semantic < 0 || keyword < 0 {
		return fmt.Errorf("%s weights cannot be negative", prefix)
	}
	if sum := semantic + keyword; sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("%s weights must sum to 1, got %.3f", prefix, sum)
	}
	return nil
}
