package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTP.Address)
	require.Equal(t, "filesystem", cfg.Corpus.Backend)
	require.Equal(t, 5, cfg.Search.DefaultResults)
	require.Equal(t, 20, cfg.Search.MaxResults)
	require.Equal(t, 2000, cfg.Locator.CutoffYear)
	require.Equal(t, 50, cfg.Segmenter.MinRawChars)
	require.Equal(t, 30, cfg.Segmenter.MinCleanChars)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlDoc := `
http:
  address: ":9000"
corpus:
  root: /srv/papers
embedding:
  provider: deterministic
  dimensions: 16
locator:
  minMathSymbols: 5
  timeout: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("SEARCH_MAX_RESULTS", "30")
	t.Setenv("CORPUS_WATCH_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.HTTP.Address)
	require.Equal(t, "/srv/papers", cfg.Corpus.Root)
	require.Equal(t, "deterministic", cfg.Embedding.Provider)
	require.Equal(t, 16, cfg.Embedding.Dimensions)
	require.Equal(t, 5, cfg.Locator.MinMathSymbols)
	require.Equal(t, 5*time.Second, cfg.Locator.Timeout)
	require.Equal(t, 30, cfg.Search.MaxResults)
	require.True(t, cfg.Corpus.Watch.Enabled)
	require.Equal(t, 2, cfg.Locator.MinSolutionWords)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Corpus.Backend = "ftp" }},
		{"r2 without bucket", func(c *Config) { c.Corpus.Backend = "r2"; c.Corpus.R2.Endpoint = "https://x" }},
		{"openai without key", func(c *Config) { c.Embedding.Provider = "openai" }},
		{"weights off", func(c *Config) { c.Search.SemanticWeight = 0.9 }},
		{"max below default", func(c *Config) { c.Search.MaxResults = 1 }},
		{"watch on r2", func(c *Config) {
			c.Corpus.Backend = "r2"
			c.Corpus.R2.Endpoint = "https://x"
			c.Corpus.R2.Bucket = "b"
			c.Corpus.Watch.Enabled = true
		}},
		{"valkey without addr", func(c *Config) { c.Queue.Valkey.Enabled = true }},
		{"negative floors", func(c *Config) { c.Locator.MinMathSymbols = -1 }},
		{"bad trusted proxy", func(c *Config) { c.HTTP.TrustedProxies = []string{"not-an-ip"} }},
		{"empty route budget", func(c *Config) {
			c.HTTP.RateLimit.Routes = map[string]RouteBudget{"/api/v1/search": {RequestsPerMinute: 10}}
		}},
	}
	for _, tc := range tests {
		cfg := defaultConfig()
		tc.mutate(cfg)
		require.Error(t, cfg.Validate(), tc.name)
	}
	require.NoError(t, defaultConfig().Validate())

	cfg := defaultConfig()
	cfg.HTTP.TrustedProxies = []string{"10.0.0.1", "172.16.0.0/12"}
	require.NoError(t, cfg.Validate())
}
