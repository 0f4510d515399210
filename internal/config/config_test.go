package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnvVars unsets every CRISNET_ variable for the duration of the test.
func clearEnvVars(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, EnvPrefix+"_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

// inTempDir runs the test from an empty directory so no stray config.yaml or
// .env is picked up.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	clearEnvVars(t)
	inTempDir(t)

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Source defaults
	assert.Equal(t, "https://uef.cris.fi/api/public-research", cfg.Source.BaseURL)
	assert.Equal(t, "en", cfg.Source.Lang)
	assert.Equal(t, 100, cfg.Source.PageSize)
	assert.Equal(t, "data.titleOfPublication.titleOfPublication ASC", cfg.Source.Order)
	assert.Equal(t, time.Second, cfg.Source.PageDelay)
	assert.Equal(t, 30*time.Second, cfg.Source.Timeout)

	// Authors and enrichment defaults
	assert.Equal(t, AuthorStrategyList, cfg.Authors.Strategy)
	assert.Equal(t, 10, cfg.Enrich.BatchSize)
	assert.Equal(t, time.Second, cfg.Enrich.BatchPause)

	// Logging defaults
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "stderr", cfg.Logging.Output)

	// Metrics defaults
	assert.Equal(t, "", cfg.Metrics.Textfile)
	assert.Equal(t, "crisnet", cfg.Metrics.Namespace)

	// Sinks are off by default
	assert.False(t, cfg.Neo4j.Enabled)
	assert.Equal(t, "neo4j://localhost:7687", cfg.Neo4j.URI)
	assert.False(t, cfg.S3.Enabled)
	assert.Equal(t, "crisnet", cfg.S3.Prefix)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnvVars(t)
	inTempDir(t)

	t.Setenv("CRISNET_SOURCE_PAGE_DELAY", "250ms")
	t.Setenv("CRISNET_AUTHORS_STRATEGY", "detail")
	t.Setenv("CRISNET_LOGGING_LEVEL", "debug")
	t.Setenv("CRISNET_NEO4J_PASSWORD", "s3cret")
	t.Setenv("CRISNET_S3_SECRET_ACCESS_KEY", "topsecret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.Source.PageDelay)
	assert.Equal(t, AuthorStrategyDetail, cfg.Authors.Strategy)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "s3cret", cfg.Neo4j.Password)
	assert.Equal(t, "topsecret", cfg.S3.SecretAccessKey)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnvVars(t)
	dir := inTempDir(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CRISNET_ENRICH_BATCH_SIZE=25\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CRISNET_ENRICH_BATCH_SIZE") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Enrich.BatchSize)
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnvVars(t)
	dir := inTempDir(t)

	path := filepath.Join(dir, "crisnet.yaml")
	content := `
source:
  page_delay: 2s
  page_size: 50
units:
  file: ./units.yaml
neo4j:
  enabled: true
  uri: bolt://graph:7687
  password: from-file
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Source.PageDelay)
	assert.Equal(t, 50, cfg.Source.PageSize)
	assert.Equal(t, "./units.yaml", cfg.Units.File)
	assert.True(t, cfg.Neo4j.Enabled)
	assert.Equal(t, "bolt://graph:7687", cfg.Neo4j.URI)
	assert.Equal(t, "", cfg.Neo4j.Password, "secrets never come from files")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnvVars(t)
	dir := inTempDir(t)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_ValidationFailure(t *testing.T) {
	clearEnvVars(t)
	inTempDir(t)

	t.Setenv("CRISNET_AUTHORS_STRATEGY", "orcid")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func validConfig() *Config {
	return &Config{
		Source: SourceConfig{
			BaseURL:   "https://uef.cris.fi/api/public-research",
			PageSize:  100,
			PageDelay: time.Second,
			Timeout:   30 * time.Second,
			RateLimit: 5,
			Burst:     1,
		},
		Authors: AuthorsConfig{Strategy: AuthorStrategyList},
		Enrich:  EnrichConfig{BatchSize: 10, BatchPause: time.Second},
		Logging: LoggingConfig{Level: "info"},
		Metrics: MetricsConfig{Namespace: "crisnet"},
		Neo4j:   Neo4jConfig{URI: "neo4j://localhost:7687", BatchSize: 500},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "bad base url", modify: func(c *Config) { c.Source.BaseURL = "not a url" }, wantErr: "base_url"},
		{name: "zero page size", modify: func(c *Config) { c.Source.PageSize = 0 }, wantErr: "page_size"},
		{name: "negative page delay", modify: func(c *Config) { c.Source.PageDelay = -time.Second }, wantErr: "page_delay"},
		{name: "zero page delay is fine", modify: func(c *Config) { c.Source.PageDelay = 0 }},
		{name: "zero timeout", modify: func(c *Config) { c.Source.Timeout = 0 }, wantErr: "timeout"},
		{name: "zero rate", modify: func(c *Config) { c.Source.RateLimit = 0 }, wantErr: "rate_limit"},
		{name: "zero burst", modify: func(c *Config) { c.Source.Burst = 0 }, wantErr: "burst"},
		{name: "unknown strategy", modify: func(c *Config) { c.Authors.Strategy = "x" }, wantErr: "authors strategy"},
		{name: "strategy case insensitive", modify: func(c *Config) { c.Authors.Strategy = "DETAIL" }},
		{name: "zero batch size", modify: func(c *Config) { c.Enrich.BatchSize = 0 }, wantErr: "batch_size"},
		{name: "bad log level", modify: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "log level"},
		{name: "no namespace", modify: func(c *Config) { c.Metrics.Namespace = "" }, wantErr: "namespace"},
		{name: "neo4j without uri", modify: func(c *Config) {
			c.Neo4j.Enabled = true
			c.Neo4j.URI = ""
		}, wantErr: "neo4j uri"},
		{name: "s3 without bucket", modify: func(c *Config) { c.S3.Enabled = true }, wantErr: "s3 bucket"},
		{name: "s3 key without secret", modify: func(c *Config) {
			c.S3.Enabled = true
			c.S3.Bucket = "b"
			c.S3.AccessKeyID = "AKIA"
		}, wantErr: "SECRET_ACCESS_KEY"},
		{name: "s3 with credential chain", modify: func(c *Config) {
			c.S3.Enabled = true
			c.S3.Bucket = "b"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
