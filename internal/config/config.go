// Package config provides configuration management for crisnet.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CRISNET"

// Author strategies.
const (
	AuthorStrategyList   = "list"
	AuthorStrategyDetail = "detail"
)

// Config holds all configuration for crisnet.
type Config struct {
	// Source contains CRIS API client settings.
	Source SourceConfig `mapstructure:"source"`
	// Authors selects how publication authors are resolved.
	Authors AuthorsConfig `mapstructure:"authors"`
	// Enrich contains detail-enrichment pacing.
	Enrich EnrichConfig `mapstructure:"enrich"`
	// Units points at an alternative unit lookup table.
	Units UnitsConfig `mapstructure:"units"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus textfile settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// Output contains output file settings.
	Output OutputConfig `mapstructure:"output"`
	// Neo4j contains graph export settings.
	Neo4j Neo4jConfig `mapstructure:"neo4j"`
	// S3 contains file upload settings.
	S3 S3Config `mapstructure:"s3"`
}

// SourceConfig holds the CRIS API client configuration.
type SourceConfig struct {
	// BaseURL is the API root.
	BaseURL string `mapstructure:"base_url"`
	// Lang is the response language.
	Lang string `mapstructure:"lang"`
	// PageSize is the list page size.
	PageSize int `mapstructure:"page_size"`
	// Order is the server-side sort of list results.
	Order string `mapstructure:"order"`
	// PageDelay is the pause after each page beyond the first.
	PageDelay time.Duration `mapstructure:"page_delay"`
	// Timeout is the per-request timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// Burst is the rate limiter burst size.
	Burst int `mapstructure:"burst"`
	// UserAgent is sent with every request.
	UserAgent string `mapstructure:"user_agent"`
}

// AuthorsConfig holds author resolution settings.
type AuthorsConfig struct {
	// Strategy is list or detail.
	Strategy string `mapstructure:"strategy"`
}

// EnrichConfig holds detail-enrichment pacing.
type EnrichConfig struct {
	// BatchSize is the number of lookups between pauses.
	BatchSize int `mapstructure:"batch_size"`
	// BatchPause is the pause after each batch.
	BatchPause time.Duration `mapstructure:"batch_pause"`
}

// UnitsConfig holds the unit lookup location.
type UnitsConfig struct {
	// File is a YAML unit table; empty uses the embedded table.
	File string `mapstructure:"file"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `mapstructure:"level"`
	// Format is the log output format (json or console).
	Format string `mapstructure:"format"`
	// Output is the log destination (stdout or stderr).
	Output string `mapstructure:"output"`
	// AddSource includes source file and line in log entries.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format for log entries.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Textfile is the node-exporter textfile written at exit; empty disables it.
	Textfile string `mapstructure:"textfile"`
	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace"`
}

// OutputConfig holds output file settings.
type OutputConfig struct {
	// Dir is the directory default output names are placed in.
	Dir string `mapstructure:"dir"`
	// XLSX also writes the graph as a workbook next to the CSV files.
	XLSX bool `mapstructure:"xlsx"`
}

// Neo4jConfig holds graph export settings.
type Neo4jConfig struct {
	// Enabled pushes built graphs to Neo4j.
	Enabled bool `mapstructure:"enabled"`
	// URI is the bolt or neo4j URI.
	URI string `mapstructure:"uri"`
	// Username is the database user.
	Username string `mapstructure:"username"`
	// Password is loaded from CRISNET_NEO4J_PASSWORD only.
	Password string `mapstructure:"-"`
	// Database is the target database; empty uses the server default.
	Database string `mapstructure:"database"`
	// BatchSize is the number of rows per UNWIND statement.
	BatchSize int `mapstructure:"batch_size"`
}

// S3Config holds file upload settings.
type S3Config struct {
	// Enabled uploads produced files after a run.
	Enabled bool `mapstructure:"enabled"`
	// Bucket is the target bucket.
	Bucket string `mapstructure:"bucket"`
	// Prefix is prepended to object keys.
	Prefix string `mapstructure:"prefix"`
	// Region is the bucket region.
	Region string `mapstructure:"region"`
	// Endpoint targets an S3-compatible store.
	Endpoint string `mapstructure:"endpoint"`
	// UsePathStyle addresses buckets by path instead of host.
	UsePathStyle bool `mapstructure:"use_path_style"`
	// AccessKeyID is the static access key; empty uses the AWS credential chain.
	AccessKeyID string `mapstructure:"access_key_id"`
	// SecretAccessKey is loaded from CRISNET_S3_SECRET_ACCESS_KEY only.
	SecretAccessKey string `mapstructure:"-"`
}

// Load loads configuration from .env files, environment variables and an
// optional config file. configFile, when set, must exist.
func Load(configFile string) (*Config, error) {
	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.crisnet")
		}

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// Config file not found is OK, we'll use env vars and defaults
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
// These fields are tagged with mapstructure:"-" to prevent loading from config files.
func loadSecrets(cfg *Config) {
	cfg.Neo4j.Password = os.Getenv(EnvPrefix + "_NEO4J_PASSWORD")
	cfg.S3.SecretAccessKey = os.Getenv(EnvPrefix + "_S3_SECRET_ACCESS_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Source defaults
	v.SetDefault("source.base_url", "https://uef.cris.fi/api/public-research")
	v.SetDefault("source.lang", "en")
	v.SetDefault("source.page_size", 100)
	v.SetDefault("source.order", "data.titleOfPublication.titleOfPublication ASC")
	v.SetDefault("source.page_delay", "1s")
	v.SetDefault("source.timeout", "30s")
	v.SetDefault("source.rate_limit", 5.0)
	v.SetDefault("source.burst", 1)
	v.SetDefault("source.user_agent", "crisnet/1.0")

	// Author resolution defaults
	v.SetDefault("authors.strategy", AuthorStrategyList)

	// Enrichment defaults: one second pause every ten lookups.
	v.SetDefault("enrich.batch_size", 10)
	v.SetDefault("enrich.batch_pause", "1s")

	// Units defaults
	v.SetDefault("units.file", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("metrics.namespace", "crisnet")

	// Output defaults
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.xlsx", false)

	// Neo4j defaults
	// The password is loaded exclusively from the environment (see loadSecrets).
	v.SetDefault("neo4j.enabled", false)
	v.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.database", "")
	v.SetDefault("neo4j.batch_size", 500)

	// S3 defaults
	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.prefix", "crisnet")
	v.SetDefault("s3.region", "eu-north-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.use_path_style", false)
	v.SetDefault("s3.access_key_id", "")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate source config
	u, err := url.Parse(c.Source.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid source base_url: %q", c.Source.BaseURL)
	}
	if c.Source.PageSize <= 0 {
		return fmt.Errorf("source page_size must be positive")
	}
	if c.Source.PageDelay < 0 {
		return fmt.Errorf("source page_delay must not be negative")
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("source timeout must be positive")
	}
	if c.Source.RateLimit <= 0 {
		return fmt.Errorf("source rate_limit must be positive")
	}
	if c.Source.Burst <= 0 {
		return fmt.Errorf("source burst must be positive")
	}

	// Validate author strategy
	switch strings.ToLower(c.Authors.Strategy) {
	case AuthorStrategyList, AuthorStrategyDetail:
	default:
		return fmt.Errorf("invalid authors strategy: %q (want %s or %s)",
			c.Authors.Strategy, AuthorStrategyList, AuthorStrategyDetail)
	}

	// Validate enrichment pacing
	if c.Enrich.BatchSize <= 0 {
		return fmt.Errorf("enrich batch_size must be positive")
	}
	if c.Enrich.BatchPause < 0 {
		return fmt.Errorf("enrich batch_pause must not be negative")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Metrics.Namespace == "" {
		return fmt.Errorf("metrics namespace is required")
	}

	// Validate sinks only when enabled.
	if c.Neo4j.Enabled {
		if c.Neo4j.URI == "" {
			return fmt.Errorf("neo4j uri is required when neo4j export is enabled")
		}
		if c.Neo4j.BatchSize <= 0 {
			return fmt.Errorf("neo4j batch_size must be positive")
		}
	}
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket is required when s3 upload is enabled")
		}
		if c.S3.AccessKeyID != "" && c.S3.SecretAccessKey == "" {
			return fmt.Errorf("s3 access_key_id is set but %s_S3_SECRET_ACCESS_KEY is empty", EnvPrefix)
		}
	}

	return nil
}
