package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/attlih/cris-network-tool/internal/config"
	"github.com/attlih/cris-network-tool/internal/enrich"
	"github.com/attlih/cris-network-tool/internal/export"
	"github.com/attlih/cris-network-tool/internal/observability"
	"github.com/attlih/cris-network-tool/internal/papersources/cris"
	"github.com/attlih/cris-network-tool/internal/pipeline"
	"github.com/attlih/cris-network-tool/internal/units"
)

// app carries the state shared by all commands of one invocation.
type app struct {
	// Global flags.
	configFile  string
	logLevel    string
	metricsFile string
	neo4j       bool
	s3          bool
	xlsx        bool

	// logOutput overrides the configured log destination.
	logOutput io.Writer

	cfg     *config.Config
	logger  zerolog.Logger
	metrics *observability.Metrics
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "crisnet",
		Short: "Fetch CRIS publications and build co-authorship networks",
		Long: `crisnet retrieves publication records for a university's organizational
units from a CRIS public research API, writes them as CSV tables and derives
co-authorship edge and node lists from them.

Examples:
  crisnet fetch --start 2020 --end 2024 --unit 1230 --graph
  crisnet enrich --in publications_2020_2024.csv
  crisnet graph --in publications_2020_2024.csv --xlsx network.xlsx
  crisnet units`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file (default: ./config.yaml, ./config/config.yaml or $HOME/.crisnet/config.yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile at exit")
	flags.BoolVar(&a.neo4j, "neo4j", false, "Push built graphs to Neo4j")
	flags.BoolVar(&a.s3, "s3", false, "Upload produced files to S3")
	flags.BoolVar(&a.xlsx, "xlsx-all", false, "Also write every graph as an XLSX workbook")

	root.AddCommand(
		newFetchCmd(a),
		newEnrichCmd(a),
		newGraphCmd(a),
		newUnitsCmd(a),
	)
	return root
}

// setup loads configuration, applies flag overrides and creates the logger
// and metrics for the run.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.metricsFile != "" {
		cfg.Metrics.Textfile = a.metricsFile
	}
	if a.neo4j {
		cfg.Neo4j.Enabled = true
	}
	if a.s3 {
		cfg.S3.Enabled = true
	}
	if a.xlsx {
		cfg.Output.XLSX = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	a.cfg = cfg

	a.logger = observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		Writer:     a.logOutput,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	a.metrics = observability.NewMetrics(cfg.Metrics.Namespace)

	cmd.SetContext(observability.WithRunContextFull(cmd.Context(), observability.RunContext{
		RunID:   observability.NewRunID(),
		Command: cmd.Name(),
	}))
	return nil
}

// execute runs fn with run metrics and writes the metrics textfile when
// configured, whatever the outcome. Logs of the run carry the run id and
// command stored in the command context by setup.
func (a *app) execute(cmd *cobra.Command, fn func(ctx context.Context) error) (err error) {
	ctx := cmd.Context()
	rc := observability.RunContextFromContext(ctx)
	a.logger = observability.WithRunContext(a.logger, rc.RunID, rc.Command)

	start := time.Now()
	a.logger.Info().Msg("run started")

	defer func() {
		a.metrics.RecordRun(rc.Command, err, time.Since(start).Seconds())
		if path := a.cfg.Metrics.Textfile; path != "" {
			if werr := a.metrics.WriteTextfile(path); werr != nil {
				a.logger.Error().Err(werr).Str("path", path).Msg("failed to write metrics textfile")
			}
		}
		if err != nil {
			a.logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("run failed")
			return
		}
		a.logger.Info().Dur("elapsed", time.Since(start)).Msg("run finished")
	}()

	return fn(ctx)
}

func (a *app) crisClient() *cris.Client {
	src := a.cfg.Source
	return cris.New(cris.Config{
		BaseURL:   src.BaseURL,
		Lang:      src.Lang,
		Order:     src.Order,
		Timeout:   src.Timeout,
		RateLimit: src.RateLimit,
		BurstSize: src.Burst,
		UserAgent: src.UserAgent,
	})
}

func (a *app) unitLookup() (*units.Lookup, error) {
	lookup, err := units.Load(a.cfg.Units.File)
	if err != nil {
		return nil, fmt.Errorf("load units: %w", err)
	}
	return lookup, nil
}

func (a *app) enricher(client *cris.Client) *enrich.Enricher {
	return enrich.New(client, enrich.Config{
		BatchSize:  a.cfg.Enrich.BatchSize,
		BatchPause: a.cfg.Enrich.BatchPause,
	}, a.logger, a.metrics)
}

// pipeline builds a Pipeline around deps with the enabled export sinks. The
// returned cleanup closes the sinks.
func (a *app) pipeline(ctx context.Context, deps pipeline.Deps) (*pipeline.Pipeline, func(), error) {
	cleanup := func() {}

	if a.cfg.Neo4j.Enabled {
		sink, err := export.NewNeo4jSink(ctx, export.Neo4jConfig{
			URI:       a.cfg.Neo4j.URI,
			Username:  a.cfg.Neo4j.Username,
			Password:  a.cfg.Neo4j.Password,
			Database:  a.cfg.Neo4j.Database,
			BatchSize: a.cfg.Neo4j.BatchSize,
		}, a.logger, a.metrics)
		if err != nil {
			return nil, cleanup, err
		}
		deps.Pusher = sink
		cleanup = func() {
			if err := sink.Close(context.Background()); err != nil {
				a.logger.Warn().Err(err).Msg("failed to close neo4j driver")
			}
		}
	}

	if a.cfg.S3.Enabled {
		s3cfg := export.S3Config{
			Bucket:          a.cfg.S3.Bucket,
			Prefix:          a.cfg.S3.Prefix,
			Region:          a.cfg.S3.Region,
			Endpoint:        a.cfg.S3.Endpoint,
			UsePathStyle:    a.cfg.S3.UsePathStyle,
			AccessKeyID:     a.cfg.S3.AccessKeyID,
			SecretAccessKey: a.cfg.S3.SecretAccessKey,
		}
		client, err := export.NewS3Client(ctx, s3cfg)
		if err != nil {
			cleanup()
			return nil, func() {}, err
		}
		deps.Uploader = export.NewS3Uploader(client, s3cfg, a.logger, a.metrics)
	}

	p := pipeline.New(deps, pipeline.Options{
		OutputDir: a.cfg.Output.Dir,
		XLSX:      a.cfg.Output.XLSX,
	}, a.logger, a.metrics)
	return p, cleanup, nil
}
