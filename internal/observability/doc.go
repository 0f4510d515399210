// Package observability provides logging, metrics, and run context support
// for crisnet.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for fetch, detail lookups, graph and export stages
//   - Context helpers for propagating the run id
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "console",
//	    Output: "stderr",
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger = observability.WithRunContext(logger, runID, "fetch")
//	logger.Info().Int("page", 2).Int("page_count", 9).Msg("page fetched")
//
// # Metrics
//
// Each run owns a registry. A batch run writes it to a node-exporter
// textfile at exit:
//
//	metrics := observability.NewMetrics("crisnet")
//	metrics.RecordPageFetched(100, elapsed.Seconds())
//	_ = metrics.WriteTextfile("/var/lib/node_exporter/crisnet.prom")
//
// # Standard Fields
//
//   - run_id: identifier of one CLI invocation
//   - command: fetch, enrich, graph or units
//   - component: pipeline stage (fetcher, enricher, graph, export)
//   - page, page_count: pagination progress
//   - publication_id: publication being looked up
package observability
