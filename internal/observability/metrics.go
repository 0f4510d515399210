package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus metrics of one crisnet run.
// Metrics are organized by stage: fetch, detail lookups, graph and export.
// Every Metrics owns its registry, so a run can dump exactly its own series
// to a node-exporter textfile when it finishes.
type Metrics struct {
	registry *prometheus.Registry

	// PagesFetched counts list pages retrieved successfully.
	PagesFetched prometheus.Counter

	// PagesFailed counts list pages whose request failed.
	PagesFailed prometheus.Counter

	// RecordsFetched counts publications collected from list pages.
	RecordsFetched prometheus.Counter

	// RecordsReported is the total the source reported for the last fetch.
	RecordsReported prometheus.Gauge

	// FetchIncomplete is 1 when the last fetch stopped before its final page.
	FetchIncomplete prometheus.Gauge

	// DetailLookups counts detail-endpoint lookups, labeled by result (ok, failed).
	DetailLookups *prometheus.CounterVec

	// SourceRequestDuration observes request duration in seconds, labeled by endpoint.
	SourceRequestDuration *prometheus.HistogramVec

	// EdgesBuilt counts co-authorship edges produced.
	EdgesBuilt prometheus.Counter

	// NodesBuilt counts author nodes produced.
	NodesBuilt prometheus.Counter

	// RowsWritten counts table rows written, labeled by table kind.
	RowsWritten *prometheus.CounterVec

	// Exports counts export operations, labeled by sink and result.
	Exports *prometheus.CounterVec

	// RunDuration observes command duration in seconds, labeled by command and result.
	RunDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized
// on a fresh registry. The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		// Fetch
		PagesFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Total number of list pages fetched successfully",
		}),
		PagesFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_failed_total",
			Help:      "Total number of list pages that failed",
		}),
		RecordsFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_fetched_total",
			Help:      "Total number of publications collected",
		}),
		RecordsReported: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_reported",
			Help:      "Total number of publications reported by the source for the last fetch",
		}),
		FetchIncomplete: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fetch_incomplete",
			Help:      "1 if the last fetch stopped before its final page",
		}),

		// Detail lookups
		DetailLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detail_lookups_total",
			Help:      "Total number of publication detail lookups by result",
		}, []string{"result"}),
		SourceRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Duration of requests to the publication source in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"endpoint"}),

		// Graph
		EdgesBuilt: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_built_total",
			Help:      "Total number of co-authorship edges produced",
		}),
		NodesBuilt: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_built_total",
			Help:      "Total number of author nodes produced",
		}),
		RowsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Total number of table rows written by table kind",
		}, []string{"table"}),

		// Export and runs
		Exports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Total number of export operations by sink and result",
		}, []string{"sink", "result"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of crisnet commands in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200, 1800, 3600},
		}, []string{"command", "result"}),
	}
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

// All Record methods are no-ops on a nil receiver so stages can run without metrics.

// RecordPageFetched records a list page retrieved with the given record count.
func (m *Metrics) RecordPageFetched(records int, durationSeconds float64) {
	if m == nil {
		return
	}
	m.PagesFetched.Inc()
	m.RecordsFetched.Add(float64(records))
	m.SourceRequestDuration.WithLabelValues("list").Observe(durationSeconds)
}

// RecordPageFailed records a failed list page request.
func (m *Metrics) RecordPageFailed(durationSeconds float64) {
	if m == nil {
		return
	}
	m.PagesFailed.Inc()
	m.SourceRequestDuration.WithLabelValues("list").Observe(durationSeconds)
}

// RecordFetchTotals records the reported total and completion of a fetch.
func (m *Metrics) RecordFetchTotals(reported int, complete bool) {
	if m == nil {
		return
	}
	m.RecordsReported.Set(float64(reported))
	if complete {
		m.FetchIncomplete.Set(0)
	} else {
		m.FetchIncomplete.Set(1)
	}
}

// RecordDetailLookup records one detail-endpoint lookup.
func (m *Metrics) RecordDetailLookup(ok bool, durationSeconds float64) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.DetailLookups.WithLabelValues(result).Inc()
	m.SourceRequestDuration.WithLabelValues("detail").Observe(durationSeconds)
}

// RecordGraphBuilt records the size of a built graph.
func (m *Metrics) RecordGraphBuilt(edges, nodes int) {
	if m == nil {
		return
	}
	m.EdgesBuilt.Add(float64(edges))
	m.NodesBuilt.Add(float64(nodes))
}

// RecordRowsWritten records rows written to a table of the given kind.
func (m *Metrics) RecordRowsWritten(table string, rows int) {
	if m == nil {
		return
	}
	m.RowsWritten.WithLabelValues(table).Add(float64(rows))
}

// RecordExport records one export operation to sink.
func (m *Metrics) RecordExport(sink string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.Exports.WithLabelValues(sink, result).Inc()
}

// RecordRun records a finished command.
func (m *Metrics) RecordRun(command string, err error, durationSeconds float64) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.RunDuration.WithLabelValues(command, result).Observe(durationSeconds)
}
