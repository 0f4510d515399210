// Package enrich adds local author ids and names to an existing publication
// table by looking up every distinct publication id on the detail endpoint.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/attlih/cris-network-tool/internal/authors"
	"github.com/attlih/cris-network-tool/internal/domain"
	"github.com/attlih/cris-network-tool/internal/observability"
	"github.com/attlih/cris-network-tool/internal/papersources"
	"github.com/attlih/cris-network-tool/internal/table"
)

// ErrNoAuthorInfo is returned when no lookup produced any author.
var ErrNoAuthorInfo = errors.New("no author information found")

const (
	// DefaultBatchSize is the number of lookups between pauses.
	DefaultBatchSize = 10

	// DefaultBatchPause is the pause after each batch.
	DefaultBatchPause = time.Second
)

// Config holds lookup pacing.
type Config struct {
	BatchSize  int
	BatchPause time.Duration
}

// DefaultConfig returns the default pacing.
func DefaultConfig() Config {
	return Config{BatchSize: DefaultBatchSize, BatchPause: DefaultBatchPause}
}

// Result describes one enrichment pass.
type Result struct {
	// Table is the input table with local_author_ids and local_authors set.
	Table *table.Table

	// Unique is the number of distinct publication ids looked up.
	Unique int

	// Enriched is the number of publications that yielded authors.
	Enriched int

	// Failed is the number of lookups that returned an error.
	Failed int
}

// Enricher performs the detail lookups.
type Enricher struct {
	client  authors.DetailClient
	config  Config
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// New creates an Enricher.
func New(client authors.DetailClient, cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Enricher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchPause < 0 {
		cfg.BatchPause = 0
	}
	return &Enricher{
		client:  client,
		config:  cfg,
		logger:  observability.WithComponent(logger, "enricher"),
		metrics: metrics,
	}
}

type found struct {
	ids   []string
	names []string
}

// Enrich looks up every distinct id of t and sets the local author columns
// on each row. A failed lookup leaves that publication's cells empty. The
// table must have an id column. ErrNoAuthorInfo is returned, together with
// the result, when no publication yielded authors.
func (e *Enricher) Enrich(ctx context.Context, t *table.Table) (*Result, error) {
	if err := t.Require(domain.ColumnID); err != nil {
		return nil, err
	}

	ids := uniqueIDs(t.Column(domain.ColumnID))
	total := len(ids)
	e.logger.Info().Int("total", total).Msg("unique publications to process")

	byID := make(map[string]found, total)
	result := &Result{Table: t, Unique: total}

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("enrichment interrupted at %d/%d: %w", i, total, err)
		}

		logger := observability.WithPublicationContext(e.logger, id)
		logger.Info().
			Int("index", i+1).
			Int("total", total).
			Str("progress", fmt.Sprintf("%.1f%%", float64(i+1)/float64(total)*100)).
			Msg("processing publication")

		start := time.Now()
		resp, err := e.client.GetPublication(ctx, id)
		e.metrics.RecordDetailLookup(err == nil, time.Since(start).Seconds())
		if err != nil {
			result.Failed++
			logger.Warn().Err(err).Msg("detail lookup failed, skipping")
		} else if f := collect(authors.FromDetail(resp)); len(f.ids) > 0 {
			byID[id] = f
			result.Enriched++
		}

		if (i+1)%e.config.BatchSize == 0 && i+1 < total {
			if err := papersources.Sleep(ctx, e.config.BatchPause); err != nil {
				return nil, fmt.Errorf("enrichment interrupted at %d/%d: %w", i+1, total, err)
			}
		}
	}

	e.logger.Info().
		Int("enriched", result.Enriched).
		Int("failed", result.Failed).
		Int("total", total).
		Msg("done fetching publication details")

	if result.Enriched == 0 {
		return result, ErrNoAuthorInfo
	}

	rowIDs := t.Column(domain.ColumnID)
	authorIDs := make([]string, len(rowIDs))
	authorNames := make([]string, len(rowIDs))
	for r, id := range rowIDs {
		if f, ok := byID[id]; ok {
			authorIDs[r] = domain.JoinAuthors(f.ids)
			authorNames[r] = domain.JoinAuthors(f.names)
		}
	}
	t.SetColumn(domain.ColumnLocalAuthorIDs, authorIDs)
	t.SetColumn(domain.ColumnLocalAuthors, authorNames)

	return result, nil
}

func collect(list []domain.Author) found {
	var f found
	for _, a := range list {
		if a.ID != "" {
			f.ids = append(f.ids, a.ID)
		}
		if a.Name != "" {
			f.names = append(f.names, a.Name)
		}
	}
	return f
}

// uniqueIDs returns the distinct non-empty ids in first-seen order.
func uniqueIDs(column []string) []string {
	seen := make(map[string]struct{}, len(column))
	out := make([]string, 0, len(column))
	for _, id := range column {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
