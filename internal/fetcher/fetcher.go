// Package fetcher retrieves every page of a publication query.
//
// Pagination is sequential. Page 1 establishes the page and record totals;
// pages 2..N follow in order with a fixed pause between requests. A failure
// on page 1 is returned as an error. A failure on any later page stops
// pagination and the records collected so far are returned in a Result whose
// Err and StoppedAt describe where it stopped.
package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/attlih/cris-network-tool/internal/authors"
	"github.com/attlih/cris-network-tool/internal/domain"
	"github.com/attlih/cris-network-tool/internal/normalize"
	"github.com/attlih/cris-network-tool/internal/observability"
	"github.com/attlih/cris-network-tool/internal/papersources"
	"github.com/attlih/cris-network-tool/internal/papersources/cris"
)

const (
	// DefaultPageSize is the list page size.
	DefaultPageSize = cris.DefaultPageSize

	// DefaultPageDelay is the pause after each page beyond the first.
	DefaultPageDelay = time.Second
)

// PageSource returns one page of the publication list.
type PageSource interface {
	ListPublications(ctx context.Context, q cris.ListQuery) (*cris.ListResponse, error)
}

// Config holds pagination settings.
type Config struct {
	// PageSize is sent as limit and used to compute skip.
	PageSize int

	// PageDelay is observed after every successful page beyond the first
	// while more pages remain. Zero disables the pause.
	PageDelay time.Duration
}

// DefaultConfig returns the default pagination settings.
func DefaultConfig() Config {
	return Config{
		PageSize:  DefaultPageSize,
		PageDelay: DefaultPageDelay,
	}
}

// Query selects the publications to fetch.
type Query struct {
	StartYear string `validate:"required,len=4,numeric"`
	EndYear   string `validate:"required,len=4,numeric"`
	// UnitID may be empty to query all units.
	UnitID string
}

// Result is the outcome of a fetch that got past its first page.
type Result struct {
	// Records are the normalized publications in server order.
	Records []domain.PublicationRecord

	// TotalCount and PageCount are the totals reported with page 1.
	TotalCount int
	PageCount  int

	// PagesFetched is the number of pages retrieved.
	PagesFetched int

	// StoppedAt is the page that failed, or 0 when every page was retrieved.
	StoppedAt int

	// Err is the failure that stopped pagination.
	Err error

	// AuthorFailures counts records whose authors could not be resolved.
	AuthorFailures int
}

// Complete reports whether every page was retrieved.
func (r *Result) Complete() bool {
	return r.Err == nil
}

// Missing returns how many reported records were not collected.
func (r *Result) Missing() int {
	if n := r.TotalCount - len(r.Records); n > 0 {
		return n
	}
	return 0
}

// Flat returns the records in their tabular form.
func (r *Result) Flat() []domain.FlatRecord {
	out := make([]domain.FlatRecord, 0, len(r.Records))
	for _, rec := range r.Records {
		out = append(out, rec.Flatten())
	}
	return out
}

// Fetcher drives the paginated retrieval of one query at a time.
type Fetcher struct {
	source     PageSource
	authors    authors.Source
	normalizer *normalize.Normalizer
	config     Config
	logger     zerolog.Logger
	metrics    *observability.Metrics
	validate   *validator.Validate
}

// New creates a Fetcher. A nil author source defaults to the list strategy
// and a nil normalizer keeps raw unit ids.
func New(
	source PageSource,
	authorSource authors.Source,
	norm *normalize.Normalizer,
	cfg Config,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Fetcher {
	if authorSource == nil {
		authorSource = authors.ListSource{}
	}
	if norm == nil {
		norm = &normalize.Normalizer{}
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.PageDelay < 0 {
		cfg.PageDelay = 0
	}

	return &Fetcher{
		source:     source,
		authors:    authorSource,
		normalizer: norm,
		config:     cfg,
		logger:     observability.WithComponent(logger, "fetcher"),
		metrics:    metrics,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Fetch retrieves all pages for q. It returns an error when q is invalid or
// page 1 fails; otherwise it returns a Result, partial if a later page failed.
func (f *Fetcher) Fetch(ctx context.Context, q Query) (*Result, error) {
	if err := f.validateQuery(q); err != nil {
		return nil, err
	}

	logger := observability.WithFetchContext(f.logger, q.StartYear, q.EndYear, q.UnitID)

	first, err := f.fetchPage(ctx, q, 1)
	if err != nil {
		logger.Error().Err(err).Int("page", 1).Msg("first page failed")
		return nil, fmt.Errorf("fetching page 1: %w", err)
	}

	result := &Result{
		TotalCount: first.Meta.TotalCount,
		PageCount:  first.Meta.PageCount,
	}
	logger.Info().
		Int("total_count", result.TotalCount).
		Int("page_count", result.PageCount).
		Msg("publications to fetch")

	f.collect(ctx, logger, result, first, q.UnitID)

	for page := 2; page <= result.PageCount; page++ {
		resp, err := f.fetchPage(ctx, q, page)
		if err != nil {
			result.StoppedAt = page
			result.Err = fmt.Errorf("fetching page %d: %w", page, err)
			logger.Error().Err(err).
				Int("page", page).
				Int("page_count", result.PageCount).
				Msg("page failed, stopping pagination")
			break
		}

		f.collect(ctx, logger, result, resp, q.UnitID)
		logger.Info().
			Int("page", page).
			Int("page_count", result.PageCount).
			Int("skip", (page-1)*f.config.PageSize).
			Msg("page fetched")

		if page < result.PageCount {
			if err := papersources.Sleep(ctx, f.config.PageDelay); err != nil {
				result.StoppedAt = page + 1
				result.Err = fmt.Errorf("waiting before page %d: %w", page+1, err)
				logger.Warn().Err(err).Int("page", page+1).Msg("fetch interrupted")
				break
			}
		}
	}

	if missing := result.Missing(); missing > 0 || !result.Complete() {
		logger.Warn().
			Int("collected", len(result.Records)).
			Int("total_count", result.TotalCount).
			Int("missing", missing).
			Msg("collected fewer publications than reported")
	}
	f.metrics.RecordFetchTotals(result.TotalCount, result.Complete())

	logger.Info().
		Int("collected", len(result.Records)).
		Int("pages_fetched", result.PagesFetched).
		Bool("complete", result.Complete()).
		Msg("fetch finished")

	return result, nil
}

func (f *Fetcher) validateQuery(q Query) error {
	if err := f.validate.Struct(q); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return domain.NewValidationError(fe.Field(),
				fmt.Sprintf("%q fails %s", fmt.Sprint(fe.Value()), fe.Tag()))
		}
		return fmt.Errorf("validating query: %w", err)
	}
	if q.EndYear < q.StartYear {
		return domain.NewValidationError("EndYear", "end year precedes start year")
	}
	return nil
}

func (f *Fetcher) fetchPage(ctx context.Context, q Query, page int) (*cris.ListResponse, error) {
	start := time.Now()
	resp, err := f.source.ListPublications(ctx, cris.ListQuery{
		StartYear:  q.StartYear,
		EndYear:    q.EndYear,
		UnitID:     q.UnitID,
		PageParams: papersources.PageParamsFor(page, f.config.PageSize),
	})
	elapsed := time.Since(start).Seconds()
	if err != nil {
		f.metrics.RecordPageFailed(elapsed)
		return nil, err
	}
	f.metrics.RecordPageFetched(len(resp.Data), elapsed)
	return resp, nil
}

// collect normalizes a page into result. Author failures are per record.
func (f *Fetcher) collect(ctx context.Context, logger zerolog.Logger, result *Result, resp *cris.ListResponse, unitID string) {
	result.PagesFetched++
	detail := f.authors.Name() == authors.StrategyDetail

	for _, raw := range resp.Data {
		rec := f.normalizer.Publication(raw, unitID)

		start := time.Now()
		found, err := f.authors.Authors(ctx, rec)
		if detail {
			f.metrics.RecordDetailLookup(err == nil, time.Since(start).Seconds())
		}
		if err != nil {
			result.AuthorFailures++
			plog := observability.WithPublicationContext(logger, rec.ID)
			plog.Warn().Err(err).Msg("no author information, continuing")
			found = nil
		}
		rec.Authors = found

		result.Records = append(result.Records, rec)
	}
}
