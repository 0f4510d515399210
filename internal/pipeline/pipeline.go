// Package pipeline wires the fetch, enrichment and graph stages into the runs
// exposed by the command line. Every stage exchanges data through CSV files
// so a later run can start from any intermediate table.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/attlih/cris-network-tool/internal/enrich"
	"github.com/attlih/cris-network-tool/internal/fetcher"
	"github.com/attlih/cris-network-tool/internal/graph"
	"github.com/attlih/cris-network-tool/internal/observability"
	"github.com/attlih/cris-network-tool/internal/table"
)

// Row-count labels for written tables.
const (
	tablePublications = "publications"
	tableEdges        = "edges"
	tableNodes        = "nodes"
)

// ErrIncomplete is returned after a fetch that stopped before its last page.
// The collected records have been written when it is returned.
var ErrIncomplete = errors.New("fetch incomplete")

// Fetcher retrieves the publications of a query.
type Fetcher interface {
	Fetch(ctx context.Context, q fetcher.Query) (*fetcher.Result, error)
}

// Enricher adds local author columns to a publication table.
type Enricher interface {
	Enrich(ctx context.Context, t *table.Table) (*enrich.Result, error)
}

// GraphPusher receives every built graph.
type GraphPusher interface {
	Push(ctx context.Context, g *graph.Graph) error
}

// FileUploader publishes the files a run produced.
type FileUploader interface {
	UploadFiles(ctx context.Context, paths ...string) ([]string, error)
}

// Options holds output settings shared by every run.
type Options struct {
	// OutputDir holds default-named fetch outputs.
	OutputDir string

	// XLSX also writes each graph as a two-sheet workbook.
	XLSX bool
}

// Deps are the stages a Pipeline drives. Fetcher and Enricher are only
// required by the runs that use them; Pusher and Uploader are optional.
type Deps struct {
	Fetcher  Fetcher
	Enricher Enricher
	Pusher   GraphPusher
	Uploader FileUploader
}

// Pipeline runs the command-level workflows.
type Pipeline struct {
	deps    Deps
	opts    Options
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// New creates a Pipeline.
func New(deps Deps, opts Options, logger zerolog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	return &Pipeline{
		deps:    deps,
		opts:    opts,
		logger:  observability.WithComponent(logger, "pipeline"),
		metrics: metrics,
	}
}

// FetchRequest describes a fetch run.
type FetchRequest struct {
	Query fetcher.Query

	// Output is the publication table path; empty uses PublicationsName
	// inside the output directory.
	Output string

	// BuildGraph also writes the edge and node lists of the fetched table.
	BuildGraph bool

	// Columns forces graph column names.
	Columns graph.Columns
}

// FetchReport summarizes a fetch run.
type FetchReport struct {
	Result *fetcher.Result
	Output string
	Graph  *GraphReport
	Files  []string
}

// Fetch retrieves the publications of req.Query and writes them as a table.
// A partial fetch is still written and reported, then ErrIncomplete is
// returned with the report.
func (p *Pipeline) Fetch(ctx context.Context, req FetchRequest) (*FetchReport, error) {
	if p.deps.Fetcher == nil {
		return nil, errors.New("pipeline: no fetcher configured")
	}

	result, err := p.deps.Fetcher.Fetch(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	output := req.Output
	if output == "" {
		output = filepath.Join(p.opts.OutputDir, PublicationsName(req.Query.StartYear, req.Query.EndYear))
	}
	report := &FetchReport{Result: result, Output: output}

	t := table.FromRecords(result.Flat())
	if err := p.writeTable(output, tablePublications, t); err != nil {
		return report, err
	}
	report.Files = append(report.Files, output)
	p.logger.Info().
		Str("path", output).
		Int("rows", t.Len()).
		Int("reported", result.TotalCount).
		Msg("publications saved")

	if req.BuildGraph {
		edges := filepath.Join(filepath.Dir(output), EdgeListName(req.Query.StartYear, req.Query.EndYear))
		nodes := filepath.Join(filepath.Dir(output), NodeListName(req.Query.StartYear, req.Query.EndYear))
		gr, err := p.buildGraph(ctx, GraphRequest{Input: output, Edges: edges, Nodes: nodes, Columns: req.Columns})
		if err != nil {
			return report, err
		}
		report.Graph = gr
		report.Files = append(report.Files, gr.Files...)
	}

	if err := p.upload(ctx, report.Files); err != nil {
		return report, err
	}

	if !result.Complete() {
		return report, fmt.Errorf("%w: stopped at page %d of %d: %w",
			ErrIncomplete, result.StoppedAt, result.PageCount, result.Err)
	}
	return report, nil
}

// EnrichRequest describes an enrichment run.
type EnrichRequest struct {
	Input string

	// Output defaults to UpdatedName(Input).
	Output string
}

// EnrichReport summarizes an enrichment run.
type EnrichReport struct {
	Result *enrich.Result
	Output string
	Graph  *GraphReport
	Files  []string
}

// Enrich adds local author columns to the table at req.Input, writes the
// updated table and its edge list. Nothing is written when no publication
// yielded authors.
func (p *Pipeline) Enrich(ctx context.Context, req EnrichRequest) (*EnrichReport, error) {
	if p.deps.Enricher == nil {
		return nil, errors.New("pipeline: no enricher configured")
	}

	t, err := table.ReadFile(req.Input)
	if err != nil {
		return nil, err
	}

	result, err := p.deps.Enricher.Enrich(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("enriching %s: %w", req.Input, err)
	}

	output := req.Output
	if output == "" {
		output = UpdatedName(req.Input)
	}
	report := &EnrichReport{Result: result, Output: output}

	if err := p.writeTable(output, tablePublications, result.Table); err != nil {
		return report, err
	}
	report.Files = append(report.Files, output)
	p.logger.Info().Str("path", output).Int("enriched", result.Enriched).Msg("updated table saved")

	gr, err := p.buildGraph(ctx, GraphRequest{Input: output, Edges: EnrichedEdgeListName(output), EdgesOnly: true})
	if err != nil {
		return report, err
	}
	report.Graph = gr
	report.Files = append(report.Files, gr.Files...)

	if err := p.upload(ctx, report.Files); err != nil {
		return report, err
	}
	return report, nil
}

// GraphRequest describes a graph build.
type GraphRequest struct {
	Input string

	// Edges and Nodes default to edgelist_ and nodelist_ prefixed input names.
	Edges string
	Nodes string

	// EdgesOnly skips the node list file. The input then needs no
	// affiliation column.
	EdgesOnly bool

	// XLSX is an explicit workbook path. When empty and the pipeline is
	// configured for workbooks, the edge list name with .xlsx is used.
	XLSX string

	Columns graph.Columns
}

// GraphReport summarizes a graph build.
type GraphReport struct {
	Graph *graph.Graph
	Edges string
	Nodes string
	XLSX  string
	Files []string
}

// Graph builds the co-authorship graph of the table at req.Input.
func (p *Pipeline) Graph(ctx context.Context, req GraphRequest) (*GraphReport, error) {
	report, err := p.buildGraph(ctx, req)
	if err != nil {
		return report, err
	}
	if err := p.upload(ctx, report.Files); err != nil {
		return report, err
	}
	return report, nil
}

func (p *Pipeline) buildGraph(ctx context.Context, req GraphRequest) (*GraphReport, error) {
	t, err := table.ReadFile(req.Input)
	if err != nil {
		return nil, err
	}

	cols := req.Columns
	if req.EdgesOnly {
		cols.AffiliationOptional = true
	}
	g, err := graph.NewBuilder(cols).Build(t)
	if err != nil {
		return nil, fmt.Errorf("building graph from %s: %w", req.Input, err)
	}
	p.metrics.RecordGraphBuilt(len(g.Edges), len(g.Nodes))

	defEdges, defNodes := graphNames(req.Input)
	report := &GraphReport{Graph: g, Edges: req.Edges, Nodes: req.Nodes}
	if report.Edges == "" {
		report.Edges = defEdges
	}
	if report.Nodes == "" && !req.EdgesOnly {
		report.Nodes = defNodes
	}

	if err := p.writeTable(report.Edges, tableEdges, g.EdgeTable()); err != nil {
		return report, err
	}
	report.Files = append(report.Files, report.Edges)

	if !req.EdgesOnly {
		if err := p.writeTable(report.Nodes, tableNodes, g.NodeTable()); err != nil {
			return report, err
		}
		report.Files = append(report.Files, report.Nodes)
	}

	report.XLSX = req.XLSX
	if report.XLSX == "" && p.opts.XLSX {
		report.XLSX = xlsxName(report.Edges)
	}
	if report.XLSX != "" {
		if err := table.WriteXLSX(report.XLSX,
			table.Sheet{Name: tableEdges, Table: g.EdgeTable()},
			table.Sheet{Name: tableNodes, Table: g.NodeTable()},
		); err != nil {
			return report, err
		}
		report.Files = append(report.Files, report.XLSX)
	}

	p.logger.Info().
		Str("columns_authors", g.Columns.Authors).
		Str("columns_affiliation", g.Columns.Affiliation).
		Int("unique_authors", g.UniqueAuthors()).
		Int("total_connections", len(g.Edges)).
		Str("edges", report.Edges).
		Msg("co-authorship graph built")

	if p.deps.Pusher != nil {
		if err := p.deps.Pusher.Push(ctx, g); err != nil {
			return report, fmt.Errorf("pushing graph: %w", err)
		}
	}
	return report, nil
}

func (p *Pipeline) writeTable(path, name string, t *table.Table) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := table.WriteFile(path, t); err != nil {
		return err
	}
	p.metrics.RecordRowsWritten(name, t.Len())
	return nil
}

func (p *Pipeline) upload(ctx context.Context, files []string) error {
	if p.deps.Uploader == nil || len(files) == 0 {
		return nil
	}
	keys, err := p.deps.Uploader.UploadFiles(ctx, files...)
	if err != nil {
		return fmt.Errorf("uploading outputs: %w", err)
	}
	p.logger.Info().Strs("keys", keys).Msg("outputs uploaded")
	return nil
}
