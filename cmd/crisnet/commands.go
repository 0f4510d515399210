package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/attlih/cris-network-tool/internal/authors"
	"github.com/attlih/cris-network-tool/internal/fetcher"
	"github.com/attlih/cris-network-tool/internal/graph"
	"github.com/attlih/cris-network-tool/internal/normalize"
	"github.com/attlih/cris-network-tool/internal/pipeline"
)

func newFetchCmd(a *app) *cobra.Command {
	var (
		req      pipeline.FetchRequest
		strategy string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch publications for a year range and unit",
		Long: `Fetch retrieves every page of publications for the year range and unit,
normalizes them and writes a CSV table. When a page after the first fails,
the publications collected so far are still written and the command exits
with an error.

Examples:
  crisnet fetch --start 2020 --end 2024 --unit 1230
  crisnet fetch --start 2022 --end 2022 --authors detail --graph`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strategy != "" {
				a.cfg.Authors.Strategy = strategy
			}
			return a.execute(cmd, func(ctx context.Context) error {
				client := a.crisClient()
				lookup, err := a.unitLookup()
				if err != nil {
					return err
				}
				source, err := authors.New(a.cfg.Authors.Strategy, client)
				if err != nil {
					return err
				}
				f := fetcher.New(client, source, normalize.New(lookup), fetcher.Config{
					PageSize:  a.cfg.Source.PageSize,
					PageDelay: a.cfg.Source.PageDelay,
				}, a.logger, a.metrics)

				p, cleanup, err := a.pipeline(ctx, pipeline.Deps{Fetcher: f})
				if err != nil {
					return err
				}
				defer cleanup()

				report, err := p.Fetch(ctx, req)
				if report != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "saved %d of %d publications to %s\n",
						len(report.Result.Records), report.Result.TotalCount, report.Output)
					printGraph(cmd, report.Graph)
				}
				return err
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.Query.StartYear, "start", "", "First publication year (YYYY)")
	flags.StringVar(&req.Query.EndYear, "end", "", "Last publication year (YYYY)")
	flags.StringVar(&req.Query.UnitID, "unit", "", "Organizational unit id (default: all units)")
	flags.StringVarP(&req.Output, "out", "o", "", "Output CSV (default: publications_<start>_<end>.csv in output.dir)")
	flags.StringVar(&strategy, "authors", "", "Author strategy: list or detail (default from config)")
	flags.BoolVar(&req.BuildGraph, "graph", false, "Also write edgelist_ and nodelist_ files")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newEnrichCmd(a *app) *cobra.Command {
	var req pipeline.EnrichRequest

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Add local author ids and names to a publication table",
		Long: `Enrich looks up every distinct publication id of the input table on the
detail endpoint, adds the local_author_ids and local_authors columns and
writes the updated table together with its co-authorship edge list.

Examples:
  crisnet enrich --in publications_2020_2024.csv
  crisnet enrich --in pubs.csv --out pubs_with_authors.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.execute(cmd, func(ctx context.Context) error {
				p, cleanup, err := a.pipeline(ctx, pipeline.Deps{Enricher: a.enricher(a.crisClient())})
				if err != nil {
					return err
				}
				defer cleanup()

				report, err := p.Enrich(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "enriched %d of %d publications, saved to %s\n",
					report.Result.Enriched, report.Result.Unique, report.Output)
				printGraph(cmd, report.Graph)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&req.Input, "in", "i", "", "Input publication CSV")
	cmd.Flags().StringVarP(&req.Output, "out", "o", "", "Output CSV (default: updated_<input>)")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func newGraphCmd(a *app) *cobra.Command {
	var req pipeline.GraphRequest

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Build co-authorship edge and node lists from a publication table",
		Long: `Graph reads a publication table and writes an edge list with one row per
co-author pair, publication and year, and a node list with each author's most
frequent affiliation.

Column candidates, first present wins:
  authors      ` + strings.Join(graph.AuthorColumns, ", ") + `
  title        ` + strings.Join(graph.TitleColumns, ", ") + `
  year         ` + strings.Join(graph.YearColumns, ", ") + `
  affiliation  ` + strings.Join(graph.AffiliationColumns, ", ") + `

Examples:
  crisnet graph --in publications_2020_2024.csv
  crisnet graph --in pubs.csv --authors-column authors --xlsx network.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.execute(cmd, func(ctx context.Context) error {
				p, cleanup, err := a.pipeline(ctx, pipeline.Deps{})
				if err != nil {
					return err
				}
				defer cleanup()

				report, err := p.Graph(ctx, req)
				if err != nil {
					return err
				}
				printGraph(cmd, report)
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&req.Input, "in", "i", "", "Input publication CSV")
	flags.StringVar(&req.Edges, "edges", "", "Edge list CSV (default: edgelist_<input>)")
	flags.StringVar(&req.Nodes, "nodes", "", "Node list CSV (default: nodelist_<input>)")
	flags.StringVar(&req.Columns.Authors, "authors-column", "", "Force the author column")
	flags.StringVar(&req.Columns.Title, "title-column", "", "Force the title column")
	flags.StringVar(&req.Columns.Year, "year-column", "", "Force the year column")
	flags.StringVar(&req.Columns.Affiliation, "affiliation-column", "", "Force the affiliation column")
	flags.StringVar(&req.XLSX, "xlsx", "", "Also write an XLSX workbook with edges and nodes sheets")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func newUnitsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "units",
		Short: "List the known organizational units",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lookup, err := a.unitLookup()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME")
			for _, u := range lookup.Units() {
				fmt.Fprintf(w, "%s\t%s\n", u.ID, u.Name)
			}
			return w.Flush()
		},
	}
}

func printGraph(cmd *cobra.Command, r *pipeline.GraphReport) {
	if r == nil {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "unique authors: %d\n", r.Graph.UniqueAuthors())
	fmt.Fprintf(out, "total connections: %d\n", len(r.Graph.Edges))
	for _, path := range []string{r.Edges, r.Nodes, r.XLSX} {
		if path != "" {
			fmt.Fprintf(out, "wrote %s\n", path)
		}
	}
}
