// Package graph derives the co-authorship graph from a publication table.
//
// Edges join every pair of distinct authors listed on the same publication
// (title and year) with the lexicographically smaller name as source.
// Nodes carry the affiliation value seen most often on each author's rows.
package graph

import (
	"strings"

	"github.com/attlih/cris-network-tool/internal/domain"
	"github.com/attlih/cris-network-tool/internal/table"
)

// Candidate column names, in order of preference.
var (
	AuthorColumns      = []string{domain.ColumnLocalAuthors, domain.ColumnAuthors}
	TitleColumns       = []string{domain.ColumnTitle, table.ColumnPublication}
	YearColumns        = []string{domain.ColumnYear, table.ColumnEdgeYear}
	AffiliationColumns = []string{domain.ColumnDepartment, "unit", domain.ColumnUnitID, table.ColumnAffiliation}
)

// Columns names the input columns the builder reads. An empty field is
// resolved from the candidate lists; a set field must exist as given.
type Columns struct {
	Authors     string
	Title       string
	Year        string
	Affiliation string

	// AffiliationOptional lets a table without any affiliation column build.
	// Its nodes then carry an empty affiliation.
	AffiliationOptional bool
}

// Graph is the result of one build.
type Graph struct {
	Edges []domain.Edge
	Nodes []domain.Node

	// Columns are the input columns the graph was built from.
	Columns Columns
}

// UniqueAuthors returns the number of distinct authors.
func (g *Graph) UniqueAuthors() int {
	return len(g.Nodes)
}

// EdgeTable returns the edge list table.
func (g *Graph) EdgeTable() *table.Table {
	return table.FromEdges(g.Edges)
}

// NodeTable returns the node list table.
func (g *Graph) NodeTable() *table.Table {
	return table.FromNodes(g.Nodes)
}

// Builder builds graphs from tables.
type Builder struct {
	columns Columns
}

// NewBuilder creates a Builder. Zero fields of cols are auto-detected.
func NewBuilder(cols Columns) *Builder {
	return &Builder{columns: cols}
}

// ResolveColumns picks the input columns for t. It fails with a
// *domain.InputShapeError listing every required column it could not find.
func (b *Builder) ResolveColumns(t *table.Table) (Columns, error) {
	var (
		resolved Columns
		missing  []string
	)

	resolved.AffiliationOptional = b.columns.AffiliationOptional

	pick := func(forced string, candidates []string, optional bool, dst *string) {
		if forced != "" {
			if t.Has(forced) {
				*dst = forced
			} else {
				missing = append(missing, forced)
			}
			return
		}
		if name, ok := t.First(candidates...); ok {
			*dst = name
			return
		}
		if !optional {
			missing = append(missing, strings.Join(candidates, "|"))
		}
	}

	pick(b.columns.Authors, AuthorColumns, false, &resolved.Authors)
	pick(b.columns.Title, TitleColumns, false, &resolved.Title)
	pick(b.columns.Year, YearColumns, false, &resolved.Year)
	pick(b.columns.Affiliation, AffiliationColumns, b.columns.AffiliationOptional, &resolved.Affiliation)

	if len(missing) > 0 {
		return Columns{}, domain.NewInputShapeError(missing, t.Header)
	}
	return resolved, nil
}

// Build derives the edges and nodes of t. Nothing is returned when a
// required column is missing.
func (b *Builder) Build(t *table.Table) (*Graph, error) {
	cols, err := b.ResolveColumns(t)
	if err != nil {
		return nil, err
	}

	ai := t.Index(cols.Authors)
	ti := t.Index(cols.Title)
	yi := t.Index(cols.Year)
	fi := -1
	if cols.Affiliation != "" {
		fi = t.Index(cols.Affiliation)
	}

	pubs := newPublicationIndex()
	nodes := newNodeIndex()

	for r, row := range t.Rows {
		names := domain.SplitAuthors(row[ai])
		if len(names) == 0 {
			continue
		}
		pubs.add(r, row[ti], row[yi], names)
		var affiliation string
		if fi >= 0 {
			affiliation = row[fi]
		}
		nodes.add(names, affiliation)
	}

	return &Graph{
		Edges:   pubs.edges(),
		Nodes:   nodes.nodes(),
		Columns: cols,
	}, nil
}
