// Package table reads and writes the delimited tables exchanged between the
// fetch, enrich and graph stages.
//
// Tables are UTF-8 CSV with a header row. Multi-valued author fields are
// joined with ";" inside one cell.
package table

import (
	"github.com/attlih/cris-network-tool/internal/domain"
)

// Column names of graph output tables.
const (
	ColumnSource      = "source"
	ColumnTarget      = "target"
	ColumnPublication = "publication"
	ColumnEdgeYear    = "year"

	ColumnNodeID      = "id"
	ColumnLabel       = "label"
	ColumnAffiliation = "affiliation"
)

// EdgeColumns is the header of an edge list.
var EdgeColumns = []string{ColumnSource, ColumnTarget, ColumnPublication, ColumnEdgeYear}

// NodeColumns is the header of a node list.
var NodeColumns = []string{ColumnNodeID, ColumnLabel, ColumnAffiliation}

// Table is a header plus rows. Every row has len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// New creates an empty table with the given header.
func New(header ...string) *Table {
	h := make([]string, len(header))
	copy(h, header)
	return &Table{Header: h}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of column name, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Has reports whether the table has column name.
func (t *Table) Has(name string) bool {
	return t.Index(name) >= 0
}

// First returns the first of names that the table has.
func (t *Table) First(names ...string) (string, bool) {
	for _, n := range names {
		if t.Has(n) {
			return n, true
		}
	}
	return "", false
}

// Require returns an input-shape error naming every column in names that the
// table lacks.
func (t *Table) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if !t.Has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return domain.NewInputShapeError(missing, t.Header)
	}
	return nil
}

// Append adds a row, padding or truncating it to the header width.
func (t *Table) Append(cells ...string) {
	row := make([]string, len(t.Header))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Column returns the cells of column name, or nil if absent.
func (t *Table) Column(name string) []string {
	i := t.Index(name)
	if i < 0 {
		return nil
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out
}

// SetColumn sets column name to values, appending the column if absent.
// Rows beyond len(values) get an empty cell.
func (t *Table) SetColumn(name string, values []string) {
	i := t.Index(name)
	if i < 0 {
		t.Header = append(t.Header, name)
		i = len(t.Header) - 1
		for r := range t.Rows {
			t.Rows[r] = append(t.Rows[r], "")
		}
	}
	for r := range t.Rows {
		v := ""
		if r < len(values) {
			v = values[r]
		}
		t.Rows[r][i] = v
	}
}

// FromRecords builds the flat publication table.
func FromRecords(records []domain.FlatRecord) *Table {
	t := New(domain.FlatColumns...)
	for _, r := range records {
		t.Append(r.Values()...)
	}
	return t
}

// Records reads flat publication rows back. The table must have the title,
// authors and year columns; the others default to empty.
func (t *Table) Records() ([]domain.FlatRecord, error) {
	if err := t.Require(domain.ColumnTitle, domain.ColumnAuthors, domain.ColumnYear); err != nil {
		return nil, err
	}

	get := t.getter()
	out := make([]domain.FlatRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, domain.FlatRecord{
			ID:         get(row, domain.ColumnID),
			Title:      get(row, domain.ColumnTitle),
			Authors:    domain.SplitAuthors(get(row, domain.ColumnAuthors)),
			AuthorIDs:  domain.SplitAuthorIDs(get(row, domain.ColumnAuthorIDs)),
			Year:       get(row, domain.ColumnYear),
			UnitID:     get(row, domain.ColumnUnitID),
			Department: get(row, domain.ColumnDepartment),
		})
	}
	return out, nil
}

// FromEdges builds an edge list table.
func FromEdges(edges []domain.Edge) *Table {
	t := New(EdgeColumns...)
	for _, e := range edges {
		t.Append(e.Source, e.Target, e.Publication, e.Year)
	}
	return t
}

// Edges reads an edge list table.
func (t *Table) Edges() ([]domain.Edge, error) {
	if err := t.Require(EdgeColumns...); err != nil {
		return nil, err
	}
	get := t.getter()
	out := make([]domain.Edge, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, domain.Edge{
			Source:      get(row, ColumnSource),
			Target:      get(row, ColumnTarget),
			Publication: get(row, ColumnPublication),
			Year:        get(row, ColumnEdgeYear),
		})
	}
	return out, nil
}

// FromNodes builds a node list table.
func FromNodes(nodes []domain.Node) *Table {
	t := New(NodeColumns...)
	for _, n := range nodes {
		t.Append(n.ID, n.Label, n.Affiliation)
	}
	return t
}

// Nodes reads a node list table.
func (t *Table) Nodes() ([]domain.Node, error) {
	if err := t.Require(NodeColumns...); err != nil {
		return nil, err
	}
	get := t.getter()
	out := make([]domain.Node, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, domain.Node{
			ID:          get(row, ColumnNodeID),
			Label:       get(row, ColumnLabel),
			Affiliation: get(row, ColumnAffiliation),
		})
	}
	return out, nil
}

func (t *Table) getter() func(row []string, name string) string {
	idx := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}
	return func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
}
