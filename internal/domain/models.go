// Package domain provides the data model shared by the fetch, table and graph stages.
package domain

// UnknownUnit is recorded as the department when a fetch runs without a unit id.
const UnknownUnit = "unknown"

// AuthorSeparator joins multi-valued author fields in flat records.
const AuthorSeparator = ";"

// Column names of the flat publication table, in the order they are written.
const (
	ColumnID         = "id"
	ColumnTitle      = "titleOfPublication"
	ColumnAuthors    = "authors"
	ColumnAuthorIDs  = "authorIds"
	ColumnYear       = "yearOfPublication"
	ColumnUnitID     = "localUnitId"
	ColumnDepartment = "department"
)

// Columns added to an existing table by the enrichment pass.
const (
	ColumnLocalAuthorIDs = "local_author_ids"
	ColumnLocalAuthors   = "local_authors"
)

// FlatColumns is the fixed header of a flat publication table:
// key first, then title, author, year and unit fields.
var FlatColumns = []string{
	ColumnID,
	ColumnTitle,
	ColumnAuthors,
	ColumnAuthorIDs,
	ColumnYear,
	ColumnUnitID,
	ColumnDepartment,
}

// Author is one author of a publication as reported by the remote source.
type Author struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// PublicationRecord is one retrieved publication after normalization.
// Title and Year are kept verbatim; missing values are empty strings.
type PublicationRecord struct {
	ID    string
	Title string
	// AuthorsRaw is the source-specific authors object. Only author sources
	// look inside it.
	AuthorsRaw any
	Year       string
	UnitID     string
	Unit       string
	Authors    []Author
}

// AuthorNames returns the display names of the record's authors in order.
func (p PublicationRecord) AuthorNames() []string {
	names := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		names = append(names, a.Name)
	}
	return names
}

// FlatRecord is the persisted row for one publication. AuthorIDs lines up
// with Authors, one slot per author and empty for an author without id; it is
// nil when no author has an id.
type FlatRecord struct {
	ID         string
	Title      string
	Authors    []string
	AuthorIDs  []string
	Year       string
	UnitID     string
	Department string
}

// Flatten reduces a publication to its tabular form.
func (p PublicationRecord) Flatten() FlatRecord {
	var ids []string
	for i, a := range p.Authors {
		if a.ID == "" {
			continue
		}
		if ids == nil {
			ids = make([]string, len(p.Authors))
		}
		ids[i] = a.ID
	}
	return FlatRecord{
		ID:         p.ID,
		Title:      p.Title,
		Authors:    p.AuthorNames(),
		AuthorIDs:  ids,
		Year:       p.Year,
		UnitID:     p.UnitID,
		Department: p.Unit,
	}
}

// Values returns the record's cells in FlatColumns order.
func (r FlatRecord) Values() []string {
	return []string{
		r.ID,
		r.Title,
		JoinAuthors(r.Authors),
		JoinAuthors(r.AuthorIDs),
		r.Year,
		r.UnitID,
		r.Department,
	}
}

// Edge is a co-authorship between two distinct authors on one publication in one year.
// Source is always the lexicographically smaller name.
type Edge struct {
	Source      string
	Target      string
	Publication string
	Year        string
}

// NewEdge builds the canonical edge for the unordered pair {a, b}.
func NewEdge(a, b, publication, year string) Edge {
	if b < a {
		a, b = b, a
	}
	return Edge{Source: a, Target: b, Publication: publication, Year: year}
}

// Node is one author in the co-authorship graph.
type Node struct {
	ID          string
	Label       string
	Affiliation string
}
