package table

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attlih/cris-network-tool/internal/domain"
)

func sampleRecords() []domain.FlatRecord {
	return []domain.FlatRecord{
		{
			ID:         "1",
			Title:      "Graphs, \"quoted\" and more",
			Authors:    []string{"Smith, John", "Doe, Jane"},
			AuthorIDs:  []string{"7", "8"},
			Year:       "2021",
			UnitID:     "10",
			Department: "Physics",
		},
		{
			ID:         "2",
			Title:      " leading space",
			Authors:    []string{"Roe, Ann"},
			Year:       "",
			UnitID:     "",
			Department: domain.UnknownUnit,
		},
	}
}

func TestFromRecords_Header(t *testing.T) {
	tbl := FromRecords(sampleRecords())
	assert.Equal(t, domain.FlatColumns, tbl.Header)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, "Smith, John;Doe, Jane", tbl.Rows[0][tbl.Index(domain.ColumnAuthors)])
}

func TestCSV_RoundTrip(t *testing.T) {
	records := sampleRecords()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, FromRecords(records)))

	tbl, err := ReadCSV(&buf)
	require.NoError(t, err)

	got, err := tbl.Records()
	require.NoError(t, err)
	require.Len(t, got, len(records))

	for i := range records {
		assert.Equal(t, records[i].Authors, got[i].Authors)
		assert.Equal(t, records[i].Department, got[i].Department)
		assert.Equal(t, records[i].Title, got[i].Title)
		assert.Equal(t, records[i].Year, got[i].Year)
	}
	assert.Equal(t, []string{"7", "8"}, got[0].AuthorIDs)
	assert.Nil(t, got[1].AuthorIDs)
}

func TestCSV_RoundTripKeepsAuthorIDSlots(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, FromRecords([]domain.FlatRecord{{
		Title:     "P",
		Authors:   []string{"A", "B", "C"},
		AuthorIDs: []string{"1", "", "3"},
		Year:      "2020",
	}})))

	tbl, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"1;;3"}, tbl.Column(domain.ColumnAuthorIDs))

	got, err := tbl.Records()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"1", "", "3"}, got[0].AuthorIDs)
	assert.Len(t, got[0].AuthorIDs, len(got[0].Authors))
}

func TestFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publications_2020_2021.csv")
	require.NoError(t, WriteFile(path, FromRecords(sampleRecords())))

	tbl, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, domain.FlatColumns, tbl.Header)
	assert.Equal(t, 2, tbl.Len())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be gone")
}

func TestReadCSV(t *testing.T) {
	t.Run("pads short rows and strips BOM", func(t *testing.T) {
		in := "\xEF\xBB\xBFa,b,c\n1,2\n4,5,6,7\n"
		tbl, err := ReadCSV(strings.NewReader(in))
		require.NoError(t, err)

		assert.Equal(t, []string{"a", "b", "c"}, tbl.Header)
		assert.Equal(t, [][]string{{"1", "2", ""}, {"4", "5", "6"}}, tbl.Rows)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(""))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty input")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
		require.Error(t, err)
	})
}

func TestTable_Columns(t *testing.T) {
	tbl := New("id", "title")
	tbl.Append("1", "A")
	tbl.Append("2")

	assert.Equal(t, []string{"A", ""}, tbl.Column("title"))
	assert.Nil(t, tbl.Column("nope"))

	name, ok := tbl.First("authors", "title", "id")
	assert.True(t, ok)
	assert.Equal(t, "title", name)

	_, ok = tbl.First("authors")
	assert.False(t, ok)

	tbl.SetColumn("local_authors", []string{"X;Y"})
	assert.Equal(t, []string{"id", "title", "local_authors"}, tbl.Header)
	assert.Equal(t, []string{"X;Y", ""}, tbl.Column("local_authors"))

	tbl.SetColumn("title", []string{"B", "C"})
	assert.Equal(t, []string{"B", "C"}, tbl.Column("title"))
}

func TestTable_Require(t *testing.T) {
	tbl := New("id", "title")

	assert.NoError(t, tbl.Require("id"))

	err := tbl.Require("id", "authors", "department")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInputShape))

	var shapeErr *domain.InputShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, []string{"authors", "department"}, shapeErr.Missing)
}

func TestRecords_MissingColumn(t *testing.T) {
	tbl := New(domain.ColumnTitle, domain.ColumnYear)
	_, err := tbl.Records()
	assert.True(t, errors.Is(err, domain.ErrInputShape))
}

func TestEdgesAndNodes_RoundTrip(t *testing.T) {
	edges := []domain.Edge{
		domain.NewEdge("B", "A", "P", "2020"),
		domain.NewEdge("A", "C", "P", "2020"),
	}
	nodes := []domain.Node{
		{ID: "A", Label: "A", Affiliation: "X"},
		{ID: "B", Label: "B", Affiliation: ""},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, FromEdges(edges)))
	assert.True(t, strings.HasPrefix(buf.String(), "source,target,publication,year\n"))
	et, err := ReadCSV(&buf)
	require.NoError(t, err)
	gotEdges, err := et.Edges()
	require.NoError(t, err)
	assert.Equal(t, edges, gotEdges)

	buf.Reset()
	require.NoError(t, WriteCSV(&buf, FromNodes(nodes)))
	assert.True(t, strings.HasPrefix(buf.String(), "id,label,affiliation\n"))
	nt, err := ReadCSV(&buf)
	require.NoError(t, err)
	gotNodes, err := nt.Nodes()
	require.NoError(t, err)
	assert.Equal(t, nodes, gotNodes)
}
