package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PublicationsName is the default publication table name for a year range.
func PublicationsName(startYear, endYear string) string {
	return fmt.Sprintf("publications_%s_%s.csv", startYear, endYear)
}

// EdgeListName is the default edge list name for a year range.
func EdgeListName(startYear, endYear string) string {
	return fmt.Sprintf("edgelist_%s_%s.csv", startYear, endYear)
}

// NodeListName is the default node list name for a year range.
func NodeListName(startYear, endYear string) string {
	return fmt.Sprintf("nodelist_%s_%s.csv", startYear, endYear)
}

// prefixed returns path with prefix prepended to its base name.
func prefixed(prefix, path string) string {
	return filepath.Join(filepath.Dir(path), prefix+filepath.Base(path))
}

// UpdatedName is the default output of the enrichment pass.
func UpdatedName(input string) string {
	return prefixed("updated_", input)
}

// EnrichedEdgeListName is the edge list written after enrichment.
func EnrichedEdgeListName(output string) string {
	return prefixed("edge_list_", output)
}

// graphNames derives edge and node list paths from an input table path.
func graphNames(input string) (edges, nodes string) {
	return prefixed("edgelist_", input), prefixed("nodelist_", input)
}

// xlsxName replaces the extension of path with .xlsx.
func xlsxName(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".xlsx"
}
