// Package normalize maps raw CRIS publications to domain records.
package normalize

import (
	"strings"

	"github.com/attlih/cris-network-tool/internal/domain"
	"github.com/attlih/cris-network-tool/internal/papersources/cris"
)

// Normalizer turns list-endpoint publications into PublicationRecords.
// It is pure: no I/O and no logging.
type Normalizer struct {
	// Units resolves the department name. A nil lookup keeps the raw id.
	Units UnitResolver
}

// UnitResolver resolves a unit id to a display name.
type UnitResolver interface {
	Resolve(id string) string
}

// New creates a Normalizer that resolves units through r.
func New(r UnitResolver) *Normalizer {
	return &Normalizer{Units: r}
}

// Publication normalizes one raw publication fetched for unitID. Missing or
// malformed nested fields become empty values. Authors is left for an
// author source to fill.
func (n *Normalizer) Publication(raw cris.Publication, unitID string) domain.PublicationRecord {
	details := cris.Object(raw.Data.DetailedPublicationInformation)

	return domain.PublicationRecord{
		ID:         cris.Scalar(raw.ID),
		Title:      cris.Text(raw.Data.TitleOfPublication, "titleOfPublication"),
		AuthorsRaw: raw.Data.AuthorsOfThePublication,
		Year:       cris.Scalar(details["yearOfPublication"]),
		UnitID:     unitID,
		Unit:       n.unit(unitID),
	}
}

func (n *Normalizer) unit(id string) string {
	if n != nil && n.Units != nil {
		return n.Units.Resolve(id)
	}
	if strings.TrimSpace(id) == "" {
		return domain.UnknownUnit
	}
	return id
}
