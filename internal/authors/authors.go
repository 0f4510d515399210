// Package authors resolves the author list of a publication.
//
// Two interchangeable strategies implement Source: the list strategy reads
// the authors embedded in the list-endpoint payload, the detail strategy
// performs one detail-endpoint lookup per publication.
package authors

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/attlih/cris-network-tool/internal/domain"
	"github.com/attlih/cris-network-tool/internal/papersources/cris"
)

// Strategy names accepted by New.
const (
	StrategyList   = "list"
	StrategyDetail = "detail"
)

// Source resolves the ordered authors of a publication.
type Source interface {
	// Name returns the strategy name.
	Name() string

	// Authors returns the authors of rec. An error means no author
	// information is available for this record; callers continue with
	// the next one.
	Authors(ctx context.Context, rec domain.PublicationRecord) ([]domain.Author, error)
}

// DetailClient fetches one publication detail.
type DetailClient interface {
	GetPublication(ctx context.Context, id string) (*cris.DetailResponse, error)
}

// New returns the Source for strategy. The detail strategy requires client.
func New(strategy string, client DetailClient) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", StrategyList:
		return ListSource{}, nil
	case StrategyDetail:
		if client == nil {
			return nil, domain.NewValidationError("authors.strategy", "detail strategy needs a detail client")
		}
		return NewDetailSource(client), nil
	default:
		return nil, domain.NewValidationError("authors.strategy",
			fmt.Sprintf("unknown strategy %q (want %s or %s)", strategy, StrategyList, StrategyDetail))
	}
}

// ListSource reads authors from the authorsOfThePublication object of the
// list payload. No requests are made.
type ListSource struct{}

// Name implements Source.
func (ListSource) Name() string { return StrategyList }

// Authors implements Source. The authors field may be a ";"-joined string,
// an array of names or an array of objects; when it is absent the local
// authors are used instead.
func (ListSource) Authors(_ context.Context, rec domain.PublicationRecord) ([]domain.Author, error) {
	raw := rawAuthors(rec.AuthorsRaw)
	obj := cris.Object(raw)

	if found := fromAuthorsField(obj["authors"]); len(found) > 0 {
		return found, nil
	}
	return FromLocalAuthors(raw), nil
}

func rawAuthors(v any) json.RawMessage {
	switch raw := v.(type) {
	case json.RawMessage:
		return raw
	case []byte:
		return raw
	case string:
		return json.RawMessage(raw)
	case nil:
		return nil
	default:
		b, err := json.Marshal(raw)
		if err != nil {
			return nil
		}
		return b
	}
}

func fromAuthorsField(raw json.RawMessage) []domain.Author {
	if s := cris.Scalar(raw); s != "" {
		names := domain.SplitAuthors(s)
		out := make([]domain.Author, 0, len(names))
		for _, name := range names {
			out = append(out, domain.Author{Name: name})
		}
		return out
	}

	var out []domain.Author
	for _, entry := range cris.Array(raw) {
		if name := strings.TrimSpace(cris.Scalar(entry)); name != "" {
			out = append(out, domain.Author{Name: name})
			continue
		}
		obj := cris.Object(entry)
		if inner, ok := obj["author"]; ok {
			obj = cris.Object(inner)
		}
		name := strings.TrimSpace(cris.Scalar(obj["name"]))
		if name == "" {
			name = FormatName(cris.Scalar(obj["firstName"]), cris.Scalar(obj["lastName"]))
		}
		if name != "" {
			out = append(out, domain.Author{ID: cris.Scalar(obj["id"]), Name: name})
		}
	}
	return out
}

// FormatName renders a person as "Last, First".
func FormatName(firstName, lastName string) string {
	return domain.FormatAuthorName(firstName, lastName)
}

// FromLocalAuthors extracts the local authors of an authorsOfThePublication
// object. Entries without an author id are dropped.
func FromLocalAuthors(authorsOfThePublication json.RawMessage) []domain.Author {
	local := cris.LocalAuthors(authorsOfThePublication)
	out := make([]domain.Author, 0, len(local))
	for _, la := range local {
		id := cris.Scalar(la.Author.ID)
		if id == "" {
			continue
		}
		out = append(out, domain.Author{
			ID:   id,
			Name: FormatName(la.Author.FirstName, la.Author.LastName),
		})
	}
	return out
}

// FromDetail extracts the local authors of a detail response.
func FromDetail(resp *cris.DetailResponse) []domain.Author {
	if resp == nil {
		return nil
	}
	return FromLocalAuthors(resp.Data.AuthorsOfThePublication)
}
