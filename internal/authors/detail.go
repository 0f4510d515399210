package authors

import (
	"context"
	"fmt"

	"github.com/attlih/cris-network-tool/internal/domain"
)

// DetailSource looks up each publication on the detail endpoint.
type DetailSource struct {
	client DetailClient
}

// NewDetailSource creates a DetailSource backed by client.
func NewDetailSource(client DetailClient) *DetailSource {
	return &DetailSource{client: client}
}

// Name implements Source.
func (s *DetailSource) Name() string { return StrategyDetail }

// Authors implements Source. A record without an id has no detail to look up
// and yields no authors.
func (s *DetailSource) Authors(ctx context.Context, rec domain.PublicationRecord) ([]domain.Author, error) {
	if rec.ID == "" {
		return nil, nil
	}
	resp, err := s.client.GetPublication(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("publication %s detail: %w", rec.ID, err)
	}
	return FromDetail(resp), nil
}
