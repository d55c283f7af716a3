package discovery

import (
	"context"

	"github.com/sells-group/lead-agent/pkg/google"
)

// PlacesSearch adapts a google.Client to SearchClient.
type PlacesSearch struct {
	client google.Client
}

// NewPlacesSearch wraps g.
func NewPlacesSearch(g google.Client) *PlacesSearch {
	return &PlacesSearch{client: g}
}

// TextSearch returns the hits for query in API order.
func (p *PlacesSearch) TextSearch(ctx context.Context, query string) ([]PlaceSummary, error) {
	resp, err := p.client.TextSearch(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]PlaceSummary, 0, len(resp.Places))
	for _, pl := range resp.Places {
		if pl.ID == "" {
			continue
		}
		out = append(out, PlaceSummary{PlaceID: pl.ID, Name: pl.DisplayName.Text, Address: pl.FormattedAddress})
	}
	return out, nil
}

// PlaceDetails fetches contact details for placeID.
func (p *PlacesSearch) PlaceDetails(ctx context.Context, placeID string) (*Candidate, error) {
	pl, err := p.client.PlaceDetails(ctx, placeID)
	if err != nil {
		return nil, err
	}
	id := pl.ID
	if id == "" {
		id = placeID
	}
	return &Candidate{
		PlaceID: id,
		Name:    pl.DisplayName.Text,
		Website: pl.WebsiteURI,
		Phone:   pl.NationalPhoneNumber,
		Address: pl.FormattedAddress,
	}, nil
}
