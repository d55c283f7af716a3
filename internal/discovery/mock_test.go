package discovery

import (
	"context"
	"errors"
)

var errPlacesDown = errors.New("places: unavailable")

// fakeSearch implements SearchClient for testing.
type fakeSearch struct {
	hits        map[string][]PlaceSummary
	details     map[string]*Candidate
	failAll     bool
	failQueries map[string]bool
	failDetails map[string]bool

	queries      []string
	detailsCalls []string
}

func (f *fakeSearch) TextSearch(_ context.Context, query string) ([]PlaceSummary, error) {
	f.queries = append(f.queries, query)
	if f.failAll || f.failQueries[query] {
		return nil, errPlacesDown
	}
	return f.hits[query], nil
}

func (f *fakeSearch) PlaceDetails(_ context.Context, placeID string) (*Candidate, error) {
	f.detailsCalls = append(f.detailsCalls, placeID)
	if f.failAll || f.failDetails[placeID] {
		return nil, errPlacesDown
	}
	if c, ok := f.details[placeID]; ok {
		cp := *c
		return &cp, nil
	}
	return &Candidate{PlaceID: placeID, Name: "Place " + placeID}, nil
}

func summaries(ids ...string) []PlaceSummary {
	out := make([]PlaceSummary, len(ids))
	for i, id := range ids {
		out[i] = PlaceSummary{PlaceID: id, Name: "Place " + id}
	}
	return out
}
