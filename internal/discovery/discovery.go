// Package discovery finds new leads for a photographer by querying Google
// Places under a fixed query budget, deduplicating the hits by place ID and
// ranking the survivors with the scoring engine.
package discovery

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-agent/internal/scoring"
)

// Configuration errors. The selector refuses to run rather than guess.
var (
	ErrNoLocations  = eris.New("discovery: no target locations configured")
	ErrInvalidCount = eris.New("discovery: desired lead count must be positive")
)

// Candidate is a business returned by the places source, not yet persisted.
type Candidate struct {
	PlaceID string `json:"place_id"`
	Name    string `json:"name"`
	Website string `json:"website,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Score   int    `json:"score"`
}

// ScoringLead returns the fields the scoring engine looks at.
func (c Candidate) ScoringLead() scoring.Lead {
	return scoring.Lead{Name: c.Name, Website: c.Website, Phone: c.Phone, Address: c.Address}
}

// PlaceSummary is a single text search hit.
type PlaceSummary struct {
	PlaceID string
	Name    string
	Address string
}

// SearchClient is the places-search capability the selector depends on.
// Both calls may fail or return nothing.
type SearchClient interface {
	TextSearch(ctx context.Context, query string) ([]PlaceSummary, error)
	PlaceDetails(ctx context.Context, placeID string) (*Candidate, error)
}

// KnownSet holds place IDs already stored for a user.
type KnownSet map[string]struct{}

// NewKnownSet builds a KnownSet from ids.
func NewKnownSet(ids ...string) KnownSet {
	s := make(KnownSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is known. A nil set knows nothing.
func (s KnownSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Preferences describe what a user is looking for.
type Preferences struct {
	Niche        string
	Locations    []string
	DesiredCount int
	Known        KnownSet
}

// ScoringContext returns the context used to score candidates for p.
func (p Preferences) ScoringContext() *scoring.Context {
	return &scoring.Context{TargetLocations: p.Locations, Niche: NormalizeNiche(p.Niche)}
}

// Dedupe removes repeated place IDs, keeping the first occurrence and the
// original order.
func Dedupe(candidates []Candidate) []Candidate {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.PlaceID]; dup {
			continue
		}
		seen[c.PlaceID] = struct{}{}
		out = append(out, c)
	}
	return out
}

// ExcludeKnown drops candidates whose place ID is in known.
func ExcludeKnown(candidates []Candidate, known KnownSet) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !known.Has(c.PlaceID) {
			out = append(out, c)
		}
	}
	return out
}
