package discovery

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-agent/internal/metrics"
	"github.com/sells-group/lead-agent/internal/scoring"
)

// HardMaxCount bounds how many leads one selection may return.
const HardMaxCount = 10

// Budget bounds the external calls of one selection run. Zero limits mean
// unlimited.
type Budget struct {
	Mode                string `yaml:"mode" mapstructure:"mode"`
	MaxLocations        int    `yaml:"max_locations" mapstructure:"max_locations"`
	MaxTermsPerLocation int    `yaml:"max_terms_per_location" mapstructure:"max_terms_per_location"`
	MaxQueries          int    `yaml:"max_queries" mapstructure:"max_queries"`
	HitsPerQuery        int    `yaml:"hits_per_query" mapstructure:"hits_per_query"`
	MaxCount            int    `yaml:"max_count" mapstructure:"max_count"`

	// StopWithinQuery also stops between the hits of one query once enough
	// candidates are in hand, instead of only between queries.
	StopWithinQuery bool `yaml:"stop_within_query" mapstructure:"stop_within_query"`

	// Terms overrides the selector's niche table for this budget.
	Terms SearchTerms `yaml:"terms" mapstructure:"terms"`
}

// InteractiveBudget is used when a user asks for leads from the dashboard.
var InteractiveBudget = Budget{
	Mode:         "interactive",
	MaxQueries:   3,
	HitsPerQuery: 5,
	MaxCount:     HardMaxCount,
}

// AutonomousBudget is used by the daily run.
var AutonomousBudget = Budget{
	Mode:                "autonomous",
	MaxLocations:        2,
	MaxTermsPerLocation: 2,
	HitsPerQuery:        3,
	MaxCount:            HardMaxCount,
	StopWithinQuery:     true,
	Terms:               AutonomousSearchTerms,
}

// clampCount applies the budget cap and the hard ceiling.
func (b Budget) clampCount(n int) int {
	limit := HardMaxCount
	if b.MaxCount > 0 && b.MaxCount < limit {
		limit = b.MaxCount
	}
	return min(n, limit)
}

// Selector turns user preferences into scored, not-yet-known candidates.
type Selector struct {
	search  SearchClient
	terms   SearchTerms
	limiter *rate.Limiter
}

// Option configures a Selector.
type Option func(*Selector)

// WithSearchTerms replaces the niche table.
func WithSearchTerms(t SearchTerms) Option {
	return func(s *Selector) {
		s.terms = t
	}
}

// WithRateLimit paces external calls to perSecond.
func WithRateLimit(perSecond float64) Option {
	return func(s *Selector) {
		if perSecond > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewSelector creates a Selector backed by search.
func NewSelector(search SearchClient, opts ...Option) *Selector {
	s := &Selector{
		search: search,
		terms:  DefaultSearchTerms,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Select returns up to the desired count of new candidates, best score
// first. External failures only shrink the result.
func (s *Selector) Select(ctx context.Context, prefs Preferences, b Budget) ([]Candidate, error) {
	ranked, want, err := s.run(ctx, prefs, b)
	if err != nil {
		return nil, err
	}
	if len(ranked) > want {
		ranked = ranked[:want]
	}
	metrics.CandidatesSelected.WithLabelValues(b.Mode).Observe(float64(len(ranked)))
	return ranked, nil
}

// Gather is Select without the final truncation: every new candidate the
// budget turned up, best score first.
func (s *Selector) Gather(ctx context.Context, prefs Preferences, b Budget) ([]Candidate, error) {
	ranked, _, err := s.run(ctx, prefs, b)
	if err != nil {
		return nil, err
	}
	metrics.CandidatesSelected.WithLabelValues(b.Mode).Observe(float64(len(ranked)))
	return ranked, nil
}

func (s *Selector) run(ctx context.Context, prefs Preferences, b Budget) ([]Candidate, int, error) {
	if len(prefs.Locations) == 0 {
		return nil, 0, ErrNoLocations
	}
	if prefs.DesiredCount <= 0 {
		return nil, 0, ErrInvalidCount
	}
	want := b.clampCount(prefs.DesiredCount)

	raw := s.collect(ctx, prefs, b, want)
	unique := ExcludeKnown(Dedupe(raw), prefs.Known)

	scored := scoring.ScoreLeads(unique, Candidate.ScoringLead, prefs.ScoringContext())
	ranked := make([]Candidate, len(scored))
	for i, sc := range scored {
		ranked[i] = sc.Item
		ranked[i].Score = sc.Score
	}
	return ranked, want, nil
}

// collect issues the budgeted queries one after another and fetches details
// for each hit. No query is issued once want new candidates are in hand.
func (s *Selector) collect(ctx context.Context, prefs Preferences, b Budget, want int) []Candidate {
	log := zap.L().With(zap.String("mode", b.Mode), zap.String("niche", NormalizeNiche(prefs.Niche)))

	terms := s.terms
	if len(b.Terms) > 0 {
		terms = b.Terms
	}
	queries := BuildQueries(terms, prefs.Niche, prefs.Locations, b)
	seen := make(map[string]struct{})
	var found []Candidate

	for _, q := range queries {
		if len(found) >= want || ctx.Err() != nil {
			break
		}

		hits, err := s.textSearch(ctx, q)
		if err != nil {
			log.Warn("places search failed", zap.String("query", q), zap.Error(err))
			continue
		}
		if b.HitsPerQuery > 0 && len(hits) > b.HitsPerQuery {
			hits = hits[:b.HitsPerQuery]
		}

		for _, hit := range hits {
			if b.StopWithinQuery && len(found) >= want {
				break
			}
			if _, dup := seen[hit.PlaceID]; dup || prefs.Known.Has(hit.PlaceID) {
				continue
			}

			c, err := s.placeDetails(ctx, hit.PlaceID)
			if err != nil {
				log.Warn("place details failed", zap.String("place_id", hit.PlaceID), zap.Error(err))
				continue
			}
			if c == nil || c.PlaceID == "" {
				continue
			}
			seen[hit.PlaceID] = struct{}{}
			found = append(found, *c)
		}
	}

	log.Info("places collection complete",
		zap.Int("queries", len(queries)),
		zap.Int("candidates", len(found)),
		zap.Int("wanted", want),
	)
	return found
}

func (s *Selector) textSearch(ctx context.Context, query string) ([]PlaceSummary, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	hits, err := s.search.TextSearch(ctx, query)
	observeCall("text_search", err)
	return hits, err
}

func (s *Selector) placeDetails(ctx context.Context, placeID string) (*Candidate, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	c, err := s.search.PlaceDetails(ctx, placeID)
	observeCall("place_details", err)
	return c, err
}

func (s *Selector) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

func observeCall(op string, err error) {
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
	}
	metrics.PlacesCalls.WithLabelValues(op, outcome).Inc()
}
