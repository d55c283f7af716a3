// Package leadgen runs interactive lead generation for one user.
package leadgen

import (
	"context"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/billing"
	"github.com/sells-group/lead-agent/internal/discovery"
	"github.com/sells-group/lead-agent/internal/metrics"
	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/internal/store"
)

var (
	// ErrNotConfigured means the user has no usable target locations.
	ErrNotConfigured = eris.New("leadgen: target locations not configured")
	// ErrQuotaExceeded means the plan's monthly allowance is used up.
	ErrQuotaExceeded = eris.New("leadgen: monthly lead limit reached")
)

// NoNewLeadsMessage is reported when a run stores nothing.
const NoNewLeadsMessage = "No new leads found. Try expanding your search locations."

// Store is the persistence lead generation needs.
type Store interface {
	GetSettings(ctx context.Context, userID string) (*model.UserSettings, error)
	KnownPlaceIDs(ctx context.Context, userID string) ([]string, error)
	InsertLeads(ctx context.Context, leads []model.Lead) ([]model.Lead, error)
}

// Quota gates and records monthly usage.
type Quota interface {
	Check(ctx context.Context, userID string) (billing.Usage, error)
	Record(ctx context.Context, userID string, n int) error
}

// Selector picks scored candidates.
type Selector interface {
	Select(ctx context.Context, prefs discovery.Preferences, b discovery.Budget) ([]discovery.Candidate, error)
}

// Result is the outcome of one generation request.
type Result struct {
	Added   int          `json:"leads_added"`
	Message string       `json:"message"`
	Leads   []model.Lead `json:"leads,omitempty"`
}

// Service generates leads on demand.
type Service struct {
	store    Store
	quota    Quota
	selector Selector
	budget   discovery.Budget
}

// NewService creates a Service using budget for each request.
func NewService(st Store, quota Quota, selector Selector, budget discovery.Budget) *Service {
	return &Service{store: st, quota: quota, selector: selector, budget: budget}
}

// Generate finds, scores and stores new leads for userID.
func (s *Service) Generate(ctx context.Context, userID string) (*Result, error) {
	log := zap.L().With(zap.String("user_id", userID), zap.String("mode", s.budget.Mode))

	settings, err := s.store.GetSettings(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotConfigured
	}
	if err != nil {
		return nil, eris.Wrapf(err, "leadgen: get settings %s", userID)
	}
	prefs, err := Preferences(*settings)
	if err != nil {
		return nil, err
	}

	usage, err := s.quota.Check(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !usage.CanGenerate {
		return nil, ErrQuotaExceeded
	}
	prefs.DesiredCount = usage.Allow(discovery.HardMaxCount)

	known, err := s.store.KnownPlaceIDs(ctx, userID)
	if err != nil {
		return nil, eris.Wrapf(err, "leadgen: known place ids %s", userID)
	}
	prefs.Known = discovery.NewKnownSet(known...)

	candidates, err := s.selector.Select(ctx, prefs, s.budget)
	if err != nil {
		return nil, mapSelectorError(err)
	}

	inserted, err := s.store.InsertLeads(ctx, ToLeads(userID, candidates))
	if err != nil {
		return nil, eris.Wrapf(err, "leadgen: save leads %s", userID)
	}
	if len(inserted) == 0 {
		log.Info("no new leads")
		return &Result{Message: NoNewLeadsMessage}, nil
	}

	metrics.LeadsStored.WithLabelValues(s.budget.Mode).Add(float64(len(inserted)))
	if err := s.quota.Record(ctx, userID, len(inserted)); err != nil {
		log.Error("record lead usage failed", zap.Error(err))
	}

	log.Info("leads generated", zap.Int("added", len(inserted)))
	return &Result{
		Added:   len(inserted),
		Message: fmt.Sprintf("Found %d new leads!", len(inserted)),
		Leads:   inserted,
	}, nil
}

// Preferences derives selector preferences from stored settings.
func Preferences(settings model.UserSettings) (discovery.Preferences, error) {
	locations := discovery.ParseLocations(settings.TargetLocations)
	if len(locations) == 0 {
		return discovery.Preferences{}, ErrNotConfigured
	}
	return discovery.Preferences{
		Niche:     settings.PhotographerNiche,
		Locations: locations,
	}, nil
}

// ToLeads converts scored candidates into new leads owned by userID.
func ToLeads(userID string, candidates []discovery.Candidate) []model.Lead {
	leads := make([]model.Lead, 0, len(candidates))
	for _, c := range candidates {
		leads = append(leads, model.Lead{
			UserID:  userID,
			PlaceID: c.PlaceID,
			Name:    c.Name,
			Website: c.Website,
			Phone:   c.Phone,
			Address: c.Address,
			Source:  model.SourceGooglePlaces,
			Score:   c.Score,
			Status:  model.LeadStatusNew,
		})
	}
	return leads
}

func mapSelectorError(err error) error {
	if errors.Is(err, discovery.ErrNoLocations) {
		return ErrNotConfigured
	}
	return eris.Wrap(err, "leadgen: select candidates")
}
