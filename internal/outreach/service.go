package outreach

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-agent/internal/metrics"
	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/internal/store"
)

var (
	// ErrAlreadyContacted is returned for leads past the new stage.
	ErrAlreadyContacted = eris.New("outreach: lead has already been contacted")
	// ErrNoRecipient is returned when no address can be derived for a lead.
	ErrNoRecipient = eris.New("outreach: lead has no usable website")
	// ErrNoUserEmail is returned when a summary has nowhere to go.
	ErrNoUserEmail = eris.New("outreach: user has no email address")
)

// LeadStore is the persistence the outreach service needs.
type LeadStore interface {
	GetLead(ctx context.Context, userID, leadID string) (*model.Lead, error)
	ListLeads(ctx context.Context, userID string, filter model.LeadFilter) ([]model.Lead, error)
	UpdateLeadStatus(ctx context.Context, userID, leadID string, status model.LeadStatus, notes string) error
	GetSettings(ctx context.Context, userID string) (*model.UserSettings, error)
}

// SendResult describes a delivered outreach email.
type SendResult struct {
	LeadID  string `json:"lead_id"`
	To      string `json:"to"`
	Subject string `json:"subject"`
}

// Service sends outreach on behalf of photographers.
type Service struct {
	store        LeadStore
	sender       Sender
	from         string
	dashboardURL string
	now          func() time.Time
}

// NewService creates a Service. from is the verified sending address.
func NewService(st LeadStore, sender Sender, from, dashboardURL string) *Service {
	return &Service{
		store:        st,
		sender:       sender,
		from:         from,
		dashboardURL: dashboardURL,
		now:          time.Now,
	}
}

// SendToLead emails a single lead the user picked and marks it contacted.
func (s *Service) SendToLead(ctx context.Context, userID, leadID string) (*SendResult, error) {
	lead, err := s.store.GetLead(ctx, userID, leadID)
	if err != nil {
		return nil, err
	}
	if lead.Status.Contacted() {
		return nil, ErrAlreadyContacted
	}

	settings, err := s.store.GetSettings(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		settings = &model.UserSettings{UserID: userID}
	} else if err != nil {
		return nil, eris.Wrapf(err, "outreach: get settings %s", userID)
	}

	return s.send(ctx, *settings, *lead, "Outreach email")
}

// ContactTop emails the user's highest-scoring new leads, up to limit.
// Leads without a website are skipped. Per-lead failures are logged and do
// not stop the batch; the number of emails sent is returned. With delivery
// disabled nothing is sent and every lead stays new.
func (s *Service) ContactTop(ctx context.Context, settings model.UserSettings, limit int) (int, error) {
	if limit <= 0 {
		return 0, nil
	}
	log := zap.L().With(zap.String("user_id", settings.UserID))

	leads, err := s.store.ListLeads(ctx, settings.UserID, model.LeadFilter{
		Status: model.LeadStatusNew,
		Limit:  limit,
	})
	if err != nil {
		return 0, eris.Wrapf(err, "outreach: list new leads %s", settings.UserID)
	}

	sent := 0
	for _, lead := range leads {
		if sent >= limit || ctx.Err() != nil {
			break
		}
		if lead.Website == "" {
			metrics.OutreachSent.WithLabelValues(metrics.OutcomeSkipped).Inc()
			continue
		}
		_, err := s.send(ctx, settings, lead, "Auto-outreach")
		if errors.Is(err, ErrDeliveryDisabled) {
			log.Info("outreach skipped, delivery disabled")
			return sent, nil
		}
		if err != nil {
			log.Warn("outreach failed", zap.String("lead_id", lead.ID), zap.Error(err))
			continue
		}
		sent++
	}
	return sent, nil
}

// SendSummary emails the user the outcome of an autonomous run.
func (s *Service) SendSummary(ctx context.Context, settings model.UserSettings, found, contacted int) error {
	if settings.Email == "" {
		return ErrNoUserEmail
	}
	email, err := DailySummaryEmail(SummaryParams{
		LeadsFound:     found,
		LeadsContacted: contacted,
		SenderName:     settings.SenderName(),
		Date:           s.now(),
		DashboardURL:   s.dashboardURL,
	})
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, Message{
		FromName: "Lead Agent",
		From:     s.from,
		To:       settings.Email,
		Email:    email,
	})
}

func (s *Service) send(ctx context.Context, settings model.UserSettings, lead model.Lead, label string) (*SendResult, error) {
	to, ok := RecipientFor(lead.Website)
	if !ok {
		metrics.OutreachSent.WithLabelValues(metrics.OutcomeSkipped).Inc()
		return nil, ErrNoRecipient
	}

	email, err := OutreachEmail(OutreachParams{
		LeadName:               lead.Name,
		LeadWebsite:            lead.Website,
		Niche:                  settings.PhotographerNiche,
		IdealClientDescription: settings.IdealClientDescription,
		EmailSignature:         settings.EmailSignature,
		SenderName:             settings.SenderName(),
	})
	if err != nil {
		return nil, err
	}

	from := s.from
	if from == "" {
		from = settings.Email
	}
	msg := Message{
		FromName: fromName(settings),
		From:     from,
		To:       to,
		ReplyTo:  settings.Email,
		Email:    email,
	}
	if err := s.sender.Send(ctx, msg); errors.Is(err, ErrDeliveryDisabled) {
		metrics.OutreachSent.WithLabelValues(metrics.OutcomeSkipped).Inc()
		return nil, err
	} else if err != nil {
		metrics.OutreachSent.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}
	metrics.OutreachSent.WithLabelValues(metrics.OutcomeOK).Inc()

	note := label + " sent on " + s.now().UTC().Format(time.DateOnly) + " to " + to
	if err := s.store.UpdateLeadStatus(ctx, lead.UserID, lead.ID, model.LeadStatusContacted, note); err != nil {
		// Delivery already happened; the send still counts.
		zap.L().Error("mark lead contacted failed", zap.String("lead_id", lead.ID), zap.Error(err))
	}

	return &SendResult{LeadID: lead.ID, To: to, Subject: email.Subject}, nil
}

// fromName is the first line of the signature, falling back to the
// photographer's name.
func fromName(settings model.UserSettings) string {
	first, _, _ := strings.Cut(strings.TrimSpace(settings.EmailSignature), "\n")
	if first = strings.TrimSpace(first); first != "" {
		return first
	}
	return settings.SenderName()
}
