package model

import (
	"strings"
	"time"
)

// DefaultDailyOutreachLimit applies when a user has not set one.
const DefaultDailyOutreachLimit = 5

// DefaultDailyLeadTarget applies when a user has not set one.
const DefaultDailyLeadTarget = 10

// UserSettings are the photographer's lead-generation preferences.
type UserSettings struct {
	UserID                 string    `json:"user_id"`
	Email                  string    `json:"email"`
	PhotographerNiche      string    `json:"photographer_niche"`
	TargetLocations        string    `json:"target_locations"`
	IdealClientDescription string    `json:"ideal_client_description,omitempty"`
	EmailSignature         string    `json:"email_signature,omitempty"`
	DailyLeadTarget        int       `json:"daily_lead_target"`
	DailyOutreachLimit     int       `json:"daily_outreach_limit"`
	AutonomousMode         bool      `json:"autonomous_mode"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// LeadTarget returns the configured daily lead target or the default.
func (s UserSettings) LeadTarget() int {
	if s.DailyLeadTarget > 0 {
		return s.DailyLeadTarget
	}
	return DefaultDailyLeadTarget
}

// OutreachLimit returns the configured daily outreach limit or the default.
func (s UserSettings) OutreachLimit() int {
	if s.DailyOutreachLimit > 0 {
		return s.DailyOutreachLimit
	}
	return DefaultDailyOutreachLimit
}

// SenderName is the local part of the user's email, used to sign messages.
func (s UserSettings) SenderName() string {
	name, _, _ := strings.Cut(s.Email, "@")
	return name
}

// Subscription tracks a user's plan and monthly lead usage.
type Subscription struct {
	UserID             string    `json:"user_id"`
	Plan               string    `json:"plan"`
	Status             string    `json:"subscription_status"`
	LeadsUsedThisMonth int       `json:"leads_used_this_month"`
	LeadsResetDate     time.Time `json:"leads_reset_date"`
}

// RunLog records one autonomous run for a user on a given day.
type RunLog struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	RunDate        string    `json:"run_date"`
	LeadsFound     int       `json:"leads_found"`
	LeadsContacted int       `json:"leads_contacted"`
	SummarySent    bool      `json:"summary_sent"`
	CreatedAt      time.Time `json:"created_at"`
}

// RunDate formats t as the YYYY-MM-DD key used by run logs.
func RunDate(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
