package model

import (
	"time"
)

// LeadStatus is where a lead sits in the outreach pipeline.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusReplied   LeadStatus = "replied"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusRejected  LeadStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusReplied, LeadStatusConverted, LeadStatusRejected:
		return true
	}
	return false
}

// Contacted reports whether outreach has already happened for the lead.
func (s LeadStatus) Contacted() bool {
	return s == LeadStatusContacted || s == LeadStatusReplied || s == LeadStatusConverted
}

// SourceGooglePlaces marks leads found through Google Places.
const SourceGooglePlaces = "google_places"

// Lead is a persisted prospect owned by a user. Score is fixed at creation.
type Lead struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	PlaceID   string     `json:"place_id"`
	Name      string     `json:"name"`
	Website   string     `json:"website,omitempty"`
	Phone     string     `json:"phone,omitempty"`
	Address   string     `json:"address,omitempty"`
	Source    string     `json:"source"`
	Score     int        `json:"score"`
	Status    LeadStatus `json:"status"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// LeadFilter narrows a lead listing. Results are ordered by score, highest first.
type LeadFilter struct {
	Status LeadStatus `json:"status,omitempty"`
	Limit  int        `json:"limit,omitempty"`
}
