package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLeadStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status    LeadStatus
		valid     bool
		contacted bool
	}{
		{LeadStatusNew, true, false},
		{LeadStatusContacted, true, true},
		{LeadStatusReplied, true, true},
		{LeadStatusConverted, true, true},
		{LeadStatusRejected, true, false},
		{LeadStatus("archived"), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.valid, tt.status.Valid())
			assert.Equal(t, tt.contacted, tt.status.Contacted())
		})
	}
}

func TestUserSettingsDefaults(t *testing.T) {
	t.Parallel()

	var s UserSettings
	assert.Equal(t, DefaultDailyLeadTarget, s.LeadTarget())
	assert.Equal(t, DefaultDailyOutreachLimit, s.OutreachLimit())

	s.DailyLeadTarget = 3
	s.DailyOutreachLimit = 7
	assert.Equal(t, 3, s.LeadTarget())
	assert.Equal(t, 7, s.OutreachLimit())
}

func TestUserSettings_SenderName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "jane", UserSettings{Email: "jane@example.com"}.SenderName())
	assert.Equal(t, "nobody", UserSettings{Email: "nobody"}.SenderName())
}

func TestRunDate(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 3, 4, 23, 30, 0, 0, time.FixedZone("CST", -6*3600))
	assert.Equal(t, "2026-03-05", RunDate(ts))
}
