package outreach

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyBusiness(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want BusinessKind
	}{
		{"Rosewood Wedding Venue", KindVenue},
		{"The Grand Ballroom", KindVenue},
		{"Oak Manor", KindVenue},
		{"Bliss Event Planning", KindPlanner},
		{"Jane Doe, Wedding Coordinator", KindPlanner},
		{"Sunset Studio", KindOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyBusiness(tt.name), tt.name)
	}
}

func TestOutreachEmail_Venue(t *testing.T) {
	t.Parallel()

	e, err := OutreachEmail(OutreachParams{
		LeadName:    "Rosewood Venue",
		LeadWebsite: "https://rosewood.com",
		Niche:       "wedding",
		SenderName:  "jane",
	})
	require.NoError(t, err)

	assert.Equal(t, "Loved Rosewood Venue's work - collaboration idea", e.Subject)
	assert.Contains(t, e.Text, "while researching local venues")
	assert.Contains(t, e.Text, "I specialize in wedding photography")
	assert.Contains(t, e.Text, "Best,\njane")
	assert.NotContains(t, e.Text, "A bit about my work")
	assert.Contains(t, e.HTML, "Best,<br>jane")
}

func TestOutreachEmail_PlannerWithoutWebsite(t *testing.T) {
	t.Parallel()

	e, err := OutreachEmail(OutreachParams{
		LeadName: "Bliss Planning Co",
		Niche:    "event",
	})
	require.NoError(t, err)

	assert.Contains(t, e.Text, "I've heard great things about Bliss Planning Co from others in the event community")
	assert.Contains(t, e.Text, "As a event photographer")
	assert.Contains(t, e.Text, DefaultSenderName)
}

func TestOutreachEmail_DefaultsAndExtras(t *testing.T) {
	t.Parallel()

	e, err := OutreachEmail(OutreachParams{
		LeadName:               "Sunset Studio",
		LeadWebsite:            "sunset.com",
		IdealClientDescription: "Light and airy portraits.",
		EmailSignature:         "Jane Doe\nJane Doe Photography",
	})
	require.NoError(t, err)

	assert.Contains(t, e.Text, "researching local businesses")
	assert.Contains(t, e.Text, "I'm a local wedding photographer")
	assert.Contains(t, e.Text, "A bit about my work: Light and airy portraits.")
	assert.Contains(t, e.Text, "Jane Doe\nJane Doe Photography")
	assert.NotContains(t, e.Text, "Best,")
	assert.Contains(t, e.HTML, "Jane Doe<br>Jane Doe Photography")
}

func TestOutreachEmail_EscapesHTML(t *testing.T) {
	t.Parallel()

	e, err := OutreachEmail(OutreachParams{
		LeadName:       "<b>Bold</b> Hall",
		LeadWebsite:    "bold.com",
		EmailSignature: "<script>alert(1)</script>",
	})
	require.NoError(t, err)

	assert.NotContains(t, e.HTML, "<b>Bold</b>")
	assert.NotContains(t, e.HTML, "<script>")
	assert.Contains(t, e.HTML, "&lt;b&gt;Bold&lt;/b&gt; Hall")
	// Plain text is not escaped.
	assert.Contains(t, e.Text, "<b>Bold</b> Hall")
}

func TestDailySummaryEmail(t *testing.T) {
	t.Parallel()

	e, err := DailySummaryEmail(SummaryParams{
		LeadsFound:     4,
		LeadsContacted: 2,
		SenderName:     "jane",
		Date:           time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC),
		DashboardURL:   "https://app.example.com/dashboard",
	})
	require.NoError(t, err)

	assert.Equal(t, "Your Daily Lead Report - 4 found, 2 contacted", e.Subject)
	assert.Contains(t, e.Text, "Hi Jane,")
	assert.Contains(t, e.Text, "Thursday, March 5")
	assert.Contains(t, e.Text, "We found 4 new potential partners")
	assert.Contains(t, e.Text, "We sent personalized outreach emails to 2 leads")
	assert.Contains(t, e.Text, "https://app.example.com/dashboard")
	assert.Contains(t, e.HTML, `href="https://app.example.com/dashboard"`)
}

func TestDailySummaryEmail_NothingContacted(t *testing.T) {
	t.Parallel()

	e, err := DailySummaryEmail(SummaryParams{LeadsFound: 3, Date: time.Now()})
	require.NoError(t, err)

	assert.Contains(t, e.Text, "Hi there,")
	assert.NotContains(t, e.Text, "We sent personalized")
	assert.NotContains(t, e.HTML, "View Dashboard")
}
