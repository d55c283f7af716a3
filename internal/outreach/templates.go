// Package outreach renders and delivers photographer-to-business emails.
package outreach

import (
	"bytes"
	htmltemplate "html/template"
	"regexp"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/lead-agent/internal/discovery"
)

// Email is a rendered message body.
type Email struct {
	Subject string
	Text    string
	HTML    string
}

// BusinessKind selects the pitch used for a lead.
type BusinessKind string

const (
	KindVenue   BusinessKind = "venue"
	KindPlanner BusinessKind = "planner"
	KindOther   BusinessKind = "other"
)

var (
	venuePattern   = regexp.MustCompile(`(?i)venue|hall|estate|manor|garden|ballroom`)
	plannerPattern = regexp.MustCompile(`(?i)planner|coordinator|planning`)
)

// ClassifyBusiness guesses the kind of business from its name.
func ClassifyBusiness(name string) BusinessKind {
	switch {
	case venuePattern.MatchString(name):
		return KindVenue
	case plannerPattern.MatchString(name):
		return KindPlanner
	default:
		return KindOther
	}
}

// OutreachParams personalizes a first-contact email.
type OutreachParams struct {
	LeadName               string
	LeadWebsite            string
	Niche                  string
	IdealClientDescription string
	EmailSignature         string
	SenderName             string
}

// DefaultSenderName signs emails when the photographer has no name on file.
const DefaultSenderName = "A local photographer"

type outreachView struct {
	LeadName      string
	Opening       string
	Pitch         string
	AboutWork     string
	CallToAction  string
	Signature     string
	SignatureHTML []string
	SenderName    string
}

// OutreachEmail renders the first-contact email for a lead.
func OutreachEmail(p OutreachParams) (Email, error) {
	niche := discovery.NormalizeNiche(p.Niche)
	sender := p.SenderName
	if sender == "" {
		sender = DefaultSenderName
	}
	kind := ClassifyBusiness(p.LeadName)

	v := outreachView{
		LeadName:     p.LeadName,
		Opening:      opening(p.LeadName, p.LeadWebsite, niche, kind),
		Pitch:        pitch(niche, kind),
		AboutWork:    strings.TrimSpace(p.IdealClientDescription),
		CallToAction: "Would you have 15 minutes for a quick call or coffee this week? I'd love to learn more about " + p.LeadName + " and share some ideas.",
		Signature:    strings.TrimSpace(p.EmailSignature),
		SenderName:   sender,
	}
	if v.Signature != "" {
		v.SignatureHTML = strings.Split(v.Signature, "\n")
	}

	subject := "Loved " + p.LeadName + "'s work - collaboration idea"
	return render(subject, outreachText, outreachHTML, v)
}

func opening(name, website, niche string, kind BusinessKind) string {
	if website == "" {
		return "I've heard great things about " + name + " from others in the " + niche + " community, and wanted to reach out."
	}
	what := "businesses"
	switch kind {
	case KindVenue:
		what = "venues"
	case KindPlanner:
		what = "planners"
	}
	return "I came across " + name + " while researching local " + what + " and was immediately impressed by what you've built."
}

func pitch(niche string, kind BusinessKind) string {
	switch kind {
	case KindVenue:
		return "I specialize in " + niche + " photography and love capturing the unique character of beautiful spaces like yours. " +
			"I'd love to explore how we might work together, whether that's being a recommended vendor, doing a styled shoot to showcase your venue, or simply referring clients to each other."
	case KindPlanner:
		return "As a " + niche + " photographer, I know how important it is to work with planners who share the same commitment to creating unforgettable experiences. " +
			"I'd love to connect and see if there's an opportunity to collaborate. I'm always looking for talented planners to recommend to my clients."
	default:
		return "I'm a local " + niche + " photographer always looking to connect with other professionals in the industry. " +
			"I believe the best client experiences come from vendors who know and trust each other. Would you be open to a quick chat about potential collaboration?"
	}
}

// SummaryParams feeds the autonomous daily report.
type SummaryParams struct {
	LeadsFound     int
	LeadsContacted int
	SenderName     string
	Date           time.Time
	DashboardURL   string
}

type summaryView struct {
	SummaryParams
	Greeting string
	Day      string
}

// DailySummaryEmail renders the report sent after an autonomous run.
func DailySummaryEmail(p SummaryParams) (Email, error) {
	greeting := "there"
	if p.SenderName != "" {
		greeting = cases.Title(language.English).String(p.SenderName)
	}
	v := summaryView{
		SummaryParams: p,
		Greeting:      greeting,
		Day:           p.Date.Format("Monday, January 2"),
	}
	subject := "Your Daily Lead Report - " + strconv.Itoa(p.LeadsFound) + " found, " + strconv.Itoa(p.LeadsContacted) + " contacted"
	return render(subject, summaryText, summaryHTML, v)
}

func render(subject string, text *texttemplate.Template, html *htmltemplate.Template, data any) (Email, error) {
	var tb, hb bytes.Buffer
	if err := text.Execute(&tb, data); err != nil {
		return Email{}, eris.Wrapf(err, "outreach: render text %s", text.Name())
	}
	if err := html.Execute(&hb, data); err != nil {
		return Email{}, eris.Wrapf(err, "outreach: render html %s", html.Name())
	}
	return Email{
		Subject: subject,
		Text:    strings.TrimSpace(tb.String()),
		HTML:    strings.TrimSpace(hb.String()),
	}, nil
}
