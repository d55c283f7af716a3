// Package scoring assigns a 0-100 quality score to prospective photography leads.
//
// The score is a fixed additive rule table evaluated against a lead's name,
// website and address. Score and Explain walk the same table, so a breakdown
// total always equals the score.
package scoring

import (
	"slices"
	"strings"
)

// Rule points. The table in rules mirrors these in evaluation order.
const (
	BaseScore            = 50
	WebsiteKeywordPoints = 20
	NameKeywordPoints    = 15
	LocationPoints       = 10
	PhonePoints          = 5
	WebsitePoints        = 5
	NicheBonusPoints     = 10

	// MaxScore caps the sum of applied rules.
	MaxScore = 100
)

// Keyword sets matched as lower-case substrings.
var (
	WebsiteKeywords   = []string{"wedding", "event", "bridal", "celebration", "reception", "ceremony"}
	NameKeywords      = []string{"venue", "studio", "planner", "coordinator", "hall", "ballroom", "estate", "manor", "garden"}
	WeddingKeywords   = []string{"wedding", "bridal", "bride", "groom", "chapel", "ceremony"}
	CorporateKeywords = []string{"conference", "corporate", "business", "meeting", "convention"}
	PortraitKeywords  = []string{"studio", "portrait", "headshot", "photo"}
)

// Lead is the subset of a candidate business the rules look at.
type Lead struct {
	Name    string
	Website string
	Phone   string
	Address string
}

// Context carries the user preferences that steer location and niche rules.
type Context struct {
	TargetLocations []string
	Niche           string
}

// Rule is one row of a score breakdown.
type Rule struct {
	Name    string `json:"rule"`
	Points  int    `json:"points"`
	Applied bool   `json:"applied"`
}

// Breakdown is a score with its per-rule trace.
type Breakdown struct {
	Total int    `json:"total"`
	Rules []Rule `json:"breakdown"`
}

// fields holds the lower-cased inputs shared by every rule.
type fields struct {
	name, website, address, niche string
	phone                         bool
	hasWebsite                    bool
	locations                     []string
}

func newFields(l Lead, ctx *Context) fields {
	f := fields{
		name:       strings.ToLower(l.Name),
		website:    strings.ToLower(l.Website),
		address:    strings.ToLower(l.Address),
		phone:      l.Phone != "",
		hasWebsite: l.Website != "",
	}
	if ctx != nil {
		f.niche = strings.ToLower(ctx.Niche)
		f.locations = ctx.TargetLocations
	}
	return f
}

type rule struct {
	name   string
	points int
	match  func(f fields) bool
}

var rules = []rule{
	{"Base score", BaseScore, func(fields) bool { return true }},
	{"Website contains wedding/event keywords", WebsiteKeywordPoints, func(f fields) bool {
		return containsAny(f.website, WebsiteKeywords)
	}},
	{"Name contains venue/studio keywords", NameKeywordPoints, func(f fields) bool {
		return containsAny(f.name, NameKeywords)
	}},
	{"In target location", LocationPoints, inTargetLocation},
	{"Has phone number", PhonePoints, func(f fields) bool { return f.phone }},
	{"Has website", WebsitePoints, func(f fields) bool { return f.hasWebsite }},
	{"Wedding niche bonus", NicheBonusPoints, func(f fields) bool {
		return strings.Contains(f.niche, "wedding") && nameOrWebsite(f, WeddingKeywords)
	}},
	{"Corporate/event niche bonus", NicheBonusPoints, func(f fields) bool {
		return (strings.Contains(f.niche, "corporate") || strings.Contains(f.niche, "event")) &&
			nameOrWebsite(f, CorporateKeywords)
	}},
	{"Portrait niche bonus", NicheBonusPoints, func(f fields) bool {
		return strings.Contains(f.niche, "portrait") && nameOrWebsite(f, PortraitKeywords)
	}},
}

// Score returns the lead's quality score in [0, MaxScore]. A nil context
// disables the location and niche rules.
func Score(l Lead, ctx *Context) int {
	f := newFields(l, ctx)
	total := 0
	for _, r := range rules {
		if r.match(f) {
			total += r.points
		}
	}
	return clamp(total)
}

// Explain returns the score together with every rule, applied or not.
func Explain(l Lead, ctx *Context) Breakdown {
	f := newFields(l, ctx)
	b := Breakdown{Rules: make([]Rule, 0, len(rules))}
	sum := 0
	for _, r := range rules {
		applied := r.match(f)
		if applied {
			sum += r.points
		}
		b.Rules = append(b.Rules, Rule{Name: r.name, Points: r.points, Applied: applied})
	}
	b.Total = clamp(sum)
	return b
}

// Scored pairs an item with its score.
type Scored[T any] struct {
	Item  T
	Score int
}

// ScoreLeads scores every item and returns them ordered by score descending.
// Equal scores keep their input order.
func ScoreLeads[T any](items []T, lead func(T) Lead, ctx *Context) []Scored[T] {
	out := make([]Scored[T], len(items))
	for i, it := range items {
		out[i] = Scored[T]{Item: it, Score: Score(lead(it), ctx)}
	}
	slices.SortStableFunc(out, func(a, b Scored[T]) int { return b.Score - a.Score })
	return out
}

func inTargetLocation(f fields) bool {
	for _, loc := range f.locations {
		if loc == "" {
			continue
		}
		if strings.Contains(f.address, strings.ToLower(loc)) {
			return true
		}
	}
	return false
}

func nameOrWebsite(f fields, keywords []string) bool {
	return containsAny(f.name, keywords) || containsAny(f.website, keywords)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func clamp(n int) int {
	return min(max(n, 0), MaxScore)
}
