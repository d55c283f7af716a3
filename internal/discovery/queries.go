package discovery

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultNiche is used when a user has not set a niche.
const DefaultNiche = "wedding"

// fallbackTerms is the key used for niches without their own term list.
const fallbackTerms = "default"

// SearchTerms maps a niche to the place-search phrases it expands to.
type SearchTerms map[string][]string

// DefaultSearchTerms is the built-in niche table.
var DefaultSearchTerms = SearchTerms{
	"wedding":     {"wedding venue", "event venue", "wedding planner", "bridal shop"},
	"portrait":    {"photo studio", "photography studio", "modeling agency"},
	"event":       {"event venue", "conference center", "banquet hall", "event planner"},
	"corporate":   {"corporate office", "conference center", "coworking space"},
	"real_estate": {"real estate agency", "property management", "luxury homes"},
	fallbackTerms: {"wedding venue", "event venue", "photography studio"},
}

// AutonomousSearchTerms is the shorter table the daily run searches with.
// Niches it does not list, real_estate included, use its default entry.
var AutonomousSearchTerms = SearchTerms{
	"wedding":     {"wedding venue", "event venue", "wedding planner"},
	"portrait":    {"photo studio", "photography studio"},
	"event":       {"event venue", "conference center", "banquet hall"},
	"corporate":   {"corporate office", "conference center"},
	fallbackTerms: {"wedding venue", "event venue"},
}

// Terms returns the phrases for niche, falling back to the default list.
func (t SearchTerms) Terms(niche string) []string {
	if terms, ok := t[NormalizeNiche(niche)]; ok && len(terms) > 0 {
		return terms
	}
	if terms, ok := t[fallbackTerms]; ok {
		return terms
	}
	return DefaultSearchTerms[fallbackTerms]
}

// LoadSearchTerms reads a YAML niche table from path and layers it over
// DefaultSearchTerms. Niches in the file replace the built-in list.
func LoadSearchTerms(path string) (SearchTerms, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "discovery: read search terms %s", path)
	}

	var overlay map[string][]string
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, eris.Wrapf(err, "discovery: parse search terms %s", path)
	}

	terms := make(SearchTerms, len(DefaultSearchTerms)+len(overlay))
	for k, v := range DefaultSearchTerms {
		terms[k] = v
	}
	for k, v := range overlay {
		terms[NormalizeNiche(k)] = v
	}
	return terms, nil
}

// NormalizeNiche lower-cases and trims a niche, defaulting to DefaultNiche.
func NormalizeNiche(niche string) string {
	n := strings.ToLower(strings.TrimSpace(niche))
	if n == "" {
		return DefaultNiche
	}
	return n
}

// ParseLocations splits a comma-separated location field, trimming entries
// and dropping empty ones.
func ParseLocations(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if loc := strings.TrimSpace(part); loc != "" {
			out = append(out, loc)
		}
	}
	return out
}

// BuildQueries crosses the niche's terms with locations ("<term> <location>"),
// location-major, and applies the budget's location, term and query limits.
func BuildQueries(terms SearchTerms, niche string, locations []string, b Budget) []string {
	nicheTerms := terms.Terms(niche)
	if b.MaxLocations > 0 && len(locations) > b.MaxLocations {
		locations = locations[:b.MaxLocations]
	}
	if b.MaxTermsPerLocation > 0 && len(nicheTerms) > b.MaxTermsPerLocation {
		nicheTerms = nicheTerms[:b.MaxTermsPerLocation]
	}

	queries := make([]string, 0, len(locations)*len(nicheTerms))
	for _, loc := range locations {
		for _, term := range nicheTerms {
			queries = append(queries, term+" "+loc)
		}
	}
	if b.MaxQueries > 0 && len(queries) > b.MaxQueries {
		queries = queries[:b.MaxQueries]
	}
	return queries
}
