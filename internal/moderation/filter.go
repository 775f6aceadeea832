package moderation

import "strings"

// DefaultDenylist is the built-in set of flagged terms. Deployments can
// override it through configuration; the filter itself never changes after
// construction.
var DefaultDenylist = []string{
	"adult", "sexual", "porn", "xxx", "explicit", "nude", "naked",
	"abuse", "violence", "illegal", "drugs", "hate",
}

// Filter evaluates free text against a fixed denylist. Matching is
// case-insensitive substring containment: no stemming, no word boundaries,
// no context awareness. The filter only renders verdicts; consequences
// (rejections, bans) are applied by callers.
type Filter struct {
	terms []string
}

// NewFilter builds a filter from the provided denylist. Empty terms are
// dropped; an empty list yields a filter that flags nothing.
func NewFilter(terms []string) *Filter {
	cleaned := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		cleaned = append(cleaned, term)
	}
	return &Filter{terms: cleaned}
}

// Flagged reports whether any denylist term appears anywhere in the text.
func (f *Filter) Flagged(text string) bool {
	lowered := strings.ToLower(text)
	for _, term := range f.terms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}
