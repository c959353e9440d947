// Package category maps free-text provider categories onto the canonical
// category set used for balanced sampling.
package category

import (
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"golang.org/x/text/unicode/norm"

	"github.com/rendis/mealspin/internal/model"
)

// Normalizer classifies raw category strings. It is safe for concurrent use.
type Normalizer struct {
	matcher  *ahocorasick.Matcher
	keywords []string
	group    []int // keyword index -> table position
	table    []Group
}

// NewNormalizer builds the keyword automaton for table. A keyword listed in
// more than one group belongs to the earliest.
func NewNormalizer(table []Group) *Normalizer {
	n := &Normalizer{table: table}
	seen := make(map[string]bool)
	for gi, g := range table {
		for _, kw := range g.Keywords {
			kw = normalizeText(kw)
			if kw == "" || seen[kw] {
				continue
			}
			seen[kw] = true
			n.keywords = append(n.keywords, kw)
			n.group = append(n.group, gi)
		}
	}
	if len(n.keywords) > 0 {
		n.matcher = ahocorasick.NewStringMatcher(n.keywords)
	}
	return n
}

var defaultNormalizer = NewNormalizer(DefaultTable)

// Normalize classifies raw with the default table.
func Normalize(raw string) model.Category {
	c, _ := defaultNormalizer.Classify(raw)
	return c
}

// Classify returns the canonical category for raw and, when no keyword
// matched, the structural label taken from a "A > B > C" path (second
// segment, else the first). Unmatched input always yields CategoryOther.
func (n *Normalizer) Classify(raw string) (model.Category, string) {
	text := normalizeText(raw)
	if n.matcher != nil && text != "" {
		best := -1
		for _, hit := range n.matcher.MatchThreadSafe([]byte(text)) {
			if hit < 0 || hit >= len(n.group) {
				continue
			}
			if g := n.group[hit]; best < 0 || g < best {
				best = g
			}
		}
		if best >= 0 {
			return n.table[best].Category, ""
		}
	}
	return model.CategoryOther, structuralLabel(raw)
}

// Apply fills Category and CategoryLabel on v.
func (n *Normalizer) Apply(v *model.Venue) {
	v.Category, v.CategoryLabel = n.Classify(v.RawCategory)
}

func structuralLabel(raw string) string {
	parts := strings.Split(raw, ">")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) >= 2 && parts[1] != "" {
		return parts[1]
	}
	return parts[0]
}

// normalizeText composes decomposed Hangul jamo and lower-cases.
func normalizeText(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}
