package validator

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/nia-core/beliefgate/internal/domain"
	"github.com/nia-core/beliefgate/internal/rules"
)

const (
	// MinQuoteLength is the exclusive lower bound on evidence quote length, in characters.
	MinQuoteLength = 10
	// MinQuoteContentWords is the least number of content words a quote must carry.
	MinQuoteContentWords = 4
	// GroundingThreshold is the minimum quote-to-source word overlap.
	GroundingThreshold = 0.6
)

var spaceRe = regexp.MustCompile(`\s+`)

func squash(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(strings.ToLower(strings.ReplaceAll(s, "’", "'")), " "))
}

// qualifyingEvidence keeps the quotes that come from dialogue participants and
// carry enough text to ground a claim.
func qualifyingEvidence(rs *rules.RuleSet, quotes []domain.EvidenceQuote) []domain.EvidenceQuote {
	var out []domain.EvidenceQuote
	for _, q := range quotes {
		if q.Source != domain.SourceUser && q.Source != domain.SourceAssistant {
			continue
		}
		text := strings.TrimSpace(q.Quote)
		if utf8.RuneCountInString(text) <= MinQuoteLength {
			continue
		}
		if len(rs.ContentWords(text)) < MinQuoteContentWords {
			continue
		}
		out = append(out, q)
	}
	return out
}

// groundingRatio measures how much of quote is traceable to source. A literal
// substring scores 1; otherwise it is the share of the quote's content words
// that also occur in source.
func groundingRatio(rs *rules.RuleSet, quote, source string) float64 {
	q, s := squash(quote), squash(source)
	if q == "" || s == "" {
		return 0
	}
	if strings.Contains(s, q) {
		return 1
	}
	quoteWords := rs.ContentSet(quote)
	if len(quoteWords) == 0 {
		return 0
	}
	sourceWords := rs.ContentSet(source)
	hits := 0
	for w := range quoteWords {
		if _, ok := sourceWords[w]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(quoteWords))
}

// traceable reports whether word a and word b are related by containment.
// Containment needs at least three characters so that short tokens do not match everything.
func traceable(a, b string) bool {
	if a == b {
		return true
	}
	if len(a) >= 3 && strings.Contains(b, a) {
		return true
	}
	return len(b) >= 3 && strings.Contains(a, b)
}

// coverage is the fraction of words traceable to at least one word of against.
func coverage(words []string, against map[string]struct{}) float64 {
	if len(words) == 0 {
		return 0
	}
	hits := 0
	for _, w := range words {
		if _, ok := against[w]; ok {
			hits++
			continue
		}
		for a := range against {
			if traceable(w, a) {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(words))
}
