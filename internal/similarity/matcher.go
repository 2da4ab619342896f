// Package similarity decides when two statements are the same belief and when a
// new statement contradicts an existing one. Both decisions use stopword-filtered
// keyword sets compared with Jaccard similarity.
package similarity

import (
	"github.com/nia-core/beliefgate/internal/domain"
	"github.com/nia-core/beliefgate/internal/rules"
)

const (
	// SameThreshold is the Jaccard similarity at which two statements are one belief.
	SameThreshold = 0.7
	// ConflictThreshold is the core similarity at which a polarity mismatch is a conflict.
	ConflictThreshold = 0.6
	// ConvictionFloor excludes weak beliefs from the conflict scan.
	ConvictionFloor = 50.0
)

type Matcher struct {
	rules *rules.RuleSet

	SameThreshold     float64
	ConflictThreshold float64
	ConvictionFloor   float64
}

func NewMatcher(rs *rules.RuleSet) *Matcher {
	return &Matcher{
		rules:             rs,
		SameThreshold:     SameThreshold,
		ConflictThreshold: ConflictThreshold,
		ConvictionFloor:   ConvictionFloor,
	}
}

// Jaccard returns |a ∩ b| / |a ∪ b|. Two empty sets have similarity 0.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Similarity compares the content words of two statements.
func (m *Matcher) Similarity(a, b string) float64 {
	return Jaccard(m.rules.ContentSet(a), m.rules.ContentSet(b))
}

// Negated reports whether a statement carries negative polarity.
func (m *Matcher) Negated(s string) bool {
	return m.rules.Match(rules.GroupNegation, s)
}

// Same reports whether b restates a: equal polarity and similarity at or above the threshold.
func (m *Matcher) Same(a, b string) bool {
	if m.Negated(a) != m.Negated(b) {
		return false
	}
	return m.Similarity(a, b) >= m.SameThreshold
}

// Match is an existing belief that restates a candidate.
type Match struct {
	Belief     domain.Belief
	Similarity float64
}

// FindSame returns the most similar active belief that restates statement, or nil.
func (m *Matcher) FindSame(statement string, pool []domain.Belief) *Match {
	negated := m.Negated(statement)
	words := m.rules.ContentSet(statement)

	var best *Match
	for _, b := range pool {
		if !b.Active() || m.Negated(b.Statement) != negated {
			continue
		}
		sim := Jaccard(words, m.rules.ContentSet(b.Statement))
		if sim < m.SameThreshold {
			continue
		}
		if best == nil || sim > best.Similarity {
			best = &Match{Belief: b, Similarity: sim}
		}
	}
	return best
}

// core strips the negation prefix and any remaining negation tokens so that
// "I don't value X" and "I value X" share one core.
func (m *Matcher) core(statement string) map[string]struct{} {
	stripped := m.rules.StripNegationPrefix(statement)
	set := make(map[string]struct{})
	for _, w := range m.rules.ContentWords(stripped) {
		if m.rules.IsNegationWord(w) {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

// CoreSimilarity compares two statements with negation removed.
func (m *Matcher) CoreSimilarity(a, b string) float64 {
	return Jaccard(m.core(a), m.core(b))
}
