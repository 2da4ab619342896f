package validator

import (
	"fmt"
	"math"
	"strings"

	"github.com/nia-core/beliefgate/internal/domain"
	"github.com/nia-core/beliefgate/internal/rules"
)

const (
	MinMemoryStatementLength = 8
	MinCoherence             = 0.4
	MinImportance            = 0.3
	// PrimarySpeaker is the subject a memory is about when the producer omits it.
	PrimarySpeaker = "user"
)

// MemoryValidator checks memory candidates against the literal source message
// they claim to come from.
type MemoryValidator struct {
	rules *rules.RuleSet
}

func NewMemoryValidator(rs *rules.RuleSet) *MemoryValidator {
	return &MemoryValidator{rules: rs}
}

// Validate checks one memory candidate against the message it was extracted from.
func (v *MemoryValidator) Validate(c domain.MemoryCandidate, sourceMessage string) domain.MemoryVerdict {
	verdict := domain.MemoryVerdict{Candidate: c}
	reject := func(r domain.RejectReason) domain.MemoryVerdict {
		verdict.Accepted = false
		verdict.Score = 0
		verdict.Reasons = []domain.RejectReason{r}
		return verdict
	}

	statement := strings.TrimSpace(c.Statement)
	if statement == "" {
		return reject(domain.ReasonEmptyStatement)
	}
	if len([]rune(statement)) < MinMemoryStatementLength {
		return reject(domain.ReasonStatementTooShort)
	}

	quote := strings.TrimSpace(c.SourceQuote)
	if quote == "" {
		return reject(domain.ReasonMissingSourceQuote)
	}

	verdict.QuoteMatch = groundingRatio(v.rules, quote, sourceMessage)
	if verdict.QuoteMatch < GroundingThreshold {
		return reject(domain.ReasonUngroundedEvidence)
	}

	verdict.Coherence = v.coherence(statement, quote, sourceMessage)
	if verdict.Coherence < MinCoherence {
		return reject(domain.ReasonIncoherentStatement)
	}

	if math.IsNaN(c.Importance) || c.Importance < MinImportance {
		return reject(domain.ReasonLowImportance)
	}

	if strings.Contains(statement, "?") || strings.Contains(quote, "?") {
		return reject(domain.ReasonQuestion)
	}
	if v.rules.Match(rules.GroupRequests, quote) {
		return reject(domain.ReasonRequestOrGreeting)
	}

	normalized := c
	normalized.Statement = statement
	normalized.SourceQuote = quote

	switch {
	case c.FactType == "":
		normalized.FactType = domain.MemoryTypeFact
	case !domain.ValidMemoryType(string(c.FactType)):
		verdict.Warnings = append(verdict.Warnings, fmt.Sprintf("unknown fact type %q", c.FactType))
	}
	if c.TemporalTag != "" && !domain.ValidTemporalTag(c.TemporalTag) {
		verdict.Warnings = append(verdict.Warnings, fmt.Sprintf("unknown temporal tag %q", c.TemporalTag))
	}
	if strings.TrimSpace(c.About) == "" {
		normalized.About = PrimarySpeaker
		verdict.Warnings = append(verdict.Warnings, "about missing; defaulted to "+PrimarySpeaker)
	} else {
		normalized.About = strings.TrimSpace(c.About)
	}

	importance := math.Min(c.Importance, 1)
	score := 50 + verdict.QuoteMatch*25 + verdict.Coherence*15 + importance*10

	verdict.Accepted = true
	verdict.Score = clampScore(score)
	verdict.Candidate = normalized
	return verdict
}

// coherence is the better of the statement's coverage by the quote and by the
// whole source message.
func (v *MemoryValidator) coherence(statement, quote, source string) float64 {
	words := v.rules.ContentWords(statement)
	return math.Max(
		coverage(words, v.rules.ContentSet(quote)),
		coverage(words, v.rules.ContentSet(source)),
	)
}
