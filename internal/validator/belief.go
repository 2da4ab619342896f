// Package validator is the trust boundary for extracted claims. It decides,
// without side effects, whether a belief or memory candidate is admissible and
// how strongly it should count.
package validator

import (
	"fmt"
	"math"
	"strings"

	"github.com/nia-core/beliefgate/internal/domain"
	"github.com/nia-core/beliefgate/internal/rules"
)

const (
	MinSubjectLength      = 2
	MinContentWords       = 6
	IdentityMinConfidence = 0.65
	HedgeMinConfidence    = 0.5
	AcceptScore           = 30
	SubstantialReasoning  = 20

	baseScore = 50.0
)

// BeliefValidator applies the belief admission rules. It holds only the
// compiled rule set and is safe for concurrent use.
type BeliefValidator struct {
	rules *rules.RuleSet
}

func NewBeliefValidator(rs *rules.RuleSet) *BeliefValidator {
	return &BeliefValidator{rules: rs}
}

// Validate checks a candidate without a source transcript.
func (v *BeliefValidator) Validate(c domain.ClaimCandidate) domain.ValidationVerdict {
	return v.ValidateWithSource(c, "")
}

// ValidateWithSource checks a candidate. When transcript is non-empty at least
// one qualifying evidence quote must also be traceable to it.
func (v *BeliefValidator) ValidateWithSource(c domain.ClaimCandidate, transcript string) domain.ValidationVerdict {
	verdict := domain.ValidationVerdict{Candidate: c}
	reject := func(r domain.RejectReason) domain.ValidationVerdict {
		verdict.Accepted = false
		verdict.Score = 0
		verdict.Reasons = []domain.RejectReason{r}
		return verdict
	}

	subject := strings.TrimSpace(c.Subject)
	if len([]rune(subject)) < MinSubjectLength || v.rules.InvalidSubject(subject) {
		return reject(domain.ReasonInvalidSubject)
	}

	statement := strings.TrimSpace(c.Statement)
	if statement == "" {
		return reject(domain.ReasonEmptyStatement)
	}

	// Questions and plans are refused before content checks so the reason names
	// the actual problem rather than the short length typical of questions.
	if v.rules.Match(rules.GroupQuestions, statement) {
		return reject(domain.ReasonQuestion)
	}
	if v.rules.Match(rules.GroupImperatives, statement) {
		return reject(domain.ReasonImperative)
	}

	if v.rules.Match(rules.GroupEphemeral, statement) {
		return reject(domain.ReasonEphemeralState)
	}

	if len(v.rules.ContentWords(statement)) < MinContentWords {
		return reject(domain.ReasonLowSemanticContent)
	}

	variant := v.rules.ClaimType(c.ClaimType)
	triggered := v.rules.Match(rules.GroupBeliefTriggers, statement)
	if !triggered {
		if !variant.ObservationExempt {
			return reject(domain.ReasonNoBeliefTrigger)
		}
		verdict.Warnings = append(verdict.Warnings, "no belief trigger matched; admitted as observation")
	}

	if v.rules.Match(rules.GroupTemporary, statement) && !variant.EphemeralFact {
		return reject(domain.ReasonTemporaryState)
	}

	evidence := qualifyingEvidence(v.rules, c.Evidence)
	if len(evidence) == 0 {
		return reject(domain.ReasonInsufficientEvidence)
	}
	if transcript != "" && !v.grounded(evidence, transcript) {
		return reject(domain.ReasonUngroundedEvidence)
	}

	if c.Confidence == nil || math.IsNaN(*c.Confidence) || *c.Confidence < 0 || *c.Confidence > 1 {
		return reject(domain.ReasonInvalidConfidence)
	}
	confidence := *c.Confidence

	if variant.IdentityRelevant && confidence < IdentityMinConfidence {
		return reject(domain.ReasonLowConfidenceIdentity)
	}

	hedged := v.rules.Match(rules.GroupHedges, statement)
	if hedged {
		if confidence < HedgeMinConfidence {
			return reject(domain.ReasonHedgedLowConfidence)
		}
		verdict.Warnings = append(verdict.Warnings, "hedge words present")
	}
	sarcastic := v.rules.Match(rules.GroupSarcasm, statement)
	if sarcastic {
		verdict.Warnings = append(verdict.Warnings, "sarcasm markers present")
	}
	firstPerson := v.rules.Match(rules.GroupFirstPerson, statement)
	if !firstPerson {
		verdict.Warnings = append(verdict.Warnings, "statement is not first-person")
	}

	subject, warnings := v.resolveSubject(subject, statement)
	verdict.Warnings = append(verdict.Warnings, warnings...)

	card := newScoreCard(baseScore)
	if !triggered {
		card = card.add("observation_exemption", -10)
	}
	if hedged {
		card = card.add("hedge_words", -20)
	}
	if sarcastic {
		card = card.add("sarcasm", -30)
	}
	if !firstPerson {
		card = card.add("not_first_person", -10)
	}
	if c.TimeScope == domain.ScopeLongTerm {
		card = card.add("long_term_scope", 20)
	}
	if v.hasDirectFirstPersonQuote(evidence) {
		card = card.add("direct_first_person_quote", 10)
	}
	card = card.add("confidence", confidence*20)
	if len(evidence) >= 2 {
		card = card.add("multiple_evidence_sources", 5)
	}
	if len([]rune(strings.TrimSpace(c.FormationReasoning))) > SubstantialReasoning {
		card = card.add("formation_reasoning", 5)
	}

	verdict.Breakdown = card.steps
	score := card.clamped()
	if score < AcceptScore {
		return reject(domain.ReasonScoreBelowThreshold)
	}

	verdict.Accepted = true
	verdict.Score = score
	verdict.Reasons = nil
	verdict.Candidate = v.normalizeCandidate(c, subject)
	return verdict
}

// resolveSubject folds the subject to its key, disambiguating non-reserved subjects.
func (v *BeliefValidator) resolveSubject(subject, statement string) (string, []string) {
	if v.rules.Reserved(subject) {
		return domain.SubjectKey(subject), nil
	}
	d := Disambiguate(v.rules, subject, statement)
	if !d.Ambiguous {
		return d.Subject, nil
	}
	if d.Confidence == 0 {
		return d.Subject, []string{fmt.Sprintf("subject %q is ambiguous and no sense matched", d.Original)}
	}
	return d.Subject, []string{fmt.Sprintf("subject %q is ambiguous; best guess %q (confidence %.2f)", d.Original, d.Subject, d.Confidence)}
}

func (v *BeliefValidator) hasDirectFirstPersonQuote(evidence []domain.EvidenceQuote) bool {
	for _, q := range evidence {
		if q.Source == domain.SourceUser && v.rules.Match(rules.GroupFirstPerson, q.Quote) {
			return true
		}
	}
	return false
}

func (v *BeliefValidator) grounded(evidence []domain.EvidenceQuote, transcript string) bool {
	for _, q := range evidence {
		if groundingRatio(v.rules, q.Quote, transcript) >= GroundingThreshold {
			return true
		}
	}
	return false
}

// scoreCard accumulates score adjustments. It is passed by value so every
// step is explicit at the call site.
type scoreCard struct {
	total float64
	steps []domain.ScoreAdjustment
}

func newScoreCard(base float64) scoreCard {
	return scoreCard{total: base, steps: []domain.ScoreAdjustment{{Rule: "base", Delta: base}}}
}

func (s scoreCard) add(rule string, delta float64) scoreCard {
	steps := make([]domain.ScoreAdjustment, len(s.steps), len(s.steps)+1)
	copy(steps, s.steps)
	return scoreCard{total: s.total + delta, steps: append(steps, domain.ScoreAdjustment{Rule: rule, Delta: delta})}
}

func (s scoreCard) clamped() int {
	return clampScore(s.total)
}

func clampScore(f float64) int {
	return int(math.Round(math.Max(0, math.Min(100, f))))
}
