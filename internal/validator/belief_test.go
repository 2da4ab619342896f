package validator

import (
	"strings"
	"testing"

	"github.com/nia-core/beliefgate/internal/domain"
	"github.com/nia-core/beliefgate/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conf(f float64) *float64 { return &f }

func newBeliefValidator() *BeliefValidator {
	return NewBeliefValidator(rules.MustDefault())
}

func valueCandidate() domain.ClaimCandidate {
	return domain.ClaimCandidate{
		Subject:    "user",
		Statement:  "I deeply value honesty and openness in my close personal relationships",
		Confidence: conf(0.8),
		Evidence: []domain.EvidenceQuote{
			{Source: domain.SourceUser, Quote: "I really value honesty and openness in all my relationships"},
		},
		ClaimType: domain.ClaimValue,
		TimeScope: domain.ScopeLongTerm,
	}
}

func TestBeliefValidator_AcceptsGroundedValue(t *testing.T) {
	v := newBeliefValidator()

	verdict := v.Validate(valueCandidate())

	require.True(t, verdict.Accepted, "reasons: %v", verdict.Reasons)
	assert.Empty(t, verdict.Reasons)
	assert.Equal(t, 96, verdict.Score)
	assert.Equal(t, "user", verdict.Candidate.Subject)

	rulesApplied := make([]string, 0, len(verdict.Breakdown))
	for _, step := range verdict.Breakdown {
		rulesApplied = append(rulesApplied, step.Rule)
	}
	assert.Equal(t, []string{"base", "long_term_scope", "direct_first_person_quote", "confidence"}, rulesApplied)
}

func TestBeliefValidator_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *domain.ClaimCandidate)
		want   domain.RejectReason
	}{
		{"short subject", func(c *domain.ClaimCandidate) { c.Subject = "x" }, domain.ReasonInvalidSubject},
		{"denylisted subject", func(c *domain.ClaimCandidate) { c.Subject = "It" }, domain.ReasonInvalidSubject},
		{"empty statement", func(c *domain.ClaimCandidate) { c.Statement = "   " }, domain.ReasonEmptyStatement},
		{"question", func(c *domain.ClaimCandidate) { c.Statement = "Should I go?" }, domain.ReasonQuestion},
		{"plan", func(c *domain.ClaimCandidate) {
			c.Statement = "I'm going to start valuing my health more seriously"
		}, domain.ReasonImperative},
		{"ephemeral", func(c *domain.ClaimCandidate) {
			c.Statement = "I am so tired right now and cannot focus on anything important"
		}, domain.ReasonEphemeralState},
		// The six content-word floor wins over shorter worked examples such as
		// "I value honesty in relationships" (three content words), which is rejected too.
		{"low content", func(c *domain.ClaimCandidate) { c.Statement = "I value honesty" }, domain.ReasonLowSemanticContent},
		{"short value statement", func(c *domain.ClaimCandidate) { c.Statement = "I value honesty in relationships" }, domain.ReasonLowSemanticContent},
		{"temporary", func(c *domain.ClaimCandidate) {
			c.Statement = "Lately I really value quiet mornings before starting my work"
		}, domain.ReasonTemporaryState},
		{"system evidence only", func(c *domain.ClaimCandidate) {
			c.Evidence = []domain.EvidenceQuote{{Source: domain.SourceSystem, Quote: "The user values honesty and openness in relationships"}}
		}, domain.ReasonInsufficientEvidence},
		{"quote too thin", func(c *domain.ClaimCandidate) {
			c.Evidence = []domain.EvidenceQuote{{Source: domain.SourceUser, Quote: "I value it"}}
		}, domain.ReasonInsufficientEvidence},
		{"no evidence", func(c *domain.ClaimCandidate) { c.Evidence = nil }, domain.ReasonInsufficientEvidence},
		{"missing confidence", func(c *domain.ClaimCandidate) { c.Confidence = nil }, domain.ReasonInvalidConfidence},
		{"confidence out of range", func(c *domain.ClaimCandidate) { c.Confidence = conf(1.5) }, domain.ReasonInvalidConfidence},
		{"low confidence identity", func(c *domain.ClaimCandidate) { c.Confidence = conf(0.5) }, domain.ReasonLowConfidenceIdentity},
	}

	v := newBeliefValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valueCandidate()
			tt.mutate(&c)

			verdict := v.Validate(c)

			assert.False(t, verdict.Accepted)
			assert.Equal(t, []domain.RejectReason{tt.want}, verdict.Reasons)
			assert.Zero(t, verdict.Score)
		})
	}
}

func TestBeliefValidator_ObservationExemption(t *testing.T) {
	v := newBeliefValidator()
	c := domain.ClaimCandidate{
		Subject:    "apartment",
		Statement:  "My apartment building has a shared rooftop garden with tomato plants",
		Confidence: conf(0.9),
		Evidence: []domain.EvidenceQuote{
			{Source: domain.SourceUser, Quote: "Our building has a shared rooftop garden where I grow tomatoes"},
		},
		ClaimType: domain.ClaimObservation,
		TimeScope: domain.ScopeMidTerm,
	}

	verdict := v.Validate(c)
	require.True(t, verdict.Accepted, "reasons: %v", verdict.Reasons)
	assert.Equal(t, 68, verdict.Score)
	assert.NotEmpty(t, verdict.Warnings)

	c.ClaimType = domain.ClaimFact
	verdict = v.Validate(c)
	assert.False(t, verdict.Accepted)
	assert.Equal(t, []domain.RejectReason{domain.ReasonNoBeliefTrigger}, verdict.Reasons)
}

func TestBeliefValidator_EphemeralFactAllowsTemporaryMarker(t *testing.T) {
	v := newBeliefValidator()
	c := domain.ClaimCandidate{
		Subject:    "user",
		Statement:  "Lately I really value quiet mornings before starting my work",
		Confidence: conf(0.7),
		Evidence: []domain.EvidenceQuote{
			{Source: domain.SourceUser, Quote: "Lately I have been enjoying quiet mornings before work"},
		},
		ClaimType: domain.ClaimEphemeralFact,
	}

	verdict := v.Validate(c)
	require.True(t, verdict.Accepted, "reasons: %v", verdict.Reasons)
	assert.Equal(t, 74, verdict.Score)
}

func TestBeliefValidator_Hedges(t *testing.T) {
	v := newBeliefValidator()
	c := domain.ClaimCandidate{
		Subject:    "user",
		Statement:  "I probably prefer working late at night in quiet places",
		Confidence: conf(0.4),
		Evidence: []domain.EvidenceQuote{
			{Source: domain.SourceUser, Quote: "I probably prefer working late at night when it is quiet"},
		},
		ClaimType: domain.ClaimPreference,
	}

	verdict := v.Validate(c)
	assert.False(t, verdict.Accepted)
	assert.Equal(t, []domain.RejectReason{domain.ReasonHedgedLowConfidence}, verdict.Reasons)

	c.Confidence = conf(0.7)
	verdict = v.Validate(c)
	require.True(t, verdict.Accepted)
	assert.Equal(t, 54, verdict.Score)
	assert.Contains(t, verdict.Warnings, "hedge words present")
}

func TestBeliefValidator_SarcasmPenalty(t *testing.T) {
	v := newBeliefValidator()
	c := domain.ClaimCandidate{
		Subject:    "user",
		Statement:  "Oh great, I just love waiting in long lines at the grocery store",
		Confidence: conf(0.9),
		Evidence: []domain.EvidenceQuote{
			{Source: domain.SourceUser, Quote: "Oh great, I just love waiting in long lines at the store"},
		},
		ClaimType: domain.ClaimPreference,
	}

	verdict := v.Validate(c)
	require.True(t, verdict.Accepted)
	assert.Equal(t, 48, verdict.Score)
	assert.Contains(t, verdict.Warnings, "sarcasm markers present")
}

func TestBeliefValidator_ScoreBelowThresholdKeepsBreakdown(t *testing.T) {
	v := newBeliefValidator()
	c := domain.ClaimCandidate{
		Subject:    "office printer",
		Statement:  "The office printer probably jams whenever somebody prints double sided pages",
		Confidence: conf(0.5),
		Evidence: []domain.EvidenceQuote{
			{Source: domain.SourceAssistant, Quote: "The office printer jams whenever someone prints double sided pages"},
		},
		ClaimType: domain.ClaimObservation,
	}

	verdict := v.Validate(c)

	assert.False(t, verdict.Accepted)
	assert.Equal(t, []domain.RejectReason{domain.ReasonScoreBelowThreshold}, verdict.Reasons)
	assert.Zero(t, verdict.Score)
	require.NotEmpty(t, verdict.Breakdown)

	var total float64
	for _, step := range verdict.Breakdown {
		total += step.Delta
	}
	assert.Equal(t, 20.0, total)
}

func TestBeliefValidator_DisambiguatesSubject(t *testing.T) {
	v := newBeliefValidator()
	c := domain.ClaimCandidate{
		Subject:    "Python",
		Statement:  "I love writing python code because the programming language is so clear",
		Confidence: conf(0.8),
		Evidence: []domain.EvidenceQuote{
			{Source: domain.SourceUser, Quote: "I love writing python code, the language is so clear"},
		},
		ClaimType: domain.ClaimPreference,
	}

	verdict := v.Validate(c)
	require.True(t, verdict.Accepted)
	assert.Equal(t, "python (programming language)", verdict.Candidate.Subject)
	assert.Equal(t, 76, verdict.Score)
	assert.Empty(t, verdict.Warnings)
}

func TestBeliefValidator_Normalization(t *testing.T) {
	v := newBeliefValidator()

	t.Run("hedging opener", func(t *testing.T) {
		c := domain.ClaimCandidate{
			Subject:    "user",
			Statement:  "I think that honesty always matters more than comfort in friendships.",
			Confidence: conf(0.8),
			Evidence: []domain.EvidenceQuote{
				{Source: domain.SourceUser, Quote: "I think honesty always matters more than comfort with friends"},
			},
			ClaimType: domain.ClaimPrinciple,
		}
		verdict := v.Validate(c)
		require.True(t, verdict.Accepted, "reasons: %v", verdict.Reasons)
		assert.Equal(t, "I believe honesty always matters more than comfort in friendships", verdict.Candidate.Statement)
	})

	t.Run("third person", func(t *testing.T) {
		c := domain.ClaimCandidate{
			Subject:    "User",
			Statement:  "The user values honesty above comfort in every close friendship.",
			Confidence: conf(0.8),
			Evidence: []domain.EvidenceQuote{
				{Source: domain.SourceUser, Quote: "I value honesty over comfort in every close friendship"},
			},
			ClaimType: "VALUE",
		}
		verdict := v.Validate(c)
		require.True(t, verdict.Accepted, "reasons: %v", verdict.Reasons)
		assert.Equal(t, "I value honesty above comfort in every close friendship", verdict.Candidate.Statement)
		assert.Equal(t, "user", verdict.Candidate.Subject)
		assert.Equal(t, domain.ClaimValue, verdict.Candidate.ClaimType)
		assert.Contains(t, verdict.Warnings, "statement is not first-person")
	})
}

func TestBeliefValidator_Grounding(t *testing.T) {
	v := newBeliefValidator()

	verdict := v.ValidateWithSource(valueCandidate(), "We talked about the weather and my commute")
	assert.False(t, verdict.Accepted)
	assert.Equal(t, []domain.RejectReason{domain.ReasonUngroundedEvidence}, verdict.Reasons)

	transcript := "user: Honestly? I really   value honesty and openness in all my relationships."
	verdict = v.ValidateWithSource(valueCandidate(), transcript)
	assert.True(t, verdict.Accepted, "reasons: %v", verdict.Reasons)
}

func TestBeliefValidator_DoesNotMutateInput(t *testing.T) {
	v := newBeliefValidator()
	c := valueCandidate()
	c.Statement = "I think that honesty always matters more than comfort in friendships."
	c.ClaimType = domain.ClaimPrinciple
	before := c.Statement

	v.Validate(c)

	assert.Equal(t, before, c.Statement)
	assert.True(t, strings.HasSuffix(c.Statement, "."))
}
