package domain

import "strings"

// SourceRole identifies who said an evidence quote.
type SourceRole string

const (
	SourceUser      SourceRole = "user"
	SourceAssistant SourceRole = "assistant"
	SourceSystem    SourceRole = "system"
)

// ClaimType is the producer's tag for what kind of claim a candidate is.
type ClaimType string

const (
	ClaimValue         ClaimType = "value"
	ClaimPrinciple     ClaimType = "principle"
	ClaimCoreValue     ClaimType = "core_value"
	ClaimIdentity      ClaimType = "identity"
	ClaimScar          ClaimType = "scar"
	ClaimPreference    ClaimType = "preference"
	ClaimFactual       ClaimType = "factual"
	ClaimFact          ClaimType = "fact"
	ClaimCausal        ClaimType = "causal"
	ClaimEvent         ClaimType = "event"
	ClaimBelief        ClaimType = "belief"
	ClaimObservation   ClaimType = "observation"
	ClaimEphemeralFact ClaimType = "ephemeral_fact"
)

// TimeScope is the producer's estimate of how long a claim holds.
type TimeScope string

const (
	ScopeLongTerm  TimeScope = "long_term"
	ScopeMidTerm   TimeScope = "mid_term"
	ScopeShortTerm TimeScope = "short_term"
)

// EvidenceQuote is a literal excerpt of dialogue offered as grounding for a claim.
type EvidenceQuote struct {
	Source SourceRole `json:"source"`
	Quote  string     `json:"quote"`
}

// ClaimCandidate is one belief proposal from the extractor. It is consumed
// exactly once and never persisted directly.
type ClaimCandidate struct {
	Subject            string          `json:"subject"`
	Statement          string          `json:"statement"`
	Confidence         *float64        `json:"confidence"`
	Evidence           []EvidenceQuote `json:"evidence"`
	ClaimType          ClaimType       `json:"claim_type"`
	TimeScope          TimeScope       `json:"time_scope,omitempty"`
	FormationReasoning string          `json:"formation_reasoning,omitempty"`
}

// ConfidenceValue returns the candidate confidence, or 0 when unset.
func (c ClaimCandidate) ConfidenceValue() float64 {
	if c.Confidence == nil {
		return 0
	}
	return *c.Confidence
}

// SubjectKey is the canonical form a subject is stored and matched under.
func SubjectKey(subject string) string {
	return strings.ToLower(strings.TrimSpace(subject))
}

// MemoryCandidate is one first-person memory proposal from the extractor.
type MemoryCandidate struct {
	Statement   string     `json:"statement"`
	SourceQuote string     `json:"source_quote"`
	About       string     `json:"about,omitempty"`
	FactType    MemoryType `json:"fact_type,omitempty"`
	TemporalTag string     `json:"temporal,omitempty"`
	Importance  float64    `json:"importance"`
}
