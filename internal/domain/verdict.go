package domain

// RejectReason is a stable code explaining why a candidate was refused.
type RejectReason string

const (
	ReasonInvalidSubject        RejectReason = "invalid_subject"
	ReasonEmptyStatement        RejectReason = "empty_statement"
	ReasonStatementTooShort     RejectReason = "statement_too_short"
	ReasonQuestion              RejectReason = "question"
	ReasonImperative            RejectReason = "imperative"
	ReasonEphemeralState        RejectReason = "ephemeral_state"
	ReasonLowSemanticContent    RejectReason = "low_semantic_content"
	ReasonNoBeliefTrigger       RejectReason = "no_belief_trigger"
	ReasonTemporaryState        RejectReason = "temporary_state"
	ReasonInsufficientEvidence  RejectReason = "insufficient_evidence"
	ReasonMissingSourceQuote    RejectReason = "missing_source_quote"
	ReasonUngroundedEvidence    RejectReason = "ungrounded_evidence"
	ReasonIncoherentStatement   RejectReason = "incoherent_statement"
	ReasonInvalidConfidence     RejectReason = "invalid_confidence"
	ReasonLowConfidenceIdentity RejectReason = "low_confidence_identity"
	ReasonHedgedLowConfidence   RejectReason = "hedged_low_confidence"
	ReasonLowImportance         RejectReason = "low_importance"
	ReasonRequestOrGreeting     RejectReason = "request_or_greeting"
	ReasonScoreBelowThreshold   RejectReason = "score_below_threshold"
)

// ReasonCategory groups rejection reasons into the error taxonomy.
type ReasonCategory string

const (
	CategoryMalformedCandidate  ReasonCategory = "malformed_candidate"
	CategoryUngroundedEvidence  ReasonCategory = "ungrounded_evidence"
	CategoryLowSemanticContent  ReasonCategory = "low_semantic_content"
	CategoryPolicyViolation     ReasonCategory = "policy_violation"
	CategoryInsufficientScoring ReasonCategory = "insufficient_score"
)

func (r RejectReason) Category() ReasonCategory {
	switch r {
	case ReasonInvalidSubject, ReasonEmptyStatement, ReasonStatementTooShort,
		ReasonInvalidConfidence, ReasonMissingSourceQuote:
		return CategoryMalformedCandidate
	case ReasonUngroundedEvidence, ReasonInsufficientEvidence, ReasonIncoherentStatement:
		return CategoryUngroundedEvidence
	case ReasonLowSemanticContent, ReasonNoBeliefTrigger, ReasonLowImportance:
		return CategoryLowSemanticContent
	case ReasonScoreBelowThreshold:
		return CategoryInsufficientScoring
	default:
		return CategoryPolicyViolation
	}
}

// ScoreAdjustment records one step of score assembly.
type ScoreAdjustment struct {
	Rule  string  `json:"rule"`
	Delta float64 `json:"delta"`
}

// ValidationVerdict is the outcome of validating one belief candidate.
// Candidate holds the normalized form when Accepted is true.
type ValidationVerdict struct {
	Accepted  bool              `json:"accepted"`
	Reasons   []RejectReason    `json:"reasons"`
	Warnings  []string          `json:"warnings"`
	Score     int               `json:"score"`
	Breakdown []ScoreAdjustment `json:"breakdown,omitempty"`
	Candidate ClaimCandidate    `json:"candidate"`
}

// MemoryVerdict is the outcome of validating one memory candidate.
type MemoryVerdict struct {
	Accepted   bool            `json:"accepted"`
	Reasons    []RejectReason  `json:"reasons"`
	Warnings   []string        `json:"warnings"`
	Score      int             `json:"score"`
	QuoteMatch float64         `json:"quote_match"`
	Coherence  float64         `json:"coherence"`
	Candidate  MemoryCandidate `json:"candidate"`
}
