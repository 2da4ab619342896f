package domain

import (
	"time"

	"github.com/google/uuid"
)

// BeliefType is the persisted kind of a belief. It mirrors the claim-type tags.
type BeliefType string

const (
	BeliefValue         BeliefType = "value"
	BeliefPrinciple     BeliefType = "principle"
	BeliefCoreValue     BeliefType = "core_value"
	BeliefIdentity      BeliefType = "identity"
	BeliefScar          BeliefType = "scar"
	BeliefPreference    BeliefType = "preference"
	BeliefFactual       BeliefType = "factual"
	BeliefCausal        BeliefType = "causal"
	BeliefEvent         BeliefType = "event"
	BeliefObservation   BeliefType = "observation"
	BeliefEphemeralFact BeliefType = "ephemeral_fact"
	BeliefGeneral       BeliefType = "belief"
)

// BeliefTypeFor maps a producer claim type onto the persisted enum.
// "fact" folds into "factual"; anything unknown becomes a general belief.
func BeliefTypeFor(c ClaimType) BeliefType {
	switch c {
	case ClaimValue, ClaimPrinciple, ClaimCoreValue, ClaimIdentity, ClaimScar,
		ClaimPreference, ClaimFactual, ClaimCausal, ClaimEvent, ClaimObservation, ClaimEphemeralFact:
		return BeliefType(c)
	case ClaimFact:
		return BeliefFactual
	}
	return BeliefGeneral
}

// ConfidenceTrend describes the direction of the last conviction change.
type ConfidenceTrend string

const (
	TrendStable  ConfidenceTrend = "stable"
	TrendRising  ConfidenceTrend = "rising"
	TrendFalling ConfidenceTrend = "falling"
)

// TrendBetween classifies a conviction change.
func TrendBetween(before, after float64) ConfidenceTrend {
	switch {
	case after > before:
		return TrendRising
	case after < before:
		return TrendFalling
	}
	return TrendStable
}

// Belief is a conviction-scored claim about a subject. ValidTo == nil means the
// belief is active; closed beliefs are kept for audit and never deleted.
type Belief struct {
	ID                 uuid.UUID       `json:"id"`
	Statement          string          `json:"statement"`
	Type               BeliefType      `json:"belief_type"`
	ConvictionScore    float64         `json:"conviction_score"`
	EvidenceCount      int             `json:"evidence_count"`
	Subject            string          `json:"subject"`
	ValidFrom          time.Time       `json:"valid_from"`
	ValidTo            *time.Time      `json:"valid_to,omitempty"`
	FormationReasoning string          `json:"formation_reasoning,omitempty"`
	LastReinforced     *time.Time      `json:"last_reinforced,omitempty"`
	TimesReinforced    int             `json:"times_reinforced"`
	ConfidenceTrend    ConfidenceTrend `json:"confidence_trend"`
	VectorRef          *string         `json:"vector_ref,omitempty"`
	SupersededBy       *uuid.UUID      `json:"superseded_by,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// Active reports whether the belief is the open head of its lineage.
func (b *Belief) Active() bool {
	return b.ValidTo == nil
}

// EdgeType distinguishes why a causality edge was written.
type EdgeType string

const (
	EdgeFormation     EdgeType = "formation"
	EdgeReinforcement EdgeType = "reinforcement"
)

// CausalityEdge ties a belief to the dialogue turn that formed or reinforced it.
// Edges are append-only.
type CausalityEdge struct {
	ID        uuid.UUID `json:"id"`
	BeliefID  uuid.UUID `json:"belief_id"`
	TurnID    uuid.UUID `json:"turn_id"`
	Type      EdgeType  `json:"edge_type"`
	CreatedAt time.Time `json:"created_at"`
}
