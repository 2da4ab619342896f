package domain

import (
	"time"

	"github.com/google/uuid"
)

type MemoryType string

const (
	MemoryTypeFact         MemoryType = "fact"
	MemoryTypePreference   MemoryType = "preference"
	MemoryTypeEvent        MemoryType = "event"
	MemoryTypeRelationship MemoryType = "relationship"
	MemoryTypeGoal         MemoryType = "goal"
	MemoryTypeExperience   MemoryType = "experience"
	MemoryTypeEmotion      MemoryType = "emotion"
)

func ValidMemoryType(t string) bool {
	switch MemoryType(t) {
	case MemoryTypeFact, MemoryTypePreference, MemoryTypeEvent, MemoryTypeRelationship,
		MemoryTypeGoal, MemoryTypeExperience, MemoryTypeEmotion:
		return true
	}
	return false
}

// Temporal bucket labels attached to memory records.
const (
	BucketToday     = "today"
	BucketThisWeek  = "this_week"
	BucketThisMonth = "this_month"
	BucketRecent    = "recent"
	BucketOngoing   = "ongoing"
	BucketPast      = "past"
	BucketFuture    = "future"
)

func ValidTemporalTag(t string) bool {
	switch t {
	case BucketToday, BucketThisWeek, BucketThisMonth, BucketRecent, BucketOngoing, BucketPast, BucketFuture:
		return true
	}
	return false
}

// DefaultDecayRate is the per-day strength decay applied to new memory records.
const DefaultDecayRate = 0.05

// MemoryRecord is a first-person memory. Manual commits have no source turn.
type MemoryRecord struct {
	ID              uuid.UUID  `json:"id"`
	Statement       string     `json:"statement"`
	Type            MemoryType `json:"memory_type"`
	About           string     `json:"about"`
	CommittedAt     time.Time  `json:"committed_at"`
	TemporalBucket  string     `json:"temporal_bucket"`
	SourceTurnID    *uuid.UUID `json:"source_turn_id,omitempty"`
	Strength        float64    `json:"strength"`
	DecayRate       float64    `json:"decay_rate"`
	AccessCount     int        `json:"access_count"`
	CorrectionCount int        `json:"correction_count"`
	IsActive        bool       `json:"is_active"`
	SupersededBy    *uuid.UUID `json:"superseded_by,omitempty"`
	VectorRef       *string    `json:"vector_ref,omitempty"`
	LastAccessedAt  *time.Time `json:"last_accessed_at,omitempty"`
	LastDecayedAt   *time.Time `json:"last_decayed_at,omitempty"`
}

// DecayAnchor is the instant strength was last known to be current.
func (m *MemoryRecord) DecayAnchor() time.Time {
	anchor := m.CommittedAt
	if m.LastAccessedAt != nil && m.LastAccessedAt.After(anchor) {
		anchor = *m.LastAccessedAt
	}
	if m.LastDecayedAt != nil && m.LastDecayedAt.After(anchor) {
		anchor = *m.LastDecayedAt
	}
	return anchor
}
