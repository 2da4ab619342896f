package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nia-core/beliefgate/internal/domain"
	"github.com/nia-core/beliefgate/internal/embedding"
	"github.com/nia-core/beliefgate/internal/similarity"
	"github.com/nia-core/beliefgate/internal/store"
	"github.com/nia-core/beliefgate/internal/validator"
	"go.uber.org/zap"
)

var (
	ErrMemoryNotFound     = errors.New("memory not found")
	ErrMemoryContentEmpty = errors.New("statement is required")
)

const (
	// MemoryReinforcementBoost is added to strength when a memory is restated.
	MemoryReinforcementBoost = 0.1
	// MaxStrength is the strength ceiling.
	MaxStrength = 1.0
)

// CommitOutcome is what happened to one memory candidate.
type CommitOutcome string

const (
	CommitCreated    CommitOutcome = "created"
	CommitReinforced CommitOutcome = "reinforced"
	CommitRejected   CommitOutcome = "rejected"
)

type CommitResult struct {
	Outcome    CommitOutcome        `json:"outcome"`
	Verdict    domain.MemoryVerdict `json:"verdict"`
	Memory     *domain.MemoryRecord `json:"memory,omitempty"`
	Similarity float64              `json:"similarity,omitempty"`
}

type MemoryService struct {
	memoryStore domain.MemoryStore
	validator   *validator.MemoryValidator
	matcher     *similarity.Matcher
	bridge      domain.EmbeddingBridge
	logger      *zap.Logger
}

func NewMemoryService(ms domain.MemoryStore, v *validator.MemoryValidator, m *similarity.Matcher, logger *zap.Logger) *MemoryService {
	return &MemoryService{
		memoryStore: ms,
		validator:   v,
		matcher:     m,
		logger:      logger,
	}
}

func (s *MemoryService) SetEmbeddingBridge(b domain.EmbeddingBridge) {
	s.bridge = b
}

func (s *MemoryService) Validate(c domain.MemoryCandidate, sourceMessage string) domain.MemoryVerdict {
	return s.validator.Validate(c, sourceMessage)
}

// Commit validates a memory candidate against its source message and persists it.
// A restatement of an active memory about the same subject reinforces it instead
// of inserting a duplicate. Manual commits pass a nil sourceTurnID.
func (s *MemoryService) Commit(ctx context.Context, c domain.MemoryCandidate, sourceMessage string, sourceTurnID *uuid.UUID) (*CommitResult, error) {
	verdict := s.validator.Validate(c, sourceMessage)
	result := &CommitResult{Outcome: CommitRejected, Verdict: verdict}
	if !verdict.Accepted {
		return result, nil
	}
	nc := verdict.Candidate

	existing, err := s.memoryStore.ListActiveByAbout(ctx, nc.About)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}

	var best *domain.MemoryRecord
	bestSim := 0.0
	for i := range existing {
		m := &existing[i]
		if !s.matcher.Same(nc.Statement, m.Statement) {
			continue
		}
		if sim := s.matcher.Similarity(nc.Statement, m.Statement); sim > bestSim {
			best, bestSim = m, sim
		}
	}

	if best != nil {
		strength := math.Min(MaxStrength, math.Max(best.Strength, nc.Importance)+MemoryReinforcementBoost)
		if err := s.memoryStore.Reinforce(ctx, best.ID, strength); err != nil {
			return nil, fmt.Errorf("reinforce memory: %w", err)
		}
		now := timeNow()
		best.Strength = strength
		best.AccessCount++
		best.LastAccessedAt = &now

		result.Outcome = CommitReinforced
		result.Memory = best
		result.Similarity = bestSim
		s.logger.Debug("memory reinforced",
			zap.String("memory_id", best.ID.String()),
			zap.Float64("strength", strength))
		return result, nil
	}

	m := &domain.MemoryRecord{
		Statement:      nc.Statement,
		Type:           nc.FactType,
		About:          nc.About,
		TemporalBucket: nc.TemporalTag,
		SourceTurnID:   sourceTurnID,
		Strength:       math.Max(0, math.Min(MaxStrength, nc.Importance)),
		DecayRate:      domain.DefaultDecayRate,
	}
	if !domain.ValidMemoryType(string(m.Type)) {
		m.Type = domain.MemoryTypeFact
	}
	if !domain.ValidTemporalTag(m.TemporalBucket) {
		m.TemporalBucket = domain.BucketRecent
	}

	if err := s.memoryStore.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create memory: %w", err)
	}
	s.logger.Info("memory committed",
		zap.String("memory_id", m.ID.String()),
		zap.String("about", m.About),
		zap.Int("score", verdict.Score))

	if err := s.EmbedMemory(ctx, m); err != nil {
		s.logger.Warn("memory embedding failed, left for backfill",
			zap.String("memory_id", m.ID.String()),
			zap.Error(err))
	}

	result.Outcome = CommitCreated
	result.Memory = m
	return result, nil
}

// Correct replaces a memory's statement with a manual correction. The old record
// is superseded, never deleted.
func (s *MemoryService) Correct(ctx context.Context, id uuid.UUID, statement string) (*domain.MemoryRecord, error) {
	statement = strings.TrimSpace(statement)
	if statement == "" {
		return nil, ErrMemoryContentEmpty
	}
	old, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !old.IsActive {
		return nil, ErrMemoryNotFound
	}

	replacement := &domain.MemoryRecord{
		Statement:      statement,
		Type:           old.Type,
		About:          old.About,
		TemporalBucket: old.TemporalBucket,
		Strength:       old.Strength,
		DecayRate:      old.DecayRate,
	}
	if err := s.memoryStore.Correct(ctx, id, replacement); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMemoryNotFound
		}
		return nil, fmt.Errorf("correct memory: %w", err)
	}
	s.logger.Info("memory corrected",
		zap.String("memory_id", id.String()),
		zap.String("replacement_id", replacement.ID.String()))

	if err := s.EmbedMemory(ctx, replacement); err != nil {
		s.logger.Warn("memory embedding failed, left for backfill",
			zap.String("memory_id", replacement.ID.String()),
			zap.Error(err))
	}
	return replacement, nil
}

// Supersede closes oldID in favour of newID.
func (s *MemoryService) Supersede(ctx context.Context, oldID, newID uuid.UUID) error {
	if _, err := s.GetByID(ctx, newID); err != nil {
		return err
	}
	if err := s.memoryStore.Supersede(ctx, oldID, newID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrMemoryNotFound
		}
		return err
	}
	return nil
}

func (s *MemoryService) GetByID(ctx context.Context, id uuid.UUID) (*domain.MemoryRecord, error) {
	m, err := s.memoryStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMemoryNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *MemoryService) ListActive(ctx context.Context, about string) ([]domain.MemoryRecord, error) {
	return s.memoryStore.ListActiveByAbout(ctx, about)
}

// EmbedMemory requests a vector for m, stores it and records the reference.
func (s *MemoryService) EmbedMemory(ctx context.Context, m *domain.MemoryRecord) error {
	if s.bridge == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	res, err := s.bridge.Embed(ctx, m.ID, m.Statement, embedding.KindMemory)
	if err != nil {
		return err
	}
	metadata := map[string]string{
		"kind":        embedding.KindMemory,
		"memory_type": string(m.Type),
		"about":       m.About,
		"text":        m.Statement,
		"bucket":      m.TemporalBucket,
	}
	if err := s.bridge.Store(ctx, res.VectorID, res.Vector, metadata); err != nil {
		return err
	}
	if err := s.memoryStore.SetVectorRef(ctx, m.ID, res.VectorID); err != nil {
		return fmt.Errorf("set vector ref: %w", err)
	}
	m.VectorRef = &res.VectorID
	return nil
}

var timeNow = time.Now
