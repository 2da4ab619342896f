package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nia-core/beliefgate/internal/domain"
	"go.uber.org/zap"
)

// ErrExtractorFailed wraps transport and provider errors from the extractor.
var ErrExtractorFailed = errors.New("extractor request failed")

// IngestResult reports everything one dialogue turn produced.
type IngestResult struct {
	TurnID           uuid.UUID      `json:"turn_id"`
	ExtractionFailed bool           `json:"extraction_failed,omitempty"`
	Beliefs          *BatchResult   `json:"beliefs,omitempty"`
	Memories         []CommitResult `json:"memories"`
}

// IngestService runs one turn through extraction, validation and persistence.
type IngestService struct {
	extractor domain.Extractor
	beliefs   *BeliefService
	memories  *MemoryService
	logger    *zap.Logger
}

func NewIngestService(e domain.Extractor, bs *BeliefService, ms *MemoryService, logger *zap.Logger) *IngestService {
	return &IngestService{
		extractor: e,
		beliefs:   bs,
		memories:  ms,
		logger:    logger,
	}
}

// ProcessTurn extracts candidates from turn. Belief candidates are validated
// against the whole transcript; memory candidates against the user's words only.
// Unparseable extractor output counts as zero candidates.
func (s *IngestService) ProcessTurn(ctx context.Context, turn domain.Turn) (*IngestResult, error) {
	if turn.ID == uuid.Nil {
		return nil, ErrOriginTurnMissing
	}
	result := &IngestResult{TurnID: turn.ID}

	extraction, err := s.extractor.Extract(ctx, turn)
	if err != nil {
		if errors.Is(err, domain.ErrUnparseableExtraction) {
			s.logger.Warn("extraction output unparseable, treating as empty",
				zap.String("turn_id", turn.ID.String()),
				zap.Error(err))
			result.ExtractionFailed = true
			return result, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrExtractorFailed, err)
	}

	if len(extraction.Beliefs) > 0 {
		batch, err := s.beliefs.ProcessCandidates(ctx, extraction.Beliefs, turn.Transcript(), turn.ID)
		result.Beliefs = batch
		if err != nil {
			s.logPartial(turn.ID, "beliefs", err)
			return result, err
		}
	}

	userText := turn.UserText()
	for _, c := range extraction.Memories {
		res, err := s.memories.Commit(ctx, c, userText, &turn.ID)
		if err != nil {
			s.logPartial(turn.ID, "memories", err)
			return result, err
		}
		result.Memories = append(result.Memories, *res)
	}

	fields := []zap.Field{
		zap.String("turn_id", turn.ID.String()),
		zap.Int("belief_candidates", len(extraction.Beliefs)),
		zap.Int("memory_candidates", len(extraction.Memories)),
	}
	if result.Beliefs != nil {
		fields = append(fields,
			zap.Int("created", len(result.Beliefs.Created)),
			zap.Int("updated", len(result.Beliefs.Updated)),
			zap.Int("conflicted", len(result.Beliefs.Conflicted)))
	}
	s.logger.Info("turn processed", fields...)

	return result, nil
}

// logPartial records a failure after some writes of the turn may have committed.
func (s *IngestService) logPartial(turnID uuid.UUID, stage string, err error) {
	s.logger.Error("turn partially persisted",
		zap.String("turn_id", turnID.String()),
		zap.String("stage", stage),
		zap.Error(err))
}
