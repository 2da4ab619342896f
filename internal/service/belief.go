package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nia-core/beliefgate/internal/domain"
	"github.com/nia-core/beliefgate/internal/similarity"
	"github.com/nia-core/beliefgate/internal/store"
	"github.com/nia-core/beliefgate/internal/validator"
	"go.uber.org/zap"
)

var (
	ErrBeliefNotFound     = errors.New("belief not found")
	ErrEmptyBatch         = errors.New("batch is empty")
	ErrOriginTurnMissing  = errors.New("origin_turn_id is required")
	ErrVerdictNotAccepted = errors.New("candidate was not accepted by validation")
	ErrTranscriptMissing  = errors.New("transcript is required to ground evidence")
)

const (
	// DefaultBatchLimit caps how many accepted candidates one extraction pass may persist.
	DefaultBatchLimit = 4

	embedTimeout = 10 * time.Second
)

// UpsertOutcome is what happened to one accepted candidate.
type UpsertOutcome string

const (
	OutcomeCreated          UpsertOutcome = "created"
	OutcomeUpdated          UpsertOutcome = "updated"
	OutcomeRejectedConflict UpsertOutcome = "rejected_conflict"
)

type UpsertResult struct {
	Outcome    UpsertOutcome  `json:"outcome"`
	Belief     *domain.Belief `json:"belief,omitempty"`
	Similarity float64        `json:"similarity,omitempty"`
	Retired    []uuid.UUID    `json:"retired,omitempty"`
	BlockedBy  *domain.Belief `json:"blocked_by,omitempty"`
	Score      int            `json:"score"`
}

// BatchResult aggregates one batch. Rejected holds validator refusals and Dropped
// the accepted candidates cut by the batch limit.
type BatchResult struct {
	Created    []domain.Belief            `json:"created"`
	Updated    []domain.Belief            `json:"updated"`
	Conflicted []UpsertResult             `json:"conflicted"`
	Rejected   []domain.ValidationVerdict `json:"rejected,omitempty"`
	Dropped    []domain.ValidationVerdict `json:"dropped,omitempty"`
}

type BeliefService struct {
	beliefStore domain.BeliefStore
	validator   *validator.BeliefValidator
	matcher     *similarity.Matcher
	bridge      domain.EmbeddingBridge
	logger      *zap.Logger

	batchLimit int
}

func NewBeliefService(bs domain.BeliefStore, v *validator.BeliefValidator, m *similarity.Matcher, logger *zap.Logger) *BeliefService {
	return &BeliefService{
		beliefStore: bs,
		validator:   v,
		matcher:     m,
		logger:      logger,
		batchLimit:  DefaultBatchLimit,
	}
}

// SetEmbeddingBridge enables best-effort embedding after each insert.
func (s *BeliefService) SetEmbeddingBridge(b domain.EmbeddingBridge) {
	s.bridge = b
}

func (s *BeliefService) SetBatchLimit(n int) {
	if n > 0 {
		s.batchLimit = n
	}
}

func (s *BeliefService) Validate(c domain.ClaimCandidate, transcript string) domain.ValidationVerdict {
	return s.validator.ValidateWithSource(c, transcript)
}

// ValidateBatch validates every candidate; the result is index-aligned with cs.
func (s *BeliefService) ValidateBatch(cs []domain.ClaimCandidate, transcript string) []domain.ValidationVerdict {
	out := make([]domain.ValidationVerdict, len(cs))
	for i, c := range cs {
		out[i] = s.validator.ValidateWithSource(c, transcript)
	}
	return out
}

// CapBatch keeps the accepted verdicts with the highest scores, at most limit of
// them, and returns them in received order. Equal scores keep the earlier candidate.
// The second return value lists the accepted verdicts that were cut.
func CapBatch(verdicts []domain.ValidationVerdict, limit int) (kept, dropped []domain.ValidationVerdict) {
	var accepted []int
	for i, v := range verdicts {
		if v.Accepted {
			accepted = append(accepted, i)
		}
	}
	if limit <= 0 || len(accepted) <= limit {
		for _, i := range accepted {
			kept = append(kept, verdicts[i])
		}
		return kept, nil
	}

	ranked := append([]int(nil), accepted...)
	sort.SliceStable(ranked, func(a, b int) bool {
		return verdicts[ranked[a]].Score > verdicts[ranked[b]].Score
	})
	keep := make(map[int]bool, limit)
	for _, i := range ranked[:limit] {
		keep[i] = true
	}
	for _, i := range accepted {
		if keep[i] {
			kept = append(kept, verdicts[i])
		} else {
			dropped = append(dropped, verdicts[i])
		}
	}
	return kept, dropped
}

// UpsertBelief merges one accepted candidate. The similarity scan, conflict
// scan and resulting writes run in a single transaction; embedding happens
// after commit and never fails the call.
func (s *BeliefService) UpsertBelief(ctx context.Context, v domain.ValidationVerdict, originTurnID uuid.UUID) (*UpsertResult, error) {
	if !v.Accepted {
		return nil, ErrVerdictNotAccepted
	}
	if originTurnID == uuid.Nil {
		return nil, ErrOriginTurnMissing
	}

	c := v.Candidate
	c.Subject = domain.SubjectKey(c.Subject)
	score := float64(v.Score)
	result := &UpsertResult{Score: v.Score}

	err := s.beliefStore.Atomically(ctx, func(tx domain.BeliefTx) error {
		*result = UpsertResult{Score: v.Score}
		now := timeNow().UTC()

		pool, err := tx.ListActiveBySubject(ctx, c.Subject)
		if err != nil {
			return err
		}

		if match := s.matcher.FindSame(c.Statement, pool); match != nil {
			old := match.Belief
			n := float64(old.EvidenceCount)
			conviction := (old.ConvictionScore*n + score) / (n + 1)
			r := domain.Reinforcement{
				BeliefID:        old.ID,
				Conviction:      conviction,
				EvidenceCount:   old.EvidenceCount + 1,
				TimesReinforced: old.TimesReinforced + 1,
				Trend:           domain.TrendBetween(old.ConvictionScore, conviction),
				At:              now,
			}
			if err := tx.Reinforce(ctx, r); err != nil {
				return err
			}
			if err := tx.AppendEdge(ctx, &domain.CausalityEdge{BeliefID: old.ID, TurnID: originTurnID, Type: domain.EdgeReinforcement}); err != nil {
				return err
			}

			updated := old
			updated.ConvictionScore = r.Conviction
			updated.EvidenceCount = r.EvidenceCount
			updated.TimesReinforced = r.TimesReinforced
			updated.ConfidenceTrend = r.Trend
			updated.LastReinforced = &now
			result.Outcome = OutcomeUpdated
			result.Belief = &updated
			result.Similarity = match.Similarity
			return nil
		}

		resolution := similarity.Resolve(score, s.matcher.FindConflicts(c.Statement, pool))
		if !resolution.Wins {
			result.Outcome = OutcomeRejectedConflict
			result.BlockedBy = resolution.Blocker
			return nil
		}

		b := &domain.Belief{
			Statement:          c.Statement,
			Type:               domain.BeliefTypeFor(c.ClaimType),
			ConvictionScore:    score,
			EvidenceCount:      1,
			Subject:            c.Subject,
			ValidFrom:          now,
			FormationReasoning: c.FormationReasoning,
			ConfidenceTrend:    domain.TrendStable,
		}
		if err := tx.Insert(ctx, b); err != nil {
			return err
		}
		if err := tx.AppendEdge(ctx, &domain.CausalityEdge{BeliefID: b.ID, TurnID: originTurnID, Type: domain.EdgeFormation}); err != nil {
			return err
		}
		for _, old := range resolution.Retire {
			note := fmt.Sprintf("superseded by %s: score %d beat conviction %.1f", b.ID, v.Score, old.ConvictionScore)
			if err := tx.Retire(ctx, old.ID, b.ID, note, now); err != nil {
				return err
			}
			result.Retired = append(result.Retired, old.ID)
		}

		result.Outcome = OutcomeCreated
		result.Belief = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("upsert belief: %w", err)
	}

	switch result.Outcome {
	case OutcomeCreated:
		s.logger.Info("belief created",
			zap.String("belief_id", result.Belief.ID.String()),
			zap.String("subject", result.Belief.Subject),
			zap.Int("score", v.Score),
			zap.Int("retired", len(result.Retired)))
		if err := s.EmbedBelief(ctx, result.Belief); err != nil {
			s.logger.Warn("belief embedding failed, left for backfill",
				zap.String("belief_id", result.Belief.ID.String()),
				zap.Error(err))
		}
	case OutcomeUpdated:
		s.logger.Debug("belief reinforced",
			zap.String("belief_id", result.Belief.ID.String()),
			zap.Float64("conviction", result.Belief.ConvictionScore),
			zap.Int("evidence_count", result.Belief.EvidenceCount))
	case OutcomeRejectedConflict:
		s.logger.Info("candidate lost conflict",
			zap.String("blocked_by", result.BlockedBy.ID.String()),
			zap.Int("score", v.Score),
			zap.Float64("conviction", result.BlockedBy.ConvictionScore))
	}

	return result, nil
}

// BatchUpsert applies accepted verdicts sequentially in received order after
// capping the batch. A storage failure stops the batch; earlier candidates stay committed.
func (s *BeliefService) BatchUpsert(ctx context.Context, verdicts []domain.ValidationVerdict, originTurnID uuid.UUID) (*BatchResult, error) {
	if len(verdicts) == 0 {
		return nil, ErrEmptyBatch
	}
	if originTurnID == uuid.Nil {
		return nil, ErrOriginTurnMissing
	}

	out := &BatchResult{}
	for _, v := range verdicts {
		if !v.Accepted {
			out.Rejected = append(out.Rejected, v)
		}
	}
	kept, dropped := CapBatch(verdicts, s.batchLimit)
	out.Dropped = dropped
	if len(dropped) > 0 {
		s.logger.Info("batch capped",
			zap.Int("accepted", len(kept)+len(dropped)),
			zap.Int("limit", s.batchLimit))
	}

	for _, v := range kept {
		res, err := s.UpsertBelief(ctx, v, originTurnID)
		if err != nil {
			return out, err
		}
		switch res.Outcome {
		case OutcomeCreated:
			out.Created = append(out.Created, *res.Belief)
		case OutcomeUpdated:
			out.Updated = append(out.Updated, *res.Belief)
		case OutcomeRejectedConflict:
			out.Conflicted = append(out.Conflicted, *res)
		}
	}
	return out, nil
}

// ProcessCandidates validates raw candidates against transcript and upserts the survivors.
// Evidence is only checked for grounding when a transcript is present, so persisting
// without one is refused.
func (s *BeliefService) ProcessCandidates(ctx context.Context, cs []domain.ClaimCandidate, transcript string, originTurnID uuid.UUID) (*BatchResult, error) {
	if len(cs) == 0 {
		return nil, ErrEmptyBatch
	}
	if strings.TrimSpace(transcript) == "" {
		return nil, ErrTranscriptMissing
	}
	return s.BatchUpsert(ctx, s.ValidateBatch(cs, transcript), originTurnID)
}

// EmbedBelief requests a vector for b, stores it and records the reference.
func (s *BeliefService) EmbedBelief(ctx context.Context, b *domain.Belief) error {
	if s.bridge == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, embedTimeout)
	defer cancel()

	res, err := s.bridge.Embed(ctx, b.ID, b.Statement, string(b.Type))
	if err != nil {
		return err
	}
	metadata := map[string]string{
		"kind":            "belief",
		"belief_type":     string(b.Type),
		"subject":         b.Subject,
		"text":            b.Statement,
		"norm":            fmt.Sprintf("%.4f", res.NormMetric),
		"hierarchy_level": fmt.Sprintf("%d", res.HierarchyLevel),
	}
	if err := s.bridge.Store(ctx, res.VectorID, res.Vector, metadata); err != nil {
		return err
	}
	if err := s.beliefStore.SetVectorRef(ctx, b.ID, res.VectorID); err != nil {
		return fmt.Errorf("set vector ref: %w", err)
	}
	b.VectorRef = &res.VectorID
	return nil
}

func (s *BeliefService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Belief, error) {
	b, err := s.beliefStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBeliefNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *BeliefService) ListActive(ctx context.Context, subject string) ([]domain.Belief, error) {
	return s.beliefStore.ListActiveBySubject(ctx, domain.SubjectKey(subject))
}

// History returns a belief with its causality edges, oldest first.
func (s *BeliefService) History(ctx context.Context, id uuid.UUID) (*domain.Belief, []domain.CausalityEdge, error) {
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	edges, err := s.beliefStore.Edges(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return b, edges, nil
}
