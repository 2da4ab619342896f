package service

import (
	"context"
	"sync"
	"time"

	"github.com/nia-core/beliefgate/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultBackfillInterval = 10 * time.Minute
	backfillBatchSize       = 50
)

type BackfillResult struct {
	BeliefsEmbedded  int `json:"beliefs_embedded"`
	MemoriesEmbedded int `json:"memories_embedded"`
	Failures         int `json:"failures"`
}

// BackfillService embeds active beliefs and memories that have no vector
// reference, typically because the embedder was down when they were written.
type BackfillService struct {
	beliefStore domain.BeliefStore
	memoryStore domain.MemoryStore
	beliefs     *BeliefService
	memories    *MemoryService
	logger      *zap.Logger

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewBackfillService(bst domain.BeliefStore, mst domain.MemoryStore, bs *BeliefService, ms *MemoryService, logger *zap.Logger) *BackfillService {
	return &BackfillService{
		beliefStore: bst,
		memoryStore: mst,
		beliefs:     bs,
		memories:    ms,
		logger:      logger,
		interval:    defaultBackfillInterval,
		stopCh:      make(chan struct{}),
	}
}

func (s *BackfillService) SetInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

func (s *BackfillService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("backfill worker started", zap.Duration("interval", s.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				s.RunBackfill(ctx)
				cancel()
			case <-s.stopCh:
				s.logger.Info("backfill worker stopped")
				return
			}
		}
	}()
}

func (s *BackfillService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

// RunBackfill embeds one batch of beliefs and one batch of memories.
func (s *BackfillService) RunBackfill(ctx context.Context) *BackfillResult {
	result := &BackfillResult{}

	beliefs, err := s.beliefStore.ListMissingVectors(ctx, backfillBatchSize)
	if err != nil {
		s.logger.Error("failed to list beliefs for backfill", zap.Error(err))
	}
	for i := range beliefs {
		if err := s.beliefs.EmbedBelief(ctx, &beliefs[i]); err != nil {
			s.logger.Warn("belief backfill failed",
				zap.String("belief_id", beliefs[i].ID.String()),
				zap.Error(err))
			result.Failures++
			continue
		}
		result.BeliefsEmbedded++
	}

	memories, err := s.memoryStore.ListMissingVectors(ctx, backfillBatchSize)
	if err != nil {
		s.logger.Error("failed to list memories for backfill", zap.Error(err))
	}
	for i := range memories {
		if err := s.memories.EmbedMemory(ctx, &memories[i]); err != nil {
			s.logger.Warn("memory backfill failed",
				zap.String("memory_id", memories[i].ID.String()),
				zap.Error(err))
			result.Failures++
			continue
		}
		result.MemoriesEmbedded++
	}

	if result.BeliefsEmbedded > 0 || result.MemoriesEmbedded > 0 || result.Failures > 0 {
		s.logger.Info("backfill complete",
			zap.Int("beliefs_embedded", result.BeliefsEmbedded),
			zap.Int("memories_embedded", result.MemoriesEmbedded),
			zap.Int("failures", result.Failures))
	}
	return result
}
