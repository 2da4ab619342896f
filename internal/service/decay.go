package service

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/nia-core/beliefgate/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultDecayInterval = 1 * time.Hour

	// DeactivateThreshold is the strength below which a memory stops being active.
	DeactivateThreshold = 0.05
)

type DecayResult struct {
	MemoriesDecayed     int `json:"memories_decayed"`
	MemoriesDeactivated int `json:"memories_deactivated"`
}

// DecayService weakens memories that are not accessed:
// strength ← strength · exp(−decayRate · days since the decay anchor).
type DecayService struct {
	memoryStore domain.MemoryStore
	logger      *zap.Logger

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewDecayService(ms domain.MemoryStore, logger *zap.Logger) *DecayService {
	return &DecayService{
		memoryStore: ms,
		logger:      logger,
		interval:    defaultDecayInterval,
		stopCh:      make(chan struct{}),
	}
}

func (s *DecayService) SetInterval(d time.Duration) {
	if d > 0 {
		s.interval = d
	}
}

func (s *DecayService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("decay worker started", zap.Duration("interval", s.interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				s.RunDecay(ctx)
				cancel()
			case <-s.stopCh:
				s.logger.Info("decay worker stopped")
				return
			}
		}
	}()
}

func (s *DecayService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *DecayService) RunDecay(ctx context.Context) *DecayResult {
	result := &DecayResult{}
	now := timeNow()

	memories, err := s.memoryStore.ListActiveForDecay(ctx)
	if err != nil {
		s.logger.Error("failed to list memories for decay", zap.Error(err))
		return result
	}

	for _, mem := range memories {
		days := now.Sub(mem.DecayAnchor()).Hours() / 24
		if days <= 0 {
			continue
		}

		decayRate := mem.DecayRate
		if decayRate == 0 {
			decayRate = domain.DefaultDecayRate
		}
		strength := mem.Strength * math.Exp(-decayRate*days)

		if strength < DeactivateThreshold {
			if err := s.memoryStore.UpdateStrength(ctx, mem.ID, strength, false); err != nil {
				s.logger.Warn("failed to deactivate memory", zap.Error(err))
			} else {
				result.MemoriesDeactivated++
			}
		} else if math.Abs(strength-mem.Strength) > 0.001 {
			if err := s.memoryStore.UpdateStrength(ctx, mem.ID, strength, true); err != nil {
				s.logger.Warn("failed to update memory strength", zap.Error(err))
			} else {
				result.MemoriesDecayed++
			}
		}
	}

	if result.MemoriesDecayed > 0 || result.MemoriesDeactivated > 0 {
		s.logger.Info("decay complete",
			zap.Int("memories_decayed", result.MemoriesDecayed),
			zap.Int("memories_deactivated", result.MemoriesDeactivated))
	}
	return result
}
