package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nia-core/beliefgate/internal/domain"
	"go.uber.org/zap"
)

func newTestBackfill(bridge domain.EmbeddingBridge) (*BackfillService, *mockBeliefStore, *mockMemoryStore) {
	bs := newMockBeliefStore()
	ms := newMockMemoryStore()
	beliefs := newTestBeliefService(bs)
	memories := newTestMemoryService(ms)
	beliefs.SetEmbeddingBridge(bridge)
	memories.SetEmbeddingBridge(bridge)
	return NewBackfillService(bs, ms, beliefs, memories, zap.NewNop()), bs, ms
}

func TestBackfill_EmbedsMissingVectors(t *testing.T) {
	bridge := newMockBridge()
	svc, bs, ms := newTestBackfill(bridge)
	ctx := context.Background()

	b := bs.seed(domain.Belief{Subject: "user", Statement: honesty, ConvictionScore: 80, Type: domain.BeliefValue})
	ref := "belief:already"
	bs.seed(domain.Belief{Subject: "user", Statement: "I prefer tea", VectorRef: &ref})
	mem := &domain.MemoryRecord{Statement: "User moved to Portland", About: "user", Strength: 0.8}
	_ = ms.Create(ctx, mem)

	result := svc.RunBackfill(ctx)

	if result.BeliefsEmbedded != 1 || result.MemoriesEmbedded != 1 || result.Failures != 0 {
		t.Fatalf("result = %+v", result)
	}
	if got := bs.beliefs[b.ID].VectorRef; got == nil || *got != "belief:"+b.ID.String() {
		t.Errorf("belief VectorRef = %v", got)
	}
	if got := ms.memories[mem.ID].VectorRef; got == nil || *got != "memory:"+mem.ID.String() {
		t.Errorf("memory VectorRef = %v", got)
	}

	again := svc.RunBackfill(ctx)
	if again.BeliefsEmbedded != 0 || again.MemoriesEmbedded != 0 {
		t.Errorf("second run re-embedded: %+v", again)
	}
}

func TestBackfill_CountsFailures(t *testing.T) {
	bridge := newMockBridge()
	bridge.embedErr = errors.New("embedding service down")
	svc, bs, _ := newTestBackfill(bridge)

	b := bs.seed(domain.Belief{ID: uuid.New(), Subject: "user", Statement: honesty, ConvictionScore: 80})

	result := svc.RunBackfill(context.Background())
	if result.Failures != 1 || result.BeliefsEmbedded != 0 {
		t.Errorf("result = %+v", result)
	}
	if bs.beliefs[b.ID].VectorRef != nil {
		t.Error("failed embedding must leave VectorRef unset")
	}
}

func TestBackfill_StartStop(t *testing.T) {
	svc, _, _ := newTestBackfill(newMockBridge())
	svc.SetInterval(10 * time.Millisecond)
	svc.Start()
	time.Sleep(30 * time.Millisecond)
	svc.Stop()
}
