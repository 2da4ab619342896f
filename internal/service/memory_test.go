package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nia-core/beliefgate/internal/domain"
	"github.com/nia-core/beliefgate/internal/rules"
	"github.com/nia-core/beliefgate/internal/similarity"
	"github.com/nia-core/beliefgate/internal/store"
	"github.com/nia-core/beliefgate/internal/validator"
	"go.uber.org/zap"
)

// mockMemoryStore implements domain.MemoryStore for testing.
type mockMemoryStore struct {
	memories map[uuid.UUID]*domain.MemoryRecord
	updates  map[uuid.UUID]float64
}

func newMockMemoryStore() *mockMemoryStore {
	return &mockMemoryStore{
		memories: make(map[uuid.UUID]*domain.MemoryRecord),
		updates:  make(map[uuid.UUID]float64),
	}
}

func (m *mockMemoryStore) Create(ctx context.Context, mem *domain.MemoryRecord) error {
	mem.ID = uuid.New()
	mem.IsActive = true
	if mem.CommittedAt.IsZero() {
		mem.CommittedAt = time.Now()
	}
	m.memories[mem.ID] = mem
	return nil
}

func (m *mockMemoryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.MemoryRecord, error) {
	mem, ok := m.memories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *mem
	return &cp, nil
}

func (m *mockMemoryStore) ListActiveByAbout(ctx context.Context, about string) ([]domain.MemoryRecord, error) {
	var out []domain.MemoryRecord
	for _, mem := range m.memories {
		if mem.IsActive && mem.About == about {
			out = append(out, *mem)
		}
	}
	return out, nil
}

func (m *mockMemoryStore) Reinforce(ctx context.Context, id uuid.UUID, strength float64) error {
	mem, ok := m.memories[id]
	if !ok {
		return store.ErrNotFound
	}
	now := time.Now()
	mem.Strength = strength
	mem.AccessCount++
	mem.LastAccessedAt = &now
	return nil
}

func (m *mockMemoryStore) Supersede(ctx context.Context, oldID, newID uuid.UUID) error {
	mem, ok := m.memories[oldID]
	if !ok || !mem.IsActive {
		return store.ErrNotFound
	}
	mem.IsActive = false
	mem.SupersededBy = &newID
	return nil
}

func (m *mockMemoryStore) Correct(ctx context.Context, oldID uuid.UUID, replacement *domain.MemoryRecord) error {
	old, ok := m.memories[oldID]
	if !ok || !old.IsActive {
		return store.ErrNotFound
	}
	replacement.CorrectionCount = old.CorrectionCount + 1
	if err := m.Create(ctx, replacement); err != nil {
		return err
	}
	return m.Supersede(ctx, oldID, replacement.ID)
}

func (m *mockMemoryStore) SetVectorRef(ctx context.Context, id uuid.UUID, ref string) error {
	mem, ok := m.memories[id]
	if !ok {
		return store.ErrNotFound
	}
	mem.VectorRef = &ref
	return nil
}

func (m *mockMemoryStore) ListMissingVectors(ctx context.Context, limit int) ([]domain.MemoryRecord, error) {
	var out []domain.MemoryRecord
	for _, mem := range m.memories {
		if mem.IsActive && mem.VectorRef == nil && len(out) < limit {
			out = append(out, *mem)
		}
	}
	return out, nil
}

func (m *mockMemoryStore) ListActiveForDecay(ctx context.Context) ([]domain.MemoryRecord, error) {
	var out []domain.MemoryRecord
	for _, mem := range m.memories {
		if mem.IsActive {
			out = append(out, *mem)
		}
	}
	return out, nil
}

func (m *mockMemoryStore) UpdateStrength(ctx context.Context, id uuid.UUID, strength float64, active bool) error {
	mem, ok := m.memories[id]
	if !ok {
		return store.ErrNotFound
	}
	now := timeNow()
	mem.Strength = strength
	mem.IsActive = active
	mem.LastDecayedAt = &now
	m.updates[id] = strength
	return nil
}

func newTestMemoryService(ms domain.MemoryStore) *MemoryService {
	rs := rules.MustDefault()
	return NewMemoryService(ms, validator.NewMemoryValidator(rs), similarity.NewMatcher(rs), zap.NewNop())
}

const portlandMessage = "Big news, I moved to Portland last spring for a new job and I love it"

func portlandCandidate() domain.MemoryCandidate {
	return domain.MemoryCandidate{
		Statement:   "User moved to Portland last spring for a new job",
		SourceQuote: "I moved to Portland last spring for a new job",
		FactType:    domain.MemoryTypeEvent,
		TemporalTag: domain.BucketPast,
		Importance:  0.8,
	}
}

func TestMemoryService_CommitCreates(t *testing.T) {
	ms := newMockMemoryStore()
	bridge := newMockBridge()
	svc := newTestMemoryService(ms)
	svc.SetEmbeddingBridge(bridge)
	turnID := uuid.New()

	res, err := svc.Commit(context.Background(), portlandCandidate(), portlandMessage, &turnID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != CommitCreated {
		t.Fatalf("Outcome = %s, want created (reasons %v)", res.Outcome, res.Verdict.Reasons)
	}
	mem := res.Memory
	if mem.Strength != 0.8 {
		t.Errorf("Strength = %v, want 0.8", mem.Strength)
	}
	if mem.Type != domain.MemoryTypeEvent || mem.TemporalBucket != domain.BucketPast {
		t.Errorf("type/bucket = %s/%s", mem.Type, mem.TemporalBucket)
	}
	if mem.About != "user" {
		t.Errorf("About = %q, want user", mem.About)
	}
	if mem.SourceTurnID == nil || *mem.SourceTurnID != turnID {
		t.Errorf("SourceTurnID not recorded")
	}
	if mem.DecayRate != domain.DefaultDecayRate {
		t.Errorf("DecayRate = %v", mem.DecayRate)
	}
	if mem.VectorRef == nil || *mem.VectorRef != "memory:"+mem.ID.String() {
		t.Errorf("VectorRef = %v", mem.VectorRef)
	}
	if got := bridge.stored["memory:"+mem.ID.String()]["kind"]; got != "memory" {
		t.Errorf("stored kind = %q", got)
	}
}

func TestMemoryService_CommitReinforces(t *testing.T) {
	ms := newMockMemoryStore()
	svc := newTestMemoryService(ms)
	ctx := context.Background()

	first, err := svc.Commit(ctx, portlandCandidate(), portlandMessage, nil)
	if err != nil || first.Outcome != CommitCreated {
		t.Fatalf("first commit: %v %v", first, err)
	}

	c := portlandCandidate()
	c.Importance = 0.7
	second, err := svc.Commit(ctx, c, portlandMessage, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Outcome != CommitReinforced {
		t.Fatalf("Outcome = %s, want reinforced", second.Outcome)
	}
	if second.Memory.ID != first.Memory.ID {
		t.Errorf("reinforced a different record")
	}
	if got := ms.memories[first.Memory.ID].Strength; got < 0.899 || got > 0.901 {
		t.Errorf("Strength = %v, want 0.9", got)
	}
	if ms.memories[first.Memory.ID].AccessCount != 1 {
		t.Errorf("AccessCount = %d, want 1", ms.memories[first.Memory.ID].AccessCount)
	}
	if len(ms.memories) != 1 {
		t.Errorf("expected a single record, got %d", len(ms.memories))
	}

	// Strength never exceeds the ceiling.
	for i := 0; i < 3; i++ {
		if _, err := svc.Commit(ctx, portlandCandidate(), portlandMessage, nil); err != nil {
			t.Fatal(err)
		}
	}
	if got := ms.memories[first.Memory.ID].Strength; got != MaxStrength {
		t.Errorf("Strength = %v, want %v", got, MaxStrength)
	}
}

func TestMemoryService_CommitRejected(t *testing.T) {
	ms := newMockMemoryStore()
	svc := newTestMemoryService(ms)

	c := portlandCandidate()
	c.SourceQuote = ""
	res, err := svc.Commit(context.Background(), c, portlandMessage, nil)
	if err != nil {
		t.Fatalf("rejection must not be an error: %v", err)
	}
	if res.Outcome != CommitRejected || res.Memory != nil {
		t.Errorf("Outcome = %s, Memory = %v", res.Outcome, res.Memory)
	}
	if len(res.Verdict.Reasons) == 0 {
		t.Error("expected rejection reasons")
	}
	if len(ms.memories) != 0 {
		t.Error("rejected candidate was stored")
	}
}

func TestMemoryService_CommitDefaultsTypeAndBucket(t *testing.T) {
	ms := newMockMemoryStore()
	svc := newTestMemoryService(ms)

	c := portlandCandidate()
	c.FactType = "hobby"
	c.TemporalTag = "someday"
	res, err := svc.Commit(context.Background(), c, portlandMessage, nil)
	if err != nil || res.Outcome != CommitCreated {
		t.Fatalf("commit: %v %v", res, err)
	}
	if res.Memory.Type != domain.MemoryTypeFact {
		t.Errorf("Type = %s, want fact", res.Memory.Type)
	}
	if res.Memory.TemporalBucket != domain.BucketRecent {
		t.Errorf("TemporalBucket = %s, want recent", res.Memory.TemporalBucket)
	}
}

func TestMemoryService_Correct(t *testing.T) {
	ms := newMockMemoryStore()
	svc := newTestMemoryService(ms)
	ctx := context.Background()

	res, err := svc.Commit(ctx, portlandCandidate(), portlandMessage, nil)
	if err != nil {
		t.Fatal(err)
	}
	oldID := res.Memory.ID

	replacement, err := svc.Correct(ctx, oldID, "  User moved to Seattle last spring for a new job ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if replacement.Statement != "User moved to Seattle last spring for a new job" {
		t.Errorf("Statement = %q", replacement.Statement)
	}
	if replacement.CorrectionCount != 1 {
		t.Errorf("CorrectionCount = %d, want 1", replacement.CorrectionCount)
	}
	if replacement.About != "user" || replacement.Type != domain.MemoryTypeEvent {
		t.Errorf("replacement lost about/type: %+v", replacement)
	}

	old := ms.memories[oldID]
	if old.IsActive {
		t.Error("old record still active")
	}
	if old.SupersededBy == nil || *old.SupersededBy != replacement.ID {
		t.Error("old record not linked to replacement")
	}

	if _, err := svc.Correct(ctx, oldID, "anything"); err != ErrMemoryNotFound {
		t.Errorf("second correction: err = %v, want ErrMemoryNotFound", err)
	}
	if _, err := svc.Correct(ctx, replacement.ID, "   "); err != ErrMemoryContentEmpty {
		t.Errorf("empty correction: err = %v, want ErrMemoryContentEmpty", err)
	}
}

func TestMemoryService_Supersede(t *testing.T) {
	ms := newMockMemoryStore()
	svc := newTestMemoryService(ms)
	ctx := context.Background()

	a := &domain.MemoryRecord{Statement: "User lives in Portland", About: "user", Strength: 0.5}
	b := &domain.MemoryRecord{Statement: "User lives in Seattle", About: "user", Strength: 0.6}
	_ = ms.Create(ctx, a)
	_ = ms.Create(ctx, b)

	if err := svc.Supersede(ctx, a.ID, uuid.New()); err != ErrMemoryNotFound {
		t.Errorf("unknown replacement: err = %v", err)
	}
	if err := svc.Supersede(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ms.memories[a.ID].IsActive {
		t.Error("superseded record still active")
	}

	active, _ := svc.ListActive(ctx, "user")
	if len(active) != 1 || active[0].ID != b.ID {
		t.Errorf("ListActive = %v", active)
	}
}
