// Package embedding connects beliefs and memories to an external embedding
// service and a vector index. Every call here is best effort from the caller's
// point of view: failures are returned, never retried.
package embedding

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nia-core/beliefgate/internal/domain"
)

// KindMemory selects the memory embedder; any other kind is a belief type.
const KindMemory = "memory"

// Vector is a raw embedding with the metrics the embedder reports for it.
type Vector struct {
	Values         []float32
	NormMetric     float64
	HierarchyLevel int
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text, kind string, id uuid.UUID) (*Vector, error)
}

// VectorIndex stores vectors under stable ids.
type VectorIndex interface {
	Upsert(ctx context.Context, vectorID string, vector []float32, metadata map[string]string) error
	Count(ctx context.Context, kind string) (int, error)
}

// VectorID is the index key for a belief or memory.
func VectorID(kind string, id uuid.UUID) string {
	if kind == KindMemory {
		return "memory:" + id.String()
	}
	return "belief:" + id.String()
}

// Bridge pairs an Embedder with a VectorIndex.
type Bridge struct {
	embedder Embedder
	index    VectorIndex
}

var _ domain.EmbeddingBridge = (*Bridge)(nil)

func NewBridge(e Embedder, idx VectorIndex) *Bridge {
	return &Bridge{embedder: e, index: idx}
}

func (b *Bridge) Embed(ctx context.Context, id uuid.UUID, text string, kind string) (*domain.EmbedResult, error) {
	v, err := b.embedder.Embed(ctx, text, kind, id)
	if err != nil {
		return nil, fmt.Errorf("embed %s %s: %w", kind, id, err)
	}
	return &domain.EmbedResult{
		VectorID:       VectorID(kind, id),
		Vector:         v.Values,
		NormMetric:     v.NormMetric,
		HierarchyLevel: v.HierarchyLevel,
	}, nil
}

func (b *Bridge) Store(ctx context.Context, vectorID string, vector []float32, metadata map[string]string) error {
	if err := b.index.Upsert(ctx, vectorID, vector, metadata); err != nil {
		return fmt.Errorf("store vector %s: %w", vectorID, err)
	}
	return nil
}

// Count reports how many vectors of a kind the index holds.
func (b *Bridge) Count(ctx context.Context, kind string) (int, error) {
	return b.index.Count(ctx, kind)
}
