package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
)

const (
	BeliefDimensions = 100
	MemoryDimensions = 384
)

// typeNorms places core belief types nearer the origin of the unit ball.
var typeNorms = map[string]float64{
	"identity":   0.2,
	"value":      0.4,
	"principle":  0.5,
	"preference": 0.6,
	"fact":       0.7,
	"factual":    0.7,
	"causal":     0.7,
}

const defaultTypeNorm = 0.5

// HashEmbedder derives a deterministic vector from the text alone. It stands in
// for the embedder services in tests and offline runs.
type HashEmbedder struct{}

func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{}
}

func (HashEmbedder) Embed(_ context.Context, text, kind string, _ uuid.UUID) (*Vector, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(kind))
	seed := h.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	dims, target := BeliefDimensions, defaultTypeNorm
	if kind == KindMemory {
		dims, target = MemoryDimensions, 1
	} else if n, ok := typeNorms[kind]; ok {
		target = n
	}

	raw := make([]float64, dims)
	var sum float64
	for i := range raw {
		raw[i] = rng.NormFloat64()
		sum += raw[i] * raw[i]
	}
	scale := target / math.Sqrt(sum)

	values := make([]float32, dims)
	for i, x := range raw {
		values[i] = float32(x * scale)
	}

	v := &Vector{Values: values, NormMetric: norm(values)}
	if kind != KindMemory {
		v.HierarchyLevel = int(math.Floor(target*10 + 1e-9))
	}
	return v, nil
}
