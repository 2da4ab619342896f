package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// BeliefTx is the store as seen from inside one atomic unit of work. Everything
// done through it commits or rolls back together.
type BeliefTx interface {
	ListActiveBySubject(ctx context.Context, subject string) ([]Belief, error)
	Insert(ctx context.Context, b *Belief) error
	Reinforce(ctx context.Context, r Reinforcement) error
	Retire(ctx context.Context, id uuid.UUID, supersededBy uuid.UUID, note string, at time.Time) error
	AppendEdge(ctx context.Context, e *CausalityEdge) error
}

// Reinforcement is the in-place mutation applied to a belief on a similarity match.
type Reinforcement struct {
	BeliefID        uuid.UUID
	Conviction      float64
	EvidenceCount   int
	TimesReinforced int
	Trend           ConfidenceTrend
	At              time.Time
}

type BeliefStore interface {
	Atomically(ctx context.Context, fn func(tx BeliefTx) error) error
	GetByID(ctx context.Context, id uuid.UUID) (*Belief, error)
	ListActiveBySubject(ctx context.Context, subject string) ([]Belief, error)
	Edges(ctx context.Context, beliefID uuid.UUID) ([]CausalityEdge, error)
	SetVectorRef(ctx context.Context, id uuid.UUID, ref string) error
	ListMissingVectors(ctx context.Context, limit int) ([]Belief, error)
}

type MemoryStore interface {
	Create(ctx context.Context, m *MemoryRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*MemoryRecord, error)
	ListActiveByAbout(ctx context.Context, about string) ([]MemoryRecord, error)
	Reinforce(ctx context.Context, id uuid.UUID, strength float64) error
	// Supersede closes an active record in favour of another.
	Supersede(ctx context.Context, oldID, newID uuid.UUID) error
	// Correct inserts replacement and supersedes the record it replaces in one transaction.
	Correct(ctx context.Context, oldID uuid.UUID, replacement *MemoryRecord) error
	SetVectorRef(ctx context.Context, id uuid.UUID, ref string) error
	ListMissingVectors(ctx context.Context, limit int) ([]MemoryRecord, error)
	ListActiveForDecay(ctx context.Context) ([]MemoryRecord, error)
	UpdateStrength(ctx context.Context, id uuid.UUID, strength float64, active bool) error
}

// EmbedResult is what the embedding service returns for one text.
type EmbedResult struct {
	VectorID       string    `json:"vector_id"`
	Vector         []float32 `json:"vector"`
	NormMetric     float64   `json:"norm_metric"`
	HierarchyLevel int       `json:"hierarchy_level"`
}

// EmbeddingBridge is the optional external vector service. Both calls may fail;
// callers degrade to keyword-only retrieval.
type EmbeddingBridge interface {
	Embed(ctx context.Context, id uuid.UUID, text string, kind string) (*EmbedResult, error)
	Store(ctx context.Context, vectorID string, vector []float32, metadata map[string]string) error
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Turn is one dialogue exchange handed to extraction.
type Turn struct {
	ID       uuid.UUID `json:"id"`
	Messages []Message `json:"messages"`
}

// Transcript joins every message of the turn.
func (t Turn) Transcript() string {
	var out []byte
	for i, m := range t.Messages {
		if i > 0 {
			out = append(out, '\n')
		}
		out = append(out, m.Content...)
	}
	return string(out)
}

// UserText joins the user-authored messages of the turn.
func (t Turn) UserText() string {
	var out []byte
	for _, m := range t.Messages {
		if m.Role != string(SourceUser) {
			continue
		}
		if len(out) > 0 {
			out = append(out, '\n')
		}
		out = append(out, m.Content...)
	}
	return string(out)
}

type Extraction struct {
	Beliefs  []ClaimCandidate  `json:"beliefs"`
	Memories []MemoryCandidate `json:"memories"`
}

// ErrUnparseableExtraction marks extractor output that could not be decoded.
// Callers treat it as zero candidates.
var ErrUnparseableExtraction = errors.New("extraction output could not be parsed")

// Extractor proposes candidates from a dialogue turn.
type Extractor interface {
	Extract(ctx context.Context, turn Turn) (*Extraction, error)
}
