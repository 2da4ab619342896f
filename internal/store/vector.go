package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// VectorStore keeps embeddings in a pgvector column alongside the relational rows.
type VectorStore struct {
	db *pgxpool.Pool
}

func NewVectorStore(db *pgxpool.Pool) *VectorStore {
	return &VectorStore{db: db}
}

// Upsert writes or replaces the vector stored under vectorID.
func (s *VectorStore) Upsert(ctx context.Context, vectorID string, vector []float32, metadata map[string]string) error {
	if metadata == nil {
		metadata = map[string]string{}
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO vectors (vector_id, kind, embedding, metadata)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (vector_id) DO UPDATE
		 SET kind = EXCLUDED.kind, embedding = EXCLUDED.embedding,
		     metadata = EXCLUDED.metadata, updated_at = NOW()`,
		vectorID, metadata["kind"], pgvector.NewVector(vector), metadata,
	)
	if err != nil {
		return fmt.Errorf("upsert vector: %w", err)
	}
	return nil
}

// Count returns the number of stored vectors of a kind; an empty kind counts all.
func (s *VectorStore) Count(ctx context.Context, kind string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM vectors WHERE $1 = '' OR kind = $1`, kind,
	).Scan(&n)
	return n, err
}
