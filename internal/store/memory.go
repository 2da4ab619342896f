package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nia-core/beliefgate/internal/domain"
)

const memoryColumns = `id, statement, memory_type, about, committed_at, temporal_bucket, source_turn_id, strength,
	decay_rate, access_count, correction_count, is_active, superseded_by, vector_ref, last_accessed_at, last_decayed_at`

type MemoryStore struct {
	db *pgxpool.Pool
}

func NewMemoryStore(db *pgxpool.Pool) *MemoryStore {
	return &MemoryStore{db: db}
}

func (s *MemoryStore) Create(ctx context.Context, m *domain.MemoryRecord) error {
	return insertMemory(ctx, s.db, m)
}

func insertMemory(ctx context.Context, q querier, m *domain.MemoryRecord) error {
	// Default decay rate
	if m.DecayRate == 0 {
		m.DecayRate = domain.DefaultDecayRate
	}
	if m.TemporalBucket == "" {
		m.TemporalBucket = domain.BucketRecent
	}
	m.IsActive = true

	return q.QueryRow(ctx,
		`INSERT INTO memories (statement, memory_type, about, temporal_bucket, source_turn_id, strength,
		                       decay_rate, correction_count, last_accessed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		 RETURNING id, committed_at, last_accessed_at`,
		m.Statement, m.Type, m.About, m.TemporalBucket, m.SourceTurnID, m.Strength,
		m.DecayRate, m.CorrectionCount,
	).Scan(&m.ID, &m.CommittedAt, &m.LastAccessedAt)
}

func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.MemoryRecord, error) {
	m, err := scanMemory(s.db.QueryRow(ctx,
		`SELECT `+memoryColumns+` FROM memories WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

func (s *MemoryStore) ListActiveByAbout(ctx context.Context, about string) ([]domain.MemoryRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+memoryColumns+` FROM memories
		 WHERE about = $1 AND is_active
		 ORDER BY committed_at DESC`,
		about,
	)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	return collectMemories(rows)
}

// Reinforce sets a new strength and counts an access.
func (s *MemoryStore) Reinforce(ctx context.Context, id uuid.UUID, strength float64) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE memories
		 SET strength = $2, access_count = access_count + 1, last_accessed_at = NOW()
		 WHERE id = $1 AND is_active`,
		id, strength,
	)
	if err != nil {
		return fmt.Errorf("reinforce memory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MemoryStore) Supersede(ctx context.Context, oldID, newID uuid.UUID) error {
	return supersedeMemory(ctx, s.db, oldID, newID)
}

func supersedeMemory(ctx context.Context, q querier, oldID, newID uuid.UUID) error {
	tag, err := q.Exec(ctx,
		`UPDATE memories SET is_active = FALSE, superseded_by = $2
		 WHERE id = $1 AND is_active`,
		oldID, newID,
	)
	if err != nil {
		return fmt.Errorf("supersede memory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Correct inserts replacement with the old record's correction count plus one
// and supersedes the old record.
func (s *MemoryStore) Correct(ctx context.Context, oldID uuid.UUID, replacement *domain.MemoryRecord) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var corrections int
		err := tx.QueryRow(ctx,
			`SELECT correction_count FROM memories WHERE id = $1 AND is_active FOR UPDATE`, oldID,
		).Scan(&corrections)
		if err != nil {
			return notFound(err)
		}
		replacement.CorrectionCount = corrections + 1
		if err := insertMemory(ctx, tx, replacement); err != nil {
			return fmt.Errorf("insert correction: %w", err)
		}
		return supersedeMemory(ctx, tx, oldID, replacement.ID)
	})
}

func (s *MemoryStore) SetVectorRef(ctx context.Context, id uuid.UUID, ref string) error {
	tag, err := s.db.Exec(ctx, `UPDATE memories SET vector_ref = $2 WHERE id = $1`, id, ref)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MemoryStore) ListMissingVectors(ctx context.Context, limit int) ([]domain.MemoryRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+memoryColumns+` FROM memories
		 WHERE is_active AND vector_ref IS NULL
		 ORDER BY committed_at ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list missing vectors: %w", err)
	}
	return collectMemories(rows)
}

func (s *MemoryStore) ListActiveForDecay(ctx context.Context) ([]domain.MemoryRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+memoryColumns+` FROM memories WHERE is_active`)
	if err != nil {
		return nil, fmt.Errorf("list memories for decay: %w", err)
	}
	return collectMemories(rows)
}

func (s *MemoryStore) UpdateStrength(ctx context.Context, id uuid.UUID, strength float64, active bool) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE memories SET strength = $2, is_active = $3, last_decayed_at = NOW() WHERE id = $1`,
		id, strength, active,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectMemories(rows pgx.Rows) ([]domain.MemoryRecord, error) {
	defer rows.Close()
	var out []domain.MemoryRecord
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func scanMemory(row pgx.Row) (*domain.MemoryRecord, error) {
	m := &domain.MemoryRecord{}
	err := row.Scan(&m.ID, &m.Statement, &m.Type, &m.About, &m.CommittedAt, &m.TemporalBucket,
		&m.SourceTurnID, &m.Strength, &m.DecayRate, &m.AccessCount, &m.CorrectionCount, &m.IsActive,
		&m.SupersededBy, &m.VectorRef, &m.LastAccessedAt, &m.LastDecayedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}
