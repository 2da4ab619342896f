package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nia-core/beliefgate/internal/domain"
)

const beliefColumns = `id, statement, belief_type, conviction_score, evidence_count, subject, valid_from, valid_to,
	formation_reasoning, last_reinforced, times_reinforced, confidence_trend, vector_ref, superseded_by, created_at`

type BeliefStore struct {
	db *pgxpool.Pool
}

func NewBeliefStore(db *pgxpool.Pool) *BeliefStore {
	return &BeliefStore{db: db}
}

// Atomically runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func (s *BeliefStore) Atomically(ctx context.Context, fn func(tx domain.BeliefTx) error) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(&beliefTx{q: tx})
	})
}

func (s *BeliefStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Belief, error) {
	b, err := scanBelief(s.db.QueryRow(ctx,
		`SELECT `+beliefColumns+` FROM beliefs WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return b, nil
}

func (s *BeliefStore) ListActiveBySubject(ctx context.Context, subject string) ([]domain.Belief, error) {
	return listActiveBySubject(ctx, s.db, subject)
}

func (s *BeliefStore) Edges(ctx context.Context, beliefID uuid.UUID) ([]domain.CausalityEdge, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, belief_id, turn_id, edge_type, created_at
		 FROM causality_edges WHERE belief_id = $1
		 ORDER BY created_at ASC`,
		beliefID,
	)
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}
	defer rows.Close()

	var edges []domain.CausalityEdge
	for rows.Next() {
		var e domain.CausalityEdge
		if err := rows.Scan(&e.ID, &e.BeliefID, &e.TurnID, &e.Type, &e.CreatedAt); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

func (s *BeliefStore) SetVectorRef(ctx context.Context, id uuid.UUID, ref string) error {
	tag, err := s.db.Exec(ctx, `UPDATE beliefs SET vector_ref = $2 WHERE id = $1`, id, ref)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListMissingVectors returns active beliefs that were never embedded, oldest first.
func (s *BeliefStore) ListMissingVectors(ctx context.Context, limit int) ([]domain.Belief, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+beliefColumns+` FROM beliefs
		 WHERE valid_to IS NULL AND vector_ref IS NULL
		 ORDER BY created_at ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list missing vectors: %w", err)
	}
	return collectBeliefs(rows)
}

// beliefTx is the transactional view handed to Atomically callbacks.
type beliefTx struct {
	q querier
}

// ListActiveBySubject takes a transaction-scoped advisory lock on the subject
// before reading, so two merges for one subject serialize.
func (t *beliefTx) ListActiveBySubject(ctx context.Context, subject string) ([]domain.Belief, error) {
	if _, err := t.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, subject); err != nil {
		return nil, fmt.Errorf("lock subject: %w", err)
	}
	return listActiveBySubject(ctx, t.q, subject)
}

func (t *beliefTx) Insert(ctx context.Context, b *domain.Belief) error {
	if b.EvidenceCount < 1 {
		b.EvidenceCount = 1
	}
	if b.ConfidenceTrend == "" {
		b.ConfidenceTrend = domain.TrendStable
	}
	return t.q.QueryRow(ctx,
		`INSERT INTO beliefs (statement, belief_type, conviction_score, evidence_count, subject, valid_from,
		                      formation_reasoning, times_reinforced, confidence_trend)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at`,
		b.Statement, b.Type, b.ConvictionScore, b.EvidenceCount, b.Subject, b.ValidFrom,
		b.FormationReasoning, b.TimesReinforced, b.ConfidenceTrend,
	).Scan(&b.ID, &b.CreatedAt)
}

func (t *beliefTx) Reinforce(ctx context.Context, r domain.Reinforcement) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE beliefs
		 SET conviction_score = $2, evidence_count = $3, times_reinforced = $4,
		     confidence_trend = $5, last_reinforced = $6
		 WHERE id = $1 AND valid_to IS NULL`,
		r.BeliefID, r.Conviction, r.EvidenceCount, r.TimesReinforced, r.Trend, r.At,
	)
	if err != nil {
		return fmt.Errorf("reinforce belief: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Retire closes an active belief and appends note to its formation reasoning.
func (t *beliefTx) Retire(ctx context.Context, id uuid.UUID, supersededBy uuid.UUID, note string, at time.Time) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE beliefs
		 SET valid_to = $2, superseded_by = $3,
		     formation_reasoning = CASE WHEN formation_reasoning = '' THEN $4
		                                ELSE formation_reasoning || E'\n' || $4 END
		 WHERE id = $1 AND valid_to IS NULL`,
		id, at, supersededBy, note,
	)
	if err != nil {
		return fmt.Errorf("retire belief: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *beliefTx) AppendEdge(ctx context.Context, e *domain.CausalityEdge) error {
	return t.q.QueryRow(ctx,
		`INSERT INTO causality_edges (belief_id, turn_id, edge_type)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		e.BeliefID, e.TurnID, e.Type,
	).Scan(&e.ID, &e.CreatedAt)
}

func listActiveBySubject(ctx context.Context, q querier, subject string) ([]domain.Belief, error) {
	rows, err := q.Query(ctx,
		`SELECT `+beliefColumns+` FROM beliefs
		 WHERE lower(subject) = lower($1) AND valid_to IS NULL
		 ORDER BY conviction_score DESC, created_at ASC`,
		subject,
	)
	if err != nil {
		return nil, fmt.Errorf("list active beliefs: %w", err)
	}
	return collectBeliefs(rows)
}

func collectBeliefs(rows pgx.Rows) ([]domain.Belief, error) {
	defer rows.Close()
	var out []domain.Belief
	for rows.Next() {
		b, err := scanBelief(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func scanBelief(row pgx.Row) (*domain.Belief, error) {
	b := &domain.Belief{}
	err := row.Scan(&b.ID, &b.Statement, &b.Type, &b.ConvictionScore, &b.EvidenceCount, &b.Subject,
		&b.ValidFrom, &b.ValidTo, &b.FormationReasoning, &b.LastReinforced, &b.TimesReinforced,
		&b.ConfidenceTrend, &b.VectorRef, &b.SupersededBy, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}
