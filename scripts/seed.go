// Seed script for loading a demo conversation into beliefgate.
// Run with: go run ./scripts/seed.go
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/nia-core/beliefgate/internal/config"
	"github.com/nia-core/beliefgate/internal/domain"
	"github.com/nia-core/beliefgate/internal/rules"
	"github.com/nia-core/beliefgate/internal/service"
	"github.com/nia-core/beliefgate/internal/similarity"
	"github.com/nia-core/beliefgate/internal/store"
	"github.com/nia-core/beliefgate/internal/validator"
	"go.uber.org/zap"
)

const transcript = `user: Honestly I value honesty in my relationships above everything else, even when the truth is uncomfortable.
assistant: That sounds like something you have thought about for a long time.
user: It is. I believe people deserve to hear the truth from the ones closest to them.
user: By the way, I moved to Portland last spring and I work as a nurse at the children's hospital.`

func conf(v float64) *float64 { return &v }

func main() {
	if err := config.Load(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	pool, err := store.Connect(ctx, config.DatabaseURL())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := store.Migrate(ctx, pool); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}
	fmt.Println("Connected to database")

	rs, err := rules.Load(config.RulesPath())
	if err != nil {
		log.Fatalf("Failed to load rules: %v", err)
	}
	matcher := similarity.NewMatcher(rs)
	logger := zap.NewNop()

	beliefs := service.NewBeliefService(store.NewBeliefStore(pool), validator.NewBeliefValidator(rs), matcher, logger)
	memories := service.NewMemoryService(store.NewMemoryStore(pool), validator.NewMemoryValidator(rs), matcher, logger)

	turnID := uuid.New()
	candidates := []domain.ClaimCandidate{
		{
			Subject:    "honesty",
			Statement:  "I value honesty in my relationships above everything else",
			Confidence: conf(0.9),
			ClaimType:  domain.ClaimCoreValue,
			TimeScope:  domain.ScopeLongTerm,
			Evidence: []domain.EvidenceQuote{
				{Source: domain.SourceUser, Quote: "I value honesty in my relationships above everything else"},
				{Source: domain.SourceUser, Quote: "people deserve to hear the truth from the ones closest to them"},
			},
		},
		{
			Subject:    "weather",
			Statement:  "It is raining today",
			Confidence: conf(0.8),
			ClaimType:  domain.ClaimObservation,
		},
	}

	res, err := beliefs.ProcessCandidates(ctx, candidates, transcript, turnID)
	if err != nil {
		log.Fatalf("Failed to seed beliefs: %v", err)
	}
	for _, b := range res.Created {
		fmt.Printf("Created belief [%s] conviction=%.0f: %s\n", b.Subject, b.ConvictionScore, truncate(b.Statement, 50))
	}
	for _, b := range res.Updated {
		fmt.Printf("Reinforced belief [%s] conviction=%.0f: %s\n", b.Subject, b.ConvictionScore, truncate(b.Statement, 50))
	}
	for _, v := range res.Rejected {
		fmt.Printf("Rejected candidate [%s]: %v\n", v.Candidate.Subject, v.Reasons)
	}

	userText := "By the way, I moved to Portland last spring and I work as a nurse at the children's hospital."
	for _, c := range []domain.MemoryCandidate{
		{Statement: "I moved to Portland last spring", SourceQuote: "I moved to Portland last spring", FactType: domain.MemoryTypeFact, Importance: 0.7},
		{Statement: "I work as a nurse at the children's hospital", SourceQuote: "I work as a nurse at the children's hospital", FactType: domain.MemoryTypeFact, Importance: 0.8},
	} {
		cr, err := memories.Commit(ctx, c, userText, &turnID)
		if err != nil {
			log.Printf("Warning: Failed to commit memory: %v", err)
			continue
		}
		fmt.Printf("Memory %s: %s\n", cr.Outcome, truncate(c.Statement, 50))
	}

	fmt.Println("\n=== Seed Complete ===")
	fmt.Println("\nTo inspect the seeded beliefs, use:")
	fmt.Printf("curl -H 'Authorization: Bearer $BELIEFGATE_API_KEY' 'http://localhost%s/v1/beliefs?subject=honesty'\n", config.ServerAddr())
	fmt.Println("\nVectors are filled in by the backfill worker once the server is running.")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
