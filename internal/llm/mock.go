package llm

import (
	"context"
	"sync"

	"github.com/nia-core/beliefgate/internal/domain"
)

// MockExtractor is a configurable extractor for testing and offline runs.
// Set the response fields to control what Extract returns.
type MockExtractor struct {
	mu sync.Mutex

	ExtractResponse *domain.Extraction
	ExtractError    error

	// Call tracking for assertions
	ExtractCalls []domain.Turn
}

func NewMockExtractor() *MockExtractor {
	return &MockExtractor{
		ExtractResponse: &domain.Extraction{},
	}
}

func (c *MockExtractor) Extract(ctx context.Context, turn domain.Turn) (*domain.Extraction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ExtractCalls = append(c.ExtractCalls, turn)
	if c.ExtractError != nil {
		return nil, c.ExtractError
	}
	if c.ExtractResponse == nil {
		return &domain.Extraction{}, nil
	}
	out := *c.ExtractResponse
	return &out, nil
}

// Reset clears recorded calls.
func (c *MockExtractor) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ExtractCalls = nil
}
