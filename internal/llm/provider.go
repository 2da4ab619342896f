package llm

import (
	"fmt"

	"github.com/nia-core/beliefgate/internal/domain"
)

// Provider constants
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// NewExtractor creates an extractor based on the provider name.
// Returns an error if the provider is unknown or the API key is empty (except for mock).
func NewExtractor(provider, apiKey, model, baseURL string) (domain.Extractor, error) {
	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI provider")
		}
		return NewOpenAIExtractor(apiKey, model, baseURL), nil

	case ProviderAnthropic:
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for Anthropic provider")
		}
		return NewAnthropicExtractor(apiKey, model, baseURL), nil

	case ProviderMock:
		return NewMockExtractor(), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (valid options: openai, anthropic, mock)", provider)
	}
}
