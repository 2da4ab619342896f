package embedding

import (
	"fmt"
)

// Provider constants
const (
	ProviderHTTP = "http"
	ProviderMock = "mock"
	ProviderNone = "none"
)

// Index constants
const (
	IndexPgvector = "pgvector"
	IndexChromem  = "chromem"
)

// NewEmbedder creates an embedder for the provider name. ProviderNone returns
// nil, which disables embedding.
func NewEmbedder(provider, beliefURL, memoryURL string) (Embedder, error) {
	switch provider {
	case ProviderHTTP:
		if beliefURL == "" || memoryURL == "" {
			return nil, fmt.Errorf("BELIEF_EMBEDDER_URL and MEMORY_EMBEDDER_URL are required for the http embedding provider")
		}
		return NewHTTPEmbedder(beliefURL, memoryURL), nil

	case ProviderMock:
		return NewHashEmbedder(), nil

	case ProviderNone, "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (valid options: http, mock, none)", provider)
	}
}
