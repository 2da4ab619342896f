package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HTTPEmbedder calls the local embedder services: a hyperbolic belief embedder
// and a sentence embedder for memories. Both expose POST /embed.
type HTTPEmbedder struct {
	beliefURL  string
	memoryURL  string
	httpClient *http.Client
}

func NewHTTPEmbedder(beliefURL, memoryURL string) *HTTPEmbedder {
	return &HTTPEmbedder{
		beliefURL:  strings.TrimRight(beliefURL, "/"),
		memoryURL:  strings.TrimRight(memoryURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type embedRequest struct {
	Text     string `json:"text"`
	Type     string `json:"type,omitempty"`
	BeliefID string `json:"belief_id,omitempty"`
}

type embedResponse struct {
	Embedding      []float32 `json:"embedding"`
	Dimensions     int       `json:"dimensions"`
	PoincareNorm   *float64  `json:"poincare_norm,omitempty"`
	HierarchyLevel int       `json:"hierarchy_level"`
	Error          string    `json:"error,omitempty"`
}

func (c *HTTPEmbedder) Embed(ctx context.Context, text, kind string, id uuid.UUID) (*Vector, error) {
	url := c.beliefURL + "/embed"
	payload := embedRequest{Text: text, Type: kind, BeliefID: id.String()}
	if kind == KindMemory {
		url = c.memoryURL + "/embed"
		payload = embedRequest{Text: text}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}

	var result embedResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("embedder returned status %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, fmt.Errorf("unmarshal embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || result.Error != "" {
		return nil, fmt.Errorf("embedder returned status %d: %s", resp.StatusCode, result.Error)
	}
	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("embedder returned no vector")
	}

	v := &Vector{Values: result.Embedding, HierarchyLevel: result.HierarchyLevel}
	if result.PoincareNorm != nil {
		v.NormMetric = *result.PoincareNorm
	} else {
		v.NormMetric = norm(result.Embedding)
	}
	return v, nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
