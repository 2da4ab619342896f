package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/nia-core/beliefgate/internal/domain"
)

const sampleExtraction = `{"beliefs":[{"subject":"user","statement":"I value honesty in my close relationships","confidence":0.8,"evidence":[{"source":"user","quote":"honesty matters most to me with close friends"}],"claim_type":"value","time_scope":"long_term"}],"memories":[{"statement":"Moved to Portland last spring","source_quote":"I moved to Portland last spring","fact_type":"event","temporal":"past","importance":0.7}]}`

func TestParseExtraction(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"plain", sampleExtraction},
		{"json fence", "```json\n" + sampleExtraction + "\n```"},
		{"bare fence", "```\n" + sampleExtraction + "\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExtraction(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got.Beliefs) != 1 || len(got.Memories) != 1 {
				t.Fatalf("expected 1 belief and 1 memory, got %d and %d", len(got.Beliefs), len(got.Memories))
			}
			b := got.Beliefs[0]
			if b.Confidence == nil || *b.Confidence != 0.8 {
				t.Errorf("expected confidence 0.8, got %v", b.Confidence)
			}
			if b.ClaimType != domain.ClaimValue {
				t.Errorf("expected claim type value, got %q", b.ClaimType)
			}
			if got.Memories[0].TemporalTag != "past" {
				t.Errorf("expected temporal tag past, got %q", got.Memories[0].TemporalTag)
			}
		})
	}
}

func TestParseExtraction_Unparseable(t *testing.T) {
	_, err := ParseExtraction("Sure! Here are the beliefs I found.")
	if !errors.Is(err, domain.ErrUnparseableExtraction) {
		t.Fatalf("expected ErrUnparseableExtraction, got %v", err)
	}
}

func TestParseExtraction_MissingConfidenceStaysNil(t *testing.T) {
	got, err := ParseExtraction(`{"beliefs":[{"subject":"user","statement":"x"}]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Beliefs[0].Confidence != nil {
		t.Errorf("expected nil confidence, got %v", *got.Beliefs[0].Confidence)
	}
}

func TestOpenAIExtractor_Extract(t *testing.T) {
	var req chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected authorization header %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "```json\n" + sampleExtraction + "\n```"}},
			},
		})
	}))
	defer srv.Close()

	e := NewOpenAIExtractor("sk-test", "", srv.URL)
	turn := domain.Turn{ID: uuid.New(), Messages: []domain.Message{
		{Role: "user", Content: "honesty matters most to me with close friends"},
		{Role: "assistant", Content: "That makes sense."},
	}}

	got, err := e.Extract(context.Background(), turn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Beliefs) != 1 {
		t.Fatalf("expected 1 belief, got %d", len(got.Beliefs))
	}
	if req.Model != DefaultModel {
		t.Errorf("expected model %q, got %q", DefaultModel, req.Model)
	}
	if len(req.Messages) != 1 || !strings.Contains(req.Messages[0].Content, "user: honesty matters most") {
		t.Errorf("prompt does not contain the transcript: %+v", req.Messages)
	}
}

func TestOpenAIExtractor_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewOpenAIExtractor("sk-test", "gpt-test", srv.URL).Extract(context.Background(), domain.Turn{})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status 429 error, got %v", err)
	}
	if errors.Is(err, domain.ErrUnparseableExtraction) {
		t.Errorf("transport errors must not be reported as unparseable output")
	}
}

func TestNewExtractor(t *testing.T) {
	if _, err := NewExtractor(ProviderOpenAI, "", "", ""); err == nil {
		t.Error("expected error for missing API key")
	}
	if _, err := NewExtractor("bogus", "k", "", ""); err == nil {
		t.Error("expected error for unknown provider")
	}
	if _, err := NewExtractor(ProviderAnthropic, "", "", ""); err == nil {
		t.Error("expected error for missing Anthropic API key")
	}
	if e, err := NewExtractor(ProviderAnthropic, "ak", "", ""); err != nil {
		t.Errorf("unexpected error: %v", err)
	} else if _, ok := e.(*AnthropicExtractor); !ok {
		t.Errorf("expected *AnthropicExtractor, got %T", e)
	}
	e, err := NewExtractor(ProviderMock, "", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := e.Extract(context.Background(), domain.Turn{})
	if err != nil || got == nil {
		t.Fatalf("mock extract failed: %v", err)
	}
}
