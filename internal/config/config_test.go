package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	for _, k := range []string{"SERVER_PORT", "BATCH_LIMIT", "EMBEDDING_PROVIDER", "VECTOR_INDEX", "CHROMEM_PATH", "BACKFILL_INTERVAL", "DECAY_INTERVAL"} {
		t.Setenv(k, "")
	}

	if got := ServerAddr(); got != ":8080" {
		t.Errorf("ServerAddr() = %q", got)
	}
	if got := BatchLimit(); got != 4 {
		t.Errorf("BatchLimit() = %d", got)
	}
	if got := EmbeddingProvider(); got != "http" {
		t.Errorf("EmbeddingProvider() = %q", got)
	}
	if got := VectorIndex(); got != "pgvector" {
		t.Errorf("VectorIndex() = %q", got)
	}
	if got := ChromemPath(); got != "data/chromem" {
		t.Errorf("ChromemPath() = %q", got)
	}
	if got := BackfillInterval(); got != 10*time.Minute {
		t.Errorf("BackfillInterval() = %v", got)
	}
	if got := DecayInterval(); got != time.Hour {
		t.Errorf("DecayInterval() = %v", got)
	}
}

func TestOverrides(t *testing.T) {
	t.Setenv("BATCH_LIMIT", "7")
	t.Setenv("DECAY_INTERVAL", "15m")
	t.Setenv("RATE_LIMIT_RPS", "-3")

	if got := BatchLimit(); got != 7 {
		t.Errorf("BatchLimit() = %d", got)
	}
	if got := DecayInterval(); got != 15*time.Minute {
		t.Errorf("DecayInterval() = %v", got)
	}
	if got := RateLimitRPS(); got != 100 {
		t.Errorf("RateLimitRPS() = %v, want default for invalid value", got)
	}
}

func TestLoadReadsEnvAndSecret(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envFile, []byte("LLM_MODEL=gpt-test\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(envFile+".secret", []byte("OPENAI_API_KEY=sk-secret\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BELIEFGATE_ENV", envFile)
	t.Setenv("LLM_MODEL", "")
	t.Setenv("OPENAI_API_KEY", "")
	os.Unsetenv("LLM_MODEL")
	os.Unsetenv("OPENAI_API_KEY")

	if err := Load(); err != nil {
		t.Fatal(err)
	}
	if got := LLMModel(); got != "gpt-test" {
		t.Errorf("LLMModel() = %q", got)
	}
	if got := OpenAIAPIKey(); got != "sk-secret" {
		t.Errorf("OpenAIAPIKey() = %q", got)
	}
}

func TestLLMAPIKeyFollowsProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "ak-anthropic")

	t.Setenv("LLM_PROVIDER", "")
	if got := LLMAPIKey(); got != "sk-openai" {
		t.Errorf("LLMAPIKey() = %q, want OpenAI key by default", got)
	}
	t.Setenv("LLM_PROVIDER", "anthropic")
	if got := LLMAPIKey(); got != "ak-anthropic" {
		t.Errorf("LLMAPIKey() = %q, want Anthropic key", got)
	}
}
