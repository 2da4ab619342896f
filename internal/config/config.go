package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by BELIEFGATE_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("BELIEFGATE_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// APIKey is the static bearer token required on /v1 routes. Empty disables auth.
func APIKey() string {
	return os.Getenv("API_KEY")
}

// RulesPath points at a YAML rule table. Empty means the embedded default table.
func RulesPath() string {
	return os.Getenv("RULES_PATH")
}

// BatchLimit returns how many accepted belief candidates one turn may persist.
// Defaults to 4 if not set.
func BatchLimit() int {
	n, err := strconv.Atoi(os.Getenv("BATCH_LIMIT"))
	if err != nil || n <= 0 {
		return 4
	}
	return n
}

// LLMProvider returns the configured extraction provider.
// Defaults to "openai" if not set.
// Valid values: openai, anthropic, mock
func LLMProvider() string {
	p := os.Getenv("LLM_PROVIDER")
	if p == "" {
		return "openai"
	}
	return p
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func AnthropicAPIKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

// LLMAPIKey returns the API key of the configured provider.
func LLMAPIKey() string {
	if LLMProvider() == "anthropic" {
		return AnthropicAPIKey()
	}
	return OpenAIAPIKey()
}

// LLMModel returns the chat model used for extraction. Empty selects the provider default.
func LLMModel() string {
	return os.Getenv("LLM_MODEL")
}

// LLMBaseURL overrides the provider endpoint.
func LLMBaseURL() string {
	return os.Getenv("LLM_BASE_URL")
}

// EmbeddingProvider returns the configured embedding provider.
// Defaults to "http" if not set.
// Valid values: http, mock, none
func EmbeddingProvider() string {
	p := os.Getenv("EMBEDDING_PROVIDER")
	if p == "" {
		return "http"
	}
	return p
}

func BeliefEmbedderURL() string {
	u := os.Getenv("BELIEF_EMBEDDER_URL")
	if u == "" {
		return "http://127.0.0.1:5002"
	}
	return u
}

func MemoryEmbedderURL() string {
	u := os.Getenv("MEMORY_EMBEDDER_URL")
	if u == "" {
		return "http://127.0.0.1:5001"
	}
	return u
}

// VectorIndex selects where vectors are stored: pgvector or chromem.
// Defaults to "pgvector" if not set.
func VectorIndex() string {
	v := os.Getenv("VECTOR_INDEX")
	if v == "" {
		return "pgvector"
	}
	return v
}

// ChromemPath is where the chromem vector index persists its collections.
// Defaults to "data/chromem" if not set.
func ChromemPath() string {
	p := os.Getenv("CHROMEM_PATH")
	if p == "" {
		return "data/chromem"
	}
	return p
}

// BackfillInterval returns how often missing vectors are retried.
// Defaults to 10m if not set.
func BackfillInterval() time.Duration {
	return duration("BACKFILL_INTERVAL", 10*time.Minute)
}

// DecayInterval returns how often memory strength decay runs.
// Defaults to 1h if not set.
func DecayInterval() time.Duration {
	return duration("DECAY_INTERVAL", time.Hour)
}

func duration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
