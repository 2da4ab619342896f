package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nia-core/beliefgate/internal/api/handlers"
	mw "github.com/nia-core/beliefgate/internal/api/middleware"
	"github.com/nia-core/beliefgate/internal/buildconfig"
	"github.com/nia-core/beliefgate/internal/config"
	"github.com/nia-core/beliefgate/internal/domain"
	"github.com/nia-core/beliefgate/internal/embedding"
	"github.com/nia-core/beliefgate/internal/llm"
	"github.com/nia-core/beliefgate/internal/rules"
	"github.com/nia-core/beliefgate/internal/service"
	"github.com/nia-core/beliefgate/internal/similarity"
	"github.com/nia-core/beliefgate/internal/store"
	"github.com/nia-core/beliefgate/internal/validator"
	"go.uber.org/zap"
)

// Pinger reports database reachability for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// VectorCounter reports index sizes for /metrics.
type VectorCounter interface {
	Count(ctx context.Context, kind string) (int, error)
}

// Services is everything the router serves. Ingest and Vectors may be nil.
type Services struct {
	Beliefs  *service.BeliefService
	Memories *service.MemoryService
	Ingest   *service.IngestService
	Decay    *service.DecayService
	Backfill *service.BackfillService
	Vectors  VectorCounter
	DB       Pinger
	Rules    *rules.RuleSet
}

type Options struct {
	APIKey         string
	RateLimitRPS   float64
	RateLimitBurst int
}

// App holds the router and background services for lifecycle management.
type App struct {
	Router   *chi.Mux
	Decay    *service.DecayService
	Backfill *service.BackfillService
	Limiter  *mw.RateLimiter

	services  Services
	metrics   *mw.Metrics
	startTime time.Time
}

// NewApp wires stores, clients and services from the environment.
func NewApp(db *pgxpool.Pool, logger *zap.Logger) (*App, error) {
	rs, err := rules.Load(config.RulesPath())
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	logger.Info("rule table loaded", zap.String("version", rs.Version))

	// Stores
	beliefStore := store.NewBeliefStore(db)
	memoryStore := store.NewMemoryStore(db)

	// Services
	matcher := similarity.NewMatcher(rs)
	beliefSvc := service.NewBeliefService(beliefStore, validator.NewBeliefValidator(rs), matcher, logger)
	beliefSvc.SetBatchLimit(config.BatchLimit())
	memorySvc := service.NewMemoryService(memoryStore, validator.NewMemoryValidator(rs), matcher, logger)

	svcs := Services{
		Beliefs:  beliefSvc,
		Memories: memorySvc,
		Decay:    service.NewDecayService(memoryStore, logger),
		Backfill: service.NewBackfillService(beliefStore, memoryStore, beliefSvc, memorySvc, logger),
		DB:       db,
		Rules:    rs,
	}
	svcs.Decay.SetInterval(config.DecayInterval())
	svcs.Backfill.SetInterval(config.BackfillInterval())

	// External clients via provider factory
	embeddingProvider := config.EmbeddingProvider()
	embedder, err := embedding.NewEmbedder(embeddingProvider, config.BeliefEmbedderURL(), config.MemoryEmbedderURL())
	switch {
	case err != nil:
		logger.Warn("embedder initialization failed", zap.String("provider", embeddingProvider), zap.Error(err))
	case embedder == nil:
		logger.Info("embedding disabled")
	default:
		var index embedding.VectorIndex = store.NewVectorStore(db)
		if config.VectorIndex() == embedding.IndexChromem {
			chromemIndex, err := embedding.NewChromemIndex(config.ChromemPath())
			if err != nil {
				return nil, err
			}
			index = chromemIndex
		}
		bridge := embedding.NewBridge(embedder, index)
		beliefSvc.SetEmbeddingBridge(bridge)
		memorySvc.SetEmbeddingBridge(bridge)
		svcs.Vectors = bridge
		logger.Info("embedder initialized",
			zap.String("provider", embeddingProvider),
			zap.String("index", config.VectorIndex()))
	}

	llmProvider := config.LLMProvider()
	extractor, err := llm.NewExtractor(llmProvider, config.LLMAPIKey(), config.LLMModel(), config.LLMBaseURL())
	if err != nil {
		logger.Warn("extractor initialization failed, /v1/turns disabled", zap.String("provider", llmProvider), zap.Error(err))
	} else {
		svcs.Ingest = service.NewIngestService(extractor, beliefSvc, memorySvc, logger)
		logger.Info("extractor initialized", zap.String("provider", llmProvider))
	}

	return New(svcs, Options{
		APIKey:         config.APIKey(),
		RateLimitRPS:   config.RateLimitRPS(),
		RateLimitBurst: config.RateLimitBurst(),
	}, logger), nil
}

// New builds the router over already constructed services.
func New(s Services, opts Options, logger *zap.Logger) *App {
	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Decay:     s.Decay,
		Backfill:  s.Backfill,
		Limiter:   mw.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		services:  s,
		metrics:   &mw.Metrics{},
		startTime: time.Now(),
	}

	beliefHandler := handlers.NewBeliefHandler(s.Beliefs)
	memoryHandler := handlers.NewMemoryHandler(s.Memories)
	turnHandler := handlers.NewTurnHandler(s.Ingest)
	maintenanceHandler := handlers.NewMaintenanceHandler(s.Decay, s.Backfill)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.metrics.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)

	// Health and metrics (no auth)
	r.Get("/health", app.healthHandler())
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(opts.APIKey))
		r.Use(mw.RateLimit(app.Limiter))

		r.Route("/beliefs", func(r chi.Router) {
			r.Get("/", beliefHandler.List)
			r.Post("/validate", beliefHandler.Validate)
			r.Post("/batch", beliefHandler.Batch)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", beliefHandler.GetByID)
				r.Get("/history", beliefHandler.History)
			})
		})

		r.Route("/memories", func(r chi.Router) {
			r.Get("/", memoryHandler.List)
			r.Post("/", memoryHandler.Commit)
			r.Post("/validate", memoryHandler.Validate)
			r.Post("/{id}/correct", memoryHandler.Correct)
		})

		r.Post("/turns", turnHandler.Ingest)

		r.Route("/maintenance", func(r chi.Router) {
			r.Post("/decay", maintenanceHandler.TriggerDecay)
			r.Post("/backfill", maintenanceHandler.TriggerBackfill)
		})
	})

	return app
}

func (app *App) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{"status": "ok"}
		for k, v := range buildconfig.VersionInfo() {
			resp[k] = v
		}
		if app.services.Rules != nil {
			resp["rules_version"] = app.services.Rules.Version
		}

		status := http.StatusOK
		if app.services.DB != nil {
			if err := app.services.DB.Ping(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				resp["status"] = "error"
				resp["error"] = err.Error()
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"requests":       app.metrics.Snapshot(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		if app.services.Vectors != nil {
			vectors := map[string]any{}
			for _, kind := range []string{"belief", embedding.KindMemory} {
				n, err := app.services.Vectors.Count(r.Context(), kind)
				if err != nil {
					vectors[kind] = nil
					continue
				}
				vectors[kind] = n
			}
			response["vectors"] = vectors
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.BeliefStore     = (*store.BeliefStore)(nil)
	_ domain.MemoryStore     = (*store.MemoryStore)(nil)
	_ embedding.VectorIndex  = (*store.VectorStore)(nil)
	_ embedding.VectorIndex  = (*embedding.ChromemIndex)(nil)
	_ embedding.Embedder     = (*embedding.HTTPEmbedder)(nil)
	_ embedding.Embedder     = (*embedding.HashEmbedder)(nil)
	_ domain.EmbeddingBridge = (*embedding.Bridge)(nil)
	_ domain.Extractor       = (*llm.OpenAIExtractor)(nil)
	_ domain.Extractor       = (*llm.AnthropicExtractor)(nil)
	_ domain.Extractor       = (*llm.MockExtractor)(nil)
	_ Pinger                 = (*pgxpool.Pool)(nil)
)
