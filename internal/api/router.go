package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/medconnect/agent/internal/api/handler"
	customMiddleware "github.com/medconnect/agent/internal/api/middleware"
	"github.com/medconnect/agent/internal/config"
	"github.com/medconnect/agent/internal/llm"
	"github.com/medconnect/agent/internal/llm/anthropic"
	"github.com/medconnect/agent/internal/llm/gemini"
	"github.com/medconnect/agent/internal/llm/ollama"
	"github.com/medconnect/agent/internal/llm/openai"
	"github.com/medconnect/agent/internal/pipeline"
	"github.com/medconnect/agent/internal/repository/postgres"
	"github.com/medconnect/agent/internal/repository/redis"
	"github.com/medconnect/agent/internal/schema"
	"github.com/medconnect/agent/internal/session"
	"github.com/rs/zerolog/log"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, db *postgres.DB, redisClient *redis.Client, desc *schema.Descriptor, sessions *session.Store) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// LLM providers
	llmRouter := llm.NewRouter(cfg.LLM.DefaultProvider)
	log.Info().Msgf("Initializing LLM providers. Default: %s", cfg.LLM.DefaultProvider)

	if cfg.LLM.Gemini.APIKey != "" {
		llmRouter.RegisterProvider(gemini.NewProvider(cfg.LLM.Gemini))
	}
	if cfg.LLM.Anthropic.APIKey != "" {
		llmRouter.RegisterProvider(anthropic.NewProvider(cfg.LLM.Anthropic.APIKey, cfg.LLM.Anthropic.Model))
	}
	if cfg.LLM.OpenAI.APIKey != "" {
		llmRouter.RegisterProvider(openai.NewProvider(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model))
	}
	if cfg.LLM.Ollama.Host != "" {
		llmRouter.RegisterProvider(ollama.NewProvider(cfg.LLM.Ollama.Host, cfg.LLM.Ollama.DefaultModel))
	}

	// Pipeline stages share one oracle bound to the default provider
	oracle := pipeline.NewRouterOracle(llmRouter, "", "")
	doctorRepo := postgres.NewDoctorRepository(db.Pool)

	orchestrator := pipeline.NewOrchestrator(
		pipeline.NewClassifier(oracle),
		pipeline.NewSlotExtractor(oracle),
		pipeline.NewResolver(doctorRepo, desc),
		pipeline.NewSynthesizer(oracle, desc),
		pipeline.NewValidator(desc),
		pipeline.NewExecutor(db.Pool, cfg.Pipeline.MaxRows, cfg.Pipeline.QueryTimeout),
		pipeline.NewResponder(oracle),
		cfg.Pipeline.MaxRepairAttempts,
	)

	// Handlers
	chatHandler := handler.NewChatHandler(sessions, orchestrator)
	sessionHandler := handler.NewSessionHandler(sessions)
	doctorHandler := handler.NewDoctorHandler(doctorRepo)

	rateLimiter := redis.NewRateLimiter(
		redisClient,
		cfg.Security.RateLimit.RequestsPerMinute,
		cfg.Security.RateLimit.Burst,
	)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(rateLimiter)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(db))
		r.Get("/llm-providers", handler.ListLLMProviders(llmRouter))

		r.Get("/doctors", doctorHandler.List)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", sessionHandler.Get)
			r.Delete("/", sessionHandler.Delete)
		})

		r.Group(func(r chi.Router) {
			r.Use(rateLimitMiddleware.Limit)
			r.Post("/chat", chatHandler.Chat)
		})
	})

	return r
}
