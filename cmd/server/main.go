package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/medconnect/agent/internal/api"
	"github.com/medconnect/agent/internal/config"
	"github.com/medconnect/agent/internal/repository/postgres"
	"github.com/medconnect/agent/internal/repository/redis"
	"github.com/medconnect/agent/internal/schema"
	"github.com/medconnect/agent/internal/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file - try multiple locations
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	// Setup logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("Starting MedConnect agent server")

	// Initialize database
	db, err := postgres.NewDB(context.Background(), cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Initialize Redis
	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// The schema descriptor is the contract every pipeline stage relies
	// on; a store that drifted from it is a startup failure
	desc := loadDescriptor(context.Background(), db, redisClient)

	sessions := session.NewStore(cfg.Pipeline.SessionIdleTTL)

	// Initialize router
	router := api.NewRouter(cfg, db, redisClient, desc, sessions)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// loadDescriptor returns the verified schema descriptor, consulting the
// Redis cache before introspecting the live store
func loadDescriptor(ctx context.Context, db *postgres.DB, redisClient *redis.Client) *schema.Descriptor {
	cache := redis.NewSchemaCache(redisClient)

	if cached, err := cache.Get(ctx); err == nil && cached != nil {
		log.Info().Msg("Schema descriptor loaded from cache")
		return cached
	}

	desc := schema.Default()
	live, err := db.IntrospectTables(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to introspect store schema")
	}
	if err := desc.Verify(live); err != nil {
		log.Fatal().Err(err).Msg("Store schema does not match descriptor, run migrations")
	}

	if err := cache.Set(ctx, desc); err != nil {
		log.Warn().Err(err).Msg("Failed to cache schema descriptor")
	}
	log.Info().Int("tables", len(desc.Tables)).Msg("Schema descriptor verified against store")
	return desc
}
