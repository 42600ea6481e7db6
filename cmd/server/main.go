package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/avelkins10/kin-communications-platform-sub002/internal/api"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/auth"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/config"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/crm"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/eventbus"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/metrics"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/presence"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/routing"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/storage"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/telephony"
	"github.com/avelkins10/kin-communications-platform-sub002/pkg/middleware"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("log_level", cfg.LogLevel).
		Msg("starting KIN realtime server")

	// Create context for services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Token verifier: JWKS when configured, HS256 shared secret otherwise
	var verifier *auth.Verifier
	if cfg.JWKSURL != "" {
		verifier, err = auth.NewJWKSVerifier(cfg.JWKSURL)
	} else {
		verifier, err = auth.NewVerifier(cfg.JWTSecret)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create token verifier")
	}

	// Persistence (rules, workers, routing records)
	store, err := storage.NewStore(ctx, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	// Presence registry with background sweeper
	registry := presence.NewRegistry(cfg.PresenceTimeout, log.Logger)
	go registry.StartSweeper(ctx, cfg.SweepInterval)

	// Event bus
	bus := eventbus.Init(registry, log.Logger)
	go bus.Run()

	wsHandler := eventbus.NewHandler(bus, verifier, cfg, log.Logger)

	// Task router pipeline
	hours, err := routing.NewHoursEvaluator(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create hours evaluator")
	}
	router := routing.NewRouter(
		cfg,
		routing.NewCustomerAdapter(crm.NewDisabled(), cfg.CRMTimeout, log.Logger),
		hours,
		routing.NewSkillsMatcher(store, log.Logger),
		routing.NewRuleEngine(store, log.Logger),
		telephony.NewDisabled(),
		store,
		log.Logger,
	)

	contactHandler := api.NewContactHandler(router, bus, store, log.Logger)
	eventsHandler := api.NewEventsHandler(bus, log.Logger)
	adminHandler := api.NewAdminHandler(store, bus, log.Logger)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Register public routes (no auth required)
	r.Get("/health", healthHandler)
	r.Get("/metrics", metrics.Get().Handler())

	// Internal routes (no auth - for trusted backend services)
	r.Route("/internal", func(r chi.Router) {
		r.Post("/contact", contactHandler.RouteContact)
		r.Get("/contact/records", contactHandler.GetRecords)
		r.Get("/contact/stats", contactHandler.GetStats)
		r.Post("/events", eventsHandler.PublishEvent)
		r.Put("/rules", adminHandler.PutRule)
		r.Put("/workers", adminHandler.PutWorker)
	})

	// WebSocket endpoint authenticates its own token (header or query param)
	r.Get("/ws", wsHandler.ServeHTTP)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Stop the sweeper and bus context
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"kin-realtime"}`)
}
