// Package main is the entrypoint for the TalentGrid pipeline API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/talentgrid/talentgrid/internal/api"
	"github.com/talentgrid/talentgrid/internal/api/handler"
	mw "github.com/talentgrid/talentgrid/internal/api/middleware"
	"github.com/talentgrid/talentgrid/internal/api/response"
	"github.com/talentgrid/talentgrid/internal/cache"
	"github.com/talentgrid/talentgrid/internal/config"
	"github.com/talentgrid/talentgrid/internal/events"
	"github.com/talentgrid/talentgrid/internal/match"
	"github.com/talentgrid/talentgrid/internal/notify"
	"github.com/talentgrid/talentgrid/internal/pipeline"
	"github.com/talentgrid/talentgrid/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create match scorer with configured weights
	weights, err := match.LoadWeights(cfg.Match.WeightsFile)
	if err != nil {
		return fmt.Errorf("load match weights: %w", err)
	}
	scorer, err := match.NewScorer(weights)
	if err != nil {
		return fmt.Errorf("create scorer: %w", err)
	}
	slog.Info("match scorer initialized",
		"skills", weights.Skills, "language", weights.Language, "readiness", weights.Readiness)

	// 6. Create functions client and event publisher
	notifier := notify.NewHTTPClient(cfg.Functions.BaseURL, cfg.Functions.Token, cfg.Functions.Timeout)

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Events.URL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Exchange)
		if err != nil {
			return fmt.Errorf("create event publisher: %w", err)
		}
		publisher = amqpPublisher
		slog.Info("event publisher connected", "exchange", cfg.Events.Exchange)
	}
	defer publisher.Close()

	// 7. Create store, engine, and handlers
	pgStore := store.NewPostgresStore(pool)
	engine := pipeline.NewEngine(pgStore, notifier, publisher)

	jobs := handler.NewJobs(pgStore, redisCache)
	talents := handler.NewTalents(pgStore)
	applications := handler.NewApplications(pgStore, engine, scorer)
	boards := handler.NewBoards(pgStore, engine)

	deps := api.Dependencies{
		RateLimit: mw.NewRateLimit(redisCache, 120),

		HealthHandler: healthHandler(pgStore, redisCache),
		StagesHandler: handler.NewStagesHandler(),
		MatchHandler:  handler.NewMatchHandler(pgStore, scorer),

		CreateJob: jobs.Create,
		ListJobs:  jobs.List,
		GetJob:    jobs.Get,
		CloseJob:  jobs.Close,

		UpsertTalent: talents.Upsert,
		GetTalent:    talents.Get,
		ListTalents:  talents.List,

		CreateApplication:     applications.Create,
		GetApplication:        applications.Get,
		ListJobApplications:   applications.ListByJob,
		TransitionApplication: applications.Transition,

		GetBoard:      boards.Get,
		BoardBegin:    boards.BeginDrag,
		BoardDragOver: boards.DragOver,
		BoardEnd:      boards.EndDrag,
	}

	router := api.NewRouter(deps)

	// 8. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database": "ok",
			"cache":    "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
