// Package main is the entrypoint for the clustering query API server. It runs
// the HTTP API and the asynq build worker in one process.
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

	"github.com/hibiken/asynq"
	"github.com/interactomics/clusterquery/internal/api"
	"github.com/interactomics/clusterquery/internal/api/handler"
	mw "github.com/interactomics/clusterquery/internal/api/middleware"
	"github.com/interactomics/clusterquery/internal/api/response"
	"github.com/interactomics/clusterquery/internal/cache"
	"github.com/interactomics/clusterquery/internal/cluster"
	"github.com/interactomics/clusterquery/internal/config"
	"github.com/interactomics/clusterquery/internal/store"
	"github.com/interactomics/clusterquery/internal/upstream"
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
	logger := slog.Default()

	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded",
		"env", cfg.Server.Env,
		"services", len(cfg.Upstream.Services),
		"max_block_size", cfg.Cluster.MaxBlockSize)

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

	// 5. Create store and build pipeline
	pgStore := store.NewPostgresStore(pool)

	redisOpt, err := asynq.ParseRedisURI(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("parse redis uri for task queue: %w", err)
	}

	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	fetcher := upstream.NewHTTPClient(cfg.Upstream.Services, cfg.Upstream.PageSize, cfg.Upstream.Timeout)
	worker := cluster.NewWorker(pgStore, fetcher, cfg.Cluster.IndexRoot, logger)
	executor := cluster.NewAsynqExecutor(asynqClient)
	svc := cluster.NewService(pgStore, redisCache, executor, cfg.Cluster.MaxBlockSize, logger)

	// 6. Start the build worker
	asynqSrv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Cluster.Concurrency,
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(cluster.TaskTypeBuild, worker.ProcessTask)

	workerErrCh := make(chan error, 1)
	go func() {
		slog.Info("build worker starting", "concurrency", cfg.Cluster.Concurrency)
		if err := asynqSrv.Run(mux); err != nil {
			workerErrCh <- err
		}
		close(workerErrCh)
	}()

	// 7. Build router with dependencies
	deps := api.Dependencies{
		Auth:      mw.NewAuth(pgStore),
		RateLimit: mw.NewRateLimit(redisCache, 60),

		HealthHandler:      healthHandler(pgStore, redisCache),
		SubmitHandler:      handler.NewSubmitHandler(svc),
		PollHandler:        handler.NewPollHandler(svc),
		QueryHandler:       handler.NewQueryHandler(svc),
		ReturnTypesHandler: handler.NewReturnTypesHandler(),
		CreateKeyHandler:   handler.NewCreateKeyHandler(pgStore),
		ListKeysHandler:    handler.NewListKeysHandler(pgStore),
		RevokeKeyHandler:   handler.NewRevokeKeyHandler(pgStore),
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

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal, server error, or worker error
	select {
	case err := <-errCh:
		asynqSrv.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case err := <-workerErrCh:
		return fmt.Errorf("build worker error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Stop taking new tasks, let in-flight builds finish
	asynqSrv.Shutdown()

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
