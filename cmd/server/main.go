// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

// Command server is the entry point for the portal HTTP server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables (.env honored locally).
//  3. Connect to Redis.
//  4. Load the slug map and build the asset-origin client.
//  5. Wire HTTP handlers.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lesporoiniens/portal/internal/api"
	"github.com/lesporoiniens/portal/internal/assets"
	"github.com/lesporoiniens/portal/internal/content"
	"github.com/lesporoiniens/portal/internal/edge"
	"github.com/lesporoiniens/portal/internal/imgchest"
	"github.com/lesporoiniens/portal/internal/interactions"
	"github.com/lesporoiniens/portal/internal/platform/config"
	"github.com/lesporoiniens/portal/internal/platform/constants"
	redisstore "github.com/lesporoiniens/portal/internal/platform/redis"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	// A local .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("asset_origin", cfg.AssetOrigin),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 4. Static Content ─────────────────────────────────────────────────
	slugMap, err := content.LoadSlugMap(cfg.SlugMapPath)
	must(log, err, "load slug map")
	log.Info("slug_map_loaded", slog.Int("entries", slugMap.Len()))

	assetClient, err := assets.NewClient(cfg.AssetOrigin)
	must(log, err, "build asset client")

	assetProxy, err := assets.NewProxy(cfg.AssetOrigin)
	must(log, err, "build asset proxy")

	// ── 5. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
		CheckAssets: func() error {
			return assetClient.Ping(context.Background())
		},
	}, log)

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	edgeRouter, err := edge.NewRouter(assetClient, slugMap, cfg.SiteOrigin, log)
	must(log, err, "build edge router")

	imgchestHandler := imgchest.NewHandler(
		imgchest.NewClient(cfg.ImgChestBaseURL),
		imgchest.NewRedisCache(rdb),
		cfg.ImgChestUsername,
	)

	interactionsService := interactions.NewService(
		interactions.NewRedisStore(rdb),
		interactions.NewRedisAuditLog(rdb),
		cfg.AdminUsername,
		log,
	)

	// ── 7. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:      liveness,
		Readiness:     readiness,
		ImgChest:      imgchestHandler,
		Interactions:  interactions.NewHandler(interactionsService),
		Admin:         interactions.NewAdminHandler(interactionsService),
		Edge:          edgeRouter,
		AssetFallback: assetProxy,
	}

	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, handlers)

	// ── 8. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
