// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

/*
Package api wires together the HTTP router, middleware chain, and all
handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/server are allowed to import net/http server primitives.

Routing shape: the API endpoints are mounted under /api, and everything else
goes through the edge router, which either rewrites the page or falls through
to the asset-origin reverse proxy.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/lesporoiniens/portal/internal/edge"
	"github.com/lesporoiniens/portal/internal/imgchest"
	"github.com/lesporoiniens/portal/internal/interactions"
	"github.com/lesporoiniens/portal/internal/platform/config"
	"github.com/lesporoiniens/portal/internal/platform/constants"
	"github.com/lesporoiniens/portal/internal/platform/middleware"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// ImgChest handles the image-host proxy endpoints.
	ImgChest *imgchest.Handler

	// Interactions handles the like/comment batch endpoints.
	Interactions *interactions.Handler

	// Admin handles the authenticated moderation endpoints.
	Admin *interactions.AdminHandler

	// Edge is the page-rewriting middleware for everything outside /api.
	Edge *edge.Router

	// AssetFallback serves requests the edge router passes through.
	AssetFallback http.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg))

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Application API
	r.Route("/api", func(api chi.Router) {
		api.Mount("/", h.ImgChest.Routes())
		api.Post("/log-action", h.Interactions.LogAction)
		api.Get("/interactions", h.Interactions.GetSeries)

		// Admin routes sit behind the bearer gate, before any body parsing.
		api.Route("/admin", func(admin chi.Router) {
			admin.Use(middleware.BearerAuth(cfg.AdminToken))
			admin.Post("/batch-delete", h.Admin.BatchDelete)
		})
	})

	// # Page Routes
	// Every other path goes through the edge router; whatever it does not
	// rewrite is proxied to the static asset origin.
	r.Handle("/*", h.Edge.Middleware(h.AssetFallback))

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
