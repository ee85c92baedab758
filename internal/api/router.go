// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2025-2026 indiecraft contributors
// https://github.com/Kalfadda/indiecraft

// Package api provides the HTTP API server for indiecraft.
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Kalfadda/indiecraft/internal/api/handlers"
	"github.com/Kalfadda/indiecraft/internal/api/middleware"
	"github.com/Kalfadda/indiecraft/internal/pkg/logger"
)

// RouterConfig contains configuration for setting up routes.
type RouterConfig struct {
	// JWTSecret is the secret for JWT token validation.
	JWTSecret string

	// CORSConfig is the CORS configuration.
	CORSConfig middleware.CORSConfig

	// RateLimitPerMinute is the per-user rate limit for API requests.
	// Zero falls back to the standard limit.
	RateLimitPerMinute int

	// RequestTimeout is the timeout for HTTP requests.
	RequestTimeout time.Duration

	// TokenValidator optionally checks the server-side session bound to a
	// token, so revoked sessions stop working before the JWT expires.
	TokenValidator middleware.TokenValidatorFunc

	// Logger for request logging. Nil disables request logs.
	Logger *logger.Logger
}

// DefaultRouterConfig returns a default router configuration.
func DefaultRouterConfig(jwtSecret string) RouterConfig {
	return RouterConfig{
		JWTSecret:          jwtSecret,
		CORSConfig:         middleware.DefaultCORSConfig(),
		RateLimitPerMinute: 100,
		RequestTimeout:     30 * time.Second,
	}
}

// Handlers contains all API handlers.
// All fields are optional - if nil, the corresponding routes won't be mounted.
type Handlers struct {
	System   *handlers.SystemHandler
	Auth     *handlers.AuthHandler
	User     *handlers.UserHandler
	Schedule *handlers.ScheduleHandler
	Asset    *handlers.AssetHandler
	Board    *handlers.BoardHandler
	Request  *handlers.RequestHandler
	Guide    *handlers.GuideHandler
}

// NewRouter creates a new chi router with all routes configured.
func NewRouter(config RouterConfig, h *Handlers) chi.Router {
	r := chi.NewRouter()

	// =========================================================================
	// Global Middleware (applied to all routes)
	// =========================================================================

	// Request ID (must be first)
	r.Use(middleware.RequestID)

	// Request logging
	if config.Logger != nil {
		r.Use(middleware.Logging(config.Logger))
	}

	// Panic recovery
	r.Use(middleware.Recoverer(config.Logger))

	// CORS
	r.Use(middleware.CORS(config.CORSConfig))

	// =========================================================================
	// Health Check Routes (no auth required)
	// =========================================================================

	if h.System != nil {
		r.Get("/health", h.System.Health)
		r.Get("/healthz", h.System.Liveness)
		r.Get("/ready", h.System.Readiness)
	}

	// =========================================================================
	// API Routes
	// =========================================================================

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(config.RequestTimeout))

		// -----------------------------------------------------------------
		// Public routes (no authentication)
		// -----------------------------------------------------------------
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthRateLimit())

			// Auth endpoints. Login and refresh are public; the handler
			// applies RequireAuth internally for its protected routes, so
			// claims are attached here when a token is presented.
			if h.Auth != nil {
				r.Group(func(r chi.Router) {
					r.Use(middleware.OptionalAuth(middleware.AuthConfig{
						Secret:         config.JWTSecret,
						TokenLookup:    "header:Authorization,cookie:auth_token",
						TokenValidator: config.TokenValidator,
					}))
					r.Mount("/auth", h.Auth.Routes())
				})
			}

			// Public version info
			if h.System != nil {
				r.Get("/system/version", h.System.Version)
			}
		})

		// -----------------------------------------------------------------
		// Authenticated routes
		// -----------------------------------------------------------------
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(middleware.AuthConfig{
				Secret:         config.JWTSecret,
				TokenLookup:    "header:Authorization,cookie:auth_token",
				TokenValidator: config.TokenValidator,
			}))

			if config.RateLimitPerMinute > 0 {
				r.Use(middleware.RateLimitByUser(config.RateLimitPerMinute, time.Minute))
			} else {
				r.Use(middleware.APIRateLimit())
			}

			// System detail (any authenticated user)
			if h.System != nil {
				r.Route("/system", func(r chi.Router) {
					r.Use(middleware.RequireAuth)
					r.Get("/info", h.System.Info)
					r.Get("/health", h.System.Health)
				})
			}

			// Domain routes. Handlers apply RequireAuth and per-route role
			// checks themselves.
			if h.Schedule != nil {
				r.Mount("/schedule", h.Schedule.Routes())
			}
			if h.Asset != nil {
				r.Mount("/assets", h.Asset.Routes())
			}
			if h.Board != nil {
				r.Mount("/board", h.Board.Routes())
			}
			if h.Request != nil {
				r.Mount("/requests", h.Request.Routes())
			}
			if h.Guide != nil {
				r.Mount("/guides", h.Guide.Routes())
			}

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Use(middleware.RequireAdmin)

				if h.User != nil {
					r.Mount("/users", h.User.Routes())
				}
			})
		})
	})

	return r
}
