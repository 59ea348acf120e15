// Watchlog - Bounded Watch-History Logger for YouTube
// Copyright 2026 The Watchlog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchlog/watchlog

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router owns the HTTP surface.
type Router struct {
	handler    *Handler
	middleware *Middleware
}

// NewRouter creates a router over the given handler and middleware.
func NewRouter(handler *Handler, middleware *Middleware) *Router {
	return &Router{
		handler:    handler,
		middleware: middleware,
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger())
	r.Use(router.middleware.CORS()) // CORS must be global to handle OPTIONS preflight

	// Intake endpoint: fire-and-forget, always 202 when the body parses
	r.Route("/api/v1/intake", func(r chi.Router) {
		r.Use(router.middleware.RateLimitIntake())
		r.Use(SecurityHeaders())
		r.Post("/", router.handler.Intake)
	})

	// History endpoints
	r.Route("/api/v1/history", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(SecurityHeaders())

		r.Get("/", router.handler.History)
		r.With(router.middleware.RateLimitWrite()).Delete("/", router.handler.ClearHistory)
		r.With(router.middleware.RateLimitWrite()).Post("/{id}/link", router.handler.CreateShareLink)
	})

	// Share-link history
	r.Route("/api/v1/links", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(SecurityHeaders())
		r.Get("/", router.handler.ShareLinks)
	})

	// Settings
	r.Route("/api/v1/settings", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(SecurityHeaders())

		r.Get("/", router.handler.GetSettings)
		r.With(router.middleware.RateLimitWrite()).Put("/", router.handler.UpdateSettings)
	})

	// Live notifications
	r.Route("/api/v1/ws", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Get("/", router.handler.WebSocket)
	})

	// Observability
	r.With(router.middleware.RateLimitHealth()).Get("/healthz", router.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
