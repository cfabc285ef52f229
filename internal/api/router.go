// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/versewatch/versewatch/internal/config"
	"github.com/versewatch/versewatch/internal/middleware"
)

// Router wires handlers into the HTTP mux.
type Router struct {
	handler   *Handler
	wsHandler *WSHandler
	cfg       *config.Config
}

// NewRouter creates the router. wsHandler may be nil to disable /ws.
func NewRouter(handler *Handler, wsHandler *WSHandler, cfg *config.Config) *Router {
	return &Router{handler: handler, wsHandler: wsHandler, cfg: cfg}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Prometheus)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: router.cfg.Security.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Health endpoints get a permissive limit so monitoring is never
	// throttled alongside event traffic.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(1000, router.cfg.Security.RateLimitWindow))
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(router.cfg.Security.RateLimitReqs, router.cfg.Security.RateLimitWindow))

		r.Post("/events", router.handler.CreateEvent)
		r.Get("/events", router.handler.ListEvents)
		r.Get("/events/count", router.handler.CountEvents)
		r.Get("/players/{player}/ip", router.handler.PlayerIP)
	})

	// The upgrade endpoint sits outside the rate-limited group: one
	// long-lived connection, not request traffic.
	if router.wsHandler != nil {
		r.Get("/ws", router.wsHandler.Serve)
	}

	r.Handle("/metrics", promhttp.Handler())

	return r
}
