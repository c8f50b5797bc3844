// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the chi router: request-id, logging, and recovery
// on everything; CORS and rate limiting on the API subtree.
func NewRouter(h *Handlers, mw *Middleware) *chi.Mux {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recoverer)

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.CORS())
		r.Use(mw.RateLimit())

		r.Get("/reports/failure-analysis", h.FailureAnalysis)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).Error(http.StatusNotFound, ErrCodeNotFound, "endpoint not found")
	})

	return r
}
