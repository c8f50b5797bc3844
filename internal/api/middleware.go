// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

package api

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/callwatchio/callwatch/internal/config"
	"github.com/callwatchio/callwatch/internal/logging"
	"github.com/callwatchio/callwatch/internal/metrics"
)

// requestIDHeader is echoed back to clients for tracing.
const requestIDHeader = "X-Request-ID"

// Middleware provides the chi middleware stack: request IDs, structured
// request logging, metrics, CORS, and rate limiting.
type Middleware struct {
	cfg  *config.APIConfig
	cors func(http.Handler) http.Handler
}

// NewMiddleware builds the middleware factory from config. CORS origins
// default to empty, requiring explicit configuration.
func NewMiddleware(cfg *config.APIConfig) *Middleware {
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           86400,
	})

	return &Middleware{cfg: cfg, cors: corsHandler}
}

// RequestID assigns a unique ID to each request, propagates it through
// the context, and echoes it in the response header. An inbound
// X-Request-ID is honored so upstream proxies can correlate.
func (m *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = logging.GenerateRequestID()
		}

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		w.Header().Set(requestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logger logs one line per completed request and records the API
// request metrics.
func (m *Middleware) Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		metrics.APIActiveRequests.Inc()
		defer metrics.APIActiveRequests.Dec()

		next.ServeHTTP(ww, r)

		metrics.RecordAPIRequest(r.Method, r.URL.Path, ww.Status(), start)

		logging.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("Request completed")
	})
}

// Recoverer converts panics into 500 responses with a logged stack.
func (m *Middleware) Recoverer(next http.Handler) http.Handler {
	return chimiddleware.Recoverer(next)
}

// CORS returns the configured go-chi/cors handler.
func (m *Middleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns an IP-keyed httprate limiter, or a no-op when
// disabled.
func (m *Middleware) RateLimit() func(http.Handler) http.Handler {
	if m.cfg.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		m.cfg.RateLimitRequests,
		m.cfg.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			NewResponseWriter(w, r).Error(http.StatusTooManyRequests, ErrCodeTooManyRequests, "rate limit exceeded")
		}),
	)
}
