// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

// Package metrics provides Prometheus instrumentation for Callwatch:
// record store query performance, fetch retries and circuit breaker
// state, report cache efficiency, report generation timing, and API
// endpoint latency.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Record store metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "callwatch_db_query_duration_seconds",
			Help:    "Duration of record store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callwatch_db_query_errors_total",
			Help: "Total number of record store query errors",
		},
		[]string{"operation", "error_type"},
	)

	DBFetchRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "callwatch_db_fetch_retries_total",
			Help: "Total number of record store fetch retry attempts",
		},
	)

	// Circuit breaker metrics
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "callwatch_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	BreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callwatch_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Report cache metrics
	ReportCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "callwatch_report_cache_hits_total",
			Help: "Total number of report requests served from cached artifacts",
		},
	)

	ReportCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "callwatch_report_cache_misses_total",
			Help: "Total number of report requests requiring regeneration",
		},
	)

	// Report generation metrics
	ReportGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "callwatch_report_generation_duration_seconds",
			Help:    "End-to-end report generation time (fetch, analyze, render)",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	ReportsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callwatch_reports_generated_total",
			Help: "Total number of reports generated, by outcome",
		},
		[]string{"outcome"}, // "generated", "empty", "failed"
	)

	RecordsAnalyzed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "callwatch_records_analyzed_total",
			Help: "Total number of session records aggregated",
		},
	)

	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callwatch_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "callwatch_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "callwatch_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)
)

// ObserveDBQuery records a query duration for the given operation.
func ObserveDBQuery(operation string, start time.Time) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(method, endpoint string, statusCode int, start time.Time) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
}
