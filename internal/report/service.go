// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

package report

import (
	"context"
	"fmt"
	"time"

	"github.com/callwatchio/callwatch/internal/analysis"
	"github.com/callwatchio/callwatch/internal/config"
	"github.com/callwatchio/callwatch/internal/logging"
	"github.com/callwatchio/callwatch/internal/metrics"
	"github.com/callwatchio/callwatch/internal/models"
)

// RecordFetcher supplies session records for a half-open time range.
// Satisfied by *database.DB.
type RecordFetcher interface {
	FetchSessionRecords(ctx context.Context, from, to time.Time) ([]models.SessionRecord, error)
}

// Request describes one analysis run.
type Request struct {
	Window Window

	// MaxUsers caps the per-user table in the response.
	MaxUsers int

	// Force regenerates artifacts regardless of freshness.
	Force bool

	// IncludeDetails embeds the per-user table and buckets in the response.
	IncludeDetails bool
}

// Service orchestrates one analysis run: cache resolve, record fetch,
// aggregation, binning, summary, and artifact rendering.
type Service struct {
	fetcher  RecordFetcher
	cache    *Cache
	renderer *Renderer
	cfg      *config.ReportConfig
}

// NewService wires the report pipeline over the given record fetcher.
func NewService(fetcher RecordFetcher, cfg *config.ReportConfig) *Service {
	return &Service{
		fetcher:  fetcher,
		cache:    NewCache(cfg.OutputDir),
		renderer: NewRenderer(cfg.BucketDisplayLimit, cfg.MaxUsers),
		cfg:      cfg,
	}
}

// Generate runs the analysis for the requested window, reusing cached
// artifacts when they are fresh. Runs for the same window serialize on a
// per-key lock so concurrent identical requests regenerate at most once.
//
// An empty record set is not an error: it produces a well-formed empty
// report. Context deadlines are checked before the fetch and again
// before rendering.
func (s *Service) Generate(ctx context.Context, req Request) (*models.AnalysisResult, error) {
	start := time.Now()
	key := req.Window.Key()
	log := logging.Ctx(ctx)

	unlock := s.cache.LockWindow(key)
	defer unlock()

	if s.cache.Resolve(req.Window, s.cfg.FreshnessTTL, req.Force, s.cfg.ExportCSV) == Reuse {
		result, err := LoadSummary(s.cache.summaryPath(key))
		if err == nil {
			metrics.ReportCacheHits.Inc()
			log.Debug().Str("window", key).Msg("Serving cached report")
			result.Cached = true
			return s.respond(result, req, start), nil
		}
		// Artifacts looked fresh but the sidecar is unusable. Regenerate
		// rather than serving something inconsistent.
		log.Warn().Err(&CacheError{Key: key, Err: err}).Msg("Cached report unusable, regenerating")
	}
	metrics.ReportCacheMisses.Inc()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("deadline expired before fetch: %w", err)
	}

	from, to := req.Window.Bounds()
	records, err := s.fetcher.FetchSessionRecords(ctx, from, to)
	if err != nil {
		metrics.ReportsGenerated.WithLabelValues("failed").Inc()
		return nil, err
	}

	stats := analysis.Aggregate(records)
	buckets := analysis.Bin(stats)
	summary := analysis.Summarize(stats)
	metrics.RecordsAnalyzed.Add(float64(len(records)))

	// Aggregation over fetched data is cheap; rendering is not. Skip the
	// artifact writes when the caller has already given up.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("deadline expired before render: %w", err)
	}

	paths := s.cache.Paths(key, s.cfg.ExportCSV)
	generatedAt := time.Now()

	if err := s.renderer.RenderHTML(paths.ChartFile, req.Window, summary, buckets, stats, generatedAt); err != nil {
		metrics.ReportsGenerated.WithLabelValues("failed").Inc()
		return nil, err
	}
	if s.cfg.ExportCSV {
		if err := s.renderer.RenderCSV(paths.TableFile, stats); err != nil {
			metrics.ReportsGenerated.WithLabelValues("failed").Inc()
			return nil, err
		}
	}

	result := &models.AnalysisResult{
		From:      req.Window.FromString(),
		To:        req.Window.ToString(),
		Artifacts: paths,
		Summary:   summary,
		Users:     stats,
		Buckets:   buckets,
	}
	if err := s.renderer.WriteSummary(s.cache.summaryPath(key), result); err != nil {
		metrics.ReportsGenerated.WithLabelValues("failed").Inc()
		return nil, err
	}

	outcome := "generated"
	if len(records) == 0 {
		outcome = "empty"
	}
	metrics.ReportsGenerated.WithLabelValues(outcome).Inc()
	metrics.ReportGenerationDuration.Observe(time.Since(start).Seconds())

	log.Info().
		Str("window", key).
		Int("records", len(records)).
		Int("users", summary.TotalUsers).
		Dur("elapsed", time.Since(start)).
		Msg("Report generated")

	return s.respond(result, req, start), nil
}

// respond shapes the stored result for one caller: detail trimming, the
// per-request user cap, and execution time.
func (s *Service) respond(full *models.AnalysisResult, req Request, start time.Time) *models.AnalysisResult {
	out := *full
	if req.IncludeDetails {
		if req.MaxUsers > 0 && len(out.Users) > req.MaxUsers {
			out.Users = out.Users[:req.MaxUsers]
		}
	} else {
		out.Users = nil
		out.Buckets = nil
	}
	out.ExecutionTime = time.Since(start).Seconds()
	return &out
}
