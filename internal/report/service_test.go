// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

package report

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callwatchio/callwatch/internal/config"
	"github.com/callwatchio/callwatch/internal/models"
)

// fakeFetcher returns a fixed record set and counts fetches.
type fakeFetcher struct {
	records []models.SessionRecord
	err     error
	calls   atomic.Int64
}

func (f *fakeFetcher) FetchSessionRecords(_ context.Context, _, _ time.Time) ([]models.SessionRecord, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func leg(id string) *string { return &id }

func sampleRecords() []models.SessionRecord {
	return []models.SessionRecord{
		{SessionID: "1", UserName: "Amy", CallLegID: nil},
		{SessionID: "2", UserName: "Amy", CallLegID: leg("c1")},
		{SessionID: "3", UserName: "amy ", CallLegID: leg("c2")},
		{SessionID: "4", UserName: "Bob", CallLegID: leg("c3")},
	}
}

func testReportConfig(t *testing.T) *config.ReportConfig {
	t.Helper()
	return &config.ReportConfig{
		OutputDir:          t.TempDir(),
		FreshnessTTL:       24 * time.Hour,
		MaxUsers:           15,
		BucketDisplayLimit: 10,
		ExportCSV:          true,
	}
}

func testRequest(t *testing.T) Request {
	t.Helper()
	return Request{Window: testWindow(t), MaxUsers: 15, IncludeDetails: true}
}

func TestGenerateProducesArtifacts(t *testing.T) {
	fetcher := &fakeFetcher{records: sampleRecords()}
	cfg := testReportConfig(t)
	svc := NewService(fetcher, cfg)

	result, err := svc.Generate(context.Background(), testRequest(t))
	require.NoError(t, err)

	assert.False(t, result.Cached)
	assert.Equal(t, "2025-05-20", result.From)
	assert.Equal(t, "2025-05-22", result.To)
	assert.Equal(t, 2, result.Summary.TotalUsers)
	assert.Equal(t, 4, result.Summary.TotalSessions)
	assert.Equal(t, 1, result.Summary.TotalFailures)
	assert.Positive(t, result.ExecutionTime)

	for _, path := range []string{result.Artifacts.TableFile, result.Artifacts.ChartFile} {
		_, statErr := os.Stat(path)
		assert.NoError(t, statErr, path)
	}
}

func TestGenerateSecondCallHitsCache(t *testing.T) {
	fetcher := &fakeFetcher{records: sampleRecords()}
	svc := NewService(fetcher, testReportConfig(t))
	req := testRequest(t)

	first, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	require.False(t, first.Cached)

	second, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, int64(1), fetcher.calls.Load(), "cache hit must not refetch")
	assert.Equal(t, first.Summary, second.Summary)
}

func TestGenerateForceRefetches(t *testing.T) {
	fetcher := &fakeFetcher{records: sampleRecords()}
	svc := NewService(fetcher, testReportConfig(t))
	req := testRequest(t)

	_, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)

	req.Force = true
	result, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Equal(t, int64(2), fetcher.calls.Load())
}

func TestGenerateEmptyRecordSet(t *testing.T) {
	fetcher := &fakeFetcher{}
	svc := NewService(fetcher, testReportConfig(t))

	result, err := svc.Generate(context.Background(), testRequest(t))
	require.NoError(t, err, "zero rows is a valid empty report")

	assert.Zero(t, result.Summary.TotalUsers)
	assert.Zero(t, result.Summary.OverallFailureRate)
	assert.Empty(t, result.Users)
	require.Len(t, result.Buckets, 10)
	for _, b := range result.Buckets {
		assert.Zero(t, b.Count)
	}
}

func TestGenerateWithoutDetails(t *testing.T) {
	fetcher := &fakeFetcher{records: sampleRecords()}
	svc := NewService(fetcher, testReportConfig(t))

	req := testRequest(t)
	req.IncludeDetails = false

	result, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, result.Users)
	assert.Nil(t, result.Buckets)
	assert.Equal(t, 2, result.Summary.TotalUsers, "summary always present")
}

func TestGenerateMaxUsersCapsResponse(t *testing.T) {
	records := make([]models.SessionRecord, 0, 20)
	for i := 0; i < 20; i++ {
		records = append(records, models.SessionRecord{
			SessionID: string(rune('a' + i)),
			UserName:  "user" + string(rune('a'+i)),
		})
	}
	fetcher := &fakeFetcher{records: records}
	svc := NewService(fetcher, testReportConfig(t))

	req := testRequest(t)
	req.MaxUsers = 5

	result, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, result.Users, 5)
	assert.Equal(t, 20, result.Summary.TotalUsers, "cap trims display, not stats")
}

func TestGenerateFetchErrorPropagates(t *testing.T) {
	fetcher := &fakeFetcher{err: assert.AnError}
	svc := NewService(fetcher, testReportConfig(t))

	_, err := svc.Generate(context.Background(), testRequest(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestGenerateCanceledContext(t *testing.T) {
	fetcher := &fakeFetcher{records: sampleRecords()}
	svc := NewService(fetcher, testReportConfig(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Generate(ctx, testRequest(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, fetcher.calls.Load(), "deadline checked before fetch")
}

// cancelingFetcher returns records but cancels the request context on
// the way out, as a client abort arriving mid-fetch would.
type cancelingFetcher struct {
	records []models.SessionRecord
	cancel  context.CancelFunc
	calls   atomic.Int64
}

func (f *cancelingFetcher) FetchSessionRecords(_ context.Context, _, _ time.Time) ([]models.SessionRecord, error) {
	f.calls.Add(1)
	f.cancel()
	return f.records, nil
}

func TestGenerateDeadlineExpiredBeforeRender(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &cancelingFetcher{records: sampleRecords(), cancel: cancel}
	cfg := testReportConfig(t)
	svc := NewService(fetcher, cfg)

	_, err := svc.Generate(ctx, testRequest(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(1), fetcher.calls.Load())

	// Rendering was skipped, so nothing may have been published.
	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no artifact may be published after the deadline expired")
}

func TestGenerateCorruptSidecarRegenerates(t *testing.T) {
	fetcher := &fakeFetcher{records: sampleRecords()}
	svc := NewService(fetcher, testReportConfig(t))
	req := testRequest(t)

	first, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	require.False(t, first.Cached)

	// Fresh artifacts with an unreadable sidecar must regenerate rather
	// than serve something inconsistent.
	sidecar := svc.cache.summaryPath(req.Window.Key())
	require.NoError(t, os.WriteFile(sidecar, []byte("{not json"), 0o600))

	second, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, second.Cached)
	assert.Equal(t, int64(2), fetcher.calls.Load(), "corrupt cache must refetch")
	assert.Equal(t, first.Summary, second.Summary)

	// The regeneration rewrote a readable sidecar.
	restored, err := LoadSummary(sidecar)
	require.NoError(t, err)
	assert.Equal(t, first.Summary, restored.Summary)
}

func TestGenerateCSVDisabled(t *testing.T) {
	fetcher := &fakeFetcher{records: sampleRecords()}
	cfg := testReportConfig(t)
	cfg.ExportCSV = false
	svc := NewService(fetcher, cfg)

	result, err := svc.Generate(context.Background(), testRequest(t))
	require.NoError(t, err)

	assert.Empty(t, result.Artifacts.TableFile)
	_, statErr := os.Stat(result.Artifacts.ChartFile)
	assert.NoError(t, statErr)
}
