// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

package models

import "time"

// ArtifactPaths names the files that make up one persisted report.
type ArtifactPaths struct {
	// TableFile is the per-user CSV table. Empty when CSV export was
	// disabled for the run that produced the artifact.
	TableFile string `json:"table_file,omitempty"`

	// ChartFile is the self-contained HTML visualization.
	ChartFile string `json:"chart_file"`
}

// ReportArtifact describes one persisted report keyed by its date window.
// Artifacts are immutable once published; regeneration replaces the files
// atomically rather than mutating them in place.
type ReportArtifact struct {
	WindowKey   string        `json:"window_key"`
	GeneratedAt time.Time     `json:"generated_at"`
	Paths       ArtifactPaths `json:"paths"`
}

// AnalysisResult is the full outcome of one analysis run: the window it
// covers, whether a cached artifact was reused, the artifact locations,
// and the corpus-wide summary. Users carries the per-user table and is
// only serialized when the caller asked for details.
type AnalysisResult struct {
	From      string        `json:"from"`
	To        string        `json:"to"`
	Cached    bool          `json:"cached"`
	Artifacts ArtifactPaths `json:"artifacts"`
	Summary   SummaryStats  `json:"summary"`

	Users   []UserFailureStats `json:"users,omitempty"`
	Buckets []RateBucket       `json:"buckets,omitempty"`

	// ExecutionTime is the wall-clock duration of the run in seconds.
	ExecutionTime float64 `json:"execution_time"`
}
