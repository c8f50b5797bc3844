// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

// Package analysis implements the core failure-rate computations: per-user
// aggregation of raw session records, fixed-width percentage-band binning,
// and corpus-wide summary statistics.
//
// All functions in this package are pure. They never touch the record
// store, the filesystem, or the clock, which keeps them trivially testable
// and safe to call concurrently.
package analysis
