// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

// Package models defines the data structures shared across Callwatch:
// raw session records fetched from the call-log store, the per-user
// failure statistics derived from them, the rate-bucket histogram used
// for report visualization, and the API request/response types.
//
// All types here are plain data carriers. Derivation logic lives in
// internal/analysis; persistence lives in internal/database and
// internal/report.
package models
