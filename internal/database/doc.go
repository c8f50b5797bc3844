// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

// Package database is the call-log record store connector. It speaks SQL
// over database/sql with one of two drivers: an embedded DuckDB store
// (standalone mode, owns its schema) or the upstream Postgres call-log
// database via pgx.
//
// Fetches are wrapped in a circuit breaker, rate-limited, and retried a
// bounded number of times with a fixed delay. Zero rows is a valid result,
// not an error.
package database
