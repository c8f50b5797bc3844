// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/callwatchio/callwatch/internal/logging"
)

// schemaStatements creates the embedded store's tables. The layout
// mirrors the upstream call-log database: a users table and a calllog
// table where a NULL exotel_call_sid marks a failed session.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id BIGINT PRIMARY KEY,
		name VARCHAR NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS calllog (
		session_id VARCHAR NOT NULL,
		user_id BIGINT NOT NULL,
		exotel_call_sid VARCHAR,
		created_on TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_calllog_created_on ON calllog(created_on)`,
}

// initSchema creates tables in the embedded duckdb store. Idempotent.
func (d *DB) initSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := d.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

// mockUser pairs a user with a target failure rate for seeded sessions.
type mockUser struct {
	id       int64
	name     string
	sessions int
	failed   int
}

// seedMockData populates the embedded store with a deterministic sample
// corpus for development. Skipped when the calllog table already has rows.
func (d *DB) seedMockData(ctx context.Context) error {
	var existing int
	if err := d.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM calllog`).Scan(&existing); err != nil {
		return fmt.Errorf("failed to count existing records: %w", err)
	}
	if existing > 0 {
		logging.Debug().Int("records", existing).Msg("Mock seed skipped, store already populated")
		return nil
	}

	users := []mockUser{
		{id: 1, name: "Priya Sharma", sessions: 40, failed: 2},
		{id: 2, name: "Rahul Verma", sessions: 25, failed: 6},
		{id: 3, name: "Anita Desai", sessions: 18, failed: 9},
		{id: 4, name: "Vikram Singh", sessions: 12, failed: 10},
		{id: 5, name: "Meera Nair", sessions: 8, failed: 8},
		{id: 6, name: "Arjun Patel", sessions: 30, failed: 0},
	}

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	total := 0
	for _, u := range users {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (user_id, name) VALUES (?, ?)`, u.id, u.name); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.name, err)
		}

		for i := 0; i < u.sessions; i++ {
			// Spread sessions over the past week, oldest first.
			createdOn := now.Add(-time.Duration(i*4+1) * time.Hour)

			var callSid any
			if i >= u.failed {
				callSid = "CA" + uuid.New().String()
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO calllog (session_id, user_id, exotel_call_sid, created_on) VALUES (?, ?, ?, ?)`,
				uuid.New().String(), u.id, callSid, createdOn); err != nil {
				return fmt.Errorf("failed to seed session for %s: %w", u.name, err)
			}
			total++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}

	logging.Info().Int("users", len(users)).Int("sessions", total).Msg("Seeded mock call-log data")
	return nil
}
