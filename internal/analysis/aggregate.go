// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

package analysis

import (
	"sort"
	"strings"

	"github.com/callwatchio/callwatch/internal/models"
)

// Aggregate groups raw session records by user and computes per-user
// failure statistics.
//
// User names are normalized before grouping: surrounding whitespace is
// trimmed and matching is case-insensitive, so "Amy" and " amy " fold
// into a single user. The display name is the trimmed name of the first
// record seen for the group.
//
// The result is sorted by failure rate descending, then total sessions
// descending. The sort is stable: users tied on both keys keep their
// first-encounter order. Empty input yields an empty slice.
func Aggregate(records []models.SessionRecord) []models.UserFailureStats {
	type userAccum struct {
		displayName string
		total       int
		failed      int
		order       int
	}

	accums := make(map[string]*userAccum)
	keys := make([]string, 0)

	for _, rec := range records {
		display := strings.TrimSpace(rec.UserName)
		key := strings.ToLower(display)

		acc, ok := accums[key]
		if !ok {
			acc = &userAccum{displayName: display, order: len(keys)}
			accums[key] = acc
			keys = append(keys, key)
		}

		acc.total++
		if rec.Failed() {
			acc.failed++
		}
	}

	stats := make([]models.UserFailureStats, 0, len(keys))
	for _, key := range keys {
		acc := accums[key]
		rate := float64(acc.failed) / float64(acc.total)
		stats = append(stats, models.UserFailureStats{
			Name:            acc.displayName,
			TotalSessions:   acc.total,
			FailedSessions:  acc.failed,
			SuccessSessions: acc.total - acc.failed,
			FailureRate:     rate,
			SuccessRate:     1 - rate,
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].FailureRate != stats[j].FailureRate {
			return stats[i].FailureRate > stats[j].FailureRate
		}
		return stats[i].TotalSessions > stats[j].TotalSessions
	})

	return stats
}
