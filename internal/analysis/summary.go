// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

package analysis

import (
	"math"
	"sort"

	"github.com/callwatchio/callwatch/internal/models"
)

// Summarize computes corpus-wide statistics over the per-user stats.
//
// OverallFailureRate is pooled: total failures divided by total
// sessions. It intentionally differs from AvgUserFailureRate, the
// unweighted mean of per-user rates, whenever session volumes are
// unequal. StdUserFailureRate is the population standard deviation
// (divisor N). Empty input yields all zeros.
func Summarize(stats []models.UserFailureStats) models.SummaryStats {
	if len(stats) == 0 {
		return models.SummaryStats{}
	}

	var totalSessions, totalFailures int
	rates := make([]float64, len(stats))
	for i, s := range stats {
		totalSessions += s.TotalSessions
		totalFailures += s.FailedSessions
		rates[i] = s.FailureRate
	}

	var sum float64
	minRate, maxRate := rates[0], rates[0]
	for _, r := range rates {
		sum += r
		if r < minRate {
			minRate = r
		}
		if r > maxRate {
			maxRate = r
		}
	}
	mean := sum / float64(len(rates))

	var sqDiff float64
	for _, r := range rates {
		d := r - mean
		sqDiff += d * d
	}
	std := math.Sqrt(sqDiff / float64(len(rates)))

	var overall float64
	if totalSessions > 0 {
		overall = float64(totalFailures) / float64(totalSessions)
	}

	return models.SummaryStats{
		TotalUsers:            len(stats),
		TotalSessions:         totalSessions,
		TotalFailures:         totalFailures,
		OverallFailureRate:    overall,
		AvgUserFailureRate:    mean,
		MedianUserFailureRate: median(rates),
		MinUserFailureRate:    minRate,
		MaxUserFailureRate:    maxRate,
		StdUserFailureRate:    std,
	}
}

// median returns the middle value of the rates, averaging the two middle
// values for even-length input. The input slice is not modified.
func median(rates []float64) float64 {
	sorted := make([]float64, len(rates))
	copy(sorted, rates)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
