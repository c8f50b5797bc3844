// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

package analysis

import (
	"fmt"
	"math"

	"github.com/callwatchio/callwatch/internal/models"
)

// NumBuckets is the fixed number of failure-rate percentage bands.
const NumBuckets = 10

// Bin distributes per-user stats into ten fixed percentage bands of
// failure rate: [0,10), [10,20), ... [90,100]. Every band except the
// last is half-open; the top band is closed so a 100% failure rate
// lands in "90-100%".
//
// All ten buckets are always returned in ascending order, including
// empty ones. Member order within a bucket follows the input order, so
// a pre-sorted input keeps its sort inside each band.
func Bin(stats []models.UserFailureStats) []models.RateBucket {
	buckets := make([]models.RateBucket, NumBuckets)
	for i := range buckets {
		low := i * 10
		buckets[i] = models.RateBucket{
			RangeLabel: fmt.Sprintf("%d-%d%%", low, low+10),
			MinPercent: low,
			MaxPercent: low + 10,
		}
	}

	for _, s := range stats {
		idx := int(s.FailureRate * 100 / 10)
		if idx >= NumBuckets {
			idx = NumBuckets - 1
		}
		if idx < 0 {
			idx = 0
		}
		buckets[idx].Members = append(buckets[idx].Members, s)
		buckets[idx].Count++
	}

	total := len(stats)
	for i := range buckets {
		if total > 0 {
			buckets[i].PercentOfTotal = round1(float64(buckets[i].Count) / float64(total) * 100)
		}
	}

	return buckets
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
