// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callwatchio/callwatch/internal/models"
)

func userWithRate(name string, rate float64) models.UserFailureStats {
	return models.UserFailureStats{Name: name, TotalSessions: 10, FailureRate: rate, SuccessRate: 1 - rate}
}

func TestBinEmptyInput(t *testing.T) {
	buckets := Bin(nil)
	require.Len(t, buckets, NumBuckets)

	for i, b := range buckets {
		assert.Equal(t, i*10, b.MinPercent)
		assert.Equal(t, i*10+10, b.MaxPercent)
		assert.Zero(t, b.Count)
		assert.Empty(t, b.Members)
		assert.Zero(t, b.PercentOfTotal)
	}
}

func TestBinLabels(t *testing.T) {
	buckets := Bin(nil)
	require.Len(t, buckets, NumBuckets)
	assert.Equal(t, "0-10%", buckets[0].RangeLabel)
	assert.Equal(t, "10-20%", buckets[1].RangeLabel)
	assert.Equal(t, "90-100%", buckets[9].RangeLabel)
}

func TestBinBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		rate      float64
		wantLabel string
	}{
		{"zero rate", 0.0, "0-10%"},
		{"just under boundary", 0.099, "0-10%"},
		{"exactly 10 percent", 0.1, "10-20%"},
		{"one third", 1.0 / 3.0, "30-40%"},
		{"exactly 90 percent", 0.9, "90-100%"},
		{"full failure", 1.0, "90-100%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buckets := Bin([]models.UserFailureStats{userWithRate("u", tt.rate)})

			var got string
			for _, b := range buckets {
				if b.Count == 1 {
					got = b.RangeLabel
				}
			}
			assert.Equal(t, tt.wantLabel, got)
		})
	}
}

func TestBinCountsSumToTotal(t *testing.T) {
	stats := []models.UserFailureStats{
		userWithRate("a", 0.05),
		userWithRate("b", 0.15),
		userWithRate("c", 0.15),
		userWithRate("d", 0.5),
		userWithRate("e", 1.0),
	}

	buckets := Bin(stats)
	require.Len(t, buckets, NumBuckets)

	var sum int
	for _, b := range buckets {
		sum += b.Count
		assert.Len(t, b.Members, b.Count)
	}
	assert.Equal(t, len(stats), sum)
}

func TestBinPercentOfTotal(t *testing.T) {
	stats := []models.UserFailureStats{
		userWithRate("a", 0.05),
		userWithRate("b", 0.05),
		userWithRate("c", 0.5),
	}

	buckets := Bin(stats)
	assert.InDelta(t, 66.7, buckets[0].PercentOfTotal, 1e-9, "rounded to one decimal")
	assert.InDelta(t, 33.3, buckets[5].PercentOfTotal, 1e-9)
}

func TestBinPreservesMemberOrder(t *testing.T) {
	// Input already sorted rate desc, total desc; binning must not reorder.
	stats := []models.UserFailureStats{
		{Name: "a", TotalSessions: 20, FailureRate: 0.18},
		{Name: "b", TotalSessions: 10, FailureRate: 0.15},
		{Name: "c", TotalSessions: 5, FailureRate: 0.12},
	}

	buckets := Bin(stats)
	require.Equal(t, 3, buckets[1].Count)
	assert.Equal(t, "a", buckets[1].Members[0].Name)
	assert.Equal(t, "b", buckets[1].Members[1].Name)
	assert.Equal(t, "c", buckets[1].Members[2].Name)
}
