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

func leg(id string) *string {
	return &id
}

func record(sessionID, userName string, callLeg *string) models.SessionRecord {
	return models.SessionRecord{SessionID: sessionID, UserName: userName, CallLegID: callLeg}
}

func TestAggregateEmptyInput(t *testing.T) {
	stats := Aggregate(nil)
	assert.Empty(t, stats)

	stats = Aggregate([]models.SessionRecord{})
	assert.Empty(t, stats)
}

func TestAggregateNameNormalization(t *testing.T) {
	records := []models.SessionRecord{
		record("1", "Amy", nil),
		record("2", "Amy", leg("c1")),
		record("3", "amy ", leg("c2")),
	}

	stats := Aggregate(records)
	require.Len(t, stats, 1)

	u := stats[0]
	assert.Equal(t, "Amy", u.Name, "first-seen casing wins")
	assert.Equal(t, 3, u.TotalSessions)
	assert.Equal(t, 1, u.FailedSessions)
	assert.Equal(t, 2, u.SuccessSessions)
	assert.InDelta(t, 1.0/3.0, u.FailureRate, 1e-9)
}

func TestAggregateFirstSeenCasingLowercase(t *testing.T) {
	records := []models.SessionRecord{
		record("1", "  bob ", leg("c1")),
		record("2", "Bob", nil),
	}

	stats := Aggregate(records)
	require.Len(t, stats, 1)
	assert.Equal(t, "bob", stats[0].Name)
	assert.Equal(t, 2, stats[0].TotalSessions)
}

func TestAggregateCountsAndRates(t *testing.T) {
	records := []models.SessionRecord{
		record("1", "alice", nil),
		record("2", "alice", nil),
		record("3", "alice", leg("c1")),
		record("4", "bob", leg("c2")),
		record("5", "bob", leg("c3")),
	}

	stats := Aggregate(records)
	require.Len(t, stats, 2)

	for _, u := range stats {
		assert.Equal(t, u.TotalSessions, u.FailedSessions+u.SuccessSessions)
		assert.InDelta(t, 1.0, u.FailureRate+u.SuccessRate, 1e-9)
	}

	// alice fails at 2/3, bob at 0/2, so alice sorts first.
	assert.Equal(t, "alice", stats[0].Name)
	assert.InDelta(t, 2.0/3.0, stats[0].FailureRate, 1e-9)
	assert.Equal(t, "bob", stats[1].Name)
	assert.Zero(t, stats[1].FailureRate)
}

func TestAggregateSortOrder(t *testing.T) {
	// Same failure rate (50%), different volumes: higher volume first.
	records := []models.SessionRecord{
		record("1", "small", nil),
		record("2", "small", leg("c1")),
		record("3", "big", nil),
		record("4", "big", nil),
		record("5", "big", leg("c2")),
		record("6", "big", leg("c3")),
		record("7", "worst", nil),
	}

	stats := Aggregate(records)
	require.Len(t, stats, 3)

	assert.Equal(t, "worst", stats[0].Name, "100% rate sorts above 50%")
	assert.Equal(t, "big", stats[1].Name, "volume breaks the rate tie")
	assert.Equal(t, "small", stats[2].Name)
}

func TestAggregateSortStability(t *testing.T) {
	// Full ties on both keys keep first-encounter order.
	records := []models.SessionRecord{
		record("1", "first", nil),
		record("2", "second", nil),
		record("3", "third", nil),
	}

	stats := Aggregate(records)
	require.Len(t, stats, 3)
	assert.Equal(t, "first", stats[0].Name)
	assert.Equal(t, "second", stats[1].Name)
	assert.Equal(t, "third", stats[2].Name)

	// Re-sorting an already-sorted sequence yields the same sequence.
	again := Aggregate(records)
	assert.Equal(t, stats, again)
}
