// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

package models

// SessionRecord is one row from the call-log store: a voice session tied
// to a user and, when the call completed, a provider call-leg SID.
//
// A NULL call-leg SID marks the session as failed. UserName may carry
// incidental surrounding whitespace from the upstream database and is
// normalized by the aggregator before grouping.
type SessionRecord struct {
	SessionID string  `json:"session_id"`
	UserName  string  `json:"user_name"`
	CallLegID *string `json:"call_leg_id"`
}

// Failed reports whether this session lacks a call-leg SID.
func (r SessionRecord) Failed() bool {
	return r.CallLegID == nil
}

// UserFailureStats holds the derived per-user failure statistics for one
// analysis run. Instances are immutable once produced by the aggregator.
type UserFailureStats struct {
	Name            string  `json:"user_name"`
	TotalSessions   int     `json:"total_sessions"`
	FailedSessions  int     `json:"failed_sessions"`
	SuccessSessions int     `json:"success_sessions"`
	FailureRate     float64 `json:"failure_rate"`
	SuccessRate     float64 `json:"success_rate"`
}

// RateBucket is one fixed-width failure-rate percentage band. Ten buckets
// cover [0,100]; every band is half-open [low, low+10) except the top
// band, which is closed at 100.
type RateBucket struct {
	// RangeLabel is the display label, e.g. "10-20%".
	RangeLabel string `json:"range_label"`

	// MinPercent and MaxPercent are the band edges in percent.
	MinPercent int `json:"min_percent"`
	MaxPercent int `json:"max_percent"`

	// Members holds the bucket's users sorted by failure rate descending,
	// then total sessions descending.
	Members []UserFailureStats `json:"members"`

	Count          int     `json:"count"`
	PercentOfTotal float64 `json:"percent_of_total"`
}

// SummaryStats holds corpus-wide statistics for one analysis run.
//
// OverallFailureRate is pooled (total failures over total sessions); it is
// deliberately distinct from AvgUserFailureRate, the unweighted mean of
// per-user rates. The two diverge whenever users have unequal session
// volumes.
type SummaryStats struct {
	TotalUsers            int     `json:"total_users"`
	TotalSessions         int     `json:"total_sessions"`
	TotalFailures         int     `json:"total_failures"`
	OverallFailureRate    float64 `json:"overall_failure_rate"`
	AvgUserFailureRate    float64 `json:"avg_user_failure_rate"`
	MedianUserFailureRate float64 `json:"median_user_failure_rate"`
	MinUserFailureRate    float64 `json:"min_user_failure_rate"`
	MaxUserFailureRate    float64 `json:"max_user_failure_rate"`
	StdUserFailureRate    float64 `json:"std_user_failure_rate"`
}
