// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

// Package report turns session records into persisted report artifacts.
//
// It owns the date-window abstraction, the freshness cache that decides
// whether existing artifacts can be reused, the CSV/HTML renderer with
// atomic publish, and the orchestrating service that ties fetch,
// analysis, and rendering together.
package report
