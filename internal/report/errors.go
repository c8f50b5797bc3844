// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

package report

import "fmt"

// RenderError is returned when an artifact could not be produced. No
// partial artifact is ever published: the atomic writer discards its
// temp file on failure.
type RenderError struct {
	Artifact string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render %s artifact: %v", e.Artifact, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// CacheError is returned when cached artifacts exist but cannot be
// served (for example an unreadable summary sidecar). Callers treat it
// as a regeneration signal, never as a reason to serve stale data.
type CacheError struct {
	Key string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("report cache for window %s unusable: %v", e.Key, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }
