// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

package database

import (
	"context"
	"errors"
	"fmt"

	gobreaker "github.com/sony/gobreaker/v2"
)

// DataSourceError is returned when the record store could not serve a
// request after all retry attempts, or when the circuit breaker rejected
// it outright. Err holds the final attempt's error.
type DataSourceError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("record store %s failed after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

// errorType classifies an error for the query error metric label.
func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	default:
		return "query"
	}
}
