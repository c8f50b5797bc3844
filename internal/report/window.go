// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

package report

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidWindow marks a date window that cannot be analyzed:
// unparseable dates or start after end. Surfaced before any I/O.
var ErrInvalidWindow = errors.New("invalid date window")

// dateLayout is the wire format for window dates.
const dateLayout = "2006-01-02"

// Window is an inclusive date range at day granularity. Start and End
// are UTC midnights.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow parses from/to date strings (YYYY-MM-DD, inclusive) into a
// validated Window. Returns ErrInvalidWindow on malformed input or when
// from is after to.
func NewWindow(from, to string) (Window, error) {
	start, err := time.ParseInLocation(dateLayout, from, time.UTC)
	if err != nil {
		return Window{}, fmt.Errorf("%w: bad from date %q", ErrInvalidWindow, from)
	}
	end, err := time.ParseInLocation(dateLayout, to, time.UTC)
	if err != nil {
		return Window{}, fmt.Errorf("%w: bad to date %q", ErrInvalidWindow, to)
	}
	if start.After(end) {
		return Window{}, fmt.Errorf("%w: from %s is after to %s", ErrInvalidWindow, from, to)
	}
	return Window{Start: start, End: end}, nil
}

// WindowFromDays builds a relative window covering the past days up to
// and including today (in UTC).
func WindowFromDays(days int, now time.Time) Window {
	today := now.UTC().Truncate(24 * time.Hour)
	return Window{Start: today.AddDate(0, 0, -days), End: today}
}

// Key returns the canonical cache key for the window, e.g.
// "2025-05-20_2025-05-22". Identical windows always yield identical keys.
func (w Window) Key() string {
	return w.Start.Format(dateLayout) + "_" + w.End.Format(dateLayout)
}

// Bounds returns the half-open time range [from, to) covering every
// instant of every day in the window.
func (w Window) Bounds() (time.Time, time.Time) {
	return w.Start, w.End.AddDate(0, 0, 1)
}

// FromString and ToString return the window edges in wire format.
func (w Window) FromString() string { return w.Start.Format(dateLayout) }
func (w Window) ToString() string   { return w.End.Format(dateLayout) }
