/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package timeline

import (
	"fmt"
	"time"
)

// Interval is a half-open span of time.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Calendar formats step labels and splits ranges into intervals.
type Calendar interface {
	Format(t time.Time, layout string) string
	Split(start, end time.Time, step Step) ([]Interval, error)
}

// Gregorian is the default Calendar backed by package time. A nil
// Location keeps each time's own location.
type Gregorian struct {
	Location *time.Location
}

// Format renders t with a Go reference layout.
func (g Gregorian) Format(t time.Time, layout string) string {
	if g.Location != nil {
		t = t.In(g.Location)
	}
	return t.Format(layout)
}

// Split cuts [start, end] into consecutive intervals of step. Boundary k
// is start advanced by k steps; the last interval is truncated at end.
func (g Gregorian) Split(start, end time.Time, step Step) ([]Interval, error) {
	if !step.Positive() {
		return nil, fmt.Errorf("split by %s: %w", step, ErrInvalidStep)
	}
	if start.After(end) {
		return nil, ErrReversedRange
	}
	if g.Location != nil {
		start, end = start.In(g.Location), end.In(g.Location)
	}

	var out []Interval
	cursor := start
	for k := 1; cursor.Before(end); k++ {
		if len(out) >= MaxSteps {
			return nil, ErrTooManySteps
		}
		next := step.AddTo(start, k)
		if !next.After(cursor) {
			return nil, fmt.Errorf("step %s does not advance past %s: %w", step, cursor, ErrInvalidStep)
		}
		if next.After(end) {
			next = end
		}
		out = append(out, Interval{Start: cursor, End: next})
		cursor = next
	}
	return out, nil
}
