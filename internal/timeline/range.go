/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package timeline

import "time"

// Range describes which steps a timeline contains. It is one of
// SteppedRange, ExplicitPoints or RecurrenceRange.
type Range interface {
	isRange()
}

// SteppedRange splits [Start, End] into sub-intervals of Step.
type SteppedRange struct {
	Start time.Time
	End   time.Time
	Step  Step
}

// ExplicitPoints uses the points as given: no sorting and no step
// arithmetic.
type ExplicitPoints struct {
	Points []time.Time
}

// RecurrenceRange expands an RFC 5545 recurrence rule (for example
// "FREQ=WEEKLY;COUNT=6") starting at Start. The rule must be bounded by
// COUNT or UNTIL.
type RecurrenceRange struct {
	Start time.Time
	Rule  string
}

func (SteppedRange) isRange()    {}
func (ExplicitPoints) isRange()  {}
func (RecurrenceRange) isRange() {}

// Between is shorthand for a stepped range.
func Between(start, end time.Time, step Step) SteppedRange {
	return SteppedRange{Start: start, End: end, Step: step}
}

// Points is shorthand for an explicit range.
func Points(points ...time.Time) ExplicitPoints {
	return ExplicitPoints{Points: points}
}
