/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package timeline

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// MaxSteps bounds the length of a generated sequence.
const MaxSteps = 100000

// GenerateSteps produces the ordered, de-duplicated step sequence for r
// using the Gregorian calendar.
func GenerateSteps(r Range) ([]time.Time, error) {
	return GenerateStepsWith(Gregorian{}, r)
}

// GenerateStepsWith produces the step sequence for r using cal to split
// stepped ranges. The result always has at least one element.
func GenerateStepsWith(cal Calendar, r Range) ([]time.Time, error) {
	switch v := r.(type) {
	case SteppedRange:
		return steppedSteps(cal, v)
	case *SteppedRange:
		if v == nil {
			return nil, ErrEmptyRange
		}
		return steppedSteps(cal, *v)
	case ExplicitPoints:
		return explicitSteps(v.Points)
	case *ExplicitPoints:
		if v == nil {
			return nil, ErrEmptyRange
		}
		return explicitSteps(v.Points)
	case RecurrenceRange:
		return recurrenceSteps(v)
	case *RecurrenceRange:
		if v == nil {
			return nil, ErrEmptyRange
		}
		return recurrenceSteps(*v)
	case nil:
		return nil, ErrEmptyRange
	default:
		return nil, fmt.Errorf("%T: %w", r, ErrUnknownRange)
	}
}

func steppedSteps(cal Calendar, r SteppedRange) ([]time.Time, error) {
	if r.Step == (Step{}) {
		return nil, ErrMissingStep
	}
	if !r.Step.Positive() {
		return nil, fmt.Errorf("step %s: %w", r.Step, ErrInvalidStep)
	}
	if r.Start.After(r.End) {
		return nil, fmt.Errorf("%s > %s: %w", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339), ErrReversedRange)
	}
	if r.Start.Equal(r.End) {
		return []time.Time{r.Start}, nil
	}

	intervals, err := cal.Split(r.Start, r.End, r.Step)
	if err != nil {
		return nil, fmt.Errorf("split range: %w", err)
	}

	seen := make(map[int64]struct{}, len(intervals)+1)
	steps := make([]time.Time, 0, len(intervals)+1)
	add := func(t time.Time) {
		key := t.UnixNano()
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		steps = append(steps, t)
	}
	for _, iv := range intervals {
		add(iv.Start)
		add(iv.End)
	}
	if len(steps) == 0 {
		steps = append(steps, r.Start)
	}
	return steps, nil
}

func explicitSteps(points []time.Time) ([]time.Time, error) {
	if len(points) == 0 {
		return nil, ErrEmptyRange
	}
	if len(points) > MaxSteps {
		return nil, ErrTooManySteps
	}
	seen := make(map[int64]int, len(points))
	for i, p := range points {
		if prev, ok := seen[p.UnixNano()]; ok {
			return nil, fmt.Errorf("points %d and %d: %w", prev, i, ErrDuplicatePoint)
		}
		seen[p.UnixNano()] = i
	}
	return append([]time.Time(nil), points...), nil
}

func recurrenceSteps(r RecurrenceRange) ([]time.Time, error) {
	opt, err := rrule.StrToROption(r.Rule)
	if err != nil {
		return nil, fmt.Errorf("parse recurrence %q: %w", r.Rule, err)
	}
	if opt.Count == 0 && opt.Until.IsZero() {
		return nil, fmt.Errorf("recurrence %q: %w", r.Rule, ErrUnboundedRecurrence)
	}
	if opt.Count > MaxSteps {
		return nil, ErrTooManySteps
	}
	opt.Dtstart = r.Start

	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("build recurrence %q: %w", r.Rule, err)
	}

	var points []time.Time
	next := rule.Iterator()
	for {
		t, ok := next()
		if !ok {
			break
		}
		if len(points) >= MaxSteps {
			return nil, ErrTooManySteps
		}
		points = append(points, t)
	}
	return explicitSteps(points)
}
