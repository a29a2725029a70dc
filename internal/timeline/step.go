/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package timeline

import (
	"fmt"
	"strings"
	"time"
)

// Step is a calendar-aware step size. Date units are applied with
// time.AddDate, the remaining units as an exact duration.
type Step struct {
	Years        int
	Quarters     int
	Months       int
	Weeks        int
	Days         int
	Hours        int
	Minutes      int
	Seconds      int
	Milliseconds int
}

// Days returns a step of n days.
func Days(n int) Step { return Step{Days: n} }

// Months returns a step of n months.
func Months(n int) Step { return Step{Months: n} }

// StepOf returns a step covering d, truncated to whole milliseconds.
func StepOf(d time.Duration) Step { return Step{Milliseconds: int(d / time.Millisecond)} }

func (s Step) units() []int {
	return []int{s.Years, s.Quarters, s.Months, s.Weeks, s.Days, s.Hours, s.Minutes, s.Seconds, s.Milliseconds}
}

// Positive reports whether the step moves time forward: no unit is
// negative and at least one is positive.
func (s Step) Positive() bool {
	positive := false
	for _, u := range s.units() {
		if u < 0 {
			return false
		}
		if u > 0 {
			positive = true
		}
	}
	return positive
}

// clockDuration is the fixed-length part of the step.
func (s Step) clockDuration() time.Duration {
	return time.Duration(s.Hours)*time.Hour +
		time.Duration(s.Minutes)*time.Minute +
		time.Duration(s.Seconds)*time.Second +
		time.Duration(s.Milliseconds)*time.Millisecond
}

// AddTo returns t advanced by k steps. The multiplied units are applied
// in a single call so boundaries never accumulate month-end clamping.
func (s Step) AddTo(t time.Time, k int) time.Time {
	t = t.AddDate(k*s.Years, k*(s.Months+3*s.Quarters), k*(s.Days+7*s.Weeks))
	return t.Add(time.Duration(k) * s.clockDuration())
}

func (s Step) String() string {
	parts := []struct {
		n    int
		unit string
	}{
		{s.Years, "y"}, {s.Quarters, "q"}, {s.Months, "mo"}, {s.Weeks, "w"}, {s.Days, "d"},
		{s.Hours, "h"}, {s.Minutes, "m"}, {s.Seconds, "s"}, {s.Milliseconds, "ms"},
	}
	var sb strings.Builder
	for _, p := range parts {
		if p.n != 0 {
			fmt.Fprintf(&sb, "%d%s", p.n, p.unit)
		}
	}
	if sb.Len() == 0 {
		return "0"
	}
	return sb.String()
}
