/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/friendsincode/grimnir_timeline/internal/timeline"
)

// TimelineFile is the YAML definition of a timeline control.
type TimelineFile struct {
	Autoplay bool   `yaml:"autoplay"`
	Interval int    `yaml:"interval"` // milliseconds
	Position string `yaml:"position"`
	Location string `yaml:"location"`

	Button struct {
		PausedText  string `yaml:"paused_text"`
		PlayingText string `yaml:"playing_text"`
	} `yaml:"button"`

	Timeline TimelineSection `yaml:"timeline"`
}

// TimelineSection describes the steps of the timeline.
type TimelineSection struct {
	DateFormat string    `yaml:"date_format"`
	Range      []string  `yaml:"range"`
	Step       *StepSpec `yaml:"step"`
	RRule      string    `yaml:"rrule"`
}

// StepSpec decodes a step either from a unit map ({day: 1, hour: 6}) or
// from a Go duration string ("90m").
type StepSpec timeline.Step

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StepSpec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		d, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("line %d: step %q: %w", value.Line, value.Value, err)
		}
		if d%time.Millisecond != 0 {
			return fmt.Errorf("line %d: step %q is not a whole number of milliseconds: %w", value.Line, value.Value, timeline.ErrInvalidStep)
		}
		*s = StepSpec(timeline.StepOf(d))
		return nil
	case yaml.MappingNode:
		var units map[string]int
		if err := value.Decode(&units); err != nil {
			return fmt.Errorf("line %d: step: %w", value.Line, err)
		}
		var step timeline.Step
		for unit, n := range units {
			field := stepField(&step, unit)
			if field == nil {
				return fmt.Errorf("line %d: unknown step unit %q", value.Line, unit)
			}
			*field += n
		}
		*s = StepSpec(step)
		return nil
	default:
		return fmt.Errorf("line %d: step must be a mapping or a duration string", value.Line)
	}
}

func stepField(step *timeline.Step, unit string) *int {
	switch strings.TrimSuffix(strings.ToLower(unit), "s") {
	case "year":
		return &step.Years
	case "quarter":
		return &step.Quarters
	case "month":
		return &step.Months
	case "week":
		return &step.Weeks
	case "day":
		return &step.Days
	case "hour":
		return &step.Hours
	case "minute":
		return &step.Minutes
	case "second":
		return &step.Seconds
	case "millisecond":
		return &step.Milliseconds
	}
	return nil
}

// LoadTimeline reads and parses a timeline definition file.
func LoadTimeline(path string) (*TimelineFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read timeline file: %w", err)
	}
	tf, err := ParseTimeline(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tf, nil
}

// ParseTimeline parses a YAML timeline definition.
func ParseTimeline(data []byte) (*TimelineFile, error) {
	var tf TimelineFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse timeline: %w", err)
	}
	return &tf, nil
}

// dateLayouts are tried in order when parsing range dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

func parseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// ToOptions converts the definition into timeline options. Callbacks,
// clock and logger are left for the caller to set.
func (tf *TimelineFile) ToOptions() (timeline.Options, error) {
	var opts timeline.Options

	if tf.Interval <= 0 {
		return opts, fmt.Errorf("interval %d: %w", tf.Interval, timeline.ErrInvalidInterval)
	}

	loc := time.UTC
	if tf.Location != "" {
		loaded, err := time.LoadLocation(tf.Location)
		if err != nil {
			return opts, fmt.Errorf("location %q: %w", tf.Location, err)
		}
		loc = loaded
	}

	r, err := tf.Timeline.buildRange(loc)
	if err != nil {
		return opts, err
	}

	opts = timeline.Options{
		Autoplay: tf.Autoplay,
		Interval: time.Duration(tf.Interval) * time.Millisecond,
		Position: tf.Position,
		Location: loc,
		Button: timeline.ButtonOptions{
			PausedText:  tf.Button.PausedText,
			PlayingText: tf.Button.PlayingText,
		},
		Timeline: timeline.TimelineOptions{
			DateFormat: tf.Timeline.DateFormat,
			Range:      r,
		},
	}
	return opts, nil
}

// buildRange picks the range variant: a recurrence when rrule is set,
// explicit points for three or more dates, otherwise two endpoints that
// require a step.
func (s TimelineSection) buildRange(loc *time.Location) (timeline.Range, error) {
	points := make([]time.Time, 0, len(s.Range))
	for i, raw := range s.Range {
		t, err := parseDate(raw, loc)
		if err != nil {
			return nil, fmt.Errorf("range[%d]: %w", i, err)
		}
		points = append(points, t)
	}

	if s.RRule != "" {
		if len(points) != 1 {
			return nil, fmt.Errorf("rrule needs exactly one range date as its start, got %d", len(points))
		}
		return timeline.RecurrenceRange{Start: points[0], Rule: s.RRule}, nil
	}

	switch {
	case len(points) > 2:
		return timeline.Points(points...), nil
	case len(points) == 2:
		if s.Step == nil {
			return nil, fmt.Errorf("range of two dates: %w", timeline.ErrMissingStep)
		}
		return timeline.Between(points[0], points[1], timeline.Step(*s.Step)), nil
	default:
		return nil, fmt.Errorf("range needs two dates and a step, or three or more dates: %w", timeline.ErrEmptyRange)
	}
}
