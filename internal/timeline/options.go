/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package timeline

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/grimnir_timeline/internal/clock"
	"github.com/friendsincode/grimnir_timeline/internal/dom"
)

// Defaults applied to empty options.
const (
	DefaultPausedText  = "PLAY"
	DefaultPlayingText = "PAUSE"
	DefaultDateFormat  = time.DateOnly
	DefaultPosition    = "topright"
)

// Options configures a timeline control. The value is copied by New;
// the caller's copy is never modified.
type Options struct {
	// Autoplay starts playback as soon as the control is mounted.
	Autoplay bool
	// Interval is the playback period.
	Interval time.Duration
	// OnNextStep is called with the new current step every time it changes.
	OnNextStep func(step time.Time)
	// OnPlaybackChange is called when playback starts or stops.
	OnPlaybackChange func(playing bool)
	// OnStepChange is called right after OnNextStep with the index and
	// cause of the change.
	OnStepChange func(StepChange)
	// Position is the host corner the control is placed in.
	Position string
	// Location is used for labels and notifications. Nil keeps the
	// steps' own location.
	Location *time.Location

	Button   ButtonOptions
	Timeline TimelineOptions

	Calendar Calendar
	Clock    clock.Clock
	Logger   zerolog.Logger
}

// ButtonOptions configures the play/pause button.
type ButtonOptions struct {
	// PausedText is shown while paused (the play affordance).
	PausedText string
	// PlayingText is shown while playing (the pause affordance).
	PlayingText string
	// Render builds a custom button element. Returning nil hides the button.
	Render func() *dom.Element
}

// TimelineOptions configures step generation and slot rendering.
type TimelineOptions struct {
	// DateFormat is a Go reference layout for slot labels.
	DateFormat string
	Range      Range
	// RenderSlot builds an inactive slot element.
	RenderSlot func() *dom.Element
	// RenderActiveSlot builds the active slot element; falls back to
	// RenderSlot when nil.
	RenderActiveSlot func() *dom.Element
}

// withDefaults returns a resolved copy of o.
func (o Options) withDefaults() Options {
	out := o
	if out.Button.PausedText == "" {
		out.Button.PausedText = DefaultPausedText
	}
	if out.Button.PlayingText == "" {
		out.Button.PlayingText = DefaultPlayingText
	}
	if out.Timeline.DateFormat == "" {
		out.Timeline.DateFormat = DefaultDateFormat
	}
	if out.Position == "" {
		out.Position = DefaultPosition
	}
	if out.Calendar == nil {
		out.Calendar = Gregorian{Location: out.Location}
	}
	if out.Clock == nil {
		out.Clock = clock.Real{}
	}
	return out
}
