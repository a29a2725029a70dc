/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package timeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/grimnir_timeline/internal/clock"
	"github.com/friendsincode/grimnir_timeline/internal/dom"
)

// State is the playback state of a controller.
type State int

const (
	Paused State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "paused"
}

// Cause says what moved the current step.
type Cause int

const (
	CauseTick Cause = iota
	CauseSelect
)

func (c Cause) String() string {
	if c == CauseSelect {
		return "select"
	}
	return "tick"
}

// StepChange describes one change of the current step.
type StepChange struct {
	Index int
	Step  time.Time
	Cause Cause
}

// Snapshot is a point-in-time view of a controller.
type Snapshot struct {
	Index   int       `json:"index"`
	Step    time.Time `json:"step"`
	Label   string    `json:"label"`
	State   State     `json:"-"`
	Playing bool      `json:"playing"`
	Mounted bool      `json:"mounted"`
	Count   int       `json:"count"`
}

// Controller steps through a fixed sequence of time points, either on a
// timer or by explicit selection, and renders the sequence as slots.
//
// Every event (tick, selection, toggle, mount, unmount) runs under one
// lock, so callbacks and renderers execute inside that turn and must not
// call back into the controller synchronously.
type Controller struct {
	opts   Options
	steps  []time.Time
	labels []string
	clock  clock.Clock
	logger zerolog.Logger

	mu      sync.Mutex
	mounted bool
	index   int
	playing bool
	timer   clock.Timer
	gen     uint64

	root   *dom.Element
	button *dom.Element
}

// New validates opts, generates the step sequence and returns an
// unmounted controller.
func New(opts Options) (*Controller, error) {
	if opts.OnNextStep == nil {
		return nil, ErrMissingCallback
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("interval %s: %w", opts.Interval, ErrInvalidInterval)
	}

	resolved := opts.withDefaults()
	steps, err := GenerateStepsWith(resolved.Calendar, resolved.Timeline.Range)
	if err != nil {
		return nil, fmt.Errorf("generate steps: %w", err)
	}

	c := &Controller{
		opts:   resolved,
		steps:  steps,
		clock:  resolved.Clock,
		logger: resolved.Logger.With().Str("component", "timeline").Logger(),
	}
	c.labels = make([]string, len(steps))
	for i, step := range steps {
		c.labels[i] = resolved.Calendar.Format(step, resolved.Timeline.DateFormat)
	}

	c.logger.Debug().
		Int("steps", len(steps)).
		Dur("interval", resolved.Interval).
		Bool("autoplay", resolved.Autoplay).
		Msg("timeline created")
	return c, nil
}

// Mount creates the control's root element, appends it to container when
// one is given, and renders the initial state. Autoplay starts here.
func (c *Controller) Mount(container *dom.Element) (*dom.Element, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mounted {
		return nil, ErrAlreadyMounted
	}
	c.mounted = true
	c.index = 0
	c.playing = false

	c.root = dom.Create("div", CSSControl+" "+CSSControl+"--"+c.opts.Position, container)
	if c.opts.Autoplay {
		c.startLocked()
	}
	c.renderLocked()

	c.logger.Debug().Bool("playing", c.playing).Msg("timeline mounted")
	if c.playing {
		c.notifyPlaybackLocked()
	}
	return c.root, nil
}

// Unmount cancels playback and detaches the root element. No callbacks
// fire after Unmount returns. Unmounting twice is a no-op.
func (c *Controller) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.mounted {
		return
	}
	c.stopTimerLocked()
	c.playing = false
	c.mounted = false
	if c.root != nil {
		c.root.Remove()
	}
	c.root = nil
	c.button = nil
	c.logger.Debug().Msg("timeline unmounted")
}

// Play starts auto-advancing. Playing an already playing control is a
// no-op.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.mounted {
		return ErrNotMounted
	}
	c.playLocked()
	return nil
}

// Pause stops auto-advancing. Pausing a paused or unmounted control is a
// no-op.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pauseLocked()
}

// Toggle switches between playing and paused, as the button does.
func (c *Controller) Toggle() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.mounted {
		return ErrNotMounted
	}
	if c.playing {
		c.pauseLocked()
	} else {
		c.playLocked()
	}
	return nil
}

// Select makes step i current and stops playback. OnNextStep fires for
// every accepted selection.
func (c *Controller) Select(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.mounted {
		return ErrNotMounted
	}
	if i < 0 || i >= len(c.steps) {
		return fmt.Errorf("select %d of %d steps: %w", i, len(c.steps), ErrIndexOutOfRange)
	}

	wasPlaying := c.playing
	if wasPlaying {
		c.stopTimerLocked()
		c.playing = false
	}
	c.index = i
	c.renderLocked()

	c.logger.Debug().Int("index", i).Time("step", c.steps[i]).Msg("step selected")
	c.notifyStepLocked(CauseSelect)
	if wasPlaying {
		c.notifyPlaybackLocked()
	}
	return nil
}

// Steps returns a copy of the generated step sequence.
func (c *Controller) Steps() []time.Time {
	return append([]time.Time(nil), c.steps...)
}

// Labels returns the formatted slot labels.
func (c *Controller) Labels() []string {
	return append([]string(nil), c.labels...)
}

// State returns the current playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing {
		return Playing
	}
	return Paused
}

// Snapshot returns the current index, step and playback state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := Paused
	if c.playing {
		state = Playing
	}
	return Snapshot{
		Index:   c.index,
		Step:    c.point(c.index),
		Label:   c.labels[c.index],
		State:   state,
		Playing: c.playing,
		Mounted: c.mounted,
		Count:   len(c.steps),
	}
}

// View runs fn with the mounted root element inside the controller's
// turn. root is nil when the control is not mounted.
func (c *Controller) View(fn func(root *dom.Element)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.root)
}

func (c *Controller) playLocked() {
	if c.playing {
		return
	}
	c.startLocked()
	c.renderLocked()
	c.logger.Debug().Int("index", c.index).Msg("playback started")
	c.notifyPlaybackLocked()
}

func (c *Controller) pauseLocked() {
	if !c.playing {
		return
	}
	c.stopTimerLocked()
	c.playing = false
	if c.mounted {
		c.renderLocked()
	}
	c.logger.Debug().Int("index", c.index).Msg("playback paused")
	c.notifyPlaybackLocked()
}

// startLocked arms the recurring timer under a fresh generation.
func (c *Controller) startLocked() {
	c.stopTimerLocked()
	c.playing = true
	gen := c.gen
	c.timer = c.clock.AfterFunc(c.opts.Interval, func() { c.tick(gen) })
}

// stopTimerLocked cancels the timer and invalidates ticks already in
// flight. Safe to call with no timer.
func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.mounted || !c.playing || gen != c.gen {
		return
	}
	c.index = (c.index + 1) % len(c.steps)
	c.timer = c.clock.AfterFunc(c.opts.Interval, func() { c.tick(gen) })
	c.renderLocked()

	c.logger.Debug().Int("index", c.index).Time("step", c.steps[c.index]).Msg("timeline advanced")
	c.notifyStepLocked(CauseTick)
}

func (c *Controller) point(i int) time.Time {
	if c.opts.Location != nil {
		return c.steps[i].In(c.opts.Location)
	}
	return c.steps[i]
}

func (c *Controller) notifyStepLocked(cause Cause) {
	step := c.point(c.index)
	c.opts.OnNextStep(step)
	if c.opts.OnStepChange != nil {
		c.opts.OnStepChange(StepChange{Index: c.index, Step: step, Cause: cause})
	}
}

func (c *Controller) notifyPlaybackLocked() {
	if c.opts.OnPlaybackChange != nil {
		c.opts.OnPlaybackChange(c.playing)
	}
}
