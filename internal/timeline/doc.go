/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package timeline generates a sequence of time steps from a range and
// drives a playback control over it.
//
// GenerateSteps turns a Range into an ordered, de-duplicated sequence.
// A Controller owns the current step, a recurring timer and the rendered
// slots: Play and Pause switch the timer, Select jumps to a step (and
// always pauses), and OnNextStep is called once per step change.
package timeline
