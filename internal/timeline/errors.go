/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package timeline

import "errors"

// Range errors.
var (
	ErrMissingStep         = errors.New("two-point range requires a step")
	ErrInvalidStep         = errors.New("step must be a positive duration")
	ErrReversedRange       = errors.New("range start is after range end")
	ErrEmptyRange          = errors.New("range has no points")
	ErrDuplicatePoint      = errors.New("range contains duplicate points")
	ErrTooManySteps        = errors.New("range produces too many steps")
	ErrUnboundedRecurrence = errors.New("recurrence rule needs COUNT or UNTIL")
	ErrUnknownRange        = errors.New("unknown range type")
)

// Controller errors.
var (
	ErrInvalidInterval = errors.New("interval must be positive")
	ErrMissingCallback = errors.New("onNextStep callback is required")
	ErrIndexOutOfRange = errors.New("step index out of range")
	ErrNotMounted      = errors.New("timeline control is not mounted")
	ErrAlreadyMounted  = errors.New("timeline control is already mounted")
)
