// Copyright © 2025 Conductor contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: motion/weights.go
// Summary: Motion types, duration classes, and cognitive-weight derivation.

package motion

import (
	"math"
	"time"
)

// MotionType classifies an animation for weight derivation.
type MotionType string

const (
	MotionEnter  MotionType = "enter"
	MotionExit   MotionType = "exit"
	MotionMove   MotionType = "move"
	MotionScale  MotionType = "scale"
	MotionFade   MotionType = "fade"
	MotionSlide  MotionType = "slide"
	MotionBounce MotionType = "bounce"
)

// typeMultipliers weights motion types by how much they demand of the user.
var typeMultipliers = map[MotionType]float64{
	MotionFade:   1,
	MotionEnter:  1.2,
	MotionExit:   1,
	MotionMove:   1.5,
	MotionSlide:  1.5,
	MotionScale:  2,
	MotionBounce: 3,
}

// Valid reports whether the motion type is known.
func (t MotionType) Valid() bool {
	_, ok := typeMultipliers[t]
	return ok
}

// DurationClass maps symbolic durations to milliseconds.
type DurationClass string

const (
	DurationInstant  DurationClass = "instant"
	DurationFast     DurationClass = "fast"
	DurationStandard DurationClass = "standard"
	DurationSlow     DurationClass = "slow"
	DurationCustom   DurationClass = "custom"
)

// maxCustomDuration bounds caller-supplied durations.
const maxCustomDuration = 2000 * time.Millisecond

// Valid reports whether the duration class is known.
func (c DurationClass) Valid() bool {
	switch c {
	case DurationInstant, DurationFast, DurationStandard, DurationSlow, DurationCustom:
		return true
	}
	return false
}

// Duration resolves the class to a concrete duration. Custom durations are
// clamped to [0, 2000ms].
func (c DurationClass) Duration(custom time.Duration) time.Duration {
	switch c {
	case DurationInstant:
		return 0
	case DurationFast:
		return 150 * time.Millisecond
	case DurationStandard:
		return 300 * time.Millisecond
	case DurationSlow:
		return 500 * time.Millisecond
	case DurationCustom:
		if custom < 0 {
			return 0
		}
		if custom > maxCustomDuration {
			return maxCustomDuration
		}
		return custom
	}
	return 0
}

// TrustLevel records how much the requesting surface is trusted. It travels
// with the request for observers; admission does not consult it.
type TrustLevel string

const (
	TrustLow      TrustLevel = "low"
	TrustMedium   TrustLevel = "medium"
	TrustHigh     TrustLevel = "high"
	TrustCritical TrustLevel = "critical"
)

// deriveWeight computes the cognitive-load weight of an animation:
// 2 x type multiplier, plus a duration bonus (+2 over 400ms, +1 over 200ms),
// plus half a point per priority step above the midpoint, rounded and
// clamped to [0, 10].
func deriveWeight(t MotionType, d time.Duration, priority int) float64 {
	base := 2 * typeMultipliers[t]
	if d > 400*time.Millisecond {
		base += 2
	} else if d > 200*time.Millisecond {
		base += 1
	}
	if boost := 5 - priority; boost > 0 {
		base += float64(boost) * 0.5
	}
	w := math.Round(base)
	if w < 0 {
		return 0
	}
	if w > 10 {
		return 10
	}
	return w
}
