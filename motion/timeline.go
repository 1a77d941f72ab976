// Copyright © 2025 Conductor contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: motion/timeline.go
// Summary: Per-animation eased interpolation timelines.
// Usage: The coordinator tracks admitted animations on a Timeline; hosts
// read Progress each frame to render them. Time is always passed in
// explicitly so a fake clock can drive tests.

package motion

import (
	"sync"
	"time"
)

// EasingFunc maps progress [0,1] to an eased value [0,1].
type EasingFunc func(progress float64) float64

// Common easing functions.
var (
	// EaseLinear - no easing, constant speed.
	EaseLinear EasingFunc = func(t float64) float64 { return t }

	// EaseSmoothstep - smooth S-curve, the default for UI motion.
	EaseSmoothstep EasingFunc = func(t float64) float64 {
		return t * t * (3.0 - 2.0*t)
	}

	// EaseOutQuad - fast start, decelerating.
	EaseOutQuad EasingFunc = func(t float64) float64 {
		return t * (2.0 - t)
	}

	// EaseInOutCubic - cubic ease-in-out.
	EaseInOutCubic EasingFunc = func(t float64) float64 {
		if t < 0.5 {
			return 4.0 * t * t * t
		}
		t1 := 2.0*t - 2.0
		return 1.0 + t1*t1*t1*0.5
	}
)

type timelineState struct {
	start    float64
	target   float64
	startAt  time.Time
	duration time.Duration
	easing   EasingFunc
}

// Timeline holds per-key animation state keyed by animation id.
type Timeline struct {
	mu            sync.RWMutex
	states        map[string]*timelineState
	defaultEasing EasingFunc
}

// NewTimeline creates an empty timeline using smoothstep easing by default.
func NewTimeline() *Timeline {
	return &Timeline{
		states:        make(map[string]*timelineState),
		defaultEasing: EaseSmoothstep,
	}
}

// Start begins an animation from 0 to 1 over the given duration.
func (tl *Timeline) Start(id string, duration time.Duration, now time.Time) {
	tl.StartWithEasing(id, duration, now, nil)
}

// StartWithEasing begins an animation with a specific easing function.
func (tl *Timeline) StartWithEasing(id string, duration time.Duration, now time.Time, easing EasingFunc) {
	if easing == nil {
		easing = tl.defaultEasing
	}
	tl.mu.Lock()
	tl.states[id] = &timelineState{
		start:    0,
		target:   1,
		startAt:  now,
		duration: duration,
		easing:   easing,
	}
	tl.mu.Unlock()
}

// Progress returns the eased progress for id at the given time.
// Unknown ids report 0; finished animations report 1.
func (tl *Timeline) Progress(id string, now time.Time) float64 {
	tl.mu.RLock()
	state := tl.states[id]
	tl.mu.RUnlock()
	if state == nil {
		return 0
	}
	return state.valueAt(now)
}

// Running reports whether id is mid-flight at the given time.
func (tl *Timeline) Running(id string, now time.Time) bool {
	tl.mu.RLock()
	state := tl.states[id]
	tl.mu.RUnlock()
	if state == nil || state.duration <= 0 {
		return false
	}
	return now.Sub(state.startAt) < state.duration
}

// Remove drops the state for id.
func (tl *Timeline) Remove(id string) {
	tl.mu.Lock()
	delete(tl.states, id)
	tl.mu.Unlock()
}

// Clear drops all timeline state.
func (tl *Timeline) Clear() {
	tl.mu.Lock()
	tl.states = make(map[string]*timelineState)
	tl.mu.Unlock()
}

func (s *timelineState) valueAt(now time.Time) float64 {
	if s.duration <= 0 {
		return s.target
	}
	if now.Before(s.startAt) {
		return s.start
	}
	elapsed := now.Sub(s.startAt)
	if elapsed >= s.duration {
		return s.target
	}
	progress := float64(elapsed) / float64(s.duration)
	return s.start + (s.target-s.start)*s.easing(progress)
}
