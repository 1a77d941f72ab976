// Copyright © 2025 Conductor contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/clock/clock.go
// Summary: Schedulable timer abstraction shared by all coordinators.
// Usage: Debounce, auto-clear, completion, and typeahead timers are created
// through a Clock so tests can drive them with a fake.

package clock

import "time"

// Timer is a cancelable scheduled callback.
type Timer interface {
	// Stop cancels the timer. Returns false if it already fired or was stopped.
	Stop() bool
}

// Clock creates timers and reports the current time.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

type systemClock struct{}

type systemTimer struct {
	t *time.Timer
}

func (s systemTimer) Stop() bool { return s.t.Stop() }

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return systemTimer{t: time.AfterFunc(d, fn)}
}

// System returns a Clock backed by the runtime timers.
func System() Clock { return systemClock{} }
