// Copyright © 2025 Conductor contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: keyboard/keyconfig.go
// Summary: Key bindings and matching against tcell key events.

package keyboard

import (
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/conductor/coord"
)

// KeyConfig binds one key-plus-modifier combination to a named action.
// Printable keys use Key == tcell.KeyRune with the rune set.
type KeyConfig struct {
	Key             tcell.Key
	Rune            rune
	Mods            tcell.ModMask
	Action          string
	PreventDefault  bool
	StopPropagation bool
}

// Matches reports whether the event is exactly this combination.
func (k KeyConfig) Matches(ev *tcell.EventKey) bool {
	if ev == nil || ev.Key() != k.Key {
		return false
	}
	if k.Key == tcell.KeyRune && ev.Rune() != k.Rune {
		return false
	}
	return ev.Modifiers() == k.Mods
}

// Binding associates a participant with its ordered key configuration.
// An empty Keys slice is seeded with the category's default keymap at
// registration time.
type Binding struct {
	ParticipantID string
	Category      coord.Category
	Priority      int
	Keys          []KeyConfig
	Action        func(action string, ev *tcell.EventKey)
	Enabled       bool
}

// isPrintable reports whether the event is a single printable character
// with no modifiers beyond shift (shift is already folded into the rune).
func isPrintable(ev *tcell.EventKey) bool {
	if ev.Key() != tcell.KeyRune {
		return false
	}
	if ev.Modifiers()&^tcell.ModShift != 0 {
		return false
	}
	return unicode.IsPrint(ev.Rune())
}
