// Copyright © 2025 Conductor contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: keyboard/keymaps.go
// Summary: Init-time registry of per-category default keymaps.
// Usage: Each surface category seeds a conventional key table; individual
// registrations may override it with their own KeyConfig list.

package keyboard

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/conductor/coord"
)

var (
	keymapMu sync.RWMutex
	keymaps  = make(map[coord.Category][]KeyConfig)
)

// RegisterKeymap associates a category with its default key table.
// It panics on duplicate categories.
func RegisterKeymap(category coord.Category, keys []KeyConfig) {
	keymapMu.Lock()
	defer keymapMu.Unlock()
	if _, exists := keymaps[category]; exists {
		panic("keyboard: duplicate keymap registration for " + string(category))
	}
	keymaps[category] = keys
}

// DefaultKeymap returns a copy of the category's default key table.
func DefaultKeymap(category coord.Category) []KeyConfig {
	keymapMu.RLock()
	defer keymapMu.RUnlock()
	return append([]KeyConfig(nil), keymaps[category]...)
}

func init() {
	RegisterKeymap(coord.CategoryContext, []KeyConfig{
		{Key: tcell.KeyEscape, Action: "close", PreventDefault: true},
		{Key: tcell.KeyEnter, Action: "activate", PreventDefault: true},
		{Key: tcell.KeyUp, Action: "navigate-up", PreventDefault: true},
		{Key: tcell.KeyDown, Action: "navigate-down", PreventDefault: true},
	})
	RegisterKeymap(coord.CategoryNavigation, []KeyConfig{
		{Key: tcell.KeyLeft, Action: "navigate-previous", PreventDefault: true},
		{Key: tcell.KeyRight, Action: "navigate-next", PreventDefault: true},
		{Key: tcell.KeyHome, Action: "first"},
		{Key: tcell.KeyEnd, Action: "last"},
		{Key: tcell.KeyEnter, Action: "activate", PreventDefault: true},
		{Key: tcell.KeyEscape, Action: "close"},
	})
	RegisterKeymap(coord.CategoryDropdown, []KeyConfig{
		{Key: tcell.KeyRune, Rune: ' ', Action: "toggle", PreventDefault: true},
		{Key: tcell.KeyEnter, Action: "select", PreventDefault: true},
		{Key: tcell.KeyEscape, Action: "close"},
		{Key: tcell.KeyDown, Action: "navigate-down", PreventDefault: true},
		{Key: tcell.KeyUp, Action: "navigate-up", PreventDefault: true},
	})
	RegisterKeymap(coord.CategoryTree, []KeyConfig{
		{Key: tcell.KeyRight, Action: "expand", PreventDefault: true},
		{Key: tcell.KeyLeft, Action: "collapse", PreventDefault: true},
		{Key: tcell.KeyUp, Action: "navigate-up", PreventDefault: true},
		{Key: tcell.KeyDown, Action: "navigate-down", PreventDefault: true},
		{Key: tcell.KeyEnter, Action: "activate", PreventDefault: true},
		{Key: tcell.KeyHome, Action: "first"},
		{Key: tcell.KeyEnd, Action: "last"},
	})
	RegisterKeymap(coord.CategorySidebar, []KeyConfig{
		{Key: tcell.KeyUp, Action: "navigate-up", PreventDefault: true},
		{Key: tcell.KeyDown, Action: "navigate-down", PreventDefault: true},
		{Key: tcell.KeyEnter, Action: "activate"},
	})
	RegisterKeymap(coord.CategoryBreadcrumb, []KeyConfig{
		{Key: tcell.KeyLeft, Action: "navigate-previous"},
		{Key: tcell.KeyRight, Action: "navigate-next"},
		{Key: tcell.KeyEnter, Action: "activate"},
	})
}
