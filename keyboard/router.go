// Copyright © 2025 Conductor contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: keyboard/router.go
// Summary: Deterministic four-stage key dispatch for coordinated surfaces.
// Usage: Feed every key event through HandleKey. Global shortcuts run
// first, then type-ahead search entry, then search continuation, and
// finally the focused participant's own keymap. Exactly one stage claims
// each keystroke.

package keyboard

import (
	"errors"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/conductor/coord"
	"github.com/framegrace/conductor/internal/clock"
)

// DefaultTypeAheadDelay is how long the search string survives without
// a keystroke before search mode exits.
const DefaultTypeAheadDelay = time.Second

var (
	errNoRegistry = errors.New("keyboard: router requires a registry")
	errNoFocus    = errors.New("keyboard: router requires a focus service")
)

// Config carries router tuning. Zero values mean defaults: type-ahead
// enabled with a one second inactivity window.
type Config struct {
	TypeAheadDelay   time.Duration
	DisableTypeAhead bool
}

// Stage identifies which dispatch stage claimed a keystroke.
type Stage int

const (
	StageNone Stage = iota
	StageGlobalShortcut
	StageSearchEntry
	StageSearch
	StageParticipant
)

func (s Stage) String() string {
	switch s {
	case StageGlobalShortcut:
		return "global-shortcut"
	case StageSearchEntry:
		return "search-entry"
	case StageSearch:
		return "search"
	case StageParticipant:
		return "participant"
	default:
		return "none"
	}
}

// Result describes the outcome of routing one key event.
type Result struct {
	Handled         bool
	Stage           Stage
	Action          string
	ParticipantID   string
	PreventDefault  bool
	StopPropagation bool
}

type namedShortcut struct {
	name string
	cfg  KeyConfig
}

// Router dispatches key events across global shortcuts, type-ahead
// search, and per-participant keymaps. Routing follows the currently
// focused participant as reported by the focus service.
type Router struct {
	mu       sync.Mutex
	registry *coord.Registry
	focus    coord.FocusService
	clk      clock.Clock
	cfg      Config

	handlers  map[string]*Binding
	shortcuts []namedShortcut

	searchActive bool
	searchTerm   string
	searchTimer  clock.Timer

	// OnAction observes every dispatched action, including ones
	// triggered programmatically through TriggerAction.
	OnAction func(participantID, action string, ev *tcell.EventKey)
	// OnSearchChanged observes type-ahead state transitions.
	OnSearchChanged func(term string, active bool)
}

// NewRouter builds a router bound to the registry and focus service.
// A nil clock falls back to the system clock.
func NewRouter(registry *coord.Registry, focus coord.FocusService, cfg Config, clk clock.Clock) (*Router, error) {
	if registry == nil {
		return nil, errNoRegistry
	}
	if focus == nil {
		return nil, errNoFocus
	}
	if clk == nil {
		clk = clock.System()
	}
	if cfg.TypeAheadDelay <= 0 {
		cfg.TypeAheadDelay = DefaultTypeAheadDelay
	}
	return &Router{
		registry: registry,
		focus:    focus,
		clk:      clk,
		cfg:      cfg,
		handlers: make(map[string]*Binding),
	}, nil
}

// RegisterHandler installs a participant's key binding. An empty Keys
// slice is seeded with the category's default keymap, and a zero
// Priority derives from the category. Returns false when the binding
// is malformed.
func (r *Router) RegisterHandler(b Binding) bool {
	if b.ParticipantID == "" || b.Action == nil || !b.Category.Valid() {
		debugLog.Printf("keyboard: rejecting malformed binding %+v", b)
		return false
	}
	if len(b.Keys) == 0 {
		b.Keys = DefaultKeymap(b.Category)
	}
	if b.Priority == 0 {
		b.Priority = b.Category.Priority()
	}
	b.Enabled = true
	r.mu.Lock()
	r.handlers[b.ParticipantID] = &b
	r.mu.Unlock()
	debugLog.Printf("keyboard: registered handler %s (%s, %d keys)", b.ParticipantID, b.Category, len(b.Keys))
	return true
}

// UnregisterHandler removes a participant's binding.
func (r *Router) UnregisterHandler(participantID string) {
	r.mu.Lock()
	delete(r.handlers, participantID)
	r.mu.Unlock()
}

// SetHandlerEnabled toggles a binding without removing it.
func (r *Router) SetHandlerEnabled(participantID string, enabled bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.handlers[participantID]
	if !ok {
		return false
	}
	b.Enabled = enabled
	return true
}

// SetGlobalShortcut installs or replaces a named global shortcut.
// Shortcuts match in registration order, first match wins.
func (r *Router) SetGlobalShortcut(name string, cfg KeyConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.shortcuts {
		if r.shortcuts[i].name == name {
			r.shortcuts[i].cfg = cfg
			return
		}
	}
	r.shortcuts = append(r.shortcuts, namedShortcut{name: name, cfg: cfg})
}

// RemoveGlobalShortcut drops a named shortcut.
func (r *Router) RemoveGlobalShortcut(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.shortcuts {
		if r.shortcuts[i].name == name {
			r.shortcuts = append(r.shortcuts[:i], r.shortcuts[i+1:]...)
			return
		}
	}
}

// HandleKey routes one key event through the four dispatch stages.
func (r *Router) HandleKey(ev *tcell.EventKey) Result {
	if ev == nil {
		return Result{}
	}

	// Stage 1: global shortcuts always win, even during search.
	r.mu.Lock()
	for _, sc := range r.shortcuts {
		if sc.cfg.Matches(ev) {
			action := sc.cfg.Action
			res := Result{
				Handled:         true,
				Stage:           StageGlobalShortcut,
				Action:          action,
				PreventDefault:  sc.cfg.PreventDefault,
				StopPropagation: sc.cfg.StopPropagation,
			}
			r.mu.Unlock()
			if id, ok := r.focus.FocusedMenuID(); ok {
				res.ParticipantID = id
				r.dispatch(id, action, ev)
			}
			return res
		}
	}
	active := r.searchActive
	typeAheadOn := !r.cfg.DisableTypeAhead
	r.mu.Unlock()

	if active {
		// Stage 3: search continuation claims every keystroke while
		// search mode is on.
		return r.continueSearch(ev)
	}

	if typeAheadOn {
		// Stage 2: a bare printable rune starts type-ahead. A lone
		// space never does, the search string is still empty.
		if id, ok := r.focus.FocusedMenuID(); ok && isPrintable(ev) && ev.Rune() != ' ' {
			r.enterSearch(ev.Rune())
			return Result{Handled: true, Stage: StageSearchEntry, ParticipantID: id}
		}
	}

	// Stage 4: the focused participant's own keymap.
	return r.dispatchFocused(ev)
}

func (r *Router) dispatchFocused(ev *tcell.EventKey) Result {
	id, ok := r.focus.FocusedMenuID()
	if !ok {
		return Result{}
	}
	r.mu.Lock()
	b, ok := r.handlers[id]
	if !ok || !b.Enabled {
		r.mu.Unlock()
		return Result{}
	}
	for _, k := range b.Keys {
		if k.Matches(ev) {
			action := k.Action
			res := Result{
				Handled:         true,
				Stage:           StageParticipant,
				Action:          action,
				ParticipantID:   id,
				PreventDefault:  k.PreventDefault,
				StopPropagation: k.StopPropagation,
			}
			r.mu.Unlock()
			r.dispatch(id, action, ev)
			return res
		}
	}
	r.mu.Unlock()
	return Result{}
}

// TriggerAction invokes a participant's action callback directly,
// bypassing key matching. Returns false for unknown or disabled
// participants.
func (r *Router) TriggerAction(participantID, action string, ev *tcell.EventKey) bool {
	r.mu.Lock()
	b, ok := r.handlers[participantID]
	if !ok || !b.Enabled {
		r.mu.Unlock()
		return false
	}
	r.mu.Unlock()
	r.dispatch(participantID, action, ev)
	return true
}

func (r *Router) dispatch(participantID, action string, ev *tcell.EventKey) {
	r.mu.Lock()
	b, ok := r.handlers[participantID]
	observer := r.OnAction
	r.mu.Unlock()
	if ok && b.Action != nil {
		b.Action(action, ev)
	}
	if observer != nil {
		observer(participantID, action, ev)
	}
}

func (r *Router) enterSearch(first rune) {
	r.mu.Lock()
	r.searchActive = true
	r.searchTerm = string(first)
	r.resetSearchTimerLocked()
	term := r.searchTerm
	observer := r.OnSearchChanged
	r.mu.Unlock()
	debugLog.Printf("keyboard: type-ahead started %q", term)
	if observer != nil {
		observer(term, true)
	}
}

func (r *Router) continueSearch(ev *tcell.EventKey) Result {
	r.mu.Lock()
	switch {
	case ev.Key() == tcell.KeyEscape:
		r.exitSearchLocked()
		observer := r.OnSearchChanged
		r.mu.Unlock()
		if observer != nil {
			observer("", false)
		}
		return Result{Handled: true, Stage: StageSearch}
	case ev.Key() == tcell.KeyBackspace || ev.Key() == tcell.KeyBackspace2:
		runes := []rune(r.searchTerm)
		if len(runes) <= 1 {
			r.exitSearchLocked()
			observer := r.OnSearchChanged
			r.mu.Unlock()
			if observer != nil {
				observer("", false)
			}
			return Result{Handled: true, Stage: StageSearch}
		}
		r.searchTerm = string(runes[:len(runes)-1])
		r.resetSearchTimerLocked()
		term := r.searchTerm
		observer := r.OnSearchChanged
		r.mu.Unlock()
		if observer != nil {
			observer(term, true)
		}
		return Result{Handled: true, Stage: StageSearch}
	case isPrintable(ev):
		r.searchTerm += string(ev.Rune())
		r.resetSearchTimerLocked()
		term := r.searchTerm
		observer := r.OnSearchChanged
		r.mu.Unlock()
		if observer != nil {
			observer(term, true)
		}
		return Result{Handled: true, Stage: StageSearch}
	default:
		// Other keys are claimed but ignored while searching.
		r.resetSearchTimerLocked()
		r.mu.Unlock()
		return Result{Handled: false, Stage: StageSearch}
	}
}

func (r *Router) resetSearchTimerLocked() {
	if r.searchTimer != nil {
		r.searchTimer.Stop()
	}
	r.searchTimer = r.clk.AfterFunc(r.cfg.TypeAheadDelay, r.searchTimeout)
}

func (r *Router) searchTimeout() {
	r.mu.Lock()
	if !r.searchActive {
		r.mu.Unlock()
		return
	}
	r.exitSearchLocked()
	observer := r.OnSearchChanged
	r.mu.Unlock()
	debugLog.Printf("keyboard: type-ahead expired")
	if observer != nil {
		observer("", false)
	}
}

func (r *Router) exitSearchLocked() {
	if r.searchTimer != nil {
		r.searchTimer.Stop()
		r.searchTimer = nil
	}
	r.searchActive = false
	r.searchTerm = ""
}

// CancelSearch exits type-ahead mode programmatically.
func (r *Router) CancelSearch() {
	r.mu.Lock()
	wasActive := r.searchActive
	r.exitSearchLocked()
	observer := r.OnSearchChanged
	r.mu.Unlock()
	if wasActive && observer != nil {
		observer("", false)
	}
}

// SearchActive reports whether type-ahead mode is on.
func (r *Router) SearchActive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.searchActive
}

// SearchTerm returns the current type-ahead string.
func (r *Router) SearchTerm() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.searchTerm
}

// HandlerCount returns the number of registered bindings.
func (r *Router) HandlerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handlers)
}
