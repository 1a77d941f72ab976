// Copyright © 2025 Conductor contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: coord/focus.go
// Summary: Focus service contract and a minimal in-memory tracker.
// Usage: The keyboard router asks the focus service which participant
// currently has focus; hosts with a real focus system implement the
// interface themselves.

package coord

import "sync"

// FocusElement is an opaque handle to a focusable element owned by the host.
type FocusElement interface{}

// AnnouncePriority is the politeness tier for focus-change narration.
type AnnouncePriority string

const (
	AnnouncePolite    AnnouncePriority = "polite"
	AnnounceAssertive AnnouncePriority = "assertive"
)

// FocusService is the contract between the host UI's focus system and the
// coordination core. Only the parts the keyboard router depends on are
// specified; trap mechanics are the host's concern.
type FocusService interface {
	// RegisterFocusElement records a focusable element for a participant and
	// returns an unsubscribe function.
	RegisterFocusElement(el FocusElement, participantID string) func()

	// UnregisterFocusElement drops every element registered for a participant.
	UnregisterFocusElement(participantID string)

	// CreateFocusTrap confines focus to a boundary element on behalf of a
	// participant. One trap per participant; creating a second replaces it.
	CreateFocusTrap(boundary FocusElement, participantID string)

	// ReleaseFocusTrap removes the participant's trap, if any.
	ReleaseFocusTrap(participantID string)

	// AnnounceFocusChange narrates a focus transition.
	AnnounceFocusChange(message string, priority AnnouncePriority)

	// FocusedMenuID reports which participant currently has focus.
	FocusedMenuID() (string, bool)
}

// FocusTracker is a minimal in-memory FocusService. It keeps element and
// trap bookkeeping and a single focused participant id; it performs no DOM
// or terminal manipulation.
type FocusTracker struct {
	mu       sync.Mutex
	elements map[string][]FocusElement
	traps    map[string]FocusElement
	focused  string

	// OnAnnounce receives focus-change narration when set. The facade wires
	// this to the announcement coordinator.
	OnAnnounce func(message string, priority AnnouncePriority)
}

// NewFocusTracker creates an empty focus tracker.
func NewFocusTracker() *FocusTracker {
	return &FocusTracker{
		elements: make(map[string][]FocusElement),
		traps:    make(map[string]FocusElement),
	}
}

func (t *FocusTracker) RegisterFocusElement(el FocusElement, participantID string) func() {
	if participantID == "" {
		return func() {}
	}
	t.mu.Lock()
	t.elements[participantID] = append(t.elements[participantID], el)
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			els := t.elements[participantID]
			for i, e := range els {
				if e == el {
					t.elements[participantID] = append(els[:i], els[i+1:]...)
					break
				}
			}
			if len(t.elements[participantID]) == 0 {
				delete(t.elements, participantID)
			}
		})
	}
}

func (t *FocusTracker) UnregisterFocusElement(participantID string) {
	t.mu.Lock()
	delete(t.elements, participantID)
	if t.focused == participantID {
		t.focused = ""
	}
	t.mu.Unlock()
}

func (t *FocusTracker) CreateFocusTrap(boundary FocusElement, participantID string) {
	if participantID == "" {
		return
	}
	t.mu.Lock()
	t.traps[participantID] = boundary
	t.mu.Unlock()
}

func (t *FocusTracker) ReleaseFocusTrap(participantID string) {
	t.mu.Lock()
	delete(t.traps, participantID)
	t.mu.Unlock()
}

func (t *FocusTracker) AnnounceFocusChange(message string, priority AnnouncePriority) {
	t.mu.Lock()
	cb := t.OnAnnounce
	t.mu.Unlock()
	if cb != nil {
		cb(message, priority)
	}
}

func (t *FocusTracker) FocusedMenuID() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.focused == "" {
		return "", false
	}
	return t.focused, true
}

// SetFocused records which participant has focus. An empty id clears it.
func (t *FocusTracker) SetFocused(participantID string) {
	t.mu.Lock()
	t.focused = participantID
	t.mu.Unlock()
}

// HasTrap reports whether the participant holds a focus trap.
func (t *FocusTracker) HasTrap(participantID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.traps[participantID]
	return ok
}

var _ FocusService = (*FocusTracker)(nil)
