// Copyright © 2025 Conductor contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: coord/registry.go
// Summary: Attention and budget registry for mounted participants.
// Usage: Created once per coordination instance; every other coordinator
// consults it for participant validity and priorities.

package coord

import "sync"

// DefaultBudget bounds the summed cognitive load of registered participants
// when no explicit budget is configured.
const DefaultBudget = 20

// Registry tracks registered participants, the cognitive-load budget, the
// single attention owner, and the focus stack. Denied registrations and
// denied attention requests are normal outcomes, reported as return values.
type Registry struct {
	mu           sync.Mutex
	participants map[string]Registration
	focusStack   []string
	owner        string
	budget       int
	currentLoad  int

	// OnLoadExceeded fires when a registration would push the summed load
	// past the budget. Arguments are the rejected total and the budget.
	OnLoadExceeded func(total, budget int)

	// OnAttentionChanged fires whenever the attention owner changes.
	// prev is empty on first grant; next is empty on release.
	OnAttentionChanged func(prev, next string)
}

// NewRegistry creates a registry with the given cognitive-load budget.
// Non-positive budgets fall back to DefaultBudget.
func NewRegistry(budget int) *Registry {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Registry{
		participants: make(map[string]Registration),
		budget:       budget,
	}
}

// Register validates and stores a participant registration.
// It returns false without changing state when the shape is invalid or the
// registration would exceed the budget; the latter also fires OnLoadExceeded.
func (r *Registry) Register(reg Registration) bool {
	if !reg.validate() {
		debugLog.Printf("registry: rejecting malformed registration %+v", reg)
		return false
	}
	reg.Priority = reg.Category.Priority()

	r.mu.Lock()
	if _, exists := r.participants[reg.ID]; exists {
		r.mu.Unlock()
		debugLog.Printf("registry: duplicate registration id=%s", reg.ID)
		return false
	}
	newTotal := r.currentLoad + reg.CognitiveLoad
	if newTotal > r.budget {
		budget := r.budget
		cb := r.OnLoadExceeded
		r.mu.Unlock()
		if cb != nil {
			cb(newTotal, budget)
		}
		return false
	}
	r.participants[reg.ID] = reg
	r.currentLoad = newTotal
	r.mu.Unlock()
	return true
}

// Unregister removes a participant, releasing its load, its attention
// ownership, and any focus-stack entries. Unknown ids are a no-op.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	reg, ok := r.participants[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.participants, id)
	r.currentLoad -= reg.CognitiveLoad

	var cb func(prev, next string)
	var prev string
	if r.owner == id {
		prev = r.owner
		r.owner = ""
		cb = r.OnAttentionChanged
	}

	filtered := r.focusStack[:0]
	for _, fid := range r.focusStack {
		if fid != id {
			filtered = append(filtered, fid)
		}
	}
	r.focusStack = filtered
	r.mu.Unlock()

	if cb != nil {
		cb(prev, "")
	}
}

// RequestAttention grants the single attention slot to id.
// An unregistered id is denied. With no current owner the request is granted.
// Otherwise a strictly higher-priority (lower-numbered) requester preempts
// the owner; equal or lower priority is denied. The preempted owner is not
// notified directly; OnAttentionChanged is the hook for observers that need
// to react to the change.
func (r *Registry) RequestAttention(id string) bool {
	r.mu.Lock()
	reg, ok := r.participants[id]
	if !ok {
		r.mu.Unlock()
		return false
	}
	if r.owner == id {
		r.mu.Unlock()
		return true
	}
	if r.owner != "" {
		current, ok := r.participants[r.owner]
		if ok && reg.Priority >= current.Priority {
			r.mu.Unlock()
			return false
		}
	}
	prev := r.owner
	r.owner = id
	cb := r.OnAttentionChanged
	r.mu.Unlock()

	if cb != nil {
		cb(prev, id)
	}
	return true
}

// ReleaseAttention clears ownership only when id is the current owner.
// Calling it for a non-owner is a no-op.
func (r *Registry) ReleaseAttention(id string) {
	r.mu.Lock()
	if r.owner != id {
		r.mu.Unlock()
		return
	}
	r.owner = ""
	cb := r.OnAttentionChanged
	r.mu.Unlock()

	if cb != nil {
		cb(id, "")
	}
}

// HasAttention reports whether id currently owns attention.
func (r *Registry) HasAttention(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owner != "" && r.owner == id
}

// AttentionOwner returns the current owner, or "" when unowned.
func (r *Registry) AttentionOwner() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owner
}

// PushFocus pushes a participant id onto the focus stack.
// Stack entries are allowed to outlive their registration.
func (r *Registry) PushFocus(id string) {
	if id == "" {
		return
	}
	r.mu.Lock()
	r.focusStack = append(r.focusStack, id)
	r.mu.Unlock()
}

// PopFocus pops the most recent focus entry. An empty stack returns ("",
// false) rather than an error; popping a stale id is the caller's concern.
func (r *Registry) PopFocus() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.focusStack) == 0 {
		return "", false
	}
	id := r.focusStack[len(r.focusStack)-1]
	r.focusStack = r.focusStack[:len(r.focusStack)-1]
	return id, true
}

// CognitiveLoad returns the summed load of registered participants.
func (r *Registry) CognitiveLoad() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentLoad
}

// Budget returns the configured maximum cognitive load.
func (r *Registry) Budget() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.budget
}

// Lookup returns the stored registration for id.
func (r *Registry) Lookup(id string) (Registration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.participants[id]
	return reg, ok
}

// Registered reports whether id is currently registered.
func (r *Registry) Registered(id string) bool {
	_, ok := r.Lookup(id)
	return ok
}

// Count returns the number of registered participants.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participants)
}
