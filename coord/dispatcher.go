// Copyright © 2025 Conductor contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: coord/dispatcher.go
// Summary: Unified system event stream shared by all coordinators.
// Usage: The facade wraps sub-coordinator callbacks and broadcasts one
// timestamped event per state change to every subscribed listener.

package coord

import (
	"sync"
	"time"
)

// EventType identifies the kind of system event.
type EventType int

const (
	// Registry events
	EventParticipantRegistered EventType = iota
	EventParticipantUnregistered
	EventLoadExceeded
	EventAttentionChanged
	// Keyboard events
	EventActionTriggered
	EventSearchChanged
	// Announcement events
	EventAnnouncement
	EventAnnouncementsCleared
	// Motion events
	EventAnimationStarted
	EventAnimationCompleted
	EventAnimationQueued
	EventMotionBudgetExceeded
)

// String returns a stable name for the event type, used by trace sinks.
func (t EventType) String() string {
	switch t {
	case EventParticipantRegistered:
		return "participant-registered"
	case EventParticipantUnregistered:
		return "participant-unregistered"
	case EventLoadExceeded:
		return "load-exceeded"
	case EventAttentionChanged:
		return "attention-changed"
	case EventActionTriggered:
		return "action-triggered"
	case EventSearchChanged:
		return "search-changed"
	case EventAnnouncement:
		return "announcement"
	case EventAnnouncementsCleared:
		return "announcements-cleared"
	case EventAnimationStarted:
		return "animation-started"
	case EventAnimationCompleted:
		return "animation-completed"
	case EventAnimationQueued:
		return "animation-queued"
	case EventMotionBudgetExceeded:
		return "motion-budget-exceeded"
	}
	return "unknown"
}

// SystemEvent is one entry in the unified coordination event stream.
type SystemEvent struct {
	Type          EventType
	ParticipantID string
	Timestamp     time.Time
	Details       map[string]interface{}
}

// Listener is implemented by components that consume system events.
type Listener interface {
	OnEvent(event SystemEvent)
}

// ListenerFunc adapts a function to the Listener interface. Use the pointer
// form so the dispatcher can identify it again on Unsubscribe.
type ListenerFunc struct {
	Fn func(SystemEvent)
}

func (f *ListenerFunc) OnEvent(event SystemEvent) {
	if f != nil && f.Fn != nil {
		f.Fn(event)
	}
}

// EventDispatcher manages a list of listeners and broadcasts events to them.
type EventDispatcher struct {
	mu        sync.RWMutex
	listeners []Listener
}

// NewEventDispatcher creates a new dispatcher.
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{
		listeners: make([]Listener, 0),
	}
}

// Subscribe adds a new listener to receive events.
func (d *EventDispatcher) Subscribe(listener Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, listener)
}

// Unsubscribe removes a listener.
func (d *EventDispatcher) Unsubscribe(listener Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, l := range d.listeners {
		if l == listener {
			d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
			break
		}
	}
}

// Broadcast sends an event to all subscribed listeners.
// A zero timestamp is stamped with the current time.
func (d *EventDispatcher) Broadcast(event SystemEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	d.mu.RLock()
	listeners := append([]Listener(nil), d.listeners...)
	d.mu.RUnlock()
	for _, l := range listeners {
		l.OnEvent(event)
	}
}
