// Copyright © 2025 Conductor contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: conductor.go
// Summary: Composition root wiring the registry, motion, announcement,
// and keyboard coordinators behind one facade.
// Usage: Build with New (or FromConfig + New), register participants,
// then hand the sub-coordinators to the UI surfaces that need them.
// Every state change is also broadcast on the unified event stream.

package conductor

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/conductor/announce"
	"github.com/framegrace/conductor/coord"
	"github.com/framegrace/conductor/internal/clock"
	"github.com/framegrace/conductor/internal/tracestore"
	"github.com/framegrace/conductor/keyboard"
	"github.com/framegrace/conductor/motion"
)

// Conductor owns one coordination instance: a registry, the three
// coordinators built on it, and the event stream that ties them together.
type Conductor struct {
	clk        clock.Clock
	registry   *coord.Registry
	focus      coord.FocusService
	announcer  *announce.Coordinator
	motion     *motion.Coordinator
	router     *keyboard.Router
	dispatcher *coord.EventDispatcher
	metrics    *coord.AttentionMetrics
	trace      *tracestore.Store
	traceSink  *coord.ListenerFunc
	disposed   bool
}

// New assembles a coordination instance from the options.
func New(opts Options) (*Conductor, error) {
	clk := opts.Clock
	if clk == nil {
		clk = clock.System()
	}

	c := &Conductor{
		clk:        clk,
		registry:   coord.NewRegistry(opts.RegistryBudget),
		dispatcher: coord.NewEventDispatcher(),
	}

	c.announcer = announce.NewCoordinator(opts.AnnounceConfig, clk, opts.PoliteRegion, opts.AssertiveRegion)

	focus := opts.Focus
	if focus == nil {
		tracker := coord.NewFocusTracker()
		tracker.OnAnnounce = func(message string, priority coord.AnnouncePriority) {
			c.announcer.Announce(message, announce.AnnounceOptions{
				Priority: announcePriority(priority),
				Category: announce.CategoryNavigation,
			})
		}
		focus = tracker
	}
	c.focus = focus

	mc, err := motion.NewCoordinator(c.registry, opts.MotionBudget, clk)
	if err != nil {
		return nil, fmt.Errorf("conductor: %w", err)
	}
	c.motion = mc

	router, err := keyboard.NewRouter(c.registry, focus, opts.KeyboardConfig, clk)
	if err != nil {
		return nil, fmt.Errorf("conductor: %w", err)
	}
	c.router = router

	c.metrics = coord.NewAttentionMetrics(nil)
	c.metrics.Attach(c.registry)

	c.wireEvents()

	if opts.Debug {
		SetVerboseLogging(true)
	}
	switch {
	case opts.TracePath != "":
		store, err := tracestore.Open(opts.TracePath)
		if err != nil {
			return nil, fmt.Errorf("conductor: trace store: %w", err)
		}
		c.trace = store
		c.traceSink = &coord.ListenerFunc{Fn: func(ev coord.SystemEvent) {
			store.Append(tracestore.Entry{
				Type:          ev.Type.String(),
				ParticipantID: ev.ParticipantID,
				Timestamp:     ev.Timestamp,
				Details:       ev.Details,
			})
		}}
		c.dispatcher.Subscribe(c.traceSink)
	case opts.Debug:
		c.traceSink = &coord.ListenerFunc{Fn: func(ev coord.SystemEvent) {
			debugLog.Printf("event %s participant=%q details=%v", ev.Type, ev.ParticipantID, ev.Details)
		}}
		c.dispatcher.Subscribe(c.traceSink)
	}

	if opts.OnEvent != nil {
		c.dispatcher.Subscribe(&coord.ListenerFunc{Fn: opts.OnEvent})
	}

	return c, nil
}

// wireEvents chains every sub-coordinator callback into the unified
// event stream. Attach ran first, so metrics stay in the chain.
func (c *Conductor) wireEvents() {
	prevLoad := c.registry.OnLoadExceeded
	c.registry.OnLoadExceeded = func(total, budget int) {
		if prevLoad != nil {
			prevLoad(total, budget)
		}
		c.broadcast(coord.SystemEvent{
			Type:    coord.EventLoadExceeded,
			Details: map[string]interface{}{"total": total, "budget": budget},
		})
	}
	prevAttention := c.registry.OnAttentionChanged
	c.registry.OnAttentionChanged = func(prev, next string) {
		if prevAttention != nil {
			prevAttention(prev, next)
		}
		c.broadcast(coord.SystemEvent{
			Type:          coord.EventAttentionChanged,
			ParticipantID: next,
			Details:       map[string]interface{}{"previous": prev, "next": next},
		})
	}

	c.motion.OnStarted = func(a motion.Active) {
		c.broadcast(coord.SystemEvent{
			Type:          coord.EventAnimationStarted,
			ParticipantID: a.Request.ParticipantID,
			Details: map[string]interface{}{
				"id":     a.Request.ID,
				"motion": string(a.Request.MotionType),
				"weight": a.Weight,
			},
		})
	}
	c.motion.OnCompleted = func(a motion.Active) {
		c.broadcast(coord.SystemEvent{
			Type:          coord.EventAnimationCompleted,
			ParticipantID: a.Request.ParticipantID,
			Details:       detail("id", a.Request.ID),
		})
	}
	c.motion.OnQueued = func(req motion.Request) {
		c.broadcast(coord.SystemEvent{
			Type:          coord.EventAnimationQueued,
			ParticipantID: req.ParticipantID,
			Details:       detail("id", req.ID),
		})
	}
	c.motion.OnBudgetExceeded = func(total, max float64) {
		c.broadcast(coord.SystemEvent{
			Type:    coord.EventMotionBudgetExceeded,
			Details: map[string]interface{}{"total": total, "max": max},
		})
	}

	c.announcer.OnAnnouncement = func(ann announce.Announcement) {
		c.broadcast(coord.SystemEvent{
			Type:          coord.EventAnnouncement,
			ParticipantID: ann.ParticipantID,
			Details: map[string]interface{}{
				"id":       ann.ID,
				"message":  ann.Message,
				"priority": string(ann.Priority),
				"category": string(ann.Category),
			},
		})
	}
	c.announcer.OnCleared = func(participantID string) {
		c.broadcast(coord.SystemEvent{
			Type:          coord.EventAnnouncementsCleared,
			ParticipantID: participantID,
		})
	}

	c.router.OnAction = func(participantID, action string, _ *tcell.EventKey) {
		c.broadcast(coord.SystemEvent{
			Type:          coord.EventActionTriggered,
			ParticipantID: participantID,
			Details:       detail("action", action),
		})
	}
	c.router.OnSearchChanged = func(term string, active bool) {
		c.broadcast(coord.SystemEvent{
			Type:    coord.EventSearchChanged,
			Details: map[string]interface{}{"term": term, "active": active},
		})
	}
}

func (c *Conductor) broadcast(ev coord.SystemEvent) {
	ev.Timestamp = c.now()
	c.dispatcher.Broadcast(ev)
}

// Register adds a participant and broadcasts the registration. Returns
// false when the registry rejects it.
func (c *Conductor) Register(reg coord.Registration) bool {
	if !c.registry.Register(reg) {
		return false
	}
	c.broadcast(coord.SystemEvent{
		Type:          coord.EventParticipantRegistered,
		ParticipantID: reg.ID,
		Details: map[string]interface{}{
			"category": string(reg.Category),
			"load":     reg.CognitiveLoad,
		},
	})
	return true
}

// Unregister removes a participant everywhere: registry, key router,
// animations, and announcements.
func (c *Conductor) Unregister(id string) {
	if !c.registry.Registered(id) {
		return
	}
	c.router.UnregisterHandler(id)
	c.motion.CancelForParticipant(id)
	c.announcer.ClearForParticipant(id)
	c.registry.Unregister(id)
	c.broadcast(coord.SystemEvent{
		Type:          coord.EventParticipantUnregistered,
		ParticipantID: id,
	})
}

// Subscribe adds a listener to the unified event stream.
func (c *Conductor) Subscribe(l coord.Listener) {
	c.dispatcher.Subscribe(l)
}

// Unsubscribe removes a listener from the event stream.
func (c *Conductor) Unsubscribe(l coord.Listener) {
	c.dispatcher.Unsubscribe(l)
}

// Registry exposes the attention and budget registry.
func (c *Conductor) Registry() *coord.Registry { return c.registry }

// Focus exposes the focus service in use.
func (c *Conductor) Focus() coord.FocusService { return c.focus }

// Motion exposes the motion coordinator.
func (c *Conductor) Motion() *motion.Coordinator { return c.motion }

// Announcer exposes the announcement coordinator.
func (c *Conductor) Announcer() *announce.Coordinator { return c.announcer }

// Keyboard exposes the keyboard router.
func (c *Conductor) Keyboard() *keyboard.Router { return c.router }

// Metrics returns the attention metrics snapshot.
func (c *Conductor) Metrics() coord.AttentionStats { return c.metrics.Snapshot() }

// Trace exposes the event trace store, nil when tracing is off.
func (c *Conductor) Trace() *tracestore.Store { return c.trace }

// Pause suspends motion admission approval and announcement intake.
func (c *Conductor) Pause() {
	c.motion.Pause()
	c.announcer.Pause()
}

// Resume re-enables motion and announcements.
func (c *Conductor) Resume() {
	c.motion.Resume()
	c.announcer.Resume()
}

// Dispose tears the instance down. Safe to call more than once.
func (c *Conductor) Dispose() error {
	if c.disposed {
		return nil
	}
	c.disposed = true
	c.router.CancelSearch()
	c.announcer.Close()
	if c.trace != nil {
		if c.traceSink != nil {
			c.dispatcher.Unsubscribe(c.traceSink)
		}
		return c.trace.Close()
	}
	return nil
}
