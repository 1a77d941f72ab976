// Copyright © 2025 Conductor contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: announce/coordinator.go
// Summary: Debounced, budgeted coordinator for assistive narration.
// Usage: One coordinator per coordination instance; it owns the polite and
// assertive live regions for its whole lifetime.

package announce

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/framegrace/conductor/internal/clock"
)

// Priority is the narration politeness tier.
type Priority string

const (
	PriorityPolite    Priority = "polite"
	PriorityAssertive Priority = "assertive"
	PriorityOff       Priority = "off"
)

// Valid reports whether the priority is a known tier.
func (p Priority) Valid() bool {
	switch p {
	case PriorityPolite, PriorityAssertive, PriorityOff:
		return true
	}
	return false
}

// Category classifies an announcement for observers.
type Category string

const (
	CategoryNavigation  Category = "navigation"
	CategoryStateChange Category = "state-change"
	CategoryError       Category = "error"
	CategorySuccess     Category = "success"
	CategoryInformation Category = "information"
	CategoryWarning     Category = "warning"
	CategoryStatus      Category = "status"
	CategoryProgress    Category = "progress"
)

// Valid reports whether the category is known.
func (c Category) Valid() bool {
	switch c {
	case CategoryNavigation, CategoryStateChange, CategoryError, CategorySuccess,
		CategoryInformation, CategoryWarning, CategoryStatus, CategoryProgress:
		return true
	}
	return false
}

// Announcement is one narration entry.
type Announcement struct {
	ID            string
	Message       string
	Priority      Priority
	Category      Category
	ParticipantID string
	Timestamp     time.Time
	// Duration keeps the announcement active before auto-clearing.
	// Zero means it stays until explicitly cleared.
	Duration   time.Duration
	Persistent bool
}

// AnnounceOptions carries the caller-adjustable fields of an announcement.
// Zero values take the documented defaults (polite, information, duration 0).
type AnnounceOptions struct {
	Priority      Priority
	Category      Category
	ParticipantID string
	Duration      time.Duration
	Persistent    bool
}

// Config bounds and paces the coordinator.
type Config struct {
	// MaxConcurrentAnnouncements caps simultaneously active entries.
	MaxConcurrentAnnouncements int
	// DebounceDelay coalesces rapid duplicate announce calls.
	DebounceDelay time.Duration
	// RerenderDelay separates the clear and re-set of a live region so
	// assistive technologies detect the change.
	RerenderDelay time.Duration
	// RegionWidth is the display width of the default memory regions.
	RegionWidth int
}

// DefaultConfig is used for zero Config fields.
var DefaultConfig = Config{
	MaxConcurrentAnnouncements: 3,
	DebounceDelay:              150 * time.Millisecond,
	RerenderDelay:              50 * time.Millisecond,
}

// Promoter decides what happens when a queued announcement is promoted into
// a freed slot. By default the entry becomes active and its auto-clear is
// scheduled, but nothing is re-rendered into the narration region.
type Promoter interface {
	Promote(c *Coordinator, ann Announcement)
}

type silentPromoter struct{}

func (silentPromoter) Promote(c *Coordinator, ann Announcement) {}

// RenderingPromoter re-renders promoted announcements into their region.
type RenderingPromoter struct{}

func (RenderingPromoter) Promote(c *Coordinator, ann Announcement) {
	c.render(ann)
}

type pendingAnnouncement struct {
	ann   Announcement
	timer clock.Timer
}

type activeAnnouncement struct {
	ann        Announcement
	clearTimer clock.Timer
}

// rerenderState is the cancelable handle for one tier's pending re-set.
type rerenderState struct {
	timer clock.Timer
	annID string
}

// Coordinator debounces, queues, and narrates announcements.
type Coordinator struct {
	mu       sync.Mutex
	clk      clock.Clock
	cfg      Config
	regions  map[Priority]LiveRegion
	pending  map[string]*pendingAnnouncement
	active   map[string]*activeAnnouncement
	rerender map[Priority]*rerenderState
	queue    []Announcement
	paused   bool
	closed   bool

	promoter Promoter

	// OnAnnouncement fires when an announcement becomes active.
	OnAnnouncement func(ann Announcement)
	// OnCleared fires for explicit and automatic clears.
	OnCleared func(participantID string)
}

// NewCoordinator creates an announcement coordinator and its two persistent
// narration regions. Pass nil regions to use in-memory ones; a nil clock
// uses the system clock.
func NewCoordinator(cfg Config, clk clock.Clock, polite, assertive LiveRegion) *Coordinator {
	if cfg.MaxConcurrentAnnouncements <= 0 {
		cfg.MaxConcurrentAnnouncements = DefaultConfig.MaxConcurrentAnnouncements
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultConfig.DebounceDelay
	}
	if cfg.RerenderDelay <= 0 {
		cfg.RerenderDelay = DefaultConfig.RerenderDelay
	}
	if clk == nil {
		clk = clock.System()
	}
	if polite == nil {
		polite = NewMemoryRegion(cfg.RegionWidth)
	}
	if assertive == nil {
		assertive = NewMemoryRegion(cfg.RegionWidth)
	}
	return &Coordinator{
		clk: clk,
		cfg: cfg,
		regions: map[Priority]LiveRegion{
			PriorityPolite:    polite,
			PriorityAssertive: assertive,
		},
		pending:  make(map[string]*pendingAnnouncement),
		active:   make(map[string]*activeAnnouncement),
		rerender: make(map[Priority]*rerenderState),
		promoter: silentPromoter{},
	}
}

// SetPromoter replaces the queue-promotion behavior.
func (c *Coordinator) SetPromoter(p Promoter) {
	if p == nil {
		p = silentPromoter{}
	}
	c.mu.Lock()
	c.promoter = p
	c.mu.Unlock()
}

// Region returns the live region for a tier, nil for PriorityOff.
func (c *Coordinator) Region(p Priority) LiveRegion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regions[p]
}

// Announce submits a message for narration and returns its id. Rapid calls
// with the same message and participant coalesce into one emission carrying
// the latest options. While paused, calls are silently dropped. Malformed
// calls return "".
func (c *Coordinator) Announce(message string, opts AnnounceOptions) string {
	if message == "" {
		debugLog.Printf("announce: dropping empty message")
		return ""
	}
	if opts.Priority == "" {
		opts.Priority = PriorityPolite
	}
	if opts.Category == "" {
		opts.Category = CategoryInformation
	}
	if !opts.Priority.Valid() || !opts.Category.Valid() {
		debugLog.Printf("announce: dropping malformed options %+v", opts)
		return ""
	}

	c.mu.Lock()
	if c.paused || c.closed {
		c.mu.Unlock()
		return ""
	}
	ann := Announcement{
		ID:            uuid.NewString(),
		Message:       message,
		Priority:      opts.Priority,
		Category:      opts.Category,
		ParticipantID: opts.ParticipantID,
		Timestamp:     c.clk.Now(),
		Duration:      opts.Duration,
		Persistent:    opts.Persistent,
	}
	key := debounceKey(message, opts.ParticipantID)
	if prev, ok := c.pending[key]; ok {
		prev.timer.Stop()
	}
	p := &pendingAnnouncement{ann: ann}
	p.timer = c.clk.AfterFunc(c.cfg.DebounceDelay, func() { c.emit(key) })
	c.pending[key] = p
	c.mu.Unlock()
	return ann.ID
}

func debounceKey(message, participantID string) string {
	if participantID == "" {
		participantID = "global"
	}
	return message + "|" + participantID
}

// emit runs when a debounce window closes.
func (c *Coordinator) emit(key string) {
	c.mu.Lock()
	p, ok := c.pending[key]
	if !ok || c.closed {
		c.mu.Unlock()
		return
	}
	delete(c.pending, key)

	if len(c.active) >= c.cfg.MaxConcurrentAnnouncements {
		c.queue = append(c.queue, p.ann)
		c.mu.Unlock()
		return
	}
	cb := c.activateLocked(p.ann)
	c.mu.Unlock()
	if cb != nil {
		cb(p.ann)
	}
}

// activateLocked moves an announcement into the active set, renders it, and
// schedules its auto-clear. Returns the observer to fire after unlocking.
func (c *Coordinator) activateLocked(ann Announcement) func(Announcement) {
	entry := &activeAnnouncement{ann: ann}
	c.active[ann.ID] = entry
	c.renderLocked(ann)
	if ann.Duration > 0 {
		id := ann.ID
		entry.clearTimer = c.clk.AfterFunc(ann.Duration, func() { c.ClearByID(id) })
	}
	return c.OnAnnouncement
}

// renderLocked clears the tier's region, then re-sets it after a short
// delay so assistive technologies register the change. The re-set timer
// is tracked so a later clear can cancel it.
func (c *Coordinator) renderLocked(ann Announcement) {
	region := c.regions[ann.Priority]
	if region == nil {
		// PriorityOff narrates nothing.
		return
	}
	if prev := c.rerender[ann.Priority]; prev != nil {
		prev.timer.Stop()
	}
	region.Clear()
	tier := ann.Priority
	message := ann.Message
	state := &rerenderState{annID: ann.ID}
	state.timer = c.clk.AfterFunc(c.cfg.RerenderDelay, func() {
		c.mu.Lock()
		if c.closed || c.rerender[tier] != state {
			c.mu.Unlock()
			return
		}
		delete(c.rerender, tier)
		c.mu.Unlock()
		region.Set(message)
	})
	c.rerender[tier] = state
}

// stopRerenderLocked cancels a tier's pending re-set. An empty annID
// cancels unconditionally; otherwise only the given announcement's.
func (c *Coordinator) stopRerenderLocked(tier Priority, annID string) {
	state, ok := c.rerender[tier]
	if !ok || (annID != "" && state.annID != annID) {
		return
	}
	state.timer.Stop()
	delete(c.rerender, tier)
}

func (c *Coordinator) render(ann Announcement) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.renderLocked(ann)
	}
}

// ClearByID removes one announcement. When a slot frees up, the queue head
// is promoted via the configured Promoter. Unknown ids return false.
func (c *Coordinator) ClearByID(id string) bool {
	c.mu.Lock()
	if entry, ok := c.active[id]; ok {
		if entry.clearTimer != nil {
			entry.clearTimer.Stop()
		}
		delete(c.active, id)
		c.stopRerenderLocked(entry.ann.Priority, id)
		participantID := entry.ann.ParticipantID

		var promoted *Announcement
		if len(c.queue) > 0 && len(c.active) < c.cfg.MaxConcurrentAnnouncements {
			next := c.queue[0]
			c.queue = c.queue[1:]
			e := &activeAnnouncement{ann: next}
			c.active[next.ID] = e
			if next.Duration > 0 {
				nid := next.ID
				e.clearTimer = c.clk.AfterFunc(next.Duration, func() { c.ClearByID(nid) })
			}
			promoted = &next
		}
		promoter := c.promoter
		cleared := c.OnCleared
		c.mu.Unlock()

		if promoted != nil {
			promoter.Promote(c, *promoted)
		}
		if cleared != nil {
			cleared(participantID)
		}
		return true
	}
	for i, ann := range c.queue {
		if ann.ID == id {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			c.mu.Unlock()
			return true
		}
	}
	c.mu.Unlock()
	return false
}

// ClearAll drops every pending, active, and queued announcement and blanks
// both narration regions.
func (c *Coordinator) ClearAll() {
	c.clear("")
}

// ClearForParticipant drops one participant's announcements. Both regions
// are blanked regardless of who owned the text in them.
func (c *Coordinator) ClearForParticipant(participantID string) {
	c.clear(participantID)
}

func (c *Coordinator) clear(participantID string) {
	c.mu.Lock()
	for key, p := range c.pending {
		if participantID == "" || p.ann.ParticipantID == participantID {
			p.timer.Stop()
			delete(c.pending, key)
		}
	}
	for id, entry := range c.active {
		if participantID == "" || entry.ann.ParticipantID == participantID {
			if entry.clearTimer != nil {
				entry.clearTimer.Stop()
			}
			delete(c.active, id)
		}
	}
	kept := c.queue[:0]
	for _, ann := range c.queue {
		if participantID == "" || ann.ParticipantID == participantID {
			continue
		}
		kept = append(kept, ann)
	}
	c.queue = kept
	for tier, region := range c.regions {
		c.stopRerenderLocked(tier, "")
		region.Clear()
	}
	cleared := c.OnCleared
	c.mu.Unlock()
	if cleared != nil {
		cleared(participantID)
	}
}

// Pause makes Announce drop new calls instead of queuing them.
func (c *Coordinator) Pause() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
}

// Resume re-enables announcements.
func (c *Coordinator) Resume() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
}

// Close tears the coordinator down, stopping every timer and closing both
// narration regions.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for _, p := range c.pending {
		p.timer.Stop()
	}
	c.pending = make(map[string]*pendingAnnouncement)
	for _, entry := range c.active {
		if entry.clearTimer != nil {
			entry.clearTimer.Stop()
		}
	}
	c.active = make(map[string]*activeAnnouncement)
	c.queue = nil
	for tier, region := range c.regions {
		c.stopRerenderLocked(tier, "")
		region.Close()
	}
	c.mu.Unlock()
}

// AnnounceForMenu announces on behalf of a specific participant.
func (c *Coordinator) AnnounceForMenu(participantID, message string, opts AnnounceOptions) string {
	opts.ParticipantID = participantID
	return c.Announce(message, opts)
}

// AnnounceError narrates assertively with the error category.
func (c *Coordinator) AnnounceError(message string, participantID string) string {
	return c.Announce(message, AnnounceOptions{
		Priority:      PriorityAssertive,
		Category:      CategoryError,
		ParticipantID: participantID,
	})
}

// AnnounceSuccess narrates politely with the success category.
func (c *Coordinator) AnnounceSuccess(message string, participantID string) string {
	return c.Announce(message, AnnounceOptions{
		Priority:      PriorityPolite,
		Category:      CategorySuccess,
		ParticipantID: participantID,
	})
}

// AnnounceNavigation narrates politely with the navigation category.
func (c *Coordinator) AnnounceNavigation(message string, participantID string) string {
	return c.Announce(message, AnnounceOptions{
		Priority:      PriorityPolite,
		Category:      CategoryNavigation,
		ParticipantID: participantID,
	})
}

// AnnounceProgress narrates politely with the progress category.
func (c *Coordinator) AnnounceProgress(message string, participantID string) string {
	return c.Announce(message, AnnounceOptions{
		Priority:      PriorityPolite,
		Category:      CategoryProgress,
		ParticipantID: participantID,
	})
}

// ActiveCount returns the number of active announcements.
func (c *Coordinator) ActiveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.active)
}

// QueueLen returns the number of queued announcements.
func (c *Coordinator) QueueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// PendingCount returns the number of announcements still debouncing.
func (c *Coordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
