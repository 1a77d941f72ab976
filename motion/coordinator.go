// Copyright © 2025 Conductor contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: motion/coordinator.go
// Summary: Admission control and queuing for UI animations.
// Usage: One coordinator per coordination instance; surfaces request
// animations and the coordinator admits, queues, or skips them against a
// motion budget. Animations already running are never interrupted; only
// admission of new work is arbitrated.

package motion

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/framegrace/conductor/coord"
	"github.com/framegrace/conductor/internal/clock"
)

// errNoRegistry indicates a wiring bug: the coordinator was constructed
// without the registry it depends on.
var errNoRegistry = errors.New("motion: coordinator requires a registry")

// Budget bounds concurrently running animations.
type Budget struct {
	MaxConcurrentAnimations int
	MaxTotalCognitiveLoad   float64
}

// DefaultBudget is used when a zero Budget is supplied.
var DefaultBudget = Budget{
	MaxConcurrentAnimations: 3,
	MaxTotalCognitiveLoad:   15,
}

// Request describes one animation. ID and Timestamp are assigned by the
// coordinator; CognitiveLoad is derived, independent of the participant's
// registration weight. Build requests with NewRequest to get the defaults
// (priority 5, medium trust, reducible).
type Request struct {
	ID             string
	ParticipantID  string
	MotionType     MotionType
	DurationClass  DurationClass
	CustomDuration time.Duration
	Priority       int
	TrustLevel     TrustLevel
	Reducible      bool
	OnStart        func(id string)
	OnComplete     func(id string)
	OnCancel       func(id string)
	Timestamp      time.Time
}

// NewRequest returns a request with the documented defaults.
func NewRequest(participantID string, t MotionType, class DurationClass) Request {
	return Request{
		ParticipantID: participantID,
		MotionType:    t,
		DurationClass: class,
		Priority:      5,
		TrustLevel:    TrustMedium,
		Reducible:     true,
	}
}

func (r Request) validate() bool {
	if r.ParticipantID == "" {
		return false
	}
	if !r.MotionType.Valid() || !r.DurationClass.Valid() {
		return false
	}
	return true
}

// Active is a snapshot of an admitted animation.
type Active struct {
	Request          Request
	Weight           float64
	StartTime        time.Time
	EstimatedEndTime time.Time
}

type activeAnimation struct {
	req      Request
	weight   float64
	duration time.Duration
	start    time.Time
	end      time.Time
	timer    clock.Timer
}

func (a *activeAnimation) snapshot() Active {
	return Active{Request: a.req, Weight: a.weight, StartTime: a.start, EstimatedEndTime: a.end}
}

type pendingRequest struct {
	req      Request
	weight   float64
	duration time.Duration
}

// ReductionPolicy computes how much notional headroom active animations
// could yield to an over-budget request. The default policy counts active,
// lower-priority, reducible animations but nothing actually reduces them
// in flight; replace the policy to change that.
type ReductionPolicy interface {
	Headroom(active []Active, req Request, weight float64) float64
}

// AdvisoryReduction is the default ReductionPolicy: it sums the weights of
// active reducible animations with strictly lower priority than the request.
type AdvisoryReduction struct{}

func (AdvisoryReduction) Headroom(active []Active, req Request, weight float64) float64 {
	var headroom float64
	for _, a := range active {
		if a.Request.Reducible && a.Request.Priority > req.Priority {
			headroom += a.Weight
		}
	}
	return headroom
}

// Coordinator arbitrates the motion budget.
type Coordinator struct {
	mu       sync.Mutex
	registry *coord.Registry
	clk      clock.Clock
	budget   Budget
	timeline *Timeline

	active         map[string]*activeAnimation
	queue          []pendingRequest
	currentLoad    float64
	paused         bool
	motionPriority string

	reduction ReductionPolicy

	// OnBudgetExceeded fires when a request cannot be admitted immediately.
	OnBudgetExceeded func(total, max float64)
	// OnStarted, OnCompleted, OnQueued feed the facade's event stream.
	OnStarted   func(a Active)
	OnCompleted func(a Active)
	OnQueued    func(req Request)
}

// NewCoordinator creates a motion coordinator. The registry is required for
// participant validity checks; a nil registry is a wiring bug. A zero budget
// falls back to DefaultBudget; a nil clock uses the system clock.
func NewCoordinator(registry *coord.Registry, budget Budget, clk clock.Clock) (*Coordinator, error) {
	if registry == nil {
		return nil, errNoRegistry
	}
	if budget.MaxConcurrentAnimations <= 0 {
		budget.MaxConcurrentAnimations = DefaultBudget.MaxConcurrentAnimations
	}
	if budget.MaxTotalCognitiveLoad <= 0 {
		budget.MaxTotalCognitiveLoad = DefaultBudget.MaxTotalCognitiveLoad
	}
	if clk == nil {
		clk = clock.System()
	}
	return &Coordinator{
		registry:  registry,
		clk:       clk,
		budget:    budget,
		timeline:  NewTimeline(),
		active:    make(map[string]*activeAnimation),
		reduction: AdvisoryReduction{},
	}, nil
}

// SetReductionPolicy replaces the notional-headroom policy.
func (c *Coordinator) SetReductionPolicy(p ReductionPolicy) {
	if p == nil {
		p = AdvisoryReduction{}
	}
	c.mu.Lock()
	c.reduction = p
	c.mu.Unlock()
}

// Request submits an animation. Invalid requests return "" without side
// effects. Valid requests always get an id; the animation either starts
// immediately (OnStart fires) or waits in the FIFO queue until completions
// free enough budget.
func (c *Coordinator) Request(req Request) string {
	if !req.validate() {
		debugLog.Printf("motion: rejecting malformed request %+v", req)
		return ""
	}
	if !c.registry.Registered(req.ParticipantID) {
		debugLog.Printf("motion: rejecting request for unregistered participant %q", req.ParticipantID)
		return ""
	}
	if req.Priority < 1 {
		req.Priority = 1
	} else if req.Priority > 10 {
		req.Priority = 10
	}
	req.ID = uuid.NewString()
	req.Timestamp = c.clk.Now()
	duration := req.DurationClass.Duration(req.CustomDuration)
	weight := deriveWeight(req.MotionType, duration, req.Priority)

	c.mu.Lock()
	if c.admitLocked(weight, req) {
		snap := c.startLocked(req, weight, duration)
		onStart := req.OnStart
		started := c.OnStarted
		c.mu.Unlock()
		if onStart != nil {
			onStart(req.ID)
		}
		if started != nil {
			started(snap)
		}
		return req.ID
	}
	c.queue = append(c.queue, pendingRequest{req: req, weight: weight, duration: duration})
	total := c.currentLoad + weight
	max := c.budget.MaxTotalCognitiveLoad
	exceeded := c.OnBudgetExceeded
	queued := c.OnQueued
	c.mu.Unlock()
	if exceeded != nil {
		exceeded(total, max)
	}
	if queued != nil {
		queued(req)
	}
	return req.ID
}

// admitLocked is the single admission test used for fresh requests and for
// queue promotion. Concurrency slots are hard; load can be notionally
// relieved by the reduction policy.
func (c *Coordinator) admitLocked(weight float64, req Request) bool {
	if len(c.active) >= c.budget.MaxConcurrentAnimations {
		return false
	}
	if c.currentLoad+weight <= c.budget.MaxTotalCognitiveLoad {
		return true
	}
	headroom := c.reduction.Headroom(c.activeSnapshotLocked(), req, weight)
	return c.currentLoad+weight-headroom <= c.budget.MaxTotalCognitiveLoad
}

func (c *Coordinator) startLocked(req Request, weight float64, duration time.Duration) Active {
	now := c.clk.Now()
	a := &activeAnimation{
		req:      req,
		weight:   weight,
		duration: duration,
		start:    now,
		end:      now.Add(duration),
	}
	c.active[req.ID] = a
	c.currentLoad += weight
	c.timeline.Start(req.ID, duration, now)
	id := req.ID
	a.timer = c.clk.AfterFunc(duration, func() { c.complete(id) })
	return a.snapshot()
}

func (c *Coordinator) complete(id string) {
	c.mu.Lock()
	a, ok := c.active[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.active, id)
	c.currentLoad -= a.weight
	c.timeline.Remove(id)
	snap := a.snapshot()
	onComplete := a.req.OnComplete
	completed := c.OnCompleted
	promoted := c.drainLocked()
	started := c.OnStarted
	c.mu.Unlock()

	if onComplete != nil {
		onComplete(id)
	}
	if completed != nil {
		completed(snap)
	}
	c.firePromotions(promoted, started)
}

// drainLocked promotes queued requests in FIFO order for as long as the
// head passes the admission test.
func (c *Coordinator) drainLocked() []Active {
	var promoted []Active
	for len(c.queue) > 0 {
		head := c.queue[0]
		if !c.admitLocked(head.weight, head.req) {
			break
		}
		c.queue = c.queue[1:]
		promoted = append(promoted, c.startLocked(head.req, head.weight, head.duration))
	}
	return promoted
}

func (c *Coordinator) firePromotions(promoted []Active, started func(Active)) {
	for _, snap := range promoted {
		if snap.Request.OnStart != nil {
			snap.Request.OnStart(snap.Request.ID)
		}
		if started != nil {
			started(snap)
		}
	}
}

// Cancel removes an active or queued animation, reversing its load charge
// and running its cleanup callback. Returns false for unknown ids.
func (c *Coordinator) Cancel(id string) bool {
	c.mu.Lock()
	if a, ok := c.active[id]; ok {
		if a.timer != nil {
			a.timer.Stop()
		}
		delete(c.active, id)
		c.currentLoad -= a.weight
		c.timeline.Remove(id)
		onCancel := a.req.OnCancel
		promoted := c.drainLocked()
		started := c.OnStarted
		c.mu.Unlock()
		if onCancel != nil {
			onCancel(id)
		}
		c.firePromotions(promoted, started)
		return true
	}
	for i, p := range c.queue {
		if p.req.ID == id {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			onCancel := p.req.OnCancel
			c.mu.Unlock()
			if onCancel != nil {
				onCancel(id)
			}
			return true
		}
	}
	c.mu.Unlock()
	return false
}

// CancelForParticipant removes every active and queued animation belonging
// to a participant. Returns the number of animations removed.
func (c *Coordinator) CancelForParticipant(participantID string) int {
	c.mu.Lock()
	var cancelled []func(string)
	var ids []string
	for id, a := range c.active {
		if a.req.ParticipantID != participantID {
			continue
		}
		if a.timer != nil {
			a.timer.Stop()
		}
		delete(c.active, id)
		c.currentLoad -= a.weight
		c.timeline.Remove(id)
		cancelled = append(cancelled, a.req.OnCancel)
		ids = append(ids, id)
	}
	kept := c.queue[:0]
	for _, p := range c.queue {
		if p.req.ParticipantID == participantID {
			cancelled = append(cancelled, p.req.OnCancel)
			ids = append(ids, p.req.ID)
			continue
		}
		kept = append(kept, p)
	}
	c.queue = kept
	promoted := c.drainLocked()
	started := c.OnStarted
	c.mu.Unlock()

	for i, cb := range cancelled {
		if cb != nil {
			cb(ids[i])
		}
	}
	c.firePromotions(promoted, started)
	return len(ids)
}

// ShouldAnimate reports whether a participant should run an animation of
// the given type right now. While paused nothing animates; under budget
// saturation only the motion-priority holder animates.
func (c *Coordinator) ShouldAnimate(participantID string, t MotionType) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		return false
	}
	saturated := len(c.active) >= c.budget.MaxConcurrentAnimations ||
		c.currentLoad >= c.budget.MaxTotalCognitiveLoad
	if saturated {
		return c.motionPriority != "" && c.motionPriority == participantID
	}
	return true
}

// SetMotionPriority grants the single motion-priority slot. It is
// independent of attention ownership.
func (c *Coordinator) SetMotionPriority(participantID string) {
	c.mu.Lock()
	c.motionPriority = participantID
	c.mu.Unlock()
}

// ReleaseMotionPriority clears the slot only when held by participantID.
func (c *Coordinator) ReleaseMotionPriority(participantID string) {
	c.mu.Lock()
	if c.motionPriority == participantID {
		c.motionPriority = ""
	}
	c.mu.Unlock()
}

// Pause stops ShouldAnimate from approving new animations. Admission and
// completion of already-requested work continue.
func (c *Coordinator) Pause() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
}

// Resume re-enables animation approval.
func (c *Coordinator) Resume() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
}

// BudgetStatus reports used load, remaining headroom, and the used
// percentage of the load budget.
func (c *Coordinator) BudgetStatus() (used, available, percentage float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	used = c.currentLoad
	available = c.budget.MaxTotalCognitiveLoad - used
	if available < 0 {
		available = 0
	}
	percentage = 0
	if c.budget.MaxTotalCognitiveLoad > 0 {
		percentage = used / c.budget.MaxTotalCognitiveLoad * 100
	}
	return used, available, percentage
}

// ActiveCount returns the number of running animations.
func (c *Coordinator) ActiveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.active)
}

// QueueLen returns the number of animations waiting for admission.
func (c *Coordinator) QueueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Progress returns the eased progress [0,1] of an active animation.
func (c *Coordinator) Progress(id string) float64 {
	return c.timeline.Progress(id, c.clk.Now())
}

func (c *Coordinator) activeSnapshotLocked() []Active {
	out := make([]Active, 0, len(c.active))
	for _, a := range c.active {
		out = append(out, a.snapshot())
	}
	return out
}
