package motion

import (
	"testing"
	"time"

	"github.com/framegrace/conductor/coord"
	"github.com/framegrace/conductor/internal/clock"
)

func newTestCoordinator(t *testing.T, budget Budget) (*Coordinator, *coord.Registry, *clock.Fake) {
	t.Helper()
	registry := coord.NewRegistry(50)
	if !registry.Register(coord.Registration{ID: "menu", Category: coord.CategoryDropdown, CognitiveLoad: 1}) {
		t.Fatalf("failed to register test participant")
	}
	if !registry.Register(coord.Registration{ID: "tree", Category: coord.CategoryTree, CognitiveLoad: 1}) {
		t.Fatalf("failed to register test participant")
	}
	fc := clock.NewFake()
	c, err := NewCoordinator(registry, budget, fc)
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	return c, registry, fc
}

func TestNewCoordinatorRequiresRegistry(t *testing.T) {
	if _, err := NewCoordinator(nil, Budget{}, clock.NewFake()); err == nil {
		t.Fatalf("expected error for nil registry")
	}
}

func TestRequestRejectsInvalidShapes(t *testing.T) {
	c, _, _ := newTestCoordinator(t, Budget{})

	if id := c.Request(Request{}); id != "" {
		t.Fatalf("expected empty id for zero request, got %q", id)
	}
	if id := c.Request(NewRequest("", MotionFade, DurationFast)); id != "" {
		t.Fatalf("expected empty id for missing participant")
	}
	if id := c.Request(NewRequest("ghost", MotionFade, DurationFast)); id != "" {
		t.Fatalf("expected empty id for unregistered participant")
	}
	req := NewRequest("menu", MotionType("wiggle"), DurationFast)
	if id := c.Request(req); id != "" {
		t.Fatalf("expected empty id for unknown motion type")
	}
}

func TestQueuedAnimationAutoAdmittedOnCompletion(t *testing.T) {
	c, _, fc := newTestCoordinator(t, Budget{MaxConcurrentAnimations: 1, MaxTotalCognitiveLoad: 100})

	var events []string
	x := NewRequest("menu", MotionFade, DurationFast)
	x.OnStart = func(string) { events = append(events, "x-start") }
	x.OnComplete = func(string) { events = append(events, "x-complete") }
	y := NewRequest("tree", MotionFade, DurationFast)
	y.OnStart = func(string) { events = append(events, "y-start") }

	xid := c.Request(x)
	if xid == "" {
		t.Fatalf("expected X to be admitted")
	}
	if got := c.ActiveCount(); got != 1 {
		t.Fatalf("expected 1 active, got %d", got)
	}

	yid := c.Request(y)
	if yid == "" {
		t.Fatalf("expected Y to receive an id while queued")
	}
	if got := c.QueueLen(); got != 1 {
		t.Fatalf("expected Y queued, queue len %d", got)
	}
	if len(events) != 1 || events[0] != "x-start" {
		t.Fatalf("expected only x-start so far, got %v", events)
	}

	fc.Advance(150 * time.Millisecond)

	if got := c.QueueLen(); got != 0 {
		t.Fatalf("expected queue drained, len %d", got)
	}
	if got := c.ActiveCount(); got != 1 {
		t.Fatalf("expected Y active, count %d", got)
	}
	want := []string{"x-start", "x-complete", "y-start"}
	if len(events) != len(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, events)
		}
	}
}

func TestBudgetExceededCallbackFiresOnQueue(t *testing.T) {
	c, _, _ := newTestCoordinator(t, Budget{MaxConcurrentAnimations: 1, MaxTotalCognitiveLoad: 100})
	var gotTotal, gotMax float64
	c.OnBudgetExceeded = func(total, max float64) { gotTotal, gotMax = total, max }

	c.Request(NewRequest("menu", MotionFade, DurationFast))
	c.Request(NewRequest("tree", MotionFade, DurationFast))

	if gotMax != 100 {
		t.Fatalf("expected max 100, got %v", gotMax)
	}
	// fade fast at priority 5 weighs 2; two of them project to 4.
	if gotTotal != 4 {
		t.Fatalf("expected projected total 4, got %v", gotTotal)
	}
}

func TestCancelReversesLoadCharge(t *testing.T) {
	c, _, _ := newTestCoordinator(t, Budget{MaxConcurrentAnimations: 5, MaxTotalCognitiveLoad: 100})
	var cleaned []string
	req := NewRequest("menu", MotionScale, DurationSlow)
	req.OnCancel = func(id string) { cleaned = append(cleaned, id) }

	id := c.Request(req)
	used, _, _ := c.BudgetStatus()
	if used == 0 {
		t.Fatalf("expected load charged on admission")
	}

	if !c.Cancel(id) {
		t.Fatalf("expected Cancel to find the active animation")
	}
	used, _, _ = c.BudgetStatus()
	if used != 0 {
		t.Fatalf("expected load reversed, got %v", used)
	}
	if len(cleaned) != 1 || cleaned[0] != id {
		t.Fatalf("expected cleanup callback for %q, got %v", id, cleaned)
	}
	if c.Cancel(id) {
		t.Fatalf("expected second Cancel to report false")
	}
}

func TestCancelForParticipantRemovesActiveAndQueued(t *testing.T) {
	c, _, _ := newTestCoordinator(t, Budget{MaxConcurrentAnimations: 1, MaxTotalCognitiveLoad: 100})

	c.Request(NewRequest("menu", MotionFade, DurationSlow))
	c.Request(NewRequest("menu", MotionFade, DurationSlow)) // queued
	c.Request(NewRequest("tree", MotionFade, DurationSlow)) // queued

	if got := c.CancelForParticipant("menu"); got != 2 {
		t.Fatalf("expected 2 cancelled, got %d", got)
	}
	// The tree animation should have been promoted into the freed slot.
	if got := c.ActiveCount(); got != 1 {
		t.Fatalf("expected tree animation active, count %d", got)
	}
	if got := c.QueueLen(); got != 0 {
		t.Fatalf("expected empty queue, len %d", got)
	}
}

func TestShouldAnimateRespectsPauseAndMotionPriority(t *testing.T) {
	c, _, _ := newTestCoordinator(t, Budget{MaxConcurrentAnimations: 1, MaxTotalCognitiveLoad: 100})

	if !c.ShouldAnimate("menu", MotionFade) {
		t.Fatalf("expected animation allowed under an empty budget")
	}

	c.Pause()
	if c.ShouldAnimate("menu", MotionFade) {
		t.Fatalf("expected pause to block animation")
	}
	c.Resume()

	// Saturate the concurrency budget.
	c.Request(NewRequest("menu", MotionFade, DurationSlow))
	if c.ShouldAnimate("tree", MotionFade) {
		t.Fatalf("expected saturation to block non-priority participants")
	}
	c.SetMotionPriority("tree")
	if !c.ShouldAnimate("tree", MotionFade) {
		t.Fatalf("expected the motion-priority holder to animate under saturation")
	}
	c.ReleaseMotionPriority("menu") // not the holder, must be a no-op
	if !c.ShouldAnimate("tree", MotionFade) {
		t.Fatalf("release by non-holder cleared the slot")
	}
	c.ReleaseMotionPriority("tree")
	if c.ShouldAnimate("tree", MotionFade) {
		t.Fatalf("expected block after the holder released the slot")
	}
}

func TestAdvisoryHeadroomAdmitsOverLoadBudget(t *testing.T) {
	// Load budget 4 fits exactly one fade (weight 2 at priority 5) twice.
	c, _, _ := newTestCoordinator(t, Budget{MaxConcurrentAnimations: 10, MaxTotalCognitiveLoad: 4})

	low := NewRequest("menu", MotionFade, DurationFast)
	low.Priority = 8
	c.Request(low)
	c.Request(low)

	used, _, _ := c.BudgetStatus()
	if used != 4 {
		t.Fatalf("expected load 4, got %v", used)
	}

	// A higher-priority request is over budget, but the two active reducible
	// low-priority animations count as notional headroom.
	high := NewRequest("tree", MotionFade, DurationFast)
	high.Priority = 1
	c.Request(high)

	if got := c.QueueLen(); got != 0 {
		t.Fatalf("expected headroom admission, queue len %d", got)
	}
	if got := c.ActiveCount(); got != 3 {
		t.Fatalf("expected 3 active, got %d", got)
	}
}

func TestNonReducibleAnimationsYieldNoHeadroom(t *testing.T) {
	c, _, _ := newTestCoordinator(t, Budget{MaxConcurrentAnimations: 10, MaxTotalCognitiveLoad: 4})

	low := NewRequest("menu", MotionFade, DurationFast)
	low.Priority = 8
	low.Reducible = false
	c.Request(low)
	c.Request(low)

	high := NewRequest("tree", MotionFade, DurationFast)
	high.Priority = 1
	c.Request(high)

	if got := c.QueueLen(); got != 1 {
		t.Fatalf("expected request queued without reducible headroom, len %d", got)
	}
}

func TestProgressAdvancesWithClock(t *testing.T) {
	c, _, fc := newTestCoordinator(t, Budget{MaxConcurrentAnimations: 5, MaxTotalCognitiveLoad: 100})
	req := NewRequest("menu", MotionSlide, DurationCustom)
	req.CustomDuration = 400 * time.Millisecond
	id := c.Request(req)

	if got := c.Progress(id); got != 0 {
		t.Fatalf("expected progress 0 at start, got %v", got)
	}
	fc.Advance(200 * time.Millisecond)
	mid := c.Progress(id)
	if mid <= 0 || mid >= 1 {
		t.Fatalf("expected mid-flight progress in (0,1), got %v", mid)
	}
	fc.Advance(400 * time.Millisecond)
	if got := c.Progress(id); got != 0 {
		t.Fatalf("expected completed animation dropped from the timeline, got %v", got)
	}
}
