package motion

import (
	"testing"
	"time"
)

func TestTimelineProgressEndpoints(t *testing.T) {
	tl := NewTimeline()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tl.StartWithEasing("a", 100*time.Millisecond, start, EaseLinear)

	if got := tl.Progress("a", start); got != 0 {
		t.Fatalf("expected 0 at start, got %v", got)
	}
	if got := tl.Progress("a", start.Add(50*time.Millisecond)); got != 0.5 {
		t.Fatalf("expected 0.5 halfway with linear easing, got %v", got)
	}
	if got := tl.Progress("a", start.Add(100*time.Millisecond)); got != 1 {
		t.Fatalf("expected 1 at end, got %v", got)
	}
	if got := tl.Progress("a", start.Add(time.Hour)); got != 1 {
		t.Fatalf("expected 1 after end, got %v", got)
	}
}

func TestTimelineInstantAnimationCompletesImmediately(t *testing.T) {
	tl := NewTimeline()
	now := time.Now()
	tl.Start("a", 0, now)
	if got := tl.Progress("a", now); got != 1 {
		t.Fatalf("expected instant animation at 1, got %v", got)
	}
	if tl.Running("a", now) {
		t.Fatalf("instant animation reported running")
	}
}

func TestTimelineUnknownKeyIsZero(t *testing.T) {
	tl := NewTimeline()
	if got := tl.Progress("missing", time.Now()); got != 0 {
		t.Fatalf("expected 0 for unknown key, got %v", got)
	}
}

func TestTimelineRemoveAndClear(t *testing.T) {
	tl := NewTimeline()
	now := time.Now()
	tl.Start("a", time.Second, now)
	tl.Start("b", time.Second, now)

	tl.Remove("a")
	if tl.Running("a", now.Add(time.Millisecond)) {
		t.Fatalf("removed key still running")
	}
	tl.Clear()
	if tl.Running("b", now.Add(time.Millisecond)) {
		t.Fatalf("cleared key still running")
	}
}

func TestEasingShapes(t *testing.T) {
	for _, fn := range []EasingFunc{EaseLinear, EaseSmoothstep, EaseOutQuad, EaseInOutCubic} {
		if got := fn(0); got != 0 {
			t.Fatalf("easing at 0 should be 0, got %v", got)
		}
		if got := fn(1); got != 1 {
			t.Fatalf("easing at 1 should be 1, got %v", got)
		}
	}
	if EaseSmoothstep(0.5) != 0.5 {
		t.Fatalf("smoothstep midpoint should be 0.5")
	}
}
