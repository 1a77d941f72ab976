package coord

import "testing"

func TestRegisterTracksCognitiveLoad(t *testing.T) {
	r := NewRegistry(10)

	if !r.Register(Registration{ID: "a", Category: CategoryTree, CognitiveLoad: 3}) {
		t.Fatalf("expected registration of a to succeed")
	}
	if !r.Register(Registration{ID: "b", Category: CategorySidebar, CognitiveLoad: 4}) {
		t.Fatalf("expected registration of b to succeed")
	}
	if got := r.CognitiveLoad(); got != 7 {
		t.Fatalf("expected load 7, got %d", got)
	}

	r.Unregister("a")
	if got := r.CognitiveLoad(); got != 4 {
		t.Fatalf("expected load 4 after unregister, got %d", got)
	}
	r.Unregister("b")
	if got := r.CognitiveLoad(); got != 0 {
		t.Fatalf("expected load 0 after unregister, got %d", got)
	}
}

func TestRegisterDeniesWhenBudgetExceeded(t *testing.T) {
	r := NewRegistry(10)
	var gotTotal, gotBudget int
	r.OnLoadExceeded = func(total, budget int) {
		gotTotal, gotBudget = total, budget
	}

	if !r.Register(Registration{ID: "A", Category: CategoryNavigation, CognitiveLoad: 6}) {
		t.Fatalf("expected A to register, load 6 within budget 10")
	}
	if r.Register(Registration{ID: "B", Category: CategoryTree, CognitiveLoad: 6}) {
		t.Fatalf("expected B to be denied at total 12 over budget 10")
	}
	if gotTotal != 12 || gotBudget != 10 {
		t.Fatalf("expected OnLoadExceeded(12, 10), got (%d, %d)", gotTotal, gotBudget)
	}
	if got := r.CognitiveLoad(); got != 6 {
		t.Fatalf("denied registration changed load: %d", got)
	}
	if r.Registered("B") {
		t.Fatalf("denied registration stored B")
	}
}

func TestRegisterRejectsMalformedRegistrations(t *testing.T) {
	r := NewRegistry(10)
	cases := []Registration{
		{ID: "", Category: CategoryTree, CognitiveLoad: 2},
		{ID: "x", Category: Category("popup"), CognitiveLoad: 2},
		{ID: "x", Category: CategoryTree, CognitiveLoad: 0},
		{ID: "x", Category: CategoryTree, CognitiveLoad: 11},
	}
	for _, reg := range cases {
		if r.Register(reg) {
			t.Fatalf("expected rejection for %+v", reg)
		}
	}
	if got := r.CognitiveLoad(); got != 0 {
		t.Fatalf("malformed registrations changed load: %d", got)
	}
}

func TestRegisterDerivesPriorityFromCategory(t *testing.T) {
	r := NewRegistry(0)
	// Caller-supplied priority is ignored.
	r.Register(Registration{ID: "ctx", Category: CategoryContext, Priority: 9, CognitiveLoad: 1})
	reg, ok := r.Lookup("ctx")
	if !ok || reg.Priority != 1 {
		t.Fatalf("expected derived priority 1, got %+v", reg)
	}
	r.Register(Registration{ID: "bc", Category: CategoryBreadcrumb, CognitiveLoad: 1})
	reg, _ = r.Lookup("bc")
	if reg.Priority != 10 {
		t.Fatalf("expected breadcrumb priority 10, got %d", reg.Priority)
	}
}

func TestAttentionPreemption(t *testing.T) {
	r := NewRegistry(10)
	r.Register(Registration{ID: "ctx", Category: CategoryContext, CognitiveLoad: 1})
	r.Register(Registration{ID: "nav", Category: CategoryNavigation, CognitiveLoad: 1})

	if !r.RequestAttention("nav") {
		t.Fatalf("expected nav to be granted with no owner")
	}
	if !r.RequestAttention("ctx") {
		t.Fatalf("expected ctx (priority 1) to preempt nav (priority 2)")
	}
	if r.RequestAttention("nav") {
		t.Fatalf("expected nav to be denied while ctx owns attention")
	}
	if !r.HasAttention("ctx") || r.HasAttention("nav") {
		t.Fatalf("expected ctx to own attention, owner=%q", r.AttentionOwner())
	}
}

func TestAttentionDeniedForUnregistered(t *testing.T) {
	r := NewRegistry(10)
	if r.RequestAttention("ghost") {
		t.Fatalf("expected unregistered participant to be denied")
	}
}

func TestAttentionOwnerAlwaysRegistered(t *testing.T) {
	r := NewRegistry(10)
	r.Register(Registration{ID: "tree", Category: CategoryTree, CognitiveLoad: 2})
	r.RequestAttention("tree")
	r.Unregister("tree")

	if owner := r.AttentionOwner(); owner != "" {
		t.Fatalf("expected attention cleared on unregister, owner=%q", owner)
	}
}

func TestReleaseAttentionIdempotent(t *testing.T) {
	r := NewRegistry(10)
	r.Register(Registration{ID: "dd", Category: CategoryDropdown, CognitiveLoad: 1})
	r.Register(Registration{ID: "sb", Category: CategorySidebar, CognitiveLoad: 1})
	r.RequestAttention("dd")

	// Releasing a non-owner must not disturb the current owner.
	r.ReleaseAttention("sb")
	if !r.HasAttention("dd") {
		t.Fatalf("release by non-owner cleared ownership")
	}
	r.ReleaseAttention("dd")
	if r.AttentionOwner() != "" {
		t.Fatalf("expected ownership cleared")
	}
	r.ReleaseAttention("dd")
}

func TestFocusStackLIFO(t *testing.T) {
	r := NewRegistry(10)
	r.PushFocus("a")
	r.PushFocus("b")

	if id, ok := r.PopFocus(); !ok || id != "b" {
		t.Fatalf("expected b, got %q ok=%v", id, ok)
	}
	if id, ok := r.PopFocus(); !ok || id != "a" {
		t.Fatalf("expected a, got %q ok=%v", id, ok)
	}
	if id, ok := r.PopFocus(); ok {
		t.Fatalf("expected empty stack, got %q", id)
	}
}

func TestUnregisterDropsFocusEntries(t *testing.T) {
	r := NewRegistry(10)
	r.Register(Registration{ID: "a", Category: CategoryTree, CognitiveLoad: 1})
	r.PushFocus("a")
	r.PushFocus("other")
	r.Unregister("a")

	if id, ok := r.PopFocus(); !ok || id != "other" {
		t.Fatalf("expected other, got %q ok=%v", id, ok)
	}
	if _, ok := r.PopFocus(); ok {
		t.Fatalf("expected a's focus entry to be dropped")
	}
}

func TestAttentionChangedCallback(t *testing.T) {
	r := NewRegistry(10)
	var transitions [][2]string
	r.OnAttentionChanged = func(prev, next string) {
		transitions = append(transitions, [2]string{prev, next})
	}
	r.Register(Registration{ID: "ctx", Category: CategoryContext, CognitiveLoad: 1})
	r.Register(Registration{ID: "nav", Category: CategoryNavigation, CognitiveLoad: 1})

	r.RequestAttention("nav")
	r.RequestAttention("ctx")
	r.ReleaseAttention("ctx")

	want := [][2]string{{"", "nav"}, {"nav", "ctx"}, {"ctx", ""}}
	if len(transitions) != len(want) {
		t.Fatalf("expected %d transitions, got %v", len(want), transitions)
	}
	for i, tr := range want {
		if transitions[i] != tr {
			t.Fatalf("transition %d: expected %v, got %v", i, tr, transitions[i])
		}
	}
}
