package keyboard

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/framegrace/conductor/coord"
	"github.com/framegrace/conductor/internal/clock"
)

type dispatched struct {
	participant string
	action      string
}

func newTestRouter(t *testing.T) (*Router, *coord.Registry, *coord.FocusTracker, *clock.Fake, *[]dispatched) {
	t.Helper()
	reg := coord.NewRegistry(0)
	focus := coord.NewFocusTracker()
	fc := clock.NewFake()
	r, err := NewRouter(reg, focus, Config{}, fc)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	var actions []dispatched
	r.OnAction = func(pid, action string, ev *tcell.EventKey) {
		actions = append(actions, dispatched{pid, action})
	}
	return r, reg, focus, fc, &actions
}

func registerTree(t *testing.T, r *Router, reg *coord.Registry, id string) {
	t.Helper()
	if !reg.Register(coord.Registration{ID: id, Category: coord.CategoryTree, CognitiveLoad: 3}) {
		t.Fatalf("registry rejected %s", id)
	}
	if !r.RegisterHandler(Binding{
		ParticipantID: id,
		Category:      coord.CategoryTree,
		Action:        func(string, *tcell.EventKey) {},
	}) {
		t.Fatalf("router rejected handler %s", id)
	}
}

func key(k tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}

func runeKey(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestConstructorRequiresCollaborators(t *testing.T) {
	focus := coord.NewFocusTracker()
	if _, err := NewRouter(nil, focus, Config{}, nil); err == nil {
		t.Fatalf("expected error for nil registry")
	}
	if _, err := NewRouter(coord.NewRegistry(0), nil, Config{}, nil); err == nil {
		t.Fatalf("expected error for nil focus service")
	}
}

func TestGlobalShortcutWinsOverParticipant(t *testing.T) {
	r, reg, focus, _, actions := newTestRouter(t)
	registerTree(t, r, reg, "tree")
	focus.SetFocused("tree")

	// Bind Enter globally; the tree also binds Enter.
	r.SetGlobalShortcut("commit", KeyConfig{Key: tcell.KeyEnter, Action: "commit", PreventDefault: true})

	res := r.HandleKey(key(tcell.KeyEnter))
	if !res.Handled || res.Stage != StageGlobalShortcut || res.Action != "commit" {
		t.Fatalf("expected global shortcut to claim Enter, got %+v", res)
	}
	if !res.PreventDefault {
		t.Fatalf("expected PreventDefault carried through")
	}
	if len(*actions) != 1 || (*actions)[0] != (dispatched{"tree", "commit"}) {
		t.Fatalf("expected shortcut dispatched to focused participant, got %v", *actions)
	}
}

func TestDefaultTreeKeymap(t *testing.T) {
	r, reg, focus, _, actions := newTestRouter(t)
	registerTree(t, r, reg, "tree")
	focus.SetFocused("tree")

	res := r.HandleKey(key(tcell.KeyRight))
	if !res.Handled || res.Stage != StageParticipant || res.Action != "expand" {
		t.Fatalf("expected Right to expand, got %+v", res)
	}
	res = r.HandleKey(key(tcell.KeyLeft))
	if res.Action != "collapse" {
		t.Fatalf("expected Left to collapse, got %+v", res)
	}
	want := []dispatched{{"tree", "expand"}, {"tree", "collapse"}}
	if len(*actions) != 2 || (*actions)[0] != want[0] || (*actions)[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, *actions)
	}
}

func TestKeysOverrideDefaults(t *testing.T) {
	r, reg, focus, _, _ := newTestRouter(t)
	if !reg.Register(coord.Registration{ID: "dd", Category: coord.CategoryDropdown, CognitiveLoad: 2}) {
		t.Fatalf("registry rejected dd")
	}
	r.RegisterHandler(Binding{
		ParticipantID: "dd",
		Category:      coord.CategoryDropdown,
		Keys:          []KeyConfig{{Key: tcell.KeyEnter, Action: "pick"}},
		Action:        func(string, *tcell.EventKey) {},
	})
	focus.SetFocused("dd")

	if res := r.HandleKey(key(tcell.KeyEnter)); res.Action != "pick" {
		t.Fatalf("expected custom binding, got %+v", res)
	}
	// The default dropdown Escape binding must be gone.
	if res := r.HandleKey(key(tcell.KeyEscape)); res.Handled {
		t.Fatalf("expected overridden keymap to drop defaults, got %+v", res)
	}
}

func TestTypeAheadEntryAndContinuation(t *testing.T) {
	r, reg, focus, _, _ := newTestRouter(t)
	registerTree(t, r, reg, "tree")
	focus.SetFocused("tree")

	var terms []string
	r.OnSearchChanged = func(term string, active bool) { terms = append(terms, term) }

	res := r.HandleKey(runeKey('f'))
	if !res.Handled || res.Stage != StageSearchEntry {
		t.Fatalf("expected printable rune to start search, got %+v", res)
	}
	if !r.SearchActive() || r.SearchTerm() != "f" {
		t.Fatalf("expected search term %q, got %q", "f", r.SearchTerm())
	}

	res = r.HandleKey(runeKey('o'))
	if res.Stage != StageSearch || r.SearchTerm() != "fo" {
		t.Fatalf("expected continuation, got %+v term=%q", res, r.SearchTerm())
	}
	// Space appends once the term is non-empty.
	r.HandleKey(runeKey(' '))
	if r.SearchTerm() != "fo " {
		t.Fatalf("expected space appended, got %q", r.SearchTerm())
	}

	r.HandleKey(key(tcell.KeyBackspace2))
	if r.SearchTerm() != "fo" {
		t.Fatalf("expected backspace trim, got %q", r.SearchTerm())
	}

	res = r.HandleKey(key(tcell.KeyEscape))
	if !res.Handled || res.Stage != StageSearch || r.SearchActive() {
		t.Fatalf("expected escape to exit search, got %+v", res)
	}
	if len(terms) == 0 || terms[len(terms)-1] != "" {
		t.Fatalf("expected final search change to be empty, got %v", terms)
	}
}

func TestBareSpaceNeverStartsSearch(t *testing.T) {
	r, reg, focus, _, _ := newTestRouter(t)
	if !reg.Register(coord.Registration{ID: "dd", Category: coord.CategoryDropdown, CognitiveLoad: 2}) {
		t.Fatalf("registry rejected dd")
	}
	r.RegisterHandler(Binding{
		ParticipantID: "dd",
		Category:      coord.CategoryDropdown,
		Action:        func(string, *tcell.EventKey) {},
	})
	focus.SetFocused("dd")

	res := r.HandleKey(runeKey(' '))
	if r.SearchActive() {
		t.Fatalf("bare space must not start search")
	}
	// It falls through to the dropdown's default space toggle.
	if res.Stage != StageParticipant || res.Action != "toggle" {
		t.Fatalf("expected space to reach the dropdown keymap, got %+v", res)
	}
}

func TestBackspaceOnSingleRuneExitsSearch(t *testing.T) {
	r, reg, focus, _, _ := newTestRouter(t)
	registerTree(t, r, reg, "tree")
	focus.SetFocused("tree")

	r.HandleKey(runeKey('x'))
	r.HandleKey(key(tcell.KeyBackspace))
	if r.SearchActive() {
		t.Fatalf("expected trimming the last rune to exit search")
	}
}

func TestSearchExpiresAfterInactivity(t *testing.T) {
	r, reg, focus, fc, _ := newTestRouter(t)
	registerTree(t, r, reg, "tree")
	focus.SetFocused("tree")

	r.HandleKey(runeKey('a'))
	fc.Advance(900 * time.Millisecond)
	r.HandleKey(runeKey('b')) // resets the window
	fc.Advance(900 * time.Millisecond)
	if !r.SearchActive() || r.SearchTerm() != "ab" {
		t.Fatalf("expected search still active after reset, term=%q", r.SearchTerm())
	}
	fc.Advance(200 * time.Millisecond)
	if r.SearchActive() || r.SearchTerm() != "" {
		t.Fatalf("expected search to expire after the inactivity window")
	}
}

func TestSearchClaimsNonPrintableKeys(t *testing.T) {
	r, reg, focus, _, actions := newTestRouter(t)
	registerTree(t, r, reg, "tree")
	focus.SetFocused("tree")

	r.HandleKey(runeKey('a'))
	res := r.HandleKey(key(tcell.KeyDown))
	if res.Stage != StageSearch {
		t.Fatalf("expected search mode to claim the keystroke, got %+v", res)
	}
	if len(*actions) != 0 {
		t.Fatalf("arrow key must not reach the participant during search, got %v", *actions)
	}
	if !r.SearchActive() {
		t.Fatalf("ignored keys must not end search")
	}
}

func TestDisabledHandlerIgnoresKeys(t *testing.T) {
	r, reg, focus, _, actions := newTestRouter(t)
	registerTree(t, r, reg, "tree")
	focus.SetFocused("tree")

	if !r.SetHandlerEnabled("tree", false) {
		t.Fatalf("expected SetHandlerEnabled to find tree")
	}
	if res := r.HandleKey(key(tcell.KeyRight)); res.Handled {
		t.Fatalf("disabled handler must not claim keys, got %+v", res)
	}
	r.SetHandlerEnabled("tree", true)
	if res := r.HandleKey(key(tcell.KeyRight)); !res.Handled {
		t.Fatalf("re-enabled handler should claim keys again")
	}
	if len(*actions) != 1 {
		t.Fatalf("expected one dispatch, got %v", *actions)
	}
}

func TestTriggerAction(t *testing.T) {
	r, reg, _, _, actions := newTestRouter(t)
	registerTree(t, r, reg, "tree")

	if !r.TriggerAction("tree", "expand", nil) {
		t.Fatalf("expected TriggerAction to succeed")
	}
	if r.TriggerAction("ghost", "expand", nil) {
		t.Fatalf("expected unknown participant to fail")
	}
	if len(*actions) != 1 || (*actions)[0] != (dispatched{"tree", "expand"}) {
		t.Fatalf("expected observed dispatch, got %v", *actions)
	}
}

func TestNoFocusNoDispatch(t *testing.T) {
	r, reg, _, _, _ := newTestRouter(t)
	registerTree(t, r, reg, "tree")

	if res := r.HandleKey(key(tcell.KeyRight)); res.Handled {
		t.Fatalf("without focus nothing should be dispatched, got %+v", res)
	}
	if res := r.HandleKey(runeKey('a')); res.Handled || r.SearchActive() {
		t.Fatalf("without focus type-ahead must not start")
	}
}

func TestUnregisterHandler(t *testing.T) {
	r, reg, focus, _, _ := newTestRouter(t)
	registerTree(t, r, reg, "tree")
	focus.SetFocused("tree")

	r.UnregisterHandler("tree")
	if res := r.HandleKey(key(tcell.KeyRight)); res.Handled {
		t.Fatalf("unregistered handler must not claim keys")
	}
	if r.HandlerCount() != 0 {
		t.Fatalf("expected empty handler table")
	}
}

func TestDisableTypeAhead(t *testing.T) {
	reg := coord.NewRegistry(0)
	focus := coord.NewFocusTracker()
	r, err := NewRouter(reg, focus, Config{DisableTypeAhead: true}, clock.NewFake())
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	registerTree(t, r, reg, "tree")
	focus.SetFocused("tree")

	if res := r.HandleKey(runeKey('a')); res.Stage == StageSearchEntry || r.SearchActive() {
		t.Fatalf("type-ahead disabled yet search started: %+v", res)
	}
}

func TestGlobalShortcutReplaceAndRemove(t *testing.T) {
	r, reg, focus, _, actions := newTestRouter(t)
	registerTree(t, r, reg, "tree")
	focus.SetFocused("tree")

	r.SetGlobalShortcut("help", KeyConfig{Key: tcell.KeyF1, Action: "help"})
	r.SetGlobalShortcut("help", KeyConfig{Key: tcell.KeyF1, Action: "manual"})
	if res := r.HandleKey(key(tcell.KeyF1)); res.Action != "manual" {
		t.Fatalf("expected replaced shortcut, got %+v", res)
	}
	r.RemoveGlobalShortcut("help")
	if res := r.HandleKey(key(tcell.KeyF1)); res.Handled {
		t.Fatalf("expected removed shortcut to stop matching, got %+v", res)
	}
	_ = actions
}
