package combobox

import (
	"errors"
	"testing"

	"github.com/tamasystem/callpad/internal/domain"
)

// listOf builds a candidate list from name/number pairs.
func listOf(pairs ...string) domain.CandidateList {
	entries := make([]domain.CandidateEntry, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		entries = append(entries, domain.CandidateEntry{DisplayName: pairs[i], Number: pairs[i+1]})
	}
	return domain.NewCandidateList(entries)
}

// apply reduces events in order and returns the final state plus every selection emitted.
func apply(s State, events ...Event) (State, []domain.CandidateEntry) {
	var selected []domain.CandidateEntry
	for _, ev := range events {
		var out Outcome
		s, out = Reduce(s, ev)
		if out.HasSelection {
			selected = append(selected, out.Selected)
		}
	}
	return s, selected
}

// assertInvariant fails when Highlighted points outside Filtered.
func assertInvariant(t *testing.T, s State) {
	t.Helper()
	if s.Highlighted != NoHighlight && (s.Highlighted < 0 || s.Highlighted >= len(s.Filtered)) {
		t.Fatalf("highlight %d out of range for %d filtered entries", s.Highlighted, len(s.Filtered))
	}
}

func TestNewStateDefaults(t *testing.T) {
	s := NewState(listOf("Taro", "1", "Hanako", "2"))
	if s.Query != "" || s.Open || s.Highlighted != NoHighlight {
		t.Fatalf("unexpected mount state %#v", s)
	}
	if len(s.Filtered) != 2 {
		t.Fatalf("expected full list filtered at mount, got %d", len(s.Filtered))
	}
}

func TestTaroScenario(t *testing.T) {
	list := listOf("Taro", "0312345678")
	s := NewState(list)

	s, _ = Reduce(s, TextChanged{Value: "Tar"})
	if !s.Open || len(s.Filtered) != 1 || s.Filtered[0].DisplayName != "Taro" || s.Highlighted != NoHighlight {
		t.Fatalf("after typing: %#v", s)
	}
	s, _ = Reduce(s, ArrowDown{})
	if s.Highlighted != 0 {
		t.Fatalf("after arrow down highlight = %d, want 0", s.Highlighted)
	}
	s, out := Reduce(s, Enter{})
	if !out.HasSelection || out.Selected.DisplayName != "Taro" {
		t.Fatalf("expected Taro selection, got %#v", out)
	}
	if s.Query != "Taro" || s.Open || s.Highlighted != NoHighlight {
		t.Fatalf("after enter: %#v", s)
	}
	if got := domain.ResolveIdentity(s.Query, s.List); got.CanonicalNumber != "0312345678" {
		t.Fatalf("resolved number = %q, want 0312345678", got.CanonicalNumber)
	}
}

func TestReloadToEmptyKeepsDropdownOpen(t *testing.T) {
	s := NewState(listOf("Taro", "0312345678"))
	s, _ = apply(s, TextChanged{Value: "Tar"}, ArrowDown{})
	if s.Highlighted != 0 {
		t.Fatalf("expected highlight before reload, got %d", s.Highlighted)
	}

	s, _ = Reduce(s, ListReloaded{List: domain.NewCandidateList(nil)})
	if !s.Open || len(s.Filtered) != 0 || s.Highlighted != NoHighlight || !s.NoResults() {
		t.Fatalf("after reload: %#v", s)
	}
	if s.Query != "Tar" {
		t.Fatalf("reload changed query to %q", s.Query)
	}
}

func TestArrowDownSequenceWraps(t *testing.T) {
	list := listOf("a1", "1", "a2", "2", "a3", "3", "a4", "4")
	for n := 1; n <= 4; n++ {
		entries := list.Entries()[:n]
		base := NewState(domain.NewCandidateList(entries))
		base, _ = Reduce(base, FocusGained{})
		for k := 1; k <= 3*n+1; k++ {
			s := base
			for i := 0; i < k; i++ {
				s, _ = Reduce(s, ArrowDown{})
				assertInvariant(t, s)
			}
			if want := (k - 1) % n; s.Highlighted != want {
				t.Fatalf("n=%d k=%d: highlight = %d, want %d", n, k, s.Highlighted, want)
			}
		}
	}
}

func TestArrowUpWrapsFromFirstToLast(t *testing.T) {
	s := NewState(listOf("a", "1", "b", "2", "c", "3"))
	s, _ = apply(s, FocusGained{}, ArrowUp{})
	if s.Highlighted != 2 {
		t.Fatalf("arrow up from none = %d, want 2", s.Highlighted)
	}
	s, _ = apply(s, ArrowDown{})
	if s.Highlighted != 0 {
		t.Fatalf("arrow down from last = %d, want 0", s.Highlighted)
	}
	s, _ = apply(s, ArrowUp{})
	if s.Highlighted != 2 {
		t.Fatalf("arrow up from first = %d, want 2", s.Highlighted)
	}
}

func TestArrowsWhileClosed(t *testing.T) {
	s := NewState(listOf("a", "1", "b", "2"))

	up, _ := Reduce(s, ArrowUp{})
	if up.Open || up.Highlighted != NoHighlight {
		t.Fatalf("arrow up while closed changed state: %#v", up)
	}

	down, _ := Reduce(s, ArrowDown{})
	if !down.Open || down.Highlighted != NoHighlight {
		t.Fatalf("arrow down while closed should only open, got %#v", down)
	}
}

func TestArrowsOnEmptyResults(t *testing.T) {
	s := NewState(listOf("Taro", "1"))
	s, _ = apply(s, TextChanged{Value: "zzz"}, ArrowDown{}, ArrowDown{}, ArrowUp{})
	if !s.Open || s.Highlighted != NoHighlight || !s.NoResults() {
		t.Fatalf("expected open no-results state, got %#v", s)
	}
	s, _ = apply(s, Escape{}, ArrowDown{})
	if !s.Open || s.Highlighted != NoHighlight {
		t.Fatalf("arrow down on closed empty list should open, got %#v", s)
	}
}

func TestRapidTextChangesResetHighlight(t *testing.T) {
	s := NewState(listOf("Taro", "1", "Tarou", "2", "Hanako", "3"))
	for _, value := range []string{"T", "Ta", "Tar", "a", ""} {
		s, _ = apply(s, ArrowDown{}, ArrowDown{})
		s, _ = Reduce(s, TextChanged{Value: value})
		if s.Highlighted != NoHighlight {
			t.Fatalf("text %q kept highlight %d", value, s.Highlighted)
		}
		assertInvariant(t, s)
	}
}

func TestEnterWithoutHighlightDoesNothing(t *testing.T) {
	s := NewState(listOf("Taro", "1"))
	s, _ = Reduce(s, TextChanged{Value: "Ta"})
	next, out := Reduce(s, Enter{})
	if out.HasSelection {
		t.Fatalf("unexpected selection %#v", out)
	}
	if next.Query != "Ta" || !next.Open {
		t.Fatalf("enter without highlight changed state: %#v", next)
	}
	if s.CanSelect() {
		t.Fatal("CanSelect() should be false without a highlight")
	}
}

func TestEscapeAndOutsideClose(t *testing.T) {
	s := NewState(listOf("Taro", "1"))
	for _, ev := range []Event{Escape{}, OutsideInteraction{}} {
		open, _ := apply(s, TextChanged{Value: "Ta"}, ArrowDown{})
		closed, out := Reduce(open, ev)
		if closed.Open || out.HasSelection {
			t.Fatalf("%T: expected closed without selection, got %#v %#v", ev, closed, out)
		}
		if closed.Query != "Ta" {
			t.Fatalf("%T changed query to %q", ev, closed.Query)
		}
		assertInvariant(t, closed)
	}
}

func TestOptionClicked(t *testing.T) {
	s := NewState(listOf("Taro", "1", "Hanako", "2"))
	s, _ = Reduce(s, FocusGained{})

	for _, idx := range []int{-1, 2, 99} {
		next, out := Reduce(s, OptionClicked{Index: idx})
		if out.HasSelection || !next.Open {
			t.Fatalf("click %d should be ignored, got %#v", idx, out)
		}
	}

	s, out := Reduce(s, OptionClicked{Index: 1})
	if !out.HasSelection || out.Selected.Number != "2" || s.Query != "Hanako" || s.Open {
		t.Fatalf("click selection failed: %#v %#v", s, out)
	}

	closed, out := Reduce(s, OptionClicked{Index: 0})
	if out.HasSelection || closed.Query != "Hanako" {
		t.Fatalf("click while closed should be ignored, got %#v", out)
	}
}

func TestFocusGainedRecomputesFilter(t *testing.T) {
	s := NewState(listOf("Taro", "1", "Hanako", "2"))
	s.Query = "han"
	s, _ = Reduce(s, FocusGained{})
	if !s.Open || len(s.Filtered) != 1 || s.Filtered[0].DisplayName != "Hanako" {
		t.Fatalf("focus did not refilter: %#v", s)
	}
	s, _ = Reduce(s, ArrowDown{})
	again, _ := Reduce(s, FocusGained{})
	if again.Highlighted != 0 {
		t.Fatal("focus while open should be a no-op")
	}
}

func TestReselectIsIdempotent(t *testing.T) {
	list := listOf("Taro", "0312345678", "Taro Office", "0399999999")
	s := NewState(list)
	s, first := apply(s, TextChanged{Value: "Taro"}, ArrowDown{}, Enter{})
	resolvedFirst := domain.ResolveIdentity(s.Query, s.List)

	s, second := apply(s, FocusGained{}, ArrowDown{}, Enter{})
	resolvedSecond := domain.ResolveIdentity(s.Query, s.List)

	if len(first) != 1 || len(second) != 1 || first[0] != second[0] {
		t.Fatalf("selections differ: %#v vs %#v", first, second)
	}
	if resolvedFirst != resolvedSecond {
		t.Fatalf("resolved identity changed: %#v vs %#v", resolvedFirst, resolvedSecond)
	}
}

func TestDisabledMode(t *testing.T) {
	loadErr := errors.New("boom")
	for _, avail := range []AvailabilityChanged{{Loading: true}, {Err: loadErr}} {
		s := NewState(listOf("Taro", "1"))
		s, _ = apply(s, TextChanged{Value: "Ta"}, ArrowDown{})
		s, _ = Reduce(s, avail)
		if s.Open || s.Highlighted != NoHighlight || !s.Disabled() {
			t.Fatalf("becoming disabled should close: %#v", s)
		}

		s, sel := apply(s, FocusGained{}, ArrowDown{}, ArrowUp{}, Enter{}, OptionClicked{Index: 0})
		if s.Open || len(sel) != 0 {
			t.Fatalf("disabled state reacted to navigation: %#v %#v", s, sel)
		}

		s, _ = Reduce(s, TextChanged{Value: "Tar"})
		if s.Query != "Tar" || s.Open {
			t.Fatalf("text while disabled: %#v", s)
		}

		s, _ = Reduce(s, AvailabilityChanged{})
		if s.Disabled() || s.Open {
			t.Fatalf("re-enabling should not open: %#v", s)
		}
		s, _ = Reduce(s, FocusGained{})
		if !s.Open {
			t.Fatal("expected focus to open once enabled")
		}
	}
}

func TestListReloadedWhileDisabled(t *testing.T) {
	s := NewState(domain.NewCandidateList(nil))
	s, _ = apply(s, AvailabilityChanged{Loading: true}, TextChanged{Value: "Ta"})
	s, _ = apply(s, ListReloaded{List: listOf("Taro", "1")}, AvailabilityChanged{})
	if len(s.Filtered) != 1 || s.Open {
		t.Fatalf("reload while loading: %#v", s)
	}
}
