package combobox

import "github.com/tamasystem/callpad/internal/domain"

// Outcome reports side effects of one transition.
type Outcome struct {
	Selected     domain.CandidateEntry
	HasSelection bool
}

// Reduce applies ev to s and returns the next state.
// While disabled only TextChanged, ListReloaded, and AvailabilityChanged have any effect.
func Reduce(s State, ev Event) (State, Outcome) {
	switch ev := ev.(type) {
	case TextChanged:
		s.Query = ev.Value
		s = s.refilter()
		s.Open = !s.Disabled()
		return s, Outcome{}
	case ListReloaded:
		s.List = ev.List
		return s.refilter(), Outcome{}
	case AvailabilityChanged:
		s.Loading = ev.Loading
		s.LoadErr = ev.Err
		if s.Disabled() {
			s = s.close()
		}
		return s, Outcome{}
	}

	if s.Disabled() {
		return s, Outcome{}
	}

	switch ev := ev.(type) {
	case FocusGained:
		if !s.Open {
			s = s.refilter()
			s.Open = true
		}
	case ArrowDown:
		if !s.Open {
			s.Open = true
			return s, Outcome{}
		}
		if n := len(s.Filtered); n > 0 {
			s.Highlighted = (s.Highlighted + 1) % n
		}
	case ArrowUp:
		if !s.Open {
			return s, Outcome{}
		}
		if n := len(s.Filtered); n > 0 {
			s.Highlighted = (s.Highlighted - 1 + n) % n
		}
	case Enter:
		if entry, ok := s.HighlightedEntry(); ok && s.Open {
			return selectEntry(s, entry)
		}
	case OptionClicked:
		if s.Open && ev.Index >= 0 && ev.Index < len(s.Filtered) {
			return selectEntry(s, s.Filtered[ev.Index])
		}
	case Escape, OutsideInteraction:
		if s.Open {
			s = s.close()
		}
	}
	return s, Outcome{}
}

// selectEntry commits entry as the query and closes the dropdown.
func selectEntry(s State, entry domain.CandidateEntry) (State, Outcome) {
	s.Query = entry.DisplayName
	s = s.refilter()
	s.Open = false
	return s, Outcome{Selected: entry, HasSelection: true}
}
