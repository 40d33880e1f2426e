package combobox

import "github.com/tamasystem/callpad/internal/domain"

// NoHighlight marks a state with no highlighted option.
const NoHighlight = -1

// State holds the searchable-select view of one input field.
// Highlighted is NoHighlight or a valid index into Filtered.
type State struct {
	Query       string
	Open        bool
	Filtered    []domain.CandidateEntry
	Highlighted int
	List        domain.CandidateList
	Loading     bool
	LoadErr     error
}

// NewState returns the mount state: empty query, closed, nothing highlighted.
func NewState(list domain.CandidateList) State {
	return State{
		Filtered:    domain.FilterCandidates("", list),
		Highlighted: NoHighlight,
		List:        list,
	}
}

// Disabled reports whether the list is unavailable, which keeps the dropdown shut.
func (s State) Disabled() bool {
	return s.Loading || s.LoadErr != nil
}

// NoResults reports whether the dropdown is open over an empty result set.
func (s State) NoResults() bool {
	return s.Open && len(s.Filtered) == 0
}

// HighlightedEntry returns the highlighted option when one exists.
func (s State) HighlightedEntry() (domain.CandidateEntry, bool) {
	if s.Highlighted < 0 || s.Highlighted >= len(s.Filtered) {
		return domain.CandidateEntry{}, false
	}
	return s.Filtered[s.Highlighted], true
}

// CanSelect reports whether Enter would select an option right now.
func (s State) CanSelect() bool {
	if !s.Open || s.Disabled() {
		return false
	}
	_, ok := s.HighlightedEntry()
	return ok
}

// refilter recomputes Filtered for the current query and drops any highlight.
func (s State) refilter() State {
	s.Filtered = domain.FilterCandidates(s.Query, s.List)
	s.Highlighted = NoHighlight
	return s
}

// close shuts the dropdown and drops any highlight.
func (s State) close() State {
	s.Open = false
	s.Highlighted = NoHighlight
	return s
}
