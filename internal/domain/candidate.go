package domain

import (
	"strings"
)

// CandidateEntry is one selectable phonebook row.
type CandidateEntry struct {
	DisplayName string `json:"display_name"`
	Number      string `json:"number"`
}

// NewCandidateEntry trims both fields and rejects entries with an empty name or number.
func NewCandidateEntry(displayName, number string) (CandidateEntry, error) {
	displayName = strings.TrimSpace(displayName)
	number = strings.TrimSpace(number)
	if displayName == "" || number == "" {
		return CandidateEntry{}, ErrInvalidCandidate
	}
	return CandidateEntry{DisplayName: displayName, Number: number}, nil
}

// CandidateList is an ordered, immutable snapshot of phonebook entries.
// Reloads replace the whole list; nothing mutates one in place.
type CandidateList struct {
	entries []CandidateEntry
}

// NewCandidateList copies entries into a new list snapshot.
func NewCandidateList(entries []CandidateEntry) CandidateList {
	if len(entries) == 0 {
		return CandidateList{}
	}
	return CandidateList{entries: append([]CandidateEntry(nil), entries...)}
}

// Len returns the number of entries.
func (l CandidateList) Len() int {
	return len(l.entries)
}

// At returns the entry at idx.
func (l CandidateList) At(idx int) CandidateEntry {
	return l.entries[idx]
}

// Entries returns a copy of the entries in source order.
func (l CandidateList) Entries() []CandidateEntry {
	return append([]CandidateEntry(nil), l.entries...)
}

// FilterCandidates returns entries whose display name contains query, ignoring case, in list order.
// An empty query returns the full list.
func FilterCandidates(query string, list CandidateList) []CandidateEntry {
	if query == "" {
		return list.Entries()
	}
	needle := strings.ToLower(query)
	out := make([]CandidateEntry, 0, len(list.entries))
	for _, entry := range list.entries {
		if strings.Contains(strings.ToLower(entry.DisplayName), needle) {
			out = append(out, entry)
		}
	}
	return out
}
