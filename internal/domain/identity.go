package domain

import "strings"

// ResolvedIdentity is the derived "from" identity for the current query and list.
type ResolvedIdentity struct {
	DisplayText     string `json:"display_text"`
	CanonicalNumber string `json:"canonical_number"`
}

// ResolveIdentity maps free "from" text to the number that will be dialed.
// The first entry whose trimmed name equals the trimmed query wins; otherwise the text itself is the number.
// Matching here is exact and case-sensitive, unlike FilterCandidates.
func ResolveIdentity(query string, list CandidateList) ResolvedIdentity {
	text := strings.TrimSpace(query)
	if text == "" {
		return ResolvedIdentity{}
	}
	for _, entry := range list.entries {
		if strings.TrimSpace(entry.DisplayName) == text {
			return ResolvedIdentity{DisplayText: text, CanonicalNumber: strings.TrimSpace(entry.Number)}
		}
	}
	return ResolvedIdentity{DisplayText: text, CanonicalNumber: text}
}

// LookupCandidate returns the first entry whose trimmed name equals name exactly.
func LookupCandidate(name string, list CandidateList) (CandidateEntry, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return CandidateEntry{}, false
	}
	for _, entry := range list.entries {
		if strings.TrimSpace(entry.DisplayName) == name {
			return entry, true
		}
	}
	return CandidateEntry{}, false
}
