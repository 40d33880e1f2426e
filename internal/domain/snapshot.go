package domain

import (
	"strings"
	"time"
)

// PhonebookSnapshot is one successfully loaded candidate list with its provenance.
type PhonebookSnapshot struct {
	ID        string
	Source    string
	Entries   CandidateList
	FetchedAt time.Time
}

// NewPhonebookSnapshot constructs a snapshot stamped in UTC.
func NewPhonebookSnapshot(id, source string, entries CandidateList, fetchedAt time.Time) (PhonebookSnapshot, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return PhonebookSnapshot{}, ErrInvalidSnapshotID
	}
	return PhonebookSnapshot{
		ID:        id,
		Source:    strings.TrimSpace(source),
		Entries:   entries,
		FetchedAt: fetchedAt.UTC(),
	}, nil
}
