package app

import (
	"context"
	"sync"
	"time"

	"github.com/tamasystem/callpad/internal/domain"
)

type fakeLoader struct {
	mu      sync.Mutex
	results []LoadResult
	errs    []error
	calls   int
}

func (f *fakeLoader) Load(context.Context) (LoadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	f.calls++
	if idx < len(f.errs) && f.errs[idx] != nil {
		return LoadResult{}, f.errs[idx]
	}
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	return f.results[idx], nil
}

type fakeDispatcher struct {
	requests []domain.DialRequest
	err      error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, req domain.DialRequest) error {
	f.requests = append(f.requests, req)
	return f.err
}

// snapshotOf builds a load result from name/number pairs.
func snapshotOf(id string, pairs ...string) LoadResult {
	entries := make([]domain.CandidateEntry, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		entries = append(entries, domain.CandidateEntry{DisplayName: pairs[i], Number: pairs[i+1]})
	}
	snap, err := domain.NewPhonebookSnapshot(id, "test://"+id, domain.NewCandidateList(entries), time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err != nil {
		panic(err)
	}
	return LoadResult{Snapshot: snap}
}

func fixedClock() time.Time {
	return time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
}

func fixedID() string {
	return "call-1"
}
