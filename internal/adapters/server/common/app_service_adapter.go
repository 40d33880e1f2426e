package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/tamasystem/callpad/internal/app"
	"github.com/tamasystem/callpad/internal/domain"
)

// AppServiceAdapter maps transport contracts onto app.Directory.
type AppServiceAdapter struct {
	directory *app.Directory
}

// NewAppServiceAdapter builds one common adapter over an app.Directory instance.
func NewAppServiceAdapter(directory *app.Directory) *AppServiceAdapter {
	return &AppServiceAdapter{directory: directory}
}

// Ready reports whether a phonebook snapshot is loaded.
func (a *AppServiceAdapter) Ready() bool {
	return a != nil && a.directory != nil && a.directory.Ready()
}

// SearchCandidates returns phonebook entries whose names contain the query.
func (a *AppServiceAdapter) SearchCandidates(ctx context.Context, in SearchCandidatesRequest) (SearchCandidatesResult, error) {
	if err := a.ensureConfigured(); err != nil {
		return SearchCandidatesResult{}, err
	}
	limit, err := normalizeSearchLimit(in.Limit)
	if err != nil {
		return SearchCandidatesResult{}, err
	}
	current, err := a.directory.Current(ctx)
	if err != nil {
		return SearchCandidatesResult{}, mapAppError("search candidates", err)
	}
	matches := domain.FilterCandidates(in.Query, current.Snapshot.Entries)
	truncated := len(matches) > limit
	if truncated {
		matches = matches[:limit]
	}
	return SearchCandidatesResult{
		Query:      in.Query,
		Candidates: matches,
		Truncated:  truncated,
		Phonebook:  phonebookInfo(current),
	}, nil
}

// ResolveIdentity derives the calling identity for free "from" text.
func (a *AppServiceAdapter) ResolveIdentity(ctx context.Context, in ResolveIdentityRequest) (ResolveIdentityResult, error) {
	if err := a.ensureConfigured(); err != nil {
		return ResolveIdentityResult{}, err
	}
	list := a.directory.List(ctx)
	identity := domain.ResolveIdentity(in.From, list)
	_, matched := domain.LookupCandidate(in.From, list)
	return ResolveIdentityResult{
		Identity: identity,
		Matched:  matched,
		Dialable: domain.IsDialable(identity.CanonicalNumber),
	}, nil
}

// BuildCallIntent validates one call and returns its dial URL without dispatching it.
func (a *AppServiceAdapter) BuildCallIntent(ctx context.Context, in BuildCallIntentRequest) (CallIntentResult, error) {
	if err := a.ensureConfigured(); err != nil {
		return CallIntentResult{}, err
	}
	call, err := a.directory.PrepareCall(ctx, in.Destination, in.From)
	if err != nil {
		return CallIntentResult{}, mapAppError("build call intent", err)
	}
	return CallIntentResult{
		ID:          call.ID,
		Intent:      call.Intent,
		Request:     call.Request,
		RequestedAt: call.RequestedAt,
	}, nil
}

// ReloadPhonebook fetches a fresh snapshot.
func (a *AppServiceAdapter) ReloadPhonebook(ctx context.Context) (PhonebookInfo, error) {
	if err := a.ensureConfigured(); err != nil {
		return PhonebookInfo{}, err
	}
	result, err := a.directory.Reload(ctx)
	if err != nil {
		return PhonebookInfo{}, mapAppError("reload phonebook", err)
	}
	return phonebookInfo(result), nil
}

// ensureConfigured rejects calls on a nil adapter.
func (a *AppServiceAdapter) ensureConfigured() error {
	if a == nil || a.directory == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrPhonebookUnavailable)
	}
	return nil
}

// normalizeSearchLimit applies the default and bounds.
func normalizeSearchLimit(limit int) (int, error) {
	switch {
	case limit == 0:
		return DefaultSearchLimit, nil
	case limit < 0 || limit > MaxSearchLimit:
		return 0, fmt.Errorf("limit must be between 1 and %d: %w", MaxSearchLimit, ErrInvalidRequest)
	default:
		return limit, nil
	}
}

// phonebookInfo summarizes one load result.
func phonebookInfo(result app.LoadResult) PhonebookInfo {
	return PhonebookInfo{
		Source:    result.Snapshot.Source,
		Entries:   result.Snapshot.Entries.Len(),
		FetchedAt: result.Snapshot.FetchedAt,
		Stale:     result.FromCache,
	}
}

// mapAppError maps app/domain errors into transport-layer error sentinels.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrInvalidNumberFormat):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidNumberFormat, err))
	case errors.Is(err, app.ErrReloadThrottled):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrReloadThrottled, err))
	case errors.Is(err, app.ErrNoSource),
		errors.Is(err, domain.ErrCandidateLoadFailed):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrPhonebookUnavailable, err))
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
