package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tamasystem/callpad/internal/domain"
)

// DirectoryConfig holds configuration for the shared phonebook directory.
type DirectoryConfig struct {
	Plan              domain.DialingPlan
	MinReloadInterval time.Duration
	Logger            Logger
}

// Directory serves lookups, resolution and call preparation over the latest loaded phonebook.
// It is safe for concurrent use by the HTTP and MCP adapters.
type Directory struct {
	loader     CandidateLoader
	dispatcher Dispatcher
	plan       domain.DialingPlan
	idGen      IDGenerator
	clock      Clock
	logger     Logger
	limiter    *rate.Limiter

	// loadMu serializes lazy loads so concurrent first readers share one fetch.
	loadMu    sync.Mutex
	mu        sync.RWMutex
	current   *LoadResult
	lastError error
}

// NewDirectory constructs a directory; nothing is loaded until first use or Reload.
func NewDirectory(loader CandidateLoader, dispatcher Dispatcher, idGen IDGenerator, clock Clock, cfg DirectoryConfig) *Directory {
	var limiter *rate.Limiter
	if cfg.MinReloadInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.MinReloadInterval), 1)
	}
	return &Directory{
		loader:     loader,
		dispatcher: dispatcher,
		plan:       cfg.Plan.Normalize(),
		idGen:      defaultIDGen(idGen),
		clock:      defaultClock(clock),
		logger:     LoggerOrNop(cfg.Logger),
		limiter:    limiter,
	}
}

// Plan returns the dialing plan.
func (d *Directory) Plan() domain.DialingPlan {
	return d.plan
}

// Ready reports whether a phonebook snapshot is available.
func (d *Directory) Ready() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current != nil
}

// LastError returns the most recent load error, if the last load failed.
func (d *Directory) LastError() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastError
}

// Reload fetches a fresh snapshot and makes it current.
// Calls faster than the configured minimum interval fail with ErrReloadThrottled.
func (d *Directory) Reload(ctx context.Context) (LoadResult, error) {
	if d.limiter != nil && !d.limiter.Allow() {
		return LoadResult{}, ErrReloadThrottled
	}
	return d.load(ctx)
}

// Current returns the current snapshot, loading it on first use.
// While no snapshot exists, lazy retries after a failed load share the reload
// limiter and report the last load error when throttled.
func (d *Directory) Current(ctx context.Context) (LoadResult, error) {
	d.mu.RLock()
	current := d.current
	d.mu.RUnlock()
	if current != nil {
		return *current, nil
	}

	d.loadMu.Lock()
	defer d.loadMu.Unlock()
	d.mu.RLock()
	current, lastErr := d.current, d.lastError
	d.mu.RUnlock()
	if current != nil {
		return *current, nil
	}
	if d.limiter == nil {
		return d.load(ctx)
	}
	if lastErr != nil && !d.limiter.Allow() {
		return LoadResult{}, lastErr
	}
	result, err := d.load(ctx)
	if err != nil && lastErr == nil {
		// A failed first load starts the retry interval.
		d.limiter.Allow()
	}
	return result, err
}

// List returns the current candidate list, or an empty list when no snapshot could be loaded.
func (d *Directory) List(ctx context.Context) domain.CandidateList {
	current, err := d.Current(ctx)
	if err != nil {
		d.logger.Debug("resolving against an empty phonebook", "err", err)
		return domain.NewCandidateList(nil)
	}
	return current.Snapshot.Entries
}

// Search returns candidates whose names contain query, up to limit when limit is positive.
func (d *Directory) Search(ctx context.Context, query string, limit int) ([]domain.CandidateEntry, error) {
	current, err := d.Current(ctx)
	if err != nil {
		return nil, err
	}
	matches := domain.FilterCandidates(query, current.Snapshot.Entries)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Resolve derives the calling identity for from.
// A phonebook that failed to load resolves as empty, so raw numbers still map to themselves.
func (d *Directory) Resolve(ctx context.Context, from string) domain.ResolvedIdentity {
	return domain.ResolveIdentity(from, d.List(ctx))
}

// PrepareCall validates destination and from and returns the dispatch-ready call without sending it.
func (d *Directory) PrepareCall(ctx context.Context, destination, from string) (PendingCall, error) {
	intent, err := domain.BuildCallIntent(destination, d.Resolve(ctx, from))
	if err != nil {
		return PendingCall{}, err
	}
	return newPendingCall(d.idGen(), intent, d.plan, d.clock()), nil
}

// PlaceCall dispatches a prepared call.
func (d *Directory) PlaceCall(ctx context.Context, call PendingCall) error {
	if d.dispatcher == nil {
		return fmt.Errorf("place call %s: no dispatcher configured", call.ID)
	}
	if err := d.dispatcher.Dispatch(ctx, call.Request); err != nil {
		return fmt.Errorf("place call %s: %w", call.ID, err)
	}
	d.logger.Info("call dispatched", "id", call.ID, "destination", call.Request.Destination, "caller_id", call.Request.CallerID)
	return nil
}

// load runs the loader and swaps in the result on success.
// A failed load keeps the previous snapshot for readers.
func (d *Directory) load(ctx context.Context) (LoadResult, error) {
	if d.loader == nil {
		return LoadResult{}, ErrNoSource
	}
	result, err := d.loader.Load(ctx)
	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.lastError = err
		d.logger.Warn("phonebook load failed", "err", err)
		return LoadResult{}, err
	}
	d.current = &result
	d.lastError = nil
	d.logger.Info("phonebook loaded", "source", result.Snapshot.Source, "entries", result.Snapshot.Entries.Len(), "cached", result.FromCache)
	return result, nil
}
