package phonebook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tamasystem/callpad/internal/app"
	"github.com/tamasystem/callpad/internal/domain"
)

// LoaderConfig holds configuration for Loader.
type LoaderConfig struct {
	Parse           ParseOptions
	OfflineFallback bool
	Logger          app.Logger
}

// Loader fetches, parses and caches phonebook snapshots.
// Concurrent Load calls share one in-flight fetch.
type Loader struct {
	source   Source
	cache    app.SnapshotCache
	idGen    app.IDGenerator
	clock    app.Clock
	cfg      LoaderConfig
	logger   app.Logger
	inflight singleflight.Group
}

// NewLoader constructs a loader; cache may be nil.
func NewLoader(source Source, cache app.SnapshotCache, idGen app.IDGenerator, clock app.Clock, cfg LoaderConfig) *Loader {
	if idGen == nil {
		idGen = func() string { return "snapshot" }
	}
	if clock == nil {
		clock = time.Now
	}
	return &Loader{
		source: source,
		cache:  cache,
		idGen:  idGen,
		clock:  clock,
		cfg:    cfg,
		logger: app.LoggerOrNop(cfg.Logger),
	}
}

// Load returns the freshest snapshot available.
// When the source fails and offline fallback is enabled, the newest cached snapshot is returned instead.
func (l *Loader) Load(ctx context.Context) (app.LoadResult, error) {
	if l.source == nil {
		return app.LoadResult{}, fmt.Errorf("%w: %w", domain.ErrCandidateLoadFailed, app.ErrNoSource)
	}
	ch := l.inflight.DoChan("load", func() (any, error) {
		return l.load(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return app.LoadResult{}, fmt.Errorf("%w: %w", domain.ErrCandidateLoadFailed, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return app.LoadResult{}, res.Err
		}
		return res.Val.(app.LoadResult), nil
	}
}

// load performs one fetch-parse-save cycle.
func (l *Loader) load(ctx context.Context) (app.LoadResult, error) {
	snap, fetchErr := l.fetch(ctx)
	if fetchErr == nil {
		if l.cache != nil {
			if err := l.cache.SaveSnapshot(ctx, snap); err != nil {
				l.logger.Warn("phonebook cache save failed", "source", snap.Source, "err", err)
			}
		}
		return app.LoadResult{Snapshot: snap}, nil
	}

	l.logger.Warn("phonebook fetch failed", "source", l.source.Describe(), "err", fetchErr)
	if !l.cfg.OfflineFallback || l.cache == nil {
		return app.LoadResult{}, fmt.Errorf("%w: %w", domain.ErrCandidateLoadFailed, fetchErr)
	}
	cached, err := l.cache.LatestSnapshot(ctx)
	if err != nil {
		if !errors.Is(err, app.ErrNotFound) {
			l.logger.Warn("phonebook cache read failed", "err", err)
		}
		return app.LoadResult{}, fmt.Errorf("%w: %w", domain.ErrCandidateLoadFailed, fetchErr)
	}
	l.logger.Info("using cached phonebook", "source", cached.Source, "entries", cached.Entries.Len(), "fetched_at", cached.FetchedAt)
	return app.LoadResult{Snapshot: cached, FromCache: true}, nil
}

// fetch reads and parses the source into a new snapshot.
func (l *Loader) fetch(ctx context.Context) (domain.PhonebookSnapshot, error) {
	body, err := l.source.Fetch(ctx)
	if err != nil {
		return domain.PhonebookSnapshot{}, err
	}
	entries, err := ParseCSV(bytes.NewReader(body), l.cfg.Parse)
	if err != nil {
		return domain.PhonebookSnapshot{}, err
	}
	return domain.NewPhonebookSnapshot(l.idGen(), l.source.Describe(), domain.NewCandidateList(entries), l.clock())
}
