package phonebook

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/tamasystem/callpad/internal/app"
)

// DefaultWatchInterval is the minimum spacing between change notifications.
const DefaultWatchInterval = 500 * time.Millisecond

// Watcher reports changes to one phonebook file.
// Bursts of writes coalesce into at most one notification per interval.
type Watcher struct {
	path    string
	fs      *fsnotify.Watcher
	limiter *rate.Limiter
	trigger chan struct{}
	changes chan struct{}
	logger  app.Logger
}

// NewWatcher watches the directory holding path so editor rename-on-save is seen.
func NewWatcher(path string, interval time.Duration, logger app.Logger) (*Watcher, error) {
	if path == "" {
		return nil, ErrNoPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve phonebook path: %w", err)
	}
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create phonebook watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch phonebook dir: %w", err)
	}
	return &Watcher{
		path:    abs,
		fs:      fsw,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		trigger: make(chan struct{}, 1),
		changes: make(chan struct{}, 1),
		logger:  app.LoggerOrNop(logger),
	}, nil
}

// Changes delivers one value per coalesced change.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Run processes filesystem events until ctx is done, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		_ = w.fs.Close()
	}()
	go w.emit(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("phonebook file changed", "path", ev.Name, "op", ev.Op.String())
			select {
			case w.trigger <- struct{}{}:
			default:
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("phonebook watcher error", "err", err)
		}
	}
}

// relevant reports whether ev touches the watched file with a content-changing op.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

// emit forwards triggers to Changes no faster than the limiter allows.
func (w *Watcher) emit(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.trigger:
		}
		if err := w.limiter.Wait(ctx); err != nil {
			return
		}
		select {
		case w.changes <- struct{}{}:
		default:
		}
	}
}
