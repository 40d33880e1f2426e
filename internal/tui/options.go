package tui

import (
	"context"
	"time"

	"github.com/tamasystem/callpad/internal/app"
)

// URLCopier places a dial URL on the clipboard.
type URLCopier func(url string) error

type Option func(*Model)

func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys = newKeyMap(cfg)
	}
}

func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

// WithPhonebookChanges reloads the list in the background whenever changes fires.
func WithPhonebookChanges(changes <-chan struct{}) Option {
	return func(m *Model) {
		m.changes = changes
	}
}

// WithRefreshInterval reloads the list in the background every d; zero disables it.
func WithRefreshInterval(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.refreshEvery = d
		}
	}
}

// WithMinReloadInterval throttles the reload key.
func WithMinReloadInterval(d time.Duration) Option {
	return func(m *Model) {
		m.reloadLimiter = newReloadLimiter(d)
	}
}

func WithURLCopier(copyFn URLCopier) Option {
	return func(m *Model) {
		m.copyURL = copyFn
	}
}

func WithLogger(logger app.Logger) Option {
	return func(m *Model) {
		m.logger = app.LoggerOrNop(logger)
	}
}
