package app

import (
	"context"

	"github.com/tamasystem/callpad/internal/domain"
)

// LoadResult represents one completed phonebook load.
type LoadResult struct {
	Snapshot  domain.PhonebookSnapshot
	FromCache bool
}

// CandidateLoader fetches the current phonebook snapshot.
type CandidateLoader interface {
	Load(context.Context) (LoadResult, error)
}

// SnapshotCache persists successful loads for offline fallback.
type SnapshotCache interface {
	SaveSnapshot(context.Context, domain.PhonebookSnapshot) error
	LatestSnapshot(context.Context) (domain.PhonebookSnapshot, error)
	ClearSnapshots(context.Context) error
}

// Dispatcher hands a confirmed dial request to the outside world.
type Dispatcher interface {
	Dispatch(context.Context, domain.DialRequest) error
}

// Logger is the structured logging surface used by this package and its adapters.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

// nopLogger discards all log calls.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// LoggerOrNop returns logger, or a discarding logger when nil.
func LoggerOrNop(logger Logger) Logger {
	if logger == nil {
		return nopLogger{}
	}
	return logger
}
