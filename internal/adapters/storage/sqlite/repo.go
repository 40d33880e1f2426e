package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tamasystem/callpad/internal/app"
	"github.com/tamasystem/callpad/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// DefaultRetain is how many snapshots are kept after each save.
const DefaultRetain = 5

// Repository stores phonebook snapshots for offline fallback.
type Repository struct {
	db     *sql.DB
	retain int
}

// SnapshotSummary describes one stored snapshot without its entries.
type SnapshotSummary struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Entries   int       `json:"entries"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Open opens the database at path, creating its directory and schema when missing.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db, retain: DefaultRetain}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens in memory.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, "file::memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	db.SetMaxOpenConns(1)
	repo := &Repository{db: db, retain: DefaultRetain}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// SetRetain changes how many snapshots SaveSnapshot keeps; values below one keep everything.
func (r *Repository) SetRetain(n int) {
	r.retain = n
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate creates the snapshot table and index.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS phonebook_snapshots (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL DEFAULT '',
			entries_json TEXT NOT NULL DEFAULT '[]',
			entry_count INTEGER NOT NULL DEFAULT 0,
			fetched_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_phonebook_snapshots_fetched_at ON phonebook_snapshots(fetched_at);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// SaveSnapshot stores snap and prunes older snapshots beyond the retain count.
func (r *Repository) SaveSnapshot(ctx context.Context, snap domain.PhonebookSnapshot) error {
	if strings.TrimSpace(snap.ID) == "" {
		return domain.ErrInvalidSnapshotID
	}
	entriesJSON, err := json.Marshal(snap.Entries.Entries())
	if err != nil {
		return fmt.Errorf("encode snapshot entries: %w", err)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO phonebook_snapshots(id, source, entries_json, entry_count, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			entries_json = excluded.entries_json,
			entry_count = excluded.entry_count,
			fetched_at = excluded.fetched_at
	`, snap.ID, snap.Source, string(entriesJSON), snap.Entries.Len(), ts(snap.FetchedAt)); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if r.retain > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM phonebook_snapshots
			WHERE id NOT IN (
				SELECT id FROM phonebook_snapshots
				ORDER BY fetched_at DESC, rowid DESC
				LIMIT ?
			)
		`, r.retain); err != nil {
			return fmt.Errorf("prune snapshots: %w", err)
		}
	}
	return tx.Commit()
}

// LatestSnapshot returns the newest stored snapshot, or app.ErrNotFound when none exist.
func (r *Repository) LatestSnapshot(ctx context.Context) (domain.PhonebookSnapshot, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, source, entries_json, fetched_at
		FROM phonebook_snapshots
		ORDER BY fetched_at DESC, rowid DESC
		LIMIT 1
	`)
	return scanSnapshot(row)
}

// ListSnapshots lists stored snapshots newest first.
func (r *Repository) ListSnapshots(ctx context.Context) ([]SnapshotSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source, entry_count, fetched_at
		FROM phonebook_snapshots
		ORDER BY fetched_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []SnapshotSummary{}
	for rows.Next() {
		var (
			summary    SnapshotSummary
			fetchedRaw string
		)
		if err := rows.Scan(&summary.ID, &summary.Source, &summary.Entries, &fetchedRaw); err != nil {
			return nil, err
		}
		summary.FetchedAt = parseTS(fetchedRaw)
		out = append(out, summary)
	}
	return out, rows.Err()
}

// ClearSnapshots deletes every stored snapshot.
func (r *Repository) ClearSnapshots(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM phonebook_snapshots`)
	return err
}

// scanner represents scanner data used by this package.
type scanner interface {
	Scan(dest ...any) error
}

// scanSnapshot handles scan snapshot.
func scanSnapshot(s scanner) (domain.PhonebookSnapshot, error) {
	var (
		id         string
		source     string
		entriesRaw string
		fetchedRaw string
	)
	if err := s.Scan(&id, &source, &entriesRaw, &fetchedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PhonebookSnapshot{}, app.ErrNotFound
		}
		return domain.PhonebookSnapshot{}, err
	}
	if strings.TrimSpace(entriesRaw) == "" {
		entriesRaw = "[]"
	}
	var entries []domain.CandidateEntry
	if err := json.Unmarshal([]byte(entriesRaw), &entries); err != nil {
		return domain.PhonebookSnapshot{}, fmt.Errorf("decode snapshot entries_json: %w", err)
	}
	return domain.NewPhonebookSnapshot(id, source, domain.NewCandidateList(entries), parseTS(fetchedRaw))
}

// timestampLayout is fixed-width so fetched_at text sorts chronologically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ts formats t for storage.
func ts(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// parseTS parses a stored timestamp, returning the zero time when malformed.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
