package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/louisbranch/tabletop.run/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/tabletop.run/internal/services/game/storage/integrity"
	"github.com/louisbranch/tabletop.run/internal/services/game/storage/sqlite/migrations"
)

// pragmas apply to every pooled connection.
var pragmas = []string{
	"journal_mode(WAL)",
	"foreign_keys(ON)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
}

// Store keeps matches, their command journals and replay checkpoints.
type Store struct {
	db      *sql.DB
	keyring *integrity.Keyring
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithKeyring signs appended chain hashes. VerifyChain then rejects unsigned
// or mis-signed rows.
func WithKeyring(keyring *integrity.Keyring) Option {
	return func(s *Store) { s.keyring = keyring }
}

// WithClock replaces time.Now for created, recorded and updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens or creates the journal database at path and migrates it.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(ctx, db, migrations.JournalFS, "journal"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func dsn(path string) string {
	query := url.Values{"_pragma": pragmas}
	return filepath.Clean(path) + "?" + query.Encode()
}

// Close releases the database. A nil store is already closed.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ready() error {
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// Timestamps are stored as UTC unix milliseconds.
func toMillis(t time.Time) int64    { return t.UTC().UnixMilli() }
func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT,
		sqlite3.SQLITE_CONSTRAINT_UNIQUE,
		sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
		sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return true
	}
	return false
}
