// Package sqlite provides a SQLite-backed implementation of the policy
// engine's storage contracts.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/aarons2222/letlog/internal/platform/storage/sqlitemigrate"
	"github.com/aarons2222/letlog/internal/storage"
	"github.com/aarons2222/letlog/internal/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists tenancy, invitation, job, review and audit state in one
// SQLite file. A single file keeps every record the engine reads under the
// same transaction and visibility boundaries.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// isUniqueViolation detects SQLite unique and primary key constraint
// failures, optionally scoped to one indexed column.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			if column == "" {
				return true
			}
			return strings.Contains(strings.ToLower(err.Error()), column)
		}
	}
	message := strings.ToLower(err.Error())
	if !strings.Contains(message, "unique constraint failed") {
		return false
	}
	return column == "" || strings.Contains(message, column)
}

var _ storage.TenancyStore = (*Store)(nil)
var _ storage.InvitationStore = (*Store)(nil)
var _ storage.PropertyStore = (*Store)(nil)
var _ storage.UserStore = (*Store)(nil)
var _ storage.JobStore = (*Store)(nil)
var _ storage.ReviewStore = (*Store)(nil)
var _ storage.DecisionLog = (*Store)(nil)
