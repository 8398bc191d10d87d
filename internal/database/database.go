// Package database persists the booking and subscription ledgers in SQLite.
// Every multi-step workflow (booking creation, cancellation approval, session
// completion) runs as one explicit transaction; see ledger.go.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB wraps the sql.DB pool.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

// querier is satisfied by both *sql.DB and *sql.Tx so repository helpers can
// run inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewDB opens the database at path, applies pragmas and creates tables.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL mode and a busy timeout so concurrent writers queue instead of
	// failing immediately.
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection serializes transactions, so the read-then-write
	// guard in ledger.go cannot interleave with another writer.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	instance := &DB{DB: db, logger: logger}
	if err := instance.createTables(); err != nil {
		return nil, fmt.Errorf("create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return instance, nil
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS trainer_settings (
			trainer_id TEXT PRIMARY KEY,
			timezone TEXT NOT NULL DEFAULT 'UTC',
			telegram_chat_id INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS availability_templates (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			trainer_id TEXT NOT NULL,
			day_of_week INTEGER NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT 1,
			time_ranges TEXT NOT NULL,
			breaks TEXT NOT NULL DEFAULT '[]',
			session_duration INTEGER NOT NULL DEFAULT 60,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(trainer_id, day_of_week)
		)`,

		`CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			trainer_id TEXT NOT NULL,
			client_id TEXT NOT NULL,
			date DATETIME NOT NULL,
			start_time DATETIME NOT NULL,
			end_time DATETIME NOT NULL,
			duration INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'confirmed',
			notes TEXT NOT NULL DEFAULT '',
			cancellation_requested_by TEXT NOT NULL DEFAULT '',
			cancellation_requested_at DATETIME,
			subscription_id TEXT NOT NULL DEFAULT '',
			session_deducted BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS subscriptions (
			id TEXT PRIMARY KEY,
			client_id TEXT NOT NULL,
			trainer_id TEXT NOT NULL,
			plan_id TEXT NOT NULL,
			billing_months INTEGER NOT NULL,
			sessions_per_month INTEGER NOT NULL,
			remaining_sessions INTEGER NOT NULL DEFAULT 0,
			current_period_start DATETIME,
			current_period_end DATETIME,
			status TEXT NOT NULL DEFAULT 'pending',
			payment_status TEXT NOT NULL DEFAULT 'pending',
			amount REAL NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT '',
			payment_method TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_trainer_date ON bookings(trainer_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_client ON bookings(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_pair ON subscriptions(client_id, trainer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_status ON subscriptions(status)`,
		`CREATE INDEX IF NOT EXISTS idx_templates_trainer ON availability_templates(trainer_id, day_of_week)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}

// withTx runs fn inside a transaction, committing on success.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Close closes the underlying pool.
func (db *DB) Close() error {
	return db.DB.Close()
}
