package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite" // Pure Go SQLite driver, registers "sqlite"
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 1 * time.Minute
)

// Dialect selects the SQL flavour a repository speaks.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// NewPostgresConnection creates and returns a new PostgreSQL database connection.
// It also pings the database to ensure connectivity.
func NewPostgresConnection(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	if err = db.Ping(); err != nil {
		db.Close() // Close the connection if ping fails
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewSQLiteConnection opens the SQLite database at path (":memory:" for a throwaway one).
// SQLite allows a single writer, so the pool is pinned to one connection; this also keeps
// an in-memory database alive for the lifetime of the pool.
func NewSQLiteConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if path != ":memory:" {
		if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	return db, nil
}

// Migrate creates the tables used by the birthday and cursor repositories.
// Both statements are idempotent.
func Migrate(db *sql.DB, dialect Dialect) error {
	timestampType := "TIMESTAMPTZ"
	if dialect == DialectSQLite {
		timestampType = "DATETIME"
	}

	// date_of_birth stays TEXT so a malformed legacy value can still be loaded and skipped.
	birthdays := `CREATE TABLE IF NOT EXISTS birthdays (
		user_key      TEXT PRIMARY KEY,
		date_of_birth TEXT NOT NULL,
		display_name  TEXT NOT NULL DEFAULT '',
		alias         TEXT NOT NULL DEFAULT '',
		age           TEXT NOT NULL DEFAULT '',
		created_at    ` + timestampType + ` NOT NULL,
		updated_at    ` + timestampType + ` NOT NULL
	)`
	if _, err := db.Exec(birthdays); err != nil {
		return fmt.Errorf("error creating birthdays table: %w", err)
	}

	cursors := `CREATE TABLE IF NOT EXISTS scan_cursors (
		name       TEXT PRIMARY KEY,
		scan_date  TEXT NOT NULL,
		updated_at ` + timestampType + ` NOT NULL
	)`
	if _, err := db.Exec(cursors); err != nil {
		return fmt.Errorf("error creating scan_cursors table: %w", err)
	}
	return nil
}

// rebind rewrites '?' placeholders into the dialect's bind syntax.
func rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$")
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
