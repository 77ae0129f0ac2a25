// Package db opens the SQLite database that holds the catalog and the saved
// quotations and purchases.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// pragmas are applied to the single pooled connection. WAL is skipped for
// in-memory databases, which only support the memory journal.
var pragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA busy_timeout = 5000",
}

// Open opens the documents database at dbPath. The pool holds one
// connection: SQLite has a single writer, and an in-memory database only
// exists on the connection that created it.
func Open(dbPath string) (*sql.DB, error) {
	database, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", dbPath, err)
	}
	database.SetMaxOpenConns(1)

	statements := pragmas
	if dbPath != memoryPath {
		statements = append([]string{"PRAGMA journal_mode = WAL"}, pragmas...)
	}
	for _, stmt := range statements {
		if _, err := database.Exec(stmt); err != nil {
			database.Close()
			return nil, fmt.Errorf("apply %q: %w", stmt, err)
		}
	}

	if err := Check(context.Background(), database); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// OpenMemory opens a private in-memory database, used by tests.
func OpenMemory() (*sql.DB, error) {
	return Open(memoryPath)
}

// Check pings the database with a short timeout. The health endpoint
// reports it.
func Check(ctx context.Context, database *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := database.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite database: %w", err)
	}
	return nil
}
