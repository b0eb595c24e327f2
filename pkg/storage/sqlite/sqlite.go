// Package sqlite provides a SQLite-backed run history driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/siamese/pkg/storage/sqlstore"
)

// SQLiteDriver implements storage.Driver using SQLite.
type SQLiteDriver struct {
	*sqlstore.Driver
}

// NewSQLiteDriver creates a new SQLite-backed store.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDriver(dbPath string) (*SQLiteDriver, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	drv, err := sqlstore.New(context.Background(), db, sqlstore.SQLite)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteDriver{Driver: drv}, nil
}
