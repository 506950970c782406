// Package db opens the SQLite database that backs materials and saved quotes.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const pragmas = `
	PRAGMA journal_mode = WAL;
	PRAGMA foreign_keys = ON;
	PRAGMA busy_timeout = 5000;
`

// Open opens the database at path and checks the connection. A single
// connection is kept so writers never contend for the file lock.
func Open(path string) (*sql.DB, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}
	database.SetMaxOpenConns(1)

	if _, err := database.Exec(pragmas); err != nil {
		database.Close()
		return nil, fmt.Errorf("set sqlite pragmas: %w", err)
	}

	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	return database, nil
}
