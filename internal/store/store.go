// Package store persists material presets and saved quotes in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid record")
)

// timeLayout keeps stored timestamps sortable as text.
const timeLayout = "2006-01-02 15:04:05.000"

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New wraps a migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime accepts our own layout and whatever the driver hands back for
// DATETIME columns.
func parseTime(raw string) (time.Time, error) {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q", raw)
}

func likePattern(q string) string {
	return "%" + strings.TrimSpace(q) + "%"
}
