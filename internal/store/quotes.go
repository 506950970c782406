package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/doferlabs/printcost/internal/pricing"
)

// Quote is a saved cost computation. The breakdown is stored as computed and
// never recalculated on read.
type Quote struct {
	ID          string                  `json:"id"`
	CreatedAt   time.Time               `json:"created_at"`
	Title       string                  `json:"title,omitempty"`
	Notes       string                  `json:"notes,omitempty"`
	FileName    string                  `json:"file_name,omitempty"`
	PrinterName string                  `json:"printer_name,omitempty"`
	Currency    string                  `json:"currency"`
	Params      pricing.PrintParameters `json:"params"`
	Breakdown   pricing.CostBreakdown   `json:"breakdown"`
}

// CreateQuote assigns an ID and timestamp and stores q.
func (s *Store) CreateQuote(ctx context.Context, q Quote) (Quote, error) {
	q.ID = uuid.NewString()
	q.CreatedAt = s.now().UTC().Truncate(time.Millisecond)
	q.Title = strings.TrimSpace(q.Title)
	q.Notes = strings.TrimSpace(q.Notes)
	if q.Currency == "" {
		q.Currency = "MXN"
	}

	params, err := json.Marshal(q.Params)
	if err != nil {
		return Quote{}, fmt.Errorf("encode quote params: %w", err)
	}
	breakdown, err := json.Marshal(q.Breakdown)
	if err != nil {
		return Quote{}, fmt.Errorf("encode quote breakdown: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO quotes (id, created_at, title, notes, file_name, printer_name, currency, params_json, breakdown_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, q.ID, formatTime(q.CreatedAt), q.Title, q.Notes, q.FileName, q.PrinterName, q.Currency, string(params), string(breakdown)); err != nil {
		return Quote{}, fmt.Errorf("insert quote: %w", err)
	}
	return q, nil
}

const quoteColumns = `
	id,
	created_at,
	COALESCE(title, ''),
	COALESCE(notes, ''),
	COALESCE(file_name, ''),
	COALESCE(printer_name, ''),
	currency,
	params_json,
	breakdown_json`

func scanQuote(row interface{ Scan(...any) error }) (Quote, error) {
	var (
		q                 Quote
		createdAt         string
		params, breakdown string
	)
	if err := row.Scan(&q.ID, &createdAt, &q.Title, &q.Notes, &q.FileName, &q.PrinterName, &q.Currency, &params, &breakdown); err != nil {
		return Quote{}, err
	}

	var err error
	if q.CreatedAt, err = parseTime(createdAt); err != nil {
		return Quote{}, err
	}
	if err := json.Unmarshal([]byte(params), &q.Params); err != nil {
		return Quote{}, fmt.Errorf("decode quote params: %w", err)
	}
	if err := json.Unmarshal([]byte(breakdown), &q.Breakdown); err != nil {
		return Quote{}, fmt.Errorf("decode quote breakdown: %w", err)
	}
	return q, nil
}

func (s *Store) Quote(ctx context.Context, id string) (Quote, error) {
	q, err := scanQuote(s.db.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quote{}, fmt.Errorf("quote %s: %w", id, ErrNotFound)
		}
		return Quote{}, fmt.Errorf("query quote %s: %w", id, err)
	}
	return q, nil
}

// ListQuotes returns quotes newest first. A non-empty query filters on title,
// notes and file name.
func (s *Store) ListQuotes(ctx context.Context, query string) ([]Quote, error) {
	query = strings.TrimSpace(query)
	search := likePattern(query)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+quoteColumns+`
		FROM quotes
		WHERE (? = '' OR COALESCE(title, '') LIKE ? OR COALESCE(notes, '') LIKE ? OR COALESCE(file_name, '') LIKE ?)
		ORDER BY created_at DESC, rowid DESC
	`, query, search, search, search)
	if err != nil {
		return nil, fmt.Errorf("query quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]Quote, 0)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}

	return quotes, nil
}
