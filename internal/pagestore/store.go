// Package pagestore persists page documents. Documents are stored whole,
// as JSON keyed by pageKey: the runtime always loads and saves a complete
// document, never a fragment.
package pagestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/matthewbaird/pageforge/internal/schema"
)

// ErrNotFound is returned when no document exists under the given pageKey.
var ErrNotFound = errors.New("page not found")

// Summary is the listing row for one stored page.
type Summary struct {
	PageKey   string    `json:"pageKey"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is the interface for reading and writing page documents.
type Store interface {
	// Save upserts the whole document under its pageKey.
	Save(ctx context.Context, doc *schema.PageDocument) error

	// Load returns the document stored under pageKey, or ErrNotFound.
	Load(ctx context.Context, pageKey string) (*schema.PageDocument, error)

	// List returns summaries of all stored pages, newest first.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes the document under pageKey, or returns ErrNotFound.
	Delete(ctx context.Context, pageKey string) error
}

// SQLiteStore implements Store on a single pages table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// CreateTable creates the pages table. Run during startup; the schema is
// small enough that no migration tooling is warranted.
func (s *SQLiteStore) CreateTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS pages (
			page_key   TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			document   TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);
	`)
	return err
}

func (s *SQLiteStore) Save(ctx context.Context, doc *schema.PageDocument) error {
	if doc.PageKey == "" {
		return fmt.Errorf("saving page: pageKey is empty")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding page %q: %w", doc.PageKey, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pages (page_key, title, document, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (page_key) DO UPDATE SET
			title = excluded.title,
			document = excluded.document,
			updated_at = excluded.updated_at
	`, doc.PageKey, doc.Title, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving page %q: %w", doc.PageKey, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, pageKey string) (*schema.PageDocument, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM pages WHERE page_key = ?`, pageKey).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading page %q: %w", pageKey, err)
	}
	doc, err := schema.ParseDocument([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("decoding page %q: %w", pageKey, err)
	}
	return &doc, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT page_key, title, updated_at FROM pages ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.PageKey, &sum.Title, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning page row: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, pageKey string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE page_key = ?`, pageKey)
	if err != nil {
		return fmt.Errorf("deleting page %q: %w", pageKey, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting page %q: %w", pageKey, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
