// Package storage persists webhook registrations and per-delivery event
// records in an embedded SQLite database.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// ErrNotFound is returned when no webhook matches the given id.
var ErrNotFound = errors.New("webhook not found")

// ErrDuplicateTarget is returned when the delivery target is already
// registered.
var ErrDuplicateTarget = errors.New("delivery target already registered")

// Webhook is one registration record. Records are immutable once
// created; there is no update or delete path.
type Webhook struct {
	ID        string
	TargetURL string
	Style     string
	CreatedAt time.Time
}

// Stats holds aggregate counts across all registrations.
type Stats struct {
	WebhookCount int64
	EventCount   int64
}

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and runs
// migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")
	_, _ = db.Exec("PRAGMA busy_timeout = 5000")

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateWebhook persists a new registration with a generated id.
// A duplicate target returns ErrDuplicateTarget without creating a row.
func (s *Store) CreateWebhook(ctx context.Context, targetURL, style string) (Webhook, error) {
	wh := Webhook{
		ID:        uuid.NewString(),
		TargetURL: targetURL,
		Style:     style,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO webhooks(id, target_url, style, created_at) VALUES(?,?,?,?)`,
		wh.ID, wh.TargetURL, wh.Style, wh.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Webhook{}, ErrDuplicateTarget
		}
		return Webhook{}, fmt.Errorf("insert webhook: %w", err)
	}
	return wh, nil
}

// GetWebhook looks up a registration by id.
func (s *Store) GetWebhook(ctx context.Context, id string) (Webhook, error) {
	var wh Webhook
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, target_url, style, created_at FROM webhooks WHERE id = ?`, id,
	).Scan(&wh.ID, &wh.TargetURL, &wh.Style, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Webhook{}, ErrNotFound
	}
	if err != nil {
		return Webhook{}, fmt.Errorf("select webhook: %w", err)
	}
	t, perr := time.Parse(time.RFC3339Nano, createdAt)
	if perr != nil {
		// Keep the record readable; a corrupt timestamp is not worth
		// failing a lookup over.
		slog.Warn("corrupt created_at on webhook row", "webhook_id", wh.ID, "value", createdAt, "error", perr)
	} else {
		wh.CreatedAt = t
	}
	return wh, nil
}

// RecordEvent appends one event occurrence tagged with its severity
// level.
func (s *Store) RecordEvent(ctx context.Context, webhookID, level string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO webhook_events(webhook_id, level, created_at) VALUES(?,?,?)`,
		webhookID, level, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// EventCount returns the number of recorded events for one webhook.
func (s *Store) EventCount(ctx context.Context, webhookID string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM webhook_events WHERE webhook_id = ?`, webhookID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// Stats returns aggregate webhook and event counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM webhooks`).Scan(&st.WebhookCount); err != nil {
		return Stats{}, fmt.Errorf("count webhooks: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM webhook_events`).Scan(&st.EventCount); err != nil {
		return Stats{}, fmt.Errorf("count events: %w", err)
	}
	return st, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
