package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/fleet-notify/internal/model"
)

// defaultListLimit caps ListNotifications when the caller passes no limit.
const defaultListLimit = 500

// SQLiteStore implements NotificationStore using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// An in-memory database lives per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := NewWithDB(db)
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// NewWithDB wraps an already opened handle without running migrations.
func NewWithDB(db *sqlx.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// CreateNotification inserts a new notification. A missing ID is minted,
// a missing type defaults to Info and a zero CreatedAt to now.
func (s *SQLiteStore) CreateNotification(ctx context.Context, r Record) (Record, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Type == "" {
		r.Type = model.TypeInfo
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.CreatedAt = r.CreatedAt.UTC()

	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO notifications (id, title, description, related_to, type, read, created_at)
		VALUES (:id, :title, :description, :related_to, :type, :read, :created_at)`,
		r,
	)
	if err != nil {
		return Record{}, fmt.Errorf("creating notification: %w", err)
	}

	return r, nil
}

// ListNotifications returns the newest notifications first.
func (s *SQLiteStore) ListNotifications(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var records []Record
	err := s.db.SelectContext(ctx, &records, `
		SELECT id, title, description, related_to, type, read, created_at
		FROM notifications
		ORDER BY created_at DESC, id
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}

	return records, nil
}

// MarkRead marks the given notifications as read and returns how many
// of them exist.
func (s *SQLiteStore) MarkRead(ctx context.Context, ids []string) (int64, error) {
	return s.setRead(ctx, ids, true)
}

// MarkUnread marks the given notifications as unread and returns how many
// of them exist.
func (s *SQLiteStore) MarkUnread(ctx context.Context, ids []string) (int64, error) {
	return s.setRead(ctx, ids, false)
}

// setRead updates the read flag for a batch. Rows already in the target
// state still count as marked.
func (s *SQLiteStore) setRead(ctx context.Context, ids []string, read bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In(
		"UPDATE notifications SET read = ? WHERE id IN (?)",
		boolToInt(read), ids,
	)
	if err != nil {
		return 0, fmt.Errorf("building read update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("updating read flag: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return n, nil
}

// DeleteNotifications removes a batch and returns how many rows were deleted.
func (s *SQLiteStore) DeleteNotifications(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args, err := sqlx.In("DELETE FROM notifications WHERE id IN (?)", ids)
	if err != nil {
		return 0, fmt.Errorf("building delete: %w", err)
	}

	result, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("deleting notifications: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return n, nil
}

// MarkAllRead marks every unread notification as read.
func (s *SQLiteStore) MarkAllRead(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, "UPDATE notifications SET read = 1 WHERE read = 0")
	if err != nil {
		return 0, fmt.Errorf("marking all notifications read: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return n, nil
}

// Counts computes the summary counters. "Today" is the calendar day of now
// in now's location.
func (s *SQLiteStore) Counts(ctx context.Context, now time.Time) (Counts, error) {
	var row struct {
		Total  int `db:"total"`
		Unread int `db:"unread"`
		Alerts int `db:"alerts"`
	}

	err := s.db.GetContext(ctx, &row, `
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN read = 0 THEN 1 ELSE 0 END), 0) AS unread,
			COALESCE(SUM(CASE WHEN type = 'Alert' THEN 1 ELSE 0 END), 0) AS alerts
		FROM notifications`,
	)
	if err != nil {
		return Counts{}, fmt.Errorf("counting notifications: %w", err)
	}

	// Stored timestamps are compared in Go so the day boundary follows
	// now's location rather than SQLite's UTC.
	var created []time.Time
	if err := s.db.SelectContext(ctx, &created, "SELECT created_at FROM notifications"); err != nil {
		return Counts{}, fmt.Errorf("reading creation dates: %w", err)
	}

	y, m, d := now.Date()
	today := 0
	for _, t := range created {
		ty, tm, td := t.In(now.Location()).Date()
		if ty == y && tm == m && td == d {
			today++
		}
	}

	return Counts{
		Total:  row.Total,
		Unread: row.Unread,
		Today:  today,
		Alerts: row.Alerts,
	}, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
