package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/pull-shared/internal/model"
)

// SQLiteStore implements Journal using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Journal = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// An in-memory database is per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

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

// Record inserts a journal entry. A missing ID or timestamp is filled in.
func (s *SQLiteStore) Record(ctx context.Context, a model.Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (
			id, kind, repository, number, sha, detail, succeeded, error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Kind), a.Repository, a.Number, a.SHA, a.Detail,
		boolToInt(a.Succeeded), a.Error, a.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording %s activity: %w", a.Kind, err)
	}
	return nil
}

// List returns journal entries matching filter, newest first.
func (s *SQLiteStore) List(ctx context.Context, filter ActivityFilter) ([]model.Activity, error) {
	var conditions []string
	var args []interface{}

	if filter.Kind != nil {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(*filter.Kind))
	}
	if filter.Repository != nil {
		conditions = append(conditions, "repository = ?")
		args = append(args, *filter.Repository)
	}
	if filter.Number != nil {
		conditions = append(conditions, "number = ?")
		args = append(args, *filter.Number)
	}

	query := "SELECT id, kind, repository, number, sha, detail, succeeded, error, created_at FROM activities"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying activities: %w", err)
	}
	defer rows.Close()

	var activities []model.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}

	return activities, rows.Err()
}

func scanActivity(rows *sqlx.Rows) (model.Activity, error) {
	var (
		a         model.Activity
		kind      string
		succeeded int
	)

	err := rows.Scan(
		&a.ID, &kind, &a.Repository, &a.Number, &a.SHA, &a.Detail,
		&succeeded, &a.Error, &a.CreatedAt,
	)
	if err != nil {
		return model.Activity{}, fmt.Errorf("scanning activity row: %w", err)
	}

	a.Kind = model.ActivityKind(kind)
	a.Succeeded = succeeded != 0
	return a, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
