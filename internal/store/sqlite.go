package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is the primary engine: one row per task plus a singleton
// metadata row.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite returns an Opener for the database at dbPath.
func OpenSQLite(dbPath string) Opener {
	return func(ctx context.Context) (Engine, error) {
		return NewSQLite(ctx, dbPath)
	}
}

// NewSQLite opens (or creates) the SQLite database at the given path.
func NewSQLite(ctx context.Context, dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Name implements Engine.
func (s *SQLite) Name() string { return "sqlite" }

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id                 TEXT PRIMARY KEY,
		title              TEXT NOT NULL,
		kind               TEXT NOT NULL DEFAULT 'homework',
		subject            TEXT,
		notes              TEXT,
		created_at         TEXT NOT NULL,
		updated_at         TEXT NOT NULL,
		due_date           TEXT,
		due_time           TEXT,
		scheduled_date     TEXT,
		scheduled_time     TEXT,
		time_zone          TEXT NOT NULL,
		estimated_minutes  INTEGER,
		priority           TEXT NOT NULL DEFAULT '',
		pomodoro_count     INTEGER NOT NULL DEFAULT 0,
		completed          INTEGER NOT NULL DEFAULT 0,
		completed_at       TEXT,
		sort_order         INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS metadata (
		id              INTEGER PRIMARY KEY CHECK (id = 1),
		schema_version  INTEGER NOT NULL,
		last_modified   TEXT NOT NULL
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// taskColumns is the standard column list for task queries.
const taskColumns = `id, title, kind, subject, notes, created_at, updated_at, due_date, due_time, scheduled_date, scheduled_time, time_zone, estimated_minutes, priority, pomodoro_count, completed, completed_at, sort_order`

// LoadTasks implements Engine.
func (s *SQLite) LoadTasks(ctx context.Context) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// LoadMetadata implements Engine.
func (s *SQLite) LoadMetadata(ctx context.Context) (Metadata, bool, error) {
	var m Metadata
	var lastModified string
	err := s.db.QueryRowContext(ctx,
		`SELECT schema_version, last_modified FROM metadata WHERE id = 1`,
	).Scan(&m.SchemaVersion, &lastModified)
	if err == sql.ErrNoRows {
		return Metadata{}, false, nil
	}
	if err != nil {
		return Metadata{}, false, fmt.Errorf("get metadata: %w", err)
	}
	m.LastModified, err = parseTime(lastModified)
	if err != nil {
		return Metadata{}, false, fmt.Errorf("parse last_modified: %w", err)
	}
	return m, true, nil
}

// PutTask implements Engine.
func (s *SQLite) PutTask(ctx context.Context, t Task, meta Metadata) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := insertTask(ctx, tx, t); err != nil {
			return err
		}
		return writeMetadata(ctx, tx, meta)
	})
}

// RemoveTask implements Engine.
func (s *SQLite) RemoveTask(ctx context.Context, id string, meta Metadata) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return writeMetadata(ctx, tx, meta)
	})
}

// Replace implements Engine. Clear, bulk insert and metadata share one
// transaction, so a failure leaves the previous state in place.
func (s *SQLite) Replace(ctx context.Context, snap Snapshot) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := clearTables(ctx, tx); err != nil {
			return err
		}
		for _, t := range snap.Tasks {
			if err := insertTask(ctx, tx, t); err != nil {
				return err
			}
		}
		return writeMetadata(ctx, tx, snap.Metadata)
	})
}

// Clear implements Engine.
func (s *SQLite) Clear(ctx context.Context) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return clearTables(ctx, tx)
	})
}

func (s *SQLite) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func clearTables(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM metadata`); err != nil {
		return fmt.Errorf("clear metadata: %w", err)
	}
	return nil
}

func insertTask(ctx context.Context, tx *sql.Tx, t Task) error {
	var completedAt *string
	if t.CompletedAt != nil {
		v := formatTime(*t.CompletedAt)
		completedAt = &v
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			kind = excluded.kind,
			subject = excluded.subject,
			notes = excluded.notes,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			due_date = excluded.due_date,
			due_time = excluded.due_time,
			scheduled_date = excluded.scheduled_date,
			scheduled_time = excluded.scheduled_time,
			time_zone = excluded.time_zone,
			estimated_minutes = excluded.estimated_minutes,
			priority = excluded.priority,
			pomodoro_count = excluded.pomodoro_count,
			completed = excluded.completed,
			completed_at = excluded.completed_at,
			sort_order = excluded.sort_order`,
		t.ID, t.Title, string(t.Kind), t.Subject, t.Notes,
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
		t.DueDate, t.DueTime, t.ScheduledDate, t.ScheduledTime,
		t.TimeZone, t.EstimatedMinutes, string(t.Priority),
		t.PomodoroCount, t.Completed, completedAt, t.Order,
	)
	if err != nil {
		return fmt.Errorf("upsert task: %w", err)
	}
	return nil
}

func writeMetadata(ctx context.Context, tx *sql.Tx, meta Metadata) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO metadata (id, schema_version, last_modified) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET schema_version = excluded.schema_version, last_modified = excluded.last_modified`,
		meta.SchemaVersion, formatTime(meta.LastModified),
	)
	if err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// scanTask scans a single task from *sql.Rows.
func scanTask(rows *sql.Rows) (*Task, error) {
	var t Task
	var (
		kind, priority               string
		createdAt, updatedAt         string
		subject, notes               sql.NullString
		dueDate, dueTime             sql.NullString
		scheduledDate, scheduledTime sql.NullString
		estimated                    sql.NullInt64
		completedAt                  sql.NullString
	)
	err := rows.Scan(
		&t.ID, &t.Title, &kind, &subject, &notes, &createdAt, &updatedAt,
		&dueDate, &dueTime, &scheduledDate, &scheduledTime,
		&t.TimeZone, &estimated, &priority, &t.PomodoroCount,
		&t.Completed, &completedAt, &t.Order,
	)
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}

	t.Kind = Kind(kind)
	t.Priority = Priority(priority)
	t.Subject = nullString(subject)
	t.Notes = nullString(notes)
	t.DueDate = nullString(dueDate)
	t.DueTime = nullString(dueTime)
	t.ScheduledDate = nullString(scheduledDate)
	t.ScheduledTime = nullString(scheduledTime)
	if estimated.Valid {
		v := int(estimated.Int64)
		t.EstimatedMinutes = &v
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("scan task %s created_at: %w", t.ID, err)
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("scan task %s updated_at: %w", t.ID, err)
	}
	if completedAt.Valid {
		ts, err := parseTime(completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("scan task %s completed_at: %w", t.ID, err)
		}
		t.CompletedAt = &ts
	}
	return &t, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// Timestamps are stored as RFC 3339 text so they round-trip exactly.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
