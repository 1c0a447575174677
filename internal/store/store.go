// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/tuifocus/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrTaskNotFound is returned when a task id does not exist.
var ErrTaskNotFound = errors.New("task not found")

// Store wraps SQLite access for tasks and focus sessions.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db, path: path}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			priority TEXT NOT NULL,
			due_at INTEGER,
			estimated_minutes INTEGER NOT NULL CHECK (estimated_minutes > 0),
			completed INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL DEFAULT '',
			started_at INTEGER NOT NULL,
			duration_seconds INTEGER NOT NULL,
			completed INTEGER NOT NULL,
			interruptions INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(completed, created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// AppendSession records a finished focus session. Sessions are never updated.
func (s *Store) AppendSession(ctx context.Context, session model.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if err := session.Validate(); err != nil {
		return err
	}
	row := encodeSession(session)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, task_id, started_at, duration_seconds, completed, interruptions)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		row.ID,
		row.TaskID,
		row.StartedAt,
		row.DurationSeconds,
		row.Completed,
		row.Interruptions,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// QuerySessions returns sessions started within [start, end], oldest first.
func (s *Store) QuerySessions(ctx context.Context, start, end time.Time) ([]model.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task_id, started_at, duration_seconds, completed, interruptions
		 FROM sessions
		 WHERE started_at >= ? AND started_at <= ?
		 ORDER BY started_at ASC, id ASC`,
		start.UnixNano(), end.UnixNano())
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.Session
	for rows.Next() {
		var row sessionRow
		if err := rows.Scan(&row.ID, &row.TaskID, &row.StartedAt, &row.DurationSeconds, &row.Completed, &row.Interruptions); err != nil {
			return nil, err
		}
		sessions = append(sessions, decodeSession(row))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// CountSessions returns the number of recorded sessions.
func (s *Store) CountSessions(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// AddTask validates and stores a task, assigning an id and creation time when missing.
func (s *Store) AddTask(ctx context.Context, task model.Task) (model.Task, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	if err := task.Validate(); err != nil {
		return model.Task{}, err
	}
	row := encodeTask(task)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, title, priority, due_at, estimated_minutes, completed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.ID,
		row.Title,
		row.Priority,
		row.DueAt,
		row.EstimatedMinutes,
		row.Completed,
		row.CreatedAt,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return decodeTask(row), nil
}

// GetTask loads a task by id.
func (s *Store) GetTask(ctx context.Context, id string) (model.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, priority, due_at, estimated_minutes, completed, created_at
		 FROM tasks WHERE id = ?`, id)
	var r taskRow
	if err := row.Scan(&r.ID, &r.Title, &r.Priority, &r.DueAt, &r.EstimatedMinutes, &r.Completed, &r.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}
		return model.Task{}, err
	}
	return decodeTask(r), nil
}

// ListIncompleteTasks returns tasks not yet completed, oldest first.
func (s *Store) ListIncompleteTasks(ctx context.Context) ([]model.Task, error) {
	return s.ListTasks(ctx, false)
}

// ListTasks returns tasks in creation order, optionally including completed ones.
func (s *Store) ListTasks(ctx context.Context, includeCompleted bool) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, priority, due_at, estimated_minutes, completed, created_at
		 FROM tasks
		 WHERE (? = 1 OR completed = 0)
		 ORDER BY created_at ASC, id ASC`,
		boolToInt(includeCompleted))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var tasks []model.Task
	for rows.Next() {
		var r taskRow
		if err := rows.Scan(&r.ID, &r.Title, &r.Priority, &r.DueAt, &r.EstimatedMinutes, &r.Completed, &r.CreatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, decodeTask(r))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CompleteTask marks a task as completed.
func (s *Store) CompleteTask(ctx context.Context, id string) error {
	return s.execTask(ctx, `UPDATE tasks SET completed = 1 WHERE id = ?`, id)
}

// DeleteTask removes a task. Sessions that referenced it keep the dangling id.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.execTask(ctx, `DELETE FROM tasks WHERE id = ?`, id)
}

func (s *Store) execTask(ctx context.Context, stmt, id string) error {
	res, err := s.db.ExecContext(ctx, stmt, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return nil
}

// ImportTasks stores several tasks in one transaction.
func (s *Store) ImportTasks(ctx context.Context, tasks []model.Task) (n int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tasks (id, title, priority, due_at, estimated_minutes, completed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title=excluded.title,
		   priority=excluded.priority,
		   due_at=excluded.due_at,
		   estimated_minutes=excluded.estimated_minutes,
		   completed=excluded.completed`)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()

	now := time.Now()
	for i, task := range tasks {
		if task.ID == "" {
			task.ID = uuid.NewString()
		}
		if task.CreatedAt.IsZero() {
			task.CreatedAt = now.Add(time.Duration(i))
		}
		if err = task.Validate(); err != nil {
			return 0, fmt.Errorf("task %d: %w", i+1, err)
		}
		row := encodeTask(task)
		if _, err = stmt.ExecContext(ctx, row.ID, row.Title, row.Priority, row.DueAt, row.EstimatedMinutes, row.Completed, row.CreatedAt); err != nil {
			return 0, fmt.Errorf("task %d: %w", i+1, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return len(tasks), nil
}
