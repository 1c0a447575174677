package store

import (
	"database/sql"
	"time"

	"github.com/verte-zerg/tuifocus/internal/model"
)

// Row codec between the model types and the SQLite schema.
// Times are stored as Unix nanoseconds and decoded into the local zone.

type sessionRow struct {
	ID              string
	TaskID          string
	StartedAt       int64
	DurationSeconds int64
	Completed       int
	Interruptions   int
}

type taskRow struct {
	ID               string
	Title            string
	Priority         string
	DueAt            sql.NullInt64
	EstimatedMinutes int
	Completed        int
	CreatedAt        int64
}

func encodeSession(s model.Session) sessionRow {
	return sessionRow{
		ID:              s.ID,
		TaskID:          s.TaskID,
		StartedAt:       s.StartedAt.UnixNano(),
		DurationSeconds: s.DurationSeconds,
		Completed:       boolToInt(s.Completed),
		Interruptions:   s.Interruptions,
	}
}

func decodeSession(r sessionRow) model.Session {
	return model.Session{
		ID:              r.ID,
		TaskID:          r.TaskID,
		StartedAt:       decodeTime(r.StartedAt),
		DurationSeconds: r.DurationSeconds,
		Completed:       r.Completed != 0,
		Interruptions:   r.Interruptions,
	}
}

func encodeTask(t model.Task) taskRow {
	row := taskRow{
		ID:               t.ID,
		Title:            t.Title,
		Priority:         string(t.Priority),
		EstimatedMinutes: t.EstimatedMinutes,
		Completed:        boolToInt(t.Completed),
		CreatedAt:        t.CreatedAt.UnixNano(),
	}
	if t.HasDue() {
		row.DueAt = sql.NullInt64{Int64: t.Due.UnixNano(), Valid: true}
	}
	return row
}

func decodeTask(r taskRow) model.Task {
	task := model.Task{
		ID:               r.ID,
		Title:            r.Title,
		Priority:         model.Priority(r.Priority),
		EstimatedMinutes: r.EstimatedMinutes,
		Completed:        r.Completed != 0,
		CreatedAt:        decodeTime(r.CreatedAt),
	}
	// A missing or nonsensical due column means no due date.
	if r.DueAt.Valid && r.DueAt.Int64 > 0 {
		due := decodeTime(r.DueAt.Int64)
		task.Due = &due
	}
	return task
}

func decodeTime(nanos int64) time.Time {
	return time.Unix(0, nanos).In(time.Local)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
