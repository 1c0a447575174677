// Package model defines shared data structures.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidTask is returned when a task violates its invariants.
	ErrInvalidTask = errors.New("invalid task")
	// ErrInvalidSession is returned when a session violates its invariants.
	ErrInvalidSession = errors.New("invalid session")
)

// Priority is the importance of a task.
type Priority string

// Known priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority parses a priority name case-insensitively.
func ParsePriority(s string) (Priority, error) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow, nil
	case PriorityMedium:
		return PriorityMedium, nil
	case PriorityHigh:
		return PriorityHigh, nil
	default:
		return "", fmt.Errorf("unknown priority %q (expected low, medium or high)", s)
	}
}

// Rank orders priorities: low < medium < high. Unknown priorities rank below low.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	default:
		return -1
	}
}

// Task is an outstanding piece of work. The scheduling code never mutates it.
type Task struct {
	ID               string
	Title            string
	Priority         Priority
	Due              *time.Time
	EstimatedMinutes int
	Completed        bool
	CreatedAt        time.Time
}

// Validate checks the task invariants.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is empty", ErrInvalidTask)
	}
	if t.Priority.Rank() < 0 {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidTask, t.Priority)
	}
	if t.EstimatedMinutes <= 0 {
		return fmt.Errorf("%w: estimated duration must be > 0", ErrInvalidTask)
	}
	return nil
}

// HasDue reports whether the task carries a due date.
func (t Task) HasDue() bool {
	return t.Due != nil && !t.Due.IsZero()
}

// EstimatedDuration returns the estimate as a time.Duration.
func (t Task) EstimatedDuration() time.Duration {
	return time.Duration(t.EstimatedMinutes) * time.Minute
}

// Session is a finished focus run. Sessions are immutable once recorded.
type Session struct {
	ID              string
	TaskID          string
	StartedAt       time.Time
	DurationSeconds int64
	Completed       bool
	Interruptions   int
}

// Validate checks the session invariants.
func (s Session) Validate() error {
	if s.StartedAt.IsZero() {
		return fmt.Errorf("%w: start time is zero", ErrInvalidSession)
	}
	if s.DurationSeconds < 0 {
		return fmt.Errorf("%w: duration must be >= 0", ErrInvalidSession)
	}
	if s.Interruptions < 0 {
		return fmt.Errorf("%w: interruption count must be >= 0", ErrInvalidSession)
	}
	return nil
}

// SlotKey identifies a recurring weekday+hour bucket.
// Weekday runs 1 (Monday) through 7 (Sunday); Hour runs 0 through 23.
type SlotKey struct {
	Weekday int
	Hour    int
}

// SlotFor returns the bucket for t's local wall clock.
func SlotFor(t time.Time) SlotKey {
	return SlotKey{Weekday: IsoWeekday(t), Hour: t.Hour()}
}

// IsoWeekday returns 1 for Monday through 7 for Sunday.
func IsoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// WeekdayName returns a short label for an ISO weekday.
func WeekdayName(weekday int) string {
	names := [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	if weekday < 1 || weekday > 7 {
		return "?"
	}
	return names[weekday-1]
}

// FocusWindow aggregates the sessions that started in one weekday+hour bucket.
type FocusWindow struct {
	Slot                   SlotKey
	CompletionRate         float64
	AverageInterruptions   float64
	AverageDurationSeconds float64
	FocusScore             float64
	SessionCount           int
}

// SuggestionType tags how a suggestion was placed.
type SuggestionType string

// Suggestion types.
const (
	SuggestionUrgent    SuggestionType = "urgent"
	SuggestionHeavyTask SuggestionType = "heavyTask"
	SuggestionLightTask SuggestionType = "lightTask"
)

// Suggestion is a proposed time slot for a task. It is never persisted.
type Suggestion struct {
	ID         string
	Task       Task
	Start      time.Time
	End        time.Time
	Type       SuggestionType
	Reason     string
	Confidence float64
}

// Config defines focus timer settings.
type Config struct {
	FocusMinutes int
}

// ScheduleConfig defines analysis and suggestion settings.
type ScheduleConfig struct {
	LookbackDays int
	DaysAhead    int
	Watch        bool
}
