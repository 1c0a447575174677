// Package suggest places outstanding tasks into time slots using focus windows.
package suggest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/tuifocus/internal/model"
	"github.com/verte-zerg/tuifocus/internal/pattern"
)

// DefaultDaysAhead is how far ahead suggestions are placed when no horizon is given.
const DefaultDaysAhead = 7

// Reasons attached to suggestions.
const (
	ReasonUrgent   = "Due date approaching"
	ReasonHeavy    = "High-focus window detected"
	ReasonLight    = "Light task - flexible scheduling"
	ReasonFallback = "Default scheduling (insufficient data)"
)

const (
	urgentHorizon     = 24 * time.Hour
	urgentLead        = time.Hour
	heavyMinutes      = 60
	highFocusScore    = 0.6
	highFocusComplete = 0.7
	acceptableScore   = 0.3

	confidenceUrgent   = 0.9
	confidenceHeavy    = 0.7
	confidenceNoWindow = 0.4
	confidenceLight    = 0.6
	confidenceFallback = 0.3
)

// TaskSource lists tasks that are not completed.
type TaskSource interface {
	ListIncompleteTasks(ctx context.Context) ([]model.Task, error)
}

// WindowSource produces focus windows for a trailing number of days.
type WindowSource interface {
	AnalyzeFocusPatterns(ctx context.Context, lookbackDays int) (pattern.Windows, error)
}

// Engine ranks and places suggestions.
type Engine struct {
	tasks        TaskSource
	windows      WindowSource
	now          func() time.Time
	newID        func() string
	lookbackDays int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLookbackDays sets the analysis lookback passed to the window source.
func WithLookbackDays(days int) Option {
	return func(e *Engine) {
		e.lookbackDays = days
	}
}

// WithIDGenerator overrides how suggestion ids are generated.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

// NewEngine returns an Engine reading from the given sources.
func NewEngine(tasks TaskSource, windows WindowSource, opts ...Option) *Engine {
	e := &Engine{
		tasks:        tasks,
		windows:      windows,
		now:          time.Now,
		newID:        uuid.NewString,
		lookbackDays: pattern.DefaultLookbackDays,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GenerateSuggestions returns ordered suggestions for tasks. A nil tasks slice
// loads every incomplete task from the task source.
func (e *Engine) GenerateSuggestions(ctx context.Context, tasks []model.Task, daysAhead int) ([]model.Suggestion, error) {
	if daysAhead <= 0 {
		daysAhead = DefaultDaysAhead
	}
	if tasks == nil {
		loaded, err := e.tasks.ListIncompleteTasks(ctx)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		tasks = loaded
	}
	windows, err := e.windows.AnalyzeFocusPatterns(ctx, e.lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("analyze focus patterns: %w", err)
	}

	now := e.now()
	suggestions := make([]model.Suggestion, 0, len(tasks))
	for _, task := range tasks {
		if task.Completed {
			continue
		}
		if !task.HasDue() && task.Priority == model.PriorityLow {
			continue
		}
		s := e.place(task, windows, now, daysAhead)
		s.ID = e.newID()
		suggestions = append(suggestions, s)
	}
	SortSuggestions(suggestions)
	return suggestions, nil
}

func (e *Engine) place(task model.Task, windows pattern.Windows, now time.Time, daysAhead int) model.Suggestion {
	s := model.Suggestion{Task: task}
	switch {
	case task.HasDue() && task.Due.Sub(now) <= urgentHorizon:
		s.Type = model.SuggestionUrgent
		s.Start = now.Add(urgentLead)
		s.Reason = ReasonUrgent
		s.Confidence = confidenceUrgent
	case task.Priority == model.PriorityHigh || task.EstimatedMinutes >= heavyMinutes:
		s.Type = model.SuggestionHeavyTask
		s.Reason = ReasonHeavy
		start, ok := FindBestFocusWindow(windows, task.EstimatedMinutes, now, daysAhead, true)
		if ok {
			s.Start = start
			s.Confidence = confidenceHeavy
		} else {
			s.Confidence = confidenceNoWindow
		}
	default:
		s.Type = model.SuggestionLightTask
		s.Reason = ReasonLight
		s.Confidence = confidenceLight
		if start, ok := FindBestFocusWindow(windows, task.EstimatedMinutes, now, daysAhead, false); ok {
			s.Start = start
		}
	}
	if s.Start.IsZero() {
		s.Start = DefaultSuggestionTime(task, now)
		s.Reason = ReasonFallback
		s.Confidence = confidenceFallback
	}
	s.End = s.Start.Add(task.EstimatedDuration())
	return s
}

// FindBestFocusWindow returns the earliest upcoming slot among acceptable windows.
// Days are scanned in order; within a day, candidates are tried in score order
// (best first for high focus, worst first otherwise so prime slots stay free).
// Slots start on the hour; durationMinutes does not constrain them.
func FindBestFocusWindow(windows pattern.Windows, durationMinutes int, now time.Time, daysAhead int, preferHighFocus bool) (time.Time, bool) {
	candidates := make([]model.FocusWindow, 0, len(windows))
	for _, fw := range windows {
		if preferHighFocus {
			if fw.FocusScore >= highFocusScore && fw.CompletionRate >= highFocusComplete {
				candidates = append(candidates, fw)
			}
		} else if fw.FocusScore >= acceptableScore {
			candidates = append(candidates, fw)
		}
	}
	if len(candidates) == 0 {
		return time.Time{}, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.FocusScore != b.FocusScore {
			if preferHighFocus {
				return a.FocusScore > b.FocusScore
			}
			return a.FocusScore < b.FocusScore
		}
		if a.Slot.Weekday != b.Slot.Weekday {
			return a.Slot.Weekday < b.Slot.Weekday
		}
		return a.Slot.Hour < b.Slot.Hour
	})

	for offset := 0; offset < daysAhead; offset++ {
		day := time.Date(now.Year(), now.Month(), now.Day()+offset, 0, 0, 0, 0, now.Location())
		weekday := model.IsoWeekday(day)
		for _, fw := range candidates {
			if fw.Slot.Weekday != weekday {
				continue
			}
			start := time.Date(day.Year(), day.Month(), day.Day(), fw.Slot.Hour, 0, 0, 0, now.Location())
			if start.After(now) {
				return start, true
			}
		}
	}
	return time.Time{}, false
}

// DefaultSuggestionTime picks a priority-based hour today, or tomorrow if it has passed.
// A task due today is placed one hour from now.
func DefaultSuggestionTime(task model.Task, now time.Time) time.Time {
	if task.HasDue() && sameDay(task.Due.In(now.Location()), now) {
		return now.Add(urgentLead)
	}
	hour := preferredHour(task.Priority)
	today := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if today.After(now) {
		return today
	}
	return time.Date(now.Year(), now.Month(), now.Day()+1, hour, 0, 0, 0, now.Location())
}

func preferredHour(p model.Priority) int {
	switch p {
	case model.PriorityHigh:
		return 9
	case model.PriorityMedium:
		return 14
	default:
		return 18
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// SortSuggestions orders urgent suggestions first, then by task priority
// (high first), then by due date with dated tasks ahead of undated ones.
func SortSuggestions(suggestions []model.Suggestion) {
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		au, bu := a.Type == model.SuggestionUrgent, b.Type == model.SuggestionUrgent
		if au != bu {
			return au
		}
		if ar, br := a.Task.Priority.Rank(), b.Task.Priority.Rank(); ar != br {
			return ar > br
		}
		ad, bd := a.Task.HasDue(), b.Task.HasDue()
		switch {
		case ad && bd:
			return a.Task.Due.Before(*b.Task.Due)
		case ad != bd:
			return ad
		default:
			return false
		}
	})
}
