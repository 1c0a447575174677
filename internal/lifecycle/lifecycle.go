// Package lifecycle holds the current suggestion list and its accept/dismiss state.
package lifecycle

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/verte-zerg/tuifocus/internal/model"
)

// Generator produces suggestions. A nil tasks slice means "all outstanding tasks".
type Generator interface {
	GenerateSuggestions(ctx context.Context, tasks []model.Task, daysAhead int) ([]model.Suggestion, error)
}

// Manager exposes suggestions to a caller and removes them on accept or dismiss.
//
// Loads are best effort: a failing engine leaves an empty list and the error is
// logged. Each load takes a generation number and only the newest load may
// publish its result, so a slow superseded load never overwrites a fresh one.
type Manager struct {
	engine    Generator
	daysAhead int
	logf      func(format string, args ...any)

	mu          sync.Mutex
	suggestions []model.Suggestion
	loading     bool
	generation  uint64
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets where load failures are reported.
func WithLogger(logf func(format string, args ...any)) Option {
	return func(m *Manager) {
		if logf != nil {
			m.logf = logf
		}
	}
}

// WithDaysAhead sets the scheduling horizon passed to the engine.
func WithDaysAhead(days int) Option {
	return func(m *Manager) {
		m.daysAhead = days
	}
}

// NewManager returns an idle Manager with no suggestions.
func NewManager(engine Generator, opts ...Option) *Manager {
	m := &Manager{
		engine: engine,
		logf:   logErrf,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load regenerates suggestions for tasks and replaces the list wholesale.
func (m *Manager) Load(ctx context.Context, tasks []model.Task) {
	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.loading = true
	daysAhead := m.daysAhead
	m.mu.Unlock()

	suggestions, err := m.engine.GenerateSuggestions(ctx, tasks, daysAhead)
	if err != nil {
		m.logf("failed to generate suggestions: %v\n", err)
		suggestions = nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		// A newer load started while this one ran.
		return
	}
	m.suggestions = suggestions
	m.loading = false
}

// SetDaysAhead changes the horizon used by the next load.
func (m *Manager) SetDaysAhead(days int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.daysAhead = days
}

// DaysAhead returns the horizon passed to the engine. Zero means the engine default.
func (m *Manager) DaysAhead() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.daysAhead
}

// Refresh reloads suggestions for all outstanding tasks.
func (m *Manager) Refresh(ctx context.Context) {
	m.Load(ctx, nil)
}

// Accept removes the suggestion and returns it. Unknown ids are a no-op.
// Turning an accepted suggestion into a commitment is left to the caller.
func (m *Manager) Accept(id string) (model.Suggestion, bool) {
	return m.remove(id)
}

// Dismiss removes the suggestion. Unknown ids are a no-op.
func (m *Manager) Dismiss(id string) bool {
	_, ok := m.remove(id)
	return ok
}

func (m *Manager) remove(id string) (model.Suggestion, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.suggestions {
		if s.ID != id {
			continue
		}
		out := make([]model.Suggestion, 0, len(m.suggestions)-1)
		out = append(out, m.suggestions[:i]...)
		out = append(out, m.suggestions[i+1:]...)
		m.suggestions = out
		return s, true
	}
	return model.Suggestion{}, false
}

// Suggestions returns a copy of the current list.
func (m *Manager) Suggestions() []model.Suggestion {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Suggestion, len(m.suggestions))
	copy(out, m.suggestions)
	return out
}

// Loading reports whether a load is in flight.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
