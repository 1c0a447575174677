// Package tui provides the Bubble Tea focus timer.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/tuifocus/internal/model"
)

// SessionRecorder persists a finished focus session.
type SessionRecorder interface {
	AppendSession(ctx context.Context, s model.Session) error
}

type tickMsg time.Time

// Model implements the Bubble Tea focus timer. It records exactly one Session
// when the timer runs out or the user stops early.
type Model struct {
	recorder SessionRecorder
	task     *model.Task
	planned  time.Duration
	now      func() time.Time

	width  int
	height int

	startedAt     time.Time
	elapsed       time.Duration
	interruptions int

	finished bool
	session  model.Session
	saveErr  error
}

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	clockStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	barFullStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	barEmptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3A3A3A"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

const (
	maxBarWidth = 40
	barFull     = "█"
	barEmpty    = "░"
)

// Option configures a Model.
type Option func(*Model)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

// NewModel constructs a focus timer for task (which may be nil) lasting minutes.
func NewModel(recorder SessionRecorder, task *model.Task, minutes int, opts ...Option) *Model {
	m := &Model{
		recorder: recorder,
		task:     task,
		planned:  time.Duration(minutes) * time.Minute,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	m.startedAt = m.now()
	return tick()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.finished {
		return m, nil
	}
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		m.elapsed = m.now().Sub(m.startedAt)
		if m.elapsed >= m.planned {
			m.elapsed = m.planned
			m.finish(true)
			return m, tea.Quit
		}
		return m, tick()
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.elapsed = m.now().Sub(m.startedAt)
			m.finish(false)
			return m, tea.Quit
		case tea.KeyRunes:
			switch string(msg.Runes) {
			case "i":
				m.interruptions++
			case "s", "q":
				m.elapsed = m.now().Sub(m.startedAt)
				m.finish(false)
				return m, tea.Quit
			}
		}
		return m, nil
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.finished {
		return ""
	}
	lines := []string{
		titleStyle.Render(m.title()),
		"",
		clockStyle.Render(formatClock(m.remaining())),
		"",
		m.renderBar(),
	}
	content := strings.Join(lines, "\n")
	if m.width == 0 || m.height == 0 {
		return content + "\n" + m.renderFooter()
	}
	footer := m.renderFooter()
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

// Result returns the recorded session and any error from saving it.
// ok is false until the timer has finished.
func (m *Model) Result() (session model.Session, ok bool, err error) {
	return m.session, m.finished, m.saveErr
}

func (m *Model) finish(completed bool) {
	if m.finished {
		return
	}
	m.finished = true
	if m.elapsed < 0 {
		m.elapsed = 0
	}
	m.session = model.Session{
		StartedAt:       m.startedAt,
		DurationSeconds: int64(m.elapsed / time.Second),
		Completed:       completed,
		Interruptions:   m.interruptions,
	}
	if m.task != nil {
		m.session.TaskID = m.task.ID
	}
	if m.recorder == nil {
		return
	}
	if err := m.recorder.AppendSession(context.Background(), m.session); err != nil {
		m.saveErr = err
		logErrf("failed to save session: %v\n", err)
	}
}

func (m *Model) remaining() time.Duration {
	left := m.planned - m.elapsed
	if left < 0 {
		return 0
	}
	return left
}

func (m *Model) title() string {
	title := "Focus"
	if m.task != nil {
		title = m.task.Title
	}
	if m.width > 4 {
		title = runewidth.Truncate(title, m.width-4, "…")
	}
	return title
}

func (m *Model) renderBar() string {
	width := maxBarWidth
	if m.width > 0 && m.width-4 < width {
		width = m.width - 4
	}
	if width < 1 {
		width = 1
	}
	filled := 0
	if m.planned > 0 {
		filled = int(float64(m.elapsed) / float64(m.planned) * float64(width))
	}
	if filled > width {
		filled = width
	}
	return barFullStyle.Render(strings.Repeat(barFull, filled)) +
		barEmptyStyle.Render(strings.Repeat(barEmpty, width-filled))
}

func (m *Model) renderFooter() string {
	segments := []string{
		fmt.Sprintf("Planned %s", m.planned.Round(time.Minute)),
		fmt.Sprintf("Interruptions %d", m.interruptions),
		"i interrupt · s stop · esc abandon",
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func formatClock(d time.Duration) string {
	secs := int64(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
