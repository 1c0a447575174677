// Package suggestui provides the Bubble Tea suggestions interface.
package suggestui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/tuifocus/internal/model"
	"github.com/verte-zerg/tuifocus/internal/stats"
)

const (
	tabSuggestions = iota
	tabWindows
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
)

// Lifecycle is the suggestion state the UI drives.
type Lifecycle interface {
	Refresh(ctx context.Context)
	Accept(id string) (model.Suggestion, bool)
	Dismiss(id string) bool
	Suggestions() []model.Suggestion
	Loading() bool
	SetDaysAhead(days int)
	DaysAhead() int
}

// ReportLoader builds the focus window report shown on the windows tab.
type ReportLoader func(ctx context.Context) (stats.Report, error)

// DBChangedMsg asks the UI to reload after the session database changed.
type DBChangedMsg struct{}

type loadedMsg struct {
	report stats.Report
	err    error
}

// Model implements the Bubble Tea suggestions UI.
type Model struct {
	ctx        context.Context
	lifecycle  Lifecycle
	loadReport ReportLoader

	items    []model.Suggestion
	accepted []model.Suggestion
	report   stats.Report
	errMsg   string
	notice   string

	// loading covers the gap between issuing a load and the manager marking itself busy.
	loading bool
	pending bool

	tabs      []string
	activeTab int
	table     table.Model
	viewport  viewport.Model

	width  int
	height int

	settingsMode  bool
	settingsInput textinput.Model
	settingsError string
}

// NewModel constructs a suggestions UI model. Suggestions load when the program starts.
func NewModel(ctx context.Context, lc Lifecycle, loadReport ReportLoader) *Model {
	m := &Model{
		ctx:        ctx,
		lifecycle:  lc,
		loadReport: loadReport,
		tabs:       []string{"Suggestions", "Focus Windows"},
		viewport:   viewport.New(0, 0),
	}
	m.table = buildTable(nil, 0, 1)
	m.table.Focus()
	m.settingsInput = newInput("Days ahead: ")
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.startLoad()
}

// Accepted returns suggestions accepted during the session, in accept order.
func (m *Model) Accepted() []model.Suggestion {
	out := make([]model.Suggestion, len(m.accepted))
	copy(out, m.accepted)
	return out
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case loadedMsg:
		m.loading = false
		m.report = msg.report
		m.errMsg = ""
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("Failed to load focus windows: %v", msg.err)
		}
		m.syncItems()
		m.renderWindows()
		if m.pending {
			m.pending = false
			return m, m.startLoad()
		}
		return m, nil
	case DBChangedMsg:
		if m.busy() {
			m.pending = true
			return m, nil
		}
		return m, m.startLoad()
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.settingsMode {
			return m.updateSettings(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "right", "l", "tab":
		m.moveTab(1)
		return m, tea.ClearScreen
	case "r":
		if m.busy() {
			return m, nil
		}
		return m, m.startLoad()
	case "/":
		m.settingsMode = true
		m.settingsError = ""
		if days := m.lifecycle.DaysAhead(); days > 0 {
			m.settingsInput.SetValue(strconv.Itoa(days))
		} else {
			m.settingsInput.SetValue("")
		}
		return m, m.settingsInput.Focus()
	}
	if m.activeTab == tabWindows {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	switch msg.String() {
	case "a", "enter":
		if s, ok := m.selected(); ok {
			if accepted, ok := m.lifecycle.Accept(s.ID); ok {
				m.accepted = append(m.accepted, accepted)
				m.notice = "Accepted: " + accepted.Task.Title
			}
			m.syncItems()
		}
		return m, nil
	case "d", "x":
		if s, ok := m.selected(); ok {
			if m.lifecycle.Dismiss(s.ID) {
				m.notice = "Dismissed: " + s.Task.Title
			}
			m.syncItems()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.settingsMode = false
		m.settingsError = ""
		m.settingsInput.Blur()
		return m, nil
	case tea.KeyEnter:
		days, err := parseDaysAhead(m.settingsInput.Value())
		if err != nil {
			m.settingsError = err.Error()
			return m, nil
		}
		m.settingsMode = false
		m.settingsError = ""
		m.settingsInput.Blur()
		m.lifecycle.SetDaysAhead(days)
		if m.busy() {
			m.pending = true
			return m, nil
		}
		return m, m.startLoad()
	}
	var cmd tea.Cmd
	m.settingsInput, cmd = m.settingsInput.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) busy() bool {
	return m.loading || m.lifecycle.Loading()
}

func (m *Model) startLoad() tea.Cmd {
	m.loading = true
	m.notice = ""
	ctx := m.ctx
	lc := m.lifecycle
	loadReport := m.loadReport
	return func() tea.Msg {
		lc.Refresh(ctx)
		if loadReport == nil {
			return loadedMsg{}
		}
		report, err := loadReport(ctx)
		return loadedMsg{report: report, err: err}
	}
}

func (m *Model) syncItems() {
	m.items = m.lifecycle.Suggestions()
	idx := m.table.Cursor()
	m.table.SetRows(buildRows(m.items))
	if idx >= len(m.items) {
		idx = len(m.items) - 1
	}
	if idx < 0 {
		idx = 0
	}
	m.table.SetCursor(idx)
}

func (m *Model) selected() (model.Suggestion, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.items) {
		return model.Suggestion{}, false
	}
	return m.items[idx], true
}

func (m *Model) renderWindows() {
	var buf bytes.Buffer
	if err := m.report.Render(&buf, false); err != nil {
		m.viewport.SetContent(fmt.Sprintf("Failed to render focus windows: %v", err))
		return
	}
	m.viewport.SetContent(strings.TrimRight(buf.String(), "\n"))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.settingsMode && (m.errMsg != "" || m.notice != "") {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.viewport.Width = m.width
	m.viewport.Height = bodyHeight
	m.table.SetWidth(m.width)
	m.table.SetHeight(maxInt(1, bodyHeight-1))
	m.table.SetColumns(columnsFor(m.width))
	promptWidth := lipgloss.Width(m.settingsInput.Prompt)
	m.settingsInput.Width = maxInt(10, m.width-promptWidth-2)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabSuggestions {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	return tabs + "\n" + padLine(m.renderStatus(), m.width)
}

func (m *Model) renderStatus() string {
	days := "default"
	if d := m.lifecycle.DaysAhead(); d > 0 {
		days = strconv.Itoa(d)
	}
	status := fmt.Sprintf("Suggestions: %d  accepted=%d  days-ahead=%s", len(m.items), len(m.accepted), days)
	if m.busy() {
		status += "  loading..."
	}
	return headerStyle.Render(truncateLine(status, m.width))
}

func (m *Model) renderBody() string {
	if m.settingsMode {
		lines := []string{"Settings (enter to apply, esc to cancel)", m.settingsInput.View()}
		if m.settingsError != "" {
			lines = append(lines, errorStyle.Render(m.settingsError))
		}
		return strings.Join(lines, "\n")
	}
	if m.activeTab == tabWindows {
		return m.viewport.View()
	}
	if len(m.items) == 0 {
		if m.busy() {
			return headerStyle.Render("Loading suggestions...")
		}
		return headerStyle.Render("No suggestions. Add tasks with `tuifocus task add`.")
	}
	return m.table.View()
}

func (m *Model) renderFooter() string {
	if m.settingsMode {
		return headerStyle.Render("enter: apply  esc: cancel  quit: ctrl+c")
	}
	help := "Nav: left/right  Accept: a  Dismiss: d  Refresh: r  Settings: /  Quit: q"
	if m.activeTab == tabWindows {
		help = "Nav: left/right  Scroll: up/down/pgup/pgdn  Refresh: r  Quit: q"
	}
	line := headerStyle.Render(truncateLine(help, m.width))
	switch {
	case m.errMsg != "":
		return line + "\n" + errorStyle.Render(truncateLine(m.errMsg, m.width))
	case m.notice != "":
		return line + "\n" + noticeStyle.Render(truncateLine(m.notice, m.width))
	}
	return line
}

func parseDaysAhead(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(value)
	if err != nil || days < 1 || days > 60 {
		return 0, fmt.Errorf("days ahead must be between 1 and 60")
	}
	return days, nil
}

func newInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 3
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
