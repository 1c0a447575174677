package suggestui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/tuifocus/internal/lifecycle"
	"github.com/verte-zerg/tuifocus/internal/model"
	"github.com/verte-zerg/tuifocus/internal/stats"
)

type fakeEngine struct {
	calls        int
	gotDaysAhead int
	titles       []string
}

func (f *fakeEngine) GenerateSuggestions(_ context.Context, _ []model.Task, daysAhead int) ([]model.Suggestion, error) {
	f.calls++
	f.gotDaysAhead = daysAhead
	start := time.Date(2024, 3, 12, 9, 0, 0, 0, time.Local)
	out := make([]model.Suggestion, 0, len(f.titles))
	for i, title := range f.titles {
		out = append(out, model.Suggestion{
			ID:         title,
			Task:       model.Task{ID: "t-" + title, Title: title, Priority: model.PriorityMedium, EstimatedMinutes: 30},
			Start:      start.Add(time.Duration(i) * time.Hour),
			End:        start.Add(time.Duration(i)*time.Hour + 30*time.Minute),
			Type:       model.SuggestionLightTask,
			Reason:     "Low-focus slot",
			Confidence: 0.6,
		})
	}
	return out, nil
}

func newTestModel(t *testing.T, titles ...string) (*Model, *fakeEngine) {
	t.Helper()
	engine := &fakeEngine{titles: titles}
	mgr := lifecycle.NewManager(engine, lifecycle.WithDaysAhead(7))
	loader := func(context.Context) (stats.Report, error) {
		return stats.Report{Windows: []model.FocusWindow{{Slot: model.SlotKey{Weekday: 2, Hour: 9}, FocusScore: 0.8, SessionCount: 3}}}, nil
	}
	m := NewModel(context.Background(), mgr, loader)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	run(m, m.Init())
	return m, engine
}

// run executes cmd synchronously and feeds its message back into the model.
func run(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	m.Update(cmd())
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func titles(items []model.Suggestion) string {
	parts := make([]string, len(items))
	for i, s := range items {
		parts[i] = s.Task.Title
	}
	return strings.Join(parts, ",")
}

func TestInitLoadsSuggestionsAndWindows(t *testing.T) {
	m, engine := newTestModel(t, "alpha", "beta")
	if engine.calls != 1 {
		t.Fatalf("expected one load, got %d", engine.calls)
	}
	if got := titles(m.items); got != "alpha,beta" {
		t.Fatalf("unexpected items: %s", got)
	}
	if m.busy() {
		t.Fatalf("expected load finished")
	}
	view := m.View()
	if !strings.Contains(view, "alpha") || !strings.Contains(view, "Suggestions: 2") {
		t.Fatalf("unexpected view:\n%s", view)
	}
	if !strings.Contains(m.viewport.View(), "Tue 09:00") {
		t.Fatalf("expected windows tab content, got:\n%s", m.viewport.View())
	}
}

func TestAcceptAndDismissSelected(t *testing.T) {
	m, _ := newTestModel(t, "alpha", "beta", "gamma")

	m.Update(key("a"))
	if got := titles(m.items); got != "beta,gamma" {
		t.Fatalf("expected alpha accepted, got %s", got)
	}
	if acc := m.Accepted(); len(acc) != 1 || acc[0].Task.Title != "alpha" {
		t.Fatalf("unexpected accepted: %+v", acc)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(key("d"))
	if got := titles(m.items); got != "beta" {
		t.Fatalf("expected gamma dismissed, got %s", got)
	}
	if !strings.Contains(m.notice, "gamma") {
		t.Fatalf("expected dismiss notice, got %q", m.notice)
	}

	m.Update(key("x"))
	m.Update(key("x"))
	if len(m.items) != 0 {
		t.Fatalf("expected empty list, got %s", titles(m.items))
	}
	if !strings.Contains(m.View(), "No suggestions") {
		t.Fatalf("expected empty state view")
	}
}

func TestRefreshIgnoredWhileLoading(t *testing.T) {
	m, engine := newTestModel(t, "alpha")
	_, cmd := m.Update(key("r"))
	if cmd == nil {
		t.Fatalf("expected refresh command")
	}
	_, again := m.Update(key("r"))
	if again != nil {
		t.Fatalf("refresh must be ignored while a load is in flight")
	}
	run(m, cmd)
	if engine.calls != 2 {
		t.Fatalf("expected two loads, got %d", engine.calls)
	}
}

func TestDBChangeDuringLoadReloadsAfter(t *testing.T) {
	m, engine := newTestModel(t, "alpha")
	_, cmd := m.Update(key("r"))
	_, none := m.Update(DBChangedMsg{})
	if none != nil {
		t.Fatalf("expected change to be queued while loading")
	}
	_, follow := m.Update(cmd())
	if follow == nil {
		t.Fatalf("expected queued reload after load finished")
	}
	run(m, follow)
	if engine.calls != 3 {
		t.Fatalf("expected three loads, got %d", engine.calls)
	}
}

func TestSettingsChangesDaysAhead(t *testing.T) {
	m, engine := newTestModel(t, "alpha")
	m.Update(key("/"))
	if !m.settingsMode {
		t.Fatalf("expected settings mode")
	}
	m.settingsInput.SetValue("3")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.settingsMode {
		t.Fatalf("expected settings closed")
	}
	run(m, cmd)
	if engine.gotDaysAhead != 3 {
		t.Fatalf("expected days ahead 3, got %d", engine.gotDaysAhead)
	}

	m.Update(key("/"))
	m.settingsInput.SetValue("999")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.settingsMode || m.settingsError == "" {
		t.Fatalf("expected validation error to keep settings open")
	}
}

func TestReportErrorShownInFooter(t *testing.T) {
	mgr := lifecycle.NewManager(&fakeEngine{})
	m := NewModel(context.Background(), mgr, func(context.Context) (stats.Report, error) {
		return stats.Report{}, errors.New("db locked")
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	run(m, m.Init())
	if !strings.Contains(m.View(), "db locked") {
		t.Fatalf("expected error in view:\n%s", m.View())
	}
}

func TestParseDaysAhead(t *testing.T) {
	if d, err := parseDaysAhead(""); err != nil || d != 0 {
		t.Fatalf("expected empty to mean default, got %d %v", d, err)
	}
	if d, err := parseDaysAhead(" 14 "); err != nil || d != 14 {
		t.Fatalf("expected 14, got %d %v", d, err)
	}
	for _, bad := range []string{"0", "-1", "61", "abc"} {
		if _, err := parseDaysAhead(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
