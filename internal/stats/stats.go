// Package stats contains focus statistics and text reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/verte-zerg/tuifocus/internal/model"
)

const (
	heatChars  = ".:-=+*#%@"
	noDataChar = ' '
	colorReset = "\x1b[0m"
	colorGood  = "\x1b[32m"
	colorFair  = "\x1b[33m"
	colorPoor  = "\x1b[31m"
	timeLayout = "Mon 01-02 15:04"
)

// Summary aggregates a set of sessions.
type Summary struct {
	Sessions         int
	Completed        int
	CompletionRate   float64
	AvgInterruptions float64
	TotalFocus       time.Duration
}

// Summarize computes totals over sessions.
func Summarize(sessions []model.Session) Summary {
	var sum Summary
	var interruptions int
	for _, s := range sessions {
		sum.Sessions++
		if s.Completed {
			sum.Completed++
		}
		interruptions += s.Interruptions
		sum.TotalFocus += time.Duration(s.DurationSeconds) * time.Second
	}
	if sum.Sessions > 0 {
		sum.CompletionRate = float64(sum.Completed) / float64(sum.Sessions)
		sum.AvgInterruptions = float64(interruptions) / float64(sum.Sessions)
	}
	return sum
}

// RenderSummary prints a summary block for sessions.
func RenderSummary(w io.Writer, sessions []model.Session) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	sum := Summarize(sessions)
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", sum.Sessions),
		fmt.Sprintf("Completed: %d (%.1f%%)", sum.Completed, sum.CompletionRate*100),
		fmt.Sprintf("Avg interruptions: %.2f", sum.AvgInterruptions),
		fmt.Sprintf("Total focus: %s", sum.TotalFocus.Round(time.Minute)),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderWindowTable prints focus windows, best score first.
func RenderWindowTable(w io.Writer, windows []model.FocusWindow) error {
	if len(windows) == 0 {
		_, err := fmt.Fprintln(w, "No focus windows yet. Record a few sessions first.")
		return err
	}
	rows := make([]model.FocusWindow, len(windows))
	copy(rows, windows)
	sortByScore(rows)

	if _, err := fmt.Fprintln(w, "Focus Windows"); err != nil {
		return err
	}
	headers := []string{"Slot", "Score", "Completion", "Interruptions", "Avg Minutes", "Sessions"}
	tableRows := make([][]string, 0, len(rows))
	for _, fw := range rows {
		tableRows = append(tableRows, []string{
			SlotLabel(fw.Slot),
			fmt.Sprintf("%.2f", fw.FocusScore),
			fmt.Sprintf("%.0f%%", fw.CompletionRate*100),
			fmt.Sprintf("%.1f", fw.AverageInterruptions),
			fmt.Sprintf("%.1f", fw.AverageDurationSeconds/60),
			fmt.Sprintf("%d", fw.SessionCount),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	for _, line := range formatTable(headers, tableRows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderHeatmap prints a weekday by hour grid shaded by focus score.
func RenderHeatmap(w io.Writer, windows []model.FocusWindow, useColor bool) error {
	lines := HeatmapLines(windows, useColor)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// HeatmapLines builds the heatmap rows: an hour ruler then Mon..Sun.
func HeatmapLines(windows []model.FocusWindow, useColor bool) []string {
	var grid [7][24]*model.FocusWindow
	for i := range windows {
		fw := windows[i]
		if fw.Slot.Weekday < 1 || fw.Slot.Weekday > 7 || fw.Slot.Hour < 0 || fw.Slot.Hour > 23 {
			continue
		}
		grid[fw.Slot.Weekday-1][fw.Slot.Hour] = &fw
	}

	ruler := []rune(strings.Repeat(" ", 24))
	for _, h := range []int{0, 6, 12, 18} {
		for i, r := range fmt.Sprintf("%d", h) {
			ruler[h+i] = r
		}
	}
	lines := []string{"    " + strings.TrimRight(string(ruler), " ")}
	for d := 0; d < 7; d++ {
		var b strings.Builder
		b.WriteString(model.WeekdayName(d + 1))
		b.WriteByte(' ')
		for h := 0; h < 24; h++ {
			fw := grid[d][h]
			if fw == nil {
				b.WriteRune(noDataChar)
				continue
			}
			ch := string(heatChar(fw.FocusScore))
			if useColor {
				ch = scoreColor(fw.FocusScore) + ch + colorReset
			}
			b.WriteString(ch)
		}
		lines = append(lines, strings.TrimRight(b.String(), " "))
	}
	return lines
}

// RenderSuggestions prints suggestions in their ranked order.
func RenderSuggestions(w io.Writer, suggestions []model.Suggestion) error {
	if len(suggestions) == 0 {
		_, err := fmt.Fprintln(w, "No suggestions.")
		return err
	}
	headers := []string{"#", "Type", "Task", "Start", "End", "Conf", "Reason"}
	rows := make([][]string, 0, len(suggestions))
	for i, s := range suggestions {
		rows = append(rows, SuggestionRow(i+1, s))
	}
	for _, line := range formatTable(headers, rows, map[int]bool{0: true, 5: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// SuggestionRow formats one suggestion as table cells.
func SuggestionRow(n int, s model.Suggestion) []string {
	return []string{
		fmt.Sprintf("%d", n),
		string(s.Type),
		s.Task.Title,
		s.Start.Format(timeLayout),
		s.End.Format("15:04"),
		fmt.Sprintf("%.0f%%", s.Confidence*100),
		s.Reason,
	}
}

// SlotLabel renders a slot as "Tue 09:00".
func SlotLabel(slot model.SlotKey) string {
	return fmt.Sprintf("%s %02d:00", model.WeekdayName(slot.Weekday), slot.Hour)
}

// ShouldUseColor reports whether w is a terminal and NO_COLOR is unset.
func ShouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func heatChar(score float64) byte {
	pos := math.Max(0, math.Min(1, score))
	idx := int(math.Round(pos * float64(len(heatChars)-1)))
	return heatChars[idx]
}

func scoreColor(score float64) string {
	switch {
	case score >= 0.6:
		return colorGood
	case score >= 0.3:
		return colorFair
	default:
		return colorPoor
	}
}

func sortByScore(windows []model.FocusWindow) {
	sort.Slice(windows, func(i, j int) bool {
		a, b := windows[i], windows[j]
		if a.FocusScore != b.FocusScore {
			return a.FocusScore > b.FocusScore
		}
		if a.Slot.Weekday != b.Slot.Weekday {
			return a.Slot.Weekday < b.Slot.Weekday
		}
		return a.Slot.Hour < b.Slot.Hour
	})
}
