package suggestui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuifocus/internal/model"
	"github.com/verte-zerg/tuifocus/internal/stats"
)

// Fixed column widths; Task and Reason share what is left.
var fixedColumns = []table.Column{
	{Title: "#", Width: 3},
	{Title: "Type", Width: 10},
	{Title: "Task", Width: 0},
	{Title: "Start", Width: 15},
	{Title: "End", Width: 5},
	{Title: "Conf", Width: 4},
	{Title: "Reason", Width: 0},
}

const (
	colTask   = 2
	colReason = 6
	minTask   = 12
	minReason = 16
)

func buildTable(items []model.Suggestion, width, height int) table.Model {
	t := table.New(
		table.WithColumns(columnsFor(width)),
		table.WithRows(buildRows(items)),
		table.WithHeight(maxInt(1, height)),
	)
	if width > 0 {
		t.SetWidth(width)
	}
	t.SetStyles(tableStyles())
	return t
}

func columnsFor(width int) []table.Column {
	cols := make([]table.Column, len(fixedColumns))
	copy(cols, fixedColumns)
	used := 0
	for _, c := range cols {
		used += c.Width + 1
	}
	spare := width - used - 2
	task := maxInt(minTask, spare*2/5)
	reason := maxInt(minReason, spare-task)
	cols[colTask].Width = task
	cols[colReason].Width = reason
	return cols
}

func buildRows(items []model.Suggestion) []table.Row {
	rows := make([]table.Row, 0, len(items))
	for i, s := range items {
		rows = append(rows, table.Row(stats.SuggestionRow(i+1, s)))
	}
	return rows
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}
