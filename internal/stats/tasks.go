package stats

import (
	"fmt"
	"io"

	"github.com/verte-zerg/tuifocus/internal/model"
)

// ShortIDLen is how many id characters task listings show.
const ShortIDLen = 8

// RenderTasks prints tasks as a table.
func RenderTasks(w io.Writer, tasks []model.Task) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks.")
		return err
	}
	headers := []string{"ID", "Title", "Priority", "Minutes", "Due", "Done"}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		due := "-"
		if t.HasDue() {
			due = t.Due.Format("2006-01-02 15:04")
		}
		done := ""
		if t.Completed {
			done = "yes"
		}
		rows = append(rows, []string{
			ShortID(t.ID),
			t.Title,
			string(t.Priority),
			fmt.Sprintf("%d", t.EstimatedMinutes),
			due,
			done,
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{3: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// ShortID truncates an id for display.
func ShortID(id string) string {
	if len(id) <= ShortIDLen {
		return id
	}
	return id[:ShortIDLen]
}
