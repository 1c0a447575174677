// Package taskdoc reads and writes task lists as YAML documents.
package taskdoc

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/tuifocus/internal/model"
)

// Accepted time layouts, tried in order. Layouts without a zone are local.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

const dueOutLayout = "2006-01-02 15:04"

type document struct {
	Tasks []taskEntry `yaml:"tasks"`
}

type taskEntry struct {
	ID        string `yaml:"id,omitempty"`
	Title     string `yaml:"title"`
	Priority  string `yaml:"priority"`
	Due       string `yaml:"due,omitempty"`
	Minutes   int    `yaml:"minutes"`
	Completed bool   `yaml:"completed,omitempty"`
}

// Warning describes an entry field that was ignored while decoding.
type Warning struct {
	Index   int
	Title   string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("task %d (%s): %s", w.Index+1, w.Title, w.Message)
}

// Decode parses a task document. Malformed due dates are dropped with a warning
// rather than failing the whole document.
func Decode(r io.Reader) ([]model.Task, []Warning, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to decode task document: %w", err)
	}

	tasks := make([]model.Task, 0, len(doc.Tasks))
	var warnings []Warning
	for i, entry := range doc.Tasks {
		priority := model.PriorityMedium
		if strings.TrimSpace(entry.Priority) != "" {
			p, err := model.ParsePriority(entry.Priority)
			if err != nil {
				return nil, nil, fmt.Errorf("task %d: %w", i+1, err)
			}
			priority = p
		}
		task := model.Task{
			ID:               strings.TrimSpace(entry.ID),
			Title:            strings.TrimSpace(entry.Title),
			Priority:         priority,
			EstimatedMinutes: entry.Minutes,
			Completed:        entry.Completed,
		}
		if entry.Due != "" {
			due, ok := ParseTime(entry.Due)
			if ok {
				task.Due = &due
			} else {
				warnings = append(warnings, Warning{Index: i, Title: task.Title, Message: fmt.Sprintf("ignoring malformed due date %q", entry.Due)})
			}
		}
		if err := task.Validate(); err != nil {
			return nil, nil, fmt.Errorf("task %d: %w", i+1, err)
		}
		tasks = append(tasks, task)
	}
	return tasks, warnings, nil
}

// Encode writes tasks as a YAML document.
func Encode(w io.Writer, tasks []model.Task) error {
	doc := document{Tasks: make([]taskEntry, 0, len(tasks))}
	for _, t := range tasks {
		entry := taskEntry{
			ID:        t.ID,
			Title:     t.Title,
			Priority:  string(t.Priority),
			Minutes:   t.EstimatedMinutes,
			Completed: t.Completed,
		}
		if t.HasDue() {
			entry.Due = t.Due.In(time.Local).Format(dueOutLayout)
		}
		doc.Tasks = append(doc.Tasks, entry)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode task document: %w", err)
	}
	return enc.Close()
}

// ParseDue parses a due date in one of the accepted layouts.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
