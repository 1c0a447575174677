package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/tuifocus/internal/model"
	"github.com/verte-zerg/tuifocus/internal/stats"
	"github.com/verte-zerg/tuifocus/internal/store"
	"github.com/verte-zerg/tuifocus/internal/taskdoc"
)

var (
	taskPriority string
	taskMinutes  int
	taskDue      string
	taskListAll  bool
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}

	addCmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runTaskAddCmd,
	}
	addCmd.Flags().StringVar(&taskPriority, "priority", string(model.PriorityMedium), "low, medium or high")
	addCmd.Flags().IntVar(&taskMinutes, "minutes", 30, "estimated minutes")
	addCmd.Flags().StringVar(&taskDue, "due", "", "due date (YYYY-MM-DD or YYYY-MM-DD HH:MM)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE:  runTaskListCmd,
	}
	listCmd.Flags().BoolVar(&taskListAll, "all", false, "include completed tasks")

	doneCmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE:  runTaskDoneCmd,
	}
	rmCmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE:  runTaskRmCmd,
	}
	importCmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import tasks from a YAML document",
		Args:  cobra.ExactArgs(1),
		RunE:  runTaskImportCmd,
	}
	exportCmd := &cobra.Command{
		Use:   "export [file.yaml]",
		Short: "Export tasks as a YAML document",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTaskExportCmd,
	}

	cmd.AddCommand(addCmd, listCmd, doneCmd, rmCmd, importCmd, exportCmd)
	return cmd
}

func runTaskAddCmd(cmd *cobra.Command, args []string) error {
	priority, err := model.ParsePriority(taskPriority)
	if err != nil {
		return fmt.Errorf("invalid --priority: %w", err)
	}
	task := model.Task{
		Title:            strings.TrimSpace(strings.Join(args, " ")),
		Priority:         priority,
		EstimatedMinutes: taskMinutes,
	}
	if strings.TrimSpace(taskDue) != "" {
		due, ok := taskdoc.ParseTime(taskDue)
		if !ok {
			return fmt.Errorf("invalid --due value %q", taskDue)
		}
		task.Due = &due
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	saved, err := st.AddTask(context.Background(), task)
	if err != nil {
		return fmt.Errorf("failed to add task: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s\n", stats.ShortID(saved.ID), saved.Title)
	return err
}

func runTaskListCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	tasks, err := st.ListTasks(context.Background(), taskListAll)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}
	return stats.RenderTasks(cmd.OutOrStdout(), tasks)
}

func runTaskDoneCmd(cmd *cobra.Command, args []string) error {
	return withResolvedTask(args[0], func(ctx context.Context, st *store.Store, task model.Task) error {
		if err := st.CompleteTask(ctx, task.ID); err != nil {
			return fmt.Errorf("failed to complete task: %w", err)
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "Completed %s %s\n", stats.ShortID(task.ID), task.Title)
		return err
	})
}

func runTaskRmCmd(cmd *cobra.Command, args []string) error {
	return withResolvedTask(args[0], func(ctx context.Context, st *store.Store, task model.Task) error {
		if err := st.DeleteTask(ctx, task.ID); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", stats.ShortID(task.ID), task.Title)
		return err
	})
}

func withResolvedTask(ref string, fn func(ctx context.Context, st *store.Store, task model.Task) error) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	task, err := resolveTask(ctx, st, ref)
	if err != nil {
		return err
	}
	return fn(ctx, st, task)
}

func runTaskImportCmd(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open task document: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			_ = cerr
		}
	}()

	tasks, warnings, err := taskdoc.Decode(f)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		logErrln("warning:", w.String())
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	n, err := st.ImportTasks(context.Background(), tasks)
	if err != nil {
		return fmt.Errorf("failed to import tasks: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks\n", n)
	return err
}

func runTaskExportCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	tasks, err := st.ListTasks(context.Background(), true)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}
	if len(args) == 0 {
		return taskdoc.Encode(cmd.OutOrStdout(), tasks)
	}
	return writeTaskDocument(args[0], tasks)
}

// resolveTask finds a task by full id or unique id prefix.
func resolveTask(ctx context.Context, st *store.Store, ref string) (model.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Task{}, fmt.Errorf("task id must not be empty")
	}
	task, err := st.GetTask(ctx, ref)
	if err == nil {
		return task, nil
	}
	if !errors.Is(err, store.ErrTaskNotFound) {
		return model.Task{}, err
	}
	tasks, err := st.ListTasks(ctx, true)
	if err != nil {
		return model.Task{}, err
	}
	var matches []model.Task
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return model.Task{}, fmt.Errorf("%w: %s", store.ErrTaskNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return model.Task{}, fmt.Errorf("task id %q is ambiguous (%d matches)", ref, len(matches))
	}
}

func writeTaskDocument(path string, tasks []model.Task) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "tasks-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp export: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if err := taskdoc.Encode(writer, tasks); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush export: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close export: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

