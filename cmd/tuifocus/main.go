// Package main provides the CLI entrypoint for tuifocus.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/tuifocus/internal/config"
	"github.com/verte-zerg/tuifocus/internal/lifecycle"
	"github.com/verte-zerg/tuifocus/internal/model"
	"github.com/verte-zerg/tuifocus/internal/pattern"
	"github.com/verte-zerg/tuifocus/internal/stats"
	"github.com/verte-zerg/tuifocus/internal/store"
	"github.com/verte-zerg/tuifocus/internal/suggest"
	"github.com/verte-zerg/tuifocus/internal/suggestui"
	"github.com/verte-zerg/tuifocus/internal/taskdoc"
	"github.com/verte-zerg/tuifocus/internal/tui"
	"github.com/verte-zerg/tuifocus/internal/watch"
)

const (
	defaultLookbackDays = pattern.DefaultLookbackDays
	defaultDaysAhead    = suggest.DefaultDaysAhead
	defaultFocusMinutes = 25
	maxDaysAhead        = 60
	maxLookbackDays     = 365
	maxFocusMinutes     = 240
)

var (
	dbPath string

	focusMinutes int

	logStart         string
	logMinutes       int
	logCompleted     bool
	logInterruptions int
	logTask          string

	patternsLookback int

	suggestDaysAhead int
	suggestLookback  int
	suggestPlain     bool
	suggestWatch     bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tuifocus",
		Short:         "Focus timer and adaptive task scheduler",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: XDG data dir)")

	rootCmd.AddCommand(newTaskCmd())
	rootCmd.AddCommand(newFocusCmd())
	rootCmd.AddCommand(newSessionCmd())
	rootCmd.AddCommand(newPatternsCmd())
	rootCmd.AddCommand(newSuggestCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func openStore() (*store.Store, error) {
	path := dbPath
	if path == "" {
		path = config.DefaultDBPath()
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func loadFileConfig() (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return fileCfg, nil
}

func newFocusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "focus [task-id]",
		Short: "Run a focus timer and record the session",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runFocusCmd,
	}
	cmd.Flags().IntVar(&focusMinutes, "minutes", defaultFocusMinutes, "planned session length in minutes")
	return cmd
}

func runFocusCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyIntConfig(cmd, "minutes", &focusMinutes, fileCfg.Focus.Minutes)
	cfg := model.Config{FocusMinutes: focusMinutes}
	if err := validateFocusConfig(cfg); err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	var task *model.Task
	if len(args) == 1 {
		found, err := resolveTask(ctx, st, args[0])
		if err != nil {
			return err
		}
		task = &found
	}

	timer := tui.NewModel(st, task, cfg.FocusMinutes)
	program := tea.NewProgram(timer, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	session, ok, err := timer.Result()
	if !ok {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	status := "stopped early"
	if session.Completed {
		status = "completed"
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s session (%s, %d interruptions)\n",
		(time.Duration(session.DurationSeconds) * time.Second).String(), status, session.Interruptions)
	return err
}

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage focus sessions",
	}
	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Record a focus session that happened outside the timer",
		Args:  cobra.NoArgs,
		RunE:  runSessionLogCmd,
	}
	logCmd.Flags().StringVar(&logStart, "start", "", "start time (YYYY-MM-DD HH:MM, default: now minus --minutes)")
	logCmd.Flags().IntVar(&logMinutes, "minutes", defaultFocusMinutes, "session length in minutes")
	logCmd.Flags().BoolVar(&logCompleted, "completed", true, "whether the session ran to completion")
	logCmd.Flags().IntVar(&logInterruptions, "interruptions", 0, "number of interruptions")
	logCmd.Flags().StringVar(&logTask, "task", "", "task id or id prefix")
	cmd.AddCommand(logCmd)
	return cmd
}

func runSessionLogCmd(cmd *cobra.Command, _ []string) error {
	if logMinutes < 0 {
		return fmt.Errorf("--minutes must be >= 0")
	}
	if logInterruptions < 0 {
		return fmt.Errorf("--interruptions must be >= 0")
	}
	start := time.Now().Add(-time.Duration(logMinutes) * time.Minute)
	if strings.TrimSpace(logStart) != "" {
		parsed, ok := taskdoc.ParseTime(logStart)
		if !ok {
			return fmt.Errorf("invalid --start value %q", logStart)
		}
		start = parsed
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := context.Background()
	session := model.Session{
		StartedAt:       start,
		DurationSeconds: int64(logMinutes) * 60,
		Completed:       logCompleted,
		Interruptions:   logInterruptions,
	}
	if logTask != "" {
		task, err := resolveTask(ctx, st, logTask)
		if err != nil {
			return err
		}
		session.TaskID = task.ID
	}
	if err := st.AppendSession(ctx, session); err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Recorded session at %s\n", stats.SlotLabel(model.SlotFor(start)))
	return err
}

func newPatternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Show focus windows learned from past sessions",
		Args:  cobra.NoArgs,
		RunE:  runPatternsCmd,
	}
	cmd.Flags().IntVar(&patternsLookback, "lookback", defaultLookbackDays, "days of history to analyze")
	return cmd
}

func runPatternsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyIntConfig(cmd, "lookback", &patternsLookback, fileCfg.Schedule.LookbackDays)
	if err := validateScheduleConfig(model.ScheduleConfig{LookbackDays: patternsLookback, DaysAhead: defaultDaysAhead}); err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	report, err := stats.BuildReport(context.Background(), st, patternsLookback, time.Now())
	if err != nil {
		return fmt.Errorf("failed to analyze sessions: %w", err)
	}
	out := cmd.OutOrStdout()
	return report.Render(out, stats.ShouldUseColor(out))
}

func newSuggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest time slots for outstanding tasks",
		Args:  cobra.NoArgs,
		RunE:  runSuggestCmd,
	}
	cmd.Flags().IntVar(&suggestDaysAhead, "days-ahead", defaultDaysAhead, "scheduling horizon in days")
	cmd.Flags().IntVar(&suggestLookback, "lookback", defaultLookbackDays, "days of history to analyze")
	cmd.Flags().BoolVar(&suggestPlain, "plain", false, "print suggestions instead of opening the TUI")
	cmd.Flags().BoolVar(&suggestWatch, "watch", true, "refresh when the database changes")
	return cmd
}

func runSuggestCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyIntConfig(cmd, "days-ahead", &suggestDaysAhead, fileCfg.Schedule.DaysAhead)
	applyIntConfig(cmd, "lookback", &suggestLookback, fileCfg.Schedule.LookbackDays)
	applyBoolConfig(cmd, "watch", &suggestWatch, fileCfg.Suggest.Watch)
	cfg := model.ScheduleConfig{
		LookbackDays: suggestLookback,
		DaysAhead:    suggestDaysAhead,
		Watch:        suggestWatch,
	}
	if err := validateScheduleConfig(cfg); err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	analyzer := pattern.NewAnalyzer(st, nil)
	engine := suggest.NewEngine(st, analyzer, suggest.WithLookbackDays(cfg.LookbackDays))
	mgr := lifecycle.NewManager(engine, lifecycle.WithDaysAhead(cfg.DaysAhead), lifecycle.WithLogger(logErrf))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := cmd.OutOrStdout()
	if suggestPlain || !isTerminal(out) {
		mgr.Refresh(ctx)
		return stats.RenderSuggestions(out, mgr.Suggestions())
	}

	loadReport := func(ctx context.Context) (stats.Report, error) {
		return stats.BuildReport(ctx, st, cfg.LookbackDays, time.Now())
	}
	ui := suggestui.NewModel(ctx, mgr, loadReport)
	program := tea.NewProgram(ui, tea.WithAltScreen())

	if cfg.Watch {
		w, err := watch.New(st.Path(), watch.DefaultDebounce, func() {
			program.Send(suggestui.DBChangedMsg{})
		})
		if err != nil {
			logErrf("database watch disabled: %v\n", err)
		} else {
			defer func() {
				if cerr := w.Close(); cerr != nil {
					_ = cerr
				}
			}()
			go func() {
				if err := w.Run(ctx); err != nil {
					logErrf("database watch stopped: %v\n", err)
				}
			}()
		}
	}

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run suggestions TUI: %w", err)
	}
	accepted := ui.Accepted()
	if len(accepted) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(out, "Accepted"); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return stats.RenderSuggestions(out, accepted)
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# tuifocus configuration
# Uncomment a value to enable it. CLI flags override config values.

[schedule]
# lookback-days = %d      # Days of session history used to find focus windows
# days-ahead = %d          # Scheduling horizon for suggestions

[focus]
# minutes = %d            # Default focus timer length

[suggest]
# watch = true            # Refresh suggestions when the database changes
`,
		defaultLookbackDays,
		defaultDaysAhead,
		defaultFocusMinutes,
	)
}

func validateScheduleConfig(cfg model.ScheduleConfig) error {
	if cfg.LookbackDays <= 0 || cfg.LookbackDays > maxLookbackDays {
		return fmt.Errorf("--lookback must be between 1 and %d", maxLookbackDays)
	}
	if cfg.DaysAhead <= 0 || cfg.DaysAhead > maxDaysAhead {
		return fmt.Errorf("--days-ahead must be between 1 and %d", maxDaysAhead)
	}
	return nil
}

func validateFocusConfig(cfg model.Config) error {
	if cfg.FocusMinutes <= 0 || cfg.FocusMinutes > maxFocusMinutes {
		return fmt.Errorf("--minutes must be between 1 and %d", maxFocusMinutes)
	}
	return nil
}

func isTerminal(w any) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
