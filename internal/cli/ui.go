package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/imkarma/planner/internal/tui"
	"github.com/spf13/cobra"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open interactive TUI board",
	Long:  "Opens the urgency board. Create, complete, delete and undo tasks, and run pomodoros.",
	RunE:  runUI,
}

var pomodoroCmd = &cobra.Command{
	Use:     "pomodoro [id]",
	Aliases: []string{"focus"},
	Short:   "Run a pomodoro timer on a task",
	Long:    "Starts a work/break cycle on the task. Each finished work session is added to its pomodoro count.",
	Args:    cobra.ExactArgs(1),
	RunE:    runPomodoro,
}

func init() {
	rootCmd.AddCommand(uiCmd)
	rootCmd.AddCommand(pomodoroCmd)
}

func runUI(cmd *cobra.Command, args []string) error {
	s, err := mustPlanner(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	return runProgram(tui.New(s.planner, tui.Options{Pomodoro: s.cfg.Pomodoro.Timer()}))
}

func runPomodoro(cmd *cobra.Command, args []string) error {
	s, err := mustPlanner(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	task, err := resolveTask(s.planner, args[0])
	if err != nil {
		return err
	}
	if task.Completed {
		return fmt.Errorf("task %s is already done", shortID(task.ID))
	}

	return runProgram(tui.New(s.planner, tui.Options{
		Pomodoro:      s.cfg.Pomodoro.Timer(),
		StartPomodoro: task.ID,
	}))
}

func runProgram(model tea.Model) error {
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
