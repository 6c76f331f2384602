package cli

import (
	"fmt"
	"strings"

	"github.com/imkarma/planner/internal/parser"
	"github.com/imkarma/planner/internal/planner"
	"github.com/imkarma/planner/internal/store"
	"github.com/imkarma/planner/internal/urgency"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	taskTitle         string
	taskKind          string
	taskSubject       string
	taskNotes         string
	taskDue           string
	taskDueAt         string
	taskScheduled     string
	taskScheduledAt   string
	taskEstimate      int
	taskPriority      string
	taskPomodoroCount int
)

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a new task",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdd,
}

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var editCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Change task fields",
	Long:  "Changes only the fields whose flags are given. Pass \"none\" to clear an optional field.",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

var doneCmd = &cobra.Command{
	Use:   "done [id]",
	Short: "Toggle a task between done and open",
	Args:  cobra.ExactArgs(1),
	RunE:  runDone,
}

var rmCmd = &cobra.Command{
	Use:     "rm [id]",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE:    runRm,
}

// addTaskFlags registers the field flags shared by add and edit.
func addTaskFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&taskKind, "kind", "k", "", "Kind: homework or life")
	fs.StringVarP(&taskSubject, "subject", "s", "", "Course or area, e.g. Biology")
	fs.StringVarP(&taskNotes, "notes", "n", "", "Free-form notes")
	fs.StringVarP(&taskDue, "due", "d", "", "Due: YYYY-MM-DD, today, tomorrow, fri, 3d, optionally with a time (fri 7pm)")
	fs.StringVar(&taskDueAt, "due-at", "", "Due time: HH:mm or 7pm (default start of day)")
	fs.StringVar(&taskScheduled, "on", "", "Date you plan to work on it")
	fs.StringVar(&taskScheduledAt, "on-at", "", "Time you plan to start")
	fs.IntVarP(&taskEstimate, "estimate", "e", 0, "Estimated minutes")
	fs.StringVarP(&taskPriority, "priority", "p", "", "Priority: high, medium, low or none")
}

func init() {
	addTaskFlags(addCmd.Flags())
	addTaskFlags(editCmd.Flags())
	editCmd.Flags().StringVarP(&taskTitle, "title", "t", "", "New title")
	editCmd.Flags().IntVar(&taskPomodoroCount, "pomodoros", 0, "Set the finished pomodoro count")
}

// patchFromFlags builds a patch from the flags the user actually set.
func patchFromFlags(cmd *cobra.Command, s *session) (planner.Patch, error) {
	var patch planner.Patch
	fs := cmd.Flags()
	now := s.planner.Now()

	optional := func(v string) *string {
		v = strings.TrimSpace(v)
		if v == "" || v == "none" {
			return nil
		}
		return &v
	}

	if fs.Changed("title") {
		patch.Title = planner.Set(taskTitle)
	}
	if fs.Changed("kind") {
		patch.Kind = planner.Set(store.Kind(strings.ToLower(taskKind)))
	}
	if fs.Changed("subject") {
		patch.Subject = planner.Set(optional(taskSubject))
	}
	if fs.Changed("notes") {
		patch.Notes = planner.Set(optional(taskNotes))
	}
	if fs.Changed("due") {
		d, c, err := parser.ParseDue(taskDue, now)
		if err != nil {
			return patch, err
		}
		patch.DueDate = planner.Set(d)
		if c != nil || d == nil {
			patch.DueTime = planner.Set(c)
		}
	}
	if fs.Changed("due-at") {
		c, err := parser.ParseClock(taskDueAt)
		if err != nil {
			return patch, err
		}
		patch.DueTime = planner.Set(c)
	}
	if fs.Changed("on") {
		d, err := parser.ParseDay(taskScheduled, now)
		if err != nil {
			return patch, err
		}
		patch.ScheduledDate = planner.Set(d)
	}
	if fs.Changed("on-at") {
		c, err := parser.ParseClock(taskScheduledAt)
		if err != nil {
			return patch, err
		}
		patch.ScheduledTime = planner.Set(c)
	}
	if fs.Changed("estimate") {
		var est *int
		if taskEstimate != 0 {
			est = planner.Int(taskEstimate)
		}
		patch.EstimatedMinutes = planner.Set(est)
	}
	if fs.Changed("priority") {
		p := strings.ToLower(taskPriority)
		if p == "none" {
			p = ""
		}
		patch.Priority = planner.Set(store.Priority(p))
	}
	if fs.Changed("pomodoros") {
		patch.PomodoroCount = planner.Set(taskPomodoroCount)
	}
	return patch, nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	s, err := mustPlanner(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	patch, err := patchFromFlags(cmd, s)
	if err != nil {
		return err
	}
	patch.Title = planner.Set(strings.Join(args, " "))

	task, err := s.planner.Create(cmd.Context(), patch)
	if err != nil {
		return err
	}

	label, color := timingLabel(*task, s.planner.Now())
	fmt.Printf("Created %s%s%s: %s [%s]", colorCyan, shortID(task.ID), colorReset, task.Title, task.Kind)
	if label != "" {
		fmt.Printf(" %s%s%s", color, label, colorReset)
	}
	fmt.Println()
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	s, err := mustPlanner(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	task, err := resolveTask(s.planner, args[0])
	if err != nil {
		return err
	}
	now := s.planner.Now()

	status := "open"
	if task.Completed {
		status = "done " + urgency.FormatRelative(*task.CompletedAt, now)
	}
	fmt.Printf("Task %s\n", task.ID)
	fmt.Printf("  Title:     %s\n", task.Title)
	fmt.Printf("  Kind:      %s\n", task.Kind)
	fmt.Printf("  Status:    %s\n", status)
	fmt.Printf("  Bucket:    %s\n", urgency.BucketOf(task, now))
	if task.Priority != store.PriorityNone {
		fmt.Printf("  Priority:  %s%s%s\n", priorityColor(task.Priority), task.Priority, colorReset)
	}
	if task.Subject != nil {
		fmt.Printf("  Subject:   %s\n", *task.Subject)
	}
	if task.DueDate != nil {
		fmt.Printf("  Due:       %s %s\n", *task.DueDate, clockOr(task.DueTime, "00:00"))
	}
	if task.ScheduledDate != nil {
		fmt.Printf("  Planned:   %s %s\n", *task.ScheduledDate, clockOr(task.ScheduledTime, "00:00"))
	}
	if label, color := timingLabel(task, now); label != "" {
		fmt.Printf("  When:      %s%s%s (%s)\n", color, label, colorReset, urgency.Classify(task, now))
	}
	if task.EstimatedMinutes != nil {
		fmt.Printf("  Estimate:  %d min\n", *task.EstimatedMinutes)
	}
	fmt.Printf("  Pomodoros: %d\n", task.PomodoroCount)
	fmt.Printf("  Zone:      %s\n", task.TimeZone)
	if task.Notes != nil {
		fmt.Printf("  Notes:     %s\n", *task.Notes)
	}
	fmt.Printf("  Created:   %s\n", task.CreatedAt.In(now.Location()).Format("2006-01-02 15:04"))
	fmt.Printf("  Updated:   %s\n", task.UpdatedAt.In(now.Location()).Format("2006-01-02 15:04"))
	return nil
}

func clockOr(c *string, def string) string {
	if c == nil {
		return def
	}
	return *c
}

func runEdit(cmd *cobra.Command, args []string) error {
	s, err := mustPlanner(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	task, err := resolveTask(s.planner, args[0])
	if err != nil {
		return err
	}
	patch, err := patchFromFlags(cmd, s)
	if err != nil {
		return err
	}

	updated, err := s.planner.Update(cmd.Context(), task.ID, patch)
	if err != nil {
		return err
	}
	if updated == nil {
		return fmt.Errorf("task %s not found", shortID(task.ID))
	}
	fmt.Printf("Updated %s%s%s: %s\n", colorCyan, shortID(updated.ID), colorReset, updated.Title)
	return nil
}

func runDone(cmd *cobra.Command, args []string) error {
	s, err := mustPlanner(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	task, err := resolveTask(s.planner, args[0])
	if err != nil {
		return err
	}
	updated, err := s.planner.ToggleCompletion(cmd.Context(), task.ID)
	if err != nil {
		return err
	}
	if updated == nil {
		return fmt.Errorf("task %s not found", shortID(task.ID))
	}

	if updated.Completed {
		fmt.Printf("%s✓%s %s marked as done\n", colorGreen, colorReset, updated.Title)
	} else {
		fmt.Printf("%s marked as open\n", updated.Title)
	}
	return nil
}

func runRm(cmd *cobra.Command, args []string) error {
	s, err := mustPlanner(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	task, err := resolveTask(s.planner, args[0])
	if err != nil {
		return err
	}
	if err := s.planner.Delete(cmd.Context(), task.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted %s: %s\n", shortID(task.ID), task.Title)
	return nil
}
