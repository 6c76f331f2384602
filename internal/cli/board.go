package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/imkarma/planner/internal/store"
	"github.com/imkarma/planner/internal/urgency"
	"github.com/spf13/cobra"
)

// ANSI color codes.
const (
	colorReset   = "\033[0m"
	colorBold    = "\033[1m"
	colorDim     = "\033[2m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
	colorWhite   = "\033[37m"
)

var listAll bool

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "board"},
	Short:   "Show open tasks grouped by urgency",
	RunE:    runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "Also show completed tasks")
}

type section struct {
	label string
	color string
	tasks []store.Task
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := mustPlanner(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	now := s.planner.Now()
	all := s.planner.Tasks()
	g := urgency.Group(all, now)

	sections := []section{
		{"URGENT", colorRed, g.Urgent},
		{"TODAY", colorYellow, g.Today},
		{"UPCOMING", colorBlue, g.Upcoming},
		{"SOMEDAY", colorWhite, g.Someday},
	}
	if listAll {
		var done []store.Task
		for _, t := range all {
			if t.Completed {
				done = append(done, t)
			}
		}
		sections = append(sections, section{"DONE", colorGreen, done})
	}

	if len(all) == 0 {
		fmt.Printf("%sNo tasks.%s Add one: %splanner add \"title\" --due tomorrow%s\n",
			colorDim, colorReset, colorCyan, colorReset)
		return nil
	}

	for _, sec := range sections {
		if len(sec.tasks) == 0 {
			continue
		}
		fmt.Printf("%s%s (%d)%s\n", sec.color+colorBold, sec.label, len(sec.tasks), colorReset)
		fmt.Println(colorDim + strings.Repeat("─", 64) + colorReset)
		for _, t := range sec.tasks {
			fmt.Println(taskLine(t, now))
		}
		fmt.Println()
	}

	open := g.Len()
	fmt.Printf("%s%d open%s", colorBold, open, colorReset)
	if n := len(g.Urgent); n > 0 {
		fmt.Printf("  %s! %d urgent%s", colorRed, n, colorReset)
	}
	if done := len(all) - open; done > 0 {
		fmt.Printf("  %s✓ %d done%s", colorGreen, done, colorReset)
	}
	fmt.Println()
	return nil
}

// taskLine renders one listing row: short id, title, subject and timing.
func taskLine(t store.Task, now time.Time) string {
	mark := " "
	if t.Completed {
		mark = colorGreen + "✓" + colorReset
	}
	title := padRight(truncate(t.Title, 34), 34)
	subject := strings.Repeat(" ", 12)
	if t.Subject != nil {
		subject = padRight(truncate(*t.Subject, 12), 12)
	}

	label, color := timingLabel(t, now)
	return fmt.Sprintf(" %s %s%s%s %s%s%s %s %s%s%s",
		mark,
		priorityColor(t.Priority), shortID(t.ID), colorReset,
		kindColor(t.Kind), title, colorReset,
		colorDim+subject+colorReset,
		color, label, colorReset)
}

// timingLabel describes the due instant, else the scheduled instant.
func timingLabel(t store.Task, now time.Time) (string, string) {
	class := urgency.Classify(t, now)
	if due, ok := urgency.DueInstant(t); ok {
		return "due " + urgency.FormatRelative(due, now), classColor(class)
	}
	if at, ok := urgency.ScheduledInstant(t); ok {
		return "planned " + urgency.FormatRelative(at, now), classColor(class)
	}
	return "", ""
}

func classColor(c urgency.Class) string {
	switch c {
	case urgency.ClassOverdue:
		return colorRed + colorBold
	case urgency.ClassToday:
		return colorYellow
	case urgency.ClassTomorrow:
		return colorCyan
	case urgency.ClassUpcoming:
		return colorBlue
	default:
		return colorDim
	}
}

func kindColor(k store.Kind) string {
	if k == store.KindLife {
		return colorMagenta
	}
	return ""
}

func priorityColor(p store.Priority) string {
	switch p {
	case store.PriorityHigh:
		return colorRed + colorBold
	case store.PriorityMedium:
		return colorYellow
	case store.PriorityLow:
		return colorDim
	default:
		return ""
	}
}

func padRight(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
