package cli

import (
	"fmt"

	"github.com/imkarma/planner/internal/urgency"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Quick status overview",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := mustPlanner(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	tasks := s.planner.Tasks()
	if len(tasks) == 0 {
		fmt.Printf("No tasks. Run: %splanner add \"title\"%s\n", colorCyan, colorReset)
		return nil
	}

	now := s.planner.Now()
	g := s.planner.Groups(now)

	fmt.Printf("%sTasks: %d total%s  %s(%s storage, %s)%s\n",
		colorBold, len(tasks), colorReset, colorDim, s.adapter.Engine(), s.planner.Zone(), colorReset)
	fmt.Printf("  %-10s %s%d%s\n", "urgent:", colorRed, len(g.Urgent), colorReset)
	fmt.Printf("  %-10s %s%d%s\n", "today:", colorYellow, len(g.Today), colorReset)
	fmt.Printf("  %-10s %s%d%s\n", "upcoming:", colorBlue, len(g.Upcoming), colorReset)
	fmt.Printf("  %-10s %s%d%s\n", "someday:", colorWhite, len(g.Someday), colorReset)
	fmt.Printf("  %-10s %s%d%s\n", "done:", colorGreen, len(tasks)-g.Len(), colorReset)

	var overdue int
	for _, t := range g.Urgent {
		if urgency.IsOverdue(t, now) {
			overdue++
		}
	}
	if overdue > 0 {
		fmt.Printf("\n%s⚠  Overdue:%s\n", colorRed+colorBold, colorReset)
		for _, t := range g.Urgent {
			if !urgency.IsOverdue(t, now) {
				continue
			}
			due, _ := urgency.DueInstant(t)
			fmt.Printf("  %s%s%s: %s (due %s)\n", colorYellow, shortID(t.ID), colorReset, t.Title, urgency.FormatRelative(due, now))
		}
	}
	return nil
}
