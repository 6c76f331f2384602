package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/imkarma/planner/internal/store"
	"github.com/spf13/cobra"
)

var clearYes bool

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write a JSON backup of all tasks",
	Long:  "Writes every task plus metadata as JSON to the given file, or to stdout.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Replace all tasks with a JSON backup",
	Long:  "Validates the backup first. A malformed file leaves existing tasks untouched.",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every task",
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "Confirm deleting every task")
}

func runExport(cmd *cobra.Command, args []string) error {
	s, err := mustPlanner(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := s.planner.Export(cmd.Context())
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if len(args) == 1 {
		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("create backup: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := store.EncodeBackup(w, snap); err != nil {
		return err
	}
	if len(args) == 1 {
		fmt.Fprintf(os.Stderr, "Exported %d tasks to %s\n", len(snap.Tasks), args[0])
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open backup: %w", err)
	}
	defer f.Close()

	snap, err := store.DecodeBackup(f)
	if err != nil {
		return err
	}

	s, err := mustPlanner(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.planner.Import(cmd.Context(), snap); err != nil {
		return err
	}
	fmt.Printf("Imported %d tasks from %s\n", len(snap.Tasks), args[0])
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	if !clearYes {
		return fmt.Errorf("refusing to delete every task without --yes")
	}
	s, err := mustPlanner(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	n := len(s.planner.Tasks())
	if err := s.planner.Clear(cmd.Context()); err != nil {
		return err
	}
	fmt.Printf("Deleted %d tasks\n", n)
	return nil
}
