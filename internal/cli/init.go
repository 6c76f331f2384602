package cli

import (
	"fmt"
	"os"

	"github.com/imkarma/planner/internal/config"
	"github.com/imkarma/planner/internal/store"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a planner in the current directory",
	Long:  "Creates a .planner/ directory with default config and storage.",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	// Check if already initialized.
	if _, err := os.Stat(plannerDirName); err == nil {
		return fmt.Errorf("planner already initialized in this directory (.planner/ exists)")
	}

	if err := os.MkdirAll(plannerDirName, 0755); err != nil {
		return fmt.Errorf("create .planner: %w", err)
	}

	cfg := config.DefaultConfig()
	if err := config.Save(plannerPath("config.yaml"), cfg); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	// Pick the storage engine now so the user learns if SQLite is unavailable.
	primary, fallback := openers(cfg, plannerDirName)
	adapter := store.NewAdapter(store.AdapterConfig{
		Primary:  primary,
		Fallback: fallback,
		Logger:   newLogger(cfg),
	})
	if err := adapter.Initialize(cmd.Context()); err != nil {
		return fmt.Errorf("create storage: %w", err)
	}
	engine := adapter.Engine()
	adapter.Close()

	fmt.Printf("Initialized planner in .planner/ (%s storage)\n", engine)
	fmt.Println("")
	fmt.Println("Next steps:")
	fmt.Println("  1. Run: planner add \"Read chapter 4\" --subject Biology --due fri")
	fmt.Println("  2. Run: planner list")
	fmt.Println("  3. Run: planner ui")

	return nil
}
