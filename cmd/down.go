package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rollbackCmd = &cobra.Command{
	Use:     "rollback",
	Aliases: []string{"down"},
	Short:   "Roll back migrations",
	Long: `
Roll back database migrations.

By default, rolls back the latest batch.
Use --steps to roll back that many migrations instead.

Examples:
  quarry rollback              # Roll back the last batch
  quarry rollback --steps 3    # Roll back the last 3 migrations`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		runner, err := s.app.Migrator(s.cfg.Migrations.Table)
		if err != nil {
			return err
		}

		steps, _ := cmd.Flags().GetInt("steps")
		reverted, err := runner.Rollback(ctx, steps)
		for _, name := range reverted {
			color.Yellow("  ↩️  %s", name)
		}
		if err != nil {
			return fmt.Errorf("failed to roll back: %w", err)
		}

		if len(reverted) == 0 {
			color.Cyan("✨ Nothing to roll back")
			return nil
		}
		color.Green("\n✅ Rolled back %d migration(s)", len(reverted))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rollbackCmd)
	rollbackCmd.Flags().Int("steps", 0, "Number of migrations to roll back (default: last batch)")
}
