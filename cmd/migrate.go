package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending migrations",
	Long: `Apply every pending migration in order. Migrations applied by one run
form a batch that rollback undoes together.`,
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

		applied, err := runner.Migrate(ctx)
		for _, name := range applied {
			color.Green("  ✅ %s", name)
		}
		if err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}

		if len(applied) == 0 {
			color.Cyan("✨ Nothing to migrate")
			return nil
		}
		color.Green("\n✅ Applied %d migration(s)", len(applied))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
