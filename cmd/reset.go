package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Roll back every applied migration",
	Long:  `Roll back every applied migration, newest first. All catalogue tables and their data are dropped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		fmt.Println("🗑️  This will drop all tables and data in your database!")
		if !askUserConfirmation(force, "Are you sure you want to reset the database?") {
			fmt.Println("Database reset cancelled")
			return nil
		}

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

		reverted, err := runner.Reset(ctx)
		for _, name := range reverted {
			color.Yellow("  ↩️  %s", name)
		}
		if err != nil {
			return fmt.Errorf("failed to reset: %w", err)
		}
		color.Green("\n✅ Database reset (%d migration(s) rolled back)", len(reverted))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
