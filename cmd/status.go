package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Long: `Show the current status of all migrations including:
- Total number of migrations
- Number of applied migrations
- Number of pending migrations
- Each migration with its batch and timestamp`,
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

		status, err := runner.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to read migration status: %w", err)
		}

		fmt.Printf("📋 Migration Status\n")
		fmt.Printf("==================\n\n")
		fmt.Printf("Total migrations: %d\n", status.TotalMigrations)
		fmt.Printf("Applied: %d\n", status.AppliedMigrations)
		fmt.Printf("Pending: %d\n", status.PendingMigrations)
		fmt.Println()

		if len(status.Migrations) == 0 {
			fmt.Println("No migrations found")
			return nil
		}

		fmt.Println("Migration Details:")
		fmt.Println("------------------")
		for _, m := range status.Migrations {
			line := fmt.Sprintf("%-6s %-40s", m.ID, m.Name)
			if m.AppliedAt != nil {
				color.Green("%s ✅ Applied (batch %d, %s)", line, m.Batch, m.AppliedAt.Format("2006-01-02 15:04:05"))
				continue
			}
			color.Yellow("%s ⏳ Pending", line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
