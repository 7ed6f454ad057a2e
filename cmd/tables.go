package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rana718/quarry/internal/database"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var tablesCmd = &cobra.Command{
	Use:   "tables [table...]",
	Short: "Describe database tables",
	Long:  `Describe the named tables, or every table in the database, with their columns.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		tables, err := database.DescribeTables(ctx, s.app.Store, args...)
		if err != nil {
			return err
		}
		if len(tables) == 0 {
			color.Yellow("⚠️  No tables found")
			return nil
		}

		for _, table := range tables {
			color.New(color.FgCyan, color.Bold).Printf("%s\n", table.Name)
			for _, col := range table.Columns {
				var flags []string
				if col.IsPrimary {
					flags = append(flags, "pk")
				}
				if col.IsUnique {
					flags = append(flags, "unique")
				}
				if col.Nullable {
					flags = append(flags, "null")
				}
				if col.ForeignKeyTable != "" {
					flags = append(flags, fmt.Sprintf("→ %s.%s", col.ForeignKeyTable, col.ForeignKeyColumn))
				}
				fmt.Printf("  %-24s %-12s %s\n", col.Name, col.Type, strings.Join(flags, " "))
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tablesCmd)
}
