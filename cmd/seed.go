package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/Rana718/quarry/internal/seeder"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	seedOnly     []string
	seedFixtures string
	seedTruncate bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run database seeders",
	Long: `Run the catalogue seeders in dependency order, plus YAML fixtures.

Fixtures map table names to record lists. Records that collide with
existing rows on a unique field follow seed.on_duplicate (skip, update
or error).

Examples:
  quarry seed                          # Run every seeder
  quarry seed --only songs             # Run songs and what it depends on
  quarry seed --fixtures db/seeds      # Also load fixtures from a directory
  quarry seed --truncate --force       # Clear tables first, keep going on errors`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		var extra []seeder.Seeder
		path := seedFixtures
		if path == "" {
			path = s.cfg.Seed.Fixtures
		}
		if _, statErr := os.Stat(path); statErr == nil {
			fixtures, err := seeder.LoadFixtures(path)
			if err != nil {
				return err
			}
			color.Cyan("📦 Loaded %d fixture table(s) from %s", len(fixtures), path)
			extra = append(extra, seeder.FixtureSeeder{
				Fixtures: fixtures,
				Unique:   fixtureUniques(),
				Requires: []string{"users", "tags"},
			})
		} else if seedFixtures != "" {
			return fmt.Errorf("fixtures not found: %s", seedFixtures)
		}

		runner, err := s.app.Seeder(s.cfg.InsertOptions(), extra...)
		if err != nil {
			return err
		}

		force, _ := cmd.Flags().GetBool("force")
		if seedTruncate && !askUserConfirmation(force, "Truncate the seeded tables first?") {
			fmt.Println("Seeding cancelled")
			return nil
		}

		return runner.Run(ctx, seeder.Options{
			Only:     seedOnly,
			Truncate: seedTruncate,
			Force:    force,
		})
	},
}

// fixtureUniques are the fields fixture rows are matched on per table.
func fixtureUniques() map[string][]string {
	return map[string][]string{
		"users": {"email"},
		"tags":  {"name"},
	}
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringSliceVar(&seedOnly, "only", nil, "Run only these seeders (and their dependencies)")
	seedCmd.Flags().StringVar(&seedFixtures, "fixtures", "", "Fixture file or directory (default from config seed.fixtures)")
	seedCmd.Flags().BoolVar(&seedTruncate, "truncate", false, "Truncate seeded tables before seeding")
}
