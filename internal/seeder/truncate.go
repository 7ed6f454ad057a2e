package seeder

import (
	"context"
	"fmt"

	"github.com/Rana718/quarry/internal/database"
	"github.com/Rana718/quarry/internal/database/common"
	"github.com/fatih/color"
	"go.uber.org/multierr"
)

// Truncate empties tables in reverse order.
func Truncate(ctx context.Context, store database.DatabaseAdapter, tables []string) error {
	if len(tables) == 0 {
		return nil
	}
	color.Yellow("🗑️  Truncating tables...")

	var errs error
	for i := len(tables) - 1; i >= 0; i-- {
		table := tables[i]
		if !common.IsValidIdentifier(table) {
			errs = multierr.Append(errs, fmt.Errorf("invalid table name: %s", table))
			continue
		}
		quoted := store.QuoteIdent(table)

		var err error
		switch store.Provider() {
		case "postgresql", "postgres":
			_, err = store.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", quoted))
		case "mysql":
			_, err = store.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s", quoted))
		case "sqlite", "sqlite3":
			_, err = store.Exec(ctx, fmt.Sprintf("DELETE FROM %s", quoted))
			if err == nil {
				// sqlite_sequence only exists once an AUTOINCREMENT table has
				// been written to.
				_, _ = store.Exec(ctx, "DELETE FROM sqlite_sequence WHERE name = ?", table)
			}
		default:
			_, err = store.Exec(ctx, fmt.Sprintf("DELETE FROM %s", quoted))
		}

		if err != nil {
			err = fmt.Errorf("failed to truncate %s: %w", table, err)
			color.Yellow("  ⚠️  %v", err)
			errs = multierr.Append(errs, err)
		}
	}

	if errs != nil {
		return errs
	}
	color.Green("✅ Tables truncated")
	return nil
}
