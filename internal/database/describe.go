package database

import (
	"context"
	"fmt"
	"sort"

	"github.com/Rana718/quarry/internal/types"
	"golang.org/x/sync/errgroup"
)

const describeConcurrency = 4

// DescribeTables describes several tables concurrently. An empty names list
// describes every table the store reports. Results are sorted by name.
func DescribeTables(ctx context.Context, adapter DatabaseAdapter, names ...string) ([]types.SchemaTable, error) {
	if len(names) == 0 {
		all, err := adapter.GetAllTableNames(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list tables: %w", err)
		}
		names = all
	}

	tables := make([]types.SchemaTable, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(describeConcurrency)

	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			cols, err := adapter.DescribeTable(gctx, name)
			if err != nil {
				return fmt.Errorf("failed to describe table %s: %w", name, err)
			}
			tables[i] = types.SchemaTable{Name: name, Columns: cols}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(tables, func(i, j int) bool { return tables[i].Name < tables[j].Name })
	return tables, nil
}
