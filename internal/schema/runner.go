package schema

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/quarry/internal/database/common"
	"github.com/Rana718/quarry/internal/types"
)

const DefaultMigrationsTable = "_quarry_migrations"

type appliedMigration struct {
	id        int64
	name      string
	batch     int
	appliedAt *time.Time
}

// Runner applies registered migrations in order and records each one in a
// tracking table, grouped into batches so Rollback can undo a whole run.
type Runner struct {
	schema     *Schema
	table      string
	migrations []Migration
	byName     map[string]Migration
}

type RunnerOption func(*Runner)

func WithTrackingTable(name string) RunnerOption {
	return func(r *Runner) {
		if name != "" {
			r.table = name
		}
	}
}

func NewRunner(s *Schema, opts ...RunnerOption) *Runner {
	r := &Runner{
		schema: s,
		table:  DefaultMigrationsTable,
		byName: make(map[string]Migration),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register appends migrations in the order they must run. Names must be
// unique.
func (r *Runner) Register(migrations ...Migration) error {
	for _, m := range migrations {
		if _, exists := r.byName[m.Name()]; exists {
			return fmt.Errorf("migration %s registered twice", m.Name())
		}
		r.byName[m.Name()] = m
		r.migrations = append(r.migrations, m)
	}
	return nil
}

func (r *Runner) createMigrationsTable(ctx context.Context) error {
	exists, err := r.schema.HasTable(ctx, r.table)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return r.schema.Create(ctx, r.table, func(t *Blueprint) {
		t.ID()
		t.String("name").Unique()
		t.Integer("batch")
		t.Timestamp("applied_at").Nullable()
	})
}

func (r *Runner) getAppliedMigrations(ctx context.Context) ([]appliedMigration, error) {
	store := r.schema.store
	query, args, err := store.Builder().
		Select("id", "name", "batch", "applied_at").
		From(r.table).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	res, err := store.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.table, err)
	}

	applied := make([]appliedMigration, 0, len(res.Rows))
	for _, row := range res.Rows {
		id, err := common.ToInt64(row["id"])
		if err != nil {
			return nil, err
		}
		batch, err := common.ToInt64(row["batch"])
		if err != nil {
			return nil, err
		}
		am := appliedMigration{id: id, name: fmt.Sprint(row["name"]), batch: int(batch)}
		if t, ok := row["applied_at"].(time.Time); ok {
			am.appliedAt = &t
		}
		applied = append(applied, am)
	}
	return applied, nil
}

// Migrate runs every pending migration as one new batch and returns the
// names it applied.
func (r *Runner) Migrate(ctx context.Context) ([]string, error) {
	if err := r.createMigrationsTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := r.getAppliedMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	done := make(map[string]bool, len(applied))
	batch := 0
	for _, am := range applied {
		done[am.name] = true
		if am.batch > batch {
			batch = am.batch
		}
	}
	batch++

	var ran []string
	for _, m := range r.migrations {
		if done[m.Name()] {
			continue
		}
		if err := r.applySingleMigration(ctx, m, batch); err != nil {
			return ran, fmt.Errorf("failed to apply migration %s: %w", m.Name(), err)
		}
		ran = append(ran, m.Name())
	}

	if len(ran) == 0 {
		r.schema.logger.Info("no pending migrations")
	}
	return ran, nil
}

func (r *Runner) applySingleMigration(ctx context.Context, m Migration, batch int) error {
	r.schema.logger.Infow("applying migration", "migration", m.Name(), "batch", batch)
	if err := Execute(ctx, m, r.schema, Up); err != nil {
		return err
	}

	store := r.schema.store
	query, args, err := store.Builder().
		Insert(r.table).
		Columns("name", "batch", "applied_at").
		Values(m.Name(), batch, time.Now().UTC()).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := store.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return nil
}

// Rollback reverts migrations in reverse order. steps <= 0 reverts the
// latest batch; otherwise the last steps migrations.
func (r *Runner) Rollback(ctx context.Context, steps int) ([]string, error) {
	if err := r.createMigrationsTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := r.getAppliedMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	if len(applied) == 0 {
		r.schema.logger.Info("nothing to roll back")
		return nil, nil
	}

	var targets []appliedMigration
	if steps <= 0 {
		latest := applied[len(applied)-1].batch
		for i := len(applied) - 1; i >= 0 && applied[i].batch == latest; i-- {
			targets = append(targets, applied[i])
		}
	} else {
		for i := len(applied) - 1; i >= 0 && len(targets) < steps; i-- {
			targets = append(targets, applied[i])
		}
	}

	var reverted []string
	for _, am := range targets {
		if err := r.revertSingleMigration(ctx, am); err != nil {
			return reverted, fmt.Errorf("failed to roll back migration %s: %w", am.name, err)
		}
		reverted = append(reverted, am.name)
	}
	return reverted, nil
}

func (r *Runner) revertSingleMigration(ctx context.Context, am appliedMigration) error {
	m, ok := r.byName[am.name]
	if !ok {
		return fmt.Errorf("migration %s is recorded but not registered", am.name)
	}

	r.schema.logger.Infow("rolling back migration", "migration", am.name, "batch", am.batch)
	if err := Execute(ctx, m, r.schema, Down); err != nil {
		return err
	}

	store := r.schema.store
	query, args, err := store.Builder().Delete(r.table).Where(squirrel.Eq{"id": am.id}).ToSql()
	if err != nil {
		return err
	}
	if _, err := store.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to remove migration record: %w", err)
	}
	return nil
}

// Reset rolls back every applied migration.
func (r *Runner) Reset(ctx context.Context) ([]string, error) {
	applied, err := r.Status(ctx)
	if err != nil {
		return nil, err
	}
	if applied.AppliedMigrations == 0 {
		return nil, nil
	}
	return r.Rollback(ctx, applied.AppliedMigrations)
}

func (r *Runner) Status(ctx context.Context) (*types.MigrationStatus, error) {
	if err := r.createMigrationsTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := r.getAppliedMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	byName := make(map[string]appliedMigration, len(applied))
	for _, am := range applied {
		byName[am.name] = am
	}

	status := &types.MigrationStatus{TotalMigrations: len(r.migrations)}
	for i, m := range r.migrations {
		item := types.MigrationStatusItem{ID: fmt.Sprintf("%04d", i+1), Name: m.Name(), Status: "pending"}
		if am, ok := byName[m.Name()]; ok {
			item.Status = "applied"
			item.Batch = am.batch
			item.AppliedAt = am.appliedAt
			status.AppliedMigrations++
		} else {
			status.PendingMigrations++
		}
		status.Migrations = append(status.Migrations, item)
	}
	return status, nil
}
