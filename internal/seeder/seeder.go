// Package seeder runs dependency-ordered seeders over duplicate-aware inserts.
package seeder

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rana718/quarry/internal/database"
	"github.com/Rana718/quarry/internal/database/common"
	"github.com/Rana718/quarry/internal/factory"
	"github.com/Rana718/quarry/internal/model"
	"github.com/fatih/color"
	"go.uber.org/zap"
)

// Seeder is one unit of seed data.
type Seeder interface {
	Name() string
	Run(ctx context.Context, env *Env) error
}

// Dependent seeders run after the seeders they name.
type Dependent interface {
	DependsOn() []string
}

// TableOwner seeders name the tables a truncating run clears.
type TableOwner interface {
	Tables() []string
}

// Func adapts a function into a Seeder.
type Func struct {
	ID        string
	Requires  []string
	Truncates []string
	Fn        func(ctx context.Context, env *Env) error
}

func (f Func) Name() string                            { return f.ID }
func (f Func) DependsOn() []string                     { return f.Requires }
func (f Func) Tables() []string                        { return f.Truncates }
func (f Func) Run(ctx context.Context, env *Env) error { return f.Fn(ctx, env) }

// Env is what a seeder works with during one run.
type Env struct {
	Exec      common.Executor
	Ops       *Operations
	Models    *model.Registry
	Factories *factory.Registry
	Defaults  InsertOptions
	Logger    *zap.SugaredLogger
}

func (e *Env) Insert(ctx context.Context, table string, records []map[string]any, uniqueFields ...string) (*InsertResult, error) {
	opts := e.Defaults
	opts.UniqueFields = uniqueFields
	return e.Ops.SafeInsert(ctx, table, records, opts)
}

type Runner struct {
	store     database.DatabaseAdapter
	seeders   map[string]Seeder
	graph     *DependencyGraph
	models    *model.Registry
	factories *factory.Registry
	defaults  InsertOptions
	logger    *zap.SugaredLogger
}

type RunnerOption func(*Runner)

func WithLogger(logger *zap.SugaredLogger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithModels(models *model.Registry) RunnerOption {
	return func(r *Runner) { r.models = models }
}

func WithFactories(factories *factory.Registry) RunnerOption {
	return func(r *Runner) { r.factories = factories }
}

// WithInsertDefaults sets the options Env.Insert starts from.
func WithInsertDefaults(opts InsertOptions) RunnerOption {
	return func(r *Runner) { r.defaults = opts }
}

func NewRunner(store database.DatabaseAdapter, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:   store,
		seeders: make(map[string]Seeder),
		graph:   NewDependencyGraph(),
		logger:  zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) Register(seeders ...Seeder) error {
	for _, s := range seeders {
		name := s.Name()
		if name == "" {
			return fmt.Errorf("seeder needs a name")
		}
		if _, exists := r.seeders[name]; exists {
			return fmt.Errorf("seeder %s registered twice", name)
		}
		r.seeders[name] = s

		var deps []string
		if d, ok := s.(Dependent); ok {
			deps = d.DependsOn()
		}
		r.graph.Add(name, deps...)
	}
	return nil
}

func (r *Runner) Order(only ...string) ([]string, error) {
	return r.graph.BuildOrder(only...)
}

func (r *Runner) Run(ctx context.Context, opts Options) error {
	color.Cyan("🌱 Starting database seeding...")

	order, err := r.Order(opts.Only...)
	if err != nil {
		return fmt.Errorf("failed to build seeding order: %w", err)
	}
	if len(order) == 0 {
		color.Yellow("⚠️  No seeders registered")
		return nil
	}
	color.Cyan("📋 Seeding order: %s", strings.Join(order, " → "))
	fmt.Println()

	if opts.Truncate {
		// Dependencies pulled in by Only keep their rows.
		scope := order
		if len(opts.Only) > 0 {
			scope = opts.Only
		}
		var tables []string
		for _, name := range scope {
			if owner, ok := r.seeders[name].(TableOwner); ok {
				tables = append(tables, owner.Tables()...)
			}
		}
		if err := Truncate(ctx, r.store, tables); err != nil {
			if !opts.Force {
				return fmt.Errorf("failed to truncate tables: %w (use --force to continue)", err)
			}
			color.Yellow("⚠️  Truncate failed but continuing with --force: %v", err)
		}
	}

	env := &Env{
		Exec:      r.store,
		Ops:       NewOperations(r.store, WithOperationsLogger(r.logger)),
		Models:    r.models,
		Factories: r.factories,
		Defaults:  r.defaults.withDefaults(),
		Logger:    r.logger,
	}

	for _, name := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.logger.Debugw("running seeder", "seeder", name)
		if err := r.seeders[name].Run(ctx, env); err != nil {
			if !opts.Force {
				return fmt.Errorf("failed to run seeder %s: %w", name, err)
			}
			color.Yellow("⚠️  Seeder %s failed but continuing with --force: %v", name, err)
			continue
		}
		color.Green("  ✅ %s", name)
	}

	color.Green("\n✅ Database seeding completed successfully!")
	return nil
}
