// Package schema declares tables with blueprints and applies them, either
// directly through Schema or as ordered, tracked migrations.
package schema

import (
	"context"
	"fmt"

	"github.com/Rana718/quarry/internal/database"
	"github.com/Rana718/quarry/internal/database/common"
	"github.com/Rana718/quarry/internal/errs"
	"go.uber.org/zap"
)

type Schema struct {
	store  database.DatabaseAdapter
	logger *zap.SugaredLogger
}

type Option func(*Schema)

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Schema) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(store database.DatabaseAdapter, opts ...Option) *Schema {
	s := &Schema{store: store, logger: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Schema) Store() database.DatabaseAdapter { return s.store }

func (s *Schema) Logger() *zap.SugaredLogger { return s.logger }

// Create declares a new table through fn and builds it.
func (s *Schema) Create(ctx context.Context, name string, fn func(*Blueprint)) error {
	if err := common.ValidateIdentifiers(name); err != nil {
		return err
	}
	bp := newBlueprint(name, modeCreate, s.logger)
	fn(bp)
	if err := bp.Build(ctx, s.store); err != nil {
		return err
	}
	s.logger.Infow("created table", "table", name)
	return nil
}

// CreateFrom builds a table from a shared definition.
func (s *Schema) CreateFrom(ctx context.Context, def *Definition) error {
	return s.Create(ctx, def.Name, def.fn)
}

// Table alters an existing table: added columns, index and foreign key
// changes, dropped columns.
func (s *Schema) Table(ctx context.Context, name string, fn func(*Blueprint)) error {
	if err := common.ValidateIdentifiers(name); err != nil {
		return err
	}
	bp := newBlueprint(name, modeAlter, s.logger)
	fn(bp)
	if err := bp.Build(ctx, s.store); err != nil {
		return err
	}
	s.logger.Infow("altered table", "table", name)
	return nil
}

// Drop removes a table without IF EXISTS. A not-found failure from the
// store is still swallowed.
func (s *Schema) Drop(ctx context.Context, name string) error {
	return s.drop(ctx, name, false)
}

// DropIfExists removes a table with IF EXISTS. Not-found failures are
// swallowed as well, for stores that still report them.
func (s *Schema) DropIfExists(ctx context.Context, name string) error {
	return s.drop(ctx, name, true)
}

func (s *Schema) drop(ctx context.Context, name string, ifExists bool) error {
	if err := common.ValidateIdentifiers(name); err != nil {
		return err
	}
	_, err := s.store.Exec(ctx, s.store.GenerateDropTableSQL(name, ifExists))
	if err == nil {
		s.logger.Infow("dropped table", "table", name)
		return nil
	}
	if s.isNotFound(err) {
		s.logger.Debugw("table already absent", "table", name)
		return nil
	}
	return errs.Execution("drop table", name, err)
}

// HasTable probes the table with a describe call. Only not-found failures
// mean false; any other failure is returned.
func (s *Schema) HasTable(ctx context.Context, name string) (bool, error) {
	_, err := s.store.DescribeTable(ctx, name)
	if err == nil {
		return true, nil
	}
	if s.isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to describe table %s: %w", name, err)
}

func (s *Schema) HasColumn(ctx context.Context, table, column string) (bool, error) {
	cols, err := s.store.DescribeTable(ctx, table)
	if err != nil {
		if s.isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to describe table %s: %w", table, err)
	}
	for _, c := range cols {
		if c.Name == column {
			return true, nil
		}
	}
	return false, nil
}

func (s *Schema) Rename(ctx context.Context, from, to string) error {
	if err := common.ValidateIdentifiers(from, to); err != nil {
		return err
	}
	if _, err := s.store.Exec(ctx, s.store.GenerateRenameTableSQL(from, to)); err != nil {
		return errs.Execution("rename table", from, err)
	}
	s.logger.Infow("renamed table", "from", from, "to", to)
	return nil
}

// Raw executes a hand-written script statement by statement.
func (s *Schema) Raw(ctx context.Context, script string) error {
	for i, stmt := range common.ParseSQLStatements(script) {
		if _, err := s.store.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute statement %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *Schema) isNotFound(err error) bool {
	return s.store.IsTableNotFound(err) || errs.IsNotFound(err)
}
