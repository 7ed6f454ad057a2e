package schema

import (
	"context"
	"fmt"

	"github.com/Rana718/quarry/internal/errs"
)

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Migration is one reversible schema change.
type Migration interface {
	Name() string
	Up(ctx context.Context, s *Schema) error
	Down(ctx context.Context, s *Schema) error
}

type funcMigration struct {
	name string
	up   func(context.Context, *Schema) error
	down func(context.Context, *Schema) error
}

// NewMigration builds a Migration from two functions. A nil down makes the
// migration irreversible.
func NewMigration(name string, up, down func(context.Context, *Schema) error) Migration {
	return &funcMigration{name: name, up: up, down: down}
}

func (m *funcMigration) Name() string { return m.name }

func (m *funcMigration) Up(ctx context.Context, s *Schema) error {
	if m.up == nil {
		return nil
	}
	return m.up(ctx, s)
}

func (m *funcMigration) Down(ctx context.Context, s *Schema) error {
	if m.down == nil {
		return fmt.Errorf("migration %s cannot be rolled back", m.name)
	}
	return m.down(ctx, s)
}

// Execute runs m in the given direction.
func Execute(ctx context.Context, m Migration, s *Schema, dir Direction) error {
	switch dir {
	case Up:
		return m.Up(ctx, s)
	case Down:
		return m.Down(ctx, s)
	default:
		return fmt.Errorf("%w %q for migration %s", errs.ErrUnknownDirection, dir, m.Name())
	}
}

// CreateTable is the common migration shape: up creates the definition's
// table, down drops it.
func CreateTable(name string, def *Definition) Migration {
	return NewMigration(name,
		func(ctx context.Context, s *Schema) error { return s.CreateFrom(ctx, def) },
		func(ctx context.Context, s *Schema) error { return s.DropIfExists(ctx, def.Name) },
	)
}
