package schema

import (
	"strings"

	"github.com/Rana718/quarry/internal/types"
	"github.com/jinzhu/inflection"
)

// Referential actions accepted by OnDelete / OnUpdate.
const (
	Cascade    = "CASCADE"
	Restrict   = "RESTRICT"
	SetNull    = "SET NULL"
	NoAction   = "NO ACTION"
	SetDefault = "SET DEFAULT"
)

// ColumnBuilder modifies the column it was returned for.
type ColumnBuilder struct {
	bp  *Blueprint
	col *types.SchemaColumn
}

// Definition returns a copy of the column as currently declared.
func (c *ColumnBuilder) Definition() types.SchemaColumn { return *c.col }

func (c *ColumnBuilder) Nullable() *ColumnBuilder {
	if c.col.IsPrimary {
		c.bp.fail(c.col.Name, "primary key cannot be nullable")
		return c
	}
	c.col.Nullable = true
	return c
}

func (c *ColumnBuilder) NotNullable() *ColumnBuilder {
	c.col.Nullable = false
	return c
}

func (c *ColumnBuilder) Default(v any) *ColumnBuilder {
	c.col.HasDefault = true
	c.col.Default = v
	c.col.DefaultRaw = false
	return c
}

// DefaultRaw sets a default rendered verbatim, such as CURRENT_TIMESTAMP.
func (c *ColumnBuilder) DefaultRaw(expr string) *ColumnBuilder {
	c.col.HasDefault = true
	c.col.Default = expr
	c.col.DefaultRaw = true
	return c
}

// Unique marks the column unique and registers a named unique index for it.
func (c *ColumnBuilder) Unique() *ColumnBuilder {
	c.col.IsUnique = true
	c.bp.UniqueIndex([]string{c.col.Name})
	return c
}

func (c *ColumnBuilder) Index(name ...string) *ColumnBuilder {
	c.bp.Index([]string{c.col.Name}, name...)
	return c
}

func (c *ColumnBuilder) Primary() *ColumnBuilder {
	c.bp.setPrimary(c.col)
	return c
}

func (c *ColumnBuilder) Comment(text string) *ColumnBuilder {
	c.col.Comment = text
	return c
}

// After places an added column after another. Only honoured on ALTER by
// stores that support column ordering.
func (c *ColumnBuilder) After(column string) *ColumnBuilder {
	c.col.After = column
	c.col.First = false
	return c
}

func (c *ColumnBuilder) First() *ColumnBuilder {
	c.col.First = true
	c.col.After = ""
	return c
}

func (c *ColumnBuilder) Unsigned() *ColumnBuilder {
	c.col.Unsigned = true
	return c
}

// ForeignKeyBuilder is returned by ForeignID. The constraint is registered on
// the blueprint at References or Constrained; settings made earlier are kept
// and applied then.
type ForeignKeyBuilder struct {
	col      *ColumnBuilder
	index    int
	refTable string
	refCol   string
	onDelete string
	onUpdate string
	name     string
}

func (f *ForeignKeyBuilder) Column() *ColumnBuilder { return f.col }

// References registers the constraint against table(column).
func (f *ForeignKeyBuilder) References(table, column string) *ForeignKeyBuilder {
	if table == "" {
		f.col.bp.fail(f.col.col.Name, "foreign key needs a referenced table")
		return f
	}
	if column == "" {
		column = "id"
	}
	f.refTable, f.refCol = table, column
	f.register()
	return f
}

// On changes the referenced table, keeping the referenced column.
func (f *ForeignKeyBuilder) On(table string) *ForeignKeyBuilder {
	if f.index < 0 {
		return f.References(table, f.refCol)
	}
	f.refTable = table
	f.sync()
	return f
}

// Constrained references the table inferred from the column name, so
// "user_id" references users(id).
func (f *ForeignKeyBuilder) Constrained(table ...string) *ForeignKeyBuilder {
	target := ""
	if len(table) > 0 && table[0] != "" {
		target = table[0]
	} else {
		target = inflection.Plural(strings.TrimSuffix(f.col.col.Name, "_id"))
	}
	return f.References(target, "id")
}

func (f *ForeignKeyBuilder) OnDelete(action string) *ForeignKeyBuilder {
	f.onDelete = strings.ToUpper(action)
	f.sync()
	return f
}

func (f *ForeignKeyBuilder) OnUpdate(action string) *ForeignKeyBuilder {
	f.onUpdate = strings.ToUpper(action)
	f.sync()
	return f
}

// Cascade cascades both deletes and updates.
func (f *ForeignKeyBuilder) Cascade() *ForeignKeyBuilder {
	f.onDelete, f.onUpdate = Cascade, Cascade
	f.sync()
	return f
}

func (f *ForeignKeyBuilder) Restrict() *ForeignKeyBuilder {
	f.onDelete, f.onUpdate = Restrict, Restrict
	f.sync()
	return f
}

// NullOnDelete sets the column to NULL when the parent row is deleted, which
// also makes the column nullable.
func (f *ForeignKeyBuilder) NullOnDelete() *ForeignKeyBuilder {
	f.col.col.Nullable = true
	f.onDelete = SetNull
	f.sync()
	return f
}

func (f *ForeignKeyBuilder) ConstraintName(name string) *ForeignKeyBuilder {
	f.name = name
	f.sync()
	return f
}

func (f *ForeignKeyBuilder) Nullable() *ForeignKeyBuilder {
	f.col.Nullable()
	return f
}

func (f *ForeignKeyBuilder) Default(v any) *ForeignKeyBuilder {
	f.col.Default(v)
	return f
}

func (f *ForeignKeyBuilder) Index(name ...string) *ForeignKeyBuilder {
	f.col.Index(name...)
	return f
}

func (f *ForeignKeyBuilder) Unique() *ForeignKeyBuilder {
	f.col.Unique()
	return f
}

func (f *ForeignKeyBuilder) Comment(text string) *ForeignKeyBuilder {
	f.col.Comment(text)
	return f
}

func (f *ForeignKeyBuilder) After(column string) *ForeignKeyBuilder {
	f.col.After(column)
	return f
}

func (f *ForeignKeyBuilder) register() {
	bp := f.col.bp
	if f.index >= 0 {
		f.sync()
		return
	}
	bp.foreignKeys = append(bp.foreignKeys, types.ForeignKey{})
	f.index = len(bp.foreignKeys) - 1
	f.sync()
}

// sync copies the builder state onto the registered constraint and the
// column's inline reference. It is a no-op before registration.
func (f *ForeignKeyBuilder) sync() {
	if f.index < 0 {
		return
	}
	bp := f.col.bp
	col := f.col.col

	name := f.name
	if name == "" {
		name = "fk_" + bp.table + "_" + col.Name
	}
	bp.foreignKeys[f.index] = types.ForeignKey{
		Name:      name,
		Table:     bp.table,
		Column:    col.Name,
		RefTable:  f.refTable,
		RefColumn: f.refCol,
		OnDelete:  f.onDelete,
		OnUpdate:  f.onUpdate,
	}

	col.ForeignKeyTable = f.refTable
	col.ForeignKeyColumn = f.refCol
	col.OnDeleteAction = f.onDelete
	col.OnUpdateAction = f.onUpdate
}
