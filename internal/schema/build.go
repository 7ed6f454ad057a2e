package schema

import (
	"context"
	"fmt"

	"github.com/Rana718/quarry/internal/database"
	"github.com/Rana718/quarry/internal/database/common"
	"github.com/Rana718/quarry/internal/errs"
)

// stage is one ordered step of a build. op names the step in execution
// errors, e.g. "add index".
type stage struct {
	op         string
	statements []string
}

// Build compiles the blueprint and applies it in strict order: the table,
// then indexes, then foreign keys. Stores with transactional DDL run the
// whole build in one transaction; on other stores earlier stages stay
// applied when a later one fails.
func (b *Blueprint) Build(ctx context.Context, store database.DatabaseAdapter) error {
	if b.err != nil {
		return b.err
	}

	stages, err := b.compile(store)
	if err != nil {
		return err
	}

	run := func(exec database.Executor) error {
		for _, st := range stages {
			for _, stmt := range st.statements {
				for _, part := range common.ParseSQLStatements(stmt) {
					b.logger.Debugw("executing ddl", "table", b.table, "op", st.op, "sql", part)
					if _, err := exec.Exec(ctx, part); err != nil {
						return errs.Execution(st.op, b.table, err)
					}
				}
			}
		}
		return nil
	}

	if store.SupportsTransactionalDDL() {
		return store.WithTx(ctx, run)
	}

	b.logger.Debugw("store has no transactional DDL, stages are not rolled back on failure",
		"table", b.table, "provider", store.Provider())
	return run(store)
}

func (b *Blueprint) compile(d database.Dialect) ([]stage, error) {
	if b.mode == modeCreate {
		return b.compileCreate(d)
	}
	return b.compileAlter(d)
}

func (b *Blueprint) compileCreate(d database.Dialect) ([]stage, error) {
	if b.primary == "" {
		return nil, b.fail("", "table has no primary key")
	}

	table := b.Table()
	createSQL, err := d.GenerateCreateTableSQL(table)
	if err != nil {
		return nil, withTable(err, b.table)
	}

	stages := []stage{{op: "create table", statements: []string{createSQL}}}

	indexes := stage{op: "add index"}
	for _, idx := range table.Indexes {
		indexes.statements = append(indexes.statements, d.GenerateAddIndexSQL(idx))
	}
	stages = append(stages, indexes)

	if !d.InlineForeignKeys() {
		fks := stage{op: "add foreign key"}
		for _, fk := range table.ForeignKeys {
			fks.statements = append(fks.statements, d.GenerateAddForeignKeySQL(fk))
		}
		stages = append(stages, fks)
	}
	return stages, nil
}

func (b *Blueprint) compileAlter(d database.Dialect) ([]stage, error) {
	table := b.Table()

	dropFKs := stage{op: "drop foreign key"}
	for _, name := range b.dropForeign {
		stmt := d.GenerateDropForeignKeySQL(b.table, name)
		if stmt == "" {
			return nil, b.fail("", "%s cannot drop foreign key %q from an existing table", d.Provider(), name)
		}
		dropFKs.statements = append(dropFKs.statements, stmt)
	}

	dropIndexes := stage{op: "drop index"}
	for _, name := range b.dropIndexes {
		dropIndexes.statements = append(dropIndexes.statements, d.GenerateDropIndexSQL(b.table, name))
	}

	addColumns := stage{op: "add column"}
	for _, col := range table.Columns {
		stmt, err := d.GenerateAddColumnSQL(b.table, col)
		if err != nil {
			return nil, withTable(err, b.table)
		}
		addColumns.statements = append(addColumns.statements, stmt)
	}

	dropColumns := stage{op: "drop column"}
	for _, name := range b.dropColumns {
		dropColumns.statements = append(dropColumns.statements, d.GenerateDropColumnSQL(b.table, name))
	}

	addIndexes := stage{op: "add index"}
	for _, idx := range table.Indexes {
		addIndexes.statements = append(addIndexes.statements, d.GenerateAddIndexSQL(idx))
	}

	addFKs := stage{op: "add foreign key"}
	for _, fk := range table.ForeignKeys {
		if d.InlineForeignKeys() {
			// Inline references are emitted with ADD COLUMN.
			if _, added := b.byName[fk.Column]; !added {
				return nil, b.fail(fk.Column, "%s cannot add a foreign key to an existing column", d.Provider())
			}
			continue
		}
		addFKs.statements = append(addFKs.statements, d.GenerateAddForeignKeySQL(fk))
	}

	return []stage{dropFKs, dropIndexes, addColumns, dropColumns, addIndexes, addFKs}, nil
}

// withTable fills in the table on construction errors raised by the catalog.
func withTable(err error, table string) error {
	if ce, ok := err.(*errs.ConstructionError); ok && ce.Table == "" {
		return &errs.ConstructionError{Table: table, Column: ce.Column, Reason: ce.Reason}
	}
	return fmt.Errorf("failed to compile %s: %w", table, err)
}
