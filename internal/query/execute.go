package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/quarry/internal/database/common"
	"github.com/Rana718/quarry/internal/errs"
	"github.com/Rana718/quarry/internal/types"
)

func (b *Builder) ready() error {
	if b.err != nil {
		return b.err
	}
	if b.exec == nil {
		return fmt.Errorf("query on %s has no executor", b.table)
	}
	return nil
}

// Get runs the select and eager loads any included relations.
func (b *Builder) Get(ctx context.Context) ([]types.Record, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}
	if err := b.checkIncludes(); err != nil {
		return nil, err
	}

	query, args, err := b.selectBuilder().ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query for %s: %w", b.table, err)
	}

	records, err := b.fetch(ctx, query, args)
	if err != nil {
		return nil, err
	}

	if len(b.includes) > 0 && len(records) > 0 {
		if err := b.eagerLoad(ctx, records); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// Execute is Get under the name used by call sites that only run the chain.
func (b *Builder) Execute(ctx context.Context) ([]types.Record, error) {
	return b.Get(ctx)
}

func (b *Builder) All(ctx context.Context) ([]types.Record, error) {
	return b.Get(ctx)
}

// First returns the first matching row or errs.ErrNotFound.
func (b *Builder) First(ctx context.Context) (types.Record, error) {
	records, err := b.Limit(1).Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", b.table, errs.ErrNotFound)
	}
	return records[0], nil
}

// Count ignores ordering and pagination.
func (b *Builder) Count(ctx context.Context) (int64, error) {
	return b.count(ctx, "COUNT(*)")
}

func (b *Builder) CountDistinct(ctx context.Context, field string) (int64, error) {
	if err := validField(field); err != nil {
		return 0, err
	}
	return b.count(ctx, fmt.Sprintf("COUNT(DISTINCT %s)", field))
}

func (b *Builder) count(ctx context.Context, expr string) (int64, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}

	sb := b.applyWhere(b.exec.Builder().Select(expr + " AS aggregate").From(b.table))
	query, args, err := sb.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count for %s: %w", b.table, err)
	}

	records, err := b.fetch(ctx, query, args)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	return common.ToInt64(records[0]["aggregate"])
}

func (b *Builder) Exists(ctx context.Context) (bool, error) {
	if err := b.ready(); err != nil {
		return false, err
	}

	sb := b.applyWhere(b.exec.Builder().Select("1").From(b.table)).Limit(1)
	query, args, err := sb.ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build exists for %s: %w", b.table, err)
	}

	records, err := b.fetch(ctx, query, args)
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}

// Delete removes every matching row and returns the number removed.
func (b *Builder) Delete(ctx context.Context) (int64, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}

	db := b.exec.Builder().Delete(b.table)
	for _, cond := range b.where {
		db = db.Where(cond)
	}
	query, args, err := db.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete for %s: %w", b.table, err)
	}
	if len(b.where) == 0 {
		b.logger.Warnw("deleting without conditions", "table", b.table)
	}

	res, err := b.run(ctx, "delete", query, args)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

// Update sets values on every matching row and returns the number changed.
func (b *Builder) Update(ctx context.Context, values map[string]any) (int64, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("update %s: no values", b.table)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		if err := validField(k); err != nil {
			return 0, err
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ub := b.exec.Builder().Update(b.table)
	for _, k := range keys {
		ub = ub.Set(k, values[k])
	}
	for _, cond := range b.where {
		ub = ub.Where(cond)
	}
	query, args, err := ub.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build update for %s: %w", b.table, err)
	}

	res, err := b.run(ctx, "update", query, args)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

// Insert writes one record and returns its primary key value.
func (b *Builder) Insert(ctx context.Context, record map[string]any) (any, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}
	for k := range record {
		if err := validField(k); err != nil {
			return nil, err
		}
	}

	b.logger.Debugw("inserting record", "table", b.table)
	id, err := b.exec.InsertReturning(ctx, b.table, b.meta.PrimaryKey, record)
	if err != nil {
		return nil, errs.Execution("insert into", b.table, err)
	}
	return id, nil
}

func (b *Builder) fetch(ctx context.Context, query string, args []any) ([]types.Record, error) {
	b.logger.Debugw("executing query", "table", b.table, "sql", query, "args", args)
	res, err := b.exec.Query(ctx, query, args...)
	if err != nil {
		return nil, errs.Execution("query", b.table, err)
	}

	records := make([]types.Record, len(res.Rows))
	for i, row := range res.Rows {
		records[i] = types.Record(row)
	}
	return records, nil
}

func (b *Builder) run(ctx context.Context, op, query string, args []any) (common.ExecResult, error) {
	b.logger.Debugw("executing statement", "table", b.table, "sql", query, "args", args)
	res, err := b.exec.Exec(ctx, query, args...)
	if err != nil {
		return res, errs.Execution(op, b.table, err)
	}
	return res, nil
}

// keyed is a select restricted to key IN values, used by eager loading.
func (b *Builder) keyed(table string, fields []string, key string, values []any) squirrel.SelectBuilder {
	cols := fields
	if len(cols) == 0 {
		cols = []string{"*"}
	}
	return b.exec.Builder().Select(cols...).From(table).Where(squirrel.Eq{key: values})
}
