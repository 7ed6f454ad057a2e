package common

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
)

type sqlRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLExecutor implements Executor over database/sql, for both *sql.DB and
// *sql.Tx. The sqlite and mysql adapters embed it.
type SQLExecutor struct {
	runner sqlRunner
	qb     squirrel.StatementBuilderType
}

func NewSQLExecutor(runner sqlRunner, qb squirrel.StatementBuilderType) *SQLExecutor {
	return &SQLExecutor{runner: runner, qb: qb}
}

func (e *SQLExecutor) Builder() squirrel.StatementBuilderType {
	return e.qb
}

func (e *SQLExecutor) Exec(ctx context.Context, query string, args ...any) (ExecResult, error) {
	if e.runner == nil {
		return ExecResult{}, fmt.Errorf("database connection not established")
	}
	res, err := e.runner.ExecContext(ctx, query, args...)
	if err != nil {
		return ExecResult{}, err
	}

	var out ExecResult
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	if id, err := res.LastInsertId(); err == nil {
		out.LastInsertID = id
	}
	return out, nil
}

func (e *SQLExecutor) Query(ctx context.Context, query string, args ...any) (*QueryResult, error) {
	if e.runner == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	rows, err := e.runner.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	results := []map[string]interface{}{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range columns {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &QueryResult{Columns: columns, Rows: results}, nil
}

// InsertReturning inserts record and returns its primary key: the supplied
// value when the record carries one, the driver's last insert id otherwise.
func (e *SQLExecutor) InsertReturning(ctx context.Context, table, pk string, record map[string]any) (any, error) {
	query, args, err := e.qb.Insert(table).SetMap(record).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert for %s: %w", table, err)
	}

	res, err := e.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	if id, ok := record[pk]; ok && id != nil {
		return id, nil
	}
	return res.LastInsertID, nil
}
