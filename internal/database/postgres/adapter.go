package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/quarry/internal/catalog"
	"github.com/Rana718/quarry/internal/database/common"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	codeUndefinedTable  = "42P01"
	codeUniqueViolation = "23505"
)

// pgRunner is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgRunner interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type executor struct {
	runner pgRunner
	qb     squirrel.StatementBuilderType
}

type Adapter struct {
	*executor
	pool    *pgxpool.Pool
	catalog *catalog.Catalog
}

func New() *Adapter {
	return &Adapter{
		executor: &executor{qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)},
		catalog:  catalog.ForProvider("postgres"),
	}
}

func (p *Adapter) Connect(ctx context.Context, url string) error {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return fmt.Errorf("failed to parse connection URL: %w", err)
	}

	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	config.MaxConns = 4
	config.MinConns = 0
	config.MaxConnLifetime = 15 * time.Minute
	config.MaxConnIdleTime = 3 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	p.pool = pool
	p.executor.runner = pool
	return nil
}

func (p *Adapter) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Adapter) Ping(ctx context.Context) error {
	if p.pool == nil {
		return fmt.Errorf("database connection not established")
	}
	return p.pool.Ping(ctx)
}

func (p *Adapter) Provider() string { return "postgres" }

func (p *Adapter) Catalog() *catalog.Catalog { return p.catalog }

func (p *Adapter) SupportsTransactionalDDL() bool { return true }

func (p *Adapter) InlineForeignKeys() bool { return false }

func (p *Adapter) WithTx(ctx context.Context, fn func(tx common.Executor) error) error {
	if p.pool == nil {
		return fmt.Errorf("database connection not established")
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&executor{runner: tx, qb: p.qb}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (p *Adapter) IsTableNotFound(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUndefinedTable
}

func (p *Adapter) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

func (e *executor) Builder() squirrel.StatementBuilderType {
	return e.qb
}

func (e *executor) Exec(ctx context.Context, query string, args ...any) (common.ExecResult, error) {
	if e.runner == nil {
		return common.ExecResult{}, fmt.Errorf("database connection not established")
	}
	tag, err := e.runner.Exec(ctx, query, args...)
	if err != nil {
		return common.ExecResult{}, err
	}
	return common.ExecResult{RowsAffected: tag.RowsAffected()}, nil
}

func (e *executor) Query(ctx context.Context, query string, args ...any) (*common.QueryResult, error) {
	if e.runner == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	rows, err := e.runner.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescriptions := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescriptions))
	for i, fd := range fieldDescriptions {
		columns[i] = string(fd.Name)
	}

	results := []map[string]interface{}{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &common.QueryResult{Columns: columns, Rows: results}, nil
}

func (e *executor) InsertReturning(ctx context.Context, table, pk string, record map[string]any) (any, error) {
	query, args, err := e.qb.Insert(table).SetMap(record).Suffix("RETURNING " + quoteIdent(pk)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert for %s: %w", table, err)
	}
	if e.runner == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	var id any
	if err := e.runner.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return nil, err
	}
	return normalizeValue(id), nil
}

// normalizeValue turns pgx's uuid and numeric representations into plain
// values callers can compare and re-bind.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case [16]byte:
		return uuid.UUID(val).String()
	case driver.Valuer:
		out, err := val.Value()
		if err != nil {
			return v
		}
		return out
	default:
		return v
	}
}
