package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/quarry/internal/catalog"
	"github.com/Rana718/quarry/internal/database/common"
	"github.com/go-sql-driver/mysql"
)

const (
	errNoSuchTable   = 1146
	errUnknownTable  = 1051
	errDuplicateKey  = 1062
	errDuplicateUniq = 1586
)

type Adapter struct {
	*common.SQLExecutor
	db      *sql.DB
	qb      squirrel.StatementBuilderType
	catalog *catalog.Catalog
}

func New() *Adapter {
	qb := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)
	return &Adapter{
		SQLExecutor: common.NewSQLExecutor(nil, qb),
		qb:          qb,
		catalog:     catalog.ForProvider("mysql"),
	}
}

// NewWithDB wraps an already opened handle.
func NewWithDB(db *sql.DB) *Adapter {
	m := New()
	m.db = db
	m.SQLExecutor = common.NewSQLExecutor(db, m.qb)
	return m
}

// Connect accepts either a driver DSN or a mysql:// URL.
func (m *Adapter) Connect(ctx context.Context, url string) error {
	dsn, err := normalizeDSN(url)
	if err != nil {
		return err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open MySQL connection: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)

	m.db = db
	m.SQLExecutor = common.NewSQLExecutor(db, m.qb)
	return nil
}

func normalizeDSN(url string) (string, error) {
	dsn := url
	if strings.HasPrefix(url, "mysql://") {
		dsn = strings.TrimPrefix(url, "mysql://")

		if atIndex := strings.LastIndex(dsn, "@"); atIndex > 0 {
			credentials := dsn[:atIndex]
			remainder := dsn[atIndex+1:]

			if slashIndex := strings.Index(remainder, "/"); slashIndex > 0 {
				hostPort := remainder[:slashIndex]
				dbAndParams := remainder[slashIndex+1:]

				dbAndParams = strings.ReplaceAll(dbAndParams, "ssl-mode=REQUIRED", "tls=skip-verify")
				dbAndParams = strings.ReplaceAll(dbAndParams, "ssl-mode=DISABLED", "tls=false")
				dbAndParams = strings.ReplaceAll(dbAndParams, "sslmode=require", "tls=skip-verify")
				dbAndParams = strings.ReplaceAll(dbAndParams, "sslmode=disable", "tls=false")

				dsn = fmt.Sprintf("%s@tcp(%s)/%s", credentials, hostPort, dbAndParams)
			}
		}
	}

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("failed to parse MySQL DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.MultiStatements = false
	return cfg.FormatDSN(), nil
}

func (m *Adapter) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

func (m *Adapter) Ping(ctx context.Context) error {
	if m.db == nil {
		return fmt.Errorf("database connection not established")
	}
	return m.db.PingContext(ctx)
}

func (m *Adapter) Provider() string { return "mysql" }

func (m *Adapter) Catalog() *catalog.Catalog { return m.catalog }

// SupportsTransactionalDDL is false: mysql commits implicitly on DDL.
func (m *Adapter) SupportsTransactionalDDL() bool { return false }

func (m *Adapter) InlineForeignKeys() bool { return false }

func (m *Adapter) WithTx(ctx context.Context, fn func(tx common.Executor) error) error {
	if m.db == nil {
		return fmt.Errorf("database connection not established")
	}
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(common.NewSQLExecutor(tx, m.qb)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (m *Adapter) IsTableNotFound(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == errNoSuchTable || myErr.Number == errUnknownTable
	}
	return false
}

func (m *Adapter) IsUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == errDuplicateKey || myErr.Number == errDuplicateUniq
	}
	return false
}
