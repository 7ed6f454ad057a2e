package sqlite

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
	"github.com/mattn/go-sqlite3"
)

type Adapter struct {
	*common.SQLExecutor
	db      *sql.DB
	qb      squirrel.StatementBuilderType
	catalog *catalog.Catalog
}

func New() *Adapter {
	return &Adapter{
		SQLExecutor: common.NewSQLExecutor(nil, squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)),
		qb:          squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		catalog:     catalog.ForProvider("sqlite"),
	}
}

// NewWithDB wraps an already opened handle.
func NewWithDB(db *sql.DB) *Adapter {
	s := New()
	s.setDB(db)
	return s
}

func (s *Adapter) setDB(db *sql.DB) {
	s.db = db
	s.SQLExecutor = common.NewSQLExecutor(db, s.qb)
}

func (s *Adapter) Connect(ctx context.Context, url string) error {
	dbPath := strings.TrimPrefix(url, "sqlite://")
	memory := strings.Contains(dbPath, "mode=memory") || strings.HasPrefix(dbPath, ":memory:")
	if !strings.Contains(dbPath, "?") && !memory {
		dbPath += "?cache=shared&_journal_mode=WAL"
	}
	if !strings.Contains(dbPath, "_foreign_keys") {
		sep := "&"
		if !strings.Contains(dbPath, "?") {
			sep = "?"
		}
		dbPath += sep + "_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	if memory {
		// An in-memory database lives as long as its last connection.
		db.SetMaxOpenConns(1)
		db.SetConnMaxIdleTime(0)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	s.setDB(db)
	return nil
}

func (s *Adapter) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Adapter) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database connection not established")
	}
	return s.db.PingContext(ctx)
}

func (s *Adapter) Provider() string { return "sqlite" }

func (s *Adapter) Catalog() *catalog.Catalog { return s.catalog }

func (s *Adapter) SupportsTransactionalDDL() bool { return true }

func (s *Adapter) InlineForeignKeys() bool { return true }

func (s *Adapter) WithTx(ctx context.Context, fn func(tx common.Executor) error) error {
	if s.db == nil {
		return fmt.Errorf("database connection not established")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(common.NewSQLExecutor(tx, s.qb)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Adapter) IsTableNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}

func (s *Adapter) IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
