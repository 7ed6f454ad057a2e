package database

import (
	"context"

	"github.com/Rana718/quarry/internal/catalog"
	"github.com/Rana718/quarry/internal/database/common"
	"github.com/Rana718/quarry/internal/types"
)

// Executor is the parameterized DML surface shared by adapters and the
// transactions they open.
type Executor = common.Executor

// Dialect renders DDL for one store and classifies its errors.
type Dialect interface {
	Provider() string
	Catalog() *catalog.Catalog
	QuoteIdent(name string) string

	// SupportsTransactionalDDL reports whether CREATE/ALTER can be rolled back.
	SupportsTransactionalDDL() bool
	// InlineForeignKeys reports whether foreign keys must be declared inside
	// CREATE TABLE / ADD COLUMN instead of as separate constraints.
	InlineForeignKeys() bool

	// SQL generation
	GenerateCreateTableSQL(table types.SchemaTable) (string, error)
	GenerateAddColumnSQL(tableName string, column types.SchemaColumn) (string, error)
	GenerateDropColumnSQL(tableName, columnName string) string
	GenerateAddIndexSQL(index types.SchemaIndex) string
	GenerateDropIndexSQL(tableName, indexName string) string
	GenerateAddForeignKeySQL(fk types.ForeignKey) string
	GenerateDropForeignKeySQL(tableName, constraintName string) string
	GenerateDropTableSQL(tableName string, ifExists bool) string
	GenerateRenameTableSQL(from, to string) string

	// Error classification
	IsTableNotFound(err error) bool
	IsUniqueViolation(err error) bool
}

type DatabaseAdapter interface {
	Executor
	Dialect

	Connect(ctx context.Context, url string) error
	Close() error
	Ping(ctx context.Context) error

	// Schema operations
	DescribeTable(ctx context.Context, tableName string) ([]types.SchemaColumn, error)
	GetAllTableNames(ctx context.Context) ([]string, error)

	// WithTx runs fn inside one transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Executor) error) error
}
