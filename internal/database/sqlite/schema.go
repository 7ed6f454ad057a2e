package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Rana718/quarry/internal/database/common"
	"github.com/Rana718/quarry/internal/errs"
	"github.com/Rana718/quarry/internal/types"
)

// DescribeTable reads column metadata through PRAGMA table_info. PRAGMA
// returns no rows for a missing table, which is reported as ErrTableNotFound.
func (s *Adapter) DescribeTable(ctx context.Context, tableName string) ([]types.SchemaColumn, error) {
	// PRAGMA doesn't support parameterized table names
	if err := common.ValidateIdentifiers(tableName); err != nil {
		return nil, err
	}
	if s.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", s.QuoteIdent(tableName)))
	if err != nil {
		return nil, err
	}

	var columns []types.SchemaColumn
	for rows.Next() {
		var cid int
		var column types.SchemaColumn
		var dataType string
		var notNull int
		var defaultValue sql.NullString
		var pk int

		if err := rows.Scan(&cid, &column.Name, &dataType, &notNull, &defaultValue, &pk); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}

		column.Type = s.catalog.AbstractType(dataType)
		column.Nullable = notNull == 0 && pk == 0
		column.IsPrimary = pk > 0
		column.IsAutoIncrement = pk > 0 && strings.EqualFold(dataType, "INTEGER")
		if defaultValue.Valid {
			column.HasDefault = true
			column.Default = defaultValue.String
			column.DefaultRaw = true
		}
		columns = append(columns, column)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("describe %s: %w", tableName, errs.ErrTableNotFound)
	}

	uniqueColumns, err := s.getUniqueColumnsForTable(ctx, tableName)
	if err != nil {
		return nil, err
	}
	for i := range columns {
		columns[i].IsUnique = uniqueColumns[columns[i].Name]
	}

	if err := s.attachForeignKeys(ctx, tableName, columns); err != nil {
		return nil, err
	}
	return columns, nil
}

func (s *Adapter) GetAllTableNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err == nil {
			tables = append(tables, tableName)
		}
	}
	return tables, rows.Err()
}

// getUniqueColumnsForTable maps each column covered by a single-column unique
// index to true.
func (s *Adapter) getUniqueColumnsForTable(ctx context.Context, tableName string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", s.QuoteIdent(tableName)))
	if err != nil {
		return nil, err
	}

	var uniqueIndexes []string
	for rows.Next() {
		var seq int
		var indexName string
		var unique int
		var origin, partial string

		if err := rows.Scan(&seq, &indexName, &unique, &origin, &partial); err != nil || unique == 0 {
			continue
		}
		uniqueIndexes = append(uniqueIndexes, indexName)
	}
	rows.Close()

	uniqueMap := make(map[string]bool)
	for _, indexName := range uniqueIndexes {
		columns, err := s.getIndexColumns(ctx, indexName)
		if err != nil {
			return nil, err
		}
		if len(columns) == 1 {
			uniqueMap[columns[0]] = true
		}
	}
	return uniqueMap, nil
}

func (s *Adapter) getIndexColumns(ctx context.Context, indexName string) ([]string, error) {
	colRows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", s.QuoteIdent(indexName)))
	if err != nil {
		return nil, err
	}
	defer colRows.Close()

	var columns []string
	for colRows.Next() {
		var seqno, cid int
		var name string
		if err := colRows.Scan(&seqno, &cid, &name); err == nil {
			columns = append(columns, name)
		}
	}
	return columns, nil
}

func (s *Adapter) attachForeignKeys(ctx context.Context, tableName string, columns []types.SchemaColumn) error {
	fkRows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", s.QuoteIdent(tableName)))
	if err != nil {
		return err
	}
	defer fkRows.Close()

	for fkRows.Next() {
		var id, seq int
		var table, from, to, onUpdate, onDelete, match string

		if err := fkRows.Scan(&id, &seq, &table, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			continue
		}

		for i := range columns {
			if columns[i].Name == from {
				columns[i].ForeignKeyTable = table
				columns[i].ForeignKeyColumn = to
				columns[i].OnDeleteAction = onDelete
				columns[i].OnUpdateAction = onUpdate
				break
			}
		}
	}
	return nil
}
