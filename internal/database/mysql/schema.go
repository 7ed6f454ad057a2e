package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Rana718/quarry/internal/errs"
	"github.com/Rana718/quarry/internal/types"
)

const columnsQuery = `
	SELECT
		c.column_name,
		c.data_type,
		c.is_nullable,
		c.column_default,
		c.character_maximum_length,
		c.numeric_precision,
		c.numeric_scale,
		c.column_type,
		CASE WHEN c.column_key = 'PRI' THEN 1 ELSE 0 END as is_primary_key,
		CASE WHEN c.column_key = 'UNI' THEN 1 ELSE 0 END as is_unique,
		c.extra,
		c.column_comment,
		k.REFERENCED_TABLE_NAME,
		k.REFERENCED_COLUMN_NAME,
		r.DELETE_RULE,
		r.UPDATE_RULE
	FROM information_schema.columns c
	LEFT JOIN information_schema.key_column_usage k
		ON c.table_schema = k.table_schema
		AND c.table_name = k.table_name
		AND c.column_name = k.column_name
		AND k.referenced_table_name IS NOT NULL
	LEFT JOIN information_schema.referential_constraints r
		ON k.constraint_name = r.constraint_name
		AND k.table_schema = r.constraint_schema
	WHERE c.table_name = ? AND c.table_schema = DATABASE()
	ORDER BY c.ordinal_position
`

// DescribeTable reads one table's columns from information_schema. A table
// without columns is reported as ErrTableNotFound.
func (m *Adapter) DescribeTable(ctx context.Context, tableName string) ([]types.SchemaColumn, error) {
	if m.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := m.db.QueryContext(ctx, columnsQuery, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []types.SchemaColumn
	for rows.Next() {
		var column types.SchemaColumn
		var dataType, isNullable, columnType, extra, comment string
		var columnDefault, referencedTable, referencedColumn, onDelete, onUpdate sql.NullString
		var charMaxLength, numericPrecision, numericScale sql.NullInt64
		var isPrimary, isUnique int

		if err := rows.Scan(
			&column.Name,
			&dataType,
			&isNullable,
			&columnDefault,
			&charMaxLength,
			&numericPrecision,
			&numericScale,
			&columnType,
			&isPrimary,
			&isUnique,
			&extra,
			&comment,
			&referencedTable,
			&referencedColumn,
			&onDelete,
			&onUpdate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}

		column.Type = m.catalog.AbstractType(columnType)
		if strings.EqualFold(columnType, "tinyint(1)") {
			column.Type = types.TypeBoolean
		}
		column.Nullable = isNullable == "YES"
		column.IsPrimary = isPrimary == 1
		column.IsUnique = isUnique == 1
		column.IsAutoIncrement = strings.Contains(strings.ToLower(extra), "auto_increment")
		column.Unsigned = strings.Contains(strings.ToLower(columnType), "unsigned")
		column.Comment = comment
		if charMaxLength.Valid {
			column.Length = int(charMaxLength.Int64)
		}
		if column.Type == types.TypeDecimal && numericPrecision.Valid {
			column.Precision = int(numericPrecision.Int64)
			column.Scale = int(numericScale.Int64)
		}
		if column.Type == types.TypeEnum {
			column.EnumValues = extractEnumValues(columnType)
		}
		if columnDefault.Valid {
			column.HasDefault = true
			column.DefaultRaw = true
			column.Default = columnDefault.String
		}

		if referencedTable.Valid && referencedColumn.Valid {
			column.ForeignKeyTable = referencedTable.String
			column.ForeignKeyColumn = referencedColumn.String
			column.OnDeleteAction = onDelete.String
			column.OnUpdateAction = onUpdate.String
		}

		columns = append(columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("describe %s: %w", tableName, errs.ErrTableNotFound)
	}
	return columns, nil
}

func (m *Adapter) GetAllTableNames(ctx context.Context) ([]string, error) {
	if m.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	rows, err := m.db.QueryContext(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
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

func extractEnumValues(columnType string) []string {
	if !strings.HasPrefix(strings.ToLower(columnType), "enum(") {
		return nil
	}

	values := columnType[len("enum("):]
	values = strings.TrimSuffix(values, ")")

	var result []string
	for _, part := range strings.Split(values, ",") {
		part = strings.TrimSpace(part)
		part = strings.Trim(part, "'\"")
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
