package postgres

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
		c.udt_name,
		c.is_nullable,
		c.column_default,
		c.character_maximum_length,
		c.numeric_precision,
		c.numeric_scale
	FROM information_schema.columns c
	WHERE c.table_name = $1
	  AND c.table_schema = current_schema()
	ORDER BY c.ordinal_position
`

// constraintsQuery resolves PK, UNIQUE and FK membership per column from
// pg_constraint, pairing FK source and target columns by ordinality.
const constraintsQuery = `
	WITH fk_columns AS (
		SELECT
			src_attr.attname AS column_name,
			tgt_table.relname AS foreign_table_name,
			tgt_attr.attname AS foreign_column_name,
			CASE con.confdeltype
				WHEN 'a' THEN 'NO ACTION'
				WHEN 'r' THEN 'RESTRICT'
				WHEN 'c' THEN 'CASCADE'
				WHEN 'n' THEN 'SET NULL'
				WHEN 'd' THEN 'SET DEFAULT'
			END AS on_delete_action
		FROM pg_constraint con
		JOIN pg_class src_table ON con.conrelid = src_table.oid
		JOIN pg_namespace ns ON src_table.relnamespace = ns.oid
		CROSS JOIN LATERAL UNNEST(con.conkey, con.confkey) WITH ORDINALITY AS cols(src_col, tgt_col, ord)
		JOIN pg_attribute src_attr ON src_attr.attrelid = src_table.oid AND src_attr.attnum = cols.src_col
		JOIN pg_class tgt_table ON con.confrelid = tgt_table.oid
		JOIN pg_attribute tgt_attr ON tgt_attr.attrelid = tgt_table.oid AND tgt_attr.attnum = cols.tgt_col
		WHERE src_table.relname = $1
		  AND ns.nspname = current_schema()
		  AND con.contype = 'f'
	),
	pk_uk_columns AS (
		SELECT
			src_attr.attname AS column_name,
			CASE con.contype WHEN 'p' THEN 'PRIMARY KEY' ELSE 'UNIQUE' END AS constraint_type
		FROM pg_constraint con
		JOIN pg_class src_table ON con.conrelid = src_table.oid
		JOIN pg_namespace ns ON src_table.relnamespace = ns.oid
		CROSS JOIN LATERAL UNNEST(con.conkey) AS cols(src_col)
		JOIN pg_attribute src_attr ON src_attr.attrelid = src_table.oid AND src_attr.attnum = cols.src_col
		WHERE src_table.relname = $1
		  AND ns.nspname = current_schema()
		  AND con.contype IN ('p', 'u')
		  AND array_length(con.conkey, 1) = 1
	),
	unique_indexes AS (
		SELECT a.attname AS column_name
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_namespace ns ON t.relnamespace = ns.oid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ix.indkey[0]
		WHERE t.relname = $1
		  AND ns.nspname = current_schema()
		  AND ix.indisunique AND NOT ix.indisprimary
		  AND ix.indnatts = 1
	)
	SELECT column_name, 'FOREIGN KEY' AS constraint_type, foreign_table_name, foreign_column_name, on_delete_action
	FROM fk_columns
	UNION ALL
	SELECT column_name, constraint_type, NULL, NULL, NULL
	FROM pk_uk_columns
	UNION ALL
	SELECT column_name, 'UNIQUE', NULL, NULL, NULL
	FROM unique_indexes
`

// DescribeTable reads the column metadata of one table in the current
// schema. A table without columns is reported as ErrTableNotFound.
func (p *Adapter) DescribeTable(ctx context.Context, tableName string) ([]types.SchemaColumn, error) {
	if p.pool == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := p.pool.Query(ctx, columnsQuery, tableName)
	if err != nil {
		return nil, err
	}

	var columns []types.SchemaColumn
	for rows.Next() {
		var column types.SchemaColumn
		var udtName, isNullable string
		var columnDefault sql.NullString
		var charMaxLength, numericPrecision, numericScale sql.NullInt64

		if err := rows.Scan(&column.Name, &udtName, &isNullable, &columnDefault,
			&charMaxLength, &numericPrecision, &numericScale); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}

		column.Type = p.catalog.AbstractType(udtName)
		column.Nullable = isNullable == "YES"
		if charMaxLength.Valid {
			column.Length = int(charMaxLength.Int64)
		}
		if column.Type == types.TypeDecimal && numericPrecision.Valid {
			column.Precision = int(numericPrecision.Int64)
			column.Scale = int(numericScale.Int64)
		}

		if columnDefault.Valid {
			defaultStr := columnDefault.String
			column.IsAutoIncrement = strings.Contains(strings.ToLower(defaultStr), "nextval")
			if !column.IsAutoIncrement {
				column.HasDefault = true
				column.DefaultRaw = true
				column.Default = cleanDefaultValue(defaultStr)
			}
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

	columnIndex := make(map[string]*types.SchemaColumn, len(columns))
	for i := range columns {
		columnIndex[columns[i].Name] = &columns[i]
	}

	constraintRows, err := p.pool.Query(ctx, constraintsQuery, tableName)
	if err != nil {
		return nil, err
	}
	defer constraintRows.Close()

	for constraintRows.Next() {
		var columnName, constraintType string
		var fkTable, fkColumn, onDelete sql.NullString

		if err := constraintRows.Scan(&columnName, &constraintType, &fkTable, &fkColumn, &onDelete); err != nil {
			continue
		}

		colPtr, exists := columnIndex[columnName]
		if !exists {
			continue
		}
		switch constraintType {
		case "PRIMARY KEY":
			colPtr.IsPrimary = true
		case "UNIQUE":
			colPtr.IsUnique = true
		case "FOREIGN KEY":
			colPtr.ForeignKeyTable = fkTable.String
			colPtr.ForeignKeyColumn = fkColumn.String
			colPtr.OnDeleteAction = onDelete.String
		}
	}

	return columns, nil
}

func (p *Adapter) GetAllTableNames(ctx context.Context) ([]string, error) {
	if p.pool == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	rows, err := p.pool.Query(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := make([]string, 0, 32)
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			continue
		}
		tables = append(tables, tableName)
	}
	return tables, rows.Err()
}

// cleanDefaultValue strips the type casts postgres appends to defaults,
// e.g. 'draft'::character varying.
func cleanDefaultValue(defaultVal string) string {
	if idx := strings.Index(defaultVal, "::"); idx > 0 {
		return defaultVal[:idx]
	}
	return defaultVal
}
