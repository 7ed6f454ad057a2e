package mysql

import (
	"fmt"
	"strings"

	"github.com/Rana718/quarry/internal/catalog"
	"github.com/Rana718/quarry/internal/database/common"
	"github.com/Rana718/quarry/internal/types"
)

func (m *Adapter) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (m *Adapter) GenerateCreateTableSQL(table types.SchemaTable) (string, error) {
	var lines []string
	for _, column := range table.Columns {
		def, err := m.FormatColumnType(column)
		if err != nil {
			return "", err
		}
		lines = append(lines, fmt.Sprintf("  %s %s", m.QuoteIdent(column.Name), def))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n%s\n) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;",
		m.QuoteIdent(table.Name), strings.Join(lines, ",\n")), nil
}

// GenerateAddColumnSQL honours the AFTER / FIRST ordering hints.
func (m *Adapter) GenerateAddColumnSQL(tableName string, column types.SchemaColumn) (string, error) {
	def, err := m.FormatColumnType(column)
	if err != nil {
		return "", err
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.QuoteIdent(tableName), m.QuoteIdent(column.Name), def)
	switch {
	case column.First:
		stmt += " FIRST"
	case column.After != "":
		stmt += " AFTER " + m.QuoteIdent(column.After)
	}
	return stmt + ";", nil
}

func (m *Adapter) GenerateDropColumnSQL(tableName, columnName string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", m.QuoteIdent(tableName), m.QuoteIdent(columnName))
}

// GenerateAddIndexSQL drops partial conditions; mysql has no filtered indexes.
func (m *Adapter) GenerateAddIndexSQL(index types.SchemaIndex) string {
	unique := ""
	if index.Unique {
		unique = "UNIQUE "
	}
	quoted := make([]string, len(index.Columns))
	for i, c := range index.Columns {
		quoted[i] = m.QuoteIdent(c)
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s);", unique, m.QuoteIdent(index.Name), m.QuoteIdent(index.Table), strings.Join(quoted, ", "))
}

func (m *Adapter) GenerateDropIndexSQL(tableName, indexName string) string {
	return fmt.Sprintf("DROP INDEX %s ON %s;", m.QuoteIdent(indexName), m.QuoteIdent(tableName))
}

func (m *Adapter) GenerateAddForeignKeySQL(fk types.ForeignKey) string {
	stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s)",
		m.QuoteIdent(fk.Table), m.QuoteIdent(fk.Name), m.QuoteIdent(fk.Column), m.QuoteIdent(fk.RefTable), m.QuoteIdent(fk.RefColumn))
	if fk.OnDelete != "" {
		stmt += " ON DELETE " + fk.OnDelete
	}
	if fk.OnUpdate != "" {
		stmt += " ON UPDATE " + fk.OnUpdate
	}
	return stmt + ";"
}

func (m *Adapter) GenerateDropForeignKeySQL(tableName, constraintName string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s;", m.QuoteIdent(tableName), m.QuoteIdent(constraintName))
}

func (m *Adapter) GenerateDropTableSQL(tableName string, ifExists bool) string {
	if ifExists {
		return fmt.Sprintf("DROP TABLE IF EXISTS %s;", m.QuoteIdent(tableName))
	}
	return fmt.Sprintf("DROP TABLE %s;", m.QuoteIdent(tableName))
}

func (m *Adapter) GenerateRenameTableSQL(from, to string) string {
	return fmt.Sprintf("RENAME TABLE %s TO %s;", m.QuoteIdent(from), m.QuoteIdent(to))
}

func (m *Adapter) FormatColumnType(column types.SchemaColumn) (string, error) {
	native, err := m.catalog.NativeType(column)
	if err != nil {
		return "", err
	}
	parts := []string{native}

	if !column.Nullable && !column.IsPrimary {
		parts = append(parts, "NOT NULL")
	}

	if column.IsAutoIncrement {
		parts = append(parts, "AUTO_INCREMENT")
	}

	if column.IsPrimary {
		parts = append(parts, "PRIMARY KEY")
	}

	if column.HasDefault {
		parts = append(parts, "DEFAULT "+common.RenderDefault(column.Default, column.DefaultRaw, true))
	}

	if column.Comment != "" {
		parts = append(parts, "COMMENT "+catalog.QuoteLiteral(column.Comment))
	}

	return strings.Join(parts, " "), nil
}
