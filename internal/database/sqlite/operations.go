package sqlite

import (
	"fmt"
	"strings"

	"github.com/Rana718/quarry/internal/database/common"
	"github.com/Rana718/quarry/internal/types"
)

func (s *Adapter) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *Adapter) GenerateCreateTableSQL(table types.SchemaTable) (string, error) {
	var lines []string
	for _, column := range table.Columns {
		def, err := s.FormatColumnType(column)
		if err != nil {
			return "", err
		}
		lines = append(lines, fmt.Sprintf("  %s %s", s.QuoteIdent(column.Name), def))
	}

	for _, fk := range table.ForeignKeys {
		line := fmt.Sprintf("  CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s)",
			s.QuoteIdent(fk.Name), s.QuoteIdent(fk.Column), s.QuoteIdent(fk.RefTable), s.QuoteIdent(fk.RefColumn))
		lines = append(lines, line+referentialActions(fk.OnDelete, fk.OnUpdate))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);", s.QuoteIdent(table.Name), strings.Join(lines, ",\n")), nil
}

// GenerateAddColumnSQL inlines the column's foreign key, since sqlite cannot
// add constraints to an existing table.
func (s *Adapter) GenerateAddColumnSQL(tableName string, column types.SchemaColumn) (string, error) {
	def, err := s.FormatColumnType(column)
	if err != nil {
		return "", err
	}
	if column.ForeignKeyTable != "" {
		refCol := column.ForeignKeyColumn
		if refCol == "" {
			refCol = "id"
		}
		def += fmt.Sprintf(" REFERENCES %s(%s)", s.QuoteIdent(column.ForeignKeyTable), s.QuoteIdent(refCol)) +
			referentialActions(column.OnDeleteAction, column.OnUpdateAction)
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s;", s.QuoteIdent(tableName), s.QuoteIdent(column.Name), def), nil
}

// GenerateDropColumnSQL generates SQL to drop a column in SQLite
// NOTE: DROP COLUMN requires SQLite version 3.35.0+.
func (s *Adapter) GenerateDropColumnSQL(tableName, columnName string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", s.QuoteIdent(tableName), s.QuoteIdent(columnName))
}

func (s *Adapter) GenerateAddIndexSQL(index types.SchemaIndex) string {
	unique := ""
	if index.Unique {
		unique = "UNIQUE "
	}
	quoted := make([]string, len(index.Columns))
	for i, c := range index.Columns {
		quoted[i] = s.QuoteIdent(c)
	}
	stmt := fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)", unique, s.QuoteIdent(index.Name), s.QuoteIdent(index.Table), strings.Join(quoted, ", "))
	if index.Condition != "" {
		stmt += " WHERE " + index.Condition
	}
	return stmt + ";"
}

func (s *Adapter) GenerateDropIndexSQL(tableName, indexName string) string {
	return fmt.Sprintf("DROP INDEX IF EXISTS %s;", s.QuoteIdent(indexName))
}

// GenerateAddForeignKeySQL returns "" because sqlite declares foreign keys
// inline.
func (s *Adapter) GenerateAddForeignKeySQL(fk types.ForeignKey) string {
	return ""
}

func (s *Adapter) GenerateDropForeignKeySQL(tableName, constraintName string) string {
	return ""
}

func (s *Adapter) GenerateDropTableSQL(tableName string, ifExists bool) string {
	if ifExists {
		return fmt.Sprintf("DROP TABLE IF EXISTS %s;", s.QuoteIdent(tableName))
	}
	return fmt.Sprintf("DROP TABLE %s;", s.QuoteIdent(tableName))
}

func (s *Adapter) GenerateRenameTableSQL(from, to string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s;", s.QuoteIdent(from), s.QuoteIdent(to))
}

// FormatColumnType renders everything after the column name. Uniqueness is
// emitted as a separate named index by the schema builder.
func (s *Adapter) FormatColumnType(column types.SchemaColumn) (string, error) {
	native, err := s.catalog.NativeType(column)
	if err != nil {
		return "", err
	}
	parts := []string{native}

	if column.IsPrimary {
		if native == "INTEGER" && column.IsAutoIncrement {
			parts = append(parts, "PRIMARY KEY AUTOINCREMENT")
		} else {
			parts = append(parts, "PRIMARY KEY")
		}
	}

	if !column.Nullable && !column.IsPrimary {
		parts = append(parts, "NOT NULL")
	}

	if column.HasDefault {
		parts = append(parts, "DEFAULT "+common.RenderDefault(column.Default, column.DefaultRaw, true))
	}

	return strings.Join(parts, " "), nil
}

func referentialActions(onDelete, onUpdate string) string {
	out := ""
	if onDelete != "" {
		out += " ON DELETE " + onDelete
	}
	if onUpdate != "" {
		out += " ON UPDATE " + onUpdate
	}
	return out
}
