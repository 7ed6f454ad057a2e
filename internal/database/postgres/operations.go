package postgres

import (
	"fmt"
	"strings"

	"github.com/Rana718/quarry/internal/database/common"
	"github.com/Rana718/quarry/internal/types"
	"github.com/lib/pq"
)

func quoteIdent(name string) string {
	return pq.QuoteIdentifier(name)
}

func (p *Adapter) QuoteIdent(name string) string {
	return quoteIdent(name)
}

// GenerateCreateTableSQL returns the CREATE TABLE statement followed by any
// COMMENT ON COLUMN statements. Foreign keys are added separately.
func (p *Adapter) GenerateCreateTableSQL(table types.SchemaTable) (string, error) {
	var lines []string
	var comments []string

	for _, column := range table.Columns {
		def, err := p.FormatColumnType(column)
		if err != nil {
			return "", err
		}
		lines = append(lines, fmt.Sprintf("  %s %s", quoteIdent(column.Name), def))
		if column.Comment != "" {
			comments = append(comments, p.columnCommentSQL(table.Name, column))
		}
	}

	stmt := fmt.Sprintf("CREATE TABLE %s (\n%s\n);", quoteIdent(table.Name), strings.Join(lines, ",\n"))
	if len(comments) > 0 {
		stmt += "\n" + strings.Join(comments, "\n")
	}
	return stmt, nil
}

// GenerateAddColumnSQL ignores ordering hints; postgres always appends.
func (p *Adapter) GenerateAddColumnSQL(tableName string, column types.SchemaColumn) (string, error) {
	def, err := p.FormatColumnType(column)
	if err != nil {
		return "", err
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s;", quoteIdent(tableName), quoteIdent(column.Name), def)
	if column.Comment != "" {
		stmt += "\n" + p.columnCommentSQL(tableName, column)
	}
	return stmt, nil
}

func (p *Adapter) GenerateDropColumnSQL(tableName, columnName string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN IF EXISTS %s;", quoteIdent(tableName), quoteIdent(columnName))
}

func (p *Adapter) GenerateAddIndexSQL(index types.SchemaIndex) string {
	unique := ""
	if index.Unique {
		unique = "UNIQUE "
	}
	quoted := make([]string, len(index.Columns))
	for i, c := range index.Columns {
		quoted[i] = quoteIdent(c)
	}
	stmt := fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)", unique, quoteIdent(index.Name), quoteIdent(index.Table), strings.Join(quoted, ", "))
	if index.Condition != "" {
		stmt += " WHERE " + index.Condition
	}
	return stmt + ";"
}

func (p *Adapter) GenerateDropIndexSQL(tableName, indexName string) string {
	return fmt.Sprintf("DROP INDEX IF EXISTS %s;", quoteIdent(indexName))
}

func (p *Adapter) GenerateAddForeignKeySQL(fk types.ForeignKey) string {
	stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s)",
		quoteIdent(fk.Table), quoteIdent(fk.Name), quoteIdent(fk.Column), quoteIdent(fk.RefTable), quoteIdent(fk.RefColumn))
	if fk.OnDelete != "" {
		stmt += " ON DELETE " + fk.OnDelete
	}
	if fk.OnUpdate != "" {
		stmt += " ON UPDATE " + fk.OnUpdate
	}
	return stmt + ";"
}

func (p *Adapter) GenerateDropForeignKeySQL(tableName, constraintName string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s;", quoteIdent(tableName), quoteIdent(constraintName))
}

func (p *Adapter) GenerateDropTableSQL(tableName string, ifExists bool) string {
	if ifExists {
		return fmt.Sprintf("DROP TABLE IF EXISTS %s;", quoteIdent(tableName))
	}
	return fmt.Sprintf("DROP TABLE %s;", quoteIdent(tableName))
}

func (p *Adapter) GenerateRenameTableSQL(from, to string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s;", quoteIdent(from), quoteIdent(to))
}

func (p *Adapter) FormatColumnType(column types.SchemaColumn) (string, error) {
	native, err := p.catalog.NativeType(column)
	if err != nil {
		return "", err
	}
	parts := []string{native}

	if column.IsPrimary {
		parts = append(parts, "PRIMARY KEY")
	}

	if !column.Nullable && !column.IsPrimary {
		parts = append(parts, "NOT NULL")
	}

	if column.HasDefault {
		parts = append(parts, "DEFAULT "+common.RenderDefault(column.Default, column.DefaultRaw, false))
	}

	return strings.Join(parts, " "), nil
}

func (p *Adapter) columnCommentSQL(tableName string, column types.SchemaColumn) string {
	return fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s;", quoteIdent(tableName), quoteIdent(column.Name), pq.QuoteLiteral(column.Comment))
}
