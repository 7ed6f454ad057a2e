// Package catalog maps abstract column types to the native types of each
// supported store, and back.
package catalog

import (
	"fmt"
	"strings"

	"github.com/Rana718/quarry/internal/errs"
	"github.com/Rana718/quarry/internal/types"
)

const (
	DefaultStringLength = 255
	DefaultPrecision    = 8
	DefaultScale        = 2
)

// Catalog renders column types for one store dialect.
type Catalog struct {
	provider string
	native   map[types.ColumnType]string
	reverse  map[string]types.ColumnType
	quote    func(string) string
}

// ForProvider returns the catalog for a provider name. Unknown providers fall
// back to postgres.
func ForProvider(provider string) *Catalog {
	switch provider {
	case "mysql":
		return mysqlCatalog
	case "sqlite", "sqlite3":
		return sqliteCatalog
	default:
		return postgresCatalog
	}
}

func (c *Catalog) Provider() string { return c.provider }

// NativeType renders the store type for col, including length, precision,
// auto-increment and enum forms. Enum CHECK constraints reference col.Name.
func (c *Catalog) NativeType(col types.SchemaColumn) (string, error) {
	base, ok := c.native[col.Type]
	if !ok {
		return "", errs.Construction("", col.Name, "unknown column type %q", col.Type)
	}

	switch col.Type {
	case types.TypeString, types.TypeChar:
		length := col.Length
		if length <= 0 {
			length = DefaultStringLength
		}
		if strings.Contains(base, "%d") {
			return fmt.Sprintf(base, length), nil
		}
		return base, nil

	case types.TypeDecimal:
		precision, scale := col.Precision, col.Scale
		if precision <= 0 {
			precision, scale = DefaultPrecision, DefaultScale
		}
		if scale > precision {
			return "", errs.Construction("", col.Name, "decimal scale %d exceeds precision %d", scale, precision)
		}
		if strings.Contains(base, "%d") {
			return fmt.Sprintf(base, precision, scale), nil
		}
		return base, nil

	case types.TypeEnum:
		if err := ValidateEnum(col.Name, col.EnumValues); err != nil {
			return "", err
		}
		quoted := make([]string, len(col.EnumValues))
		for i, v := range col.EnumValues {
			quoted[i] = QuoteLiteral(v)
		}
		if c.provider == "mysql" {
			return fmt.Sprintf("ENUM(%s)", strings.Join(quoted, ", ")), nil
		}
		return fmt.Sprintf("%s CHECK (%s IN (%s))", base, c.quote(col.Name), strings.Join(quoted, ", ")), nil

	case types.TypeInteger, types.TypeTinyInteger, types.TypeSmallInteger, types.TypeBigInteger:
		return c.integerType(col, base), nil
	}

	return base, nil
}

func (c *Catalog) integerType(col types.SchemaColumn, base string) string {
	switch c.provider {
	case "postgres":
		if col.IsAutoIncrement {
			switch col.Type {
			case types.TypeBigInteger:
				return "BIGSERIAL"
			case types.TypeSmallInteger, types.TypeTinyInteger:
				return "SMALLSERIAL"
			default:
				return "SERIAL"
			}
		}
		return base
	case "mysql":
		if col.Unsigned {
			return base + " UNSIGNED"
		}
		return base
	default:
		// sqlite only aliases the rowid for the exact type name INTEGER.
		return base
	}
}

// AbstractType maps a native type reported by the store back to its abstract
// type. Length and precision suffixes are ignored.
func (c *Catalog) AbstractType(nativeType string) types.ColumnType {
	t := strings.ToLower(strings.TrimSpace(nativeType))
	if idx := strings.Index(t, "("); idx > 0 {
		t = strings.TrimSpace(t[:idx])
	}
	t = strings.TrimSuffix(t, " unsigned")
	if mapped, ok := c.reverse[t]; ok {
		return mapped
	}
	return types.TypeString
}

// ValidateEnum rejects empty and duplicated enum sets.
func ValidateEnum(column string, values []string) error {
	if len(values) == 0 {
		return errs.Construction("", column, "enum requires at least one value")
	}
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			return errs.Construction("", column, "enum value %q declared twice", v)
		}
		seen[v] = true
	}
	return nil
}

// QuoteLiteral renders s as a single-quoted SQL string literal.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func doubleQuote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func backtick(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

var postgresCatalog = &Catalog{
	provider: "postgres",
	quote:    doubleQuote,
	native: map[types.ColumnType]string{
		types.TypeString: "VARCHAR(%d)", types.TypeChar: "CHAR(%d)",
		types.TypeText: "TEXT", types.TypeMediumText: "TEXT", types.TypeLongText: "TEXT",
		types.TypeInteger: "INTEGER", types.TypeTinyInteger: "SMALLINT", types.TypeSmallInteger: "SMALLINT",
		types.TypeBigInteger: "BIGINT", types.TypeDecimal: "NUMERIC(%d,%d)",
		types.TypeFloat: "REAL", types.TypeDouble: "DOUBLE PRECISION", types.TypeBoolean: "BOOLEAN",
		types.TypeDate: "DATE", types.TypeDateTime: "TIMESTAMP", types.TypeTimestamp: "TIMESTAMP WITH TIME ZONE",
		types.TypeTime: "TIME", types.TypeEnum: "VARCHAR(255)", types.TypeJSON: "JSON", types.TypeJSONB: "JSONB",
		types.TypeUUID: "UUID", types.TypeBinary: "BYTEA",
	},
	reverse: map[string]types.ColumnType{
		"character varying": types.TypeString, "varchar": types.TypeString,
		"character": types.TypeChar, "char": types.TypeChar, "bpchar": types.TypeChar, "text": types.TypeText,
		"integer": types.TypeInteger, "int4": types.TypeInteger, "serial": types.TypeInteger,
		"bigint": types.TypeBigInteger, "int8": types.TypeBigInteger, "bigserial": types.TypeBigInteger,
		"smallint": types.TypeSmallInteger, "int2": types.TypeSmallInteger,
		"boolean": types.TypeBoolean, "bool": types.TypeBoolean,
		"timestamp with time zone": types.TypeTimestamp, "timestamptz": types.TypeTimestamp,
		"timestamp without time zone": types.TypeDateTime, "timestamp": types.TypeDateTime,
		"date": types.TypeDate, "time": types.TypeTime, "time without time zone": types.TypeTime,
		"numeric": types.TypeDecimal, "decimal": types.TypeDecimal,
		"real": types.TypeFloat, "float4": types.TypeFloat, "double precision": types.TypeDouble, "float8": types.TypeDouble,
		"uuid": types.TypeUUID, "json": types.TypeJSON, "jsonb": types.TypeJSONB, "bytea": types.TypeBinary,
	},
}

var mysqlCatalog = &Catalog{
	provider: "mysql",
	quote:    backtick,
	native: map[types.ColumnType]string{
		types.TypeString: "VARCHAR(%d)", types.TypeChar: "CHAR(%d)",
		types.TypeText: "TEXT", types.TypeMediumText: "MEDIUMTEXT", types.TypeLongText: "LONGTEXT",
		types.TypeInteger: "INT", types.TypeTinyInteger: "TINYINT", types.TypeSmallInteger: "SMALLINT",
		types.TypeBigInteger: "BIGINT", types.TypeDecimal: "DECIMAL(%d,%d)",
		types.TypeFloat: "FLOAT", types.TypeDouble: "DOUBLE", types.TypeBoolean: "TINYINT(1)",
		types.TypeDate: "DATE", types.TypeDateTime: "DATETIME", types.TypeTimestamp: "TIMESTAMP",
		types.TypeTime: "TIME", types.TypeEnum: "ENUM", types.TypeJSON: "JSON", types.TypeJSONB: "JSON",
		types.TypeUUID: "CHAR(36)", types.TypeBinary: "BLOB",
	},
	reverse: map[string]types.ColumnType{
		"varchar": types.TypeString, "char": types.TypeChar,
		"text": types.TypeText, "longtext": types.TypeLongText, "mediumtext": types.TypeMediumText, "tinytext": types.TypeText,
		"int": types.TypeInteger, "integer": types.TypeInteger, "bigint": types.TypeBigInteger,
		"smallint": types.TypeSmallInteger, "tinyint": types.TypeTinyInteger,
		"boolean": types.TypeBoolean, "bool": types.TypeBoolean,
		"datetime": types.TypeDateTime, "timestamp": types.TypeTimestamp, "date": types.TypeDate, "time": types.TypeTime,
		"decimal": types.TypeDecimal, "numeric": types.TypeDecimal, "float": types.TypeFloat, "double": types.TypeDouble,
		"json": types.TypeJSON, "blob": types.TypeBinary, "binary": types.TypeBinary, "varbinary": types.TypeBinary,
		"enum": types.TypeEnum,
	},
}

var sqliteCatalog = &Catalog{
	provider: "sqlite",
	quote:    doubleQuote,
	native: map[types.ColumnType]string{
		types.TypeString: "TEXT", types.TypeChar: "TEXT",
		types.TypeText: "TEXT", types.TypeMediumText: "TEXT", types.TypeLongText: "TEXT",
		types.TypeInteger: "INTEGER", types.TypeTinyInteger: "INTEGER", types.TypeSmallInteger: "INTEGER",
		types.TypeBigInteger: "INTEGER", types.TypeDecimal: "NUMERIC",
		types.TypeFloat: "REAL", types.TypeDouble: "REAL", types.TypeBoolean: "BOOLEAN",
		types.TypeDate: "DATE", types.TypeDateTime: "DATETIME", types.TypeTimestamp: "DATETIME",
		types.TypeTime: "TEXT", types.TypeEnum: "TEXT", types.TypeJSON: "TEXT", types.TypeJSONB: "TEXT",
		types.TypeUUID: "TEXT", types.TypeBinary: "BLOB",
	},
	reverse: map[string]types.ColumnType{
		"varchar": types.TypeString, "text": types.TypeText, "char": types.TypeChar,
		"int": types.TypeInteger, "integer": types.TypeInteger, "bigint": types.TypeBigInteger,
		"smallint": types.TypeSmallInteger, "tinyint": types.TypeTinyInteger,
		"real": types.TypeDouble, "double": types.TypeDouble, "float": types.TypeFloat,
		"blob": types.TypeBinary, "numeric": types.TypeDecimal, "decimal": types.TypeDecimal,
		"boolean": types.TypeBoolean, "bool": types.TypeBoolean,
		"date": types.TypeDate, "datetime": types.TypeDateTime, "timestamp": types.TypeTimestamp,
	},
}
