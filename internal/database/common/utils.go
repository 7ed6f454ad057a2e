package common

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/quarry/internal/catalog"
	"github.com/Rana718/quarry/internal/errs"
)

// Patterns used by ParseSQLStatements and the identifier guard.
var (
	commentRegex    = regexp.MustCompile(`(?m)^\s*--.*$`)
	stringRegex     = regexp.MustCompile(`'(?:[^']|'')*'|"(?:[^"]|"")*"|` + "`(?:[^`]|``)*`")
	validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

type QueryResult struct {
	Columns []string
	Rows    []map[string]interface{}
}

type ExecResult struct {
	RowsAffected int64
	LastInsertID int64
}

// Executor is the DML surface every adapter and transaction exposes.
type Executor interface {
	Builder() squirrel.StatementBuilderType
	Exec(ctx context.Context, query string, args ...any) (ExecResult, error)
	Query(ctx context.Context, query string, args ...any) (*QueryResult, error)
	InsertReturning(ctx context.Context, table, pk string, record map[string]any) (any, error)
}

// IsValidIdentifier checks that name is a plain SQL identifier, which keeps
// table and column names out of injection territory.
func IsValidIdentifier(name string) bool {
	return validIdentifier.MatchString(name)
}

// ValidateIdentifiers returns ErrInvalidIdentifier for the first bad name.
func ValidateIdentifiers(names ...string) error {
	for _, name := range names {
		if !IsValidIdentifier(name) {
			return fmt.Errorf("%w: %q", errs.ErrInvalidIdentifier, name)
		}
	}
	return nil
}

// RenderDefault renders a column default as a SQL literal. Stores without a
// boolean type pass boolAsInt.
func RenderDefault(v any, raw, boolAsInt bool) string {
	if raw {
		return fmt.Sprint(v)
	}
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return catalog.QuoteLiteral(val)
	case bool:
		if boolAsInt {
			if val {
				return "1"
			}
			return "0"
		}
		if val {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return catalog.QuoteLiteral(val.Format("2006-01-02 15:04:05"))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(val)
	default:
		return catalog.QuoteLiteral(fmt.Sprint(val))
	}
}

// ToInt64 converts the numeric shapes drivers return for aggregates.
func ToInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("unexpected numeric value %T", v)
	}
}

// ParseSQLStatements splits a script into statements, ignoring semicolons
// inside string literals and quoted identifiers.
func ParseSQLStatements(sql string) []string {
	sql = commentRegex.ReplaceAllString(sql, "")

	stringPositions := make(map[int]bool)
	for _, match := range stringRegex.FindAllStringIndex(sql, -1) {
		for i := match[0]; i < match[1]; i++ {
			stringPositions[i] = true
		}
	}

	estimatedStmts := strings.Count(sql, ";") + 1
	statements := make([]string, 0, estimatedStmts)

	var currentStatement strings.Builder
	currentStatement.Grow(len(sql) / estimatedStmts)

	for i, char := range sql {
		if char == ';' && !stringPositions[i] {
			stmt := strings.TrimSpace(currentStatement.String())
			if stmt != "" && !strings.HasPrefix(stmt, "/*") {
				statements = append(statements, stmt)
			}
			currentStatement.Reset()
		} else {
			currentStatement.WriteRune(char)
		}
	}

	if currentStatement.Len() > 0 {
		stmt := strings.TrimSpace(currentStatement.String())
		if stmt != "" && !strings.HasPrefix(stmt, "/*") {
			statements = append(statements, stmt)
		}
	}

	return statements
}
