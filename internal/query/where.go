package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"
)

// condition compiles one Where call. With a single argument it is an
// equality; with two, the first is an operator keyword. Unknown operators
// fall back to equality.
func condition(field string, args []any) (squirrel.Sqlizer, error) {
	if err := validField(field); err != nil {
		return nil, err
	}

	switch len(args) {
	case 1:
		return squirrel.Eq{field: args[0]}, nil
	case 2:
		op, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("where %s: operator must be a string, got %T", field, args[0])
		}
		return operator(field, op, args[1]), nil
	default:
		return nil, fmt.Errorf("where %s: expected value or operator and value, got %d arguments", field, len(args))
	}
}

func operator(field, op string, value any) squirrel.Sqlizer {
	switch strings.ToLower(strings.TrimSpace(op)) {
	case "=", "==":
		return squirrel.Eq{field: value}
	case "!=", "<>":
		return squirrel.NotEq{field: value}
	case ">":
		return squirrel.Gt{field: value}
	case ">=":
		return squirrel.GtOrEq{field: value}
	case "<":
		return squirrel.Lt{field: value}
	case "<=":
		return squirrel.LtOrEq{field: value}
	case "like":
		return squirrel.Like{field: value}
	case "ilike":
		// portable ILIKE
		return squirrel.Expr(fmt.Sprintf("LOWER(%s) LIKE ?", field), strings.ToLower(fmt.Sprint(value)))
	case "in":
		return squirrel.Eq{field: value}
	case "not in":
		return squirrel.NotEq{field: value}
	case "is":
		return squirrel.Eq{field: nil}
	case "is not":
		return squirrel.NotEq{field: nil}
	default:
		return squirrel.Eq{field: value}
	}
}

// Where adds a condition ANDed with the existing ones:
//
//	Where("name", "rock")       name = ?
//	Where("age", ">", 18)       age > ?
//	Where("id", "in", ids)      id IN (...)
func (b *Builder) Where(field string, args ...any) *Builder {
	cond, err := condition(field, args)
	if err != nil {
		return b.withErr(err)
	}
	c := b.clone()
	c.where = append(c.where, cond)
	return c
}

// WhereMap adds one equality per entry, in key order.
func (b *Builder) WhereMap(values map[string]any) *Builder {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	c := b
	for _, k := range keys {
		c = c.Where(k, values[k])
	}
	if c == b {
		return b.clone()
	}
	return c
}

// OrWhere replaces the current conditions with OR(AND(current...), new).
// Conditions added afterwards are ANDed onto that OR.
func (b *Builder) OrWhere(field string, args ...any) *Builder {
	cond, err := condition(field, args)
	if err != nil {
		return b.withErr(err)
	}
	c := b.clone()
	if len(c.where) == 0 {
		c.where = []squirrel.Sqlizer{cond}
		return c
	}
	prev := squirrel.And(append([]squirrel.Sqlizer(nil), c.where...))
	c.where = []squirrel.Sqlizer{squirrel.Or{prev, cond}}
	return c
}

func (b *Builder) WhereIn(field string, values ...any) *Builder {
	return b.Where(field, "in", values)
}

func (b *Builder) WhereNotIn(field string, values ...any) *Builder {
	return b.Where(field, "not in", values)
}

func (b *Builder) WhereNull(field string) *Builder {
	return b.Where(field, "is", nil)
}

func (b *Builder) WhereNotNull(field string) *Builder {
	return b.Where(field, "is not", nil)
}

// Search matches term case-insensitively against any of fields. An empty
// term or field list leaves the builder unchanged.
func (b *Builder) Search(term string, fields []string) *Builder {
	term = strings.TrimSpace(term)
	if term == "" || len(fields) == 0 {
		return b
	}

	pattern := "%" + strings.ToLower(term) + "%"
	or := make(squirrel.Or, 0, len(fields))
	for _, f := range fields {
		if err := validField(f); err != nil {
			return b.withErr(err)
		}
		or = append(or, squirrel.Expr(fmt.Sprintf("LOWER(%s) LIKE ?", f), pattern))
	}
	c := b.clone()
	c.where = append(c.where, or)
	return c
}
