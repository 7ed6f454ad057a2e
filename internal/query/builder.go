// Package query provides an immutable, chainable query builder compiled to
// squirrel statements. Builders never touch the store until a terminal call
// such as Get, First or Count; each terminal call runs the SQL again.
package query

import (
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/quarry/internal/database/common"
	"github.com/Rana718/quarry/internal/types"
	"go.uber.org/zap"
)

const DefaultPerPage = 10

// Meta carries the model metadata a builder needs for inserts and eager
// loading.
type Meta struct {
	PrimaryKey string
	Relations  map[string]types.Relation
}

// Include selects a relation to eager load, optionally limited to Fields.
type Include struct {
	Relation string
	Fields   []string
}

type Builder struct {
	exec   common.Executor
	table  string
	meta   Meta
	logger *zap.SugaredLogger

	columns  []string
	where    []squirrel.Sqlizer
	includes []Include
	orders   []string
	limit    int64
	offset   int64

	err error
}

type Option func(*Builder)

func WithMeta(meta Meta) Option {
	return func(b *Builder) { b.meta = meta }
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New returns a builder selecting every column of table.
func New(exec common.Executor, table string, opts ...Option) *Builder {
	b := &Builder{
		exec:   exec,
		table:  table,
		meta:   Meta{PrimaryKey: "id"},
		logger: zap.NewNop().Sugar(),
		limit:  -1,
		offset: -1,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.meta.PrimaryKey == "" {
		b.meta.PrimaryKey = "id"
	}
	if err := common.ValidateIdentifiers(table); err != nil {
		b.err = err
	}
	return b
}

func (b *Builder) Table() string { return b.table }

// Err returns the first invalid chain call, if any.
func (b *Builder) Err() error { return b.err }

// clone copies the builder so the receiver stays untouched by the caller's
// next step.
func (b *Builder) clone() *Builder {
	c := *b
	c.columns = append([]string(nil), b.columns...)
	c.where = append([]squirrel.Sqlizer(nil), b.where...)
	c.includes = append([]Include(nil), b.includes...)
	c.orders = append([]string(nil), b.orders...)
	return &c
}

func (b *Builder) withErr(err error) *Builder {
	c := b.clone()
	if c.err == nil {
		c.err = err
	}
	return c
}

// validField accepts plain and table-qualified column names.
func validField(field string) error {
	parts := strings.Split(field, ".")
	if len(parts) > 2 {
		return common.ValidateIdentifiers(field)
	}
	return common.ValidateIdentifiers(parts...)
}

func (b *Builder) Select(columns ...string) *Builder {
	for _, col := range columns {
		if col == "*" {
			continue
		}
		if err := validField(col); err != nil {
			return b.withErr(err)
		}
	}
	c := b.clone()
	c.columns = append(c.columns, columns...)
	return c
}

// Limit caps the result size; a negative n removes the cap.
func (b *Builder) Limit(n int) *Builder {
	c := b.clone()
	c.limit = int64(n)
	return c
}

func (b *Builder) Offset(n int) *Builder {
	c := b.clone()
	c.offset = int64(n)
	return c
}

// Paginate selects a 1-based page. A page below 1 is treated as the first
// page and a non-positive perPage uses DefaultPerPage.
func (b *Builder) Paginate(page, perPage int) *Builder {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	c := b.clone()
	c.limit = int64(perPage)
	c.offset = int64((page - 1) * perPage)
	return c
}

func (b *Builder) OrderBy(field, direction string) *Builder {
	if err := validField(field); err != nil {
		return b.withErr(err)
	}
	dir := strings.ToUpper(strings.TrimSpace(direction))
	if dir == "" {
		dir = "ASC"
	}
	if dir != "ASC" && dir != "DESC" {
		return b.withErr(fmt.Errorf("invalid order direction %q for %s", direction, field))
	}
	c := b.clone()
	c.orders = append(c.orders, field+" "+dir)
	return c
}

func (b *Builder) OrderByAsc(field string) *Builder { return b.OrderBy(field, "ASC") }

func (b *Builder) OrderByDesc(field string) *Builder { return b.OrderBy(field, "DESC") }

// Latest orders newest first by field, created_at by default.
func (b *Builder) Latest(field ...string) *Builder {
	return b.OrderByDesc(firstOr(field, types.CreatedAt))
}

func (b *Builder) Oldest(field ...string) *Builder {
	return b.OrderByAsc(firstOr(field, types.CreatedAt))
}

// When applies fn only if cond holds.
func (b *Builder) When(cond bool, fn func(*Builder) *Builder) *Builder {
	if !cond {
		return b
	}
	return fn(b)
}

// With eager loads relations. Each entry is a relation name, optionally
// followed by ":field,field" to limit the loaded columns.
func (b *Builder) With(relations ...string) *Builder {
	incs := make([]Include, 0, len(relations))
	for _, r := range relations {
		name, fields, _ := strings.Cut(r, ":")
		inc := Include{Relation: strings.TrimSpace(name)}
		if fields != "" {
			for _, f := range strings.Split(fields, ",") {
				if f = strings.TrimSpace(f); f != "" {
					inc.Fields = append(inc.Fields, f)
				}
			}
		}
		incs = append(incs, inc)
	}
	return b.Include(incs...)
}

// Include is the structured form of With.
func (b *Builder) Include(includes ...Include) *Builder {
	c := b.clone()
	for _, inc := range includes {
		if inc.Relation == "" {
			continue
		}
		for _, f := range inc.Fields {
			if err := validField(f); err != nil {
				return b.withErr(err)
			}
		}
		inc.Fields = append([]string(nil), inc.Fields...)
		replaced := false
		for i, existing := range c.includes {
			if existing.Relation == inc.Relation {
				c.includes[i] = inc
				replaced = true
				break
			}
		}
		if !replaced {
			c.includes = append(c.includes, inc)
		}
	}
	return c
}

// Includes returns the normalized eager-load list.
func (b *Builder) Includes() []Include {
	return append([]Include(nil), b.includes...)
}

func (b *Builder) selectBuilder() squirrel.SelectBuilder {
	cols := b.columns
	if len(cols) == 0 {
		cols = []string{"*"}
	}
	sb := b.exec.Builder().Select(cols...).From(b.table)
	sb = b.applyWhere(sb)
	if len(b.orders) > 0 {
		sb = sb.OrderBy(b.orders...)
	}
	if b.limit >= 0 {
		sb = sb.Limit(uint64(b.limit))
	}
	if b.offset > 0 {
		sb = sb.Offset(uint64(b.offset))
	}
	return sb
}

func (b *Builder) applyWhere(sb squirrel.SelectBuilder) squirrel.SelectBuilder {
	for _, cond := range b.where {
		sb = sb.Where(cond)
	}
	return sb
}

// ToSQL compiles the select statement without running it.
func (b *Builder) ToSQL() (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	return b.selectBuilder().ToSql()
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 && values[0] != "" {
		return values[0]
	}
	return fallback
}
