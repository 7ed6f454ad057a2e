package query

import (
	"testing"

	"github.com/Rana718/quarry/internal/database/sqlite"
	"github.com/Rana718/quarry/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func users() *Builder {
	return New(sqlite.New(), "users")
}

func TestToSQL(t *testing.T) {
	tests := []struct {
		name     string
		builder  *Builder
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "where calls compose as AND",
			builder:  users().Where("age", ">", 18).Where("age", "<", 65),
			wantSQL:  "SELECT * FROM users WHERE age > ? AND age < ?",
			wantArgs: []any{18, 65},
		},
		{
			name:     "implicit equality",
			builder:  users().Where("name", "ada"),
			wantSQL:  "SELECT * FROM users WHERE name = ?",
			wantArgs: []any{"ada"},
		},
		{
			name:     "unknown operator falls back to equality",
			builder:  users().Where("age", "~~", 30),
			wantSQL:  "SELECT * FROM users WHERE age = ?",
			wantArgs: []any{30},
		},
		{
			name:     "orWhere wraps previous conditions",
			builder:  users().Where("a", 1).Where("b", 2).OrWhere("c", 3).Where("d", 4),
			wantSQL:  "SELECT * FROM users WHERE ((a = ? AND b = ?) OR c = ?) AND d = ?",
			wantArgs: []any{1, 2, 3, 4},
		},
		{
			name:     "orWhere on empty builder",
			builder:  users().OrWhere("c", 3),
			wantSQL:  "SELECT * FROM users WHERE c = ?",
			wantArgs: []any{3},
		},
		{
			name:     "where map in key order",
			builder:  users().WhereMap(map[string]any{"role": "admin", "active": true}),
			wantSQL:  "SELECT * FROM users WHERE active = ? AND role = ?",
			wantArgs: []any{true, "admin"},
		},
		{
			name:     "in and null helpers",
			builder:  users().WhereIn("id", 1, 2).WhereNotIn("role", "banned").WhereNull("deleted_at").WhereNotNull("email"),
			wantSQL:  "SELECT * FROM users WHERE id IN (?,?) AND role NOT IN (?) AND deleted_at IS NULL AND email IS NOT NULL",
			wantArgs: []any{1, 2, "banned"},
		},
		{
			name:     "ilike lowers both sides",
			builder:  users().Where("name", "ilike", "%ADA%"),
			wantSQL:  "SELECT * FROM users WHERE LOWER(name) LIKE ?",
			wantArgs: []any{"%ada%"},
		},
		{
			name:     "search ORs lowered LIKE over fields",
			builder:  New(sqlite.New(), "tags").Search("Rock", []string{"name", "description"}),
			wantSQL:  "SELECT * FROM tags WHERE (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)",
			wantArgs: []any{"%rock%", "%rock%"},
		},
		{
			name:     "empty search is a no-op",
			builder:  users().Search("  ", []string{"name"}).Search("x", nil),
			wantSQL:  "SELECT * FROM users",
			wantArgs: []any{},
		},
		{
			name:     "second page",
			builder:  users().Paginate(2, 10),
			wantSQL:  "SELECT * FROM users LIMIT 10 OFFSET 10",
			wantArgs: []any{},
		},
		{
			name:     "first page has no offset",
			builder:  users().Paginate(1, 10),
			wantSQL:  "SELECT * FROM users LIMIT 10",
			wantArgs: []any{},
		},
		{
			name:     "page below one is clamped",
			builder:  users().Paginate(-3, 0),
			wantSQL:  "SELECT * FROM users LIMIT 10",
			wantArgs: []any{},
		},
		{
			name:     "ordering and columns",
			builder:  users().Select("id", "name").OrderByAsc("name").Latest(),
			wantSQL:  "SELECT id, name FROM users ORDER BY name ASC, created_at DESC",
			wantArgs: []any{},
		},
		{
			name:     "when applies only on true",
			builder:  users().When(false, func(b *Builder) *Builder { return b.Where("x", 1) }).When(true, func(b *Builder) *Builder { return b.Oldest("id") }),
			wantSQL:  "SELECT * FROM users ORDER BY id ASC",
			wantArgs: []any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := tt.builder.ToSQL()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			if len(tt.wantArgs) == 0 {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestBuilderIsImmutable(t *testing.T) {
	base := users().Where("active", true)
	adults := base.Where("age", ">=", 18)
	_ = base.OrWhere("role", "admin")
	_ = base.Limit(5)

	sql, _, err := base.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users WHERE active = ?", sql)

	sql, _, err = adults.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users WHERE active = ? AND age >= ?", sql)
}

func TestIncludeForms(t *testing.T) {
	short := users().With("songs:title, created_at", "profile")
	structured := users().Include(
		Include{Relation: "songs", Fields: []string{"title", "created_at"}},
		Include{Relation: "profile"},
	)
	assert.Equal(t, structured.Includes(), short.Includes())

	replaced := short.With("songs")
	assert.Equal(t, []Include{{Relation: "songs"}, {Relation: "profile"}}, replaced.Includes())
}

func TestDeferredErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder *Builder
	}{
		{"bad field", users().Where("name; DROP TABLE users", 1)},
		{"bad table", New(sqlite.New(), "users--")},
		{"bad order direction", users().OrderBy("name", "sideways")},
		{"bad select", users().Select("count(*)")},
		{"missing value", users().Where("name")},
		{"non-string operator", users().Where("age", 1, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.builder.ToSQL()
			require.Error(t, err)
			assert.Error(t, tt.builder.Where("later", 1).Err(), "error must stick through the chain")
		})
	}

	_, _, err := users().Where("bad name", 1).ToSQL()
	assert.ErrorIs(t, err, errs.ErrInvalidIdentifier)
}
