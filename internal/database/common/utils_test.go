package common

import (
	"testing"
	"time"

	"github.com/Rana718/quarry/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSQLStatements(t *testing.T) {
	script := `
-- seed comment
INSERT INTO tags (name) VALUES ('a;b');
CREATE INDEX idx ON tags (name);
`
	stmts := ParseSQLStatements(script)
	require.Len(t, stmts, 2)
	assert.Equal(t, "INSERT INTO tags (name) VALUES ('a;b')", stmts[0])
	assert.Equal(t, "CREATE INDEX idx ON tags (name)", stmts[1])
}

func TestValidateIdentifiers(t *testing.T) {
	assert.NoError(t, ValidateIdentifiers("users", "created_at", "_x1"))
	err := ValidateIdentifiers("users", "name; DROP TABLE users")
	assert.ErrorIs(t, err, errs.ErrInvalidIdentifier)
	assert.False(t, IsValidIdentifier("1users"))
}

func TestRenderDefault(t *testing.T) {
	assert.Equal(t, "NULL", RenderDefault(nil, false, false))
	assert.Equal(t, "'it''s'", RenderDefault("it's", false, false))
	assert.Equal(t, "TRUE", RenderDefault(true, false, false))
	assert.Equal(t, "0", RenderDefault(false, false, true))
	assert.Equal(t, "42", RenderDefault(42, false, false))
	assert.Equal(t, "CURRENT_TIMESTAMP", RenderDefault("CURRENT_TIMESTAMP", true, false))
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "'2024-01-02 03:04:05'", RenderDefault(ts, false, false))
}

func TestToInt64(t *testing.T) {
	for _, v := range []any{int64(7), 7, int32(7), uint64(7), float64(7), []byte("7"), "7"} {
		n, err := ToInt64(v)
		require.NoError(t, err)
		assert.Equal(t, int64(7), n)
	}
	n, err := ToInt64(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = ToInt64(struct{}{})
	assert.Error(t, err)
}
