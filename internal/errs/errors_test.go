package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "sentinel", err: fmt.Errorf("describe users: %w", ErrTableNotFound), want: true},
		{name: "postgres message", err: errors.New(`relation "users" does not exist`), want: true},
		{name: "mysql message", err: errors.New("Error 1146: Table 'app.users' doesn't exist"), want: true},
		{name: "sqlite message", err: errors.New("no such table: users"), want: true},
		{name: "other failure", err: errors.New("connection refused"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}
}

func TestExecutionErrorUnwrap(t *testing.T) {
	cause := errors.New("syntax error")
	err := Execution("create table", "tags", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to create table tags: syntax error", err.Error())
	assert.NoError(t, Execution("create table", "tags", nil))
}

func TestTypedErrors(t *testing.T) {
	ce := Construction("tags", "", "composite index needs at least 2 columns, got %d", 1)
	assert.True(t, IsConstruction(fmt.Errorf("wrapped: %w", ce)))
	assert.Contains(t, ce.Error(), "composite index")

	de := &DuplicateEntryError{Table: "tags", Fields: []string{"name"}, Values: []any{"rock"}}
	assert.True(t, IsDuplicate(de))
	assert.Equal(t, "duplicate entry in tags (name=rock)", de.Error())

	cause := errors.New("UNIQUE constraint failed: tags.name")
	de = &DuplicateEntryError{Table: "tags", Err: cause}
	assert.ErrorIs(t, de, cause)
	assert.Equal(t, "duplicate entry in tags: UNIQUE constraint failed: tags.name", de.Error())
}
