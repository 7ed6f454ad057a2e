package schema

import (
	"context"
	"fmt"
	"testing"

	"github.com/Rana718/quarry/internal/database/sqlite"
	"github.com/Rana718/quarry/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *Schema {
	t.Helper()
	store := sqlite.New()
	url := fmt.Sprintf("sqlite://file:%s?mode=memory&cache=shared", t.Name())
	require.NoError(t, store.Connect(context.Background(), url))
	t.Cleanup(func() { store.Close() })
	return New(store)
}

var (
	usersDef = Define("users", func(t *Blueprint) {
		t.ID()
		t.String("name")
		t.String("email").Unique()
		t.Timestamps()
	})
	songsDef = Define("songs", func(t *Blueprint) {
		t.ID()
		t.String("title")
		t.ForeignID("user_id").Constrained().Cascade()
		t.Timestamps()
	})
)

func TestCreateTagsTable(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	err := s.Create(ctx, "tags", func(t *Blueprint) {
		t.ID()
		t.String("name", 255).Unique()
		t.Text("description").Nullable()
		t.Timestamps()
	})
	require.NoError(t, err)

	exists, err := s.HasTable(ctx, "tags")
	require.NoError(t, err)
	assert.True(t, exists)

	cols, err := s.Store().DescribeTable(ctx, "tags")
	require.NoError(t, err)
	byName := map[string]bool{}
	for _, c := range cols {
		byName[c.Name] = c.IsUnique
	}
	assert.True(t, byName["name"], "name should carry a unique index")
	assert.False(t, byName["description"])

	has, err := s.HasColumn(ctx, "tags", "description")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, s.Rename(ctx, "tags", "labels"))
	exists, err = s.HasTable(ctx, "tags")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.DropIfExists(ctx, "labels"))
	require.NoError(t, s.Drop(ctx, "labels"))
}

func TestFailedBuildRollsBackOnTransactionalStore(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	require.NoError(t, s.Create(ctx, "tags", func(t *Blueprint) {
		t.ID()
		t.String("name").Index("shared_name_index")
	}))

	// The table stage succeeds; the index stage collides with the tags index.
	err := s.Create(ctx, "songs", func(t *Blueprint) {
		t.ID()
		t.String("title").Index("shared_name_index")
	})
	var execErr *errs.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "add index", execErr.Op)

	exists, err := s.HasTable(ctx, "songs")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRunnerMigrateAndRollback(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	r := NewRunner(s)
	require.NoError(t, r.Register(
		CreateTable("0001_create_users", usersDef),
		CreateTable("0002_create_songs", songsDef),
	))
	assert.Error(t, r.Register(CreateTable("0001_create_users", usersDef)))

	ran, err := r.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_create_users", "0002_create_songs"}, ran)

	ran, err = r.Migrate(ctx)
	require.NoError(t, err)
	assert.Empty(t, ran)

	status, err := r.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, status.AppliedMigrations)
	assert.Equal(t, 0, status.PendingMigrations)
	assert.Equal(t, 1, status.Migrations[1].Batch)

	require.NoError(t, r.Register(NewMigration("0003_add_nickname",
		func(ctx context.Context, s *Schema) error {
			return s.Table(ctx, "users", func(t *Blueprint) { t.String("nickname").Nullable() })
		},
		func(ctx context.Context, s *Schema) error {
			return s.Table(ctx, "users", func(t *Blueprint) { t.DropColumn("nickname") })
		},
	)))
	ran, err = r.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0003_add_nickname"}, ran)

	has, err := s.HasColumn(ctx, "users", "nickname")
	require.NoError(t, err)
	assert.True(t, has)

	reverted, err := r.Rollback(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"0003_add_nickname"}, reverted)

	reverted, err = r.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0002_create_songs", "0001_create_users"}, reverted)

	exists, err := s.HasTable(ctx, "users")
	require.NoError(t, err)
	assert.False(t, exists)
}
