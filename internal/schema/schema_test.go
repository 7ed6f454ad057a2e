package schema

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Rana718/quarry/internal/database/mysql"
	"github.com/Rana718/quarry/internal/errs"
	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockSchema(t *testing.T) (*Schema, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(mysql.NewWithDB(db)), mock
}

func TestCreateRunsStagesInOrder(t *testing.T) {
	s, mock := newMockSchema(t)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE `songs`")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX `songs_title_index` ON `songs`")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("ALTER TABLE `songs` ADD CONSTRAINT `fk_songs_user_id` FOREIGN KEY (`user_id`) REFERENCES `users`(`id`) ON DELETE CASCADE ON UPDATE CASCADE")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Create(context.Background(), "songs", func(t *Blueprint) {
		t.ID()
		t.String("title").Index()
		t.ForeignID("user_id").Constrained().Cascade()
		t.Timestamps()
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateStopsAtFailingStage(t *testing.T) {
	s, mock := newMockSchema(t)

	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE UNIQUE INDEX").WillReturnError(errors.New("disk full"))

	err := s.Create(context.Background(), "tags", func(t *Blueprint) {
		t.ID()
		t.String("name").Unique()
		t.ForeignID("owner_id").References("users", "id")
	})
	require.Error(t, err)

	var execErr *errs.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "add index", execErr.Op)
	assert.Equal(t, "tags", execErr.Table)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConstructionErrorsNeverReachStore(t *testing.T) {
	tests := []struct {
		name string
		fn   func(*Blueprint)
	}{
		{"composite arity", func(t *Blueprint) {
			t.ID()
			t.String("a")
			t.Composite([]string{"a"})
		}},
		{"second primary key", func(t *Blueprint) {
			t.ID()
			t.UUIDPrimary("uuid")
		}},
		{"empty enum", func(t *Blueprint) {
			t.ID()
			t.Enum("status", nil)
		}},
		{"missing primary key", func(t *Blueprint) {
			t.String("name")
		}},
		{"nullable primary key", func(t *Blueprint) {
			t.ID().Nullable()
		}},
		{"index on undeclared column", func(t *Blueprint) {
			t.ID()
			t.String("title")
			t.Index([]string{"missing_column"})
		}},
		{"partial index on undeclared column", func(t *Blueprint) {
			t.ID()
			t.Partial([]string{"deleted_at"}, "deleted_at IS NULL")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockSchema(t)
			err := s.Create(context.Background(), "widgets", tt.fn)
			require.Error(t, err)
			assert.True(t, errs.IsConstruction(err), "got %v", err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCompositeIndexArity(t *testing.T) {
	bp := NewBlueprint("songs")
	bp.ID()
	require.Error(t, bp.Composite([]string{"a"}))

	bp = NewBlueprint("songs")
	bp.ID()
	bp.String("a")
	bp.String("b")
	require.NoError(t, bp.Composite([]string{"a", "b"}))
	require.NoError(t, bp.Err())
	assert.Equal(t, "songs_a_b_index", bp.Table().Indexes[0].Name)
}

func TestStickyErrorKeepsFirst(t *testing.T) {
	bp := NewBlueprint("songs")
	bp.ID()
	bp.Composite([]string{"only"})
	bp.Partial([]string{"title"}, "  ")

	var ce *errs.ConstructionError
	require.ErrorAs(t, bp.Err(), &ce)
	assert.Contains(t, ce.Reason, "composite")
}

func TestForeignKeyRegisteredAtReferences(t *testing.T) {
	bp := NewBlueprint("notes")
	bp.ID()
	fk := bp.ForeignID("user_id")
	assert.Empty(t, bp.Table().ForeignKeys)

	fk.OnDelete("cascade")
	assert.Empty(t, bp.Table().ForeignKeys)

	fk.References("users", "id").ConstraintName("notes_owner")
	fks := bp.Table().ForeignKeys
	require.Len(t, fks, 1)
	assert.Equal(t, "notes_owner", fks[0].Name)
	assert.Equal(t, "users", fks[0].RefTable)
	assert.Equal(t, Cascade, fks[0].OnDelete)

	col, found := bp.Table().Column("user_id")
	require.True(t, found)
	assert.Equal(t, "users", col.ForeignKeyTable)
	assert.True(t, col.Unsigned)
}

func TestConstrainedInfersTable(t *testing.T) {
	bp := NewBlueprint("song_tag")
	bp.ID()
	bp.ForeignID("category_id").Constrained().NullOnDelete()

	fk := bp.Table().ForeignKeys[0]
	assert.Equal(t, "categories", fk.RefTable)
	assert.Equal(t, "id", fk.RefColumn)
	assert.Equal(t, SetNull, fk.OnDelete)

	col, _ := bp.Table().Column("category_id")
	assert.True(t, col.Nullable)
}

func TestAlterOrder(t *testing.T) {
	s, mock := newMockSchema(t)

	mock.ExpectExec(regexp.QuoteMeta("ALTER TABLE `users` DROP FOREIGN KEY `fk_users_team_id`")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DROP INDEX `users_name_index` ON `users`")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("ALTER TABLE `users` ADD COLUMN `nickname` VARCHAR(50) AFTER `name`")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("ALTER TABLE `users` DROP COLUMN `team_id`")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX `users_nickname_index`")).WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Table(context.Background(), "users", func(t *Blueprint) {
		t.DropForeign("fk_users_team_id")
		t.DropIndex("users_name_index")
		t.String("nickname", 50).Nullable().After("name").Index()
		t.DropColumn("team_id")
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDropOnlyOnCreate(t *testing.T) {
	bp := NewBlueprint("users")
	bp.ID()
	require.Error(t, bp.DropColumn("name"))
	assert.True(t, errs.IsConstruction(bp.Err()))
}

func TestDropSwallowsOnlyNotFound(t *testing.T) {
	ctx := context.Background()

	t.Run("missing table", func(t *testing.T) {
		s, mock := newMockSchema(t)
		mock.ExpectExec(regexp.QuoteMeta("DROP TABLE `ghosts`")).
			WillReturnError(&mysqldrv.MySQLError{Number: 1051, Message: "Unknown table 'ghosts'"})
		assert.NoError(t, s.Drop(ctx, "ghosts"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("if exists", func(t *testing.T) {
		s, mock := newMockSchema(t)
		mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS `ghosts`")).WillReturnResult(sqlmock.NewResult(0, 0))
		assert.NoError(t, s.DropIfExists(ctx, "ghosts"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other failure", func(t *testing.T) {
		s, mock := newMockSchema(t)
		mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS `users`")).
			WillReturnError(&mysqldrv.MySQLError{Number: 1142, Message: "DROP command denied"})

		err := s.DropIfExists(ctx, "users")
		require.Error(t, err)
		var execErr *errs.ExecutionError
		require.ErrorAs(t, err, &execErr)
		assert.Equal(t, "drop table", execErr.Op)
	})
}

func TestHasTable(t *testing.T) {
	ctx := context.Background()

	t.Run("missing", func(t *testing.T) {
		s, mock := newMockSchema(t)
		mock.ExpectQuery("information_schema.columns").WithArgs("ghosts").
			WillReturnRows(sqlmock.NewRows([]string{"column_name"}))

		exists, err := s.HasTable(ctx, "ghosts")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("other errors are returned", func(t *testing.T) {
		s, mock := newMockSchema(t)
		mock.ExpectQuery("information_schema.columns").WithArgs("users").
			WillReturnError(errors.New("connection reset by peer"))

		exists, err := s.HasTable(ctx, "users")
		require.Error(t, err)
		assert.False(t, exists)
		assert.Contains(t, err.Error(), "connection reset by peer")
	})
}

func TestInvalidIdentifier(t *testing.T) {
	s, mock := newMockSchema(t)
	err := s.Create(context.Background(), "users; DROP TABLE x", func(t *Blueprint) { t.ID() })
	assert.ErrorIs(t, err, errs.ErrInvalidIdentifier)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteUnknownDirection(t *testing.T) {
	m := NewMigration("noop", func(context.Context, *Schema) error { return nil }, nil)

	err := Execute(context.Background(), m, nil, Direction("sideways"))
	assert.ErrorIs(t, err, errs.ErrUnknownDirection)

	err = Execute(context.Background(), m, nil, Down)
	assert.ErrorContains(t, err, "cannot be rolled back")
}

func TestDefinitionTable(t *testing.T) {
	def := Define("tags", func(t *Blueprint) {
		t.ID()
		t.String("name", 255).Unique()
		t.Text("description").Nullable()
		t.Timestamps()
	})

	table, err := def.Table("postgresql")
	require.NoError(t, err)
	assert.Equal(t, "id", table.PrimaryKey())
	require.Len(t, table.Columns, 5)
	require.Len(t, table.Indexes, 1)
	assert.Equal(t, "tags_name_unique", table.Indexes[0].Name)
	assert.True(t, table.Indexes[0].Unique)
}
