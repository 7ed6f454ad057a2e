package sqlite

import (
	"context"
	"fmt"
	"testing"

	"github.com/Rana718/quarry/internal/database/common"
	"github.com/Rana718/quarry/internal/errs"
	"github.com/Rana718/quarry/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Adapter {
	t.Helper()
	a := New()
	url := fmt.Sprintf("sqlite://file:%s?mode=memory&cache=shared", t.Name())
	require.NoError(t, a.Connect(context.Background(), url))
	t.Cleanup(func() { a.Close() })
	return a
}

func tagsTable() types.SchemaTable {
	return types.SchemaTable{
		Name: "tags",
		Columns: []types.SchemaColumn{
			{Name: "id", Type: types.TypeBigInteger, IsPrimary: true, IsAutoIncrement: true},
			{Name: "name", Type: types.TypeString, Length: 255},
			{Name: "description", Type: types.TypeText, Nullable: true},
			{Name: "created_at", Type: types.TypeTimestamp, Nullable: true, HasDefault: true, Default: "CURRENT_TIMESTAMP", DefaultRaw: true},
		},
	}
}

func TestGenerateCreateTableSQL(t *testing.T) {
	a := New()
	table := tagsTable()
	table.ForeignKeys = []types.ForeignKey{
		{Name: "fk_tags_owner_id", Table: "tags", Column: "owner_id", RefTable: "users", RefColumn: "id", OnDelete: "CASCADE"},
	}

	got, err := a.GenerateCreateTableSQL(table)
	require.NoError(t, err)

	assert.Contains(t, got, `CREATE TABLE "tags" (`)
	assert.Contains(t, got, `"id" INTEGER PRIMARY KEY AUTOINCREMENT`)
	assert.Contains(t, got, `"name" TEXT NOT NULL`)
	assert.Contains(t, got, `"description" TEXT`)
	assert.Contains(t, got, `DEFAULT CURRENT_TIMESTAMP`)
	assert.Contains(t, got, `CONSTRAINT "fk_tags_owner_id" FOREIGN KEY ("owner_id") REFERENCES "users"("id") ON DELETE CASCADE`)
}

func TestGenerateIndexSQL(t *testing.T) {
	a := New()

	assert.Equal(t,
		`CREATE UNIQUE INDEX "tags_name_unique" ON "tags" ("name");`,
		a.GenerateAddIndexSQL(types.SchemaIndex{Name: "tags_name_unique", Table: "tags", Columns: []string{"name"}, Unique: true}))
	assert.Equal(t,
		`CREATE INDEX "tags_live" ON "tags" ("name") WHERE deleted_at IS NULL;`,
		a.GenerateAddIndexSQL(types.SchemaIndex{Name: "tags_live", Table: "tags", Columns: []string{"name"}, Condition: "deleted_at IS NULL"}))
	assert.Empty(t, a.GenerateAddForeignKeySQL(types.ForeignKey{Name: "fk"}))
}

func TestDescribeTable(t *testing.T) {
	ctx := context.Background()
	a := openMemory(t)

	stmt, err := a.GenerateCreateTableSQL(tagsTable())
	require.NoError(t, err)
	_, err = a.Exec(ctx, stmt)
	require.NoError(t, err)
	_, err = a.Exec(ctx, `CREATE UNIQUE INDEX "tags_name_unique" ON "tags" ("name")`)
	require.NoError(t, err)

	cols, err := a.DescribeTable(ctx, "tags")
	require.NoError(t, err)
	require.Len(t, cols, 4)

	assert.Equal(t, "id", cols[0].Name)
	assert.True(t, cols[0].IsPrimary)
	assert.True(t, cols[0].IsAutoIncrement)
	assert.Equal(t, types.TypeText, cols[1].Type)
	assert.True(t, cols[1].IsUnique)
	assert.False(t, cols[1].Nullable)
	assert.True(t, cols[2].Nullable)
	assert.Equal(t, types.TypeDateTime, cols[3].Type)
}

func TestDescribeMissingTable(t *testing.T) {
	a := openMemory(t)

	_, err := a.DescribeTable(context.Background(), "ghosts")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrTableNotFound)
	assert.True(t, errs.IsNotFound(err))

	_, err = a.DescribeTable(context.Background(), "bad name;")
	assert.ErrorIs(t, err, errs.ErrInvalidIdentifier)
}

func TestInsertReturningAndUniqueViolation(t *testing.T) {
	ctx := context.Background()
	a := openMemory(t)

	_, err := a.Exec(ctx, `CREATE TABLE "tags" ("id" INTEGER PRIMARY KEY AUTOINCREMENT, "name" TEXT NOT NULL UNIQUE)`)
	require.NoError(t, err)

	id, err := a.InsertReturning(ctx, "tags", "id", map[string]any{"name": "rock"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, id)

	_, err = a.InsertReturning(ctx, "tags", "id", map[string]any{"name": "rock"})
	require.Error(t, err)
	assert.True(t, a.IsUniqueViolation(err))

	_, err = a.Query(ctx, `SELECT * FROM "missing"`)
	assert.True(t, a.IsTableNotFound(err))
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	a := openMemory(t)

	_, err := a.Exec(ctx, `CREATE TABLE "tags" ("id" INTEGER PRIMARY KEY AUTOINCREMENT, "name" TEXT)`)
	require.NoError(t, err)

	boom := fmt.Errorf("boom")
	err = a.WithTx(ctx, func(tx common.Executor) error {
		if _, err := tx.Exec(ctx, `INSERT INTO "tags" ("name") VALUES (?)`, "rock"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	res, err := a.Query(ctx, `SELECT COUNT(*) AS n FROM "tags"`)
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.Rows[0]["n"])
}
