package query

import (
	"context"
	"fmt"
	"testing"

	"github.com/Rana718/quarry/internal/database/sqlite"
	"github.com/Rana718/quarry/internal/errs"
	"github.com/Rana718/quarry/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureSQL = `
CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, email TEXT);
CREATE TABLE songs (id INTEGER PRIMARY KEY AUTOINCREMENT, title TEXT NOT NULL, user_id INTEGER REFERENCES users(id), created_at TIMESTAMP);
CREATE TABLE tags (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, description TEXT);
CREATE TABLE song_tag (id INTEGER PRIMARY KEY AUTOINCREMENT, song_id INTEGER, tag_id INTEGER);

INSERT INTO users (name, email) VALUES ('ada', 'ada@example.com'), ('linus', 'linus@example.com'), ('grace', NULL);
INSERT INTO songs (title, user_id, created_at) VALUES
	('Paranoid', 1, '2024-01-01 10:00:00'),
	('Iron Man', 1, '2024-02-01 10:00:00'),
	('Kernel Blues', 2, '2024-03-01 10:00:00');
INSERT INTO tags (name, description) VALUES
	('Rock', 'guitars'),
	('Jazz', 'smooth, not rock at all'),
	('Punk ROCK', NULL),
	('Ambient', 'quiet');
INSERT INTO song_tag (song_id, tag_id) VALUES (1, 1), (1, 3), (2, 1), (3, 2);
`

func openStore(t *testing.T) *sqlite.Adapter {
	t.Helper()
	ctx := context.Background()
	store := sqlite.New()
	url := fmt.Sprintf("sqlite://file:%s?mode=memory&cache=shared", t.Name())
	require.NoError(t, store.Connect(ctx, url))
	t.Cleanup(func() { store.Close() })

	_, err := store.Exec(ctx, fixtureSQL)
	require.NoError(t, err)
	return store
}

var songMeta = Meta{
	PrimaryKey: "id",
	Relations: map[string]types.Relation{
		"user": {Name: "user", Kind: types.BelongsTo, Table: "users", ForeignKey: "user_id", OwnerKey: "id"},
		"tags": {Name: "tags", Kind: types.BelongsToMany, Table: "tags", PivotTable: "song_tag", ForeignPivotKey: "song_id", RelatedPivotKey: "tag_id"},
	},
}

var userMeta = Meta{
	PrimaryKey: "id",
	Relations: map[string]types.Relation{
		"songs":     {Name: "songs", Kind: types.HasMany, Table: "songs", ForeignKey: "user_id"},
		"firstSong": {Name: "firstSong", Kind: types.HasOne, Table: "songs", ForeignKey: "user_id"},
	},
}

func TestSearchOrderPaginate(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	rows, err := New(store, "tags").
		Search("rock", []string{"name", "description"}).
		OrderBy("name", "ASC").
		Paginate(1, 10).
		Get(ctx)
	require.NoError(t, err)

	var names []string
	for _, r := range rows {
		names = append(names, r["name"].(string))
	}
	assert.Equal(t, []string{"Jazz", "Punk ROCK", "Rock"}, names)

	rows, err = New(store, "tags").OrderBy("name", "ASC").Paginate(2, 3).Get(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Rock", rows[0]["name"])
}

func TestAggregates(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	songs := New(store, "songs", WithMeta(songMeta))

	n, err := songs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = songs.Limit(1).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n, "count ignores pagination")

	n, err = songs.CountDistinct(ctx, "user_id")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ok, err := songs.Where("title", "like", "%Man%").Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = songs.Where("user_id", 3).Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFirst(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	song, err := New(store, "songs").Latest().First(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Kernel Blues", song["title"])

	_, err = New(store, "songs").Where("title", "Nope").First(ctx)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestReexecutionRunsAgain(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	q := New(store, "users").Where("email", "is", nil)

	first, err := q.Get(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	_, err = store.Exec(ctx, "UPDATE users SET email = NULL WHERE name = 'linus'")
	require.NoError(t, err)

	second, err := q.Execute(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 2)
}

func TestWrites(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	q := New(store, "users")

	id, err := q.Insert(ctx, map[string]any{"name": "margaret", "email": "mh@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), id)

	changed, err := q.Where("name", "margaret").Update(ctx, map[string]any{"email": "hamilton@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	row, err := q.Where("id", id).First(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hamilton@example.com", row["email"])

	removed, err := q.WhereIn("id", id).Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = q.Update(ctx, nil)
	assert.Error(t, err)
}

func TestEagerLoading(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	t.Run("belongsTo with fields", func(t *testing.T) {
		songs, err := New(store, "songs", WithMeta(songMeta)).With("user:name").OrderByAsc("id").Get(ctx)
		require.NoError(t, err)
		require.Len(t, songs, 3)

		user := songs[0]["user"].(types.Record)
		assert.Equal(t, "ada", user["name"])
		assert.NotContains(t, user, "email")
		assert.Equal(t, "linus", songs[2]["user"].(types.Record)["name"])
	})

	t.Run("hasMany and hasOne", func(t *testing.T) {
		users, err := New(store, "users", WithMeta(userMeta)).With("songs", "firstSong").OrderByAsc("id").Get(ctx)
		require.NoError(t, err)
		require.Len(t, users, 3)

		assert.Len(t, users[0]["songs"], 2)
		assert.Len(t, users[1]["songs"], 1)
		assert.Empty(t, users[2]["songs"])
		assert.NotNil(t, users[0]["firstSong"])
		assert.Nil(t, users[2]["firstSong"])
	})

	t.Run("belongsToMany through pivot", func(t *testing.T) {
		song, err := New(store, "songs", WithMeta(songMeta)).
			Include(Include{Relation: "tags", Fields: []string{"name"}}).
			Where("id", 1).
			First(ctx)
		require.NoError(t, err)

		tags := song["tags"].([]types.Record)
		var names []string
		for _, tag := range tags {
			names = append(names, tag["name"].(string))
		}
		assert.ElementsMatch(t, []string{"Rock", "Punk ROCK"}, names)
	})

	t.Run("unknown relation fails at execution", func(t *testing.T) {
		q := New(store, "songs", WithMeta(songMeta)).With("composer")
		_, _, err := q.ToSQL()
		require.NoError(t, err)

		_, err = q.Where("id", 999).Get(ctx)
		assert.ErrorContains(t, err, `relation "composer"`)
	})
}
