package factory

import (
	"context"
	"fmt"
	"testing"

	"github.com/Rana718/quarry/internal/database/common"
	"github.com/Rana718/quarry/internal/database/sqlite"
	"github.com/Rana718/quarry/internal/model"
	"github.com/Rana718/quarry/internal/query"
	"github.com/Rana718/quarry/internal/schema"
	"github.com/Rana718/quarry/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tables = []*schema.Definition{
	schema.Define("users", func(t *schema.Blueprint) {
		t.ID()
		t.String("name")
		t.String("email").Unique()
		t.String("password")
		t.Timestamps()
	}),
	schema.Define("songs", func(t *schema.Blueprint) {
		t.ID()
		t.String("title")
		t.ForeignID("user_id").Constrained().Cascade()
		t.Timestamps()
	}),
	schema.Define("notes", func(t *schema.Blueprint) {
		t.ID()
		t.Text("body")
		t.ForeignID("user_id").Constrained()
		t.ForeignID("song_id").Constrained()
	}),
	schema.Define("tags", func(t *schema.Blueprint) {
		t.ID()
		t.String("name", 40).Unique()
	}),
	schema.Define("song_tag", func(t *schema.Blueprint) {
		t.ID()
		t.ForeignID("song_id").Constrained()
		t.ForeignID("tag_id").Constrained()
		t.Boolean("featured").Default(false)
	}),
}

type fixture struct {
	store     *sqlite.Adapter
	factories *Registry
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	store := sqlite.New()
	require.NoError(t, store.Connect(ctx, fmt.Sprintf("sqlite://file:%s?mode=memory&cache=shared", t.Name())))
	t.Cleanup(func() { store.Close() })

	s := schema.New(store)
	for _, def := range tables {
		require.NoError(t, s.CreateFrom(ctx, def))
	}

	models := model.NewRegistry()
	require.NoError(t, models.Register(model.Definition{
		Name: "User", Fillable: []string{"name", "email", "password"}, Timestamps: true, Schema: tables[0],
		Relations: []types.Relation{{Name: "songs", Kind: types.HasMany, Model: "Song"}},
	}))
	require.NoError(t, models.Register(model.Definition{
		Name: "Song", Fillable: []string{"title", "user_id"}, Timestamps: true, Schema: tables[1],
		Relations: []types.Relation{
			{Name: "user", Kind: types.BelongsTo, Model: "User"},
			{Name: "tags", Kind: types.BelongsToMany, Model: "Tag"},
		},
	}))
	require.NoError(t, models.Register(model.Definition{
		Name: "Note", Fillable: []string{"body", "user_id", "song_id"}, Schema: tables[2],
		Relations: []types.Relation{
			{Name: "user", Kind: types.BelongsTo, Model: "User"},
			{Name: "song", Kind: types.BelongsTo, Model: "Song"},
		},
	}))
	require.NoError(t, models.Register(model.Definition{Name: "Tag", Fillable: []string{"name"}, Schema: tables[3]}))
	require.NoError(t, models.Boot(store.Provider()))

	reg := NewRegistry(models, WithFaker(NewSeededFaker(42)))
	require.NoError(t, reg.Define("User", func(f *Faker) map[string]any {
		return map[string]any{"name": f.Name(), "email": f.Email()}
	}, WithState("admin", func(_ types.Record, _ *Faker) map[string]any {
		return map[string]any{"name": "Admin"}
	})))
	require.NoError(t, reg.Define("Song", func(f *Faker) map[string]any {
		return map[string]any{"title": f.Title(), "user_id": reg.New("User")}
	}))
	require.NoError(t, reg.Define("Note", func(f *Faker) map[string]any {
		return map[string]any{"body": f.Sentence()}
	}))
	require.NoError(t, reg.Define("Tag", func(*Faker) map[string]any { return nil }))

	return fixture{store: store, factories: reg}
}

func (fx fixture) count(t *testing.T, table string) int64 {
	t.Helper()
	n, err := query.New(fx.store, table).Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestCountSemantics(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	out, err := fx.factories.New("User").Count(3).Create(ctx, fx.store)
	require.NoError(t, err)
	assert.False(t, out.Single)
	assert.Len(t, out.Records, 3)

	out, err = fx.factories.New("User").Create(ctx, fx.store)
	require.NoError(t, err)
	assert.True(t, out.Single)
	require.Len(t, out.Records, 1)
	assert.NotNil(t, out.Record()["id"])

	out, err = fx.factories.New("User").Count(0).Create(ctx, fx.store)
	require.NoError(t, err)
	assert.False(t, out.Single)
	assert.Empty(t, out.Records)

	assert.Equal(t, int64(4), fx.count(t, "users"))
}

func TestStateIsCopyOnWrite(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	base := fx.factories.New("User")
	admin := base.Named("admin")
	renamed := admin.State(func(cur types.Record, _ *Faker) map[string]any {
		return map[string]any{"name": cur["name"].(string) + " Root"}
	})

	out, err := base.Make(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, "Admin", out.Record()["name"])

	out, err = admin.Make(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Admin", out.Record()["name"])

	out, err = renamed.Make(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Admin Root", out.Record()["name"])

	assert.Empty(t, base.states)
	assert.Len(t, admin.states, 1)

	_, err = base.Named("ghost").Make(ctx)
	assert.ErrorContains(t, err, `no state "ghost"`)
	_, err = fx.factories.New("Album").Make(ctx)
	assert.ErrorContains(t, err, "no factory defined")
}

func TestSequenceCycles(t *testing.T) {
	fx := setup(t)
	out, err := fx.factories.New("Tag").Count(3).
		Sequence(map[string]any{"name": "rock"}, map[string]any{"name": "jazz"}).
		Make(context.Background())
	require.NoError(t, err)

	var names []any
	for _, rec := range out.Records {
		names = append(names, rec["name"])
	}
	assert.Equal(t, []any{"rock", "jazz", "rock"}, names)
}

func TestFakerFillsRequiredColumns(t *testing.T) {
	fx := setup(t)
	out, err := fx.factories.New("User").Create(context.Background(), fx.store)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Record()["password"])

	tags, err := fx.factories.New("Tag").Count(5).Create(context.Background(), fx.store)
	require.NoError(t, err)
	seen := map[any]bool{}
	for _, rec := range tags.Records {
		seen[rec["name"]] = true
	}
	assert.Len(t, seen, 5, "unique columns get distinct values")
}

func TestForCreatesParentsFirst(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	f := fx.factories

	out, err := f.New("Note").For("user", f.New("User")).For("song", f.New("Song")).Create(ctx, fx.store)
	require.NoError(t, err)
	note := out.Record()

	user, err := query.New(fx.store, "users").Where("id", note["user_id"]).First(ctx)
	require.NoError(t, err)
	song, err := query.New(fx.store, "songs").Where("id", note["song_id"]).First(ctx)
	require.NoError(t, err)
	assert.Equal(t, note["user_id"], user["id"])
	assert.Equal(t, note["song_id"], song["id"])

	// The song built its own owner through its definition.
	assert.Equal(t, int64(2), fx.count(t, "users"))
}

func TestRecycleNeverCreatesSecondParent(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	f := fx.factories

	owner, err := f.New("User").Create(ctx, fx.store)
	require.NoError(t, err)

	notes := f.New("Note").Recycle("User", owner.Record()).For("user", f.New("User")).For("song", f.New("Song"))
	for i := 0; i < 2; i++ {
		out, err := notes.Create(ctx, fx.store)
		require.NoError(t, err)
		assert.Equal(t, owner.Record()["id"], out.Record()["user_id"])
	}

	assert.Equal(t, int64(1), fx.count(t, "users"))
	assert.Equal(t, int64(2), fx.count(t, "songs"))

	// An empty pool falls back to fresh rows.
	_, err = f.New("Note").Recycle("User").For("user", f.New("User")).For("song", f.New("Song")).Create(ctx, fx.store)
	require.NoError(t, err)
	assert.Equal(t, int64(3), fx.count(t, "users"))
}

func TestHasRunsAfterOwnerAndBeforeAfterCreating(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	f := fx.factories

	var childParents []types.Record
	songs := f.New("Song").Count(2).AfterCreating(func(_ context.Context, _ common.Executor, _, parent types.Record) error {
		childParents = append(childParents, parent)
		return nil
	})

	var songsAtHook int64
	out, err := f.New("User").Has("songs", songs).
		AfterCreating(func(ctx context.Context, exec common.Executor, rec, parent types.Record) error {
			assert.Nil(t, parent)
			n, err := query.New(exec, "songs").Where("user_id", rec["id"]).Count(ctx)
			songsAtHook = n
			return err
		}).
		Create(ctx, fx.store)
	require.NoError(t, err)

	assert.Equal(t, int64(2), songsAtHook)
	require.Len(t, childParents, 2)
	assert.Equal(t, out.Record()["id"], childParents[0]["id"])
	assert.Equal(t, int64(1), fx.count(t, "users"), "children reuse the owner instead of their own user factory")
}

func TestHasAttachedWritesPivotRows(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	f := fx.factories

	out, err := f.New("Song").HasAttached("tags", f.New("Tag").Count(2), map[string]any{"featured": true}).Create(ctx, fx.store)
	require.NoError(t, err)

	rows, err := query.New(fx.store, "song_tag").Where("song_id", out.Record()["id"]).Where("featured", true).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)
}

func TestMakePersistsNothing(t *testing.T) {
	fx := setup(t)
	f := fx.factories

	out, err := f.New("Note").For("user", f.New("User")).Make(context.Background())
	require.NoError(t, err)

	note := out.Record()
	assert.NotContains(t, note, "user_id")
	assert.Equal(t, "Admin", mustMake(t, f.New("User").Named("admin"))["name"])
	require.IsType(t, types.Record{}, note["user"])
	assert.Equal(t, int64(0), fx.count(t, "users"))
	assert.Equal(t, int64(0), fx.count(t, "notes"))

	owner := types.Record{"id": int64(7), "name": "ada"}
	songs, err := f.New("Song").ForRecord("user", owner).Count(2).Make(context.Background())
	require.NoError(t, err)
	for _, s := range songs.Records {
		assert.Equal(t, int64(7), s["user_id"])
	}
}

func mustMake(t *testing.T, f *Factory) types.Record {
	t.Helper()
	out, err := f.Make(context.Background())
	require.NoError(t, err)
	return out.Record()
}
