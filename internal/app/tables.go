// Package app is the music catalogue the CLI manages: users own songs,
// songs carry tags, and notes annotate a song for a user.
package app

import "github.com/Rana718/quarry/internal/schema"

var (
	Users = schema.Define("users", func(t *schema.Blueprint) {
		t.ID()
		t.String("name")
		t.String("email").Unique()
		t.String("password")
		t.Enum("role", []string{"listener", "artist", "admin"}).Default("listener")
		t.Timestamps()
	})

	Songs = schema.Define("songs", func(t *schema.Blueprint) {
		t.ID()
		t.String("title")
		t.Integer("duration").Comment("seconds")
		t.ForeignID("user_id").Constrained().Cascade()
		t.Timestamps()
	})

	Tags = schema.Define("tags", func(t *schema.Blueprint) {
		t.ID()
		t.String("name", 255).Unique()
		t.Text("description").Nullable()
		t.Timestamps()
	})

	Notes = schema.Define("notes", func(t *schema.Blueprint) {
		t.ID()
		t.Text("body")
		t.ForeignID("user_id").Constrained().Cascade()
		t.ForeignID("song_id").Constrained().Cascade()
		t.Timestamps()
	})

	SongTag = schema.Define("song_tag", func(t *schema.Blueprint) {
		t.ID()
		t.ForeignID("song_id").Constrained().Cascade()
		t.ForeignID("tag_id").Constrained().Cascade()
		t.UniqueIndex([]string{"song_id", "tag_id"})
	})
)

// Migrations returns the catalogue's migrations in the order they run.
func Migrations() []schema.Migration {
	return []schema.Migration{
		schema.CreateTable("0001_create_users_table", Users),
		schema.CreateTable("0002_create_songs_table", Songs),
		schema.CreateTable("0003_create_tags_table", Tags),
		schema.CreateTable("0004_create_notes_table", Notes),
		schema.CreateTable("0005_create_song_tag_table", SongTag),
	}
}
