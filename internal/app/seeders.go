package app

import (
	"context"
	"fmt"

	"github.com/Rana718/quarry/internal/seeder"
	"github.com/Rana718/quarry/internal/types"
)

var referenceTags = []map[string]any{
	{"name": "rock", "description": "Guitars, drums and attitude"},
	{"name": "jazz", "description": "Improvised and swung"},
	{"name": "punk", "description": "Fast, loud and short"},
	{"name": "ambient", "description": "Background textures"},
	{"name": "soul", "description": "Rhythm and blues with gospel roots"},
}

// Seeders returns the catalogue seeders. Reference data is inserted with
// the duplicate policy; sample data comes from the factories.
func Seeders() []seeder.Seeder {
	return []seeder.Seeder{
		seeder.Func{ID: "tags", Truncates: []string{"tags"}, Fn: seedTags},
		seeder.Func{ID: "users", Truncates: []string{"users"}, Fn: seedUsers},
		seeder.Func{ID: "songs", Requires: []string{"users", "tags"}, Truncates: []string{"songs", "song_tag"}, Fn: seedSongs},
		seeder.Func{ID: "notes", Requires: []string{"users", "songs"}, Truncates: []string{"notes"}, Fn: seedNotes},
	}
}

func seedTags(ctx context.Context, env *seeder.Env) error {
	res, err := env.Insert(ctx, "tags", referenceTags, "name")
	if err != nil {
		return err
	}
	return res.Err()
}

func seedUsers(ctx context.Context, env *seeder.Env) error {
	res, err := env.Insert(ctx, "users", []map[string]any{
		{"name": "Admin", "email": "admin@example.com", "password": "changeme", "role": "admin"},
	}, "email")
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return err
	}

	users := env.Factories.New("User")
	if _, err := users.Named("artist").Count(3).Create(ctx, env.Exec); err != nil {
		return err
	}
	_, err = users.Count(5).Create(ctx, env.Exec)
	return err
}

func seedSongs(ctx context.Context, env *seeder.Env) error {
	users, err := env.Models.Model("User")
	if err != nil {
		return err
	}
	artists, err := users.Query(env.Exec).Where("role", "artist").Get(ctx)
	if err != nil {
		return err
	}

	out, err := env.Factories.New("Song").Count(10).Recycle("User", artists...).Create(ctx, env.Exec)
	if err != nil {
		return err
	}

	tags, err := env.Models.Model("Tag")
	if err != nil {
		return err
	}
	all, err := tags.Query(env.Exec).Select("id").OrderByAsc("id").Get(ctx)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		return nil
	}

	var links []map[string]any
	for i, song := range out.Records {
		for j := 0; j < 2 && j < len(all); j++ {
			tag := all[(i+j)%len(all)]
			links = append(links, map[string]any{"song_id": song["id"], "tag_id": tag["id"]})
		}
	}
	opts := env.Defaults
	opts.Timestamps = false
	res, err := env.Ops.SafeInsert(ctx, "song_tag", links, opts)
	if err != nil {
		return err
	}
	return res.Err()
}

func seedNotes(ctx context.Context, env *seeder.Env) error {
	pool := func(name string) ([]types.Record, error) {
		m, err := env.Models.Model(name)
		if err != nil {
			return nil, err
		}
		return m.Query(env.Exec).Get(ctx)
	}
	users, err := pool("User")
	if err != nil {
		return err
	}
	songs, err := pool("Song")
	if err != nil {
		return err
	}
	if len(users) == 0 || len(songs) == 0 {
		return fmt.Errorf("notes need users and songs to exist")
	}

	f := env.Factories
	_, err = f.New("Note").
		Recycle("User", users...).
		Recycle("Song", songs...).
		StateAttrs(map[string]any{"user_id": f.New("User"), "song_id": f.New("Song")}).
		Count(20).
		Create(ctx, env.Exec)
	return err
}
