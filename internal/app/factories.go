package app

import (
	"github.com/Rana718/quarry/internal/factory"
	"github.com/Rana718/quarry/internal/types"
)

// RegisterFactories defines a factory per catalogue model.
func RegisterFactories(f *factory.Registry) error {
	if err := f.Define("User", func(fk *factory.Faker) map[string]any {
		return map[string]any{
			"name":     fk.Name(),
			"email":    fk.Email(),
			"password": fk.UUID(),
			"role":     "listener",
		}
	},
		factory.WithState("artist", func(types.Record, *factory.Faker) map[string]any {
			return map[string]any{"role": "artist"}
		}),
		factory.WithState("admin", func(types.Record, *factory.Faker) map[string]any {
			return map[string]any{"role": "admin"}
		}),
	); err != nil {
		return err
	}

	if err := f.Define("Song", func(fk *factory.Faker) map[string]any {
		return map[string]any{
			"title":    fk.Title(),
			"duration": fk.Int(90, 600),
			"user_id":  f.New("User").Named("artist"),
		}
	}); err != nil {
		return err
	}

	if err := f.Define("Tag", func(fk *factory.Faker) map[string]any {
		return map[string]any{"description": fk.Sentence()}
	}); err != nil {
		return err
	}

	return f.Define("Note", func(fk *factory.Faker) map[string]any {
		return map[string]any{"body": fk.Sentence()}
	})
}
