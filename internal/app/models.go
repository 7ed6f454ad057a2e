package app

import (
	"github.com/Rana718/quarry/internal/model"
	"github.com/Rana718/quarry/internal/types"
)

func modelDefinitions() []model.Definition {
	return []model.Definition{
		{
			Name:       "User",
			Fillable:   []string{"name", "email", "password", "role"},
			Timestamps: true,
			Schema:     Users,
			Relations: []types.Relation{
				{Name: "songs", Kind: types.HasMany, Model: "Song"},
				{Name: "notes", Kind: types.HasMany, Model: "Note"},
			},
		},
		{
			Name:       "Song",
			Fillable:   []string{"title", "duration", "user_id"},
			Timestamps: true,
			Schema:     Songs,
			Relations: []types.Relation{
				{Name: "user", Kind: types.BelongsTo, Model: "User"},
				{Name: "tags", Kind: types.BelongsToMany, Model: "Tag"},
				{Name: "notes", Kind: types.HasMany, Model: "Note"},
			},
		},
		{
			Name:       "Tag",
			Fillable:   []string{"name", "description"},
			Timestamps: true,
			Schema:     Tags,
			Relations: []types.Relation{
				{Name: "songs", Kind: types.BelongsToMany, Model: "Song"},
			},
		},
		{
			Name:       "Note",
			Fillable:   []string{"body", "user_id", "song_id"},
			Timestamps: true,
			Schema:     Notes,
			Relations: []types.Relation{
				{Name: "user", Kind: types.BelongsTo, Model: "User"},
				{Name: "song", Kind: types.BelongsTo, Model: "Song"},
			},
		},
	}
}

// RegisterModels adds the catalogue models to models.
func RegisterModels(models *model.Registry) error {
	for _, def := range modelDefinitions() {
		var inits []model.Initializer
		if def.Name == "User" {
			inits = append(inits, model.Defaults(map[string]any{"role": "listener"}))
		}
		if err := models.Register(def, inits...); err != nil {
			return err
		}
	}
	return nil
}
