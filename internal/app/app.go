package app

import (
	"fmt"

	"github.com/Rana718/quarry/internal/database"
	"github.com/Rana718/quarry/internal/factory"
	"github.com/Rana718/quarry/internal/model"
	"github.com/Rana718/quarry/internal/schema"
	"github.com/Rana718/quarry/internal/seeder"
	"go.uber.org/zap"
)

// App wires the catalogue onto one connected store.
type App struct {
	Store     database.DatabaseAdapter
	Schema    *schema.Schema
	Models    *model.Registry
	Factories *factory.Registry
	Logger    *zap.SugaredLogger
}

func New(store database.DatabaseAdapter, logger *zap.SugaredLogger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	models := model.NewRegistry(model.WithLogger(logger))
	if err := RegisterModels(models); err != nil {
		return nil, fmt.Errorf("failed to register models: %w", err)
	}
	if err := models.Boot(store.Provider()); err != nil {
		return nil, err
	}

	factories := factory.NewRegistry(models, factory.WithLogger(logger))
	if err := RegisterFactories(factories); err != nil {
		return nil, fmt.Errorf("failed to register factories: %w", err)
	}

	return &App{
		Store:     store,
		Schema:    schema.New(store, schema.WithLogger(logger)),
		Models:    models,
		Factories: factories,
		Logger:    logger,
	}, nil
}

// Migrator returns a runner holding every catalogue migration.
func (a *App) Migrator(trackingTable string) (*schema.Runner, error) {
	r := schema.NewRunner(a.Schema, schema.WithTrackingTable(trackingTable))
	if err := r.Register(Migrations()...); err != nil {
		return nil, err
	}
	return r, nil
}

// Seeder returns a runner holding the catalogue seeders plus extra ones,
// such as a FixtureSeeder.
func (a *App) Seeder(defaults seeder.InsertOptions, extra ...seeder.Seeder) (*seeder.Runner, error) {
	r := seeder.NewRunner(a.Store,
		seeder.WithLogger(a.Logger),
		seeder.WithModels(a.Models),
		seeder.WithFactories(a.Factories),
		seeder.WithInsertDefaults(defaults),
	)
	if err := r.Register(append(Seeders(), extra...)...); err != nil {
		return nil, err
	}
	return r, nil
}
