// Package factory builds model records for tests and seeders: a base
// attribute definition refined by states, sequences and relationships.
package factory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Rana718/quarry/internal/database/common"
	"github.com/Rana718/quarry/internal/model"
	"github.com/Rana718/quarry/internal/types"
	"go.uber.org/zap"
)

// DefinitionFunc returns the base attributes of one record.
type DefinitionFunc func(f *Faker) map[string]any

// StateFunc returns attributes to merge over the record built so far.
type StateFunc func(attrs types.Record, f *Faker) map[string]any

type AfterMakingFunc func(ctx context.Context, rec types.Record) error

// parent is the owning record when the factory was nested with Has.
type AfterCreatingFunc func(ctx context.Context, exec common.Executor, rec, parent types.Record) error

type definition struct {
	model         string
	base          DefinitionFunc
	states        map[string]StateFunc
	afterMaking   []AfterMakingFunc
	afterCreating []AfterCreatingFunc
}

type DefineOption func(*definition)

// WithState registers a named state usable through Factory.Named.
func WithState(name string, fn StateFunc) DefineOption {
	return func(d *definition) { d.states[name] = fn }
}

func AfterMaking(fn AfterMakingFunc) DefineOption {
	return func(d *definition) { d.afterMaking = append(d.afterMaking, fn) }
}

func AfterCreating(fn AfterCreatingFunc) DefineOption {
	return func(d *definition) { d.afterCreating = append(d.afterCreating, fn) }
}

// Registry keeps one definition per model for the life of the process.
type Registry struct {
	mu     sync.RWMutex
	models *model.Registry
	defs   map[string]*definition
	faker  *Faker
	logger *zap.SugaredLogger
}

type Option func(*Registry)

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithFaker(f *Faker) Option {
	return func(r *Registry) {
		if f != nil {
			r.faker = f
		}
	}
}

func NewRegistry(models *model.Registry, opts ...Option) *Registry {
	r := &Registry{
		models: models,
		defs:   make(map[string]*definition),
		faker:  NewFaker(),
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Faker() *Faker { return r.faker }

func (r *Registry) Define(modelName string, base DefinitionFunc, opts ...DefineOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.defs[modelName]; exists {
		return fmt.Errorf("factory for %s defined twice", modelName)
	}
	d := &definition{model: modelName, base: base, states: make(map[string]StateFunc)}
	for _, opt := range opts {
		opt(d)
	}
	r.defs[modelName] = d
	return nil
}

// New returns a factory for modelName; lookup errors surface from Make or Create.
func (r *Registry) New(modelName string) *Factory {
	f := &Factory{reg: r, pool: map[string][]types.Record{}}

	r.mu.RLock()
	d, ok := r.defs[modelName]
	r.mu.RUnlock()
	if !ok {
		f.err = fmt.Errorf("no factory defined for model %s", modelName)
		return f
	}
	m, err := r.models.Model(modelName)
	if err != nil {
		f.err = err
		return f
	}
	f.def = d
	f.model = m
	return f
}
