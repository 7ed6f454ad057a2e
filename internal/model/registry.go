// Package model binds table declarations to runtime metadata: the detected
// column set, relations and key strategy every query and factory reads.
package model

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Rana718/quarry/internal/detector"
	"github.com/Rana718/quarry/internal/schema"
	"github.com/Rana718/quarry/internal/types"
	"github.com/jinzhu/inflection"
	"go.uber.org/zap"
)

type KeyStrategy string

const (
	KeyAuto KeyStrategy = "auto"
	KeyUUID KeyStrategy = "uuid"
)

// Definition describes one model. Table defaults to the plural snake_case
// of Name and PrimaryKey to "id".
type Definition struct {
	Name        string
	Table       string
	PrimaryKey  string
	KeyStrategy KeyStrategy
	Fillable    []string
	Timestamps  bool
	Relations   []types.Relation
	Schema      *schema.Definition
}

// Initializer runs once per model when the registry boots.
type Initializer func(*Model) error

type entry struct {
	def   Definition
	inits []Initializer
	model *Model
}

// Registry holds every model of an application. Boot resolves relation
// defaults and column sets once; there is no package-level state.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	order    []string
	provider string
	logger   *zap.SugaredLogger
}

type Option func(*Registry)

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]*entry),
		logger:  zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Register(def Definition, inits ...Initializer) error {
	if def.Name == "" {
		return fmt.Errorf("model definition needs a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[def.Name]; exists {
		return fmt.Errorf("model %s registered twice", def.Name)
	}
	if def.Table == "" {
		def.Table = TableName(def.Name)
	}
	if def.PrimaryKey == "" {
		def.PrimaryKey = "id"
	}
	if def.KeyStrategy == "" {
		def.KeyStrategy = KeyAuto
	}
	r.entries[def.Name] = &entry{def: def, inits: inits}
	r.order = append(r.order, def.Name)
	return nil
}

// Boot builds every registered model that has not been built yet. Models
// registered after a Boot are picked up by the next one.
func (r *Registry) Boot(provider string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.provider != "" && r.provider != provider {
		return fmt.Errorf("registry already booted for %s", r.provider)
	}
	r.provider = provider

	for _, name := range r.order {
		e := r.entries[name]
		if e.model != nil {
			continue
		}
		m, err := r.build(e.def)
		if err != nil {
			return fmt.Errorf("failed to boot model %s: %w", name, err)
		}
		for _, init := range e.inits {
			if err := init(m); err != nil {
				return fmt.Errorf("failed to initialize model %s: %w", name, err)
			}
		}
		e.model = m

		if len(m.columns.Substituted) > 0 {
			r.logger.Warnw("model fields missing from table, using permissive columns",
				"model", name, "table", m.Table(), "fields", m.columns.Substituted)
		}
		r.logger.Debugw("booted model", "model", name, "table", m.Table(), "columns", m.columns.Names())
	}
	return nil
}

func (r *Registry) build(def Definition) (*Model, error) {
	table := types.SchemaTable{Name: def.Table}
	if def.Schema != nil {
		compiled, err := def.Schema.Table(r.provider)
		if err != nil {
			return nil, err
		}
		table = compiled
	}

	columns := detector.Detect(detector.Input{
		Fillable:   def.Fillable,
		PrimaryKey: def.PrimaryKey,
		Timestamps: def.Timestamps,
	}, table)

	relations := make(map[string]types.Relation, len(def.Relations))
	for _, rel := range def.Relations {
		resolved, err := r.resolveRelation(def, rel)
		if err != nil {
			return nil, err
		}
		relations[resolved.Name] = resolved
	}

	return &Model{
		def:       def,
		columns:   columns,
		relations: relations,
		logger:    r.logger.With("model", def.Name),
	}, nil
}

// resolveRelation fills conventional keys: user_id style foreign keys and
// alphabetical singular pivot tables such as song_tag.
func (r *Registry) resolveRelation(def Definition, rel types.Relation) (types.Relation, error) {
	if rel.Name == "" {
		return rel, fmt.Errorf("relation on %s needs a name", def.Name)
	}
	if rel.Table == "" {
		related, ok := r.entries[rel.Model]
		if !ok {
			return rel, fmt.Errorf("relation %s.%s references unknown model %q", def.Name, rel.Name, rel.Model)
		}
		rel.Table = related.def.Table
	}

	owner := inflection.Singular(def.Table)
	related := inflection.Singular(rel.Table)

	switch rel.Kind {
	case types.BelongsTo:
		if rel.ForeignKey == "" {
			rel.ForeignKey = inflection.Singular(toSnake(rel.Name)) + "_id"
		}
		if rel.OwnerKey == "" {
			rel.OwnerKey = "id"
		}
	case types.HasOne, types.HasMany:
		if rel.ForeignKey == "" {
			rel.ForeignKey = owner + "_id"
		}
		if rel.LocalKey == "" {
			rel.LocalKey = def.PrimaryKey
		}
	case types.BelongsToMany:
		if rel.PivotTable == "" {
			pair := []string{owner, related}
			sort.Strings(pair)
			rel.PivotTable = strings.Join(pair, "_")
		}
		if rel.ForeignPivotKey == "" {
			rel.ForeignPivotKey = owner + "_id"
		}
		if rel.RelatedPivotKey == "" {
			rel.RelatedPivotKey = related + "_id"
		}
		if rel.LocalKey == "" {
			rel.LocalKey = def.PrimaryKey
		}
		if rel.OwnerKey == "" {
			rel.OwnerKey = "id"
		}
	default:
		return rel, fmt.Errorf("relation %s.%s has unknown kind %q", def.Name, rel.Name, rel.Kind)
	}
	return rel, nil
}

// Model returns a booted model.
func (r *Registry) Model(name string) (*Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("model %s is not registered", name)
	}
	if e.model == nil {
		return nil, fmt.Errorf("model %s is not booted", name)
	}
	return e.model, nil
}

// Models returns the booted models in registration order.
func (r *Registry) Models() []*Model {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Model
	for _, name := range r.order {
		if m := r.entries[name].model; m != nil {
			out = append(out, m)
		}
	}
	return out
}

// TableName is the conventional table for a model name: "SongTag" becomes
// "song_tags".
func TableName(model string) string {
	return inflection.Plural(toSnake(model))
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
