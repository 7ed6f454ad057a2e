package factory

import (
	"context"
	"fmt"

	"github.com/Rana718/quarry/internal/database/common"
	"github.com/Rana718/quarry/internal/model"
	"github.com/Rana718/quarry/internal/types"
)

// Output holds the built records. Single is set when no count was requested.
type Output struct {
	Single  bool
	Records []types.Record
}

// Record returns the first record, or nil.
func (o Output) Record() types.Record {
	if len(o.Records) == 0 {
		return nil
	}
	return o.Records[0]
}

type parentSpec struct {
	relation string
	factory  *Factory
	record   types.Record
}

type childSpec struct {
	relation string
	factory  *Factory
	pivot    map[string]any
}

// Factory is copy-on-write: every chain method returns a new Factory.
type Factory struct {
	reg   *Registry
	def   *definition
	model *model.Model

	states        []StateFunc
	sequence      []map[string]any
	count         *int
	parents       []parentSpec
	children      []childSpec
	pool          map[string][]types.Record
	afterMaking   []AfterMakingFunc
	afterCreating []AfterCreatingFunc

	// set when nested under an owner through Has
	fixed map[string]any
	owner types.Record

	err error
}

func (f *Factory) clone() *Factory {
	c := *f
	c.states = append([]StateFunc(nil), f.states...)
	c.sequence = append([]map[string]any(nil), f.sequence...)
	c.parents = append([]parentSpec(nil), f.parents...)
	c.children = append([]childSpec(nil), f.children...)
	c.afterMaking = append([]AfterMakingFunc(nil), f.afterMaking...)
	c.afterCreating = append([]AfterCreatingFunc(nil), f.afterCreating...)
	c.pool = make(map[string][]types.Record, len(f.pool))
	for k, v := range f.pool {
		c.pool[k] = v
	}
	if f.fixed != nil {
		c.fixed = make(map[string]any, len(f.fixed))
		for k, v := range f.fixed {
			c.fixed[k] = v
		}
	}
	return &c
}

func (f *Factory) withErr(err error) *Factory {
	c := f.clone()
	if c.err == nil {
		c.err = err
	}
	return c
}

func (f *Factory) Err() error { return f.err }

// Model is the model this factory builds, nil when the lookup failed.
func (f *Factory) Model() *model.Model { return f.model }

func (f *Factory) State(fn StateFunc) *Factory {
	c := f.clone()
	c.states = append(c.states, fn)
	return c
}

func (f *Factory) StateAttrs(attrs map[string]any) *Factory {
	return f.State(func(types.Record, *Faker) map[string]any {
		return types.Record(attrs).Clone()
	})
}

// Named applies a state registered with WithState.
func (f *Factory) Named(state string) *Factory {
	if f.def == nil {
		return f.clone()
	}
	fn, ok := f.def.states[state]
	if !ok {
		return f.withErr(fmt.Errorf("factory for %s has no state %q", f.def.model, state))
	}
	return f.State(fn)
}

// Sequence cycles through records, one per built record.
func (f *Factory) Sequence(records ...map[string]any) *Factory {
	c := f.clone()
	c.sequence = append(c.sequence, records...)
	return c
}

// Count sets the number of records. Below one yields an empty result.
func (f *Factory) Count(n int) *Factory {
	c := f.clone()
	c.count = &n
	return c
}

// Single drops a previous Count.
func (f *Factory) Single() *Factory {
	c := f.clone()
	c.count = nil
	return c
}

// For sets one belongsTo parent per Make or Create call.
func (f *Factory) For(relation string, parent *Factory) *Factory {
	c := f.clone()
	c.parents = append(c.parents, parentSpec{relation: relation, factory: parent})
	return c
}

// ForRecord attaches an existing parent record.
func (f *Factory) ForRecord(relation string, parent types.Record) *Factory {
	c := f.clone()
	c.parents = append(c.parents, parentSpec{relation: relation, record: parent})
	return c
}

func (f *Factory) Has(relation string, child *Factory) *Factory {
	c := f.clone()
	c.children = append(c.children, childSpec{relation: relation, factory: child})
	return c
}

// HasAttached links children through a belongsToMany pivot table.
func (f *Factory) HasAttached(relation string, child *Factory, pivot map[string]any) *Factory {
	c := f.clone()
	c.children = append(c.children, childSpec{relation: relation, factory: child, pivot: pivot})
	return c
}

// Recycle reuses records instead of building new modelName rows.
func (f *Factory) Recycle(modelName string, records ...types.Record) *Factory {
	c := f.clone()
	c.pool[modelName] = append(append([]types.Record(nil), c.pool[modelName]...), records...)
	return c
}

func (f *Factory) AfterMaking(fn AfterMakingFunc) *Factory {
	c := f.clone()
	c.afterMaking = append(c.afterMaking, fn)
	return c
}

func (f *Factory) AfterCreating(fn AfterCreatingFunc) *Factory {
	c := f.clone()
	c.afterCreating = append(c.afterCreating, fn)
	return c
}

// Make builds records without touching the store.
func (f *Factory) Make(ctx context.Context) (Output, error) {
	return f.produce(ctx, nil)
}

func (f *Factory) Create(ctx context.Context, exec common.Executor) (Output, error) {
	if exec == nil {
		return Output{}, fmt.Errorf("create needs an executor")
	}
	return f.produce(ctx, exec)
}

func (f *Factory) produce(ctx context.Context, exec common.Executor) (Output, error) {
	if f.err != nil {
		return Output{}, f.err
	}

	n, single := 1, f.count == nil
	if !single {
		n = *f.count
	}
	out := Output{Single: single, Records: []types.Record{}}
	if n < 1 {
		return out, nil
	}

	keys, parents, err := f.resolveParents(ctx, exec)
	if err != nil {
		return Output{}, err
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return Output{}, err
		}

		rec, err := f.attributes(ctx, exec, i, keys)
		if err != nil {
			return Output{}, err
		}
		for _, hook := range append(append([]AfterMakingFunc(nil), f.def.afterMaking...), f.afterMaking...) {
			if err := hook(ctx, rec); err != nil {
				return Output{}, fmt.Errorf("afterMaking %s: %w", f.model.Name(), err)
			}
		}

		if exec == nil {
			for name, parent := range parents {
				rec[name] = parent
			}
			if err := f.buildChildren(ctx, nil, rec); err != nil {
				return Output{}, err
			}
			out.Records = append(out.Records, rec)
			continue
		}

		saved, err := f.model.Insert(ctx, exec, rec)
		if err != nil {
			return Output{}, fmt.Errorf("failed to create %s: %w", f.model.Name(), err)
		}
		if err := f.buildChildren(ctx, exec, saved); err != nil {
			return Output{}, err
		}
		for _, hook := range append(append([]AfterCreatingFunc(nil), f.def.afterCreating...), f.afterCreating...) {
			if err := hook(ctx, exec, saved, f.owner); err != nil {
				return Output{}, fmt.Errorf("afterCreating %s: %w", f.model.Name(), err)
			}
		}
		out.Records = append(out.Records, saved)
	}

	if exec != nil {
		f.reg.logger.Debugw("factory created records", "model", f.model.Name(), "count", len(out.Records))
	}
	return out, nil
}

// nested prepares a factory built on behalf of f: it inherits f's pool.
func (f *Factory) nested(child *Factory) *Factory {
	c := child.clone()
	for name, records := range f.pool {
		c.pool[name] = append(append([]types.Record(nil), c.pool[name]...), records...)
	}
	return c
}

func (f *Factory) pick(modelName string) (types.Record, bool) {
	pool := f.pool[modelName]
	if len(pool) == 0 {
		return nil, false
	}
	return pool[f.reg.faker.intn(len(pool))], true
}

func (f *Factory) resolveParents(ctx context.Context, exec common.Executor) (map[string]any, map[string]types.Record, error) {
	keys := make(map[string]any)
	parents := make(map[string]types.Record)

	for _, p := range f.parents {
		rel, ok := f.model.Relation(p.relation)
		if !ok {
			return nil, nil, fmt.Errorf("model %s has no relation %q", f.model.Name(), p.relation)
		}
		if rel.Kind != types.BelongsTo {
			return nil, nil, fmt.Errorf("relation %s.%s is not belongsTo", f.model.Name(), p.relation)
		}

		parent := p.record
		if parent == nil {
			if pooled, ok := f.pick(rel.Model); ok {
				parent = pooled
			} else if p.factory == nil {
				return nil, nil, fmt.Errorf("relation %s.%s has no parent", f.model.Name(), p.relation)
			} else {
				out, err := f.nested(p.factory).Single().produce(ctx, exec)
				if err != nil {
					return nil, nil, fmt.Errorf("failed to resolve %s.%s: %w", f.model.Name(), p.relation, err)
				}
				parent = out.Record()
			}
		}

		if key, ok := parent[rel.OwnerKey]; ok && key != nil {
			keys[rel.ForeignKey] = key
		}
		parents[rel.Name] = parent
	}
	return keys, parents, nil
}

// attributes layers definition, sequence, states and parent keys, then
// fakes required columns still missing.
func (f *Factory) attributes(ctx context.Context, exec common.Executor, i int, keys map[string]any) (types.Record, error) {
	faker := f.reg.faker
	rec := types.Record{}

	layers := make([]func(types.Record) map[string]any, 0, len(f.states)+2)
	if f.def.base != nil {
		layers = append(layers, func(types.Record) map[string]any { return f.def.base(faker) })
	}
	if len(f.sequence) > 0 {
		layers = append(layers, func(types.Record) map[string]any { return f.sequence[i%len(f.sequence)] })
	}
	for _, state := range f.states {
		state := state
		layers = append(layers, func(cur types.Record) map[string]any { return state(cur.Clone(), faker) })
	}

	for _, layer := range layers {
		for k, v := range layer(rec) {
			if _, preset := keys[k]; preset {
				continue
			}
			if _, preset := f.fixed[k]; preset {
				continue
			}
			resolved, err := f.resolveValue(ctx, exec, v)
			if err != nil {
				return nil, fmt.Errorf("attribute %s.%s: %w", f.model.Name(), k, err)
			}
			rec[k] = resolved
		}
	}
	for k, v := range keys {
		rec[k] = v
	}
	for k, v := range f.fixed {
		rec[k] = v
	}

	for _, col := range f.model.Columns() {
		if _, set := rec[col.Name]; set || !f.needsFake(col) {
			continue
		}
		rec[col.Name] = faker.ForColumn(col)
	}
	return rec, nil
}

func (f *Factory) resolveValue(ctx context.Context, exec common.Executor, v any) (any, error) {
	sub, ok := v.(*Factory)
	if !ok {
		return v, nil
	}
	if sub.err != nil {
		return nil, sub.err
	}
	if pooled, ok := f.pick(sub.model.Name()); ok {
		return pooled[sub.model.PrimaryKey()], nil
	}
	out, err := f.nested(sub).Single().produce(ctx, exec)
	if err != nil {
		return nil, err
	}
	return out.Record()[sub.model.PrimaryKey()], nil
}

func (f *Factory) needsFake(col types.SchemaColumn) bool {
	switch {
	case col.Name == f.model.PrimaryKey(), col.IsPrimary, col.IsAutoIncrement:
		return false
	case col.Nullable, col.HasDefault:
		return false
	case col.ForeignKeyTable != "":
		return false
	case col.Name == types.CreatedAt, col.Name == types.UpdatedAt, col.Name == types.DeletedAt:
		return false
	}
	return true
}

// buildChildren only makes children when exec is nil.
func (f *Factory) buildChildren(ctx context.Context, exec common.Executor, owner types.Record) error {
	for _, h := range f.children {
		rel, ok := f.model.Relation(h.relation)
		if !ok {
			return fmt.Errorf("model %s has no relation %q", f.model.Name(), h.relation)
		}
		if h.factory == nil {
			return fmt.Errorf("relation %s.%s has no child factory", f.model.Name(), h.relation)
		}

		child := f.nested(h.factory)
		child.owner = owner
		ownerKey := owner[rel.LocalKey]

		switch rel.Kind {
		case types.HasOne, types.HasMany:
			if ownerKey != nil {
				if child.fixed == nil {
					child.fixed = make(map[string]any)
				}
				child.fixed[rel.ForeignKey] = ownerKey
			}
		case types.BelongsToMany:
		default:
			return fmt.Errorf("relation %s.%s cannot hold children", f.model.Name(), h.relation)
		}

		out, err := child.produce(ctx, exec)
		if err != nil {
			return fmt.Errorf("failed to create %s.%s: %w", f.model.Name(), h.relation, err)
		}

		if rel.Kind == types.BelongsToMany && exec != nil {
			if err := attach(ctx, exec, rel, ownerKey, out.Records, h.pivot); err != nil {
				return err
			}
		}

		if exec == nil {
			if rel.Kind == types.HasOne {
				owner[rel.Name] = out.Record()
			} else {
				owner[rel.Name] = out.Records
			}
		}
	}
	return nil
}

func attach(ctx context.Context, exec common.Executor, rel types.Relation, ownerKey any, related []types.Record, pivot map[string]any) error {
	for _, rec := range related {
		row := make(map[string]any, len(pivot)+2)
		for k, v := range pivot {
			row[k] = v
		}
		row[rel.ForeignPivotKey] = ownerKey
		row[rel.RelatedPivotKey] = rec[rel.OwnerKey]

		query, args, err := exec.Builder().Insert(rel.PivotTable).SetMap(row).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build pivot insert for %s: %w", rel.PivotTable, err)
		}
		if _, err := exec.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to attach %s: %w", rel.PivotTable, err)
		}
	}
	return nil
}
