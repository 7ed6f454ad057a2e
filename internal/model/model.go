package model

import (
	"context"
	"fmt"
	"time"

	"github.com/Rana718/quarry/internal/database/common"
	"github.com/Rana718/quarry/internal/detector"
	"github.com/Rana718/quarry/internal/query"
	"github.com/Rana718/quarry/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreatingHook may adjust a record right before it is inserted.
type CreatingHook func(types.Record) error

type Model struct {
	def       Definition
	columns   detector.Result
	relations map[string]types.Relation
	creating  []CreatingHook
	logger    *zap.SugaredLogger
}

func (m *Model) Name() string             { return m.def.Name }
func (m *Model) Table() string            { return m.def.Table }
func (m *Model) PrimaryKey() string       { return m.def.PrimaryKey }
func (m *Model) KeyStrategy() KeyStrategy { return m.def.KeyStrategy }
func (m *Model) Timestamps() bool         { return m.def.Timestamps }

func (m *Model) Fillable() []string {
	return append([]string(nil), m.def.Fillable...)
}

// Columns returns the detected column set.
func (m *Model) Columns() []types.SchemaColumn {
	return append([]types.SchemaColumn(nil), m.columns.Columns...)
}

func (m *Model) Column(name string) (types.SchemaColumn, bool) {
	return m.columns.Column(name)
}

func (m *Model) Relation(name string) (types.Relation, bool) {
	rel, ok := m.relations[name]
	return rel, ok
}

func (m *Model) Relations() map[string]types.Relation {
	out := make(map[string]types.Relation, len(m.relations))
	for k, v := range m.relations {
		out[k] = v
	}
	return out
}

// OnCreating registers a hook run by Insert. Meant for initializers.
func (m *Model) OnCreating(hook CreatingHook) {
	m.creating = append(m.creating, hook)
}

// Query starts a builder bound to the model's table, key and relations.
func (m *Model) Query(exec common.Executor) *query.Builder {
	return query.New(exec, m.def.Table,
		query.WithMeta(query.Meta{PrimaryKey: m.def.PrimaryKey, Relations: m.relations}),
		query.WithLogger(m.logger),
	)
}

// Fill keeps the allow-listed attributes. A model without an allow-list
// accepts every detected column except the primary key.
func (m *Model) Fill(attrs map[string]any) types.Record {
	allowed := make(map[string]bool)
	if len(m.def.Fillable) > 0 {
		for _, f := range m.def.Fillable {
			allowed[f] = true
		}
	} else {
		for _, col := range m.columns.Columns {
			if col.Name != m.def.PrimaryKey {
				allowed[col.Name] = true
			}
		}
	}

	out := make(types.Record, len(attrs))
	for k, v := range attrs {
		if allowed[k] {
			out[k] = v
		}
	}
	return out
}

// Create mass-assigns attrs and inserts the record.
func (m *Model) Create(ctx context.Context, exec common.Executor, attrs map[string]any) (types.Record, error) {
	return m.Insert(ctx, exec, m.Fill(attrs))
}

// Insert writes rec as given, adding a UUID key and timestamps where the
// model asks for them. The returned record carries the primary key.
func (m *Model) Insert(ctx context.Context, exec common.Executor, rec types.Record) (types.Record, error) {
	rec = rec.Clone()
	pk := m.def.PrimaryKey

	if m.def.KeyStrategy == KeyUUID {
		if v, ok := rec[pk]; !ok || v == nil {
			rec[pk] = uuid.NewString()
		}
	}
	if m.def.Timestamps {
		now := time.Now().UTC()
		for _, col := range []string{types.CreatedAt, types.UpdatedAt} {
			if v, ok := rec[col]; !ok || v == nil {
				rec[col] = now
			}
		}
	}
	for _, hook := range m.creating {
		if err := hook(rec); err != nil {
			return nil, fmt.Errorf("creating %s: %w", m.def.Name, err)
		}
	}

	id, err := m.Query(exec).Insert(ctx, rec)
	if err != nil {
		return nil, err
	}
	rec[pk] = id
	return rec, nil
}

func (m *Model) Find(ctx context.Context, exec common.Executor, id any) (types.Record, error) {
	return m.Query(exec).Where(m.def.PrimaryKey, id).First(ctx)
}

// UpdateByID mass-assigns attrs onto one row and bumps updated_at.
func (m *Model) UpdateByID(ctx context.Context, exec common.Executor, id any, attrs map[string]any) (int64, error) {
	values := m.Fill(attrs)
	delete(values, types.CreatedAt)
	if m.def.Timestamps {
		values[types.UpdatedAt] = time.Now().UTC()
	}
	if len(values) == 0 {
		return 0, nil
	}
	return m.Query(exec).Where(m.def.PrimaryKey, id).Update(ctx, values)
}

func (m *Model) DeleteByID(ctx context.Context, exec common.Executor, id any) (int64, error) {
	return m.Query(exec).Where(m.def.PrimaryKey, id).Delete(ctx)
}

// UUIDKeys switches a model to random UUID primary keys.
func UUIDKeys() Initializer {
	return func(m *Model) error {
		m.def.KeyStrategy = KeyUUID
		return nil
	}
}

// Defaults fills missing attributes on every insert.
func Defaults(values map[string]any) Initializer {
	return func(m *Model) error {
		m.OnCreating(func(rec types.Record) error {
			for k, v := range values {
				if _, ok := rec[k]; !ok {
					rec[k] = v
				}
			}
			return nil
		})
		return nil
	}
}
