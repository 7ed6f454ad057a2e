package query

import (
	"context"
	"fmt"

	"github.com/Rana718/quarry/internal/types"
)

// eagerLoad attaches each included relation to records under the relation
// name: a record (or nil) for belongsTo and hasOne, a slice for hasMany and
// belongsToMany.
func (b *Builder) eagerLoad(ctx context.Context, records []types.Record) error {
	for _, inc := range b.includes {
		rel, ok := b.meta.Relations[inc.Relation]
		if !ok {
			return fmt.Errorf("relation %q is not defined on %s", inc.Relation, b.table)
		}
		if rel.Name == "" {
			rel.Name = inc.Relation
		}
		rel = withRelationDefaults(rel, b.meta.PrimaryKey)

		var err error
		switch rel.Kind {
		case types.BelongsTo:
			err = b.loadBelongsTo(ctx, records, rel, inc.Fields)
		case types.HasOne, types.HasMany:
			err = b.loadHas(ctx, records, rel, inc.Fields)
		case types.BelongsToMany:
			err = b.loadBelongsToMany(ctx, records, rel, inc.Fields)
		default:
			err = fmt.Errorf("relation %q has unknown kind %q", rel.Name, rel.Kind)
		}
		if err != nil {
			return fmt.Errorf("failed to load %s.%s: %w", b.table, inc.Relation, err)
		}
	}
	return nil
}

func (b *Builder) checkIncludes() error {
	for _, inc := range b.includes {
		if _, ok := b.meta.Relations[inc.Relation]; !ok {
			return fmt.Errorf("relation %q is not defined on %s", inc.Relation, b.table)
		}
	}
	return nil
}

func withRelationDefaults(rel types.Relation, pk string) types.Relation {
	if rel.OwnerKey == "" {
		rel.OwnerKey = "id"
	}
	if rel.LocalKey == "" {
		rel.LocalKey = pk
	}
	return rel
}

// withKey makes sure a restricted field list still carries the column used
// to match related rows back to their owners.
func withKey(fields []string, key string) []string {
	if len(fields) == 0 {
		return nil
	}
	for _, f := range fields {
		if f == key {
			return fields
		}
	}
	return append(append([]string(nil), fields...), key)
}

func keyOf(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// distinct collects the non-nil values of column across records.
func distinct(records []types.Record, column string) []any {
	seen := make(map[string]bool)
	var out []any
	for _, r := range records {
		v := r[column]
		k := keyOf(v)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}

func (b *Builder) loadRelated(ctx context.Context, table string, fields []string, key string, values []any) ([]types.Record, error) {
	if len(values) == 0 {
		return nil, nil
	}
	query, args, err := b.keyed(table, withKey(fields, key), key, values).ToSql()
	if err != nil {
		return nil, err
	}
	return b.fetch(ctx, query, args)
}

func (b *Builder) loadBelongsTo(ctx context.Context, records []types.Record, rel types.Relation, fields []string) error {
	related, err := b.loadRelated(ctx, rel.Table, fields, rel.OwnerKey, distinct(records, rel.ForeignKey))
	if err != nil {
		return err
	}

	byKey := make(map[string]types.Record, len(related))
	for _, r := range related {
		byKey[keyOf(r[rel.OwnerKey])] = r
	}
	for _, r := range records {
		if parent, ok := byKey[keyOf(r[rel.ForeignKey])]; ok {
			r[rel.Name] = parent
		} else {
			r[rel.Name] = nil
		}
	}
	return nil
}

func (b *Builder) loadHas(ctx context.Context, records []types.Record, rel types.Relation, fields []string) error {
	related, err := b.loadRelated(ctx, rel.Table, fields, rel.ForeignKey, distinct(records, rel.LocalKey))
	if err != nil {
		return err
	}

	grouped := make(map[string][]types.Record)
	for _, r := range related {
		k := keyOf(r[rel.ForeignKey])
		grouped[k] = append(grouped[k], r)
	}
	for _, r := range records {
		children := grouped[keyOf(r[rel.LocalKey])]
		if rel.Kind == types.HasOne {
			if len(children) > 0 {
				r[rel.Name] = children[0]
			} else {
				r[rel.Name] = nil
			}
			continue
		}
		if children == nil {
			children = []types.Record{}
		}
		r[rel.Name] = children
	}
	return nil
}

func (b *Builder) loadBelongsToMany(ctx context.Context, records []types.Record, rel types.Relation, fields []string) error {
	if rel.PivotTable == "" || rel.ForeignPivotKey == "" || rel.RelatedPivotKey == "" {
		return fmt.Errorf("relation %q needs a pivot table and both pivot keys", rel.Name)
	}

	pivots, err := b.loadRelated(ctx, rel.PivotTable,
		[]string{rel.ForeignPivotKey, rel.RelatedPivotKey}, rel.ForeignPivotKey, distinct(records, rel.LocalKey))
	if err != nil {
		return err
	}

	related, err := b.loadRelated(ctx, rel.Table, fields, rel.OwnerKey, distinct(pivots, rel.RelatedPivotKey))
	if err != nil {
		return err
	}

	byKey := make(map[string]types.Record, len(related))
	for _, r := range related {
		byKey[keyOf(r[rel.OwnerKey])] = r
	}
	grouped := make(map[string][]types.Record)
	for _, p := range pivots {
		owner := keyOf(p[rel.ForeignPivotKey])
		if r, ok := byKey[keyOf(p[rel.RelatedPivotKey])]; ok {
			grouped[owner] = append(grouped[owner], r)
		}
	}
	for _, r := range records {
		children := grouped[keyOf(r[rel.LocalKey])]
		if children == nil {
			children = []types.Record{}
		}
		r[rel.Name] = children
	}
	return nil
}
