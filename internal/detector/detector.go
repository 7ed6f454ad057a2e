// Package detector derives the column set a model works with from its
// allow-list and the table declaration it shares with its migration.
package detector

import "github.com/Rana718/quarry/internal/types"

type Input struct {
	Fillable   []string
	PrimaryKey string
	Timestamps bool
}

type Result struct {
	Table      string
	PrimaryKey string
	Columns    []types.SchemaColumn

	// Substituted names allow-listed fields, and forced columns, that the
	// table does not declare. They were given a permissive definition.
	Substituted []string
}

// Detect returns the declared columns named by the allow-list, in
// declaration order, plus the primary key and (when enabled) the timestamp
// columns. Allow-listed names the table lacks are tolerated and get a
// nullable string column.
func Detect(in Input, table types.SchemaTable) Result {
	pk := in.PrimaryKey
	if pk == "" {
		pk = table.PrimaryKey()
	}
	if pk == "" {
		pk = "id"
	}

	wanted := make(map[string]bool, len(in.Fillable)+3)
	for _, name := range in.Fillable {
		wanted[name] = true
	}
	wanted[pk] = true
	if in.Timestamps {
		wanted[types.CreatedAt] = true
		wanted[types.UpdatedAt] = true
	}

	res := Result{Table: table.Name, PrimaryKey: pk}
	declared := make(map[string]bool, len(table.Columns))
	for _, col := range table.Columns {
		declared[col.Name] = true
		if wanted[col.Name] {
			res.Columns = append(res.Columns, col)
		}
	}

	if !declared[pk] {
		res.Columns = append([]types.SchemaColumn{primaryColumn(pk)}, res.Columns...)
		res.Substituted = append(res.Substituted, pk)
	}

	seen := map[string]bool{pk: true}
	for _, name := range in.Fillable {
		if declared[name] || seen[name] || name == "" {
			continue
		}
		seen[name] = true
		res.Columns = append(res.Columns, permissiveColumn(name))
		res.Substituted = append(res.Substituted, name)
	}

	if in.Timestamps {
		for _, name := range []string{types.CreatedAt, types.UpdatedAt} {
			if declared[name] || seen[name] {
				continue
			}
			res.Columns = append(res.Columns, types.SchemaColumn{Name: name, Type: types.TypeTimestamp, Nullable: true})
			res.Substituted = append(res.Substituted, name)
		}
	}
	return res
}

func primaryColumn(name string) types.SchemaColumn {
	return types.SchemaColumn{
		Name:            name,
		Type:            types.TypeBigInteger,
		Unsigned:        true,
		IsPrimary:       true,
		IsAutoIncrement: true,
	}
}

func permissiveColumn(name string) types.SchemaColumn {
	return types.SchemaColumn{Name: name, Type: types.TypeString, Length: 255, Nullable: true}
}

// Column returns the named detected column.
func (r Result) Column(name string) (types.SchemaColumn, bool) {
	for _, col := range r.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return types.SchemaColumn{}, false
}

func (r Result) Names() []string {
	names := make([]string, len(r.Columns))
	for i, col := range r.Columns {
		names[i] = col.Name
	}
	return names
}
