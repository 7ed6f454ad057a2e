package schema

import (
	"github.com/Rana718/quarry/internal/catalog"
	"github.com/Rana718/quarry/internal/types"
	"go.uber.org/zap"
)

// Definition is a reusable table declaration. Migrations build it and models
// read their column set from it, so both share one description.
type Definition struct {
	Name string
	fn   func(*Blueprint)
}

func Define(name string, fn func(*Blueprint)) *Definition {
	return &Definition{Name: name, fn: fn}
}

// Blueprint returns a fresh create-mode blueprint with the declaration
// applied.
func (d *Definition) Blueprint() *Blueprint {
	bp := newBlueprint(d.Name, modeCreate, zap.NewNop().Sugar())
	d.fn(bp)
	return bp
}

// Table compiles the declaration in memory and checks every column renders
// for provider.
func (d *Definition) Table(provider string) (types.SchemaTable, error) {
	bp := d.Blueprint()
	if err := bp.Err(); err != nil {
		return types.SchemaTable{}, err
	}
	cat := catalog.ForProvider(provider)
	table := bp.Table()
	for _, col := range table.Columns {
		if _, err := cat.NativeType(col); err != nil {
			return types.SchemaTable{}, withTable(err, d.Name)
		}
	}
	return table, nil
}
