package schema

import (
	"fmt"
	"strings"

	"github.com/Rana718/quarry/internal/catalog"
	"github.com/Rana718/quarry/internal/errs"
	"github.com/Rana718/quarry/internal/types"
	"go.uber.org/zap"
)

type mode int

const (
	modeCreate mode = iota
	modeAlter
)

// Blueprint accumulates the column, index and foreign key declarations of one
// table. The first invalid declaration is recorded and returned by Err; Build
// refuses to run while it is set.
type Blueprint struct {
	table   string
	mode    mode
	logger  *zap.SugaredLogger
	columns []*types.SchemaColumn
	byName  map[string]*types.SchemaColumn
	primary string

	indexes     []types.SchemaIndex
	foreignKeys []types.ForeignKey

	dropColumns []string
	dropIndexes []string
	dropForeign []string

	err error
}

// NewBlueprint returns a create-mode blueprint for table.
func NewBlueprint(table string) *Blueprint {
	return newBlueprint(table, modeCreate, zap.NewNop().Sugar())
}

func newBlueprint(table string, m mode, logger *zap.SugaredLogger) *Blueprint {
	return &Blueprint{
		table:  table,
		mode:   m,
		logger: logger,
		byName: make(map[string]*types.SchemaColumn),
	}
}

func (b *Blueprint) TableName() string { return b.table }

// Err returns the first construction error recorded on the blueprint.
func (b *Blueprint) Err() error { return b.err }

func (b *Blueprint) fail(column, format string, args ...any) error {
	err := errs.Construction(b.table, column, format, args...)
	if b.err == nil {
		b.err = err
	}
	return err
}

// Table compiles the declarations into a schema description.
func (b *Blueprint) Table() types.SchemaTable {
	cols := make([]types.SchemaColumn, len(b.columns))
	for i, c := range b.columns {
		cols[i] = *c
	}
	return types.SchemaTable{
		Name:        b.table,
		Columns:     cols,
		Indexes:     append([]types.SchemaIndex(nil), b.indexes...),
		ForeignKeys: append([]types.ForeignKey(nil), b.foreignKeys...),
	}
}

func (b *Blueprint) addColumn(col types.SchemaColumn) *ColumnBuilder {
	if _, exists := b.byName[col.Name]; exists {
		b.fail(col.Name, "column declared twice")
		return &ColumnBuilder{bp: b, col: &col}
	}
	if col.Name == "" {
		b.fail("", "column name is empty")
		return &ColumnBuilder{bp: b, col: &col}
	}
	c := &col
	b.columns = append(b.columns, c)
	b.byName[c.Name] = c
	return &ColumnBuilder{bp: b, col: c}
}

func (b *Blueprint) setPrimary(col *types.SchemaColumn) {
	if b.primary != "" && b.primary != col.Name {
		b.fail(col.Name, "table already has primary key %q", b.primary)
		return
	}
	b.primary = col.Name
	col.IsPrimary = true
	col.Nullable = false
}

// Column declarators

func (b *Blueprint) String(name string, length ...int) *ColumnBuilder {
	col := types.SchemaColumn{Name: name, Type: types.TypeString, Length: catalog.DefaultStringLength}
	if len(length) > 0 && length[0] > 0 {
		col.Length = length[0]
	}
	return b.addColumn(col)
}

func (b *Blueprint) Char(name string, length ...int) *ColumnBuilder {
	col := types.SchemaColumn{Name: name, Type: types.TypeChar, Length: catalog.DefaultStringLength}
	if len(length) > 0 && length[0] > 0 {
		col.Length = length[0]
	}
	return b.addColumn(col)
}

func (b *Blueprint) Text(name string) *ColumnBuilder {
	return b.addColumn(types.SchemaColumn{Name: name, Type: types.TypeText})
}

func (b *Blueprint) MediumText(name string) *ColumnBuilder {
	return b.addColumn(types.SchemaColumn{Name: name, Type: types.TypeMediumText})
}

func (b *Blueprint) LongText(name string) *ColumnBuilder {
	return b.addColumn(types.SchemaColumn{Name: name, Type: types.TypeLongText})
}

func (b *Blueprint) Integer(name string) *ColumnBuilder {
	return b.addColumn(types.SchemaColumn{Name: name, Type: types.TypeInteger})
}

func (b *Blueprint) TinyInteger(name string) *ColumnBuilder {
	return b.addColumn(types.SchemaColumn{Name: name, Type: types.TypeTinyInteger})
}

func (b *Blueprint) SmallInteger(name string) *ColumnBuilder {
	return b.addColumn(types.SchemaColumn{Name: name, Type: types.TypeSmallInteger})
}

func (b *Blueprint) BigInteger(name string) *ColumnBuilder {
	return b.addColumn(types.SchemaColumn{Name: name, Type: types.TypeBigInteger})
}

func (b *Blueprint) UnsignedBigInteger(name string) *ColumnBuilder {
	return b.addColumn(types.SchemaColumn{Name: name, Type: types.TypeBigInteger, Unsigned: true})
}

// Decimal declares a fixed-point column. Zero precision uses the catalog
// default of 8,2.
func (b *Blueprint) Decimal(name string, precision, scale int) *ColumnBuilder {
	if precision > 0 && scale > precision {
		b.fail(name, "decimal scale %d exceeds precision %d", scale, precision)
	}
	return b.addColumn(types.SchemaColumn{Name: name, Type: types.TypeDecimal, Precision: precision, Scale: scale})
}

func (b *Blueprint) Float(name string) *ColumnBuilder {
	return b.addColumn(types.SchemaColumn{Name: name, Type: types.TypeFloat})
}

func (b *Blueprint) Double(name string) *ColumnBuilder {
	return b.addColumn(types.SchemaColumn{Name: name, Type: types.TypeDouble})
}

func (b *Blueprint) Boolean(name string) *ColumnBuilder {
	return b.addColumn(types.SchemaColumn{Name: name, Type: types.TypeBoolean})
}

func (b *Blueprint) Date(name string) *ColumnBuilder {
	return b.addColumn(types.SchemaColumn{Name: name, Type: types.TypeDate})
}

func (b *Blueprint) DateTime(name string) *ColumnBuilder {
	return b.addColumn(types.SchemaColumn{Name: name, Type: types.TypeDateTime})
}

func (b *Blueprint) Timestamp(name string) *ColumnBuilder {
	return b.addColumn(types.SchemaColumn{Name: name, Type: types.TypeTimestamp})
}

func (b *Blueprint) Time(name string) *ColumnBuilder {
	return b.addColumn(types.SchemaColumn{Name: name, Type: types.TypeTime})
}

// Enum declares a column restricted to values. An empty or duplicated value
// set is a construction error.
func (b *Blueprint) Enum(name string, values []string) *ColumnBuilder {
	if err := catalog.ValidateEnum(name, values); err != nil {
		b.fail(name, "%s", constructionReason(err))
	}
	return b.addColumn(types.SchemaColumn{Name: name, Type: types.TypeEnum, EnumValues: append([]string(nil), values...)})
}

func (b *Blueprint) JSON(name string) *ColumnBuilder {
	return b.addColumn(types.SchemaColumn{Name: name, Type: types.TypeJSON})
}

func (b *Blueprint) JSONB(name string) *ColumnBuilder {
	return b.addColumn(types.SchemaColumn{Name: name, Type: types.TypeJSONB})
}

func (b *Blueprint) UUID(name string) *ColumnBuilder {
	return b.addColumn(types.SchemaColumn{Name: name, Type: types.TypeUUID})
}

func (b *Blueprint) Binary(name string) *ColumnBuilder {
	return b.addColumn(types.SchemaColumn{Name: name, Type: types.TypeBinary})
}

// Primary keys

// ID declares the conventional auto-incrementing "id" primary key.
func (b *Blueprint) ID() *ColumnBuilder {
	return b.BigIncrements("id")
}

func (b *Blueprint) Increments(name string) *ColumnBuilder {
	cb := b.addColumn(types.SchemaColumn{Name: name, Type: types.TypeInteger, Unsigned: true, IsAutoIncrement: true})
	b.setPrimary(cb.col)
	return cb
}

func (b *Blueprint) BigIncrements(name string) *ColumnBuilder {
	cb := b.addColumn(types.SchemaColumn{Name: name, Type: types.TypeBigInteger, Unsigned: true, IsAutoIncrement: true})
	b.setPrimary(cb.col)
	return cb
}

func (b *Blueprint) UUIDPrimary(name string) *ColumnBuilder {
	cb := b.addColumn(types.SchemaColumn{Name: name, Type: types.TypeUUID})
	b.setPrimary(cb.col)
	return cb
}

// ForeignID declares an unsigned big-integer column meant to reference
// another table. No constraint exists until References or Constrained.
func (b *Blueprint) ForeignID(name string) *ForeignKeyBuilder {
	cb := b.UnsignedBigInteger(name)
	return &ForeignKeyBuilder{col: cb, index: -1}
}

// Helpers

// Timestamps declares nullable created_at and updated_at columns defaulting
// to the current time.
func (b *Blueprint) Timestamps() {
	b.Timestamp(types.CreatedAt).Nullable().DefaultRaw("CURRENT_TIMESTAMP")
	b.Timestamp(types.UpdatedAt).Nullable().DefaultRaw("CURRENT_TIMESTAMP")
}

func (b *Blueprint) SoftDeletes() {
	b.Timestamp(types.DeletedAt).Nullable()
}

// Indexes

func (b *Blueprint) indexName(columns []string, suffix string) string {
	return fmt.Sprintf("%s_%s_%s", b.table, strings.Join(columns, "_"), suffix)
}

func (b *Blueprint) addIndex(idx types.SchemaIndex, name []string) error {
	if len(idx.Columns) == 0 {
		return b.fail("", "%s index needs at least one column", idx.Kind)
	}
	// Altered tables may index columns declared by an earlier migration.
	if b.mode == modeCreate {
		for _, col := range idx.Columns {
			if _, ok := b.byName[col]; !ok {
				return b.fail(col, "%s index references undeclared column %q", idx.Kind, col)
			}
		}
	}
	if len(name) > 0 && name[0] != "" {
		idx.Name = name[0]
	} else {
		suffix := "index"
		if idx.Unique {
			suffix = "unique"
		}
		idx.Name = b.indexName(idx.Columns, suffix)
	}
	for _, existing := range b.indexes {
		if existing.Name == idx.Name {
			return nil
		}
	}
	idx.Table = b.table
	idx.Columns = append([]string(nil), idx.Columns...)
	b.indexes = append(b.indexes, idx)
	return nil
}

func (b *Blueprint) Index(columns []string, name ...string) error {
	return b.addIndex(types.SchemaIndex{Columns: columns, Kind: types.IndexRegular}, name)
}

func (b *Blueprint) UniqueIndex(columns []string, name ...string) error {
	return b.addIndex(types.SchemaIndex{Columns: columns, Kind: types.IndexUnique, Unique: true}, name)
}

// Composite declares a multi-column index; fewer than two columns is a
// construction error.
func (b *Blueprint) Composite(columns []string, name ...string) error {
	if len(columns) < 2 {
		return b.fail("", "composite index needs at least 2 columns, got %d", len(columns))
	}
	return b.addIndex(types.SchemaIndex{Columns: columns, Kind: types.IndexComposite}, name)
}

// Partial declares an index restricted to rows matching condition.
func (b *Blueprint) Partial(columns []string, condition string, name ...string) error {
	if strings.TrimSpace(condition) == "" {
		return b.fail("", "partial index needs a condition")
	}
	return b.addIndex(types.SchemaIndex{Columns: columns, Kind: types.IndexPartial, Condition: condition}, name)
}

func (b *Blueprint) DropIndex(name string) error {
	if b.mode != modeAlter {
		return b.fail("", "dropIndex %q is only valid when altering a table", name)
	}
	b.dropIndexes = append(b.dropIndexes, name)
	return nil
}

func (b *Blueprint) DropColumn(names ...string) error {
	if b.mode != modeAlter {
		return b.fail("", "dropColumn is only valid when altering a table")
	}
	b.dropColumns = append(b.dropColumns, names...)
	return nil
}

func (b *Blueprint) DropForeign(name string) error {
	if b.mode != modeAlter {
		return b.fail("", "dropForeign %q is only valid when altering a table", name)
	}
	b.dropForeign = append(b.dropForeign, name)
	return nil
}

func constructionReason(err error) string {
	if ce, ok := err.(*errs.ConstructionError); ok {
		return ce.Reason
	}
	return err.Error()
}
