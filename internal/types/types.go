package types

import "time"

// ColumnType is the abstract, store-independent type of a column.
type ColumnType string

const (
	TypeString       ColumnType = "string"
	TypeChar         ColumnType = "char"
	TypeText         ColumnType = "text"
	TypeMediumText   ColumnType = "mediumText"
	TypeLongText     ColumnType = "longText"
	TypeInteger      ColumnType = "integer"
	TypeTinyInteger  ColumnType = "tinyInteger"
	TypeSmallInteger ColumnType = "smallInteger"
	TypeBigInteger   ColumnType = "bigInteger"
	TypeDecimal      ColumnType = "decimal"
	TypeFloat        ColumnType = "float"
	TypeDouble       ColumnType = "double"
	TypeBoolean      ColumnType = "boolean"
	TypeDate         ColumnType = "date"
	TypeDateTime     ColumnType = "dateTime"
	TypeTimestamp    ColumnType = "timestamp"
	TypeTime         ColumnType = "time"
	TypeEnum         ColumnType = "enum"
	TypeJSON         ColumnType = "json"
	TypeJSONB        ColumnType = "jsonb"
	TypeUUID         ColumnType = "uuid"
	TypeBinary       ColumnType = "binary"
)

// Timestamp column names shared by blueprints, models and seeders.
const (
	CreatedAt = "created_at"
	UpdatedAt = "updated_at"
	DeletedAt = "deleted_at"
)

type SchemaTable struct {
	Name        string
	Columns     []SchemaColumn
	Indexes     []SchemaIndex
	ForeignKeys []ForeignKey
}

// Column returns the named column and whether it exists.
func (t SchemaTable) Column(name string) (SchemaColumn, bool) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return SchemaColumn{}, false
}

// PrimaryKey returns the primary key column name, or "" when none is declared.
func (t SchemaTable) PrimaryKey() string {
	for _, col := range t.Columns {
		if col.IsPrimary {
			return col.Name
		}
	}
	return ""
}

type SchemaColumn struct {
	Name            string
	Type            ColumnType
	Length          int
	Precision       int
	Scale           int
	EnumValues      []string
	Unsigned        bool
	Nullable        bool
	HasDefault      bool
	Default         any
	DefaultRaw      bool // Default is a store expression such as CURRENT_TIMESTAMP
	IsPrimary       bool
	IsUnique        bool
	IsAutoIncrement bool
	Comment         string

	// Ordering hints, only honoured by ALTER TABLE ... ADD COLUMN.
	After string
	First bool

	// Inline reference, set when a foreign key targets this column.
	ForeignKeyTable  string
	ForeignKeyColumn string
	OnDeleteAction   string
	OnUpdateAction   string
}

type IndexKind string

const (
	IndexRegular   IndexKind = "regular"
	IndexUnique    IndexKind = "unique"
	IndexComposite IndexKind = "composite"
	IndexPartial   IndexKind = "partial"
)

type SchemaIndex struct {
	Name      string
	Table     string
	Columns   []string
	Kind      IndexKind
	Unique    bool
	Condition string // partial indexes only
}

type ForeignKey struct {
	Name      string
	Table     string
	Column    string
	RefTable  string
	RefColumn string
	OnDelete  string
	OnUpdate  string
}

type RelationKind string

const (
	BelongsTo     RelationKind = "belongsTo"
	HasOne        RelationKind = "hasOne"
	HasMany       RelationKind = "hasMany"
	BelongsToMany RelationKind = "belongsToMany"
)

// Relation describes how two model tables are linked.
//
// For BelongsTo, ForeignKey lives on the owning table and OwnerKey on the
// related table. For HasOne/HasMany, ForeignKey lives on the related table and
// LocalKey on the owning table. BelongsToMany joins through PivotTable.
type Relation struct {
	Name            string
	Kind            RelationKind
	Model           string
	Table           string
	ForeignKey      string
	OwnerKey        string
	LocalKey        string
	PivotTable      string
	ForeignPivotKey string
	RelatedPivotKey string
}

// Record is one row of attributes keyed by column name.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

type MigrationStatusItem struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Batch     int        `json:"batch"`
	Status    string     `json:"status"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
}

type MigrationStatus struct {
	TotalMigrations   int                   `json:"total_migrations"`
	AppliedMigrations int                   `json:"applied_migrations"`
	PendingMigrations int                   `json:"pending_migrations"`
	Migrations        []MigrationStatusItem `json:"migrations"`
}
