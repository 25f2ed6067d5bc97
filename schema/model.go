package schema

import (
	"fmt"
	"sort"
)

// TableDef describes one table: its columns in declaration order plus
// table-level constraints and indexes.
type TableDef struct {
	Name        string            `json:"name" yaml:"name"`
	Columns     []ColumnDef       `json:"columns" yaml:"columns"`
	Constraints []TableConstraint `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	Indexes     []IndexDef        `json:"indexes,omitempty" yaml:"indexes,omitempty"`
}

// ColumnDef describes one column. PrimaryKey, Unique, Index and ForeignKey
// are inline sugar; Normalize rewrites them into table-level constraints.
type ColumnDef struct {
	Name       string         `json:"name" yaml:"name"`
	Type       ColumnType     `json:"type" yaml:"type"`
	Nullable   bool           `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Default    *string        `json:"default,omitempty" yaml:"default,omitempty"`
	Comment    *string        `json:"comment,omitempty" yaml:"comment,omitempty"`
	PrimaryKey bool           `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Unique     bool           `json:"unique,omitempty" yaml:"unique,omitempty"`
	Index      bool           `json:"index,omitempty" yaml:"index,omitempty"`
	ForeignKey *ForeignKeyDef `json:"foreign_key,omitempty" yaml:"foreign_key,omitempty"`
}

// ForeignKeyDef is the inline foreign key form attached to a single column.
type ForeignKeyDef struct {
	RefTable   string          `json:"ref_table" yaml:"ref_table"`
	RefColumns []string        `json:"ref_columns" yaml:"ref_columns"`
	OnDelete   ReferenceAction `json:"on_delete,omitempty" yaml:"on_delete,omitempty"`
	OnUpdate   ReferenceAction `json:"on_update,omitempty" yaml:"on_update,omitempty"`
}

type ReferenceAction string

const (
	Cascade    ReferenceAction = "cascade"
	Restrict   ReferenceAction = "restrict"
	SetNull    ReferenceAction = "set_null"
	SetDefault ReferenceAction = "set_default"
	NoAction   ReferenceAction = "no_action"
)

// SQL returns the clause keyword sequence for a reference action.
func (a ReferenceAction) SQL() string {
	switch a {
	case Cascade:
		return "CASCADE"
	case Restrict:
		return "RESTRICT"
	case SetNull:
		return "SET NULL"
	case SetDefault:
		return "SET DEFAULT"
	case NoAction:
		return "NO ACTION"
	}
	return ""
}

type ConstraintType string

const (
	PrimaryKeyConstraint ConstraintType = "primary_key"
	UniqueConstraint     ConstraintType = "unique"
	ForeignKeyConstraint ConstraintType = "foreign_key"
	CheckConstraint      ConstraintType = "check"
)

// TableConstraint is a tagged variant; the fields used depend on Type.
type TableConstraint struct {
	Type       ConstraintType  `json:"type" yaml:"type"`
	Name       string          `json:"name,omitempty" yaml:"name,omitempty"`
	Columns    []string        `json:"columns,omitempty" yaml:"columns,omitempty"`
	RefTable   string          `json:"ref_table,omitempty" yaml:"ref_table,omitempty"`
	RefColumns []string        `json:"ref_columns,omitempty" yaml:"ref_columns,omitempty"`
	OnDelete   ReferenceAction `json:"on_delete,omitempty" yaml:"on_delete,omitempty"`
	OnUpdate   ReferenceAction `json:"on_update,omitempty" yaml:"on_update,omitempty"`
	Expr       string          `json:"expr,omitempty" yaml:"expr,omitempty"`
}

type IndexDef struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []string `json:"columns" yaml:"columns"`
	Unique  bool     `json:"unique,omitempty" yaml:"unique,omitempty"`
}

// Schema is the comparable form the planner works on: normalized tables
// keyed by name plus the enum types their columns reference. Enums are
// schema-level objects because PostgreSQL creates and drops them outside
// the tables that use them.
type Schema struct {
	Tables map[string]*TableDef
	Enums  map[string]*EnumDef
}

// NewSchema builds a Schema from table definitions. Every table is
// normalized and the enum definitions referenced by columns are collected
// into the schema-level enum set.
func NewSchema(tables []TableDef) (*Schema, error) {
	s := EmptySchema()
	for i := range tables {
		norm, err := tables[i].Normalize()
		if err != nil {
			return nil, err
		}
		if _, ok := s.Tables[norm.Name]; ok {
			return nil, fmt.Errorf("duplicate table name: %s", norm.Name)
		}
		s.Tables[norm.Name] = norm
		for j := range norm.Columns {
			e := norm.Columns[j].Type.EnumDef()
			if e == nil {
				continue
			}
			if prev, ok := s.Enums[e.Name]; ok {
				if !prev.Equal(e) {
					return nil, fmt.Errorf("conflicting definitions for enum %s", e.Name)
				}
				continue
			}
			s.Enums[e.Name] = e
		}
	}
	return s, nil
}

// EmptySchema returns a schema with no tables and no enums.
func EmptySchema() *Schema {
	return &Schema{
		Tables: make(map[string]*TableDef),
		Enums:  make(map[string]*EnumDef),
	}
}

// TableNames returns the table names in sorted order. All iteration over
// schema maps goes through sorted keys so downstream diffs are deterministic.
func (s *Schema) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnumNames returns the enum type names in sorted order.
func (s *Schema) EnumNames() []string {
	names := make([]string, 0, len(s.Enums))
	for name := range s.Enums {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone deep-copies the schema so the applier can mutate it freely.
func (s *Schema) Clone() *Schema {
	out := EmptySchema()
	for name, tbl := range s.Tables {
		out.Tables[name] = tbl.Clone()
	}
	for name, e := range s.Enums {
		out.Enums[name] = e.Clone()
	}
	return out
}

// ColumnsUsingEnum returns every (table, column) pair typed with the named
// enum, sorted by table then declaration order.
func (s *Schema) ColumnsUsingEnum(enumName string) [][2]string {
	var refs [][2]string
	for _, tname := range s.TableNames() {
		tbl := s.Tables[tname]
		for i := range tbl.Columns {
			if tbl.Columns[i].Type.Kind == TypeEnum && tbl.Columns[i].Type.EnumName == enumName {
				refs = append(refs, [2]string{tname, tbl.Columns[i].Name})
			}
		}
	}
	return refs
}

// Column looks up a column by name.
func (t *TableDef) Column(name string) *ColumnDef {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// Constraint looks up a table-level constraint by name.
func (t *TableDef) Constraint(name string) *TableConstraint {
	for i := range t.Constraints {
		if t.Constraints[i].Name == name {
			return &t.Constraints[i]
		}
	}
	return nil
}

// Index looks up an index by name.
func (t *TableDef) Index(name string) *IndexDef {
	for i := range t.Indexes {
		if t.Indexes[i].Name == name {
			return &t.Indexes[i]
		}
	}
	return nil
}

// PrimaryKey returns the primary key constraint, if any.
func (t *TableDef) PrimaryKey() *TableConstraint {
	for i := range t.Constraints {
		if t.Constraints[i].Type == PrimaryKeyConstraint {
			return &t.Constraints[i]
		}
	}
	return nil
}

// Clone deep-copies a table definition.
func (t *TableDef) Clone() *TableDef {
	out := &TableDef{Name: t.Name}
	out.Columns = make([]ColumnDef, len(t.Columns))
	for i := range t.Columns {
		out.Columns[i] = *t.Columns[i].Clone()
	}
	out.Constraints = make([]TableConstraint, len(t.Constraints))
	for i := range t.Constraints {
		out.Constraints[i] = *t.Constraints[i].Clone()
	}
	out.Indexes = make([]IndexDef, len(t.Indexes))
	for i := range t.Indexes {
		out.Indexes[i] = IndexDef{
			Name:    t.Indexes[i].Name,
			Columns: append([]string(nil), t.Indexes[i].Columns...),
			Unique:  t.Indexes[i].Unique,
		}
	}
	return out
}

// Clone deep-copies a column definition.
func (c *ColumnDef) Clone() *ColumnDef {
	out := *c
	out.Type = *c.Type.Clone()
	if c.Default != nil {
		d := *c.Default
		out.Default = &d
	}
	if c.Comment != nil {
		cm := *c.Comment
		out.Comment = &cm
	}
	if c.ForeignKey != nil {
		fk := *c.ForeignKey
		fk.RefColumns = append([]string(nil), c.ForeignKey.RefColumns...)
		out.ForeignKey = &fk
	}
	return &out
}

// Clone deep-copies a constraint.
func (c *TableConstraint) Clone() *TableConstraint {
	out := *c
	out.Columns = append([]string(nil), c.Columns...)
	out.RefColumns = append([]string(nil), c.RefColumns...)
	return &out
}

// Equal compares two columns including type, nullability, default and comment.
func (c *ColumnDef) Equal(other *ColumnDef) bool {
	if c.Name != other.Name || c.Nullable != other.Nullable {
		return false
	}
	if !c.Type.Equal(&other.Type) {
		return false
	}
	return strPtrEqual(c.Default, other.Default) && strPtrEqual(c.Comment, other.Comment)
}

// Equal compares two constraints field by field.
func (c *TableConstraint) Equal(other *TableConstraint) bool {
	return c.Type == other.Type &&
		c.Name == other.Name &&
		strSliceEqual(c.Columns, other.Columns) &&
		c.RefTable == other.RefTable &&
		strSliceEqual(c.RefColumns, other.RefColumns) &&
		c.OnDelete == other.OnDelete &&
		c.OnUpdate == other.OnUpdate &&
		c.Expr == other.Expr
}

// Equal compares two indexes.
func (i *IndexDef) Equal(other *IndexDef) bool {
	return i.Name == other.Name && i.Unique == other.Unique && strSliceEqual(i.Columns, other.Columns)
}

func strPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func strSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
