package migration

import (
	"fmt"
	"strings"

	"github.com/dev-five-git/vespertide/schema"
)

type ActionType string

const (
	CreateTable          ActionType = "create_table"
	DeleteTable          ActionType = "delete_table"
	RenameTable          ActionType = "rename_table"
	AddColumn            ActionType = "add_column"
	DeleteColumn         ActionType = "delete_column"
	RenameColumn         ActionType = "rename_column"
	ModifyColumnType     ActionType = "modify_column_type"
	ModifyColumnNullable ActionType = "modify_column_nullable"
	ModifyColumnDefault  ActionType = "modify_column_default"
	ModifyColumnComment  ActionType = "modify_column_comment"
	AddConstraint        ActionType = "add_constraint"
	RemoveConstraint     ActionType = "remove_constraint"
	AddIndex             ActionType = "add_index"
	RemoveIndex          ActionType = "remove_index"
	CreateEnum           ActionType = "create_enum"
	DropEnum             ActionType = "drop_enum"
	AlterEnumAddValue    ActionType = "alter_enum_add_value"
	Raw                  ActionType = "raw"
)

// Action is one typed migration operation. Type selects the variant and
// determines which fields are meaningful; unused fields stay zero so the
// JSON form carries only the variant's payload.
type Action struct {
	Type ActionType `json:"type" yaml:"type"`

	Table string `json:"table,omitempty" yaml:"table,omitempty"`

	// RenameTable / RenameColumn.
	From string `json:"from,omitempty" yaml:"from,omitempty"`
	To   string `json:"to,omitempty" yaml:"to,omitempty"`

	// CreateTable.
	Columns     []schema.ColumnDef       `json:"columns,omitempty" yaml:"columns,omitempty"`
	Constraints []schema.TableConstraint `json:"constraints,omitempty" yaml:"constraints,omitempty"`

	// AddColumn; FillWith backfills existing rows when the column is
	// non-nullable without a default.
	Column   *schema.ColumnDef `json:"column,omitempty" yaml:"column,omitempty"`
	FillWith string            `json:"fill_with,omitempty" yaml:"fill_with,omitempty"`

	// DeleteColumn and the ModifyColumn* family.
	ColumnName string             `json:"column_name,omitempty" yaml:"column_name,omitempty"`
	NewType    *schema.ColumnType `json:"new_type,omitempty" yaml:"new_type,omitempty"`
	Nullable   *bool              `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	NewDefault *string            `json:"new_default,omitempty" yaml:"new_default,omitempty"`
	NewComment *string            `json:"new_comment,omitempty" yaml:"new_comment,omitempty"`

	// AddConstraint / RemoveConstraint.
	Constraint *schema.TableConstraint `json:"constraint,omitempty" yaml:"constraint,omitempty"`

	// AddIndex / RemoveIndex.
	Index     *schema.IndexDef `json:"index,omitempty" yaml:"index,omitempty"`
	IndexName string           `json:"index_name,omitempty" yaml:"index_name,omitempty"`

	// CreateEnum / DropEnum / AlterEnumAddValue. Value carries the new
	// variant for string enums, Member for integer enums.
	Enum     *schema.EnumDef    `json:"enum,omitempty" yaml:"enum,omitempty"`
	EnumName string             `json:"enum_name,omitempty" yaml:"enum_name,omitempty"`
	Value    string             `json:"value,omitempty" yaml:"value,omitempty"`
	Member   *schema.EnumMember `json:"member,omitempty" yaml:"member,omitempty"`

	// Raw carries pre-built SQL per backend; it is opaque to the applier.
	Postgres string `json:"postgres,omitempty" yaml:"postgres,omitempty"`
	MySQL    string `json:"mysql,omitempty" yaml:"mysql,omitempty"`
	SQLite   string `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`
}

// String renders a short human-readable description, used by diff output.
func (a *Action) String() string {
	switch a.Type {
	case CreateTable:
		return fmt.Sprintf("CREATE TABLE %s", a.Table)
	case DeleteTable:
		return fmt.Sprintf("DELETE TABLE %s", a.Table)
	case RenameTable:
		return fmt.Sprintf("RENAME TABLE %s -> %s", a.From, a.To)
	case AddColumn:
		return fmt.Sprintf("ADD COLUMN %s.%s (%s)", a.Table, a.Column.Name, a.Column.Type)
	case DeleteColumn:
		return fmt.Sprintf("DELETE COLUMN %s.%s", a.Table, a.ColumnName)
	case RenameColumn:
		return fmt.Sprintf("RENAME COLUMN %s.%s -> %s", a.Table, a.From, a.To)
	case ModifyColumnType:
		return fmt.Sprintf("MODIFY COLUMN TYPE %s.%s -> %s", a.Table, a.ColumnName, a.NewType)
	case ModifyColumnNullable:
		if a.Nullable != nil && *a.Nullable {
			return fmt.Sprintf("MODIFY COLUMN %s.%s DROP NOT NULL", a.Table, a.ColumnName)
		}
		return fmt.Sprintf("MODIFY COLUMN %s.%s SET NOT NULL", a.Table, a.ColumnName)
	case ModifyColumnDefault:
		if a.NewDefault == nil {
			return fmt.Sprintf("MODIFY COLUMN %s.%s DROP DEFAULT", a.Table, a.ColumnName)
		}
		return fmt.Sprintf("MODIFY COLUMN %s.%s SET DEFAULT %s", a.Table, a.ColumnName, *a.NewDefault)
	case ModifyColumnComment:
		return fmt.Sprintf("MODIFY COLUMN COMMENT %s.%s", a.Table, a.ColumnName)
	case AddConstraint:
		return fmt.Sprintf("ADD CONSTRAINT %s ON %s", a.Constraint.Name, a.Table)
	case RemoveConstraint:
		return fmt.Sprintf("REMOVE CONSTRAINT %s ON %s", a.Constraint.Name, a.Table)
	case AddIndex:
		return fmt.Sprintf("ADD INDEX %s ON %s (%s)", a.Index.Name, a.Table, strings.Join(a.Index.Columns, ", "))
	case RemoveIndex:
		return fmt.Sprintf("REMOVE INDEX %s ON %s", a.IndexName, a.Table)
	case CreateEnum:
		return fmt.Sprintf("CREATE ENUM %s", a.Enum.Name)
	case DropEnum:
		return fmt.Sprintf("DROP ENUM %s", a.EnumName)
	case AlterEnumAddValue:
		return fmt.Sprintf("ALTER ENUM %s ADD VALUE %s", a.EnumName, a.Value)
	case Raw:
		return "RAW SQL"
	}
	return string(a.Type)
}
