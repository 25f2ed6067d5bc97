package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dev-five-git/vespertide/naming"
	"github.com/dev-five-git/vespertide/schema"
)

// ORM selects the export target.
type ORM string

const (
	SeaORM     ORM = "seaorm"
	SQLAlchemy ORM = "sqlalchemy"
	SQLModel   ORM = "sqlmodel"
)

// ParseORM validates an --orm argument.
func ParseORM(s string) (ORM, error) {
	switch ORM(s) {
	case SeaORM, SQLAlchemy, SQLModel:
		return ORM(s), nil
	}
	return "", fmt.Errorf("unknown orm: %s (want seaorm|sqlalchemy|sqlmodel)", s)
}

// Export renders one entity source file per table into dir. Tables must be
// normalized so primary keys and uniqueness live in table-level constraints.
func Export(s *schema.Schema, orm ORM, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}
	var written []string
	for _, name := range s.TableNames() {
		tbl := s.Tables[name]
		var content, ext string
		switch orm {
		case SeaORM:
			content, ext = renderSeaORM(tbl), "rs"
		case SQLAlchemy:
			content, ext = renderSQLAlchemy(tbl), "py"
		case SQLModel:
			content, ext = renderSQLModel(tbl), "py"
		default:
			return nil, fmt.Errorf("unknown orm: %s", orm)
		}
		path := filepath.Join(dir, fmt.Sprintf("%s.%s", name, ext))
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func pkColumns(tbl *schema.TableDef) map[string]bool {
	pk := make(map[string]bool)
	if c := tbl.PrimaryKey(); c != nil {
		for _, col := range c.Columns {
			pk[col] = true
		}
	}
	return pk
}

func uniqueColumns(tbl *schema.TableDef) map[string]bool {
	uq := make(map[string]bool)
	for i := range tbl.Constraints {
		c := &tbl.Constraints[i]
		if c.Type == schema.UniqueConstraint && len(c.Columns) == 1 {
			uq[c.Columns[0]] = true
		}
	}
	return uq
}

func rustType(t *schema.ColumnType) string {
	switch t.Kind {
	case schema.TypeInteger, schema.TypeSmallInt:
		return "i32"
	case schema.TypeBigInteger:
		return "i64"
	case schema.TypeReal:
		return "f32"
	case schema.TypeDouble:
		return "f64"
	case schema.TypeBoolean:
		return "bool"
	case schema.TypeUUID:
		return "Uuid"
	case schema.TypeDate:
		return "Date"
	case schema.TypeTime:
		return "Time"
	case schema.TypeTimestamp:
		return "DateTime"
	case schema.TypeTimestamptz:
		return "DateTimeWithTimeZone"
	case schema.TypeJSON, schema.TypeJSONB:
		return "Json"
	case schema.TypeBytea:
		return "Vec<u8>"
	case schema.TypeNumeric:
		return "Decimal"
	case schema.TypeEnum:
		if t.IsIntegerEnum() {
			return "i32"
		}
		return naming.Convert(t.EnumName, naming.Pascal)
	}
	return "String"
}

func renderSeaORM(tbl *schema.TableDef) string {
	var sb strings.Builder
	sb.WriteString("use sea_orm::entity::prelude::*;\n")
	sb.WriteString("use serde::{Deserialize, Serialize};\n\n")

	for _, e := range tableEnums(tbl) {
		if e.IsInteger() {
			continue
		}
		sb.WriteString("#[derive(Debug, Clone, PartialEq, Eq, EnumIter, DeriveActiveEnum, Serialize, Deserialize)]\n")
		sb.WriteString(fmt.Sprintf("#[sea_orm(rs_type = \"String\", db_type = \"Enum\", enum_name = %q)]\n", e.Name))
		sb.WriteString(fmt.Sprintf("pub enum %s {\n", naming.Convert(e.Name, naming.Pascal)))
		for _, v := range e.Values {
			sb.WriteString(fmt.Sprintf("    #[sea_orm(string_value = %q)]\n    %s,\n", v, naming.Convert(v, naming.Pascal)))
		}
		sb.WriteString("}\n\n")
	}

	pk := pkColumns(tbl)
	uq := uniqueColumns(tbl)
	sb.WriteString("#[derive(Debug, Clone, PartialEq, Eq, DeriveEntityModel, Serialize, Deserialize)]\n")
	sb.WriteString(fmt.Sprintf("#[sea_orm(table_name = %q)]\n", tbl.Name))
	sb.WriteString("pub struct Model {\n")
	for i := range tbl.Columns {
		col := &tbl.Columns[i]
		var attrs []string
		if pk[col.Name] {
			attrs = append(attrs, "primary_key")
		}
		if uq[col.Name] {
			attrs = append(attrs, "unique")
		}
		if len(attrs) > 0 {
			sb.WriteString(fmt.Sprintf("    #[sea_orm(%s)]\n", strings.Join(attrs, ", ")))
		}
		ty := rustType(&col.Type)
		if col.Nullable {
			ty = fmt.Sprintf("Option<%s>", ty)
		}
		sb.WriteString(fmt.Sprintf("    pub %s: %s,\n", col.Name, ty))
	}
	sb.WriteString("}\n\n")
	sb.WriteString("#[derive(Copy, Clone, Debug, EnumIter, DeriveRelation)]\n")
	sb.WriteString("pub enum Relation {}\n\n")
	sb.WriteString("impl ActiveModelBehavior for ActiveModel {}\n")
	return sb.String()
}

func pythonType(t *schema.ColumnType) string {
	switch t.Kind {
	case schema.TypeInteger, schema.TypeBigInteger, schema.TypeSmallInt:
		return "int"
	case schema.TypeReal, schema.TypeDouble, schema.TypeNumeric:
		return "float"
	case schema.TypeBoolean:
		return "bool"
	case schema.TypeBytea:
		return "bytes"
	case schema.TypeDate:
		return "date"
	case schema.TypeTime:
		return "time"
	case schema.TypeTimestamp, schema.TypeTimestamptz:
		return "datetime"
	case schema.TypeJSON, schema.TypeJSONB:
		return "dict"
	case schema.TypeEnum:
		if t.IsIntegerEnum() {
			return "int"
		}
		return naming.Convert(t.EnumName, naming.Pascal)
	}
	return "str"
}

func renderSQLAlchemy(tbl *schema.TableDef) string {
	var sb strings.Builder
	sb.WriteString("from sqlalchemy.orm import DeclarativeBase, Mapped, mapped_column\n")
	sb.WriteString("import enum\n\n\n")
	sb.WriteString("class Base(DeclarativeBase):\n    pass\n\n\n")

	for _, e := range tableEnums(tbl) {
		className := naming.Convert(e.Name, naming.Pascal)
		if e.IsInteger() {
			sb.WriteString(fmt.Sprintf("class %s(enum.IntEnum):\n", className))
			for _, m := range e.Members {
				sb.WriteString(fmt.Sprintf("    %s = %d\n", strings.ToUpper(naming.Convert(m.Name, naming.Snake)), m.Value))
			}
		} else {
			sb.WriteString(fmt.Sprintf("class %s(enum.Enum):\n", className))
			for _, v := range e.Values {
				sb.WriteString(fmt.Sprintf("    %s = %q\n", strings.ToUpper(naming.Convert(v, naming.Snake)), v))
			}
		}
		sb.WriteString("\n\n")
	}

	pk := pkColumns(tbl)
	uq := uniqueColumns(tbl)
	sb.WriteString(fmt.Sprintf("class %s(Base):\n", naming.Convert(tbl.Name, naming.Pascal)))
	sb.WriteString(fmt.Sprintf("    __tablename__ = %q\n\n", tbl.Name))
	for i := range tbl.Columns {
		col := &tbl.Columns[i]
		ty := pythonType(&col.Type)
		if col.Nullable {
			ty = ty + " | None"
		}
		var opts []string
		if pk[col.Name] {
			opts = append(opts, "primary_key=True")
		}
		if uq[col.Name] {
			opts = append(opts, "unique=True")
		}
		args := ""
		if len(opts) > 0 {
			args = strings.Join(opts, ", ")
		}
		sb.WriteString(fmt.Sprintf("    %s: Mapped[%s] = mapped_column(%s)\n", col.Name, ty, args))
	}
	return sb.String()
}

func renderSQLModel(tbl *schema.TableDef) string {
	var sb strings.Builder
	sb.WriteString("from sqlmodel import Field, SQLModel\n")
	sb.WriteString("import enum\n\n\n")

	for _, e := range tableEnums(tbl) {
		className := naming.Convert(e.Name, naming.Pascal)
		if e.IsInteger() {
			sb.WriteString(fmt.Sprintf("class %s(enum.IntEnum):\n", className))
			for _, m := range e.Members {
				sb.WriteString(fmt.Sprintf("    %s = %d\n", strings.ToUpper(naming.Convert(m.Name, naming.Snake)), m.Value))
			}
		} else {
			sb.WriteString(fmt.Sprintf("class %s(enum.Enum):\n", className))
			for _, v := range e.Values {
				sb.WriteString(fmt.Sprintf("    %s = %q\n", strings.ToUpper(naming.Convert(v, naming.Snake)), v))
			}
		}
		sb.WriteString("\n\n")
	}

	pk := pkColumns(tbl)
	uq := uniqueColumns(tbl)
	sb.WriteString(fmt.Sprintf("class %s(SQLModel, table=True):\n", naming.Convert(tbl.Name, naming.Pascal)))
	sb.WriteString(fmt.Sprintf("    __tablename__ = %q\n\n", tbl.Name))
	for i := range tbl.Columns {
		col := &tbl.Columns[i]
		ty := pythonType(&col.Type)
		if col.Nullable {
			ty = ty + " | None"
		}
		var opts []string
		if pk[col.Name] {
			opts = append(opts, "primary_key=True")
		}
		if uq[col.Name] {
			opts = append(opts, "unique=True")
		}
		if len(opts) > 0 {
			sb.WriteString(fmt.Sprintf("    %s: %s = Field(%s)\n", col.Name, ty, strings.Join(opts, ", ")))
		} else {
			sb.WriteString(fmt.Sprintf("    %s: %s\n", col.Name, ty))
		}
	}
	return sb.String()
}

func tableEnums(tbl *schema.TableDef) []*schema.EnumDef {
	byName := make(map[string]*schema.EnumDef)
	for i := range tbl.Columns {
		if e := tbl.Columns[i].Type.EnumDef(); e != nil {
			byName[e.Name] = e
		}
	}
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]*schema.EnumDef, len(names))
	for i, n := range names {
		out[i] = byName[n]
	}
	return out
}
