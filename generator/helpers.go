package generator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dev-five-git/vespertide/schema"
)

// typeSQL renders a column type in the backend's dialect.
func typeSQL(b Backend, t *schema.ColumnType) string {
	switch t.Kind {
	case schema.TypeInteger:
		return "INTEGER"
	case schema.TypeBigInteger:
		return "BIGINT"
	case schema.TypeSmallInt:
		return "SMALLINT"
	case schema.TypeReal:
		return "REAL"
	case schema.TypeDouble:
		if b == MySQL {
			return "DOUBLE"
		}
		return "DOUBLE PRECISION"
	case schema.TypeText:
		return "TEXT"
	case schema.TypeBoolean:
		return "BOOLEAN"
	case schema.TypeUUID:
		switch b {
		case Postgres:
			return "UUID"
		case MySQL:
			return "CHAR(36)"
		default:
			return "TEXT"
		}
	case schema.TypeJSON:
		if b == SQLite {
			return "TEXT"
		}
		return "JSON"
	case schema.TypeJSONB:
		switch b {
		case Postgres:
			return "JSONB"
		case MySQL:
			return "JSON"
		default:
			return "TEXT"
		}
	case schema.TypeBytea:
		switch b {
		case Postgres:
			return "BYTEA"
		default:
			return "BLOB"
		}
	case schema.TypeDate:
		return "DATE"
	case schema.TypeTime:
		return "TIME"
	case schema.TypeTimestamp:
		if b == MySQL {
			return "DATETIME"
		}
		return "TIMESTAMP"
	case schema.TypeTimestamptz:
		switch b {
		case Postgres:
			return "TIMESTAMPTZ"
		case MySQL:
			return "TIMESTAMP"
		default:
			return "TIMESTAMP"
		}
	case schema.TypeInterval:
		if b == Postgres {
			return "INTERVAL"
		}
		return "TEXT"
	case schema.TypeInet:
		if b == Postgres {
			return "INET"
		}
		return "VARCHAR(43)"
	case schema.TypeCidr:
		if b == Postgres {
			return "CIDR"
		}
		return "VARCHAR(43)"
	case schema.TypeMacaddr:
		if b == Postgres {
			return "MACADDR"
		}
		return "VARCHAR(17)"
	case schema.TypeXML:
		if b == Postgres {
			return "XML"
		}
		return "TEXT"
	case schema.TypeChar:
		return fmt.Sprintf("CHAR(%d)", t.Length)
	case schema.TypeVarchar:
		return fmt.Sprintf("VARCHAR(%d)", t.Length)
	case schema.TypeNumeric:
		if b == MySQL {
			return fmt.Sprintf("DECIMAL(%d, %d)", t.Precision, t.Scale)
		}
		return fmt.Sprintf("NUMERIC(%d, %d)", t.Precision, t.Scale)
	case schema.TypeEnum:
		return enumTypeSQL(b, t)
	case schema.TypeCustom:
		return t.Custom
	}
	return strings.ToUpper(string(t.Kind))
}

// enumTypeSQL renders the backend's representation of an enum column:
// the named type on PostgreSQL, an inline ENUM(...) on MySQL, TEXT on
// SQLite (the CHECK constraint is added by the table definition). Integer
// enums are plain INTEGER columns everywhere.
func enumTypeSQL(b Backend, t *schema.ColumnType) string {
	if t.IsIntegerEnum() {
		return "INTEGER"
	}
	switch b {
	case Postgres:
		return b.Quote(t.EnumName)
	case MySQL:
		quoted := make([]string, len(t.EnumValues))
		for i, v := range t.EnumValues {
			quoted[i] = "'" + v + "'"
		}
		return fmt.Sprintf("ENUM(%s)", strings.Join(quoted, ", "))
	default:
		return "TEXT"
	}
}

// convertDefault rewrites a default expression for a backend. Well-known
// generator functions map onto the backend's equivalent; integer-enum
// member names become their integer literal; everything else passes
// through untouched.
func convertDefault(b Backend, def string, colType *schema.ColumnType) string {
	switch strings.ToLower(def) {
	case "now()", "current_timestamp()", "current_timestamp":
		return "CURRENT_TIMESTAMP"
	case "gen_random_uuid()":
		switch b {
		case Postgres:
			return "gen_random_uuid()"
		case MySQL:
			return "(UUID())"
		default:
			return "(lower(hex(randomblob(16))))"
		}
	}
	if colType != nil && colType.IsIntegerEnum() {
		name := strings.Trim(def, "'")
		if e := colType.EnumDef(); e != nil {
			if v, ok := e.MemberValue(name); ok {
				return strconv.Itoa(v)
			}
		}
	}
	return def
}

// columnSQL renders one column definition clause. inlinePK marks the
// single-column primary key rendered directly on the column.
func columnSQL(b Backend, col *schema.ColumnDef, inlinePK bool) string {
	var sb strings.Builder
	sb.WriteString(b.Quote(col.Name))
	sb.WriteString(" ")
	sb.WriteString(typeSQL(b, &col.Type))
	if !col.Nullable {
		sb.WriteString(" NOT NULL")
	}
	if inlinePK {
		sb.WriteString(" PRIMARY KEY")
	}
	if col.Default != nil {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(convertDefault(b, *col.Default, &col.Type))
	}
	if b == MySQL && col.Comment != nil {
		sb.WriteString(fmt.Sprintf(" COMMENT '%s'", strings.ReplaceAll(*col.Comment, "'", "''")))
	}
	return sb.String()
}

func quoteList(b Backend, idents []string) string {
	quoted := make([]string, len(idents))
	for i, id := range idents {
		quoted[i] = b.Quote(id)
	}
	return strings.Join(quoted, ", ")
}

// enumCheckName names the CHECK constraint SQLite uses in place of a
// native enum type.
func enumCheckName(table, column string) string {
	return fmt.Sprintf("chk_%s__%s", table, column)
}

// enumCheckClause renders the SQLite CHECK constraint restricting an enum
// column to its value list. Integer enums carry no CHECK.
func enumCheckClause(b Backend, table string, col *schema.ColumnDef) string {
	if col.Type.Kind != schema.TypeEnum || col.Type.IsIntegerEnum() {
		return ""
	}
	e := col.Type.EnumDef()
	return fmt.Sprintf("CONSTRAINT %s CHECK (%s IN (%s))",
		b.Quote(enumCheckName(table, col.Name)),
		b.Quote(col.Name),
		strings.Join(e.SQLValues(), ", "))
}

// constraintClause renders a table-level constraint clause for CREATE TABLE
// or ALTER TABLE ... ADD. It renders unique constraints on every backend;
// on PostgreSQL the CREATE TABLE renderer skips them because they lower to
// CREATE UNIQUE INDEX statements instead.
func constraintClause(b Backend, c *schema.TableConstraint) string {
	switch c.Type {
	case schema.PrimaryKeyConstraint:
		return fmt.Sprintf("PRIMARY KEY (%s)", quoteList(b, c.Columns))
	case schema.UniqueConstraint:
		return fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)", b.Quote(c.Name), quoteList(b, c.Columns))
	case schema.ForeignKeyConstraint:
		clause := fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
			b.Quote(c.Name), quoteList(b, c.Columns), b.Quote(c.RefTable), quoteList(b, c.RefColumns))
		if c.OnDelete != "" {
			clause += " ON DELETE " + c.OnDelete.SQL()
		}
		if c.OnUpdate != "" {
			clause += " ON UPDATE " + c.OnUpdate.SQL()
		}
		return clause
	case schema.CheckConstraint:
		return fmt.Sprintf("CONSTRAINT %s CHECK (%s)", b.Quote(c.Name), c.Expr)
	}
	return ""
}
