package generator

import (
	"fmt"
	"strings"

	"github.com/dev-five-git/vespertide/migration"
	"github.com/dev-five-git/vespertide/planner"
	"github.com/dev-five-git/vespertide/schema"
)

// BuildPlanQueries lowers every action of a plan for one backend,
// threading the schema snapshot through the applier so actions that need
// schema context (SQLite rebuilds, MySQL enum columns) see the state their
// predecessors produced. Emission stops at the first error because later
// statements may depend on earlier ones.
func BuildPlanQueries(b Backend, plan *migration.Plan, current *schema.Schema) ([]BuiltQuery, error) {
	working := schema.EmptySchema()
	if current != nil {
		working = current.Clone()
	}
	var queries []BuiltQuery
	for i := range plan.Actions {
		act := &plan.Actions[i]
		qs, err := BuildActionQueries(b, act, working)
		if err != nil {
			return nil, fmt.Errorf("action %d (%s): %w", i+1, act.Type, err)
		}
		queries = append(queries, qs...)
		if aerr := planner.Apply(working, act); aerr != nil {
			return nil, fmt.Errorf("action %d (%s): %w", i+1, act.Type, aerr)
		}
	}
	return queries, nil
}

// BuildActionQueries lowers a single action into backend statements.
// current is the schema as it stands before the action runs; several
// lowerings cannot be produced without it.
func BuildActionQueries(b Backend, act *migration.Action, current *schema.Schema) ([]BuiltQuery, error) {
	switch act.Type {
	case migration.CreateTable:
		return buildCreateTable(b, act)
	case migration.DeleteTable:
		return []BuiltQuery{stmt(dropTableStmt{name: act.Table})}, nil
	case migration.RenameTable:
		return []BuiltQuery{stmt(renameTableStmt{from: act.From, to: act.To})}, nil
	case migration.AddColumn:
		return buildAddColumn(b, act, current)
	case migration.DeleteColumn:
		return []BuiltQuery{stmt(dropColumnStmt{table: act.Table, column: act.ColumnName})}, nil
	case migration.RenameColumn:
		return []BuiltQuery{stmt(renameColumnStmt{table: act.Table, from: act.From, to: act.To})}, nil
	case migration.ModifyColumnType:
		return buildModifyColumnType(b, act, current)
	case migration.ModifyColumnNullable:
		return buildModifyColumnNullable(b, act, current)
	case migration.ModifyColumnDefault:
		return buildModifyColumnDefault(b, act, current)
	case migration.ModifyColumnComment:
		return buildModifyColumnComment(b, act, current)
	case migration.AddConstraint:
		return buildAddConstraint(b, act, current)
	case migration.RemoveConstraint:
		return buildRemoveConstraint(b, act, current)
	case migration.AddIndex:
		return []BuiltQuery{stmt(createIndexStmt{table: act.Table, index: *act.Index})}, nil
	case migration.RemoveIndex:
		return []BuiltQuery{stmt(dropIndexStmt{table: act.Table, name: act.IndexName})}, nil
	case migration.CreateEnum:
		return buildCreateEnum(b, act)
	case migration.DropEnum:
		return buildDropEnum(b, act)
	case migration.AlterEnumAddValue:
		return buildAlterEnumAddValue(b, act, current)
	case migration.Raw:
		return []BuiltQuery{raw(&RawSQL{Postgres: act.Postgres, MySQL: act.MySQL, SQLite: act.SQLite})}, nil
	}
	return nil, fmt.Errorf("unknown action type: %s", act.Type)
}

// only wraps a statement built for one backend.
func only(b Backend, sql string) BuiltQuery {
	r := &RawSQL{}
	switch b {
	case Postgres:
		r.Postgres = sql
	case MySQL:
		r.MySQL = sql
	case SQLite:
		r.SQLite = sql
	}
	return raw(r)
}

func requireTable(b Backend, current *schema.Schema, table string, action migration.ActionType) (*schema.TableDef, error) {
	if current != nil {
		if tbl, ok := current.Tables[table]; ok {
			return tbl, nil
		}
	}
	return nil, fmt.Errorf("%w: %s on %s needs the current schema for table %s", ErrBackendUnsupported, action, b, table)
}

func buildCreateTable(b Backend, act *migration.Action) ([]BuiltQuery, error) {
	tbl := schema.TableDef{Name: act.Table, Columns: act.Columns, Constraints: act.Constraints}
	norm, err := tbl.Normalize()
	if err != nil {
		return nil, err
	}
	queries := []BuiltQuery{stmt(createTableStmt{name: norm.Name, table: norm})}
	if b == Postgres {
		for i := range norm.Constraints {
			c := &norm.Constraints[i]
			if c.Type != schema.UniqueConstraint {
				continue
			}
			queries = append(queries, stmt(createIndexStmt{
				table: norm.Name,
				index: schema.IndexDef{Name: c.Name, Columns: c.Columns, Unique: true},
			}))
		}
	}
	return queries, nil
}

func buildAddColumn(b Backend, act *migration.Action, current *schema.Schema) ([]BuiltQuery, error) {
	col := act.Column
	if col.Nullable || col.Default != nil {
		return []BuiltQuery{stmt(addColumnStmt{table: act.Table, column: *col})}, nil
	}

	// Non-nullable without default: SQLite refuses ADD COLUMN NOT NULL
	// outright and needs a fill_with for the rebuild; with a fill_with the
	// other backends add nullable, backfill, then tighten, and without one
	// they emit ADD COLUMN ... NOT NULL directly.
	if b == SQLite {
		if act.FillWith == "" {
			return nil, fmt.Errorf("%w: column %s.%s", ErrMissingBackfill, act.Table, col.Name)
		}
		pre, err := requireTable(b, current, act.Table, act.Type)
		if err != nil {
			return nil, err
		}
		post := pre.Clone()
		post.Columns = append(post.Columns, *col.Clone())
		return rebuildTable(pre, post, map[string]string{col.Name: act.FillWith}), nil
	}

	if act.FillWith == "" {
		return []BuiltQuery{stmt(addColumnStmt{table: act.Table, column: *col})}, nil
	}

	relaxed := *col.Clone()
	relaxed.Nullable = true
	queries := []BuiltQuery{
		stmt(addColumnStmt{table: act.Table, column: relaxed}),
		only(b, fmt.Sprintf("UPDATE %s SET %s = %s;", b.Quote(act.Table), b.Quote(col.Name), act.FillWith)),
	}
	switch b {
	case Postgres:
		queries = append(queries, only(b, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL;",
			b.Quote(act.Table), b.Quote(col.Name))))
	case MySQL:
		queries = append(queries, only(b, fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s;",
			b.Quote(act.Table), columnSQL(b, col, false))))
	}
	return queries, nil
}

func buildModifyColumnType(b Backend, act *migration.Action, current *schema.Schema) ([]BuiltQuery, error) {
	switch b {
	case Postgres:
		return []BuiltQuery{only(b, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s;",
			b.Quote(act.Table), b.Quote(act.ColumnName), typeSQL(b, act.NewType)))}, nil
	case MySQL:
		tbl, err := requireTable(b, current, act.Table, act.Type)
		if err != nil {
			return nil, err
		}
		col := tbl.Column(act.ColumnName)
		if col == nil {
			return nil, fmt.Errorf("%w: column %s.%s not in current schema", ErrBackendUnsupported, act.Table, act.ColumnName)
		}
		modified := *col.Clone()
		modified.Type = *act.NewType.Clone()
		return []BuiltQuery{only(b, fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s;",
			b.Quote(act.Table), columnSQL(b, &modified, false)))}, nil
	default:
		pre, err := requireTable(b, current, act.Table, act.Type)
		if err != nil {
			return nil, err
		}
		post := pre.Clone()
		col := post.Column(act.ColumnName)
		if col == nil {
			return nil, fmt.Errorf("%w: column %s.%s not in current schema", ErrBackendUnsupported, act.Table, act.ColumnName)
		}
		col.Type = *act.NewType.Clone()
		return rebuildTable(pre, post, nil), nil
	}
}

func buildModifyColumnNullable(b Backend, act *migration.Action, current *schema.Schema) ([]BuiltQuery, error) {
	nullable := act.Nullable != nil && *act.Nullable
	var queries []BuiltQuery
	if !nullable && act.FillWith != "" {
		queries = append(queries, only(b, fmt.Sprintf("UPDATE %s SET %s = %s WHERE %s IS NULL;",
			b.Quote(act.Table), b.Quote(act.ColumnName), act.FillWith, b.Quote(act.ColumnName))))
	}
	switch b {
	case Postgres:
		verb := "SET"
		if nullable {
			verb = "DROP"
		}
		queries = append(queries, only(b, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s NOT NULL;",
			b.Quote(act.Table), b.Quote(act.ColumnName), verb)))
		return queries, nil
	case MySQL:
		tbl, err := requireTable(b, current, act.Table, act.Type)
		if err != nil {
			return nil, err
		}
		col := tbl.Column(act.ColumnName)
		if col == nil {
			return nil, fmt.Errorf("%w: column %s.%s not in current schema", ErrBackendUnsupported, act.Table, act.ColumnName)
		}
		modified := *col.Clone()
		modified.Nullable = nullable
		queries = append(queries, only(b, fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s;",
			b.Quote(act.Table), columnSQL(b, &modified, false))))
		return queries, nil
	default:
		pre, err := requireTable(b, current, act.Table, act.Type)
		if err != nil {
			return nil, err
		}
		post := pre.Clone()
		col := post.Column(act.ColumnName)
		if col == nil {
			return nil, fmt.Errorf("%w: column %s.%s not in current schema", ErrBackendUnsupported, act.Table, act.ColumnName)
		}
		col.Nullable = nullable
		return append(queries, rebuildTable(pre, post, nil)...), nil
	}
}

func buildModifyColumnDefault(b Backend, act *migration.Action, current *schema.Schema) ([]BuiltQuery, error) {
	switch b {
	case Postgres, MySQL:
		if act.NewDefault == nil {
			return []BuiltQuery{only(b, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT;",
				b.Quote(act.Table), b.Quote(act.ColumnName)))}, nil
		}
		var colType *schema.ColumnType
		if current != nil {
			if tbl, ok := current.Tables[act.Table]; ok {
				if col := tbl.Column(act.ColumnName); col != nil {
					colType = &col.Type
				}
			}
		}
		return []BuiltQuery{only(b, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s;",
			b.Quote(act.Table), b.Quote(act.ColumnName), convertDefault(b, *act.NewDefault, colType)))}, nil
	default:
		pre, err := requireTable(b, current, act.Table, act.Type)
		if err != nil {
			return nil, err
		}
		post := pre.Clone()
		col := post.Column(act.ColumnName)
		if col == nil {
			return nil, fmt.Errorf("%w: column %s.%s not in current schema", ErrBackendUnsupported, act.Table, act.ColumnName)
		}
		if act.NewDefault == nil {
			col.Default = nil
		} else {
			def := *act.NewDefault
			col.Default = &def
		}
		return rebuildTable(pre, post, nil), nil
	}
}

func buildModifyColumnComment(b Backend, act *migration.Action, current *schema.Schema) ([]BuiltQuery, error) {
	switch b {
	case Postgres:
		if act.NewComment == nil {
			return []BuiltQuery{only(b, fmt.Sprintf("COMMENT ON COLUMN %s.%s IS NULL;",
				b.Quote(act.Table), b.Quote(act.ColumnName)))}, nil
		}
		return []BuiltQuery{only(b, fmt.Sprintf("COMMENT ON COLUMN %s.%s IS '%s';",
			b.Quote(act.Table), b.Quote(act.ColumnName), strings.ReplaceAll(*act.NewComment, "'", "''")))}, nil
	case MySQL:
		tbl, err := requireTable(b, current, act.Table, act.Type)
		if err != nil {
			return nil, err
		}
		col := tbl.Column(act.ColumnName)
		if col == nil {
			return nil, fmt.Errorf("%w: column %s.%s not in current schema", ErrBackendUnsupported, act.Table, act.ColumnName)
		}
		modified := *col.Clone()
		modified.Comment = act.NewComment
		return []BuiltQuery{only(b, fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s;",
			b.Quote(act.Table), columnSQL(b, &modified, false)))}, nil
	default:
		// SQLite has no column comments.
		return nil, nil
	}
}

func buildAddConstraint(b Backend, act *migration.Action, current *schema.Schema) ([]BuiltQuery, error) {
	c := act.Constraint
	if b == SQLite {
		pre, err := requireTable(b, current, act.Table, act.Type)
		if err != nil {
			return nil, err
		}
		post := pre.Clone()
		post.Constraints = append(post.Constraints, *c.Clone())
		return rebuildTable(pre, post, nil), nil
	}
	switch c.Type {
	case schema.UniqueConstraint:
		return []BuiltQuery{stmt(createIndexStmt{
			table: act.Table,
			index: schema.IndexDef{Name: c.Name, Columns: c.Columns, Unique: true},
		})}, nil
	case schema.PrimaryKeyConstraint:
		return []BuiltQuery{only(b, fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s);",
			b.Quote(act.Table), quoteList(b, c.Columns)))}, nil
	default:
		return []BuiltQuery{only(b, fmt.Sprintf("ALTER TABLE %s ADD %s;",
			b.Quote(act.Table), constraintClause(b, c)))}, nil
	}
}

func buildRemoveConstraint(b Backend, act *migration.Action, current *schema.Schema) ([]BuiltQuery, error) {
	c := act.Constraint
	if b == SQLite {
		pre, err := requireTable(b, current, act.Table, act.Type)
		if err != nil {
			return nil, err
		}
		post := pre.Clone()
		kept := post.Constraints[:0]
		for i := range post.Constraints {
			if c.Name != "" && post.Constraints[i].Name == c.Name {
				continue
			}
			if c.Name == "" && post.Constraints[i].Equal(c) {
				continue
			}
			kept = append(kept, post.Constraints[i])
		}
		post.Constraints = kept
		return rebuildTable(pre, post, nil), nil
	}
	switch c.Type {
	case schema.UniqueConstraint:
		// Lowered as a unique index, so removal drops the index.
		return []BuiltQuery{stmt(dropIndexStmt{table: act.Table, name: c.Name})}, nil
	case schema.PrimaryKeyConstraint:
		if b == MySQL {
			return []BuiltQuery{only(b, fmt.Sprintf("ALTER TABLE %s DROP PRIMARY KEY;", b.Quote(act.Table)))}, nil
		}
		return []BuiltQuery{only(b, fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;",
			b.Quote(act.Table), b.Quote(act.Table+"_pkey")))}, nil
	case schema.ForeignKeyConstraint:
		if b == MySQL {
			return []BuiltQuery{only(b, fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s;",
				b.Quote(act.Table), b.Quote(c.Name)))}, nil
		}
		return []BuiltQuery{only(b, fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;",
			b.Quote(act.Table), b.Quote(c.Name)))}, nil
	default:
		if b == MySQL {
			return []BuiltQuery{only(b, fmt.Sprintf("ALTER TABLE %s DROP CHECK %s;",
				b.Quote(act.Table), b.Quote(c.Name)))}, nil
		}
		return []BuiltQuery{only(b, fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;",
			b.Quote(act.Table), b.Quote(c.Name)))}, nil
	}
}

func buildCreateEnum(b Backend, act *migration.Action) ([]BuiltQuery, error) {
	e := act.Enum
	if e.IsInteger() || b != Postgres {
		// MySQL inlines enums on the column; SQLite uses TEXT + CHECK;
		// integer enums are plain INTEGER columns everywhere.
		return nil, nil
	}
	return []BuiltQuery{only(b, fmt.Sprintf("CREATE TYPE %s AS ENUM (%s);",
		b.Quote(e.Name), strings.Join(e.SQLValues(), ", ")))}, nil
}

func buildDropEnum(b Backend, act *migration.Action) ([]BuiltQuery, error) {
	if b != Postgres {
		return nil, nil
	}
	return []BuiltQuery{only(b, fmt.Sprintf("DROP TYPE %s;", b.Quote(act.EnumName)))}, nil
}

func buildAlterEnumAddValue(b Backend, act *migration.Action, current *schema.Schema) ([]BuiltQuery, error) {
	if act.Member != nil {
		// Integer enums live in application code; columns stay INTEGER.
		return nil, nil
	}
	switch b {
	case Postgres:
		return []BuiltQuery{only(b, fmt.Sprintf("ALTER TYPE %s ADD VALUE '%s';",
			b.Quote(act.EnumName), act.Value))}, nil
	case MySQL:
		if current == nil {
			return nil, fmt.Errorf("%w: alter_enum_add_value on mysql needs the current schema", ErrBackendUnsupported)
		}
		refs := current.ColumnsUsingEnum(act.EnumName)
		var queries []BuiltQuery
		for _, ref := range refs {
			col := current.Tables[ref[0]].Column(ref[1])
			modified := *col.Clone()
			modified.Type.EnumValues = append(modified.Type.EnumValues, act.Value)
			queries = append(queries, only(b, fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s;",
				b.Quote(ref[0]), columnSQL(b, &modified, false))))
		}
		return queries, nil
	default:
		if current == nil {
			return nil, fmt.Errorf("%w: alter_enum_add_value on sqlite needs the current schema", ErrBackendUnsupported)
		}
		// Every table with a CHECK over this enum is rebuilt against the
		// extended value list.
		var queries []BuiltQuery
		seen := make(map[string]bool)
		for _, ref := range current.ColumnsUsingEnum(act.EnumName) {
			if seen[ref[0]] {
				continue
			}
			seen[ref[0]] = true
			pre := current.Tables[ref[0]]
			post := pre.Clone()
			for i := range post.Columns {
				if post.Columns[i].Type.Kind == schema.TypeEnum && post.Columns[i].Type.EnumName == act.EnumName {
					post.Columns[i].Type.EnumValues = append(post.Columns[i].Type.EnumValues, act.Value)
				}
			}
			queries = append(queries, rebuildTable(pre, post, nil)...)
		}
		return queries, nil
	}
}
