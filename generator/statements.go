package generator

import (
	"fmt"
	"strings"

	"github.com/dev-five-git/vespertide/schema"
)

// createTableStmt renders a full CREATE TABLE. A single-column primary key
// is rendered inline on the column; composite primary keys, foreign keys
// and checks become table-level clauses. Unique constraints become
// separate CREATE UNIQUE INDEX statements on PostgreSQL and inline
// constraint clauses elsewhere; the dispatcher appends the index
// statements.
type createTableStmt struct {
	name  string
	table *schema.TableDef
}

func (s createTableStmt) render(b Backend) string {
	tbl := s.table
	pk := tbl.PrimaryKey()
	inlinePK := pk != nil && len(pk.Columns) == 1

	var clauses []string
	for i := range tbl.Columns {
		col := &tbl.Columns[i]
		clauses = append(clauses, columnSQL(b, col, inlinePK && pk.Columns[0] == col.Name))
	}
	if pk != nil && !inlinePK {
		clauses = append(clauses, constraintClause(b, pk))
	}
	for i := range tbl.Constraints {
		c := &tbl.Constraints[i]
		switch c.Type {
		case schema.PrimaryKeyConstraint:
			continue
		case schema.UniqueConstraint:
			if b == Postgres {
				continue // lowered to CREATE UNIQUE INDEX
			}
		}
		clauses = append(clauses, constraintClause(b, c))
	}
	if b == SQLite {
		// Check names derive from the logical table name, not the temp
		// name a rebuild creates under.
		for i := range tbl.Columns {
			if chk := enumCheckClause(b, tbl.Name, &tbl.Columns[i]); chk != "" {
				clauses = append(clauses, chk)
			}
		}
	}
	return fmt.Sprintf("CREATE TABLE %s (%s);", b.Quote(s.name), strings.Join(clauses, ", "))
}

type dropTableStmt struct {
	name string
}

func (s dropTableStmt) render(b Backend) string {
	return fmt.Sprintf("DROP TABLE %s;", b.Quote(s.name))
}

type renameTableStmt struct {
	from, to string
}

func (s renameTableStmt) render(b Backend) string {
	if b == MySQL {
		return fmt.Sprintf("RENAME TABLE %s TO %s;", b.Quote(s.from), b.Quote(s.to))
	}
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s;", b.Quote(s.from), b.Quote(s.to))
}

type addColumnStmt struct {
	table  string
	column schema.ColumnDef
}

func (s addColumnStmt) render(b Backend) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", b.Quote(s.table), columnSQL(b, &s.column, false))
}

type dropColumnStmt struct {
	table, column string
}

func (s dropColumnStmt) render(b Backend) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", b.Quote(s.table), b.Quote(s.column))
}

type renameColumnStmt struct {
	table, from, to string
}

func (s renameColumnStmt) render(b Backend) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s;",
		b.Quote(s.table), b.Quote(s.from), b.Quote(s.to))
}

type createIndexStmt struct {
	table string
	index schema.IndexDef
}

func (s createIndexStmt) render(b Backend) string {
	unique := ""
	if s.index.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s);",
		unique, b.Quote(s.index.Name), b.Quote(s.table), quoteList(b, s.index.Columns))
}

type dropIndexStmt struct {
	table, name string
}

func (s dropIndexStmt) render(b Backend) string {
	if b == MySQL {
		return fmt.Sprintf("DROP INDEX %s ON %s;", b.Quote(s.name), b.Quote(s.table))
	}
	return fmt.Sprintf("DROP INDEX %s;", b.Quote(s.name))
}

// insertSelectStmt copies rows between tables during a SQLite rebuild.
// columns and exprs are aligned: columns name the destination, exprs the
// source expression (a quoted column or a fill/default literal).
type insertSelectStmt struct {
	into    string
	from    string
	columns []string
	exprs   []string
}

func (s insertSelectStmt) render(b Backend) string {
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s;",
		b.Quote(s.into), quoteList(b, s.columns), strings.Join(s.exprs, ", "), b.Quote(s.from))
}
