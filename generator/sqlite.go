package generator

import (
	"github.com/dev-five-git/vespertide/schema"
)

// rebuildTable emits the five-step temp-table protocol SQLite requires
// for structural changes ALTER TABLE cannot express:
//
//  1. CREATE TABLE {T}_temp with the post-change definition
//  2. INSERT INTO {T}_temp (...) SELECT ... FROM {T} over the column
//     intersection; added non-nullable columns source their fill
//     expression or default
//  3. DROP TABLE {T}
//  4. ALTER TABLE {T}_temp RENAME TO {T}
//  5. recreate every index the original table had (dropped at step 3)
//
// The pre-change snapshot is captured before step 1 so step 5 re-emits
// the original index list verbatim.
func rebuildTable(pre, post *schema.TableDef, fills map[string]string) []BuiltQuery {
	tempName := pre.Name + "_temp"

	queries := []BuiltQuery{
		stmt(createTableStmt{name: tempName, table: post}),
	}

	var columns, exprs []string
	for i := range post.Columns {
		col := &post.Columns[i]
		if pre.Column(col.Name) != nil {
			columns = append(columns, col.Name)
			exprs = append(exprs, SQLite.Quote(col.Name))
			continue
		}
		// Added column: only carried over when existing rows need a value.
		if fill, ok := fills[col.Name]; ok && fill != "" {
			columns = append(columns, col.Name)
			exprs = append(exprs, fill)
		} else if !col.Nullable && col.Default != nil {
			columns = append(columns, col.Name)
			exprs = append(exprs, convertDefault(SQLite, *col.Default, &col.Type))
		}
	}
	queries = append(queries,
		stmt(insertSelectStmt{into: tempName, from: pre.Name, columns: columns, exprs: exprs}),
		stmt(dropTableStmt{name: pre.Name}),
		stmt(renameTableStmt{from: tempName, to: pre.Name}),
	)

	for i := range pre.Indexes {
		queries = append(queries, stmt(createIndexStmt{table: pre.Name, index: pre.Indexes[i]}))
	}
	return queries
}
