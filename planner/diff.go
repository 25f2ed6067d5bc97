package planner

import (
	"github.com/dev-five-git/vespertide/migration"
	"github.com/dev-five-git/vespertide/schema"
)

// Diff compares two normalized schemas and returns the actions that
// transform baseline into target. Both inputs must already be normalized
// (schema.NewSchema guarantees that); comparing un-normalized forms is a
// programming error and produces spurious diffs.
//
// Emission order is chosen so that replaying the result through Apply
// succeeds: enum creations and value additions first, then constraint/index
// removals, table deletions (dependents before referents), column deletes,
// table creations (referents before dependents) with their indexes, column
// adds, constraint and index adds, column modifications, and finally enum
// drops once nothing references them.
func Diff(baseline, target *schema.Schema) ([]migration.Action, *Error) {
	var actions []migration.Action

	createEnums, alterEnums, dropEnums, err := diffEnums(baseline, target)
	if err != nil {
		return nil, err
	}
	actions = append(actions, createEnums...)
	actions = append(actions, alterEnums...)

	var common, deleted, created []string
	for _, name := range baseline.TableNames() {
		if _, ok := target.Tables[name]; ok {
			common = append(common, name)
		} else {
			deleted = append(deleted, name)
		}
	}
	for _, name := range target.TableNames() {
		if _, ok := baseline.Tables[name]; !ok {
			created = append(created, name)
		}
	}

	// Constraint and index removals go first so names are freed and
	// foreign keys no longer pin deleted tables or columns.
	var colDeletes, colAdds, conAdds, modifies []migration.Action
	for _, name := range common {
		from := baseline.Tables[name]
		to := target.Tables[name]
		tableActions := diffTable(from, to)
		actions = append(actions, tableActions.removals...)
		colDeletes = append(colDeletes, tableActions.colDeletes...)
		colAdds = append(colAdds, tableActions.colAdds...)
		conAdds = append(conAdds, tableActions.adds...)
		modifies = append(modifies, tableActions.modifies...)
	}

	// Dependents delete before their referents.
	deleteOrder, serr := sortTablesByDependency(baseline, deleted, true)
	if serr != nil {
		return nil, serr
	}
	for _, name := range deleteOrder {
		actions = append(actions, migration.Action{Type: migration.DeleteTable, Table: name})
	}

	actions = append(actions, colDeletes...)

	// Referents create before their dependents.
	createOrder, serr := sortTablesByDependency(target, created, false)
	if serr != nil {
		return nil, serr
	}
	for _, name := range createOrder {
		tbl := target.Tables[name]
		actions = append(actions, migration.Action{
			Type:        migration.CreateTable,
			Table:       name,
			Columns:     tbl.Columns,
			Constraints: tbl.Constraints,
		})
		for i := range tbl.Indexes {
			idx := tbl.Indexes[i]
			actions = append(actions, migration.Action{
				Type:  migration.AddIndex,
				Table: name,
				Index: &idx,
			})
		}
	}

	actions = append(actions, colAdds...)
	actions = append(actions, conAdds...)
	actions = append(actions, modifies...)
	actions = append(actions, dropEnums...)
	return actions, nil
}

func diffEnums(baseline, target *schema.Schema) (creates, alters, drops []migration.Action, err *Error) {
	for _, name := range target.EnumNames() {
		to := target.Enums[name]
		from, ok := baseline.Enums[name]
		if !ok {
			creates = append(creates, migration.Action{Type: migration.CreateEnum, Enum: to.Clone()})
			continue
		}
		if from.Equal(to) {
			continue
		}
		if !from.IsPrefixOf(to) {
			return nil, nil, nil, &Error{
				Kind:    KindIncompatibleEnumChange,
				Name:    name,
				Message: "enum " + name + " values can only be appended, not removed or reordered",
			}
		}
		if from.IsInteger() {
			for _, m := range to.Members[len(from.Members):] {
				member := m
				alters = append(alters, migration.Action{
					Type:     migration.AlterEnumAddValue,
					EnumName: name,
					Member:   &member,
				})
			}
		} else {
			for _, v := range to.Values[len(from.Values):] {
				alters = append(alters, migration.Action{
					Type:     migration.AlterEnumAddValue,
					EnumName: name,
					Value:    v,
				})
			}
		}
	}
	for _, name := range baseline.EnumNames() {
		if _, ok := target.Enums[name]; !ok {
			drops = append(drops, migration.Action{Type: migration.DropEnum, EnumName: name})
		}
	}
	return creates, alters, drops, nil
}

type tableDiff struct {
	removals   []migration.Action // RemoveConstraint, RemoveIndex
	colDeletes []migration.Action
	colAdds    []migration.Action
	adds       []migration.Action // AddConstraint, AddIndex
	modifies   []migration.Action
}

func diffTable(from, to *schema.TableDef) tableDiff {
	var d tableDiff
	name := from.Name

	// Constraints compare by name; a changed constraint is re-created
	// under the same name.
	for i := range from.Constraints {
		c := &from.Constraints[i]
		other := findConstraint(to, c)
		if other == nil || !c.Equal(other) {
			d.removals = append(d.removals, migration.Action{
				Type:       migration.RemoveConstraint,
				Table:      name,
				Constraint: c.Clone(),
			})
		}
	}
	for i := range to.Constraints {
		c := &to.Constraints[i]
		other := findConstraint(from, c)
		if other == nil || !c.Equal(other) {
			d.adds = append(d.adds, migration.Action{
				Type:       migration.AddConstraint,
				Table:      name,
				Constraint: c.Clone(),
			})
		}
	}

	for i := range from.Indexes {
		idx := &from.Indexes[i]
		other := to.Index(idx.Name)
		if other == nil || !idx.Equal(other) {
			d.removals = append(d.removals, migration.Action{
				Type:      migration.RemoveIndex,
				Table:     name,
				IndexName: idx.Name,
			})
		}
	}
	for i := range to.Indexes {
		idx := to.Indexes[i]
		other := from.Index(idx.Name)
		if other == nil || !other.Equal(&idx) {
			d.adds = append(d.adds, migration.Action{
				Type:  migration.AddIndex,
				Table: name,
				Index: &idx,
			})
		}
	}

	for i := range from.Columns {
		col := &from.Columns[i]
		if to.Column(col.Name) == nil {
			d.colDeletes = append(d.colDeletes, migration.Action{
				Type:       migration.DeleteColumn,
				Table:      name,
				ColumnName: col.Name,
			})
		}
	}
	for i := range to.Columns {
		col := &to.Columns[i]
		prev := from.Column(col.Name)
		if prev == nil {
			d.colAdds = append(d.colAdds, migration.Action{
				Type:   migration.AddColumn,
				Table:  name,
				Column: col.Clone(),
			})
			continue
		}
		d.modifies = append(d.modifies, diffColumn(name, prev, col)...)
	}
	return d
}

func diffColumn(table string, from, to *schema.ColumnDef) []migration.Action {
	var actions []migration.Action
	sameEnum := from.Type.Kind == schema.TypeEnum && to.Type.Kind == schema.TypeEnum &&
		from.Type.EnumName == to.Type.EnumName
	// Value additions to a shared enum are handled by enum reconciliation,
	// not as a column type change.
	if !from.Type.Equal(&to.Type) && !sameEnum {
		actions = append(actions, migration.Action{
			Type:       migration.ModifyColumnType,
			Table:      table,
			ColumnName: to.Name,
			NewType:    to.Type.Clone(),
		})
	}
	if from.Nullable != to.Nullable {
		nullable := to.Nullable
		actions = append(actions, migration.Action{
			Type:       migration.ModifyColumnNullable,
			Table:      table,
			ColumnName: to.Name,
			Nullable:   &nullable,
		})
	}
	if !strPtrEq(from.Default, to.Default) {
		act := migration.Action{
			Type:       migration.ModifyColumnDefault,
			Table:      table,
			ColumnName: to.Name,
		}
		if to.Default != nil {
			def := *to.Default
			act.NewDefault = &def
		}
		actions = append(actions, act)
	}
	if !strPtrEq(from.Comment, to.Comment) {
		act := migration.Action{
			Type:       migration.ModifyColumnComment,
			Table:      table,
			ColumnName: to.Name,
		}
		if to.Comment != nil {
			c := *to.Comment
			act.NewComment = &c
		}
		actions = append(actions, act)
	}
	return actions
}

func findConstraint(t *schema.TableDef, c *schema.TableConstraint) *schema.TableConstraint {
	if c.Type == schema.PrimaryKeyConstraint {
		return t.PrimaryKey()
	}
	return t.Constraint(c.Name)
}

func strPtrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
