package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Generated constraint and index names follow a fixed shape so that two
// equivalent surface spellings canonicalize to the same name.
func uniqueName(table, column string) string {
	return fmt.Sprintf("uq_%s__%s", table, column)
}

func indexName(table, column string) string {
	return fmt.Sprintf("ix_%s__%s", table, column)
}

func foreignKeyName(table string, columns []string) string {
	return fmt.Sprintf("fk_%s__%s", table, strings.Join(columns, "_"))
}

// Normalize rewrites inline column sugar (primary_key, unique, index,
// foreign_key) into table-level constraints and indexes, assigns generated
// names to unnamed constraints, and sorts constraints and indexes into a
// canonical order. The result compares equal for any two semantically
// identical surface forms, and normalizing twice yields the same value.
func (t *TableDef) Normalize() (*TableDef, error) {
	out := t.Clone()

	// Inline primary keys coalesce into one table-level constraint in
	// column declaration order.
	var pkColumns []string
	for i := range out.Columns {
		if out.Columns[i].PrimaryKey {
			pkColumns = append(pkColumns, out.Columns[i].Name)
		}
	}

	var tablePK *TableConstraint
	for i := range out.Constraints {
		if out.Constraints[i].Type != PrimaryKeyConstraint {
			continue
		}
		if tablePK != nil {
			return nil, fmt.Errorf("table %s has more than one primary key constraint", out.Name)
		}
		tablePK = &out.Constraints[i]
	}
	if len(pkColumns) > 0 {
		if tablePK != nil {
			if !strSliceEqual(tablePK.Columns, pkColumns) {
				return nil, fmt.Errorf(
					"table %s: inline primary key (%s) conflicts with table-level primary key (%s)",
					out.Name, strings.Join(pkColumns, ", "), strings.Join(tablePK.Columns, ", "))
			}
		} else {
			out.Constraints = append(out.Constraints, TableConstraint{
				Type:    PrimaryKeyConstraint,
				Columns: pkColumns,
			})
		}
	}

	// Explicit names always win; generated names must dodge them.
	used := make(map[string]bool)
	for i := range out.Constraints {
		if out.Constraints[i].Name != "" {
			used[out.Constraints[i].Name] = true
		}
	}
	for i := range out.Indexes {
		used[out.Indexes[i].Name] = true
	}

	reserve := func(base string) string {
		if !used[base] {
			used[base] = true
			return base
		}
		for n := 2; ; n++ {
			candidate := fmt.Sprintf("%s__%d", base, n)
			if !used[candidate] {
				used[candidate] = true
				return candidate
			}
		}
	}

	// Walk columns in declaration order so discriminator suffixes are stable.
	for i := range out.Columns {
		col := &out.Columns[i]
		if col.Unique {
			out.Constraints = append(out.Constraints, TableConstraint{
				Type:    UniqueConstraint,
				Name:    reserve(uniqueName(out.Name, col.Name)),
				Columns: []string{col.Name},
			})
		}
		if col.Index {
			out.Indexes = append(out.Indexes, IndexDef{
				Name:    reserve(indexName(out.Name, col.Name)),
				Columns: []string{col.Name},
			})
		}
		if col.ForeignKey != nil {
			fk := col.ForeignKey
			out.Constraints = append(out.Constraints, TableConstraint{
				Type:       ForeignKeyConstraint,
				Name:       reserve(foreignKeyName(out.Name, []string{col.Name})),
				Columns:    []string{col.Name},
				RefTable:   fk.RefTable,
				RefColumns: append([]string(nil), fk.RefColumns...),
				OnDelete:   fk.OnDelete,
				OnUpdate:   fk.OnUpdate,
			})
		}
		col.PrimaryKey = false
		col.Unique = false
		col.Index = false
		col.ForeignKey = nil
	}

	// Unnamed table-level constraints get the same generated names so the
	// two spellings compare equal.
	for i := range out.Constraints {
		c := &out.Constraints[i]
		if c.Name != "" || c.Type == PrimaryKeyConstraint {
			continue
		}
		switch c.Type {
		case UniqueConstraint:
			c.Name = reserve(fmt.Sprintf("uq_%s__%s", out.Name, strings.Join(c.Columns, "_")))
		case ForeignKeyConstraint:
			c.Name = reserve(foreignKeyName(out.Name, c.Columns))
		case CheckConstraint:
			c.Name = reserve(fmt.Sprintf("chk_%s__%d", out.Name, i+1))
		}
	}

	sortConstraints(out.Constraints)
	sort.Slice(out.Indexes, func(a, b int) bool {
		return out.Indexes[a].Name < out.Indexes[b].Name
	})
	return out, nil
}

func constraintRank(t ConstraintType) int {
	switch t {
	case PrimaryKeyConstraint:
		return 0
	case UniqueConstraint:
		return 1
	case ForeignKeyConstraint:
		return 2
	case CheckConstraint:
		return 3
	}
	return 4
}

func sortConstraints(constraints []TableConstraint) {
	sort.SliceStable(constraints, func(a, b int) bool {
		ra, rb := constraintRank(constraints[a].Type), constraintRank(constraints[b].Type)
		if ra != rb {
			return ra < rb
		}
		return constraints[a].Name < constraints[b].Name
	})
}
