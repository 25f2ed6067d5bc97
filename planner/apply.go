package planner

import (
	"github.com/dev-five-git/vespertide/migration"
	"github.com/dev-five-git/vespertide/schema"
)

// Apply mutates an in-memory schema with a single migration action. It is
// the single source of truth for action semantics: the replayer and the
// plan validator both fold over it. On error the schema is left unchanged.
func Apply(s *schema.Schema, act *migration.Action) *Error {
	switch act.Type {
	case migration.CreateTable:
		return applyCreateTable(s, act)
	case migration.DeleteTable:
		return applyDeleteTable(s, act)
	case migration.RenameTable:
		return applyRenameTable(s, act)
	case migration.AddColumn:
		return applyAddColumn(s, act)
	case migration.DeleteColumn:
		return applyDeleteColumn(s, act)
	case migration.RenameColumn:
		return applyRenameColumn(s, act)
	case migration.ModifyColumnType:
		return applyModifyColumnType(s, act)
	case migration.ModifyColumnNullable:
		return applyModifyColumnNullable(s, act)
	case migration.ModifyColumnDefault:
		return applyModifyColumnDefault(s, act)
	case migration.ModifyColumnComment:
		return applyModifyColumnComment(s, act)
	case migration.AddConstraint:
		return applyAddConstraint(s, act)
	case migration.RemoveConstraint:
		return applyRemoveConstraint(s, act)
	case migration.AddIndex:
		return applyAddIndex(s, act)
	case migration.RemoveIndex:
		return applyRemoveIndex(s, act)
	case migration.CreateEnum:
		return applyCreateEnum(s, act)
	case migration.DropEnum:
		return applyDropEnum(s, act)
	case migration.AlterEnumAddValue:
		return applyAlterEnumAddValue(s, act)
	case migration.Raw:
		// Opaque to the replay schema; its effect exists only at emit time.
		return nil
	}
	return invariant("unknown action type: %s", act.Type)
}

func applyCreateTable(s *schema.Schema, act *migration.Action) *Error {
	if _, ok := s.Tables[act.Table]; ok {
		return tableInvariant(act.Table, "table already exists: %s", act.Table)
	}
	tbl := schema.TableDef{
		Name:        act.Table,
		Columns:     act.Columns,
		Constraints: act.Constraints,
	}
	norm, err := tbl.Normalize()
	if err != nil {
		return tableInvariant(act.Table, "%s", err)
	}
	seen := make(map[string]bool)
	for i := range norm.Columns {
		if seen[norm.Columns[i].Name] {
			e := tableInvariant(act.Table, "duplicate column name: %s.%s", act.Table, norm.Columns[i].Name)
			e.Column = norm.Columns[i].Name
			return e
		}
		seen[norm.Columns[i].Name] = true
	}
	for i := range norm.Constraints {
		c := &norm.Constraints[i]
		for _, col := range c.Columns {
			if norm.Column(col) == nil {
				e := tableInvariant(act.Table, "constraint %s references unknown column %s.%s", c.Name, act.Table, col)
				e.Name = c.Name
				return e
			}
		}
	}
	if err := registerColumnEnums(s, norm); err != nil {
		return err
	}
	s.Tables[norm.Name] = norm
	return nil
}

func applyDeleteTable(s *schema.Schema, act *migration.Action) *Error {
	if _, ok := s.Tables[act.Table]; !ok {
		return tableInvariant(act.Table, "table not found: %s", act.Table)
	}
	for _, name := range s.TableNames() {
		if name == act.Table {
			continue
		}
		for i := range s.Tables[name].Constraints {
			c := &s.Tables[name].Constraints[i]
			if c.Type == schema.ForeignKeyConstraint && c.RefTable == act.Table {
				e := tableInvariant(act.Table, "table %s is still referenced by foreign key %s on %s", act.Table, c.Name, name)
				e.Name = c.Name
				return e
			}
		}
	}
	delete(s.Tables, act.Table)
	return nil
}

func applyRenameTable(s *schema.Schema, act *migration.Action) *Error {
	tbl, ok := s.Tables[act.From]
	if !ok {
		return tableInvariant(act.From, "table not found: %s", act.From)
	}
	if _, ok := s.Tables[act.To]; ok {
		return tableInvariant(act.To, "table already exists: %s", act.To)
	}
	tbl.Name = act.To
	delete(s.Tables, act.From)
	s.Tables[act.To] = tbl
	for _, name := range s.TableNames() {
		for i := range s.Tables[name].Constraints {
			c := &s.Tables[name].Constraints[i]
			if c.Type == schema.ForeignKeyConstraint && c.RefTable == act.From {
				c.RefTable = act.To
			}
		}
	}
	return nil
}

func applyAddColumn(s *schema.Schema, act *migration.Action) *Error {
	tbl, ok := s.Tables[act.Table]
	if !ok {
		return tableInvariant(act.Table, "table not found: %s", act.Table)
	}
	if act.Column == nil {
		return tableInvariant(act.Table, "add_column on %s is missing the column definition", act.Table)
	}
	if tbl.Column(act.Column.Name) != nil {
		e := tableInvariant(act.Table, "column already exists: %s.%s", act.Table, act.Column.Name)
		e.Column = act.Column.Name
		return e
	}
	if !act.Column.Nullable && act.Column.Default == nil && act.FillWith == "" {
		return &Error{
			Kind:    KindMissingBackfill,
			Table:   act.Table,
			Column:  act.Column.Name,
			Message: "non-nullable column " + act.Table + "." + act.Column.Name + " needs a default or fill_with",
		}
	}
	col := act.Column.Clone()
	if e := col.Type.EnumDef(); e != nil {
		if prev, ok := s.Enums[e.Name]; ok {
			if !prev.Equal(e) {
				return &Error{Kind: KindInvariantViolation, Name: e.Name,
					Message: "conflicting definitions for enum " + e.Name}
			}
		} else {
			s.Enums[e.Name] = e
		}
	}
	tbl.Columns = append(tbl.Columns, *col)
	return nil
}

func applyDeleteColumn(s *schema.Schema, act *migration.Action) *Error {
	tbl, ok := s.Tables[act.Table]
	if !ok {
		return tableInvariant(act.Table, "table not found: %s", act.Table)
	}
	if tbl.Column(act.ColumnName) == nil {
		e := tableInvariant(act.Table, "column not found: %s.%s", act.Table, act.ColumnName)
		e.Column = act.ColumnName
		return e
	}
	// Constraints and indexes referencing the column must be removed by
	// earlier actions in the plan.
	for i := range tbl.Constraints {
		c := &tbl.Constraints[i]
		if containsString(c.Columns, act.ColumnName) {
			e := tableInvariant(act.Table, "column %s.%s is still referenced by constraint %s", act.Table, act.ColumnName, c.Name)
			e.Column = act.ColumnName
			e.Name = c.Name
			return e
		}
	}
	for i := range tbl.Indexes {
		if containsString(tbl.Indexes[i].Columns, act.ColumnName) {
			e := tableInvariant(act.Table, "column %s.%s is still referenced by index %s", act.Table, act.ColumnName, tbl.Indexes[i].Name)
			e.Column = act.ColumnName
			e.Name = tbl.Indexes[i].Name
			return e
		}
	}
	for _, name := range s.TableNames() {
		for i := range s.Tables[name].Constraints {
			c := &s.Tables[name].Constraints[i]
			if c.Type == schema.ForeignKeyConstraint && c.RefTable == act.Table && containsString(c.RefColumns, act.ColumnName) {
				e := tableInvariant(act.Table, "column %s.%s is still referenced by foreign key %s on %s", act.Table, act.ColumnName, c.Name, name)
				e.Column = act.ColumnName
				e.Name = c.Name
				return e
			}
		}
	}
	cols := tbl.Columns[:0]
	for i := range tbl.Columns {
		if tbl.Columns[i].Name != act.ColumnName {
			cols = append(cols, tbl.Columns[i])
		}
	}
	tbl.Columns = cols
	return nil
}

func applyRenameColumn(s *schema.Schema, act *migration.Action) *Error {
	tbl, ok := s.Tables[act.Table]
	if !ok {
		return tableInvariant(act.Table, "table not found: %s", act.Table)
	}
	col := tbl.Column(act.From)
	if col == nil {
		e := tableInvariant(act.Table, "column not found: %s.%s", act.Table, act.From)
		e.Column = act.From
		return e
	}
	if tbl.Column(act.To) != nil {
		e := tableInvariant(act.Table, "column already exists: %s.%s", act.Table, act.To)
		e.Column = act.To
		return e
	}
	col.Name = act.To
	for i := range tbl.Constraints {
		renameInSlice(tbl.Constraints[i].Columns, act.From, act.To)
	}
	for i := range tbl.Indexes {
		renameInSlice(tbl.Indexes[i].Columns, act.From, act.To)
	}
	// Foreign keys elsewhere that target the renamed column follow it.
	for _, name := range s.TableNames() {
		for i := range s.Tables[name].Constraints {
			c := &s.Tables[name].Constraints[i]
			if c.Type == schema.ForeignKeyConstraint && c.RefTable == act.Table {
				renameInSlice(c.RefColumns, act.From, act.To)
			}
		}
	}
	return nil
}

func lookupColumn(s *schema.Schema, table, column string) (*schema.ColumnDef, *Error) {
	tbl, ok := s.Tables[table]
	if !ok {
		return nil, tableInvariant(table, "table not found: %s", table)
	}
	col := tbl.Column(column)
	if col == nil {
		e := tableInvariant(table, "column not found: %s.%s", table, column)
		e.Column = column
		return nil, e
	}
	return col, nil
}

func applyModifyColumnType(s *schema.Schema, act *migration.Action) *Error {
	col, err := lookupColumn(s, act.Table, act.ColumnName)
	if err != nil {
		return err
	}
	if act.NewType == nil {
		return tableInvariant(act.Table, "modify_column_type on %s.%s is missing the new type", act.Table, act.ColumnName)
	}
	if e := act.NewType.EnumDef(); e != nil {
		if prev, ok := s.Enums[e.Name]; ok {
			if !prev.Equal(e) {
				return &Error{Kind: KindInvariantViolation, Name: e.Name,
					Message: "conflicting definitions for enum " + e.Name}
			}
		} else {
			s.Enums[e.Name] = e
		}
	}
	col.Type = *act.NewType.Clone()
	return nil
}

func applyModifyColumnNullable(s *schema.Schema, act *migration.Action) *Error {
	col, err := lookupColumn(s, act.Table, act.ColumnName)
	if err != nil {
		return err
	}
	if act.Nullable == nil {
		return tableInvariant(act.Table, "modify_column_nullable on %s.%s is missing the nullable flag", act.Table, act.ColumnName)
	}
	col.Nullable = *act.Nullable
	return nil
}

func applyModifyColumnDefault(s *schema.Schema, act *migration.Action) *Error {
	col, err := lookupColumn(s, act.Table, act.ColumnName)
	if err != nil {
		return err
	}
	if act.NewDefault == nil {
		col.Default = nil
	} else {
		d := *act.NewDefault
		col.Default = &d
	}
	return nil
}

func applyModifyColumnComment(s *schema.Schema, act *migration.Action) *Error {
	col, err := lookupColumn(s, act.Table, act.ColumnName)
	if err != nil {
		return err
	}
	if act.NewComment == nil {
		col.Comment = nil
	} else {
		c := *act.NewComment
		col.Comment = &c
	}
	return nil
}

func applyAddConstraint(s *schema.Schema, act *migration.Action) *Error {
	tbl, ok := s.Tables[act.Table]
	if !ok {
		return tableInvariant(act.Table, "table not found: %s", act.Table)
	}
	if act.Constraint == nil {
		return tableInvariant(act.Table, "add_constraint on %s is missing the constraint", act.Table)
	}
	c := act.Constraint.Clone()
	if c.Type == schema.PrimaryKeyConstraint && tbl.PrimaryKey() != nil {
		return tableInvariant(act.Table, "table %s already has a primary key", act.Table)
	}
	if c.Name != "" && nameInUse(s, c.Name) {
		e := tableInvariant(act.Table, "constraint name already in use: %s", c.Name)
		e.Name = c.Name
		return e
	}
	for _, col := range c.Columns {
		if tbl.Column(col) == nil {
			e := tableInvariant(act.Table, "constraint %s references unknown column %s.%s", c.Name, act.Table, col)
			e.Name = c.Name
			e.Column = col
			return e
		}
	}
	if c.Type == schema.ForeignKeyConstraint {
		ref, ok := s.Tables[c.RefTable]
		if !ok {
			e := tableInvariant(act.Table, "foreign key %s references unknown table %s", c.Name, c.RefTable)
			e.Name = c.Name
			return e
		}
		for _, col := range c.RefColumns {
			if ref.Column(col) == nil {
				e := tableInvariant(act.Table, "foreign key %s references unknown column %s.%s", c.Name, c.RefTable, col)
				e.Name = c.Name
				e.Column = col
				return e
			}
		}
	}
	candidate := tbl.Clone()
	candidate.Constraints = append(candidate.Constraints, *c)
	norm, err := candidate.Normalize()
	if err != nil {
		return tableInvariant(act.Table, "%s", err)
	}
	*tbl = *norm
	return nil
}

func applyRemoveConstraint(s *schema.Schema, act *migration.Action) *Error {
	tbl, ok := s.Tables[act.Table]
	if !ok {
		return tableInvariant(act.Table, "table not found: %s", act.Table)
	}
	if act.Constraint == nil {
		return tableInvariant(act.Table, "remove_constraint on %s is missing the constraint", act.Table)
	}
	target := act.Constraint
	idx := -1
	for i := range tbl.Constraints {
		c := &tbl.Constraints[i]
		if target.Name != "" {
			if c.Name == target.Name {
				idx = i
				break
			}
		} else if c.Equal(target) {
			idx = i
			break
		}
	}
	if idx < 0 {
		e := tableInvariant(act.Table, "constraint not found on %s: %s", act.Table, target.Name)
		e.Name = target.Name
		return e
	}
	tbl.Constraints = append(tbl.Constraints[:idx], tbl.Constraints[idx+1:]...)
	return nil
}

func applyAddIndex(s *schema.Schema, act *migration.Action) *Error {
	tbl, ok := s.Tables[act.Table]
	if !ok {
		return tableInvariant(act.Table, "table not found: %s", act.Table)
	}
	if act.Index == nil {
		return tableInvariant(act.Table, "add_index on %s is missing the index", act.Table)
	}
	if nameInUse(s, act.Index.Name) {
		e := tableInvariant(act.Table, "index name already in use: %s", act.Index.Name)
		e.Name = act.Index.Name
		return e
	}
	for _, col := range act.Index.Columns {
		if tbl.Column(col) == nil {
			e := tableInvariant(act.Table, "index %s references unknown column %s.%s", act.Index.Name, act.Table, col)
			e.Name = act.Index.Name
			e.Column = col
			return e
		}
	}
	tbl.Indexes = append(tbl.Indexes, schema.IndexDef{
		Name:    act.Index.Name,
		Columns: append([]string(nil), act.Index.Columns...),
		Unique:  act.Index.Unique,
	})
	sortIndexes(tbl)
	return nil
}

func applyRemoveIndex(s *schema.Schema, act *migration.Action) *Error {
	tbl, ok := s.Tables[act.Table]
	if !ok {
		return tableInvariant(act.Table, "table not found: %s", act.Table)
	}
	idx := -1
	for i := range tbl.Indexes {
		if tbl.Indexes[i].Name == act.IndexName {
			idx = i
			break
		}
	}
	if idx < 0 {
		e := tableInvariant(act.Table, "index not found on %s: %s", act.Table, act.IndexName)
		e.Name = act.IndexName
		return e
	}
	tbl.Indexes = append(tbl.Indexes[:idx], tbl.Indexes[idx+1:]...)
	return nil
}

func applyCreateEnum(s *schema.Schema, act *migration.Action) *Error {
	if act.Enum == nil {
		return invariant("create_enum is missing the enum definition")
	}
	if _, ok := s.Enums[act.Enum.Name]; ok {
		e := invariant("enum already exists: %s", act.Enum.Name)
		e.Name = act.Enum.Name
		return e
	}
	seen := make(map[string]bool)
	for _, v := range act.Enum.VariantNames() {
		if seen[v] {
			e := invariant("enum %s has duplicate value: %s", act.Enum.Name, v)
			e.Name = act.Enum.Name
			return e
		}
		seen[v] = true
	}
	s.Enums[act.Enum.Name] = act.Enum.Clone()
	return nil
}

func applyDropEnum(s *schema.Schema, act *migration.Action) *Error {
	if _, ok := s.Enums[act.EnumName]; !ok {
		e := invariant("enum not found: %s", act.EnumName)
		e.Name = act.EnumName
		return e
	}
	if refs := s.ColumnsUsingEnum(act.EnumName); len(refs) > 0 {
		e := invariant("enum %s is still used by column %s.%s", act.EnumName, refs[0][0], refs[0][1])
		e.Name = act.EnumName
		e.Table = refs[0][0]
		e.Column = refs[0][1]
		return e
	}
	delete(s.Enums, act.EnumName)
	return nil
}

func applyAlterEnumAddValue(s *schema.Schema, act *migration.Action) *Error {
	enum, ok := s.Enums[act.EnumName]
	if !ok {
		e := invariant("enum not found: %s", act.EnumName)
		e.Name = act.EnumName
		return e
	}
	if enum.IsInteger() {
		if act.Member == nil {
			e := invariant("alter_enum_add_value on integer enum %s needs a member", act.EnumName)
			e.Name = act.EnumName
			return e
		}
		for _, m := range enum.Members {
			if m.Name == act.Member.Name || m.Value == act.Member.Value {
				e := &Error{Kind: KindIncompatibleEnumChange, Name: act.EnumName,
					Message: "enum " + act.EnumName + " already has member " + act.Member.Name}
				return e
			}
		}
		enum.Members = append(enum.Members, *act.Member)
	} else {
		if act.Value == "" {
			e := invariant("alter_enum_add_value on enum %s needs a value", act.EnumName)
			e.Name = act.EnumName
			return e
		}
		if containsString(enum.Values, act.Value) {
			return &Error{Kind: KindIncompatibleEnumChange, Name: act.EnumName,
				Message: "enum " + act.EnumName + " already has value " + act.Value}
		}
		enum.Values = append(enum.Values, act.Value)
	}
	// Columns carry the enum definition in their type; keep them in sync.
	for _, ref := range s.ColumnsUsingEnum(act.EnumName) {
		col := s.Tables[ref[0]].Column(ref[1])
		col.Type.EnumValues = append([]string(nil), enum.Values...)
		col.Type.EnumMembers = append([]schema.EnumMember(nil), enum.Members...)
	}
	return nil
}

func registerColumnEnums(s *schema.Schema, tbl *schema.TableDef) *Error {
	fresh := make(map[string]*schema.EnumDef)
	for i := range tbl.Columns {
		e := tbl.Columns[i].Type.EnumDef()
		if e == nil {
			continue
		}
		prev, ok := s.Enums[e.Name]
		if !ok {
			prev, ok = fresh[e.Name], fresh[e.Name] != nil
		}
		if ok {
			if !prev.Equal(e) {
				err := invariant("conflicting definitions for enum %s", e.Name)
				err.Name = e.Name
				return err
			}
			continue
		}
		fresh[e.Name] = e
	}
	for name, e := range fresh {
		s.Enums[name] = e
	}
	return nil
}

// nameInUse reports whether a constraint or index with this name exists
// anywhere in the schema. Constraints and indexes share one namespace.
func nameInUse(s *schema.Schema, name string) bool {
	for _, tname := range s.TableNames() {
		tbl := s.Tables[tname]
		for i := range tbl.Constraints {
			if tbl.Constraints[i].Name == name {
				return true
			}
		}
		for i := range tbl.Indexes {
			if tbl.Indexes[i].Name == name {
				return true
			}
		}
	}
	return false
}

func sortIndexes(tbl *schema.TableDef) {
	for i := 1; i < len(tbl.Indexes); i++ {
		for j := i; j > 0 && tbl.Indexes[j].Name < tbl.Indexes[j-1].Name; j-- {
			tbl.Indexes[j], tbl.Indexes[j-1] = tbl.Indexes[j-1], tbl.Indexes[j]
		}
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func renameInSlice(list []string, from, to string) {
	for i := range list {
		if list[i] == from {
			list[i] = to
		}
	}
}
