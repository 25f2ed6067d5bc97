package validator

import (
	"fmt"

	"github.com/dev-five-git/vespertide/migration"
	"github.com/dev-five-git/vespertide/naming"
	"github.com/dev-five-git/vespertide/planner"
	"github.com/dev-five-git/vespertide/schema"
)

// ValidationError is one issue found in a schema or plan.
type ValidationError struct {
	Type     string `json:"type"`
	Table    string `json:"table,omitempty"`
	Column   string `json:"column,omitempty"`
	Name     string `json:"name,omitempty"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // "error" or "warning"
}

// Result collects every issue a validation pass could find; Valid is false
// as soon as a single error-severity issue exists.
type Result struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
}

func newResult() *Result {
	return &Result{Valid: true, Errors: []ValidationError{}, Warnings: []ValidationError{}}
}

func (r *Result) addError(e ValidationError) {
	e.Severity = "error"
	r.Errors = append(r.Errors, e)
	r.Valid = false
}

func (r *Result) addWarning(e ValidationError) {
	e.Severity = "warning"
	r.Warnings = append(r.Warnings, e)
}

// ValidateSchema checks every intrinsic and relational invariant of a
// normalized schema and reports all issues it finds in one pass.
func ValidateSchema(s *schema.Schema, tableCase, columnCase naming.Case) *Result {
	result := newResult()

	names := make(map[string]string) // constraint/index name -> owning table
	for _, tname := range s.TableNames() {
		tbl := s.Tables[tname]
		validateTableNames(tbl, tableCase, columnCase, result)
		validateColumns(tbl, result)
		validateConstraints(tbl, s, names, result)
		validateIndexes(tbl, names, result)
	}
	validateEnums(s, result)
	return result
}

func validateTableNames(tbl *schema.TableDef, tableCase, columnCase naming.Case, result *Result) {
	if tbl.Name == "" {
		result.addError(ValidationError{Type: "table_name", Message: "table name cannot be empty"})
		return
	}
	if !naming.Matches(tbl.Name, tableCase) {
		result.addError(ValidationError{
			Type:    "table_name_case",
			Table:   tbl.Name,
			Message: fmt.Sprintf("table name %q does not match %s case", tbl.Name, tableCase),
		})
	}
	for i := range tbl.Columns {
		if !naming.Matches(tbl.Columns[i].Name, columnCase) {
			result.addError(ValidationError{
				Type:    "column_name_case",
				Table:   tbl.Name,
				Column:  tbl.Columns[i].Name,
				Message: fmt.Sprintf("column name %q does not match %s case", tbl.Columns[i].Name, columnCase),
			})
		}
	}
}

func validateColumns(tbl *schema.TableDef, result *Result) {
	if len(tbl.Columns) == 0 {
		result.addError(ValidationError{
			Type:    "no_columns",
			Table:   tbl.Name,
			Message: fmt.Sprintf("table %q must have at least one column", tbl.Name),
		})
	}
	seen := make(map[string]bool)
	for i := range tbl.Columns {
		col := &tbl.Columns[i]
		if seen[col.Name] {
			result.addError(ValidationError{
				Type:    "duplicate_column",
				Table:   tbl.Name,
				Column:  col.Name,
				Message: fmt.Sprintf("duplicate column name %q in table %q", col.Name, tbl.Name),
			})
			continue
		}
		seen[col.Name] = true
	}

	pkCount := 0
	for i := range tbl.Constraints {
		if tbl.Constraints[i].Type == schema.PrimaryKeyConstraint {
			pkCount++
		}
	}
	if pkCount > 1 {
		result.addError(ValidationError{
			Type:    "multiple_primary_keys",
			Table:   tbl.Name,
			Message: fmt.Sprintf("table %q has %d primary key constraints", tbl.Name, pkCount),
		})
	}
}

func validateConstraints(tbl *schema.TableDef, s *schema.Schema, names map[string]string, result *Result) {
	for i := range tbl.Constraints {
		c := &tbl.Constraints[i]
		if c.Name != "" {
			if owner, ok := names[c.Name]; ok {
				result.addError(ValidationError{
					Type:    "duplicate_name",
					Table:   tbl.Name,
					Name:    c.Name,
					Message: fmt.Sprintf("constraint name %q on %q already used on %q", c.Name, tbl.Name, owner),
				})
			}
			names[c.Name] = tbl.Name
		}
		if c.Type != schema.CheckConstraint && len(c.Columns) == 0 {
			result.addError(ValidationError{
				Type:    "empty_constraint",
				Table:   tbl.Name,
				Name:    c.Name,
				Message: fmt.Sprintf("constraint %q on %q has no columns", c.Name, tbl.Name),
			})
		}
		for _, col := range c.Columns {
			if tbl.Column(col) == nil {
				result.addError(ValidationError{
					Type:    "unknown_column",
					Table:   tbl.Name,
					Column:  col,
					Name:    c.Name,
					Message: fmt.Sprintf("constraint %q references unknown column %s.%s", c.Name, tbl.Name, col),
				})
			}
		}
		if c.Type == schema.ForeignKeyConstraint {
			validateForeignKey(tbl, c, s, result)
		}
	}
}

func validateForeignKey(tbl *schema.TableDef, c *schema.TableConstraint, s *schema.Schema, result *Result) {
	ref, ok := s.Tables[c.RefTable]
	if !ok {
		result.addError(ValidationError{
			Type:    "unknown_ref_table",
			Table:   tbl.Name,
			Name:    c.Name,
			Message: fmt.Sprintf("foreign key %q references unknown table %q", c.Name, c.RefTable),
		})
		return
	}
	if len(c.Columns) != len(c.RefColumns) {
		result.addError(ValidationError{
			Type:    "fk_column_mismatch",
			Table:   tbl.Name,
			Name:    c.Name,
			Message: fmt.Sprintf("foreign key %q has %d local columns but %d referenced columns", c.Name, len(c.Columns), len(c.RefColumns)),
		})
		return
	}
	for i, rcol := range c.RefColumns {
		refCol := ref.Column(rcol)
		if refCol == nil {
			result.addError(ValidationError{
				Type:    "unknown_ref_column",
				Table:   tbl.Name,
				Name:    c.Name,
				Column:  rcol,
				Message: fmt.Sprintf("foreign key %q references unknown column %s.%s", c.Name, c.RefTable, rcol),
			})
			continue
		}
		local := tbl.Column(c.Columns[i])
		if local != nil && !local.Type.Equal(&refCol.Type) {
			result.addError(ValidationError{
				Type:   "fk_type_mismatch",
				Table:  tbl.Name,
				Name:   c.Name,
				Column: c.Columns[i],
				Message: fmt.Sprintf("foreign key %q: %s.%s is %s but %s.%s is %s",
					c.Name, tbl.Name, c.Columns[i], local.Type, c.RefTable, rcol, refCol.Type),
			})
		}
	}
	if !referencedColumnsUnique(ref, c.RefColumns) {
		result.addError(ValidationError{
			Type:    "fk_target_not_unique",
			Table:   tbl.Name,
			Name:    c.Name,
			Message: fmt.Sprintf("foreign key %q target %s(%v) is neither a primary key nor unique", c.Name, c.RefTable, c.RefColumns),
		})
	}
}

// referencedColumnsUnique reports whether the referenced column list is
// covered exactly by the target's primary key, a unique constraint or a
// unique index.
func referencedColumnsUnique(ref *schema.TableDef, cols []string) bool {
	if pk := ref.PrimaryKey(); pk != nil && sameColumnSet(pk.Columns, cols) {
		return true
	}
	for i := range ref.Constraints {
		c := &ref.Constraints[i]
		if c.Type == schema.UniqueConstraint && sameColumnSet(c.Columns, cols) {
			return true
		}
	}
	for i := range ref.Indexes {
		idx := &ref.Indexes[i]
		if idx.Unique && sameColumnSet(idx.Columns, cols) {
			return true
		}
	}
	return false
}

func sameColumnSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, col := range a {
		found := false
		for _, other := range b {
			if col == other {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func validateIndexes(tbl *schema.TableDef, names map[string]string, result *Result) {
	for i := range tbl.Indexes {
		idx := &tbl.Indexes[i]
		if owner, ok := names[idx.Name]; ok {
			result.addError(ValidationError{
				Type:    "duplicate_name",
				Table:   tbl.Name,
				Name:    idx.Name,
				Message: fmt.Sprintf("index name %q on %q already used on %q", idx.Name, tbl.Name, owner),
			})
		}
		names[idx.Name] = tbl.Name
		for _, col := range idx.Columns {
			if tbl.Column(col) == nil {
				result.addError(ValidationError{
					Type:    "unknown_column",
					Table:   tbl.Name,
					Column:  col,
					Name:    idx.Name,
					Message: fmt.Sprintf("index %q references unknown column %s.%s", idx.Name, tbl.Name, col),
				})
			}
		}
	}
}

func validateEnums(s *schema.Schema, result *Result) {
	for _, name := range s.EnumNames() {
		e := s.Enums[name]
		seen := make(map[string]bool)
		for _, v := range e.VariantNames() {
			if seen[v] {
				result.addError(ValidationError{
					Type:    "duplicate_enum_value",
					Name:    name,
					Message: fmt.Sprintf("enum %q has duplicate value %q", name, v),
				})
			}
			seen[v] = true
		}
		if e.IsInteger() {
			seenVals := make(map[int]bool)
			for _, m := range e.Members {
				if seenVals[m.Value] {
					result.addError(ValidationError{
						Type:    "duplicate_enum_value",
						Name:    name,
						Message: fmt.Sprintf("enum %q has duplicate integer value %d", name, m.Value),
					})
				}
				seenVals[m.Value] = true
			}
		}
	}
}

// ValidatePlan replays a plan against a baseline through the applier. Any
// step the applier rejects invalidates the plan; the replay continues past
// failures so every problem is reported at once.
func ValidatePlan(plan *migration.Plan, baseline *schema.Schema) *Result {
	result := newResult()
	working := baseline.Clone()
	for i := range plan.Actions {
		act := &plan.Actions[i]
		if act.Type == migration.AddColumn && act.Column != nil &&
			!act.Column.Nullable && act.Column.Default == nil && act.FillWith == "" {
			result.addError(ValidationError{
				Type:    "missing_backfill",
				Table:   act.Table,
				Column:  act.Column.Name,
				Message: fmt.Sprintf("non-nullable column %s.%s needs a default or fill_with", act.Table, act.Column.Name),
			})
			continue
		}
		if act.Type == migration.Raw {
			result.addWarning(ValidationError{
				Type:    "raw_action",
				Message: fmt.Sprintf("action %d is raw SQL; structural changes it makes are invisible to later diffs", i+1),
			})
			continue
		}
		if err := planner.Apply(working, act); err != nil {
			result.addError(ValidationError{
				Type:    string(err.Kind),
				Table:   err.Table,
				Column:  err.Column,
				Name:    err.Name,
				Message: fmt.Sprintf("action %d (%s): %s", i+1, act.Type, err.Message),
			})
		}
	}
	return result
}
