package planner

import (
	"github.com/dev-five-git/vespertide/migration"
	"github.com/dev-five-git/vespertide/schema"
)

// PlanNextMigration reconstructs the baseline from the applied history,
// diffs it against the target model set and returns a plan carrying the
// next version number. Replay warnings (version gaps) are passed through.
func PlanNextMigration(target []schema.TableDef, history []*migration.Plan) (*migration.Plan, []*Error, error) {
	baseline, warnings, err := Replay(history)
	if err != nil {
		return nil, warnings, err
	}
	targetSchema, serr := schema.NewSchema(target)
	if serr != nil {
		return nil, warnings, serr
	}
	actions, derr := Diff(baseline, targetSchema)
	if derr != nil {
		return nil, warnings, derr
	}

	next := 1
	for _, p := range history {
		if p.Version >= next {
			next = p.Version + 1
		}
	}
	return &migration.Plan{
		Version: next,
		Actions: actions,
	}, warnings, nil
}

// MissingFill identifies a non-nullable column addition that has neither a
// default nor a fill_with expression, or a change to NOT NULL that has no
// fill_with expression; the CLI prompts for these. ColumnType and Default
// are filled only for column additions.
type MissingFill struct {
	Table      string
	Column     string
	ColumnType string
	Default    *string
}

// FindMissingFillWith scans a plan for AddColumn and ModifyColumnNullable
// actions that would need a backfill expression to run against existing rows.
func FindMissingFillWith(plan *migration.Plan) []MissingFill {
	var missing []MissingFill
	for i := range plan.Actions {
		act := &plan.Actions[i]
		switch act.Type {
		case migration.AddColumn:
			if act.Column != nil && !act.Column.Nullable && act.Column.Default == nil && act.FillWith == "" {
				missing = append(missing, MissingFill{
					Table:      act.Table,
					Column:     act.Column.Name,
					ColumnType: act.Column.Type.String(),
					Default:    act.Column.Default,
				})
			}
		case migration.ModifyColumnNullable:
			if act.Nullable != nil && !*act.Nullable && act.FillWith == "" {
				missing = append(missing, MissingFill{
					Table:  act.Table,
					Column: act.ColumnName,
				})
			}
		}
	}
	return missing
}
