package planner

import (
	"fmt"
	"sort"

	"github.com/dev-five-git/vespertide/migration"
	"github.com/dev-five-git/vespertide/schema"
)

// Replay folds the applier over a migration history in version order and
// returns the reconstructed baseline schema. Version gaps are reported as
// warnings and replay proceeds; duplicate versions are fatal.
func Replay(plans []*migration.Plan) (*schema.Schema, []*Error, error) {
	ordered := append([]*migration.Plan(nil), plans...)
	sort.SliceStable(ordered, func(a, b int) bool {
		return ordered[a].Version < ordered[b].Version
	})

	var warnings []*Error
	prev := 0
	for _, plan := range ordered {
		if prev != 0 && plan.Version == prev {
			return nil, warnings, &Error{
				Kind:    KindVersionDuplicate,
				Message: fmt.Sprintf("duplicate migration version: %d", plan.Version),
			}
		}
		if plan.Version > prev+1 && prev != 0 {
			warnings = append(warnings, &Error{
				Kind:    KindVersionGap,
				Message: fmt.Sprintf("migration versions jump from %d to %d", prev, plan.Version),
			})
		}
		prev = plan.Version
	}

	s := schema.EmptySchema()
	for _, plan := range ordered {
		for i := range plan.Actions {
			if err := Apply(s, &plan.Actions[i]); err != nil {
				err.Message = fmt.Sprintf("migration %d: %s", plan.Version, err.Message)
				return nil, warnings, err
			}
		}
	}
	return s, warnings, nil
}
