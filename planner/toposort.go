package planner

import (
	"sort"

	"github.com/dev-five-git/vespertide/schema"
)

// sortTablesByDependency orders the given tables so that foreign key
// referents come before their dependents (Kahn's algorithm). Only edges
// between tables inside the set constrain the order; ties break
// lexicographically so the output is deterministic. With reverse set the
// order flips, which is the order deletions must run in.
func sortTablesByDependency(s *schema.Schema, names []string, reverse bool) ([]string, *Error) {
	inSet := make(map[string]bool, len(names))
	for _, n := range names {
		inSet[n] = true
	}

	// deps[a] = distinct tables in the set that a's foreign keys reference.
	deps := make(map[string]map[string]bool, len(names))
	dependents := make(map[string][]string, len(names))
	for _, n := range names {
		deps[n] = make(map[string]bool)
	}
	for _, n := range names {
		tbl := s.Tables[n]
		if tbl == nil {
			continue
		}
		for i := range tbl.Constraints {
			c := &tbl.Constraints[i]
			if c.Type != schema.ForeignKeyConstraint || c.RefTable == n || !inSet[c.RefTable] {
				continue
			}
			if !deps[n][c.RefTable] {
				deps[n][c.RefTable] = true
				dependents[c.RefTable] = append(dependents[c.RefTable], n)
			}
		}
	}

	var frontier []string
	for _, n := range names {
		if len(deps[n]) == 0 {
			frontier = append(frontier, n)
		}
	}
	sort.Strings(frontier)

	out := make([]string, 0, len(names))
	for len(frontier) > 0 {
		n := frontier[0]
		frontier = frontier[1:]
		out = append(out, n)
		for _, d := range dependents[n] {
			delete(deps[d], n)
			if len(deps[d]) == 0 {
				frontier = insertSorted(frontier, d)
			}
		}
	}

	if len(out) != len(names) {
		var unresolved []string
		for _, n := range names {
			if len(deps[n]) > 0 {
				unresolved = append(unresolved, n)
			}
		}
		sort.Strings(unresolved)
		return nil, &Error{
			Kind:       KindCyclicDependency,
			Message:    "foreign key cycle between tables",
			Unresolved: unresolved,
		}
	}

	if reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func insertSorted(list []string, s string) []string {
	i := sort.SearchStrings(list, s)
	list = append(list, "")
	copy(list[i+1:], list[i:])
	list[i] = s
	return list
}
