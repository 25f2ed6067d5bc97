package planner

import (
	"fmt"
	"strings"
)

type ErrorKind string

const (
	KindInvariantViolation     ErrorKind = "invariant_violation"
	KindIncompatibleEnumChange ErrorKind = "incompatible_enum_change"
	KindCyclicDependency       ErrorKind = "cyclic_dependency"
	KindMissingBackfill        ErrorKind = "missing_backfill"
	KindVersionGap             ErrorKind = "version_gap"
	KindVersionDuplicate       ErrorKind = "version_duplicate"
)

// Error is a structured planning error carrying the offending entity names
// so callers can present them without parsing messages.
type Error struct {
	Kind       ErrorKind
	Table      string
	Column     string
	Name       string // constraint, index or enum name
	Message    string
	Unresolved []string // cyclic dependency members
}

func (e *Error) Error() string {
	if len(e.Unresolved) > 0 {
		return fmt.Sprintf("%s: %s [%s]", e.Kind, e.Message, strings.Join(e.Unresolved, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func invariant(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvariantViolation, Message: fmt.Sprintf(format, args...)}
}

func tableInvariant(table, format string, args ...interface{}) *Error {
	e := invariant(format, args...)
	e.Table = table
	return e
}
