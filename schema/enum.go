package schema

import "fmt"

// EnumDef is a schema-level enum type definition. Exactly one of Values
// (string enum, ordered) or Members (integer enum, ordered) is populated.
type EnumDef struct {
	Name    string       `json:"name" yaml:"name"`
	Values  []string     `json:"values,omitempty" yaml:"values,omitempty"`
	Members []EnumMember `json:"members,omitempty" yaml:"members,omitempty"`
}

// EnumMember maps a variant name to its integer value.
type EnumMember struct {
	Name  string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

// IsInteger reports whether the enum is backed by integer values.
func (e *EnumDef) IsInteger() bool {
	return len(e.Members) > 0
}

// VariantNames returns the variant names in declaration order.
func (e *EnumDef) VariantNames() []string {
	if e.IsInteger() {
		names := make([]string, len(e.Members))
		for i, m := range e.Members {
			names[i] = m.Name
		}
		return names
	}
	return append([]string(nil), e.Values...)
}

// MemberValue returns the integer value for a variant name of an integer enum.
func (e *EnumDef) MemberValue(name string) (int, bool) {
	for _, m := range e.Members {
		if m.Name == name {
			return m.Value, true
		}
	}
	return 0, false
}

// SQLValues renders the value list as quoted SQL literals for string enums
// or bare integer literals for integer enums.
func (e *EnumDef) SQLValues() []string {
	if e.IsInteger() {
		out := make([]string, len(e.Members))
		for i, m := range e.Members {
			out[i] = fmt.Sprintf("%d", m.Value)
		}
		return out
	}
	out := make([]string, len(e.Values))
	for i, v := range e.Values {
		out[i] = fmt.Sprintf("'%s'", v)
	}
	return out
}

// Equal compares two enum definitions including value order.
func (e *EnumDef) Equal(other *EnumDef) bool {
	if e.Name != other.Name || !strSliceEqual(e.Values, other.Values) {
		return false
	}
	if len(e.Members) != len(other.Members) {
		return false
	}
	for i := range e.Members {
		if e.Members[i] != other.Members[i] {
			return false
		}
	}
	return true
}

// Clone deep-copies an enum definition.
func (e *EnumDef) Clone() *EnumDef {
	return &EnumDef{
		Name:    e.Name,
		Values:  append([]string(nil), e.Values...),
		Members: append([]EnumMember(nil), e.Members...),
	}
}

// IsPrefixOf reports whether e's value list is a strict or equal prefix of
// other's, which is the only compatible way an enum may evolve.
func (e *EnumDef) IsPrefixOf(other *EnumDef) bool {
	if e.IsInteger() != other.IsInteger() {
		return false
	}
	if e.IsInteger() {
		if len(e.Members) > len(other.Members) {
			return false
		}
		for i := range e.Members {
			if e.Members[i] != other.Members[i] {
				return false
			}
		}
		return true
	}
	if len(e.Values) > len(other.Values) {
		return false
	}
	for i := range e.Values {
		if e.Values[i] != other.Values[i] {
			return false
		}
	}
	return true
}
