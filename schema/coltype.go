package schema

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

type TypeKind string

const (
	TypeInteger     TypeKind = "integer"
	TypeBigInteger  TypeKind = "big_integer"
	TypeSmallInt    TypeKind = "small_integer"
	TypeReal        TypeKind = "real"
	TypeDouble      TypeKind = "double"
	TypeText        TypeKind = "text"
	TypeBoolean     TypeKind = "boolean"
	TypeUUID        TypeKind = "uuid"
	TypeJSON        TypeKind = "json"
	TypeJSONB       TypeKind = "jsonb"
	TypeBytea       TypeKind = "bytea"
	TypeDate        TypeKind = "date"
	TypeTime        TypeKind = "time"
	TypeTimestamp   TypeKind = "timestamp"
	TypeTimestamptz TypeKind = "timestamptz"
	TypeInterval    TypeKind = "interval"
	TypeInet        TypeKind = "inet"
	TypeCidr        TypeKind = "cidr"
	TypeMacaddr     TypeKind = "macaddr"
	TypeXML         TypeKind = "xml"
	TypeChar        TypeKind = "char"
	TypeVarchar     TypeKind = "varchar"
	TypeNumeric     TypeKind = "numeric"
	TypeEnum        TypeKind = "enum"
	TypeCustom      TypeKind = "custom"
)

var simpleKinds = map[TypeKind]bool{
	TypeInteger: true, TypeBigInteger: true, TypeSmallInt: true,
	TypeReal: true, TypeDouble: true, TypeText: true, TypeBoolean: true,
	TypeUUID: true, TypeJSON: true, TypeJSONB: true, TypeBytea: true,
	TypeDate: true, TypeTime: true, TypeTimestamp: true, TypeTimestamptz: true,
	TypeInterval: true, TypeInet: true, TypeCidr: true, TypeMacaddr: true,
	TypeXML: true,
}

// ColumnType is a closed sum: a simple SQL primitive, or a parametric type
// (char/varchar/numeric/enum/custom) whose parameters live in the extra
// fields. Simple types serialize as a bare string, parametric types as a
// single-key object.
type ColumnType struct {
	Kind TypeKind

	Length    int // char, varchar
	Precision int // numeric
	Scale     int // numeric

	EnumName    string       // enum
	EnumValues  []string     // string enum, ordered
	EnumMembers []EnumMember // integer enum, ordered

	Custom string // custom raw type string
}

// Simple builds a ColumnType for a primitive kind.
func Simple(kind TypeKind) ColumnType {
	return ColumnType{Kind: kind}
}

// Varchar builds a varchar type of the given length.
func Varchar(length int) ColumnType {
	return ColumnType{Kind: TypeVarchar, Length: length}
}

// Char builds a fixed-length char type.
func Char(length int) ColumnType {
	return ColumnType{Kind: TypeChar, Length: length}
}

// Numeric builds a numeric type with precision and scale.
func Numeric(precision, scale int) ColumnType {
	return ColumnType{Kind: TypeNumeric, Precision: precision, Scale: scale}
}

// StringEnum builds an enum type with an ordered string value list.
func StringEnum(name string, values ...string) ColumnType {
	return ColumnType{Kind: TypeEnum, EnumName: name, EnumValues: values}
}

// IntegerEnum builds an enum type backed by a named-to-integer mapping.
func IntegerEnum(name string, members ...EnumMember) ColumnType {
	return ColumnType{Kind: TypeEnum, EnumName: name, EnumMembers: members}
}

// Custom builds a type carrying a raw backend type string.
func Custom(raw string) ColumnType {
	return ColumnType{Kind: TypeCustom, Custom: raw}
}

// IsSimple reports whether the type is a primitive without parameters.
func (t *ColumnType) IsSimple() bool {
	return simpleKinds[t.Kind]
}

// IsIntegerEnum reports whether the type is an enum with integer members.
func (t *ColumnType) IsIntegerEnum() bool {
	return t.Kind == TypeEnum && len(t.EnumMembers) > 0
}

// EnumDef returns the schema-level enum definition this column type
// references, or nil for non-enum types.
func (t *ColumnType) EnumDef() *EnumDef {
	if t.Kind != TypeEnum {
		return nil
	}
	return &EnumDef{
		Name:    t.EnumName,
		Values:  append([]string(nil), t.EnumValues...),
		Members: append([]EnumMember(nil), t.EnumMembers...),
	}
}

// Equal compares two column types structurally.
func (t *ColumnType) Equal(other *ColumnType) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case TypeChar, TypeVarchar:
		return t.Length == other.Length
	case TypeNumeric:
		return t.Precision == other.Precision && t.Scale == other.Scale
	case TypeCustom:
		return t.Custom == other.Custom
	case TypeEnum:
		if t.EnumName != other.EnumName || !strSliceEqual(t.EnumValues, other.EnumValues) {
			return false
		}
		if len(t.EnumMembers) != len(other.EnumMembers) {
			return false
		}
		for i := range t.EnumMembers {
			if t.EnumMembers[i] != other.EnumMembers[i] {
				return false
			}
		}
		return true
	}
	return true
}

// Clone deep-copies a column type.
func (t *ColumnType) Clone() *ColumnType {
	out := *t
	out.EnumValues = append([]string(nil), t.EnumValues...)
	out.EnumMembers = append([]EnumMember(nil), t.EnumMembers...)
	return &out
}

func (t ColumnType) String() string {
	switch {
	case t.IsSimple():
		return string(t.Kind)
	case t.Kind == TypeChar, t.Kind == TypeVarchar:
		return fmt.Sprintf("%s(%d)", t.Kind, t.Length)
	case t.Kind == TypeNumeric:
		return fmt.Sprintf("numeric(%d,%d)", t.Precision, t.Scale)
	case t.Kind == TypeEnum:
		return fmt.Sprintf("enum(%s)", t.EnumName)
	case t.Kind == TypeCustom:
		return t.Custom
	}
	return string(t.Kind)
}

type charParams struct {
	Length int `json:"length" yaml:"length"`
}

type numericParams struct {
	Precision int `json:"precision" yaml:"precision"`
	Scale     int `json:"scale" yaml:"scale"`
}

type enumParams struct {
	Name    string       `json:"name" yaml:"name"`
	Values  []string     `json:"values,omitempty" yaml:"values,omitempty"`
	Members []EnumMember `json:"members,omitempty" yaml:"members,omitempty"`
}

func (t ColumnType) MarshalJSON() ([]byte, error) {
	if t.IsSimple() {
		return json.Marshal(string(t.Kind))
	}
	switch t.Kind {
	case TypeChar, TypeVarchar:
		return json.Marshal(map[string]charParams{string(t.Kind): {Length: t.Length}})
	case TypeNumeric:
		return json.Marshal(map[string]numericParams{"numeric": {Precision: t.Precision, Scale: t.Scale}})
	case TypeEnum:
		return json.Marshal(map[string]enumParams{"enum": {Name: t.EnumName, Values: t.EnumValues, Members: t.EnumMembers}})
	case TypeCustom:
		return json.Marshal(map[string]string{"custom": t.Custom})
	}
	return nil, fmt.Errorf("unknown column type kind: %s", t.Kind)
}

func (t *ColumnType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		kind := TypeKind(s)
		if !simpleKinds[kind] {
			return fmt.Errorf("unknown column type: %s", s)
		}
		*t = ColumnType{Kind: kind}
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("column type must be a string or a single-key object")
	}
	if len(obj) != 1 {
		return fmt.Errorf("parametric column type must have exactly one key")
	}
	for key, raw := range obj {
		switch TypeKind(key) {
		case TypeChar, TypeVarchar:
			var p charParams
			if err := json.Unmarshal(raw, &p); err != nil {
				return fmt.Errorf("parse %s params: %w", key, err)
			}
			*t = ColumnType{Kind: TypeKind(key), Length: p.Length}
		case TypeNumeric:
			var p numericParams
			if err := json.Unmarshal(raw, &p); err != nil {
				return fmt.Errorf("parse numeric params: %w", err)
			}
			*t = ColumnType{Kind: TypeNumeric, Precision: p.Precision, Scale: p.Scale}
		case TypeEnum:
			var p enumParams
			if err := json.Unmarshal(raw, &p); err != nil {
				return fmt.Errorf("parse enum params: %w", err)
			}
			if len(p.Values) > 0 && len(p.Members) > 0 {
				return fmt.Errorf("enum %s: values and members are mutually exclusive", p.Name)
			}
			*t = ColumnType{Kind: TypeEnum, EnumName: p.Name, EnumValues: p.Values, EnumMembers: p.Members}
		case TypeCustom:
			var custom string
			if err := json.Unmarshal(raw, &custom); err != nil {
				return fmt.Errorf("parse custom type: %w", err)
			}
			*t = ColumnType{Kind: TypeCustom, Custom: custom}
		default:
			return fmt.Errorf("unknown column type: %s", key)
		}
	}
	return nil
}

func (t ColumnType) MarshalYAML() (interface{}, error) {
	if t.IsSimple() {
		return string(t.Kind), nil
	}
	switch t.Kind {
	case TypeChar, TypeVarchar:
		return map[string]charParams{string(t.Kind): {Length: t.Length}}, nil
	case TypeNumeric:
		return map[string]numericParams{"numeric": {Precision: t.Precision, Scale: t.Scale}}, nil
	case TypeEnum:
		return map[string]enumParams{"enum": {Name: t.EnumName, Values: t.EnumValues, Members: t.EnumMembers}}, nil
	case TypeCustom:
		return map[string]string{"custom": t.Custom}, nil
	}
	return nil, fmt.Errorf("unknown column type kind: %s", t.Kind)
}

func (t *ColumnType) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		kind := TypeKind(node.Value)
		if !simpleKinds[kind] {
			return fmt.Errorf("unknown column type: %s", node.Value)
		}
		*t = ColumnType{Kind: kind}
		return nil
	}
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return fmt.Errorf("parametric column type must be a single-key mapping")
	}
	key := node.Content[0].Value
	val := node.Content[1]
	switch TypeKind(key) {
	case TypeChar, TypeVarchar:
		var p charParams
		if err := val.Decode(&p); err != nil {
			return fmt.Errorf("parse %s params: %w", key, err)
		}
		*t = ColumnType{Kind: TypeKind(key), Length: p.Length}
	case TypeNumeric:
		var p numericParams
		if err := val.Decode(&p); err != nil {
			return fmt.Errorf("parse numeric params: %w", err)
		}
		*t = ColumnType{Kind: TypeNumeric, Precision: p.Precision, Scale: p.Scale}
	case TypeEnum:
		var p enumParams
		if err := val.Decode(&p); err != nil {
			return fmt.Errorf("parse enum params: %w", err)
		}
		*t = ColumnType{Kind: TypeEnum, EnumName: p.Name, EnumValues: p.Values, EnumMembers: p.Members}
	case TypeCustom:
		var raw string
		if err := val.Decode(&raw); err != nil {
			return fmt.Errorf("parse custom type: %w", err)
		}
		*t = ColumnType{Kind: TypeCustom, Custom: raw}
	default:
		return fmt.Errorf("unknown column type: %s", key)
	}
	return nil
}
