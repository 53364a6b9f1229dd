package vtable

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type TypeID int

const (
	TypeIDBoolean TypeID = iota
	TypeIDByte
	TypeIDInt
	TypeIDLong
	TypeIDFloat
	TypeIDDouble
	TypeIDString
	TypeIDVarBinary
	TypeIDList
	TypeIDStruct
	// Temporal kinds are part of the type system but not yet backed by accessors.
	TypeIDLocalDate
	TypeIDLocalTime
	TypeIDDuration
)

func (id TypeID) String() string {
	switch id {
	case TypeIDBoolean:
		return "boolean"
	case TypeIDByte:
		return "byte"
	case TypeIDInt:
		return "int"
	case TypeIDLong:
		return "long"
	case TypeIDFloat:
		return "float"
	case TypeIDDouble:
		return "double"
	case TypeIDString:
		return "string"
	case TypeIDVarBinary:
		return "varbinary"
	case TypeIDList:
		return "list"
	case TypeIDStruct:
		return "struct"
	case TypeIDLocalDate:
		return "local_date"
	case TypeIDLocalTime:
		return "local_time"
	case TypeIDDuration:
		return "duration"
	}
	return "unknown"
}

// Supported reports whether accessors exist for values of this kind.
func (id TypeID) Supported() bool {
	return id >= TypeIDBoolean && id <= TypeIDStruct
}

type Type struct {
	TypeID TypeID
	List   struct {
		Element *Type
	}
	Struct struct {
		Fields []Type
	}
}

var (
	Boolean   = Type{TypeID: TypeIDBoolean}
	Byte      = Type{TypeID: TypeIDByte}
	Int       = Type{TypeID: TypeIDInt}
	Long      = Type{TypeID: TypeIDLong}
	Float     = Type{TypeID: TypeIDFloat}
	Double    = Type{TypeID: TypeIDDouble}
	String    = Type{TypeID: TypeIDString}
	VarBinary = Type{TypeID: TypeIDVarBinary}
	LocalDate = Type{TypeID: TypeIDLocalDate}
	LocalTime = Type{TypeID: TypeIDLocalTime}
	Duration  = Type{TypeID: TypeIDDuration}
)

func ListOf(element Type) Type {
	out := Type{TypeID: TypeIDList}
	out.List.Element = &element
	return out
}

func StructOf(fields ...Type) Type {
	out := Type{TypeID: TypeIDStruct}
	out.Struct.Fields = fields
	return out
}

func (t Type) Equal(other Type) bool {
	if t.TypeID != other.TypeID {
		return false
	}
	switch t.TypeID {
	case TypeIDList:
		if t.List.Element == nil || other.List.Element == nil {
			return t.List.Element == other.List.Element
		}
		return t.List.Element.Equal(*other.List.Element)
	case TypeIDStruct:
		if len(t.Struct.Fields) != len(other.Struct.Fields) {
			return false
		}
		for i := range t.Struct.Fields {
			if !t.Struct.Fields[i].Equal(other.Struct.Fields[i]) {
				return false
			}
		}
	}
	return true
}

// Supported reports whether this type, including all nested types, can be read and written.
func (t Type) Supported() bool {
	if !t.TypeID.Supported() {
		return false
	}
	switch t.TypeID {
	case TypeIDList:
		return t.List.Element != nil && t.List.Element.Supported()
	case TypeIDStruct:
		for i := range t.Struct.Fields {
			if !t.Struct.Fields[i].Supported() {
				return false
			}
		}
	}
	return true
}

func (t Type) String() string {
	switch t.TypeID {
	case TypeIDList:
		if t.List.Element == nil {
			return "[?]"
		}
		return fmt.Sprintf("[%s]", *t.List.Element)
	case TypeIDStruct:
		fieldStrings := make([]string, len(t.Struct.Fields))
		for i, field := range t.Struct.Fields {
			fieldStrings[i] = field.String()
		}
		return fmt.Sprintf("{%s}", strings.Join(fieldStrings, "; "))
	}
	return t.TypeID.String()
}

// ParseType is the inverse of Type.String.
func ParseType(text string) (Type, error) {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]"):
		element, err := ParseType(text[1 : len(text)-1])
		if err != nil {
			return Type{}, err
		}
		return ListOf(element), nil
	case strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}"):
		inner := strings.TrimSpace(text[1 : len(text)-1])
		if inner == "" {
			return StructOf(), nil
		}
		parts, err := splitTopLevel(inner)
		if err != nil {
			return Type{}, err
		}
		fields := make([]Type, len(parts))
		for i := range parts {
			field, err := ParseType(parts[i])
			if err != nil {
				return Type{}, err
			}
			fields[i] = field
		}
		return StructOf(fields...), nil
	}
	for id := TypeIDBoolean; id <= TypeIDDuration; id++ {
		if id == TypeIDList || id == TypeIDStruct {
			continue
		}
		if id.String() == text {
			return Type{TypeID: id}, nil
		}
	}
	return Type{}, errors.Wrapf(ErrInvalidSpec, "unknown type '%s'", text)
}

func splitTopLevel(text string) ([]string, error) {
	var out []string
	depth := 0
	start := 0
	for i, r := range text {
		switch r {
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth < 0 {
				return nil, errors.Wrapf(ErrInvalidSpec, "unbalanced type '%s'", text)
			}
		case ';':
			if depth == 0 {
				out = append(out, text[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, errors.Wrapf(ErrInvalidSpec, "unbalanced type '%s'", text)
	}
	return append(out, text[start:]), nil
}
