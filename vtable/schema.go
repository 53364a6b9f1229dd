package vtable

import (
	"strings"

	"github.com/pkg/errors"
)

type TraitType int

const (
	TraitNone TraitType = iota
	TraitDictEncoded
)

func (t TraitType) String() string {
	switch t {
	case TraitNone:
		return "none"
	case TraitDictEncoded:
		return "dict_encoded"
	}
	return "unknown"
}

func ParseTraitType(text string) (TraitType, error) {
	switch text {
	case "", "none":
		return TraitNone, nil
	case "dict_encoded":
		return TraitDictEncoded, nil
	}
	return TraitNone, errors.Wrapf(ErrInvalidSpec, "unknown trait: %s", text)
}

// Trait is optional per-column metadata which doesn't change the column's type tag.
type Trait struct {
	TraitType TraitType
}

// Schema is the ordered list of column types of a table.
// Schemas are values, none of the methods mutate the receiver.
type Schema struct {
	types  []Type
	traits []Trait
}

func NewSchema(types ...Type) Schema {
	return Schema{
		types:  append([]Type(nil), types...),
		traits: make([]Trait, len(types)),
	}
}

func NewSchemaWithTraits(types []Type, traits []Trait) (Schema, error) {
	if len(types) != len(traits) {
		return Schema{}, errors.Wrapf(ErrInvalidSpec, "got %d types but %d traits", len(types), len(traits))
	}
	return Schema{
		types:  append([]Type(nil), types...),
		traits: append([]Trait(nil), traits...),
	}, nil
}

func (s Schema) NumColumns() int {
	return len(s.types)
}

func (s Schema) Type(column int) Type {
	return s.types[column]
}

func (s Schema) Trait(column int) Trait {
	return s.traits[column]
}

// Types returns a copy of the column types.
func (s Schema) Types() []Type {
	return append([]Type(nil), s.types...)
}

func (s Schema) Traits() []Trait {
	return append([]Trait(nil), s.traits...)
}

func (s Schema) Equal(other Schema) bool {
	if len(s.types) != len(other.types) {
		return false
	}
	for i := range s.types {
		if !s.types[i].Equal(other.types[i]) || s.traits[i] != other.traits[i] {
			return false
		}
	}
	return true
}

// Select reindexes the schema. Indices may repeat.
func (s Schema) Select(columns []int) (Schema, error) {
	out := Schema{
		types:  make([]Type, len(columns)),
		traits: make([]Trait, len(columns)),
	}
	for i, column := range columns {
		if column < 0 || column >= len(s.types) {
			return Schema{}, errors.Wrapf(ErrInvalidSpec, "column index %d out of range for schema with %d columns", column, len(s.types))
		}
		out.types[i] = s.types[column]
		out.traits[i] = s.traits[column]
	}
	return out, nil
}

func (s Schema) Append(others ...Schema) Schema {
	out := Schema{
		types:  append([]Type(nil), s.types...),
		traits: append([]Trait(nil), s.traits...),
	}
	for _, other := range others {
		out.types = append(out.types, other.types...)
		out.traits = append(out.traits, other.traits...)
	}
	return out
}

func (s Schema) String() string {
	parts := make([]string, len(s.types))
	for i := range s.types {
		parts[i] = s.types[i].String()
		if s.traits[i].TraitType != TraitNone {
			parts[i] += "(" + s.traits[i].TraitType.String() + ")"
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
