// Package arrowtable exposes Apache Arrow records as tables and collects materialized rows into Arrow records.
package arrowtable

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/vtable"
)

// ToArrowType converts a column type. Struct fields are named f0, f1, ...
func ToArrowType(t vtable.Type) (arrow.DataType, error) {
	switch t.TypeID {
	case vtable.TypeIDBoolean:
		return arrow.FixedWidthTypes.Boolean, nil
	case vtable.TypeIDByte:
		return arrow.PrimitiveTypes.Int8, nil
	case vtable.TypeIDInt:
		return arrow.PrimitiveTypes.Int32, nil
	case vtable.TypeIDLong:
		return arrow.PrimitiveTypes.Int64, nil
	case vtable.TypeIDFloat:
		return arrow.PrimitiveTypes.Float32, nil
	case vtable.TypeIDDouble:
		return arrow.PrimitiveTypes.Float64, nil
	case vtable.TypeIDString:
		return arrow.BinaryTypes.String, nil
	case vtable.TypeIDVarBinary:
		return arrow.BinaryTypes.Binary, nil
	case vtable.TypeIDList:
		if t.List.Element == nil {
			return nil, errors.Wrap(vtable.ErrInvalidSpec, "list type without element type")
		}
		element, err := ToArrowType(*t.List.Element)
		if err != nil {
			return nil, err
		}
		return arrow.ListOf(element), nil
	case vtable.TypeIDStruct:
		fields := make([]arrow.Field, len(t.Struct.Fields))
		for i := range t.Struct.Fields {
			fieldType, err := ToArrowType(t.Struct.Fields[i])
			if err != nil {
				return nil, err
			}
			fields[i] = arrow.Field{Name: fmt.Sprintf("f%d", i), Type: fieldType, Nullable: true}
		}
		return arrow.StructOf(fields...), nil
	}
	return nil, errors.Wrapf(vtable.ErrNotImplemented, "arrow representation of %s", t)
}

// FromArrowType converts an Arrow type, reporting whether it is dictionary encoded.
func FromArrowType(dt arrow.DataType) (vtable.Type, bool, error) {
	switch dt.ID() {
	case arrow.BOOL:
		return vtable.Boolean, false, nil
	case arrow.INT8:
		return vtable.Byte, false, nil
	case arrow.INT32:
		return vtable.Int, false, nil
	case arrow.INT64:
		return vtable.Long, false, nil
	case arrow.FLOAT32:
		return vtable.Float, false, nil
	case arrow.FLOAT64:
		return vtable.Double, false, nil
	case arrow.STRING:
		return vtable.String, false, nil
	case arrow.BINARY:
		return vtable.VarBinary, false, nil
	case arrow.LIST:
		element, _, err := FromArrowType(dt.(*arrow.ListType).Elem())
		if err != nil {
			return vtable.Type{}, false, err
		}
		return vtable.ListOf(element), false, nil
	case arrow.STRUCT:
		structType := dt.(*arrow.StructType)
		fields := make([]vtable.Type, structType.NumFields())
		for i := range fields {
			field, _, err := FromArrowType(structType.Field(i).Type)
			if err != nil {
				return vtable.Type{}, false, err
			}
			fields[i] = field
		}
		return vtable.StructOf(fields...), false, nil
	case arrow.DICTIONARY:
		dictType := dt.(*arrow.DictionaryType)
		if dictType.ValueType.ID() != arrow.STRING {
			return vtable.Type{}, false, errors.Wrapf(vtable.ErrNotImplemented, "dictionary of %s", dictType.ValueType)
		}
		return vtable.String, true, nil
	}
	return vtable.Type{}, false, errors.Wrapf(vtable.ErrNotImplemented, "arrow type %s", dt)
}

// FromArrowSchema converts a record schema. Dictionary encoded string columns get the dictionary trait.
func FromArrowSchema(schema *arrow.Schema) (vtable.Schema, error) {
	types := make([]vtable.Type, schema.NumFields())
	traits := make([]vtable.Trait, schema.NumFields())
	for i, field := range schema.Fields() {
		t, dictEncoded, err := FromArrowType(field.Type)
		if err != nil {
			return vtable.Schema{}, errors.Wrapf(err, "column %d (%s)", i, field.Name)
		}
		types[i] = t
		if dictEncoded {
			traits[i] = vtable.Trait{TraitType: vtable.TraitDictEncoded}
		}
	}
	return vtable.NewSchemaWithTraits(types, traits)
}

// ToArrowSchema converts a schema, naming the columns with names or column_i where names runs out.
// Dictionary traits aren't preserved, such columns are written as plain strings.
func ToArrowSchema(schema vtable.Schema, names []string) (*arrow.Schema, error) {
	fields := make([]arrow.Field, schema.NumColumns())
	for i := range fields {
		t, err := ToArrowType(schema.Type(i))
		if err != nil {
			return nil, errors.Wrapf(err, "column %d", i)
		}
		name := fmt.Sprintf("column_%d", i)
		if i < len(names) {
			name = names[i]
		}
		fields[i] = arrow.Field{Name: name, Type: t, Nullable: true}
	}
	return arrow.NewSchema(fields, nil), nil
}
