package logical

import (
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/vtable"
)

// TransformNode is a node of the logical transform graph.
// It's immutable, combinators build new nodes on top of existing ones.
type TransformNode struct {
	spec         Spec
	predecessors []*TransformNode
	schema       vtable.Schema
}

// NewTransformNode validates the spec against the schemas of its predecessors
// and derives the output schema.
func NewTransformNode(spec Spec, predecessors ...*TransformNode) (*TransformNode, error) {
	inputs := make([]vtable.Schema, len(predecessors))
	for i := range predecessors {
		if predecessors[i] == nil {
			return nil, errors.Wrapf(vtable.ErrInvalidSpec, "%s predecessor %d is nil", spec.SpecType, i)
		}
		if predecessors[i].spec.SpecType == SpecTypeMaterialize {
			return nil, errors.Wrapf(vtable.ErrInvalidSpec, "materialized table can't be used as %s input", spec.SpecType)
		}
		inputs[i] = predecessors[i].schema
	}
	schema, err := DeriveSchema(spec, inputs)
	if err != nil {
		return nil, err
	}
	return &TransformNode{
		spec:         spec,
		predecessors: append([]*TransformNode(nil), predecessors...),
		schema:       schema,
	}, nil
}

func (node *TransformNode) Spec() Spec {
	return node.spec
}

func (node *TransformNode) Predecessors() []*TransformNode {
	return node.predecessors
}

func (node *TransformNode) Schema() vtable.Schema {
	return node.schema
}

// Equal is spec equality together with recursive predecessor equality.
func (node *TransformNode) Equal(other *TransformNode) bool {
	return node.equal(other, make(map[[2]*TransformNode]bool))
}

func (node *TransformNode) equal(other *TransformNode, known map[[2]*TransformNode]bool) bool {
	if node == other {
		return true
	}
	if node == nil || other == nil {
		return false
	}
	key := [2]*TransformNode{node, other}
	if result, ok := known[key]; ok {
		return result
	}
	result := node.spec.Equal(other.spec) && len(node.predecessors) == len(other.predecessors)
	for i := 0; result && i < len(node.predecessors); i++ {
		result = node.predecessors[i].equal(other.predecessors[i], known)
	}
	known[key] = result
	return result
}

// DeriveSchema computes the output schema of spec applied to inputs, validating the spec.
func DeriveSchema(spec Spec, inputs []vtable.Schema) (vtable.Schema, error) {
	switch spec.SpecType {
	case SpecTypeSource:
		if err := expectInputs(spec, inputs, 0); err != nil {
			return vtable.Schema{}, err
		}
		if spec.Source.ID == "" {
			return vtable.Schema{}, errors.Wrap(vtable.ErrInvalidSpec, "source must have an id")
		}
		if err := checkSupported(spec, spec.Source.Schema); err != nil {
			return vtable.Schema{}, err
		}
		return spec.Source.Schema, nil

	case SpecTypeSelectColumns:
		if err := expectInputs(spec, inputs, 1); err != nil {
			return vtable.Schema{}, err
		}
		return inputs[0].Select(spec.SelectColumns.Columns)

	case SpecTypeAppend:
		if len(inputs) == 0 {
			return vtable.Schema{}, errors.Wrap(vtable.ErrInvalidSpec, "append needs at least one input")
		}
		return inputs[0].Append(inputs[1:]...), nil

	case SpecTypeConcatenate:
		if len(inputs) == 0 {
			return vtable.Schema{}, errors.Wrap(vtable.ErrInvalidSpec, "concatenate needs at least one input")
		}
		for i := 1; i < len(inputs); i++ {
			if !inputs[i].Equal(inputs[0]) {
				return vtable.Schema{}, errors.Wrapf(vtable.ErrInvalidSpec, "concatenate input %d has schema %s, expected %s", i, inputs[i], inputs[0])
			}
		}
		return inputs[0], nil

	case SpecTypeSlice:
		if err := expectInputs(spec, inputs, 1); err != nil {
			return vtable.Schema{}, err
		}
		if err := vtable.Rows(spec.Slice.From, spec.Slice.To).Validate(); err != nil {
			return vtable.Schema{}, err
		}
		return inputs[0], nil

	case SpecTypeMap:
		if err := expectInputs(spec, inputs, 1); err != nil {
			return vtable.Schema{}, err
		}
		if spec.Map.Factory == nil {
			return vtable.Schema{}, errors.Wrap(vtable.ErrInvalidSpec, "map needs a mapper factory")
		}
		if err := checkColumns(spec, spec.Map.Columns, inputs[0]); err != nil {
			return vtable.Schema{}, err
		}
		output := spec.Map.Factory.OutputSchema()
		if err := checkSupported(spec, output); err != nil {
			return vtable.Schema{}, err
		}
		return output, nil

	case SpecTypeRowFilter:
		if err := expectInputs(spec, inputs, 1); err != nil {
			return vtable.Schema{}, err
		}
		if spec.RowFilter.Factory == nil {
			return vtable.Schema{}, errors.Wrap(vtable.ErrInvalidSpec, "row filter needs a predicate factory")
		}
		if err := checkColumns(spec, spec.RowFilter.Columns, inputs[0]); err != nil {
			return vtable.Schema{}, err
		}
		return inputs[0], nil

	case SpecTypeRowIndex:
		if err := expectInputs(spec, inputs, 1); err != nil {
			return vtable.Schema{}, err
		}
		return vtable.NewSchema(vtable.Long), nil

	case SpecTypeAppendMissing:
		if err := expectInputs(spec, inputs, 1); err != nil {
			return vtable.Schema{}, err
		}
		if err := checkSupported(spec, spec.AppendMissing.Schema); err != nil {
			return vtable.Schema{}, err
		}
		return inputs[0].Append(spec.AppendMissing.Schema), nil

	case SpecTypeObserver:
		if err := expectInputs(spec, inputs, 1); err != nil {
			return vtable.Schema{}, err
		}
		if spec.Observer.Factory == nil {
			return vtable.Schema{}, errors.Wrap(vtable.ErrInvalidSpec, "observer needs an observer factory")
		}
		if err := checkColumns(spec, spec.Observer.Columns, inputs[0]); err != nil {
			return vtable.Schema{}, err
		}
		return inputs[0], nil

	case SpecTypeMaterialize:
		if err := expectInputs(spec, inputs, 1); err != nil {
			return vtable.Schema{}, err
		}
		if spec.Materialize.SinkID == "" {
			return vtable.Schema{}, errors.Wrap(vtable.ErrInvalidSpec, "materialize must have a sink id")
		}
		return vtable.NewSchema(), nil
	}

	panic("unexhaustive spec type match")
}

func expectInputs(spec Spec, inputs []vtable.Schema, count int) error {
	if len(inputs) != count {
		return errors.Wrapf(vtable.ErrInvalidSpec, "%s expects %d inputs, got %d", spec.SpecType, count, len(inputs))
	}
	return nil
}

func checkColumns(spec Spec, columns []int, input vtable.Schema) error {
	for _, column := range columns {
		if column < 0 || column >= input.NumColumns() {
			return errors.Wrapf(vtable.ErrInvalidSpec, "%s input column %d out of range for %d columns", spec.SpecType, column, input.NumColumns())
		}
	}
	return nil
}

func checkSupported(spec Spec, schema vtable.Schema) error {
	for i := 0; i < schema.NumColumns(); i++ {
		if !schema.Type(i).Supported() {
			return errors.Wrapf(vtable.ErrNotImplemented, "%s column %d has unsupported type %s", spec.SpecType, i, schema.Type(i))
		}
	}
	return nil
}
