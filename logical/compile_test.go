package logical

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/vtable/physical"
	"github.com/cube2222/vtable/vtable"
)

func nodeTypes(plan *physical.Plan) []physical.NodeType {
	out := make([]physical.NodeType, len(plan.Nodes))
	for i := range plan.Nodes {
		out[i] = plan.Nodes[i].NodeType
	}
	return out
}

func TestCompile(t *testing.T) {
	a := source("a", vtable.Int, vtable.String, vtable.Boolean)
	b := source("b", vtable.Int)
	mapped := mustNode(NewTransformNode(NewMapSpec([]int{0}, plus{delta: 1}), a))
	indexed := mustNode(NewTransformNode(NewRowIndexSpec(0), a))
	sharedAppend := mustNode(NewTransformNode(NewAppendSpec(), a, mapped))
	distinctAppend := mustNode(NewTransformNode(NewAppendSpec(), a, b))

	tests := []struct {
		name      string
		root      *TransformNode
		selection vtable.Selection
		want      []physical.Node
	}{
		{
			name:      "source columns are pruned",
			root:      a,
			selection: vtable.SelectColumns(2),
			want: []physical.Node{
				{NodeType: physical.NodeTypeSource, Source: &physical.Source{Binding: 0, Columns: []int{2}, Rows: vtable.AllRows()}},
				{NodeType: physical.NodeTypeConsumer, Predecessors: []int{0}, Consumer: &physical.Consumer{Inputs: []physical.AccessEdge{{Node: 0, Slot: 0}}}},
			},
		},
		{
			name:      "append of one row stream needs no append node",
			root:      sharedAppend,
			selection: vtable.SelectAll(),
			want: []physical.Node{
				{NodeType: physical.NodeTypeSource, Source: &physical.Source{Binding: 0, Columns: []int{0, 1, 2}, Rows: vtable.AllRows()}},
				{NodeType: physical.NodeTypeMap, Predecessors: []int{0}, Map: &physical.Map{Inputs: []physical.AccessEdge{{Node: 0, Slot: 0}}, Factory: plus{delta: 1}}},
				{NodeType: physical.NodeTypeConsumer, Predecessors: []int{1}, Consumer: &physical.Consumer{Inputs: []physical.AccessEdge{
					{Node: 0, Slot: 0}, {Node: 0, Slot: 1}, {Node: 0, Slot: 2}, {Node: 1, Slot: 0},
				}}},
			},
		},
		{
			name:      "unused map is dropped",
			root:      sharedAppend,
			selection: vtable.SelectColumns(1),
			want: []physical.Node{
				{NodeType: physical.NodeTypeSource, Source: &physical.Source{Binding: 0, Columns: []int{1}, Rows: vtable.AllRows()}},
				{NodeType: physical.NodeTypeConsumer, Predecessors: []int{0}, Consumer: &physical.Consumer{Inputs: []physical.AccessEdge{{Node: 0, Slot: 0}}}},
			},
		},
		{
			name:      "append of distinct row streams",
			root:      distinctAppend,
			selection: vtable.SelectColumns(0, 3),
			want: []physical.Node{
				{NodeType: physical.NodeTypeSource, Source: &physical.Source{Binding: 0, Columns: []int{0}, Rows: vtable.AllRows()}},
				{NodeType: physical.NodeTypeSource, Source: &physical.Source{Binding: 1, Columns: []int{0}, Rows: vtable.AllRows()}},
				{NodeType: physical.NodeTypeAppend, Predecessors: []int{0, 1}, Append: &physical.Append{Inputs: [][]physical.AccessEdge{
					{{Node: 0, Slot: 0}},
					{{Node: 1, Slot: 0}},
				}}},
				{NodeType: physical.NodeTypeConsumer, Predecessors: []int{2}, Consumer: &physical.Consumer{Inputs: []physical.AccessEdge{{Node: 2, Slot: 0}, {Node: 2, Slot: 1}}}},
			},
		},
		{
			name:      "row selection is pushed into the source",
			root:      b,
			selection: vtable.SelectAll().WithRows(1, 3),
			want: []physical.Node{
				{NodeType: physical.NodeTypeSource, Source: &physical.Source{Binding: 0, Columns: []int{0}, Rows: vtable.Rows(1, 3)}},
				{NodeType: physical.NodeTypeConsumer, Predecessors: []int{0}, Consumer: &physical.Consumer{Inputs: []physical.AccessEdge{{Node: 0, Slot: 0}}}},
			},
		},
		{
			name:      "unused row index is dropped",
			root:      mustNode(NewTransformNode(NewAppendSpec(), b, indexed)),
			selection: vtable.SelectColumns(0),
			want: []physical.Node{
				{NodeType: physical.NodeTypeSource, Source: &physical.Source{Binding: 0, Columns: []int{0}, Rows: vtable.AllRows()}},
				{NodeType: physical.NodeTypeSource, Source: &physical.Source{Binding: 1, Columns: []int{}, Rows: vtable.AllRows()}},
				{NodeType: physical.NodeTypeAppend, Predecessors: []int{0, 1}, Append: &physical.Append{Inputs: [][]physical.AccessEdge{
					{{Node: 0, Slot: 0}},
					nil,
				}}},
				{NodeType: physical.NodeTypeConsumer, Predecessors: []int{2}, Consumer: &physical.Consumer{Inputs: []physical.AccessEdge{{Node: 2, Slot: 0}}}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Compile(tt.root, tt.selection)
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan.Nodes)
		})
	}
}

func TestCompileSize(t *testing.T) {
	sizes := WithSourceSizes(func(id string) int64 {
		switch id {
		case "a":
			return 3
		case "b":
			return 2
		}
		return -1
	})
	a := source("a", vtable.Int)
	b := source("b", vtable.Int)
	unknown := source("unknown", vtable.Int)

	tests := []struct {
		name string
		root *TransformNode
		want int64
	}{
		{name: "source", root: a, want: 3},
		{name: "append", root: mustNode(NewTransformNode(NewAppendSpec(), a, b)), want: 3},
		{name: "concatenate", root: mustNode(NewTransformNode(NewConcatenateSpec(), a, b, a)), want: 8},
		{name: "slice", root: mustNode(NewTransformNode(NewSliceSpec(1, 10), a)), want: 2},
		{name: "filter", root: mustNode(NewTransformNode(NewRowFilterSpec([]int{0}, nonMissing{}), a)), want: -1},
		{name: "unknown source", root: mustNode(NewTransformNode(NewConcatenateSpec(), a, unknown)), want: -1},
		{name: "row index", root: mustNode(NewTransformNode(NewRowIndexSpec(5), b)), want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Compile(tt.root, vtable.SelectAll(), sizes)
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan.Size)
		})
	}
}

func TestCompileLookahead(t *testing.T) {
	a := source("a", vtable.Int)
	filtered := mustNode(NewTransformNode(NewRowFilterSpec([]int{0}, nonMissing{}), a))
	appended := mustNode(NewTransformNode(NewAppendSpec(), a, filtered))

	plan, err := Compile(appended, vtable.SelectAll())
	require.NoError(t, err)
	assert.False(t, plan.Lookahead)
	assert.True(t, errors.Is(plan.SupportsRandomAccess(), vtable.ErrRandomAccessUnsupported))

	plan, err = Compile(a, vtable.SelectAll())
	require.NoError(t, err)
	assert.True(t, plan.Lookahead)
	assert.NoError(t, plan.SupportsRandomAccess())
}

func TestCompileSchema(t *testing.T) {
	a := source("a", vtable.Int, vtable.String)
	b := source("b", vtable.Int, vtable.String)
	appended := mustNode(NewTransformNode(NewAppendSpec(), a, b))

	roots := []*TransformNode{
		a,
		appended,
		mustNode(NewTransformNode(NewConcatenateSpec(), a, b)),
		mustNode(NewTransformNode(NewSelectColumnsSpec(3, 0, 0), appended)),
		mustNode(NewTransformNode(NewSliceSpec(0, 1), appended)),
		mustNode(NewTransformNode(NewMapSpec([]int{0}, plus{delta: 2}), a)),
		mustNode(NewTransformNode(NewRowFilterSpec([]int{1}, nonMissing{}), a)),
		mustNode(NewTransformNode(NewRowIndexSpec(0), a)),
		mustNode(NewTransformNode(NewAppendMissingSpec(vtable.NewSchema(vtable.Double)), a)),
		mustNode(NewTransformNode(NewObserverSpec([]int{1}, noopObserver{}), a)),
	}
	for _, root := range roots {
		t.Run(root.Spec().SpecType.String(), func(t *testing.T) {
			plan, err := Compile(root, vtable.SelectAll())
			require.NoError(t, err)
			assert.True(t, plan.OutputSchema().Equal(root.Schema()), "%s != %s", plan.OutputSchema(), root.Schema())

			if root.Schema().NumColumns() > 1 {
				plan, err := Compile(root, vtable.SelectColumns(1))
				require.NoError(t, err)
				want, err := root.Schema().Select([]int{1})
				require.NoError(t, err)
				assert.True(t, plan.OutputSchema().Equal(want), "%s != %s", plan.OutputSchema(), want)
			}
		})
	}
}

func TestCompileBindings(t *testing.T) {
	a := source("a", vtable.Int)
	b := source("b", vtable.Int)
	concatenated := mustNode(NewTransformNode(NewConcatenateSpec(), a, b, a))

	plan, err := Compile(concatenated, vtable.SelectAll())
	require.NoError(t, err)
	assert.Equal(t, []physical.Binding{
		{ID: "a", Schema: vtable.NewSchema(vtable.Int)},
		{ID: "b", Schema: vtable.NewSchema(vtable.Int)},
	}, plan.Sources)
	assert.Equal(t, []physical.NodeType{
		physical.NodeTypeSource, physical.NodeTypeSource, physical.NodeTypeSource,
		physical.NodeTypeConcatenate, physical.NodeTypeConsumer,
	}, nodeTypes(plan))

	conflicting := mustNode(NewTransformNode(NewAppendSpec(), a, source("a", vtable.String)))
	_, err = Compile(conflicting, vtable.SelectAll())
	assert.True(t, errors.Is(err, vtable.ErrSchemaMismatch), "got %v", err)
}

func TestCompileMaterialize(t *testing.T) {
	a := source("a", vtable.Int, vtable.String)
	sliced := mustNode(NewTransformNode(NewSliceSpec(1, 2), a))
	materialize := mustNode(NewTransformNode(NewMaterializeSpec("out"), sliced))

	plan, err := Compile(materialize, vtable.SelectAll())
	require.NoError(t, err)
	assert.Equal(t, physical.NodeTypeMaterialize, plan.Terminal().NodeType)
	assert.Equal(t, []physical.Binding{{ID: "out", Schema: vtable.NewSchema(vtable.Int, vtable.String)}}, plan.Sinks)
	assert.Equal(t, vtable.Rows(1, 2), plan.Nodes[0].Source.Rows)
	assert.True(t, errors.Is(plan.SupportsRandomAccess(), vtable.ErrRandomAccessUnsupported))

	_, err = Compile(materialize, vtable.SelectColumns(0))
	assert.True(t, errors.Is(err, vtable.ErrInvalidSpec), "got %v", err)

	_, err = NewTransformNode(NewSliceSpec(0, 1), materialize)
	assert.True(t, errors.Is(err, vtable.ErrInvalidSpec), "got %v", err)
}

func TestCompileInvalidSelection(t *testing.T) {
	a := source("a", vtable.Int, vtable.String)
	tests := []vtable.Selection{
		vtable.SelectColumns(2),
		vtable.SelectColumns(-1),
		vtable.SelectColumns(1, 0),
		vtable.SelectColumns(0, 0),
		vtable.SelectAll().WithRows(3, 1),
	}
	for _, selection := range tests {
		t.Run(selection.String(), func(t *testing.T) {
			_, err := Compile(a, selection)
			assert.True(t, errors.Is(err, vtable.ErrInvalidSpec), "got %v", err)
		})
	}
}

func TestFlatten(t *testing.T) {
	a := source("a", vtable.Int)
	left := mustNode(NewTransformNode(NewSliceSpec(0, 2), a))
	right := mustNode(NewTransformNode(NewSliceSpec(0, 2), source("a", vtable.Int)))
	other := mustNode(NewTransformNode(NewSliceSpec(1, 2), a))
	root := mustNode(NewTransformNode(NewConcatenateSpec(), left, right, other, left))

	graph := Flatten(root)
	require.Len(t, graph.Nodes, 4)
	assert.Equal(t, 3, graph.Root)
	assert.Equal(t, []int{1, 1, 2, 1}, graph.Nodes[graph.Root].Inputs)
	for i := range graph.Nodes {
		for _, input := range graph.Nodes[i].Inputs {
			assert.Less(t, input, i)
		}
	}
	assert.True(t, left.Equal(right))
	assert.False(t, left.Equal(other))
}
