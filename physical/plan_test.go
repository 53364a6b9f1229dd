package physical

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/vtable/datasources/memory"
	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/graph"
	"github.com/cube2222/vtable/vtable"
)

// testPlan reads a and rows [1, 3) of b side by side, with a row index and a missing column.
func testPlan() *Plan {
	return &Plan{
		Sources: []Binding{
			{ID: "a", Schema: vtable.NewSchema(vtable.Int, vtable.String)},
			{ID: "b", Schema: vtable.NewSchema(vtable.Int)},
		},
		Nodes: []Node{
			{NodeType: NodeTypeSource, Source: &Source{Binding: 0, Columns: []int{0, 1}, Rows: vtable.AllRows()}},
			{NodeType: NodeTypeSource, Source: &Source{Binding: 1, Columns: []int{0}, Rows: vtable.Rows(1, 3)}},
			{NodeType: NodeTypeAppend, Predecessors: []int{0, 1}, Append: &Append{Inputs: [][]AccessEdge{
				{{Node: 0, Slot: 0}, {Node: 0, Slot: 1}},
				{{Node: 1, Slot: 0}},
			}}},
			{NodeType: NodeTypeRowIndex, Predecessors: []int{2}, RowIndex: &RowIndex{Offset: 5}},
			{NodeType: NodeTypeMissing, Missing: &Missing{Schema: vtable.NewSchema(vtable.Double)}},
			{NodeType: NodeTypeConsumer, Predecessors: []int{3}, Consumer: &Consumer{Inputs: []AccessEdge{
				{Node: 2, Slot: 0}, {Node: 2, Slot: 2}, {Node: 3, Slot: 0}, {Node: 4, Slot: 0},
			}}},
		},
		Lookahead: true,
		Size:      3,
		Schema:    vtable.NewSchema(vtable.Int, vtable.Int, vtable.Long, vtable.Double),
	}
}

func testTables(t *testing.T) []execution.Table {
	a, err := memory.NewTable(vtable.NewSchema(vtable.Int, vtable.String), [][]vtable.Value{
		{vtable.NewInt(1), vtable.NewString("x")},
		{vtable.NewInt(2), vtable.NewString("y")},
		{vtable.NewInt(3), vtable.NewString("z")},
	})
	require.NoError(t, err)
	b, err := memory.NewTable(vtable.NewSchema(vtable.Int), [][]vtable.Value{
		{vtable.NewInt(10)}, {vtable.NewInt(20)}, {vtable.NewInt(30)}, {vtable.NewInt(40)},
	})
	require.NoError(t, err)
	return []execution.Table{a, b}
}

var testPlanRows = [][]vtable.Value{
	{vtable.NewInt(1), vtable.NewInt(20), vtable.NewLong(5), vtable.NewMissing(vtable.Double)},
	{vtable.NewInt(2), vtable.NewInt(30), vtable.NewLong(6), vtable.NewMissing(vtable.Double)},
	{vtable.NewInt(3), vtable.NewMissing(vtable.Int), vtable.NewLong(7), vtable.NewMissing(vtable.Double)},
}

func TestDescribe(t *testing.T) {
	want := `schema: (int, int, long, double)
lookahead: true
size: 3
nodes:
  0: source
      source: a
      columns: [0,1]
      rows: *
  1: source
      source: b
      columns: [0]
      rows: 1:3
  2: append <- [0,1]
      inputs_0: [0.0 0.1]
      inputs_1: [1.0]
  3: row_index <- [2]
      offset: 5
  4: missing
      schema: (double)
  5: consumer <- [3]
      inputs: [2.0 2.2 3.0 4.0]
`
	got := Describe(testPlan())
	if got != want {
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(want),
			B:        difflib.SplitLines(got),
			FromFile: "want",
			ToFile:   "got",
			Context:  2,
		})
		require.NoError(t, err)
		t.Errorf("unexpected description:\n%s", diff)
	}
}

func TestExplain(t *testing.T) {
	g, err := graph.Show(Explain(testPlan()))
	require.NoError(t, err)
	out := g.String()
	assert.Contains(t, out, "consumer")
	assert.Contains(t, out, "driver_0")
	assert.Contains(t, out, "column_3")
}

func TestOutputSchema(t *testing.T) {
	plan := testPlan()
	assert.True(t, plan.OutputSchema().Equal(plan.Schema), "%s != %s", plan.OutputSchema(), plan.Schema)
	assert.Equal(t, vtable.String, plan.EdgeType(AccessEdge{Node: 2, Slot: 1}))
}

func TestValidate(t *testing.T) {
	require.NoError(t, testPlan().Validate())

	tests := []struct {
		name    string
		mutate  func(plan *Plan)
		wantErr error
	}{
		{
			name:    "empty",
			mutate:  func(plan *Plan) { plan.Nodes = nil },
			wantErr: vtable.ErrInvalidSpec,
		},
		{
			name:    "terminal isn't a consumer",
			mutate:  func(plan *Plan) { plan.Nodes = plan.Nodes[:4] },
			wantErr: vtable.ErrInvalidSpec,
		},
		{
			name:    "later predecessor",
			mutate:  func(plan *Plan) { plan.Nodes[3].Predecessors = []int{4} },
			wantErr: vtable.ErrInvalidSpec,
		},
		{
			name:    "missing predecessor",
			mutate:  func(plan *Plan) { plan.Nodes[3].Predecessors = nil },
			wantErr: vtable.ErrInvalidSpec,
		},
		{
			name:    "slot out of range",
			mutate:  func(plan *Plan) { plan.Nodes[5].Consumer.Inputs[0].Slot = 3 },
			wantErr: vtable.ErrInvalidSpec,
		},
		{
			name:    "unbound source",
			mutate:  func(plan *Plan) { plan.Nodes[1].Source.Binding = 2 },
			wantErr: vtable.ErrUnresolvedSource,
		},
		{
			name:    "source column out of range",
			mutate:  func(plan *Plan) { plan.Nodes[1].Source.Columns = []int{1} },
			wantErr: vtable.ErrInvalidSpec,
		},
		{
			name:    "append input lists",
			mutate:  func(plan *Plan) { plan.Nodes[2].Append.Inputs = plan.Nodes[2].Append.Inputs[:1] },
			wantErr: vtable.ErrInvalidSpec,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := testPlan()
			tt.mutate(plan)
			assert.True(t, errors.Is(plan.Validate(), tt.wantErr))
		})
	}
}

func TestAssembleSequential(t *testing.T) {
	root, err := testPlan().AssembleSequential(testTables(t), nil)
	require.NoError(t, err)
	require.NoError(t, root.Create())

	got := [][]vtable.Value{}
	for {
		ok, err := root.Forward()
		require.NoError(t, err)
		if !ok {
			break
		}
		row := make([]vtable.Value, len(root.Outputs()))
		for i, output := range root.Outputs() {
			row[i] = output.Value()
		}
		got = append(got, row)
	}
	assert.Equal(t, testPlanRows, got)
	require.NoError(t, root.Close())
}

func TestAssembleRandomAccess(t *testing.T) {
	root, err := testPlan().AssembleRandomAccess(testTables(t))
	require.NoError(t, err)
	require.NoError(t, root.Create())
	require.Equal(t, int64(3), root.Size())

	for _, row := range []int64{2, 0, 1, 2} {
		require.NoError(t, root.MoveTo(row))
		values := make([]vtable.Value, len(root.Outputs()))
		for i, output := range root.Outputs() {
			values[i] = output.Value()
		}
		assert.Equal(t, testPlanRows[row], values, "row %d", row)
	}
	require.NoError(t, root.Close())
}

type sequentialOnly struct {
	execution.Table
}

func TestAssembleErrors(t *testing.T) {
	tables := testTables(t)
	strings, err := memory.NewTable(vtable.NewSchema(vtable.String), nil)
	require.NoError(t, err)

	_, err = testPlan().AssembleSequential(tables[:1], nil)
	assert.True(t, errors.Is(err, vtable.ErrUnresolvedSource), "got %v", err)

	_, err = testPlan().AssembleSequential([]execution.Table{tables[0], nil}, nil)
	assert.True(t, errors.Is(err, vtable.ErrUnresolvedSource), "got %v", err)

	_, err = testPlan().AssembleSequential([]execution.Table{tables[0], strings}, nil)
	assert.True(t, errors.Is(err, vtable.ErrSchemaMismatch), "got %v", err)

	_, err = testPlan().AssembleSequential(tables, []execution.Sink{memory.NewSink(vtable.NewSchema())})
	assert.True(t, errors.Is(err, vtable.ErrUnresolvedSource), "got %v", err)

	_, err = testPlan().AssembleRandomAccess([]execution.Table{tables[0], sequentialOnly{tables[1]}})
	assert.True(t, errors.Is(err, vtable.ErrRandomAccessUnsupported), "got %v", err)

	filtered := testPlan()
	filtered.Nodes[3] = Node{NodeType: NodeTypeRowFilter, Predecessors: []int{2}, RowFilter: &RowFilter{Inputs: []AccessEdge{{Node: 2, Slot: 0}}}}
	_, err = filtered.AssembleRandomAccess(tables)
	assert.True(t, errors.Is(err, vtable.ErrRandomAccessUnsupported), "got %v", err)
}
