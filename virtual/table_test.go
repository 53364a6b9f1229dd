package virtual

import (
	"runtime"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/datasources/memory"
	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/vtable"
)

func intRows(values ...int32) [][]vtable.Value {
	out := make([][]vtable.Value, len(values))
	for i, value := range values {
		out[i] = []vtable.Value{vtable.NewInt(value)}
	}
	return out
}

func intTable(t *testing.T, values ...int32) *Table {
	source, err := memory.NewTable(vtable.NewSchema(vtable.Int), intRows(values...))
	require.NoError(t, err)
	table, err := NewTable(source)
	require.NoError(t, err)
	return table
}

func readAll(t *testing.T, table *Table, selection vtable.Selection) [][]vtable.Value {
	cursor, err := table.Cursor(selection)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, cursor.Close())
	}()

	out := [][]vtable.Value{}
	for {
		ok, err := cursor.Forward()
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, cursor.Values())
	}
}

type plus struct {
	delta int32
}

func (f plus) OutputSchema() vtable.Schema {
	return vtable.NewSchema(vtable.Int)
}

func (f plus) CreateMapper(inputs []access.ReadAccess, outputs []access.WriteAccess) (execution.Mapper, error) {
	return execution.MapperFunc(func() error {
		if inputs[0].IsMissing() {
			return nil
		}
		outputs[0].SetInt(inputs[0].IntValue() + f.delta)
		return nil
	}), nil
}

type greaterThan struct {
	than int32
}

func (f greaterThan) CreatePredicate(inputs []access.ReadAccess) (execution.Predicate, error) {
	return execution.PredicateFunc(func() (bool, error) {
		return !inputs[0].IsMissing() && inputs[0].IntValue() > f.than, nil
	}), nil
}

type sum struct{}

func (sum) OutputType() vtable.Type {
	return vtable.Long
}

func (sum) CreateAggregator(inputs []access.ReadAccess) (execution.Aggregator, error) {
	return &sumAggregator{inputs: inputs}, nil
}

type sumAggregator struct {
	inputs []access.ReadAccess
	total  int64
}

func (a *sumAggregator) Update() error {
	for _, input := range a.inputs {
		if !input.IsMissing() {
			a.total += int64(input.IntValue())
		}
	}
	return nil
}

func (a *sumAggregator) Result() (vtable.Value, error) {
	return vtable.NewLong(a.total), nil
}

func TestAppend(t *testing.T) {
	a := intTable(t, 1, 2, 3)
	b := intTable(t, 10, 20)

	appended, err := a.Append(b)
	require.NoError(t, err)
	assert.True(t, appended.Schema().Equal(vtable.NewSchema(vtable.Int, vtable.Int)))

	assert.Equal(t, [][]vtable.Value{
		{vtable.NewInt(1), vtable.NewInt(10)},
		{vtable.NewInt(2), vtable.NewInt(20)},
		{vtable.NewInt(3), vtable.NewMissing(vtable.Int)},
	}, readAll(t, appended, vtable.SelectAll()))

	size, err := appended.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(3), size)
}

func TestAppendSharedStream(t *testing.T) {
	a := intTable(t, 1, 2, 3)
	mapped, err := a.Map([]int{0}, plus{delta: 1})
	require.NoError(t, err)

	appended, err := a.Append(mapped)
	require.NoError(t, err)

	assert.Equal(t, [][]vtable.Value{
		{vtable.NewInt(1), vtable.NewInt(2)},
		{vtable.NewInt(2), vtable.NewInt(3)},
		{vtable.NewInt(3), vtable.NewInt(4)},
	}, readAll(t, appended, vtable.SelectAll()))
}

func TestConcatenate(t *testing.T) {
	a := intTable(t, 1, 2, 3)
	b := intTable(t, 10, 20)

	concatenated, err := a.Concatenate(b)
	require.NoError(t, err)
	assert.True(t, concatenated.Schema().Equal(vtable.NewSchema(vtable.Int)))
	assert.Equal(t, intRows(1, 2, 3, 10, 20), readAll(t, concatenated, vtable.SelectAll()))

	size, err := concatenated.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)

	strings, err := memory.NewTable(vtable.NewSchema(vtable.String), [][]vtable.Value{{vtable.NewString("a")}})
	require.NoError(t, err)
	c, err := NewTable(strings)
	require.NoError(t, err)

	_, err = a.Concatenate(c)
	assert.True(t, errors.Is(err, vtable.ErrInvalidSpec), "got %v", err)
}

func TestSlice(t *testing.T) {
	tests := []struct {
		name     string
		from, to int64
		want     [][]vtable.Value
		wantErr  error
	}{
		{name: "middle", from: 1, to: 3, want: intRows(20, 30)},
		{name: "empty", from: 2, to: 2, want: intRows()},
		{name: "past the end", from: 3, to: 10, want: intRows(40)},
		{name: "fully past the end", from: 5, to: 8, want: intRows()},
		{name: "negative", from: -1, to: 2, wantErr: vtable.ErrInvalidSpec},
		{name: "reversed", from: 3, to: 1, wantErr: vtable.ErrInvalidSpec},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sliced, err := intTable(t, 10, 20, 30, 40).Slice(tt.from, tt.to)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, readAll(t, sliced, vtable.SelectAll()))

			size, err := sliced.Size()
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), size)
		})
	}
}

func TestSelection(t *testing.T) {
	source, err := memory.NewTable(
		vtable.NewSchema(vtable.Int, vtable.String, vtable.Boolean),
		[][]vtable.Value{
			{vtable.NewInt(1), vtable.NewString("a"), vtable.NewBoolean(true)},
			{vtable.NewInt(2), vtable.NewString("b"), vtable.NewBoolean(false)},
			{vtable.NewInt(3), vtable.NewString("c"), vtable.NewBoolean(true)},
		},
	)
	require.NoError(t, err)
	table, err := NewTable(source)
	require.NoError(t, err)

	assert.Equal(t, [][]vtable.Value{
		{vtable.NewInt(2), vtable.NewBoolean(false)},
		{vtable.NewInt(3), vtable.NewBoolean(true)},
	}, readAll(t, table, vtable.SelectColumns(0, 2).WithRows(1, 5)))

	reordered, err := table.Select(1, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, [][]vtable.Value{
		{vtable.NewString("a"), vtable.NewString("a"), vtable.NewInt(1)},
		{vtable.NewString("b"), vtable.NewString("b"), vtable.NewInt(2)},
		{vtable.NewString("c"), vtable.NewString("c"), vtable.NewInt(3)},
	}, readAll(t, reordered, vtable.SelectAll()))

	_, err = table.Cursor(vtable.SelectColumns(2, 0))
	assert.True(t, errors.Is(err, vtable.ErrInvalidSpec), "got %v", err)
	_, err = table.Select(3)
	assert.True(t, errors.Is(err, vtable.ErrInvalidSpec), "got %v", err)
}

func TestMaterializeRoundTrip(t *testing.T) {
	schema := vtable.NewSchema(vtable.Int, vtable.String, vtable.ListOf(vtable.Long))
	rows := [][]vtable.Value{
		{vtable.NewInt(1), vtable.NewString("a"), vtable.NewList(vtable.Long, []vtable.Value{vtable.NewLong(1), vtable.NewLong(2)})},
		{vtable.NewInt(2), vtable.NewMissing(vtable.String), vtable.NewList(vtable.Long, nil)},
		{vtable.NewMissing(vtable.Int), vtable.NewString("c"), vtable.NewMissing(vtable.ListOf(vtable.Long))},
	}
	source, err := memory.NewTable(schema, rows)
	require.NoError(t, err)
	table, err := NewTable(source)
	require.NoError(t, err)

	sink := memory.NewSink(schema)
	written, err := table.MaterializeTo(sink)
	require.NoError(t, err)
	assert.Equal(t, int64(3), written)
	assert.True(t, sink.Flushed())
	require.Len(t, sink.Rows(), len(rows))
	for i := range rows {
		for j := range rows[i] {
			assert.True(t, rows[i][j].Equal(sink.Rows()[i][j]), "row %d column %d: %s != %s", i, j, rows[i][j], sink.Rows()[i][j])
		}
	}
	assert.Equal(t, 0, source.OpenCursors())

	_, err = table.MaterializeTo(memory.NewSink(vtable.NewSchema(vtable.Int)))
	assert.True(t, errors.Is(err, vtable.ErrSchemaMismatch), "got %v", err)
}

func TestRandomAccessMatchesSequential(t *testing.T) {
	a := intTable(t, 1, 2, 3)
	b := intTable(t, 10, 20)
	c := intTable(t, 100, 200, 300, 400)

	appended, err := a.Append(b, c)
	require.NoError(t, err)
	concatenated, err := a.Concatenate(b, c)
	require.NoError(t, err)
	sliced, err := concatenated.Slice(2, 7)
	require.NoError(t, err)
	mapped, err := sliced.Map([]int{0}, plus{delta: 5})
	require.NoError(t, err)
	indexed, err := mapped.RowIndex(10)
	require.NoError(t, err)
	withIndex, err := mapped.Append(indexed)
	require.NoError(t, err)
	padded, err := appended.AppendMissing(vtable.NewSchema(vtable.String))
	require.NoError(t, err)
	nested, err := appended.Concatenate(appended)
	require.NoError(t, err)

	tests := []struct {
		name  string
		table *Table
		size  int64
	}{
		{name: "append", table: appended, size: 4},
		{name: "concatenate", table: concatenated, size: 9},
		{name: "slice of concatenate", table: sliced, size: 5},
		{name: "map with row index", table: withIndex, size: 5},
		{name: "missing columns", table: padded, size: 4},
		{name: "concatenated appends", table: nested, size: 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			randomAccess, err := tt.table.RandomAccessCursor(vtable.SelectAll())
			require.NoError(t, err)
			defer func() {
				require.NoError(t, randomAccess.Close())
			}()
			require.Equal(t, tt.size, randomAccess.Size())

			// Seek backwards too, so that boundaries are crossed in both directions.
			order := []int64{}
			for row := int64(0); row < tt.size; row++ {
				order = append(order, row)
			}
			for row := tt.size - 1; row >= 0; row-- {
				order = append(order, row)
			}

			for _, row := range order {
				cursor, err := tt.table.Cursor(vtable.SelectAll())
				require.NoError(t, err)
				for i := int64(0); i <= row; i++ {
					ok, err := cursor.Forward()
					require.NoError(t, err)
					require.True(t, ok)
				}
				want := cursor.Values()
				require.NoError(t, cursor.Close())

				require.NoError(t, randomAccess.MoveTo(row))
				assert.Equal(t, want, randomAccess.Values(), "row %d", row)
			}

			assert.True(t, errors.Is(randomAccess.MoveTo(tt.size), vtable.ErrIllegalState))
		})
	}
}

func TestPlanCache(t *testing.T) {
	table := intTable(t, 1, 2, 3)
	cache, err := table.PlanCache()
	require.NoError(t, err)

	first, err := table.Plan(vtable.SelectAll().WithRows(0, 2))
	require.NoError(t, err)
	second, err := table.Plan(vtable.SelectAll().WithRows(0, 2))
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int64(1), cache.Compilations())

	// Every cursor gets its own live nodes from the shared plan.
	left := readAll(t, table, vtable.SelectAll().WithRows(0, 2))
	right := readAll(t, table, vtable.SelectAll().WithRows(0, 2))
	assert.Equal(t, left, right)
	assert.Equal(t, int64(1), cache.Compilations())

	_, err = table.Plan(vtable.SelectAll())
	require.NoError(t, err)
	assert.Equal(t, int64(2), cache.Compilations())
}

func TestPlanCacheStartsNoGoroutinesPerTable(t *testing.T) {
	table := intTable(t, 1, 2, 3)
	readAll(t, table, vtable.SelectAll())
	before := runtime.NumGoroutine()

	for i := 0; i < 200; i++ {
		sliced, err := table.Slice(0, 2)
		require.NoError(t, err)
		assert.Equal(t, intRows(1, 2), readAll(t, sliced, vtable.SelectAll()))
	}
	assert.LessOrEqual(t, runtime.NumGoroutine(), before+2)
}

func TestPlanCacheScopedPerTable(t *testing.T) {
	table := intTable(t, 1, 2, 3)
	first, err := table.Slice(0, 2)
	require.NoError(t, err)
	second, err := table.Slice(0, 2)
	require.NoError(t, err)

	readAll(t, first, vtable.SelectAll())
	assert.Equal(t, intRows(1, 2), readAll(t, second, vtable.SelectAll()))

	for _, sliced := range []*Table{first, second} {
		cache, err := sliced.PlanCache()
		require.NoError(t, err)
		assert.Equal(t, int64(1), cache.Compilations())
	}
}

func TestPlanCacheConcurrent(t *testing.T) {
	a := intTable(t, 1, 2, 3)
	b := intTable(t, 10, 20)
	table, err := a.Append(b)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][][]vtable.Value, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = readAll(t, table, vtable.SelectColumns(1))
		}(i)
	}
	wg.Wait()

	for i := range results {
		assert.Equal(t, [][]vtable.Value{
			{vtable.NewInt(10)},
			{vtable.NewInt(20)},
			{vtable.NewMissing(vtable.Int)},
		}, results[i])
	}
	cache, err := table.PlanCache()
	require.NoError(t, err)
	assert.Equal(t, int64(1), cache.Compilations())
}

func TestCanForwardIsPure(t *testing.T) {
	a := intTable(t, 1, 2, 3)
	b := intTable(t, 10, 20)
	appended, err := a.Append(b)
	require.NoError(t, err)
	concatenated, err := appended.Concatenate(appended)
	require.NoError(t, err)

	want := readAll(t, concatenated, vtable.SelectAll())

	for _, peeks := range []int{1, 2, 5} {
		cursor, err := concatenated.Cursor(vtable.SelectAll())
		require.NoError(t, err)
		require.True(t, cursor.SupportsLookahead())

		got := [][]vtable.Value{}
		for {
			for i := 0; i < peeks; i++ {
				can, err := cursor.CanForward()
				require.NoError(t, err)
				require.Equal(t, len(got) < len(want), can)
			}
			ok, err := cursor.Forward()
			require.NoError(t, err)
			if !ok {
				break
			}
			got = append(got, cursor.Values())
		}
		assert.Equal(t, want, got, "%d peeks", peeks)
		require.NoError(t, cursor.Close())
	}
}

func TestFilter(t *testing.T) {
	table := intTable(t, 5, 1, 7, 3, 9)
	filtered, err := table.Filter([]int{0}, greaterThan{than: 4})
	require.NoError(t, err)

	assert.Equal(t, intRows(5, 7, 9), readAll(t, filtered, vtable.SelectAll()))

	cursor, err := filtered.Cursor(vtable.SelectAll())
	require.NoError(t, err)
	assert.False(t, cursor.SupportsLookahead())
	_, err = cursor.CanForward()
	assert.True(t, errors.Is(err, vtable.ErrIllegalState))
	require.NoError(t, cursor.Close())

	_, err = filtered.RandomAccessCursor(vtable.SelectAll())
	assert.True(t, errors.Is(err, vtable.ErrRandomAccessUnsupported), "got %v", err)

	size, err := filtered.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(-1), size)
}

func TestCompiledSchemaMatchesDerived(t *testing.T) {
	a := intTable(t, 1, 2, 3)
	b := intTable(t, 10, 20)

	build := func(build func() (*Table, error)) *Table {
		table, err := build()
		require.NoError(t, err)
		return table
	}
	appended := build(func() (*Table, error) { return a.Append(b) })
	tables := []*Table{
		a,
		appended,
		build(func() (*Table, error) { return a.Concatenate(b) }),
		build(func() (*Table, error) { return appended.Select(1, 0, 1) }),
		build(func() (*Table, error) { return a.Slice(0, 1) }),
		build(func() (*Table, error) { return a.Map([]int{0}, plus{delta: 1}) }),
		build(func() (*Table, error) { return a.Filter([]int{0}, greaterThan{than: 1}) }),
		build(func() (*Table, error) { return a.RowIndex(0) }),
		build(func() (*Table, error) { return a.AppendMissing(vtable.NewSchema(vtable.String, vtable.Double)) }),
		build(func() (*Table, error) { return appended.Observe([]int{1}, &countingObserverFactory{}) }),
	}
	for _, table := range tables {
		plan, err := table.Plan(vtable.SelectAll())
		require.NoError(t, err)
		assert.True(t, plan.OutputSchema().Equal(table.Schema()), "%s != %s", plan.OutputSchema(), table.Schema())
		assert.True(t, plan.Schema.Equal(table.Schema()))
	}
}

type countingObserverFactory struct {
	rows   int
	closed int
}

func (f *countingObserverFactory) CreateObserver(inputs []access.ReadAccess) (execution.Observer, error) {
	return f, nil
}

func (f *countingObserverFactory) Update() error {
	f.rows++
	return nil
}

func (f *countingObserverFactory) Close() error {
	f.closed++
	return nil
}

func TestObserve(t *testing.T) {
	observer := &countingObserverFactory{}
	observed, err := intTable(t, 1, 2, 3).Observe([]int{0}, observer)
	require.NoError(t, err)

	assert.Equal(t, intRows(1, 2, 3), readAll(t, observed, vtable.SelectAll()))
	assert.Equal(t, 3, observer.rows)
	assert.Equal(t, 1, observer.closed)
}

func TestAggregate(t *testing.T) {
	a := intTable(t, 1, 2, 3)
	b := intTable(t, 10, 20)
	appended, err := a.Append(b)
	require.NoError(t, err)

	result, err := appended.Aggregate([]int{1, 0, 1}, sum{})
	require.NoError(t, err)
	assert.Equal(t, vtable.NewLong(66), result)
}

func TestSelectionFor(t *testing.T) {
	tests := []struct {
		columns       []int
		wantSelected  []int
		wantPositions []int
	}{
		{columns: []int{0}, wantSelected: []int{0}, wantPositions: []int{0}},
		{columns: []int{3, 1}, wantSelected: []int{1, 3}, wantPositions: []int{1, 0}},
		{columns: []int{2, 2, 0}, wantSelected: []int{0, 2}, wantPositions: []int{1, 1, 0}},
	}
	for _, tt := range tests {
		selected, positions := selectionFor(tt.columns)
		assert.Equal(t, tt.wantSelected, selected)
		assert.Equal(t, tt.wantPositions, positions)
	}
}

func TestNestedTable(t *testing.T) {
	a := intTable(t, 1, 2, 3)
	b := intTable(t, 10, 20)
	concatenated, err := a.Concatenate(b)
	require.NoError(t, err)

	nested, err := NewTable(concatenated.AsSource())
	require.NoError(t, err)
	sliced, err := nested.Slice(2, 4)
	require.NoError(t, err)
	assert.Equal(t, intRows(3, 10), readAll(t, sliced, vtable.SelectAll()))

	cursor, err := sliced.RandomAccessCursor(vtable.SelectAll())
	require.NoError(t, err)
	require.NoError(t, cursor.MoveTo(1))
	assert.Equal(t, []vtable.Value{vtable.NewInt(10)}, cursor.Values())
	require.NoError(t, cursor.Close())
}

func TestFromNode(t *testing.T) {
	source, err := memory.NewTable(vtable.NewSchema(vtable.Int), intRows(1, 2))
	require.NoError(t, err)
	table, err := NewNamedTable("numbers", source)
	require.NoError(t, err)
	sliced, err := table.Slice(1, 2)
	require.NoError(t, err)

	rebound, err := FromNode(sliced.Node(), map[string]execution.Table{"numbers": source})
	require.NoError(t, err)
	assert.Equal(t, intRows(2), readAll(t, rebound, vtable.SelectAll()))

	_, err = FromNode(sliced.Node(), map[string]execution.Table{})
	assert.True(t, errors.Is(err, vtable.ErrUnresolvedSource), "got %v", err)

	strings, err := memory.NewTable(vtable.NewSchema(vtable.String), nil)
	require.NoError(t, err)
	_, err = FromNode(sliced.Node(), map[string]execution.Table{"numbers": strings})
	assert.True(t, errors.Is(err, vtable.ErrSchemaMismatch), "got %v", err)
}
