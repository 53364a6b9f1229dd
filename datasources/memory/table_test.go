package memory

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/vtable"
)

func testTable(t *testing.T, options ...Option) *Table {
	table, err := NewTable(vtable.NewSchema(vtable.Int, vtable.String), [][]vtable.Value{
		{vtable.NewInt(1), vtable.NewString("a")},
		{vtable.NewInt(2), vtable.NewMissing(vtable.String)},
		{vtable.NewInt(3), vtable.NewString("c")},
	}, options...)
	require.NoError(t, err)
	return table
}

func readCursor(t *testing.T, cursor execution.Cursor) [][]vtable.Value {
	out := [][]vtable.Value{}
	accesses := make([]access.ReadAccess, cursor.NumColumns())
	for i := range accesses {
		accesses[i] = cursor.Access(i)
	}
	for {
		ok, err := cursor.Forward()
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, access.Values(accesses))
	}
}

func TestNewTableErrors(t *testing.T) {
	schema := vtable.NewSchema(vtable.Int)
	_, err := NewTable(schema, [][]vtable.Value{{vtable.NewInt(1), vtable.NewInt(2)}})
	assert.True(t, errors.Is(err, vtable.ErrSchemaMismatch), "got %v", err)
	_, err = NewTable(schema, [][]vtable.Value{{vtable.NewString("x")}})
	assert.True(t, errors.Is(err, vtable.ErrSchemaMismatch), "got %v", err)
}

func TestCursor(t *testing.T) {
	tests := []struct {
		name      string
		selection vtable.Selection
		want      [][]vtable.Value
	}{
		{
			name:      "all",
			selection: vtable.SelectAll(),
			want: [][]vtable.Value{
				{vtable.NewInt(1), vtable.NewString("a")},
				{vtable.NewInt(2), vtable.NewMissing(vtable.String)},
				{vtable.NewInt(3), vtable.NewString("c")},
			},
		},
		{
			name:      "second column",
			selection: vtable.SelectColumns(1),
			want: [][]vtable.Value{
				{vtable.NewString("a")}, {vtable.NewMissing(vtable.String)}, {vtable.NewString("c")},
			},
		},
		{
			name:      "rows past the end",
			selection: vtable.SelectColumns(0).WithRows(2, 8),
			want:      [][]vtable.Value{{vtable.NewInt(3)}},
		},
		{
			name:      "no columns",
			selection: vtable.SelectColumns().WithRows(0, 2),
			want:      [][]vtable.Value{{}, {}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := testTable(t)
			cursor, err := table.Cursor(tt.selection)
			require.NoError(t, err)
			assert.Equal(t, tt.want, readCursor(t, cursor))
			require.NoError(t, cursor.Close())
			assert.Equal(t, 0, table.OpenCursors())
		})
	}
}

func TestCursorLookahead(t *testing.T) {
	cursor, err := testTable(t).Cursor(vtable.SelectAll())
	require.NoError(t, err)
	lookahead, ok := cursor.(execution.LookaheadCursor)
	require.True(t, ok)

	for i := 0; i < 3; i++ {
		can, err := lookahead.CanForward()
		require.NoError(t, err)
		assert.True(t, can)
		ok, err := lookahead.Forward()
		require.NoError(t, err)
		assert.True(t, ok)
	}
	can, err := lookahead.CanForward()
	require.NoError(t, err)
	assert.False(t, can)
	require.NoError(t, cursor.Close())

	_, err = cursor.Forward()
	assert.True(t, errors.Is(err, vtable.ErrIllegalState), "got %v", err)
	err = cursor.Close()
	assert.True(t, errors.Is(err, vtable.ErrIllegalState), "got %v", err)

	plain, err := testTable(t, WithoutLookahead()).Cursor(vtable.SelectAll())
	require.NoError(t, err)
	_, ok = plain.(execution.LookaheadCursor)
	assert.False(t, ok)
	require.NoError(t, plain.Close())
}

func TestRandomAccessCursor(t *testing.T) {
	table := testTable(t)
	cursor, err := table.RandomAccessCursor(vtable.SelectColumns(0).WithRows(1, 3))
	require.NoError(t, err)
	assert.Equal(t, int64(2), cursor.Size())

	require.NoError(t, cursor.MoveTo(1))
	assert.Equal(t, int32(3), cursor.Access(0).IntValue())
	require.NoError(t, cursor.MoveTo(0))
	assert.Equal(t, int32(2), cursor.Access(0).IntValue())

	err = cursor.MoveTo(2)
	assert.True(t, errors.Is(err, vtable.ErrIllegalState), "got %v", err)

	require.NoError(t, cursor.Close())
	assert.Equal(t, 0, table.OpenCursors())
	assert.Equal(t, 1, table.OpenedCursors())
}

func TestInvalidSelection(t *testing.T) {
	_, err := testTable(t).Cursor(vtable.SelectColumns(1, 0))
	assert.True(t, errors.Is(err, vtable.ErrInvalidSpec), "got %v", err)
	_, err = testTable(t).RandomAccessCursor(vtable.SelectColumns(2))
	assert.True(t, errors.Is(err, vtable.ErrInvalidSpec), "got %v", err)
}

func TestSink(t *testing.T) {
	sink := NewSink(vtable.NewSchema(vtable.Int))
	buffer, err := access.NewBuffer(vtable.Int)
	require.NoError(t, err)
	for _, value := range []int32{4, 5} {
		buffer.SetInt(value)
		require.NoError(t, sink.Write([]access.ReadAccess{buffer}))
	}
	err = sink.Write(nil)
	assert.True(t, errors.Is(err, vtable.ErrSchemaMismatch), "got %v", err)
	require.NoError(t, sink.Flush())
	assert.True(t, sink.Flushed())

	table, err := sink.Table()
	require.NoError(t, err)
	assert.Equal(t, int64(2), table.Size())
	assert.Equal(t, [][]vtable.Value{{vtable.NewInt(4)}, {vtable.NewInt(5)}}, table.Rows())
}
