package vtable

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		text string
		want Type
	}{
		{text: "int", want: Int},
		{text: "varbinary", want: VarBinary},
		{text: "local_date", want: LocalDate},
		{text: "[string]", want: ListOf(String)},
		{text: "[[long]]", want: ListOf(ListOf(Long))},
		{text: "{int; [double]; {boolean}}", want: StructOf(Int, ListOf(Double), StructOf(Boolean))},
		{text: "{}", want: StructOf()},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseType(tt.text)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "%s != %s", got, tt.want)
			assert.Equal(t, tt.text, got.String())
		})
	}
}

func TestParseTypeErrors(t *testing.T) {
	for _, text := range []string{"decimal", "[int", "{int; [long}", "list", ""} {
		t.Run(text, func(t *testing.T) {
			_, err := ParseType(text)
			assert.True(t, errors.Is(err, ErrInvalidSpec), "got %v", err)
		})
	}
}

func TestTypeSupported(t *testing.T) {
	assert.True(t, StructOf(Int, ListOf(String)).Supported())
	assert.False(t, LocalTime.Supported())
	assert.False(t, ListOf(Duration).Supported())
	assert.False(t, StructOf(Int, LocalDate).Supported())
}

func TestSchema(t *testing.T) {
	schema, err := NewSchemaWithTraits([]Type{Int, String}, []Trait{{}, {TraitType: TraitDictEncoded}})
	require.NoError(t, err)
	assert.Equal(t, "(int, string(dict_encoded))", schema.String())

	selected, err := schema.Select([]int{1, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, "(string(dict_encoded), string(dict_encoded), int)", selected.String())

	_, err = schema.Select([]int{2})
	assert.True(t, errors.Is(err, ErrInvalidSpec), "got %v", err)

	assert.True(t, schema.Append(NewSchema(Double)).Equal(
		mustSchema(NewSchemaWithTraits([]Type{Int, String, Double}, []Trait{{}, {TraitType: TraitDictEncoded}, {}})),
	))
	assert.False(t, schema.Equal(NewSchema(Int, String)))
}

func mustSchema(schema Schema, err error) Schema {
	if err != nil {
		panic(err)
	}
	return schema
}

func TestRowRangeCompose(t *testing.T) {
	tests := []struct {
		name         string
		outer, inner RowRange
		want         RowRange
	}{
		{name: "both unbounded", outer: AllRows(), inner: AllRows(), want: AllRows()},
		{name: "unbounded outer", outer: AllRows(), inner: Rows(1, 3), want: Rows(1, 3)},
		{name: "unbounded inner", outer: Rows(1, 3), inner: AllRows(), want: Rows(1, 3)},
		{name: "nested", outer: Rows(2, 10), inner: Rows(1, 3), want: Rows(3, 5)},
		{name: "inner past outer end", outer: Rows(2, 5), inner: Rows(1, 8), want: Rows(3, 5)},
		{name: "inner entirely past outer end", outer: Rows(2, 5), inner: Rows(6, 8), want: Rows(5, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.outer.Compose(tt.inner))
		})
	}
}

func TestRowRangeClamp(t *testing.T) {
	tests := []struct {
		name  string
		rows  RowRange
		size  int64
		want  int64
	}{
		{name: "unbounded", rows: AllRows(), size: 7, want: 7},
		{name: "unknown size", rows: Rows(1, 3), size: -1, want: -1},
		{name: "inside", rows: Rows(1, 3), size: 7, want: 2},
		{name: "past the end", rows: Rows(5, 10), size: 7, want: 2},
		{name: "entirely past the end", rows: Rows(8, 10), size: 7, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rows.Clamp(tt.size))
		})
	}
}

func TestSelection(t *testing.T) {
	tests := []struct {
		name      string
		selection Selection
		wantErr   bool
	}{
		{name: "all", selection: SelectAll()},
		{name: "ascending", selection: SelectColumns(0, 2)},
		{name: "none", selection: SelectColumns()},
		{name: "duplicate", selection: SelectColumns(1, 1), wantErr: true},
		{name: "descending", selection: SelectColumns(2, 0), wantErr: true},
		{name: "out of range", selection: SelectColumns(3), wantErr: true},
		{name: "negative rows", selection: SelectAll().WithRows(-1, 2), wantErr: true},
		{name: "reversed rows", selection: SelectAll().WithRows(3, 2), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.selection.Validate(3)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidSpec), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}

	assert.Equal(t, []int{0, 1, 2}, SelectAll().Resolve(3))
	assert.Equal(t, []int{}, SelectColumns().Resolve(3))
	assert.Equal(t, "c=*;r=*", SelectAll().Key())
	assert.Equal(t, "c=[0,2];r=1:4", SelectColumns(0, 2).WithRows(1, 4).Key())
	assert.NotEqual(t, SelectAll().Key(), SelectColumns().Key())
}

func TestValueEqual(t *testing.T) {
	person := StructOf(String, ListOf(Int))
	tests := []struct {
		name        string
		left, right Value
		want        bool
	}{
		{name: "ints", left: NewInt(1), right: NewInt(1), want: true},
		{name: "different ints", left: NewInt(1), right: NewInt(2), want: false},
		{name: "int and long", left: NewInt(1), right: NewLong(1), want: false},
		{name: "missing", left: NewMissing(Int), right: NewMissing(Int), want: true},
		{name: "missing of different types", left: NewMissing(Int), right: NewMissing(Long), want: false},
		{name: "missing and present", left: NewMissing(Int), right: NewInt(0), want: false},
		{name: "binary", left: NewVarBinary([]byte("ab")), right: NewVarBinary([]byte("ab")), want: true},
		{
			name:  "structs",
			left:  NewStruct(person, []Value{NewString("a"), NewList(Int, []Value{NewInt(1)})}),
			right: NewStruct(person, []Value{NewString("a"), NewList(Int, []Value{NewInt(1)})}),
			want:  true,
		},
		{
			name:  "structs with different lists",
			left:  NewStruct(person, []Value{NewString("a"), NewList(Int, []Value{NewInt(1)})}),
			right: NewStruct(person, []Value{NewString("a"), NewList(Int, []Value{NewInt(2)})}),
			want:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.left.Equal(tt.right))
		})
	}
}
