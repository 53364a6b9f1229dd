package csv

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/vtable/vtable"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		schema  vtable.Schema
		opts    []Option
		want    [][]vtable.Value
		wantErr error
	}{
		{
			name:   "with header",
			input:  "id,name,score\n1,alice,1.5\n2,,\n",
			schema: vtable.NewSchema(vtable.Int, vtable.String, vtable.Double),
			want: [][]vtable.Value{
				{vtable.NewInt(1), vtable.NewString("alice"), vtable.NewDouble(1.5)},
				{vtable.NewInt(2), vtable.NewString(""), vtable.NewMissing(vtable.Double)},
			},
		},
		{
			name:   "without header, custom separator",
			input:  "true;7\nfalse; 8\n",
			schema: vtable.NewSchema(vtable.Boolean, vtable.Long),
			opts:   []Option{WithoutHeaderRow(), WithSeparator(';')},
			want: [][]vtable.Value{
				{vtable.NewBoolean(true), vtable.NewLong(7)},
				{vtable.NewBoolean(false), vtable.NewLong(8)},
			},
		},
		{
			name:   "only header",
			input:  "a\n",
			schema: vtable.NewSchema(vtable.Int),
			want:   nil,
		},
		{
			name:    "wrong field count",
			input:   "a,b\n1\n",
			schema:  vtable.NewSchema(vtable.Int, vtable.Int),
			wantErr: vtable.ErrSchemaMismatch,
		},
		{
			name:    "unparsable field",
			input:   "a\nxyz\n",
			schema:  vtable.NewSchema(vtable.Int),
			wantErr: vtable.ErrSchemaMismatch,
		},
		{
			name:    "int overflow",
			input:   "a\n3000000000\n",
			schema:  vtable.NewSchema(vtable.Int),
			wantErr: vtable.ErrSchemaMismatch,
		},
		{
			name:    "nested column",
			input:   "a\n1\n",
			schema:  vtable.NewSchema(vtable.ListOf(vtable.Int)),
			wantErr: vtable.ErrNotImplemented,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Load(strings.NewReader(tt.input), tt.schema, tt.opts...)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, table.Rows())
			assert.Equal(t, int64(len(tt.want)), table.Size())
		})
	}
}

func TestInfer(t *testing.T) {
	input := `id,price,active,label,empty
1,2,true,x,
2,2.5,false,3,
3,,true,y,
`
	names, schema, err := Infer(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "price", "active", "label", "empty"}, names)
	want := vtable.NewSchema(vtable.Long, vtable.Double, vtable.Boolean, vtable.String, vtable.String)
	assert.True(t, schema.Equal(want), "%s != %s", schema, want)

	table, err := Load(strings.NewReader(input), schema)
	require.NoError(t, err)
	assert.Equal(t, int64(3), table.Size())
}

func TestInferWithoutHeader(t *testing.T) {
	names, schema, err := Infer(strings.NewReader("1,a\n2,b\n"), WithoutHeaderRow())
	require.NoError(t, err)
	assert.Equal(t, []string{"column_0", "column_1"}, names)
	assert.Equal(t, "(long, string)", schema.String())
}

func TestParseSeparator(t *testing.T) {
	r, err := ParseSeparator("\t")
	require.NoError(t, err)
	assert.Equal(t, '\t', r)

	_, err = ParseSeparator(";;")
	assert.True(t, errors.Is(err, vtable.ErrInvalidSpec), "got %v", err)
	_, err = ParseSeparator("")
	assert.True(t, errors.Is(err, vtable.ErrInvalidSpec), "got %v", err)
}
