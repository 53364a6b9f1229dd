package json

import (
	"bufio"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"

	"github.com/cube2222/vtable/vtable"
)

// sampleLines is the number of lines looked at when inferring fields.
const sampleLines = 100

// InferFields opens the file at path, see Infer.
func InferFields(path string) ([]Field, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't open file")
	}
	defer f.Close()

	return Infer(f)
}

// Infer samples up to sampleLines objects and returns their keys, sorted by name, with types all
// sampled values can be read as. Numbers are doubles. Objects, and keys whose values disagree, are
// read as strings holding the JSON text.
func Infer(r io.Reader) ([]Field, error) {
	fields := make(map[string]*vtable.Type)

	sc := bufio.NewScanner(bufio.NewReaderSize(r, 4096*1024))
	sc.Buffer(nil, 1024*1024)

	var p fastjson.Parser
	i := 0
	for i < sampleLines && sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		i++
		v, err := p.ParseBytes(sc.Bytes())
		if err != nil {
			return nil, errors.Wrapf(vtable.ErrSchemaMismatch, "couldn't parse json: %s", err)
		}
		o, err := v.Object()
		if err != nil {
			return nil, errors.Wrapf(vtable.ErrSchemaMismatch, "expected JSON object, got '%s'", sc.Text())
		}

		o.Visit(func(key []byte, v *fastjson.Value) {
			if t, ok := fields[string(key)]; ok {
				fields[string(key)] = typeSum(t, getType(v))
			} else {
				fields[string(key)] = getType(v)
			}
		})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "couldn't scan lines")
	}

	out := make([]Field, 0, len(fields))
	for k, t := range fields {
		out = append(out, Field{
			Name: k,
			Type: resolve(t),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// getType returns nil for values which don't constrain the type.
func getType(value *fastjson.Value) *vtable.Type {
	var t vtable.Type
	switch value.Type() {
	case fastjson.TypeNull:
		return nil
	case fastjson.TypeString:
		t = vtable.String
	case fastjson.TypeNumber:
		t = vtable.Double
	case fastjson.TypeTrue, fastjson.TypeFalse:
		t = vtable.Boolean
	case fastjson.TypeArray:
		arr, _ := value.Array()
		var elementType *vtable.Type
		for i := range arr {
			elementType = typeSum(elementType, getType(arr[i]))
		}
		t = vtable.Type{TypeID: vtable.TypeIDList}
		t.List.Element = elementType
	default:
		t = vtable.String
	}
	return &t
}

func typeSum(left, right *vtable.Type) *vtable.Type {
	switch {
	case left == nil:
		return right
	case right == nil:
		return left
	case left.TypeID == vtable.TypeIDList && right.TypeID == vtable.TypeIDList:
		out := vtable.Type{TypeID: vtable.TypeIDList}
		out.List.Element = typeSum(left.List.Element, right.List.Element)
		return &out
	case left.Equal(*right):
		return left
	}
	return &vtable.String
}

// resolve reads types nothing was sampled for as strings.
func resolve(t *vtable.Type) vtable.Type {
	if t == nil {
		return vtable.String
	}
	if t.TypeID == vtable.TypeIDList {
		return vtable.ListOf(resolve(t.List.Element))
	}
	return *t
}
