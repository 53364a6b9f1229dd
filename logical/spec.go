package logical

import (
	"crypto/rand"
	"reflect"

	"github.com/oklog/ulid/v2"

	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/vtable"
)

// Spec describes a single logical operator.
// Specs are immutable values and compare structurally.
type Spec struct {
	SpecType SpecType

	// Only one of the below may be non-null.
	Source        *Source
	SelectColumns *SelectColumns
	Append        *Append
	Concatenate   *Concatenate
	Slice         *Slice
	Map           *Map
	RowFilter     *RowFilter
	RowIndex      *RowIndex
	AppendMissing *AppendMissing
	Observer      *Observer
	Materialize   *Materialize
}

type SpecType int

const (
	SpecTypeSource SpecType = iota
	SpecTypeSelectColumns
	SpecTypeAppend
	SpecTypeConcatenate
	SpecTypeSlice
	SpecTypeMap
	SpecTypeRowFilter
	SpecTypeRowIndex
	SpecTypeAppendMissing
	SpecTypeObserver
	SpecTypeMaterialize
)

func (t SpecType) String() string {
	switch t {
	case SpecTypeSource:
		return "source"
	case SpecTypeSelectColumns:
		return "select_columns"
	case SpecTypeAppend:
		return "append"
	case SpecTypeConcatenate:
		return "concatenate"
	case SpecTypeSlice:
		return "slice"
	case SpecTypeMap:
		return "map"
	case SpecTypeRowFilter:
		return "row_filter"
	case SpecTypeRowIndex:
		return "row_index"
	case SpecTypeAppendMissing:
		return "append_missing"
	case SpecTypeObserver:
		return "observer"
	case SpecTypeMaterialize:
		return "materialize"
	}
	return "unknown"
}

// Source reads an external table, bound by ID when a plan is assembled.
type Source struct {
	ID     string
	Schema vtable.Schema
}

type SelectColumns struct {
	Columns []int
}

type Append struct{}

type Concatenate struct{}

type Slice struct {
	From, To int64
}

// Map derives new columns from Columns of its input. Its output consists of the new columns only.
type Map struct {
	Columns []int
	Factory execution.MapperFactory
}

type RowFilter struct {
	Columns []int
	Factory execution.PredicateFactory
}

type RowIndex struct {
	Offset int64
}

type AppendMissing struct {
	Schema vtable.Schema
}

type Observer struct {
	Columns []int
	Factory execution.ObserverFactory
}

// Materialize writes its input into the sink bound to SinkID.
type Materialize struct {
	SinkID string
}

// NewSourceID returns a fresh, unique source identifier.
func NewSourceID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

func NewSourceSpec(id string, schema vtable.Schema) Spec {
	return Spec{SpecType: SpecTypeSource, Source: &Source{ID: id, Schema: schema}}
}

func NewSelectColumnsSpec(columns ...int) Spec {
	return Spec{SpecType: SpecTypeSelectColumns, SelectColumns: &SelectColumns{Columns: append([]int{}, columns...)}}
}

func NewAppendSpec() Spec {
	return Spec{SpecType: SpecTypeAppend, Append: &Append{}}
}

func NewConcatenateSpec() Spec {
	return Spec{SpecType: SpecTypeConcatenate, Concatenate: &Concatenate{}}
}

func NewSliceSpec(from, to int64) Spec {
	return Spec{SpecType: SpecTypeSlice, Slice: &Slice{From: from, To: to}}
}

func NewMapSpec(columns []int, factory execution.MapperFactory) Spec {
	return Spec{SpecType: SpecTypeMap, Map: &Map{Columns: append([]int{}, columns...), Factory: factory}}
}

func NewRowFilterSpec(columns []int, factory execution.PredicateFactory) Spec {
	return Spec{SpecType: SpecTypeRowFilter, RowFilter: &RowFilter{Columns: append([]int{}, columns...), Factory: factory}}
}

func NewRowIndexSpec(offset int64) Spec {
	return Spec{SpecType: SpecTypeRowIndex, RowIndex: &RowIndex{Offset: offset}}
}

func NewAppendMissingSpec(schema vtable.Schema) Spec {
	return Spec{SpecType: SpecTypeAppendMissing, AppendMissing: &AppendMissing{Schema: schema}}
}

func NewObserverSpec(columns []int, factory execution.ObserverFactory) Spec {
	return Spec{SpecType: SpecTypeObserver, Observer: &Observer{Columns: append([]int{}, columns...), Factory: factory}}
}

func NewMaterializeSpec(sinkID string) Spec {
	return Spec{SpecType: SpecTypeMaterialize, Materialize: &Materialize{SinkID: sinkID}}
}

// Equal compares specs structurally. Factories are equal if they're comparable and ==.
func (spec Spec) Equal(other Spec) bool {
	if spec.SpecType != other.SpecType {
		return false
	}
	switch spec.SpecType {
	case SpecTypeSource:
		return spec.Source.ID == other.Source.ID && spec.Source.Schema.Equal(other.Source.Schema)
	case SpecTypeSelectColumns:
		return intsEqual(spec.SelectColumns.Columns, other.SelectColumns.Columns)
	case SpecTypeAppend, SpecTypeConcatenate:
		return true
	case SpecTypeSlice:
		return *spec.Slice == *other.Slice
	case SpecTypeMap:
		return intsEqual(spec.Map.Columns, other.Map.Columns) && factoriesEqual(spec.Map.Factory, other.Map.Factory)
	case SpecTypeRowFilter:
		return intsEqual(spec.RowFilter.Columns, other.RowFilter.Columns) && factoriesEqual(spec.RowFilter.Factory, other.RowFilter.Factory)
	case SpecTypeRowIndex:
		return *spec.RowIndex == *other.RowIndex
	case SpecTypeAppendMissing:
		return spec.AppendMissing.Schema.Equal(other.AppendMissing.Schema)
	case SpecTypeObserver:
		return intsEqual(spec.Observer.Columns, other.Observer.Columns) && factoriesEqual(spec.Observer.Factory, other.Observer.Factory)
	case SpecTypeMaterialize:
		return *spec.Materialize == *other.Materialize
	}
	panic("unexhaustive spec type match")
}

func intsEqual(left, right []int) bool {
	if len(left) != len(right) {
		return false
	}
	for i := range left {
		if left[i] != right[i] {
			return false
		}
	}
	return true
}

func factoriesEqual(left, right interface{}) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	leftType := reflect.TypeOf(left)
	if leftType != reflect.TypeOf(right) || !leftType.Comparable() {
		return false
	}
	return left == right
}
