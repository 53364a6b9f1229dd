package physical

import (
	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/vtable"
)

// AccessEdge points at an output slot of an earlier node in the plan.
type AccessEdge struct {
	Node, Slot int
}

// Node is a physical node descriptor.
//
// Predecessors are the nodes driving this node's rows. Column inputs are separate access edges,
// which may point further down the plan, as long as the pointed-to node is driven by a predecessor.
type Node struct {
	NodeType     NodeType
	Predecessors []int

	// Only one of the below may be non-null.
	Source      *Source
	Missing     *Missing
	Slice       *Slice
	RowFilter   *RowFilter
	Map         *Map
	RowIndex    *RowIndex
	Append      *Append
	Concatenate *Concatenate
	Observer    *Observer
	Consumer    *Consumer
	Materialize *Materialize
}

type NodeType int

const (
	NodeTypeSource NodeType = iota
	NodeTypeMissing
	NodeTypeSlice
	NodeTypeRowFilter
	NodeTypeMap
	NodeTypeRowIndex
	NodeTypeAppend
	NodeTypeConcatenate
	NodeTypeObserver
	NodeTypeConsumer
	NodeTypeMaterialize
)

func (t NodeType) String() string {
	switch t {
	case NodeTypeSource:
		return "source"
	case NodeTypeMissing:
		return "missing"
	case NodeTypeSlice:
		return "slice"
	case NodeTypeRowFilter:
		return "row_filter"
	case NodeTypeMap:
		return "map"
	case NodeTypeRowIndex:
		return "row_index"
	case NodeTypeAppend:
		return "append"
	case NodeTypeConcatenate:
		return "concatenate"
	case NodeTypeObserver:
		return "observer"
	case NodeTypeConsumer:
		return "consumer"
	case NodeTypeMaterialize:
		return "materialize"
	}
	return "unknown"
}

type Source struct {
	// Binding is the index of the table in Plan.Sources.
	Binding int
	Columns []int
	Rows    vtable.RowRange
}

type Missing struct {
	Schema vtable.Schema
}

type Slice struct {
	From, To int64
}

type RowFilter struct {
	Inputs  []AccessEdge
	Factory execution.PredicateFactory
}

type Map struct {
	Inputs  []AccessEdge
	Factory execution.MapperFactory
}

type RowIndex struct {
	Offset int64
}

// Append and Concatenate have one input list per predecessor.
type Append struct {
	Inputs [][]AccessEdge
}

type Concatenate struct {
	Inputs [][]AccessEdge
}

type Observer struct {
	Inputs  []AccessEdge
	Factory execution.ObserverFactory
}

type Consumer struct {
	Inputs []AccessEdge
}

type Materialize struct {
	Inputs []AccessEdge
	// Binding is the index of the sink in Plan.Sinks.
	Binding int
}

// NumOutputs returns the number of output slots of the node.
func (node *Node) NumOutputs() int {
	switch node.NodeType {
	case NodeTypeSource:
		return len(node.Source.Columns)
	case NodeTypeMissing:
		return node.Missing.Schema.NumColumns()
	case NodeTypeMap:
		return node.Map.Factory.OutputSchema().NumColumns()
	case NodeTypeRowIndex:
		return 1
	case NodeTypeAppend:
		count := 0
		for i := range node.Append.Inputs {
			count += len(node.Append.Inputs[i])
		}
		return count
	case NodeTypeConcatenate:
		return len(node.Concatenate.Inputs[0])
	case NodeTypeConsumer:
		return len(node.Consumer.Inputs)
	case NodeTypeSlice, NodeTypeRowFilter, NodeTypeObserver, NodeTypeMaterialize:
		return 0
	}
	panic("unexhaustive node type match")
}

// Edges returns all column inputs of the node, flattened.
func (node *Node) Edges() []AccessEdge {
	switch node.NodeType {
	case NodeTypeRowFilter:
		return node.RowFilter.Inputs
	case NodeTypeMap:
		return node.Map.Inputs
	case NodeTypeAppend:
		var out []AccessEdge
		for i := range node.Append.Inputs {
			out = append(out, node.Append.Inputs[i]...)
		}
		return out
	case NodeTypeConcatenate:
		var out []AccessEdge
		for i := range node.Concatenate.Inputs {
			out = append(out, node.Concatenate.Inputs[i]...)
		}
		return out
	case NodeTypeObserver:
		return node.Observer.Inputs
	case NodeTypeConsumer:
		return node.Consumer.Inputs
	case NodeTypeMaterialize:
		return node.Materialize.Inputs
	case NodeTypeSource, NodeTypeMissing, NodeTypeSlice, NodeTypeRowIndex:
		return nil
	}
	panic("unexhaustive node type match")
}
