package physical

import (
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/vtable"
)

// Plan is a compiled, column-pruned physical plan.
//
// Nodes are in topological order, every node only referencing earlier nodes.
// The last node is the terminal, either a consumer or a materialize node.
// A plan is immutable and may be assembled into live nodes any number of times.
type Plan struct {
	Nodes   []Node
	Sources []Binding
	Sinks   []Binding
	// Lookahead is false if some node of the plan can never look ahead.
	Lookahead bool
	// Size is the number of rows of the terminal, -1 if it's not known up front.
	Size   int64
	Schema vtable.Schema
}

// Binding names an external table or sink, together with the schema the plan expects of it.
type Binding struct {
	ID     string
	Schema vtable.Schema
}

func (p *Plan) Terminal() *Node {
	return &p.Nodes[len(p.Nodes)-1]
}

// SupportsRandomAccess returns an error if the plan can't be assembled for random access.
func (p *Plan) SupportsRandomAccess() error {
	for i := range p.Nodes {
		switch p.Nodes[i].NodeType {
		case NodeTypeRowFilter, NodeTypeMaterialize:
			return errors.Wrapf(vtable.ErrRandomAccessUnsupported, "plan contains a %s node", p.Nodes[i].NodeType)
		}
	}
	return nil
}

// Validate checks the structural integrity of the plan.
func (p *Plan) Validate() error {
	if len(p.Nodes) == 0 {
		return errors.Wrap(vtable.ErrInvalidSpec, "plan has no nodes")
	}
	switch p.Terminal().NodeType {
	case NodeTypeConsumer, NodeTypeMaterialize:
	default:
		return errors.Wrapf(vtable.ErrInvalidSpec, "plan terminal is a %s node", p.Terminal().NodeType)
	}
	for i := range p.Nodes {
		node := &p.Nodes[i]
		for _, predecessor := range node.Predecessors {
			if predecessor < 0 || predecessor >= i {
				return errors.Wrapf(vtable.ErrInvalidSpec, "node %d has predecessor %d which isn't an earlier node", i, predecessor)
			}
		}
		if want := expectedPredecessors(node); want >= 0 && len(node.Predecessors) != want {
			return errors.Wrapf(vtable.ErrInvalidSpec, "%s node %d has %d predecessors, expected %d", node.NodeType, i, len(node.Predecessors), want)
		}
		for _, edge := range node.Edges() {
			if edge.Node < 0 || edge.Node >= i {
				return errors.Wrapf(vtable.ErrInvalidSpec, "node %d reads node %d which isn't an earlier node", i, edge.Node)
			}
			if edge.Slot < 0 || edge.Slot >= p.Nodes[edge.Node].NumOutputs() {
				return errors.Wrapf(vtable.ErrInvalidSpec, "node %d reads slot %d of node %d, which has %d outputs", i, edge.Slot, edge.Node, p.Nodes[edge.Node].NumOutputs())
			}
		}
		switch node.NodeType {
		case NodeTypeSource:
			if node.Source.Binding < 0 || node.Source.Binding >= len(p.Sources) {
				return errors.Wrapf(vtable.ErrUnresolvedSource, "source node %d is bound to source %d of %d", i, node.Source.Binding, len(p.Sources))
			}
			selection := vtable.Selection{Columns: node.Source.Columns, Rows: node.Source.Rows}
			if err := selection.Validate(p.Sources[node.Source.Binding].Schema.NumColumns()); err != nil {
				return errors.Wrapf(err, "invalid source node %d", i)
			}
		case NodeTypeMaterialize:
			if node.Materialize.Binding < 0 || node.Materialize.Binding >= len(p.Sinks) {
				return errors.Wrapf(vtable.ErrUnresolvedSource, "materialize node %d is bound to sink %d of %d", i, node.Materialize.Binding, len(p.Sinks))
			}
		case NodeTypeAppend:
			if len(node.Append.Inputs) != len(node.Predecessors) {
				return errors.Wrapf(vtable.ErrInvalidSpec, "append node %d has %d input lists for %d predecessors", i, len(node.Append.Inputs), len(node.Predecessors))
			}
		case NodeTypeConcatenate:
			if len(node.Concatenate.Inputs) != len(node.Predecessors) {
				return errors.Wrapf(vtable.ErrInvalidSpec, "concatenate node %d has %d input lists for %d predecessors", i, len(node.Concatenate.Inputs), len(node.Predecessors))
			}
			for j := range node.Concatenate.Inputs {
				if len(node.Concatenate.Inputs[j]) != len(node.Concatenate.Inputs[0]) {
					return errors.Wrapf(vtable.ErrSchemaMismatch, "concatenate node %d input %d has %d columns, expected %d", i, j, len(node.Concatenate.Inputs[j]), len(node.Concatenate.Inputs[0]))
				}
			}
		}
	}
	return nil
}

// expectedPredecessors returns -1 for nodes with a variable number of predecessors.
func expectedPredecessors(node *Node) int {
	switch node.NodeType {
	case NodeTypeSource, NodeTypeMissing:
		return 0
	case NodeTypeAppend, NodeTypeConcatenate:
		if len(node.Predecessors) == 0 {
			return 1
		}
		return -1
	default:
		return 1
	}
}

// EdgeType returns the type of the column an edge points at.
func (p *Plan) EdgeType(edge AccessEdge) vtable.Type {
	node := &p.Nodes[edge.Node]
	switch node.NodeType {
	case NodeTypeSource:
		return p.Sources[node.Source.Binding].Schema.Type(node.Source.Columns[edge.Slot])
	case NodeTypeMissing:
		return node.Missing.Schema.Type(edge.Slot)
	case NodeTypeMap:
		return node.Map.Factory.OutputSchema().Type(edge.Slot)
	case NodeTypeRowIndex:
		return vtable.Long
	case NodeTypeAppend:
		slot := edge.Slot
		for i := range node.Append.Inputs {
			if slot < len(node.Append.Inputs[i]) {
				return p.EdgeType(node.Append.Inputs[i][slot])
			}
			slot -= len(node.Append.Inputs[i])
		}
	case NodeTypeConcatenate:
		return p.EdgeType(node.Concatenate.Inputs[0][edge.Slot])
	case NodeTypeConsumer:
		return p.EdgeType(node.Consumer.Inputs[edge.Slot])
	}
	panic("edge points at a node without outputs")
}

// OutputSchema returns the schema of the columns exposed by the terminal.
// It's empty for materializing plans.
func (p *Plan) OutputSchema() vtable.Schema {
	terminal := p.Terminal()
	if terminal.NodeType != NodeTypeConsumer {
		return vtable.NewSchema()
	}
	types := make([]vtable.Type, len(terminal.Consumer.Inputs))
	for i, edge := range terminal.Consumer.Inputs {
		types[i] = p.EdgeType(edge)
	}
	return vtable.NewSchema(types...)
}
