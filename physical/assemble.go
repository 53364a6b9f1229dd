package physical

import (
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/access"
	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/execution/nodes"
	"github.com/cube2222/vtable/execution/randomaccess"
	"github.com/cube2222/vtable/vtable"
)

// CheckBindings verifies that the supplied tables and sinks match the plan's bindings, in order.
func (p *Plan) CheckBindings(tables []execution.Table, sinks []execution.Sink) error {
	if len(tables) != len(p.Sources) {
		return errors.Wrapf(vtable.ErrUnresolvedSource, "plan has %d sources, got %d tables", len(p.Sources), len(tables))
	}
	for i := range p.Sources {
		if tables[i] == nil {
			return errors.Wrapf(vtable.ErrUnresolvedSource, "no table bound for source %s", p.Sources[i].ID)
		}
		if schema := tables[i].Schema(); !schema.Equal(p.Sources[i].Schema) {
			return errors.Wrapf(vtable.ErrSchemaMismatch, "table bound for source %s has schema %s, expected %s", p.Sources[i].ID, schema, p.Sources[i].Schema)
		}
	}
	if len(sinks) != len(p.Sinks) {
		return errors.Wrapf(vtable.ErrUnresolvedSource, "plan has %d sinks, got %d", len(p.Sinks), len(sinks))
	}
	for i := range p.Sinks {
		if sinks[i] == nil {
			return errors.Wrapf(vtable.ErrUnresolvedSource, "no sink bound for %s", p.Sinks[i].ID)
		}
		if schema := sinks[i].Schema(); !schema.Equal(p.Sinks[i].Schema) {
			return errors.Wrapf(vtable.ErrSchemaMismatch, "sink bound for %s has schema %s, expected %s", p.Sinks[i].ID, schema, p.Sinks[i].Schema)
		}
	}
	return nil
}

// AssembleSequential builds an uncreated sequential node tree, returning its terminal.
func (p *Plan) AssembleSequential(tables []execution.Table, sinks []execution.Sink) (execution.SequentialNode, error) {
	if err := p.CheckBindings(tables, sinks); err != nil {
		return nil, err
	}

	live := make([]execution.SequentialNode, len(p.Nodes))
	outputs := make([][]access.ReadAccess, len(p.Nodes))
	resolve := func(edges []AccessEdge) []access.ReadAccess {
		return resolveEdges(outputs, edges)
	}
	resolveAll := func(edges [][]AccessEdge) [][]access.ReadAccess {
		out := make([][]access.ReadAccess, len(edges))
		for i := range edges {
			out[i] = resolve(edges[i])
		}
		return out
	}
	predecessors := func(node *Node) []execution.SequentialNode {
		out := make([]execution.SequentialNode, len(node.Predecessors))
		for i, predecessor := range node.Predecessors {
			out[i] = live[predecessor]
		}
		return out
	}

	for i := range p.Nodes {
		node := &p.Nodes[i]
		var out execution.SequentialNode
		switch node.NodeType {
		case NodeTypeSource:
			out = nodes.NewSource(
				tables[node.Source.Binding],
				vtable.Selection{Columns: node.Source.Columns, Rows: node.Source.Rows},
				p.sourceColumnTypes(node.Source),
			)
		case NodeTypeMissing:
			out = nodes.NewMissing(node.Missing.Schema)
		case NodeTypeSlice:
			out = nodes.NewSlice(live[node.Predecessors[0]], node.Slice.From, node.Slice.To)
		case NodeTypeRowFilter:
			out = nodes.NewRowFilter(live[node.Predecessors[0]], resolve(node.RowFilter.Inputs), node.RowFilter.Factory)
		case NodeTypeMap:
			mapNode, err := nodes.NewMap(live[node.Predecessors[0]], resolve(node.Map.Inputs), node.Map.Factory)
			if err != nil {
				return nil, errors.Wrapf(err, "couldn't assemble map node %d", i)
			}
			out = mapNode
		case NodeTypeRowIndex:
			out = nodes.NewRowIndex(live[node.Predecessors[0]], node.RowIndex.Offset)
		case NodeTypeAppend:
			out = nodes.NewAppend(predecessors(node), resolveAll(node.Append.Inputs))
		case NodeTypeConcatenate:
			out = nodes.NewConcatenate(predecessors(node), resolveAll(node.Concatenate.Inputs))
		case NodeTypeObserver:
			out = nodes.NewObserver(live[node.Predecessors[0]], resolve(node.Observer.Inputs), node.Observer.Factory)
		case NodeTypeConsumer:
			out = nodes.NewConsumer(live[node.Predecessors[0]], resolve(node.Consumer.Inputs))
		case NodeTypeMaterialize:
			out = nodes.NewMaterialize(live[node.Predecessors[0]], resolve(node.Materialize.Inputs), sinks[node.Materialize.Binding])
		default:
			panic("unexhaustive node type match")
		}
		live[i] = out
		outputs[i] = out.Outputs()
	}

	return live[len(live)-1], nil
}

// AssembleRandomAccess builds an uncreated random access node tree, returning its terminal.
// Every table has to implement execution.RandomAccessTable.
func (p *Plan) AssembleRandomAccess(tables []execution.Table) (execution.RandomAccessNode, error) {
	if err := p.SupportsRandomAccess(); err != nil {
		return nil, err
	}
	if err := p.CheckBindings(tables, nil); err != nil {
		return nil, err
	}
	randomAccessTables := make([]execution.RandomAccessTable, len(tables))
	for i := range tables {
		table, ok := tables[i].(execution.RandomAccessTable)
		if !ok {
			return nil, errors.Wrapf(vtable.ErrRandomAccessUnsupported, "table bound for source %s doesn't support random access", p.Sources[i].ID)
		}
		randomAccessTables[i] = table
	}

	live := make([]execution.RandomAccessNode, len(p.Nodes))
	outputs := make([][]access.ReadAccess, len(p.Nodes))
	resolve := func(edges []AccessEdge) []access.ReadAccess {
		return resolveEdges(outputs, edges)
	}
	resolveAll := func(edges [][]AccessEdge) [][]access.ReadAccess {
		out := make([][]access.ReadAccess, len(edges))
		for i := range edges {
			out[i] = resolve(edges[i])
		}
		return out
	}
	predecessors := func(node *Node) []execution.RandomAccessNode {
		out := make([]execution.RandomAccessNode, len(node.Predecessors))
		for i, predecessor := range node.Predecessors {
			out[i] = live[predecessor]
		}
		return out
	}

	for i := range p.Nodes {
		node := &p.Nodes[i]
		var out execution.RandomAccessNode
		switch node.NodeType {
		case NodeTypeSource:
			out = randomaccess.NewSource(
				randomAccessTables[node.Source.Binding],
				vtable.Selection{Columns: node.Source.Columns, Rows: node.Source.Rows},
				p.sourceColumnTypes(node.Source),
			)
		case NodeTypeMissing:
			out = randomaccess.NewMissing(node.Missing.Schema)
		case NodeTypeSlice:
			out = randomaccess.NewSlice(live[node.Predecessors[0]], node.Slice.From, node.Slice.To)
		case NodeTypeMap:
			mapNode, err := randomaccess.NewMap(live[node.Predecessors[0]], resolve(node.Map.Inputs), node.Map.Factory)
			if err != nil {
				return nil, errors.Wrapf(err, "couldn't assemble map node %d", i)
			}
			out = mapNode
		case NodeTypeRowIndex:
			out = randomaccess.NewRowIndex(live[node.Predecessors[0]], node.RowIndex.Offset)
		case NodeTypeAppend:
			out = randomaccess.NewAppend(predecessors(node), resolveAll(node.Append.Inputs))
		case NodeTypeConcatenate:
			out = randomaccess.NewConcatenate(predecessors(node), resolveAll(node.Concatenate.Inputs))
		case NodeTypeObserver:
			out = randomaccess.NewObserver(live[node.Predecessors[0]], resolve(node.Observer.Inputs), node.Observer.Factory)
		case NodeTypeConsumer:
			out = randomaccess.NewConsumer(live[node.Predecessors[0]], resolve(node.Consumer.Inputs))
		case NodeTypeRowFilter, NodeTypeMaterialize:
			return nil, errors.Wrapf(vtable.ErrRandomAccessUnsupported, "%s node can't be accessed randomly", node.NodeType)
		default:
			panic("unexhaustive node type match")
		}
		live[i] = out
		outputs[i] = out.Outputs()
	}

	return live[len(live)-1], nil
}

func (p *Plan) sourceColumnTypes(source *Source) []vtable.Type {
	schema := p.Sources[source.Binding].Schema
	columns := vtable.Selection{Columns: source.Columns}.Resolve(schema.NumColumns())
	out := make([]vtable.Type, len(columns))
	for i, column := range columns {
		out[i] = schema.Type(column)
	}
	return out
}

func resolveEdges(outputs [][]access.ReadAccess, edges []AccessEdge) []access.ReadAccess {
	out := make([]access.ReadAccess, len(edges))
	for i, edge := range edges {
		out[i] = outputs[edge.Node][edge.Slot]
	}
	return out
}
