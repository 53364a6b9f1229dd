package physical

import (
	"fmt"
	"strings"

	"github.com/kr/text"

	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/graph"
)

// Explain builds a visualization of the plan, rooted at its terminal.
// Nodes read by multiple nodes are shared in the resulting graph.
func Explain(plan *Plan) *graph.Node {
	out := make([]*graph.Node, len(plan.Nodes))
	for i := range plan.Nodes {
		node := &plan.Nodes[i]
		explained := graph.NewNode(fmt.Sprintf("%d %s", i, node.NodeType))
		for _, field := range describeFields(plan, node) {
			explained.AddField(field.name, field.value)
		}
		for j, predecessor := range node.Predecessors {
			explained.AddChild(fmt.Sprintf("driver_%d", j), out[predecessor])
		}
		for j, edge := range node.Edges() {
			if !isPredecessor(node, edge.Node) {
				explained.AddChild(fmt.Sprintf("column_%d", j), out[edge.Node])
			}
		}
		out[i] = explained
	}
	return out[len(out)-1]
}

func isPredecessor(node *Node, index int) bool {
	for _, predecessor := range node.Predecessors {
		if predecessor == index {
			return true
		}
	}
	return false
}

type field struct {
	name, value string
}

func describeFields(plan *Plan, node *Node) []field {
	switch node.NodeType {
	case NodeTypeSource:
		return []field{
			{"source", plan.Sources[node.Source.Binding].ID},
			{"columns", formatInts(node.Source.Columns)},
			{"rows", node.Source.Rows.String()},
		}
	case NodeTypeMissing:
		return []field{{"schema", node.Missing.Schema.String()}}
	case NodeTypeSlice:
		return []field{{"rows", fmt.Sprintf("%d:%d", node.Slice.From, node.Slice.To)}}
	case NodeTypeRowFilter:
		return []field{
			{"predicate", factoryName(node.RowFilter.Factory)},
			{"inputs", formatEdges(node.RowFilter.Inputs)},
		}
	case NodeTypeMap:
		return []field{
			{"mapper", factoryName(node.Map.Factory)},
			{"inputs", formatEdges(node.Map.Inputs)},
			{"outputs", node.Map.Factory.OutputSchema().String()},
		}
	case NodeTypeRowIndex:
		return []field{{"offset", fmt.Sprint(node.RowIndex.Offset)}}
	case NodeTypeAppend:
		out := make([]field, len(node.Append.Inputs))
		for i := range node.Append.Inputs {
			out[i] = field{fmt.Sprintf("inputs_%d", i), formatEdges(node.Append.Inputs[i])}
		}
		return out
	case NodeTypeConcatenate:
		out := make([]field, len(node.Concatenate.Inputs))
		for i := range node.Concatenate.Inputs {
			out[i] = field{fmt.Sprintf("inputs_%d", i), formatEdges(node.Concatenate.Inputs[i])}
		}
		return out
	case NodeTypeObserver:
		return []field{
			{"observer", factoryName(node.Observer.Factory)},
			{"inputs", formatEdges(node.Observer.Inputs)},
		}
	case NodeTypeConsumer:
		return []field{{"inputs", formatEdges(node.Consumer.Inputs)}}
	case NodeTypeMaterialize:
		return []field{
			{"sink", plan.Sinks[node.Materialize.Binding].ID},
			{"inputs", formatEdges(node.Materialize.Inputs)},
		}
	}
	panic("unexhaustive node type match")
}

// Describe renders the plan as indented text, one node per entry, in plan order.
func Describe(plan *Plan) string {
	builder := &strings.Builder{}
	fmt.Fprintf(builder, "schema: %s\n", plan.Schema)
	fmt.Fprintf(builder, "lookahead: %t\n", plan.Lookahead)
	if plan.Size >= 0 {
		fmt.Fprintf(builder, "size: %d\n", plan.Size)
	} else {
		builder.WriteString("size: unknown\n")
	}
	builder.WriteString("nodes:\n")
	for i := range plan.Nodes {
		node := &plan.Nodes[i]
		entry := &strings.Builder{}
		fmt.Fprintf(entry, "%d: %s", i, node.NodeType)
		if len(node.Predecessors) > 0 {
			fmt.Fprintf(entry, " <- %s", formatInts(node.Predecessors))
		}
		entry.WriteString("\n")
		for _, field := range describeFields(plan, node) {
			fmt.Fprintf(entry, "%s\n", text.Indent(field.name+": "+field.value, "    "))
		}
		builder.WriteString(text.Indent(entry.String(), "  "))
	}
	return builder.String()
}

func factoryName(factory interface{}) string {
	if named, ok := factory.(execution.Named); ok {
		return named.Name()
	}
	return fmt.Sprintf("%T", factory)
}

func formatInts(values []int) string {
	parts := make([]string, len(values))
	for i := range values {
		parts[i] = fmt.Sprint(values[i])
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func formatEdges(edges []AccessEdge) string {
	parts := make([]string, len(edges))
	for i, edge := range edges {
		parts[i] = fmt.Sprintf("%d.%d", edge.Node, edge.Slot)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
