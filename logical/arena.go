package logical

import (
	"github.com/cube2222/vtable/vtable"
)

// Graph is a transform node DAG flattened into an arena.
// Nodes are in topological order, inputs always point at earlier nodes, and Root is the last node.
type Graph struct {
	Nodes []GraphNode
	Root  int
}

type GraphNode struct {
	Spec   Spec
	Inputs []int
	Schema vtable.Schema
}

// Flatten orders all nodes reachable from root, leaves first.
// Structurally equal subgraphs are stored once.
func Flatten(root *TransformNode) *Graph {
	f := &flattener{
		graph: &Graph{},
		seen:  make(map[*TransformNode]int),
	}
	f.graph.Root = f.visit(root)
	return f.graph
}

type flattener struct {
	graph *Graph
	seen  map[*TransformNode]int
}

func (f *flattener) visit(node *TransformNode) int {
	if index, ok := f.seen[node]; ok {
		return index
	}
	inputs := make([]int, len(node.predecessors))
	for i := range node.predecessors {
		inputs[i] = f.visit(node.predecessors[i])
	}

	index := f.find(node.spec, inputs)
	if index == -1 {
		index = len(f.graph.Nodes)
		f.graph.Nodes = append(f.graph.Nodes, GraphNode{
			Spec:   node.spec,
			Inputs: inputs,
			Schema: node.schema,
		})
	}
	f.seen[node] = index
	return index
}

// find returns the index of an already flattened node with an equal spec and inputs, or -1.
// Inputs are canonical arena indices, so comparing them is enough for subgraph equality.
func (f *flattener) find(spec Spec, inputs []int) int {
	for i := range f.graph.Nodes {
		candidate := &f.graph.Nodes[i]
		if intsEqual(candidate.Inputs, inputs) && candidate.Spec.Equal(spec) {
			return i
		}
	}
	return -1
}
