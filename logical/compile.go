package logical

import (
	"github.com/pkg/errors"

	"github.com/cube2222/vtable/physical"
	"github.com/cube2222/vtable/vtable"
)

type compileOptions struct {
	sourceSize func(id string) int64
}

type CompileOption func(options *compileOptions)

// WithSourceSizes lets the compiler derive the plan's row count.
// The function should return -1 for sources of unknown size.
func WithSourceSizes(sourceSize func(id string) int64) CompileOption {
	return func(options *compileOptions) {
		options.sourceSize = sourceSize
	}
}

// Compile lowers the logical graph rooted at root into a physical plan serving the given selection.
//
// Only columns consumed downstream are read from sources. Operators which keep rows as they are
// (column selection, maps, row indices, missing columns, observers) share the row stream of their input.
// Operators changing rows (slices, filters, concatenations and appends of different row streams)
// get a private copy of their inputs' row streams.
func Compile(root *TransformNode, selection vtable.Selection, opts ...CompileOption) (*physical.Plan, error) {
	options := compileOptions{
		sourceSize: func(string) int64 { return -1 },
	}
	for _, opt := range opts {
		opt(&options)
	}

	if root.spec.SpecType == SpecTypeMaterialize {
		if !selection.AllColumns() || selection.Rows.Bounded {
			return nil, errors.Wrap(vtable.ErrInvalidSpec, "materialization can't be restricted by a selection")
		}
	} else {
		if err := selection.Validate(root.schema.NumColumns()); err != nil {
			return nil, errors.Wrap(err, "invalid selection")
		}
		var err error
		if !selection.AllColumns() {
			if root, err = NewTransformNode(NewSelectColumnsSpec(selection.Columns...), root); err != nil {
				return nil, errors.Wrap(err, "couldn't apply column selection")
			}
		}
		if selection.Rows.Bounded {
			if root, err = NewTransformNode(NewSliceSpec(selection.Rows.From, selection.Rows.To), root); err != nil {
				return nil, errors.Wrap(err, "couldn't apply row selection")
			}
		}
	}

	graph := Flatten(root)
	c := &compiler{
		graph:    graph,
		options:  options,
		required: requiredColumns(graph),
		plan: &physical.Plan{
			Lookahead: true,
			Schema:    root.schema,
		},
		sources: make(map[string]int),
		sinks:   make(map[string]int),
	}

	out, err := c.compile(graph.Root, make(scope))
	if err != nil {
		return nil, err
	}
	if root.spec.SpecType != SpecTypeMaterialize {
		c.emit(physical.Node{
			NodeType:     physical.NodeTypeConsumer,
			Predecessors: []int{out.domain.head},
			Consumer: &physical.Consumer{
				Inputs: out.edges,
			},
		})
	}
	c.plan.Size = out.domain.size

	if err := c.plan.Validate(); err != nil {
		return nil, errors.Wrap(err, "compiled plan is invalid")
	}
	return c.plan, nil
}

// domain is a row stream. head is the topmost node driving it.
// Row preserving operators chain on top of the head, so driving the head evaluates all of them.
type domain struct {
	head int
	size int64
}

// columns are the compiled outputs of a logical node.
type columns struct {
	domain *domain
	edges  []physical.AccessEdge
}

// scope memoizes compiled logical nodes which share row streams.
type scope map[int]*columns

var pruned = physical.AccessEdge{Node: -1, Slot: -1}

type compiler struct {
	graph    *Graph
	options  compileOptions
	required [][]bool
	plan     *physical.Plan
	sources  map[string]int
	sinks    map[string]int
}

func (c *compiler) emit(node physical.Node) int {
	c.plan.Nodes = append(c.plan.Nodes, node)
	return len(c.plan.Nodes) - 1
}

func (c *compiler) compile(index int, s scope) (*columns, error) {
	if out, ok := s[index]; ok {
		return out, nil
	}
	out, err := c.compileNode(index, s)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't compile %s node", c.graph.Nodes[index].Spec.SpecType)
	}
	s[index] = out
	return out, nil
}

func (c *compiler) compileNode(index int, s scope) (*columns, error) {
	node := &c.graph.Nodes[index]
	required := c.required[index]

	switch node.Spec.SpecType {
	case SpecTypeSource:
		binding, err := c.bindSource(node.Spec.Source)
		if err != nil {
			return nil, err
		}
		selected := selectedColumns(required)
		id := c.emit(physical.Node{
			NodeType: physical.NodeTypeSource,
			Source: &physical.Source{
				Binding: binding,
				Columns: selected,
				Rows:    vtable.AllRows(),
			},
		})
		edges := prunedEdges(len(required))
		for slot, column := range selected {
			edges[column] = physical.AccessEdge{Node: id, Slot: slot}
		}
		return &columns{
			domain: &domain{head: id, size: c.options.sourceSize(node.Spec.Source.ID)},
			edges:  edges,
		}, nil

	case SpecTypeSelectColumns:
		input, err := c.compile(node.Inputs[0], s)
		if err != nil {
			return nil, err
		}
		return &columns{
			domain: input.domain,
			edges:  pick(input.edges, node.Spec.SelectColumns.Columns),
		}, nil

	case SpecTypeMap:
		input, err := c.compile(node.Inputs[0], s)
		if err != nil {
			return nil, err
		}
		if !anyRequired(required) {
			return &columns{domain: input.domain, edges: prunedEdges(len(required))}, nil
		}
		id := c.chain(input.domain, physical.Node{
			NodeType: physical.NodeTypeMap,
			Map: &physical.Map{
				Inputs:  pick(input.edges, node.Spec.Map.Columns),
				Factory: node.Spec.Map.Factory,
			},
		})
		edges := make([]physical.AccessEdge, len(required))
		for slot := range edges {
			edges[slot] = physical.AccessEdge{Node: id, Slot: slot}
		}
		return &columns{domain: input.domain, edges: edges}, nil

	case SpecTypeRowIndex:
		input, err := c.compile(node.Inputs[0], s)
		if err != nil {
			return nil, err
		}
		if !anyRequired(required) {
			return &columns{domain: input.domain, edges: prunedEdges(1)}, nil
		}
		id := c.chain(input.domain, physical.Node{
			NodeType: physical.NodeTypeRowIndex,
			RowIndex: &physical.RowIndex{Offset: node.Spec.RowIndex.Offset},
		})
		return &columns{domain: input.domain, edges: []physical.AccessEdge{{Node: id, Slot: 0}}}, nil

	case SpecTypeAppendMissing:
		input, err := c.compile(node.Inputs[0], s)
		if err != nil {
			return nil, err
		}
		missingSchema := node.Spec.AppendMissing.Schema
		edges := append([]physical.AccessEdge{}, input.edges...)
		if anyRequired(required[len(input.edges):]) {
			id := c.emit(physical.Node{
				NodeType: physical.NodeTypeMissing,
				Missing:  &physical.Missing{Schema: missingSchema},
			})
			for slot := 0; slot < missingSchema.NumColumns(); slot++ {
				edges = append(edges, physical.AccessEdge{Node: id, Slot: slot})
			}
		} else {
			edges = append(edges, prunedEdges(missingSchema.NumColumns())...)
		}
		return &columns{domain: input.domain, edges: edges}, nil

	case SpecTypeObserver:
		input, err := c.compile(node.Inputs[0], s)
		if err != nil {
			return nil, err
		}
		c.chain(input.domain, physical.Node{
			NodeType: physical.NodeTypeObserver,
			Observer: &physical.Observer{
				Inputs:  pick(input.edges, node.Spec.Observer.Columns),
				Factory: node.Spec.Observer.Factory,
			},
		})
		return &columns{domain: input.domain, edges: input.edges}, nil

	case SpecTypeRowFilter:
		input, err := c.compile(node.Inputs[0], make(scope))
		if err != nil {
			return nil, err
		}
		id := c.emit(physical.Node{
			NodeType:     physical.NodeTypeRowFilter,
			Predecessors: []int{input.domain.head},
			RowFilter: &physical.RowFilter{
				Inputs:  pick(input.edges, node.Spec.RowFilter.Columns),
				Factory: node.Spec.RowFilter.Factory,
			},
		})
		c.plan.Lookahead = false
		return &columns{domain: &domain{head: id, size: -1}, edges: input.edges}, nil

	case SpecTypeSlice:
		input, err := c.compile(node.Inputs[0], make(scope))
		if err != nil {
			return nil, err
		}
		rows := vtable.Rows(node.Spec.Slice.From, node.Spec.Slice.To)
		// The input was compiled privately, so a source driving it can apply the range itself.
		if head := &c.plan.Nodes[input.domain.head]; head.NodeType == physical.NodeTypeSource {
			head.Source.Rows = head.Source.Rows.Compose(rows)
			input.domain.size = rows.Clamp(input.domain.size)
			return input, nil
		}
		id := c.emit(physical.Node{
			NodeType:     physical.NodeTypeSlice,
			Predecessors: []int{input.domain.head},
			Slice:        &physical.Slice{From: rows.From, To: rows.To},
		})
		return &columns{
			domain: &domain{head: id, size: rows.Clamp(input.domain.size)},
			edges:  input.edges,
		}, nil

	case SpecTypeConcatenate:
		if len(node.Inputs) == 1 {
			return c.compile(node.Inputs[0], s)
		}
		return c.compileConcatenate(node, required)

	case SpecTypeAppend:
		if len(node.Inputs) == 1 {
			return c.compile(node.Inputs[0], s)
		}
		return c.compileAppend(node, required)

	case SpecTypeMaterialize:
		input, err := c.compile(node.Inputs[0], s)
		if err != nil {
			return nil, err
		}
		binding, err := c.bindSink(node.Spec.Materialize.SinkID, c.graph.Nodes[node.Inputs[0]].Schema)
		if err != nil {
			return nil, err
		}
		id := c.emit(physical.Node{
			NodeType:     physical.NodeTypeMaterialize,
			Predecessors: []int{input.domain.head},
			Materialize: &physical.Materialize{
				Inputs:  input.edges,
				Binding: binding,
			},
		})
		return &columns{domain: &domain{head: id, size: input.domain.size}}, nil
	}

	panic("unexhaustive spec type match")
}

// chain puts a row preserving node on top of the domain.
func (c *compiler) chain(d *domain, node physical.Node) int {
	node.Predecessors = []int{d.head}
	d.head = c.emit(node)
	return d.head
}

func (c *compiler) compileConcatenate(node *GraphNode, required []bool) (*columns, error) {
	selected := selectedColumns(required)
	predecessors := make([]int, len(node.Inputs))
	inputs := make([][]physical.AccessEdge, len(node.Inputs))
	var size int64
	for i, inputIndex := range node.Inputs {
		input, err := c.compile(inputIndex, make(scope))
		if err != nil {
			return nil, err
		}
		predecessors[i] = input.domain.head
		inputs[i] = pick(input.edges, selected)
		if size == -1 || input.domain.size == -1 {
			size = -1
		} else {
			size += input.domain.size
		}
	}
	id := c.emit(physical.Node{
		NodeType:     physical.NodeTypeConcatenate,
		Predecessors: predecessors,
		Concatenate:  &physical.Concatenate{Inputs: inputs},
	})
	edges := prunedEdges(len(required))
	for slot, column := range selected {
		edges[column] = physical.AccessEdge{Node: id, Slot: slot}
	}
	return &columns{domain: &domain{head: id, size: size}, edges: edges}, nil
}

func (c *compiler) compileAppend(node *GraphNode, required []bool) (*columns, error) {
	// Siblings share a scope, so inputs derived from the same row stream are read once.
	siblings := make(scope)
	inputs := make([]*columns, len(node.Inputs))
	var domains []*domain
	domainIndex := make(map[*domain]int)
	for i, inputIndex := range node.Inputs {
		input, err := c.compile(inputIndex, siblings)
		if err != nil {
			return nil, err
		}
		inputs[i] = input
		if _, ok := domainIndex[input.domain]; !ok {
			domainIndex[input.domain] = len(domains)
			domains = append(domains, input.domain)
		}
	}

	if len(domains) == 1 {
		var edges []physical.AccessEdge
		for i := range inputs {
			edges = append(edges, inputs[i].edges...)
		}
		return &columns{domain: domains[0], edges: edges}, nil
	}

	type position struct {
		group, index int
	}
	groups := make([][]physical.AccessEdge, len(domains))
	positions := make([]position, len(required))
	column := 0
	for i := range inputs {
		group := domainIndex[inputs[i].domain]
		for _, edge := range inputs[i].edges {
			if required[column] {
				positions[column] = position{group: group, index: len(groups[group])}
				groups[group] = append(groups[group], edge)
			}
			column++
		}
	}

	predecessors := make([]int, len(domains))
	var size int64
	for i, d := range domains {
		predecessors[i] = d.head
		if size == -1 || d.size == -1 {
			size = -1
		} else if d.size > size {
			size = d.size
		}
	}
	id := c.emit(physical.Node{
		NodeType:     physical.NodeTypeAppend,
		Predecessors: predecessors,
		Append:       &physical.Append{Inputs: groups},
	})

	offsets := make([]int, len(groups))
	for i := 1; i < len(groups); i++ {
		offsets[i] = offsets[i-1] + len(groups[i-1])
	}
	edges := prunedEdges(len(required))
	for column := range required {
		if required[column] {
			edges[column] = physical.AccessEdge{Node: id, Slot: offsets[positions[column].group] + positions[column].index}
		}
	}
	return &columns{domain: &domain{head: id, size: size}, edges: edges}, nil
}

func (c *compiler) bindSource(source *Source) (int, error) {
	if binding, ok := c.sources[source.ID]; ok {
		if expected := c.plan.Sources[binding].Schema; !expected.Equal(source.Schema) {
			return -1, errors.Wrapf(vtable.ErrSchemaMismatch, "source %s used with schemas %s and %s", source.ID, expected, source.Schema)
		}
		return binding, nil
	}
	c.plan.Sources = append(c.plan.Sources, physical.Binding{ID: source.ID, Schema: source.Schema})
	c.sources[source.ID] = len(c.plan.Sources) - 1
	return len(c.plan.Sources) - 1, nil
}

func (c *compiler) bindSink(id string, schema vtable.Schema) (int, error) {
	if binding, ok := c.sinks[id]; ok {
		if expected := c.plan.Sinks[binding].Schema; !expected.Equal(schema) {
			return -1, errors.Wrapf(vtable.ErrSchemaMismatch, "sink %s used with schemas %s and %s", id, expected, schema)
		}
		return binding, nil
	}
	c.plan.Sinks = append(c.plan.Sinks, physical.Binding{ID: id, Schema: schema})
	c.sinks[id] = len(c.plan.Sinks) - 1
	return len(c.plan.Sinks) - 1, nil
}

// requiredColumns computes which output columns of every node are consumed, from the root down.
func requiredColumns(graph *Graph) [][]bool {
	required := make([][]bool, len(graph.Nodes))
	for i := range graph.Nodes {
		required[i] = make([]bool, graph.Nodes[i].Schema.NumColumns())
	}
	markAll(required[graph.Root])

	for i := len(graph.Nodes) - 1; i >= 0; i-- {
		node := &graph.Nodes[i]
		out := required[i]
		switch node.Spec.SpecType {
		case SpecTypeSource:
		case SpecTypeSelectColumns:
			for j, column := range node.Spec.SelectColumns.Columns {
				if out[j] {
					required[node.Inputs[0]][column] = true
				}
			}
		case SpecTypeAppend:
			offset := 0
			for _, input := range node.Inputs {
				width := len(required[input])
				for j := 0; j < width; j++ {
					if out[offset+j] {
						required[input][j] = true
					}
				}
				offset += width
			}
		case SpecTypeConcatenate:
			for _, input := range node.Inputs {
				for j := range out {
					if out[j] {
						required[input][j] = true
					}
				}
			}
		case SpecTypeSlice:
			passThrough(required[node.Inputs[0]], out)
		case SpecTypeMap:
			if anyRequired(out) {
				mark(required[node.Inputs[0]], node.Spec.Map.Columns)
			}
		case SpecTypeRowFilter:
			passThrough(required[node.Inputs[0]], out)
			mark(required[node.Inputs[0]], node.Spec.RowFilter.Columns)
		case SpecTypeRowIndex:
		case SpecTypeAppendMissing:
			passThrough(required[node.Inputs[0]], out)
		case SpecTypeObserver:
			passThrough(required[node.Inputs[0]], out)
			mark(required[node.Inputs[0]], node.Spec.Observer.Columns)
		case SpecTypeMaterialize:
			markAll(required[node.Inputs[0]])
		default:
			panic("unexhaustive spec type match")
		}
	}
	return required
}

// passThrough marks the input columns required at the same positions as the output.
// Outputs past the input's width are ignored.
func passThrough(input, output []bool) {
	for j := range input {
		if output[j] {
			input[j] = true
		}
	}
}

func mark(set []bool, columns []int) {
	for _, column := range columns {
		set[column] = true
	}
}

func markAll(set []bool) {
	for i := range set {
		set[i] = true
	}
}

func anyRequired(set []bool) bool {
	for i := range set {
		if set[i] {
			return true
		}
	}
	return false
}

func selectedColumns(set []bool) []int {
	out := []int{}
	for i := range set {
		if set[i] {
			out = append(out, i)
		}
	}
	return out
}

func prunedEdges(count int) []physical.AccessEdge {
	out := make([]physical.AccessEdge, count)
	for i := range out {
		out[i] = pruned
	}
	return out
}

func pick(edges []physical.AccessEdge, columns []int) []physical.AccessEdge {
	out := make([]physical.AccessEdge, len(columns))
	for i, column := range columns {
		out[i] = edges[column]
	}
	return out
}
