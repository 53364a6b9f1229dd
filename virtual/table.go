package virtual

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/logical"
	"github.com/cube2222/vtable/physical"
	"github.com/cube2222/vtable/vtable"
)

// Table is a lazily evaluated table, described by a graph of logical operators over bound source tables.
// Tables are immutable, every combinator returns a new Table.
// A Table may be shared between goroutines, cursors created from it may not.
type Table struct {
	node    *logical.TransformNode
	sources map[string]execution.Table

	cacheConfig CacheConfig
	cacheOnce   sync.Once
	cache       *PlanCache
	cacheErr    error
}

type TableOption func(t *Table)

func WithCacheConfig(config CacheConfig) TableOption {
	return func(t *Table) {
		t.cacheConfig = config
	}
}

// NewTable wraps a concrete table, binding it under a freshly generated source identifier.
func NewTable(table execution.Table, opts ...TableOption) (*Table, error) {
	return NewNamedTable(logical.NewSourceID(), table, opts...)
}

// NewNamedTable wraps a concrete table, binding it under the given source identifier.
func NewNamedTable(id string, table execution.Table, opts ...TableOption) (*Table, error) {
	if table == nil {
		return nil, errors.Wrapf(vtable.ErrInvalidSpec, "no table given for source %s", id)
	}
	node, err := logical.NewTransformNode(logical.NewSourceSpec(id, table.Schema()))
	if err != nil {
		return nil, err
	}
	return newTable(node, map[string]execution.Table{id: table}, opts...), nil
}

// FromNode binds a logical graph, e.g. a decoded one, to concrete tables by source identifier.
func FromNode(node *logical.TransformNode, sources map[string]execution.Table, opts ...TableOption) (*Table, error) {
	if node.Spec().SpecType == logical.SpecTypeMaterialize {
		return nil, errors.Wrap(vtable.ErrInvalidSpec, "a materialization isn't a table, use MaterializeTo instead")
	}
	graph := logical.Flatten(node)
	bound := make(map[string]execution.Table)
	for i := range graph.Nodes {
		spec := graph.Nodes[i].Spec
		if spec.SpecType != logical.SpecTypeSource {
			continue
		}
		table, ok := sources[spec.Source.ID]
		if !ok || table == nil {
			return nil, errors.Wrapf(vtable.ErrUnresolvedSource, "no table bound for source %s", spec.Source.ID)
		}
		if schema := table.Schema(); !schema.Equal(spec.Source.Schema) {
			return nil, errors.Wrapf(vtable.ErrSchemaMismatch, "table bound for source %s has schema %s, expected %s", spec.Source.ID, schema, spec.Source.Schema)
		}
		bound[spec.Source.ID] = table
	}
	return newTable(node, bound, opts...), nil
}

func newTable(node *logical.TransformNode, sources map[string]execution.Table, opts ...TableOption) *Table {
	t := &Table{
		node:        node,
		sources:     sources,
		cacheConfig: DefaultCacheConfig(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Table) Schema() vtable.Schema {
	return t.node.Schema()
}

// Node returns the logical graph describing this table.
func (t *Table) Node() *logical.TransformNode {
	return t.node
}

func (t *Table) derive(spec logical.Spec, others ...*Table) (*Table, error) {
	sources := make(map[string]execution.Table, len(t.sources))
	predecessors := make([]*logical.TransformNode, 0, len(others)+1)
	for _, table := range append([]*Table{t}, others...) {
		if table == nil {
			return nil, errors.Wrapf(vtable.ErrInvalidSpec, "nil input table for %s", spec.SpecType)
		}
		for id, source := range table.sources {
			if bound, ok := sources[id]; ok && bound != source {
				return nil, errors.Wrapf(vtable.ErrInvalidSpec, "source %s is bound to two different tables", id)
			}
			sources[id] = source
		}
		predecessors = append(predecessors, table.node)
	}

	node, err := logical.NewTransformNode(spec, predecessors...)
	if err != nil {
		return nil, err
	}
	return newTable(node, sources, WithCacheConfig(t.cacheConfig)), nil
}

// Select keeps only the given columns, in the given order.
func (t *Table) Select(columns ...int) (*Table, error) {
	return t.derive(logical.NewSelectColumnsSpec(columns...))
}

// Append joins tables side by side. Rows missing in shorter tables read as missing.
func (t *Table) Append(others ...*Table) (*Table, error) {
	return t.derive(logical.NewAppendSpec(), others...)
}

// Concatenate stacks tables with equal schemas on top of each other.
func (t *Table) Concatenate(others ...*Table) (*Table, error) {
	return t.derive(logical.NewConcatenateSpec(), others...)
}

// Slice keeps the rows in [from, to).
func (t *Table) Slice(from, to int64) (*Table, error) {
	return t.derive(logical.NewSliceSpec(from, to))
}

// Map derives new columns from the given input columns.
// The resulting table consists of the factory's output columns only.
func (t *Table) Map(columns []int, factory execution.MapperFactory) (*Table, error) {
	return t.derive(logical.NewMapSpec(columns, factory))
}

// Filter keeps the rows for which the predicate over the given columns holds.
func (t *Table) Filter(columns []int, factory execution.PredicateFactory) (*Table, error) {
	return t.derive(logical.NewRowFilterSpec(columns, factory))
}

// RowIndex replaces the table by a single long column holding each row's index plus offset.
func (t *Table) RowIndex(offset int64) (*Table, error) {
	return t.derive(logical.NewRowIndexSpec(offset))
}

// AppendMissing adds columns of the given schema which are missing in every row.
func (t *Table) AppendMissing(schema vtable.Schema) (*Table, error) {
	return t.derive(logical.NewAppendMissingSpec(schema))
}

// Observe lets the observer see the given columns of every row read, without changing the table.
func (t *Table) Observe(columns []int, factory execution.ObserverFactory) (*Table, error) {
	return t.derive(logical.NewObserverSpec(columns, factory))
}

// PlanCache returns the cache holding this table's compiled plans.
func (t *Table) PlanCache() (*PlanCache, error) {
	t.cacheOnce.Do(func() {
		t.cache, t.cacheErr = NewPlanCache(t.cacheConfig, t.compile)
	})
	return t.cache, t.cacheErr
}

// Plan returns the physical plan serving the selection, compiling it if it isn't cached yet.
func (t *Table) Plan(selection vtable.Selection) (*physical.Plan, error) {
	cache, err := t.PlanCache()
	if err != nil {
		return nil, err
	}
	return cache.Get(selection)
}

func (t *Table) compile(selection vtable.Selection) (*physical.Plan, error) {
	return logical.Compile(t.node, selection, logical.WithSourceSizes(t.sourceSize))
}

func (t *Table) sourceSize(id string) int64 {
	table, ok := t.sources[id]
	if !ok {
		return -1
	}
	return table.Size()
}

// Size returns the number of rows if it can be derived without reading the table, -1 otherwise.
// Source sizes are taken as of the first compilation.
func (t *Table) Size() (int64, error) {
	plan, err := t.Plan(vtable.SelectAll())
	if err != nil {
		return 0, err
	}
	return plan.Size, nil
}

func (t *Table) bindSources(plan *physical.Plan) ([]execution.Table, error) {
	tables := make([]execution.Table, len(plan.Sources))
	for i, binding := range plan.Sources {
		table, ok := t.sources[binding.ID]
		if !ok {
			return nil, errors.Wrapf(vtable.ErrUnresolvedSource, "no table bound for source %s", binding.ID)
		}
		tables[i] = table
	}
	return tables, nil
}

// Cursor opens a sequential cursor over the selected columns and rows.
func (t *Table) Cursor(selection vtable.Selection) (*Cursor, error) {
	plan, err := t.Plan(selection)
	if err != nil {
		return nil, err
	}
	tables, err := t.bindSources(plan)
	if err != nil {
		return nil, err
	}
	root, err := plan.AssembleSequential(tables, nil)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't assemble sequential nodes")
	}
	return newCursor(root, plan.Schema)
}

// RandomAccessCursor opens a seeking cursor over the selected columns and rows.
// Tables containing filters, or reading from sources without random access, can't be read this way.
func (t *Table) RandomAccessCursor(selection vtable.Selection) (*RandomAccessCursor, error) {
	plan, err := t.Plan(selection)
	if err != nil {
		return nil, err
	}
	tables, err := t.bindSources(plan)
	if err != nil {
		return nil, err
	}
	root, err := plan.AssembleRandomAccess(tables)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't assemble random access nodes")
	}
	return newRandomAccessCursor(root, plan.Schema)
}

// MaterializeTo reads the whole table into the sink and returns the number of rows written.
func (t *Table) MaterializeTo(sink execution.Sink) (int64, error) {
	if sink == nil {
		return 0, errors.Wrap(vtable.ErrInvalidSpec, "no sink given")
	}
	if schema := sink.Schema(); !schema.Equal(t.Schema()) {
		return 0, errors.Wrapf(vtable.ErrSchemaMismatch, "sink has schema %s, table has %s", schema, t.Schema())
	}
	sinkID := logical.NewSourceID()
	node, err := logical.NewTransformNode(logical.NewMaterializeSpec(sinkID), t.node)
	if err != nil {
		return 0, err
	}
	plan, err := logical.Compile(node, vtable.SelectAll(), logical.WithSourceSizes(t.sourceSize))
	if err != nil {
		return 0, errors.Wrap(err, "couldn't compile materialization")
	}
	tables, err := t.bindSources(plan)
	if err != nil {
		return 0, err
	}
	root, err := plan.AssembleSequential(tables, []execution.Sink{sink})
	if err != nil {
		return 0, errors.Wrap(err, "couldn't assemble materialization")
	}
	return runMaterialization(root)
}

// AsSource exposes this table as a concrete table, so that it can be bound as a source of other pipelines.
func (t *Table) AsSource() execution.RandomAccessTable {
	return &tableSource{table: t}
}
