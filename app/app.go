// Package app runs persisted pipelines over the sources of a configuration file.
package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/cube2222/vtable/config"
	"github.com/cube2222/vtable/datasources"
	"github.com/cube2222/vtable/datasources/arrowtable"
	"github.com/cube2222/vtable/datasources/memory"
	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/functions"
	"github.com/cube2222/vtable/graph"
	"github.com/cube2222/vtable/logical"
	"github.com/cube2222/vtable/logs"
	"github.com/cube2222/vtable/outputs/formats"
	"github.com/cube2222/vtable/physical"
	"github.com/cube2222/vtable/virtual"
	"github.com/cube2222/vtable/vtable"
)

const FormatArrow = "arrow"

type App struct {
	cfg      *config.Config
	sources  *datasources.Repository
	registry *logical.Registry
	out      io.Writer
}

func NewApp(cfg *config.Config, sources *datasources.Repository, registry *logical.Registry, out io.Writer) *App {
	return &App{
		cfg:      cfg,
		sources:  sources,
		registry: registry,
		out:      out,
	}
}

// Pipeline is a logical graph bound to its opened sources.
type Pipeline struct {
	Table *virtual.Table
	// Names holds a name for each column, empty where none is known.
	Names   []string
	sources map[string]*datasources.Source
}

func (p *Pipeline) Close() error {
	closers := make([]func() error, 0, len(p.sources))
	for _, source := range p.sources {
		closers = append(closers, source.Table.Close)
	}
	return execution.CloseAll("pipeline", closers...)
}

// LoadPipeline decodes the pipeline file configured, or the one at path if it's not empty.
func (app *App) LoadPipeline(path string) (*logical.TransformNode, error) {
	if path == "" {
		path = app.cfg.ResolvePath(app.cfg.Pipeline)
	}
	if path == "" {
		return nil, errors.Wrap(vtable.ErrInvalidSpec, "no pipeline given")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't read pipeline file")
	}
	node, err := logical.Decode(data, app.registry)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't decode pipeline %s", path)
	}
	return node, nil
}

// Open opens all configured sources and binds the pipeline to them.
// A materialization at the root is replaced by the configured output.
func (app *App) Open(node *logical.TransformNode) (*Pipeline, error) {
	if node.Spec().SpecType == logical.SpecTypeMaterialize {
		node = node.Predecessors()[0]
	}
	cacheConfig, err := app.cacheConfig()
	if err != nil {
		return nil, err
	}

	sources, err := app.sources.OpenAll(app.cfg)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't open sources")
	}
	pipeline := &Pipeline{sources: sources}
	tables := make(map[string]execution.Table, len(sources))
	for name, source := range sources {
		tables[name] = source.Table
	}
	table, err := virtual.FromNode(node, tables, virtual.WithCacheConfig(cacheConfig))
	if err != nil {
		pipeline.closeOnError()
		return nil, errors.Wrap(err, "couldn't bind pipeline")
	}
	pipeline.Table = table

	pipeline.Names, err = config.GetStringList(app.cfg.Output, "names", config.WithDefault([]string(nil)))
	if err != nil {
		pipeline.closeOnError()
		return nil, errors.Wrap(err, "couldn't get output names")
	}
	if pipeline.Names == nil {
		pipeline.Names = columnNames(node, sources)
	}
	return pipeline, nil
}

func (p *Pipeline) closeOnError() {
	if err := p.Close(); err != nil {
		logs.Logger().Warn("couldn't close sources", zap.Error(err))
	}
}

func (app *App) cacheConfig() (virtual.CacheConfig, error) {
	out := virtual.DefaultCacheConfig()
	maxCost, err := config.GetInt64(app.cfg.Execution, "cache.maxCost", config.WithDefault(out.MaxCost))
	if err != nil {
		return out, errors.Wrap(err, "couldn't get plan cache max cost")
	}
	out.MaxCost = maxCost
	return out, nil
}

// columnNames follows source column names through the graph as far as they survive.
func columnNames(node *logical.TransformNode, sources map[string]*datasources.Source) []string {
	spec := node.Spec()
	predecessors := node.Predecessors()
	switch spec.SpecType {
	case logical.SpecTypeSource:
		if source, ok := sources[spec.Source.ID]; ok {
			return source.Names
		}
	case logical.SpecTypeSelectColumns:
		input := columnNames(predecessors[0], sources)
		out := make([]string, len(spec.SelectColumns.Columns))
		for i, column := range spec.SelectColumns.Columns {
			if column < len(input) {
				out[i] = input[column]
			}
		}
		return out
	case logical.SpecTypeAppend:
		var out []string
		for _, predecessor := range predecessors {
			names := columnNames(predecessor, sources)
			out = append(out, formats.ColumnNames(predecessor.Schema().NumColumns(), names)...)
		}
		return out
	case logical.SpecTypeConcatenate, logical.SpecTypeSlice, logical.SpecTypeRowFilter, logical.SpecTypeObserver:
		return columnNames(predecessors[0], sources)
	case logical.SpecTypeAppendMissing:
		return columnNames(predecessors[0], sources)
	case logical.SpecTypeRowIndex:
		return []string{"row_index"}
	case logical.SpecTypeMap:
		if named, ok := spec.Map.Factory.(execution.Named); ok && node.Schema().NumColumns() == 1 {
			return []string{named.Name()}
		}
	}
	return nil
}

// Run materializes the pipeline into the configured output and returns the number of rows written.
func (app *App) Run(pipeline *Pipeline) (int64, error) {
	format, err := config.GetString(app.cfg.Output, "format", config.WithDefault(formats.FormatTable))
	if err != nil {
		return 0, errors.Wrap(err, "couldn't get output format")
	}
	start := time.Now()

	var rows int64
	if format == FormatArrow {
		rows, err = app.runArrow(pipeline)
	} else {
		var sink execution.Sink
		sink, err = formats.NewSink(format, app.out, pipeline.Table.Schema(), pipeline.Names)
		if err != nil {
			return 0, err
		}
		rows, err = pipeline.Table.MaterializeTo(sink)
	}
	if err != nil {
		return rows, errors.Wrap(err, "couldn't run pipeline")
	}
	logs.Logger().Info("pipeline finished", zap.String("format", format), zap.Int64("rows", rows), zap.Duration("took", time.Since(start)))
	return rows, nil
}

func (app *App) runArrow(pipeline *Pipeline) (int64, error) {
	path, err := config.GetString(app.cfg.Output, "path")
	if err != nil {
		return 0, errors.Wrap(err, "arrow output needs a path")
	}
	sink, err := arrowtable.NewSink(pipeline.Table.Schema(), pipeline.Names, nil)
	if err != nil {
		return 0, err
	}
	defer sink.Release()

	rows, err := pipeline.Table.MaterializeTo(sink)
	if err != nil {
		return rows, err
	}
	f, err := os.Create(app.cfg.ResolvePath(path))
	if err != nil {
		return rows, errors.Wrap(err, "couldn't create output file")
	}
	if err := sink.WriteTo(f); err != nil {
		f.Close()
		return rows, err
	}
	return rows, errors.Wrap(f.Close(), "couldn't close output file")
}

// Explain prints the compiled plan of the whole pipeline, as text or as a graphviz graph.
func (app *App) Explain(pipeline *Pipeline, selection vtable.Selection, dot bool) error {
	plan, err := pipeline.Table.Plan(selection)
	if err != nil {
		return errors.Wrap(err, "couldn't compile pipeline")
	}
	if !dot {
		_, err := io.WriteString(app.out, physical.Describe(plan))
		return err
	}
	g, err := graph.Show(physical.Explain(plan))
	if err != nil {
		return errors.Wrap(err, "couldn't build plan graph")
	}
	_, err = fmt.Fprintln(app.out, g.String())
	return err
}

var describeSchema = vtable.NewSchema(vtable.String, vtable.String, vtable.String)

// Describe prints the name, type and trait of each output column, followed by the row count if it's known.
func (app *App) Describe(pipeline *Pipeline) error {
	schema := pipeline.Table.Schema()
	names := formats.ColumnNames(schema.NumColumns(), pipeline.Names)
	rows := make([][]vtable.Value, schema.NumColumns())
	for i := range rows {
		trait := vtable.NewMissing(vtable.String)
		if t := schema.Trait(i); t.TraitType != vtable.TraitNone {
			trait = vtable.NewString(t.TraitType.String())
		}
		rows[i] = []vtable.Value{
			vtable.NewString(names[i]),
			vtable.NewString(schema.Type(i).String()),
			trait,
		}
	}
	description, err := memory.NewTable(describeSchema, rows)
	if err != nil {
		return err
	}
	table, err := virtual.NewTable(description)
	if err != nil {
		return err
	}
	if _, err := table.MaterializeTo(formats.NewTableSink(app.out, describeSchema, []string{"name", "type", "trait"})); err != nil {
		return errors.Wrap(err, "couldn't print schema")
	}

	size, err := pipeline.Table.Size()
	if err != nil {
		return errors.Wrap(err, "couldn't get size")
	}
	if size >= 0 {
		_, err = fmt.Fprintf(app.out, "rows: %d\n", size)
	} else {
		_, err = fmt.Fprintln(app.out, "rows: unknown")
	}
	return err
}

// Aggregate reduces the given output columns with the named builtin aggregate and prints the result.
func (app *App) Aggregate(pipeline *Pipeline, name string, columns []int) (vtable.Value, error) {
	factory, err := functions.Aggregate(name)
	if err != nil {
		return vtable.Value{}, err
	}
	result, err := pipeline.Table.Aggregate(columns, factory)
	if err != nil {
		return vtable.Value{}, errors.Wrapf(err, "couldn't compute %s", name)
	}
	if _, err := fmt.Fprintln(app.out, result.String()); err != nil {
		return vtable.Value{}, err
	}
	return result, nil
}
