package logical

import (
	"bytes"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/vtable"
)

// Every persisted record carries the version it was written with.
// Records are readable as long as their version satisfies the constraint.
const currentVersion = "1.0.0"

var supportedVersions = func() *semver.Constraints {
	constraint, err := semver.NewConstraint("^1.0.0")
	if err != nil {
		panic(err)
	}
	return constraint
}()

type document struct {
	Version string   `yaml:"version"`
	Nodes   []record `yaml:"nodes"`
}

type record struct {
	Kind    string    `yaml:"kind"`
	Version string    `yaml:"version"`
	Inputs  []int     `yaml:"inputs,flow,omitempty"`
	Config  yaml.Node `yaml:"config"`
}

type schemaConfig struct {
	Types  []string `yaml:"types,flow"`
	Traits []string `yaml:"traits,flow,omitempty"`
}

type sourceConfig struct {
	ID     string       `yaml:"id"`
	Schema schemaConfig `yaml:"schema"`
}

type selectColumnsConfig struct {
	Columns []int `yaml:"columns,flow"`
}

type sliceConfig struct {
	From int64 `yaml:"from"`
	To   int64 `yaml:"to"`
}

type factoryConfig struct {
	Columns    []int    `yaml:"columns,flow"`
	Factory    string   `yaml:"factory"`
	Parameters []string `yaml:"parameters,flow,omitempty"`
}

type rowIndexConfig struct {
	Offset int64 `yaml:"offset"`
}

type appendMissingConfig struct {
	Schema schemaConfig `yaml:"schema"`
}

type materializeConfig struct {
	Sink string `yaml:"sink"`
}

// Encode persists the logical graph rooted at root as YAML.
// Shared subgraphs are written once, inputs refer to earlier records by index.
func Encode(root *TransformNode) ([]byte, error) {
	graph := Flatten(root)
	doc := document{
		Version: currentVersion,
		Nodes:   make([]record, len(graph.Nodes)),
	}
	for i := range graph.Nodes {
		config, err := encodeConfig(graph.Nodes[i].Spec)
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't encode %s node %d", graph.Nodes[i].Spec.SpecType, i)
		}
		doc.Nodes[i] = record{
			Kind:    graph.Nodes[i].Spec.SpecType.String(),
			Version: currentVersion,
			Inputs:  graph.Nodes[i].Inputs,
		}
		if err := doc.Nodes[i].Config.Encode(config); err != nil {
			return nil, errors.Wrapf(err, "couldn't encode %s node %d config", graph.Nodes[i].Spec.SpecType, i)
		}
	}

	buf := &bytes.Buffer{}
	encoder := yaml.NewEncoder(buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return nil, errors.Wrap(err, "couldn't encode yaml")
	}
	if err := encoder.Close(); err != nil {
		return nil, errors.Wrap(err, "couldn't close yaml encoder")
	}
	return buf.Bytes(), nil
}

func encodeConfig(spec Spec) (interface{}, error) {
	switch spec.SpecType {
	case SpecTypeSource:
		return sourceConfig{ID: spec.Source.ID, Schema: encodeSchema(spec.Source.Schema)}, nil
	case SpecTypeSelectColumns:
		return selectColumnsConfig{Columns: spec.SelectColumns.Columns}, nil
	case SpecTypeAppend, SpecTypeConcatenate:
		return struct{}{}, nil
	case SpecTypeSlice:
		return sliceConfig{From: spec.Slice.From, To: spec.Slice.To}, nil
	case SpecTypeMap:
		return encodeFactory(spec.Map.Columns, spec.Map.Factory)
	case SpecTypeRowFilter:
		return encodeFactory(spec.RowFilter.Columns, spec.RowFilter.Factory)
	case SpecTypeRowIndex:
		return rowIndexConfig{Offset: spec.RowIndex.Offset}, nil
	case SpecTypeAppendMissing:
		return appendMissingConfig{Schema: encodeSchema(spec.AppendMissing.Schema)}, nil
	case SpecTypeObserver:
		return encodeFactory(spec.Observer.Columns, spec.Observer.Factory)
	case SpecTypeMaterialize:
		return materializeConfig{Sink: spec.Materialize.SinkID}, nil
	}
	panic("unexhaustive spec type match")
}

func encodeFactory(columns []int, factory interface{}) (factoryConfig, error) {
	named, ok := factory.(execution.Named)
	if !ok {
		return factoryConfig{}, errors.Wrapf(vtable.ErrNotImplemented, "factory %T has no name, so it can't be persisted", factory)
	}
	out := factoryConfig{
		Columns: columns,
		Factory: named.Name(),
	}
	if parameterized, ok := factory.(execution.Parameterized); ok {
		out.Parameters = parameterized.Parameters()
	}
	return out, nil
}

func encodeSchema(schema vtable.Schema) schemaConfig {
	out := schemaConfig{
		Types: make([]string, schema.NumColumns()),
	}
	hasTraits := false
	for i := 0; i < schema.NumColumns(); i++ {
		out.Types[i] = schema.Type(i).String()
		if schema.Trait(i).TraitType != vtable.TraitNone {
			hasTraits = true
		}
	}
	if hasTraits {
		out.Traits = make([]string, schema.NumColumns())
		for i := 0; i < schema.NumColumns(); i++ {
			out.Traits[i] = schema.Trait(i).TraitType.String()
		}
	}
	return out
}

// Decode reads a graph written by Encode, resolving factories through the registry.
func Decode(data []byte, registry *Registry) (*TransformNode, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "couldn't decode yaml")
	}
	if err := checkVersion(doc.Version); err != nil {
		return nil, errors.Wrap(err, "unsupported document")
	}
	if len(doc.Nodes) == 0 {
		return nil, errors.Wrap(vtable.ErrInvalidSpec, "document has no nodes")
	}

	nodes := make([]*TransformNode, len(doc.Nodes))
	for i := range doc.Nodes {
		rec := &doc.Nodes[i]
		if err := checkVersion(rec.Version); err != nil {
			return nil, errors.Wrapf(err, "unsupported %s node %d", rec.Kind, i)
		}
		spec, err := decodeSpec(rec, registry)
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't decode %s node %d", rec.Kind, i)
		}
		predecessors := make([]*TransformNode, len(rec.Inputs))
		for j, input := range rec.Inputs {
			if input < 0 || input >= i {
				return nil, errors.Wrapf(vtable.ErrInvalidSpec, "node %d input %d refers to node %d, which isn't an earlier node", i, j, input)
			}
			predecessors[j] = nodes[input]
		}
		if nodes[i], err = NewTransformNode(spec, predecessors...); err != nil {
			return nil, errors.Wrapf(err, "invalid %s node %d", rec.Kind, i)
		}
	}
	return nodes[len(nodes)-1], nil
}

func checkVersion(text string) error {
	version, err := semver.NewVersion(text)
	if err != nil {
		return errors.Wrapf(vtable.ErrInvalidSpec, "invalid version %q", text)
	}
	if !supportedVersions.Check(version) {
		return errors.Wrapf(vtable.ErrNotImplemented, "version %s isn't supported", version)
	}
	return nil
}

func parseSpecType(kind string) (SpecType, error) {
	for t := SpecTypeSource; t <= SpecTypeMaterialize; t++ {
		if t.String() == kind {
			return t, nil
		}
	}
	return 0, errors.Wrapf(vtable.ErrInvalidSpec, "unknown kind: %s", kind)
}

func decodeSpec(rec *record, registry *Registry) (Spec, error) {
	specType, err := parseSpecType(rec.Kind)
	if err != nil {
		return Spec{}, err
	}
	decode := func(out interface{}) error {
		if rec.Config.Kind == 0 {
			return errors.Wrap(vtable.ErrInvalidSpec, "missing config")
		}
		if err := rec.Config.Decode(out); err != nil {
			return errors.Wrap(err, "couldn't decode config")
		}
		return nil
	}

	switch specType {
	case SpecTypeSource:
		var config sourceConfig
		if err := decode(&config); err != nil {
			return Spec{}, err
		}
		schema, err := decodeSchema(config.Schema)
		if err != nil {
			return Spec{}, err
		}
		return NewSourceSpec(config.ID, schema), nil

	case SpecTypeSelectColumns:
		var config selectColumnsConfig
		if err := decode(&config); err != nil {
			return Spec{}, err
		}
		return NewSelectColumnsSpec(config.Columns...), nil

	case SpecTypeAppend:
		return NewAppendSpec(), nil

	case SpecTypeConcatenate:
		return NewConcatenateSpec(), nil

	case SpecTypeSlice:
		var config sliceConfig
		if err := decode(&config); err != nil {
			return Spec{}, err
		}
		return NewSliceSpec(config.From, config.To), nil

	case SpecTypeMap:
		var config factoryConfig
		if err := decode(&config); err != nil {
			return Spec{}, err
		}
		factory, err := registry.Mapper(config.Factory, config.Parameters)
		if err != nil {
			return Spec{}, err
		}
		return NewMapSpec(config.Columns, factory), nil

	case SpecTypeRowFilter:
		var config factoryConfig
		if err := decode(&config); err != nil {
			return Spec{}, err
		}
		factory, err := registry.Predicate(config.Factory, config.Parameters)
		if err != nil {
			return Spec{}, err
		}
		return NewRowFilterSpec(config.Columns, factory), nil

	case SpecTypeRowIndex:
		var config rowIndexConfig
		if err := decode(&config); err != nil {
			return Spec{}, err
		}
		return NewRowIndexSpec(config.Offset), nil

	case SpecTypeAppendMissing:
		var config appendMissingConfig
		if err := decode(&config); err != nil {
			return Spec{}, err
		}
		schema, err := decodeSchema(config.Schema)
		if err != nil {
			return Spec{}, err
		}
		return NewAppendMissingSpec(schema), nil

	case SpecTypeObserver:
		var config factoryConfig
		if err := decode(&config); err != nil {
			return Spec{}, err
		}
		factory, err := registry.Observer(config.Factory, config.Parameters)
		if err != nil {
			return Spec{}, err
		}
		return NewObserverSpec(config.Columns, factory), nil

	case SpecTypeMaterialize:
		var config materializeConfig
		if err := decode(&config); err != nil {
			return Spec{}, err
		}
		return NewMaterializeSpec(config.Sink), nil
	}

	panic("unexhaustive spec type match")
}

func decodeSchema(config schemaConfig) (vtable.Schema, error) {
	types := make([]vtable.Type, len(config.Types))
	for i := range config.Types {
		t, err := vtable.ParseType(config.Types[i])
		if err != nil {
			return vtable.Schema{}, errors.Wrapf(err, "invalid type of column %d", i)
		}
		types[i] = t
	}
	traits := make([]vtable.Trait, len(types))
	if len(config.Traits) > 0 {
		if len(config.Traits) != len(types) {
			return vtable.Schema{}, errors.Wrapf(vtable.ErrInvalidSpec, "schema has %d types but %d traits", len(types), len(config.Traits))
		}
		for i := range config.Traits {
			traitType, err := vtable.ParseTraitType(config.Traits[i])
			if err != nil {
				return vtable.Schema{}, errors.Wrapf(err, "invalid trait of column %d", i)
			}
			traits[i] = vtable.Trait{TraitType: traitType}
		}
	}
	return vtable.NewSchemaWithTraits(types, traits)
}
