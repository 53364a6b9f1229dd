// Package datasources opens the tables configured as pipeline sources.
package datasources

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/cube2222/vtable/config"
	"github.com/cube2222/vtable/datasources/arrowtable"
	"github.com/cube2222/vtable/datasources/csv"
	"github.com/cube2222/vtable/datasources/json"
	"github.com/cube2222/vtable/execution"
	"github.com/cube2222/vtable/vtable"
)

// Source is an opened table together with its column names.
type Source struct {
	Table execution.Table
	Names []string
}

// Creator opens a source from its type specific configuration.
// Relative paths are resolved through cfg.
type Creator func(cfg *config.Config, sourceConfig map[string]interface{}) (*Source, error)

type Repository struct {
	creators map[string]Creator
}

func NewRepository() *Repository {
	return &Repository{
		creators: make(map[string]Creator),
	}
}

// DefaultRepository knows the csv, json and arrow source types.
func DefaultRepository() *Repository {
	repo := NewRepository()
	repo.creators["csv"] = CSVCreator
	repo.creators["json"] = JSONCreator
	repo.creators["arrow"] = ArrowCreator
	return repo
}

func (repo *Repository) Register(sourceType string, creator Creator) error {
	if _, ok := repo.creators[sourceType]; ok {
		return errors.Errorf("source type %s already registered", sourceType)
	}
	repo.creators[sourceType] = creator
	return nil
}

func (repo *Repository) Open(cfg *config.Config, source config.SourceConfig) (*Source, error) {
	creator, ok := repo.creators[source.Type]
	if !ok {
		var types []string
		for k := range repo.creators {
			types = append(types, k)
		}
		sort.Strings(types)
		return nil, errors.Wrapf(vtable.ErrInvalidSpec, "no such source type: %s, available source types: %+v", source.Type, types)
	}
	out, err := creator(cfg, source.Config)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't open %s source %s", source.Type, source.Name)
	}
	return out, nil
}

// OpenAll opens every configured source, keyed by source name.
// Already opened tables are closed if any source fails.
func (repo *Repository) OpenAll(cfg *config.Config) (map[string]*Source, error) {
	out := make(map[string]*Source, len(cfg.Sources))
	for i := range cfg.Sources {
		source, err := repo.Open(cfg, cfg.Sources[i])
		if err != nil {
			closers := make([]func() error, 0, len(out))
			for _, opened := range out {
				closers = append(closers, opened.Table.Close)
			}
			if closeErr := execution.CloseAll("sources", closers...); closeErr != nil {
				return nil, errors.Wrapf(err, "also couldn't close sources: %s", closeErr)
			}
			return nil, err
		}
		out[cfg.Sources[i].Name] = source
	}
	return out, nil
}

func parseTypes(types []string) ([]vtable.Type, error) {
	out := make([]vtable.Type, len(types))
	for i := range types {
		t, err := vtable.ParseType(types[i])
		if err != nil {
			return nil, errors.Wrapf(err, "column %d", i)
		}
		out[i] = t
	}
	return out, nil
}

func CSVCreator(cfg *config.Config, sourceConfig map[string]interface{}) (*Source, error) {
	path, err := config.GetString(sourceConfig, "path")
	if err != nil {
		return nil, errors.Wrap(err, "couldn't get path")
	}
	path = cfg.ResolvePath(path)

	var opts []csv.Option
	separator, err := config.GetString(sourceConfig, "separator", config.WithDefault(","))
	if err != nil {
		return nil, errors.Wrap(err, "couldn't get separator")
	}
	r, err := csv.ParseSeparator(separator)
	if err != nil {
		return nil, err
	}
	opts = append(opts, csv.WithSeparator(r))
	header, err := config.GetBool(sourceConfig, "header", config.WithDefault(true))
	if err != nil {
		return nil, errors.Wrap(err, "couldn't get header")
	}
	if !header {
		opts = append(opts, csv.WithoutHeaderRow())
	}

	names, schema, err := csv.InferSchema(path, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't infer schema")
	}
	typeNames, err := config.GetStringList(sourceConfig, "schema", config.WithDefault([]string(nil)))
	if err != nil {
		return nil, errors.Wrap(err, "couldn't get schema")
	}
	if typeNames != nil {
		types, err := parseTypes(typeNames)
		if err != nil {
			return nil, errors.Wrap(err, "couldn't parse schema")
		}
		if len(types) != len(names) {
			return nil, errors.Wrapf(vtable.ErrSchemaMismatch, "schema has %d columns, file has %d", len(types), len(names))
		}
		schema = vtable.NewSchema(types...)
	}

	table, err := csv.Open(path, schema, opts...)
	if err != nil {
		return nil, err
	}
	return &Source{Table: table, Names: names}, nil
}

func JSONCreator(cfg *config.Config, sourceConfig map[string]interface{}) (*Source, error) {
	path, err := config.GetString(sourceConfig, "path")
	if err != nil {
		return nil, errors.Wrap(err, "couldn't get path")
	}
	path = cfg.ResolvePath(path)

	fieldConfigs, err := config.GetInterfaceList(sourceConfig, "fields", config.WithDefault([]interface{}(nil)))
	if err != nil {
		return nil, errors.Wrap(err, "couldn't get fields")
	}
	var fields []json.Field
	if fieldConfigs == nil {
		if fields, err = json.InferFields(path); err != nil {
			return nil, errors.Wrap(err, "couldn't infer fields")
		}
	}
	for i := range fieldConfigs {
		fieldConfig, ok := fieldConfigs[i].(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("expected field %d to be a map", i)
		}
		name, err := config.GetString(fieldConfig, "name")
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't get name of field %d", i)
		}
		typeName, err := config.GetString(fieldConfig, "type")
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't get type of field %s", name)
		}
		t, err := vtable.ParseType(typeName)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", name)
		}
		fields = append(fields, json.Field{Name: name, Type: t})
	}

	table, err := json.Open(path, fields)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(fields))
	for i := range fields {
		names[i] = fields[i].Name
	}
	return &Source{Table: table, Names: names}, nil
}

func ArrowCreator(cfg *config.Config, sourceConfig map[string]interface{}) (*Source, error) {
	path, err := config.GetString(sourceConfig, "path")
	if err != nil {
		return nil, errors.Wrap(err, "couldn't get path")
	}
	table, err := arrowtable.ReadFile(cfg.ResolvePath(path), nil)
	if err != nil {
		return nil, err
	}
	return &Source{Table: table, Names: table.Names()}, nil
}
