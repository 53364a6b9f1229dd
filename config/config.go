// Package config reads pipeline configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SourceConfig binds a table loaded by a datasource to the source id a pipeline refers to it by.
type SourceConfig struct {
	Name   string                 `yaml:"name"`
	Type   string                 `yaml:"type"`
	Config map[string]interface{} `yaml:"config"`
}

type Config struct {
	Sources []SourceConfig `yaml:"sources"`
	// Pipeline is the path of the persisted logical graph to run.
	Pipeline  string                 `yaml:"pipeline"`
	Output    map[string]interface{} `yaml:"output"`
	Execution map[string]interface{} `yaml:"execution"`
	Logging   map[string]interface{} `yaml:"logging"`

	// Dir is the directory relative paths are resolved against.
	Dir string `yaml:"-"`
}

func (config *Config) GetSourceConfig(name string) (*SourceConfig, error) {
	for i := range config.Sources {
		if config.Sources[i].Name == name {
			return &config.Sources[i], nil
		}
	}

	return nil, errors.Wrapf(ErrNotFound, "source %s", name)
}

// ResolvePath makes paths found in the configuration relative to its directory.
func (config *Config) ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(config.Dir, path)
}

func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't read file")
	}

	config, err := Parse(data)
	if err != nil {
		return nil, err
	}
	config.Dir = filepath.Dir(path)
	return config, nil
}

func Parse(data []byte) (*Config, error) {
	var config Config

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(err, "couldn't decode yaml configuration")
	}

	names := make(map[string]bool)
	for i := range config.Sources {
		if config.Sources[i].Name == "" {
			return nil, errors.Errorf("source %d has no name", i)
		}
		if names[config.Sources[i].Name] {
			return nil, errors.Errorf("source %s defined more than once", config.Sources[i].Name)
		}
		names[config.Sources[i].Name] = true
		cleanupMaps(config.Sources[i].Config)
	}
	cleanupMaps(config.Output)
	cleanupMaps(config.Execution)
	cleanupMaps(config.Logging)

	return &config, nil
}

// The yaml decoder creates maps of type map[interface{}]interface{} for non-string keys.
// cleanupMaps will change them to map[string]interface{}.
func cleanupMaps(config map[string]interface{}) {
	for k, v := range config {
		config[k] = cleanupMapsRecursive(v)
	}
}

func cleanupMapsRecursive(config interface{}) interface{} {
	switch config := config.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{})
		for k, v := range config {
			out[fmt.Sprintf("%v", k)] = cleanupMapsRecursive(v)
		}
		return out
	case map[string]interface{}:
		cleanupMaps(config)
	case []interface{}:
		for i := range config {
			config[i] = cleanupMapsRecursive(config[i])
		}
	}

	return config
}
