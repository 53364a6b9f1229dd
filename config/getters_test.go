package config

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = map[string]interface{}{
	"format": "csv",
	"names":  []interface{}{"a", "b"},
	"mixed":  []interface{}{"a", 1},
	"cache": map[string]interface{}{
		"maxCost":  10,
		"counters": int64(1000),
		"enabled":  true,
		"ratio":    0.5,
	},
}

func TestGetters(t *testing.T) {
	format, err := GetString(testConfig, "format")
	require.NoError(t, err)
	assert.Equal(t, "csv", format)

	names, err := GetStringList(testConfig, "names")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	counters, err := GetInt64(testConfig, "cache.counters")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), counters)
	widened, err := GetInt64(testConfig, "cache.maxCost")
	require.NoError(t, err)
	assert.Equal(t, int64(10), widened)

	enabled, err := GetBool(testConfig, "cache.enabled")
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestGettersDefaults(t *testing.T) {
	format, err := GetString(testConfig, "output", WithDefault("table"))
	require.NoError(t, err)
	assert.Equal(t, "table", format)

	counters, err := GetInt64(testConfig, "other.counters", WithDefault(int64(5)))
	require.NoError(t, err)
	assert.Equal(t, int64(5), counters)

	names, err := GetStringList(testConfig, "columns", WithDefault([]string{}))
	require.NoError(t, err)
	assert.Equal(t, []string{}, names)

	// Defaults only cover absent fields.
	_, err = GetInt64(testConfig, "format", WithDefault(int64(1)))
	assert.Error(t, err)
}

func TestGettersErrors(t *testing.T) {
	_, err := GetString(testConfig, "missing")
	assert.Equal(t, ErrNotFound, errors.Cause(err))

	_, err = GetString(testConfig, "cache.missing")
	assert.Equal(t, ErrNotFound, errors.Cause(err))

	_, err = GetString(testConfig, "format.inner")
	assert.Error(t, err)

	_, err = GetStringList(testConfig, "mixed")
	assert.Error(t, err)

	_, err = GetBool(testConfig, "cache.ratio")
	assert.Error(t, err)
}
