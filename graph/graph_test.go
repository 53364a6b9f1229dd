package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShow(t *testing.T) {
	shared := NewNode("source")
	shared.AddField("columns", "0,1")

	left := NewNode("map")
	left.AddField("factory", "upper")
	left.AddChild("source", shared)

	root := NewNode("append")
	root.AddChild("left", left)
	root.AddChild("right", shared)

	g, err := Show(root)
	require.NoError(t, err)

	out := g.String()
	assert.Equal(t, 1, strings.Count(out, "source_0 ["))
	assert.NotContains(t, out, "source_1")
	assert.Contains(t, out, "append_0:left->map_0")
	assert.Contains(t, out, "append_0:right->source_0")
	assert.Contains(t, out, "map_0:source->source_0")
}

func TestEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"two words", "two_words"},
		{"{a|b}", "\\{a\\|b\\}"},
		{"<x>", "\\<x\\>"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, escape(tt.in))
		})
	}
}
