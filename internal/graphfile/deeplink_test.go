package graphfile

import (
	"testing"

	"github.com/specialistvlad/graphquery/internal/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outputNames(n *node.Node) []string {
	names := make([]string, 0, len(n.Outputs))
	for _, s := range n.Outputs {
		names = append(names, s.Name)
	}
	return names
}

func TestApplyDeepLink(t *testing.T) {
	link, ok := ParseDeepLink("dataset=rsa:test%2F25m&bands=13117,13125")
	require.True(t, ok)
	assert.Equal(t, "rsa:test/25m", link.Dataset)

	nodes := DefaultGraph()
	require.True(t, ApplyDeepLink(nodes, link))

	ds := nodes[1]
	assert.Equal(t, "rsa:test/25m", ds.Qualname)
	assert.Equal(t, "test", ds.Name)
	assert.Equal(t, []string{"grid", "time", "y", "x", "13117", "13125"}, outputNames(ds))
	assert.Equal(t, "scalar", ds.Outputs[4].Type)
	assert.Equal(t, []string{}, ds.Outputs[5].Connections)
}

func TestParseDeepLink_RequiresBoth(t *testing.T) {
	testCases := []string{
		"",
		"dataset=rsa:test/25m",
		"bands=1,2",
		"%zz",
		"dataset=&bands=",
		"dataset=&bands=1",
		"dataset=rsa:test/25m&bands=",
		"dataset=rsa:test/25m&bands=,,",
	}
	for _, raw := range testCases {
		t.Run(raw, func(t *testing.T) {
			_, ok := ParseDeepLink(raw)
			assert.False(t, ok)
		})
	}

	link, ok := ParseDeepLink("?dataset=rsa:a/1m&bands=B1")
	require.True(t, ok)
	assert.Equal(t, []string{"B1"}, link.Bands)

	link, ok = ParseDeepLink("dataset=rsa:a/1m&bands=B1,,B2,")
	require.True(t, ok)
	assert.Equal(t, []string{"B1", "B2"}, link.Bands, "empty band names are skipped")
}

func TestApplyDeepLink_NoInputNode(t *testing.T) {
	nodes := []*node.Node{{Type: node.TypeOutput}}
	assert.False(t, ApplyDeepLink(nodes, DeepLink{Dataset: "rsa:x/1m", Bands: []string{"1"}}))
}

func TestDatasetName(t *testing.T) {
	assert.Equal(t, "test01", DatasetName("rsa:test01/25m"))
	assert.Equal(t, "plain", DatasetName("plain"))
	assert.Equal(t, "noversion", DatasetName("rsa:noversion"))
}
