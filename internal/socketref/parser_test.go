package socketref

import (
	"testing"

	"github.com/specialistvlad/graphquery/internal/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name        string
		raw         string
		expectErr   bool
		expectedRef Ref
	}{
		{
			name:        "node and socket",
			raw:         "#Blur_0/output",
			expectedRef: Ref{NodeID: "Blur_0", Socket: "output"},
		},
		{
			name:        "bare node",
			raw:         "#small_landsat_0",
			expectedRef: Ref{NodeID: "small_landsat_0"},
		},
		{
			name:        "socket name with slash and pattern",
			raw:         "#ds/B.*/x",
			expectedRef: Ref{NodeID: "ds", Socket: "B.*/x"},
		},
		{name: "error - missing hash", raw: "Blur_0/output", expectErr: true},
		{name: "error - empty", raw: "", expectErr: true},
		{name: "error - empty node", raw: "#/output", expectErr: true},
		{name: "error - trailing slash", raw: "#Blur_0/", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ref, err := Parse(tc.raw)
			if tc.expectErr {
				require.ErrorIs(t, err, ErrInvalidRef)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedRef, ref)
			assert.Equal(t, tc.raw, ref.String())
		})
	}
}

func testNodes() map[string]*node.Node {
	ds := &node.Node{
		ID:   "small_landsat_0",
		Type: node.TypeInput,
		Outputs: []*node.Socket{
			{Name: "grid", Type: "meta"},
			{Name: "B30", Type: "scalar"},
		},
	}
	blur := &node.Node{
		ID:      "Blur_0",
		Type:    node.TypeFilter,
		Inputs:  []*node.Socket{{Name: "input", Type: "PixelSource"}, {Name: "same", Type: "int"}},
		Outputs: []*node.Socket{{Name: "output", Type: "Cell"}, {Name: "same", Type: "Cell"}},
	}
	return map[string]*node.Node{ds.ID: ds, blur.ID: blur}
}

func TestResolve(t *testing.T) {
	nodes := testNodes()

	t.Run("exact socket", func(t *testing.T) {
		n, s, ok := Resolve("#Blur_0/output", nodes, node.Output)
		require.True(t, ok)
		assert.Same(t, nodes["Blur_0"], n)
		assert.Same(t, nodes["Blur_0"].Outputs[0], s)
	})

	t.Run("direction restricts search", func(t *testing.T) {
		n, s, ok := Resolve("#Blur_0/output", nodes, node.Input)
		require.True(t, ok)
		assert.NotNil(t, n)
		assert.Nil(t, s)
	})

	t.Run("any prefers inputs", func(t *testing.T) {
		_, s, ok := Resolve("#Blur_0/same", nodes, node.Any)
		require.True(t, ok)
		assert.Same(t, nodes["Blur_0"].Inputs[1], s)
	})

	t.Run("missing socket keeps node", func(t *testing.T) {
		n, s, ok := Resolve("#small_landsat_0/B99", nodes, node.Any)
		require.True(t, ok)
		assert.Same(t, nodes["small_landsat_0"], n)
		assert.Nil(t, s)
	})

	t.Run("missing node", func(t *testing.T) {
		n, s, ok := Resolve("#nope/B30", nodes, node.Any)
		assert.False(t, ok)
		assert.Nil(t, n)
		assert.Nil(t, s)
	})

	t.Run("malformed", func(t *testing.T) {
		_, _, ok := Resolve("small_landsat_0/B30", nodes, node.Any)
		assert.False(t, ok)
	})
}

func TestFormat_RoundTrip(t *testing.T) {
	nodes := testNodes()
	for _, n := range nodes {
		for _, s := range n.Sockets(node.Output) {
			ref := Format(n, s)
			rn, rs, ok := Resolve(ref, nodes, node.Output)
			require.True(t, ok, ref)
			assert.Same(t, n, rn)
			assert.Same(t, s, rs)
			assert.Equal(t, ref, Format(rn, rs))
		}
	}
}
