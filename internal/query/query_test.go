package query

import (
	"encoding/xml"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/graphquery/internal/graph"
	"github.com/specialistvlad/graphquery/internal/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blurGraph() *graph.Model {
	return graph.New([]*node.Node{
		{
			Name: "Output",
			Type: node.TypeOutput,
			Inputs: []*node.Socket{
				{Name: "grid", Type: "meta", Connections: []string{"#small_landsat_0/grid"}},
				{Name: "Band0", Type: node.SyntheticType, Synthetic: true, Connections: []string{"#Blur_0/output"}},
				{Name: "Band1", Type: node.SyntheticType, Synthetic: true},
			},
			Marks: map[string]string{"$$hashKey": "003"},
		},
		{
			Name:     "Blur",
			Type:     node.TypeFilter,
			Qualname: "org.vpac.ndg.query.Blur",
			Inputs: []*node.Socket{
				{Name: "input", Type: "PixelSource", Connections: []string{"#small_landsat_0/B30"}},
				{Name: "radius", Type: "double", Value: "2"},
			},
			Outputs: []*node.Socket{{Name: "output", Type: "Cell", Connections: []string{"#Output_0/Band0"}}},
		},
		{
			Name:     "small_landsat",
			Type:     node.TypeInput,
			Qualname: "rsa:small_landsat/100m",
			Outputs: []*node.Socket{
				{Name: "grid", Type: "meta"},
				{Name: "B30", Type: "scalar", Connections: []string{"#Blur_0/input"}},
			},
		},
	})
}

func TestSerialise(t *testing.T) {
	doc, err := Serialise(blurGraph().Nodes(), Options{})
	require.NoError(t, err)

	expected := &Document{
		Inputs: []Input{{ID: "small_landsat_0", Href: "rsa:small_landsat/100m"}},
		Filters: []Filter{{
			ID:       "Blur_0",
			Class:    "org.vpac.ndg.query.Blur",
			Literals: []Literal{{Name: "radius", Value: "2"}},
			Samplers: []Sampler{{Name: "input", Ref: "#small_landsat_0/B30"}},
		}},
		Output: Output{
			ID:        "Output_0",
			Grid:      Grid{Ref: "#small_landsat_0"},
			Variables: []Variable{{Name: "Band0", Ref: "#Blur_0/output"}},
		},
	}
	if diff := cmp.Diff(expected, doc); diff != "" {
		t.Fatalf("unexpected document (-want +got):\n%s", diff)
	}
}

func TestSerialise_PreviewFlagAndEncoding(t *testing.T) {
	doc, err := Serialise(blurGraph().Nodes(), Options{Preview: true})
	require.NoError(t, err)

	text := doc.String()
	assert.Contains(t, text, `<output id="Output_0" preview="true">`)
	assert.Contains(t, text, `<grid ref="#small_landsat_0">`)
	assert.Contains(t, text, `<literal name="radius" value="2">`)

	var decoded Document
	require.NoError(t, xml.Unmarshal([]byte(text), &decoded))
	assert.True(t, decoded.Output.Preview)
	assert.Equal(t, doc.Filters, decoded.Filters)
}

func TestSerialise_DoesNotMutateGraph(t *testing.T) {
	m := blurGraph()
	before := m.Snapshot()

	_, err := Serialise(m.Nodes(), Options{Preview: true})
	require.NoError(t, err)

	if diff := cmp.Diff(before, m.Snapshot()); diff != "" {
		t.Fatalf("serialise changed the graph:\n%s", diff)
	}
}

func TestSerialise_GridFallsBackToFirstInput(t *testing.T) {
	m := blurGraph()
	grid, ok := m.SocketByRef("#Output_0/grid")
	require.True(t, ok)
	grid.Connections = []string{}

	doc, err := Serialise(m.Nodes(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "#small_landsat_0", doc.Output.Grid.Ref)
}

func TestSerialise_Errors(t *testing.T) {
	t.Run("no output node", func(t *testing.T) {
		_, err := Serialise([]*node.Node{{ID: "ds", Type: node.TypeInput}}, Options{})
		assert.ErrorIs(t, err, ErrNoOutput)
	})

	t.Run("no grid", func(t *testing.T) {
		_, err := Serialise([]*node.Node{{ID: "out", Type: node.TypeOutput}}, Options{})
		assert.ErrorIs(t, err, ErrNoGrid)
	})

	t.Run("invalid literal", func(t *testing.T) {
		m := blurGraph()
		require.NoError(t, m.SetLiteral("#Blur_0/radius", "wide"))
		_, err := Serialise(m.Nodes(), Options{})
		assert.ErrorIs(t, err, ErrInvalidLiteral)
		assert.Contains(t, err.Error(), "#Blur_0/radius")
	})
}

func TestStrip(t *testing.T) {
	m := blurGraph()
	stripped := Strip(m.Nodes())

	out, _ := m.Output()
	assert.Equal(t, "003", out.Marks["$$hashKey"], "the live graph keeps its marks")
	for _, n := range stripped {
		assert.Nil(t, n.Marks)
	}
	assert.NotSame(t, out, stripped[0])
}
