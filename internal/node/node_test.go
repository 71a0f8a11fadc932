package node

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestCapabilityOf(t *testing.T) {
	testCases := []struct {
		tag         string
		literal     bool
		literalType cty.Type
	}{
		{tag: "scalar,axis", literal: false},
		{tag: "PixelSource", literal: false},
		{tag: "meta", literal: false},
		{tag: SyntheticType, literal: false},
		{tag: "double", literal: true, literalType: cty.Number},
		{tag: "scalar, int", literal: true, literalType: cty.Number},
		{tag: "boolean", literal: true, literalType: cty.Bool},
		{tag: "String", literal: true, literalType: cty.String},
	}

	for _, tc := range testCases {
		t.Run(tc.tag, func(t *testing.T) {
			c := CapabilityOf(tc.tag)
			assert.Equal(t, tc.literal, c.LiteralCapable)
			if tc.literal {
				assert.True(t, tc.literalType.Equals(c.LiteralType))
			}
		})
	}
}

func TestSocketJSON_ModeFromPresentField(t *testing.T) {
	var connected, literal, unset Socket
	require.NoError(t, json.Unmarshal([]byte(`{"name":"a","type":"scalar","connections":["#x/y"]}`), &connected))
	require.NoError(t, json.Unmarshal([]byte(`{"name":"b","type":"int","value":"3"}`), &literal))
	require.NoError(t, json.Unmarshal([]byte(`{"name":"c","type":"meta"}`), &unset))

	assert.Equal(t, ModeConnected, connected.Mode)
	assert.Equal(t, []string{"#x/y"}, connected.Connections)
	assert.Equal(t, ModeLiteral, literal.Mode)
	assert.Equal(t, "3", literal.Value)
	assert.Equal(t, ModeUnset, unset.Mode)
	assert.Nil(t, unset.Connections)
}

func TestSocketJSON_OnlyActiveFieldIsWritten(t *testing.T) {
	lit := &Socket{Name: "radius", Type: "double", Mode: ModeLiteral, Value: "", Connections: []string{"#stale"}}
	raw, err := json.Marshal(lit)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"radius","type":"double","value":""}`, string(raw))

	conn := &Socket{Name: "input", Type: "PixelSource", Mode: ModeConnected, Value: "stale"}
	raw, err = json.Marshal(conn)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"input","type":"PixelSource","connections":[]}`, string(raw))
}

func TestClone_IsDeep(t *testing.T) {
	n := &Node{
		ID:       "blur_0",
		Name:     "Blur",
		Type:     TypeFilter,
		Inputs:   []*Socket{{Name: "input", Type: "PixelSource", Mode: ModeConnected, Connections: []string{"#a/b"}}},
		Position: &Position{X: 1, Y: 2},
		Marks:    map[string]string{"$$hashKey": "004"},
	}
	c := n.Clone()
	c.Inputs[0].Connections[0] = "#changed"
	c.Position.X = 99
	c.Marks["$$hashKey"] = "005"

	assert.Equal(t, "#a/b", n.Inputs[0].Connections[0])
	assert.Equal(t, float64(1), n.Position.X)
	assert.Equal(t, "004", n.Marks["$$hashKey"])
	assert.NotSame(t, n.Inputs[0], c.Inputs[0])
}

func TestSockets_AnyIsInputsThenOutputs(t *testing.T) {
	in := &Socket{Name: "x"}
	out := &Socket{Name: "x"}
	n := &Node{Inputs: []*Socket{in}, Outputs: []*Socket{out}}

	all := n.Sockets(Any)
	require.Len(t, all, 2)
	assert.Same(t, in, all[0])
	assert.Same(t, out, all[1])

	found, ok := n.Socket(Output, "x")
	require.True(t, ok)
	assert.Same(t, out, found)
}
