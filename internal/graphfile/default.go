package graphfile

import (
	_ "embed"
	"fmt"

	"github.com/specialistvlad/graphquery/internal/node"
)

//go:embed default.json
var defaultGraph []byte

// DefaultGraph returns a fresh copy of the starting graph: one dataset blurred
// into the output.
func DefaultGraph() []*node.Node {
	nodes, err := decodeJSONNodes(defaultGraph)
	if err != nil {
		panic(fmt.Sprintf("graphfile: embedded default graph is invalid: %v", err))
	}
	return nodes
}
