package graphfile

import (
	"net/url"
	"strings"

	"github.com/specialistvlad/graphquery/internal/node"
)

// staticOutputs is how many leading outputs of a dataset node (grid, time,
// y, x) survive seeding.
const staticOutputs = 4

// DeepLink selects a dataset and its bands for the starting graph.
type DeepLink struct {
	Dataset string
	Bands   []string
}

// ParseDeepLink reads the `dataset` and `bands` parameters of a query
// string. ok is false unless both carry a value. Empty band names are
// skipped.
func ParseDeepLink(rawQuery string) (DeepLink, bool) {
	values, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if err != nil {
		return DeepLink{}, false
	}
	dataset := strings.TrimSpace(values.Get("dataset"))
	var bands []string
	for _, b := range strings.Split(values.Get("bands"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			bands = append(bands, b)
		}
	}
	if dataset == "" || len(bands) == 0 {
		return DeepLink{}, false
	}
	return DeepLink{Dataset: dataset, Bands: bands}, true
}

// DatasetName derives a display name from a qualified dataset name:
// "rsa:test01/25m" becomes "test01".
func DatasetName(qualname string) string {
	name := qualname
	if i := strings.Index(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "/"); i >= 0 {
		name = name[:i]
	}
	return name
}

// ApplyDeepLink seeds the first input node of nodes from link: its name and
// qualname change, its first four outputs are kept and the rest are replaced
// with one scalar output per band. It reports whether a node was changed.
func ApplyDeepLink(nodes []*node.Node, link DeepLink) bool {
	var ds *node.Node
	for _, n := range nodes {
		if n.Type == node.TypeInput {
			ds = n
			break
		}
	}
	if ds == nil {
		return false
	}

	ds.Name = DatasetName(link.Dataset)
	ds.Qualname = link.Dataset

	keep := min(staticOutputs, len(ds.Outputs))
	outputs := make([]*node.Socket, 0, keep+len(link.Bands))
	outputs = append(outputs, ds.Outputs[:keep]...)
	for _, band := range link.Bands {
		outputs = append(outputs, &node.Socket{
			Name:        band,
			Type:        "scalar",
			Mode:        node.ModeConnected,
			Connections: []string{},
		})
	}
	ds.Outputs = outputs
	return true
}
