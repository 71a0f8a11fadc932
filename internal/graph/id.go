package graph

import (
	"fmt"
	"regexp"

	"github.com/specialistvlad/graphquery/internal/node"
)

var nonWord = regexp.MustCompile(`\W+`)

// EnsureUniqueID returns the node's id, deriving one from its name when it
// has none. The derived id is the name with every run of non-word characters
// replaced by `_`, suffixed with the smallest `_<i>` not present in existing.
// It does not modify the node.
func EnsureUniqueID[V any](n *node.Node, existing map[string]V) string {
	if n.ID != "" {
		return n.ID
	}
	base := nonWord.ReplaceAllString(n.Name, "_")
	for i := 0; ; i++ {
		id := fmt.Sprintf("%s_%d", base, i)
		if _, taken := existing[id]; !taken {
			return id
		}
	}
}
