package graph

import "github.com/specialistvlad/graphquery/internal/node"

// RewriteConnections replaces every connection entry equal to oldRef with
// newRef and returns how many entries changed.
//
// isInputSide says which side the renamed socket lives on. References to an
// input socket are held by output sockets and vice versa, so only the
// opposite list of every node is scanned. The scan covers the whole graph;
// there is no reverse index to keep in sync.
func RewriteConnections(nodes []*node.Node, isInputSide bool, oldRef, newRef string) int {
	scan := node.Input
	if isInputSide {
		scan = node.Output
	}
	rewritten := 0
	for _, n := range nodes {
		for _, s := range n.Sockets(scan) {
			if s.Connections == nil {
				continue
			}
			for k, ref := range s.Connections {
				if ref == oldRef {
					s.Connections[k] = newRef
					rewritten++
				}
			}
		}
	}
	return rewritten
}
