package graph

import (
	"github.com/specialistvlad/graphquery/internal/node"
	"github.com/specialistvlad/graphquery/internal/socketref"
)

// Reconcile brings the id map and every socket of newNodes into a normalized
// state after a mutation. Running it again on its own output changes nothing.
//
// Explicit ids are registered first so that derived ids never collide with
// them. When two nodes carry the same explicit id, the later one is given a
// fresh id derived from its name. newNodes becomes the model's node list.
func (m *Model) Reconcile(oldNodes, newNodes []*node.Node) {
	m.nodes = newNodes
	if m.index == nil {
		m.index = make(map[string]*node.Node, len(newNodes))
	}

	live := make(map[*node.Node]struct{}, len(newNodes))
	for _, n := range newNodes {
		live[n] = struct{}{}
	}
	for _, n := range oldNodes {
		if _, ok := live[n]; ok {
			continue
		}
		if m.index[n.ID] == n {
			delete(m.index, n.ID)
		}
	}
	// Drop entries that no longer point into the live set, e.g. after Set
	// replaced the list with unrelated nodes.
	for id, n := range m.index {
		if _, ok := live[n]; !ok || n.ID != id {
			delete(m.index, id)
		}
	}

	var pending []*node.Node
	for _, n := range newNodes {
		if n.ID == "" {
			pending = append(pending, n)
			continue
		}
		if owner, taken := m.index[n.ID]; taken && owner != n {
			n.ID = ""
			pending = append(pending, n)
			continue
		}
		m.index[n.ID] = n
	}
	for _, n := range pending {
		n.ID = EnsureUniqueID(n, m.index)
		m.index[n.ID] = n
	}

	for _, n := range newNodes {
		normalize(n)
	}
	m.rebuildIndex()
}

// normalize puts every socket of n in its mode. Only input sockets whose type
// accepts a literal become literal; everything else is connected.
func normalize(n *node.Node) {
	for _, s := range n.Inputs {
		if s.IsLiteral() {
			toLiteral(s)
		} else {
			toConnected(s)
		}
	}
	for _, s := range n.Outputs {
		toConnected(s)
	}
}

func toLiteral(s *node.Socket) {
	s.Mode = node.ModeLiteral
	s.Connections = nil
}

func toConnected(s *node.Socket) {
	s.Mode = node.ModeConnected
	s.Value = ""
	if s.Connections == nil {
		s.Connections = []string{}
	}
}

func (m *Model) rebuildIndex() {
	m.sockets = make(map[string]*node.Socket)
	for _, n := range m.nodes {
		for _, s := range n.Sockets(node.Any) {
			ref := socketref.Format(n, s)
			if _, seen := m.sockets[ref]; !seen {
				m.sockets[ref] = s
			}
		}
	}
}
