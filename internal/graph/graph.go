package graph

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/graphquery/internal/node"
	"github.com/specialistvlad/graphquery/internal/socketref"
)

var (
	ErrNodeNotFound      = errors.New("graph: node not found")
	ErrOutputNodeRemoval = errors.New("graph: the output node cannot be removed")
	ErrSocketNotEditable = errors.New("graph: socket is not editable this way")
	ErrUnresolvedRef     = errors.New("graph: reference does not resolve to a socket")
	ErrLiteralSocket     = errors.New("graph: literal sockets cannot be connected")
)

// Model is the live node set together with the id map and the derived
// reference index. The zero value is an empty graph.
type Model struct {
	nodes []*node.Node
	index map[string]*node.Node
	// sockets maps canonical references to sockets. Inputs are registered
	// before outputs so a name present on both sides resolves like
	// socketref.Resolve with node.Any.
	sockets map[string]*node.Socket
	repaint bool
}

// New returns a model holding nodes, reconciled.
func New(nodes []*node.Node) *Model {
	m := &Model{}
	m.Set(nodes)
	return m
}

// Set replaces the node list and reconciles it against the previous one.
func (m *Model) Set(nodes []*node.Node) {
	old := m.nodes
	m.nodes = append([]*node.Node(nil), nodes...)
	m.Reconcile(old, m.nodes)
}

// Nodes returns the live nodes in graph order. The slice is a copy; the nodes
// are not.
func (m *Model) Nodes() []*node.Node {
	return append([]*node.Node(nil), m.nodes...)
}

// Len returns the number of nodes.
func (m *Model) Len() int { return len(m.nodes) }

// Node looks a node up by id.
func (m *Model) Node(id string) (*node.Node, bool) {
	n, ok := m.index[id]
	return n, ok
}

// NodeMap returns a copy of the id map.
func (m *Model) NodeMap() map[string]*node.Node {
	out := make(map[string]*node.Node, len(m.index))
	for id, n := range m.index {
		out[id] = n
	}
	return out
}

// Output returns the first output node.
func (m *Model) Output() (*node.Node, bool) {
	for _, n := range m.nodes {
		if n.Type == node.TypeOutput {
			return n, true
		}
	}
	return nil, false
}

// Add appends n to the graph and returns it with its id assigned.
func (m *Model) Add(n *node.Node) *node.Node {
	m.Set(append(m.Nodes(), n))
	return n
}

// Remove deletes the node with the given id. Connections pointing at it are
// left in place and simply stop resolving.
func (m *Model) Remove(id string) error {
	n, ok := m.index[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	if !n.CanDestroy() {
		return fmt.Errorf("%w: %q", ErrOutputNodeRemoval, id)
	}
	kept := make([]*node.Node, 0, len(m.nodes)-1)
	for _, other := range m.nodes {
		if other != n {
			kept = append(kept, other)
		}
	}
	m.Set(kept)
	return nil
}

// Snapshot returns a deep copy of the node list.
func (m *Model) Snapshot() []*node.Node {
	return node.CloneAll(m.nodes)
}

// Restore replaces the whole graph with a copy of snapshot and flags that
// everything downstream has to be redrawn.
func (m *Model) Restore(snapshot []*node.Node) {
	m.Set(node.CloneAll(snapshot))
	m.repaint = true
}

// ConsumeRepaint reports whether a full repaint was requested since the last
// call and clears the flag.
func (m *Model) ConsumeRepaint() bool {
	r := m.repaint
	m.repaint = false
	return r
}

// Resolve looks ref up against the current id map.
func (m *Model) Resolve(ref string, dir node.Direction) (*node.Node, *node.Socket, bool) {
	return socketref.Resolve(ref, m.index, dir)
}

// SocketByRef returns the socket a canonical reference points at, using the
// index rebuilt on every reconcile.
func (m *Model) SocketByRef(ref string) (*node.Socket, bool) {
	s, ok := m.sockets[ref]
	return s, ok
}

func (m *Model) endpoint(ref string, dir node.Direction) (*node.Node, *node.Socket, error) {
	n, s, ok := m.Resolve(ref, dir)
	if !ok || s == nil {
		return nil, nil, fmt.Errorf("%w: %s (%s)", ErrUnresolvedRef, ref, dir)
	}
	return n, s, nil
}

// Connect links the output socket fromRef to the input socket toRef. Both
// ends record the other's reference. Connecting an existing link is a no-op.
func (m *Model) Connect(fromRef, toRef string) error {
	_, from, err := m.endpoint(fromRef, node.Output)
	if err != nil {
		return err
	}
	_, to, err := m.endpoint(toRef, node.Input)
	if err != nil {
		return err
	}
	if to.Mode == node.ModeLiteral {
		return fmt.Errorf("%w: %s", ErrLiteralSocket, toRef)
	}
	if !from.HasConnection(toRef) {
		from.Connections = append(from.Connections, toRef)
	}
	if !to.HasConnection(fromRef) {
		to.Connections = append(to.Connections, fromRef)
	}
	return nil
}

// Disconnect removes the link between fromRef and toRef from whichever ends
// still resolve. It fails only when neither end does.
func (m *Model) Disconnect(fromRef, toRef string) error {
	_, from, fromErr := m.endpoint(fromRef, node.Output)
	_, to, toErr := m.endpoint(toRef, node.Input)
	if fromErr != nil && toErr != nil {
		return fromErr
	}
	if from != nil {
		from.Connections = without(from.Connections, toRef)
	}
	if to != nil {
		to.Connections = without(to.Connections, fromRef)
	}
	return nil
}

func without(list []string, ref string) []string {
	out := list[:0]
	for _, c := range list {
		if c != ref {
			out = append(out, c)
		}
	}
	return out
}

// RenameSocket renames a user-added socket on an input or output node and
// rewrites every connection that referred to it. It returns the number of
// rewritten connection entries.
func (m *Model) RenameSocket(nodeID string, dir node.Direction, oldName, newName string) (int, error) {
	n, ok := m.index[nodeID]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrNodeNotFound, nodeID)
	}
	s, ok := n.Socket(dir, oldName)
	if !ok {
		return 0, fmt.Errorf("%w: %s/%s", node.ErrSocketNotFound, nodeID, oldName)
	}
	kind := n.EditKindOf(s)
	wantKind := node.EditRenameOutputSide
	if dir == node.Input {
		wantKind = node.EditRenameInputSide
	}
	if kind != wantKind || newName == "" {
		return 0, fmt.Errorf("%w: %s/%s", ErrSocketNotEditable, nodeID, oldName)
	}
	if newName == oldName {
		return 0, nil
	}
	if _, taken := n.Socket(dir, newName); taken {
		return 0, fmt.Errorf("%w: %s/%s already exists", ErrSocketNotEditable, nodeID, newName)
	}
	oldRef := socketref.Format(n, s)
	s.Name = newName
	rewritten := RewriteConnections(m.nodes, dir == node.Input, oldRef, socketref.Format(n, s))
	m.rebuildIndex()
	return rewritten, nil
}

// SetLiteral stores value on the literal input socket ref points at.
func (m *Model) SetLiteral(ref, value string) error {
	n, s, err := m.endpoint(ref, node.Input)
	if err != nil {
		return err
	}
	if n.EditKindOf(s) != node.EditLiteral {
		return fmt.Errorf("%w: %s is not a literal", ErrSocketNotEditable, ref)
	}
	s.Value = value
	return nil
}

// AddSocket adds a user socket to the node and reconciles the graph.
func (m *Model) AddSocket(nodeID string, dir node.Direction) (*node.Socket, error) {
	n, ok := m.index[nodeID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNodeNotFound, nodeID)
	}
	s, err := n.AddSocket(dir)
	if err != nil {
		return nil, err
	}
	m.Reconcile(m.nodes, m.nodes)
	return s, nil
}

// RemoveSocket deletes a user socket from the node and reconciles the graph.
func (m *Model) RemoveSocket(nodeID string, dir node.Direction, name string) error {
	n, ok := m.index[nodeID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, nodeID)
	}
	s, ok := n.Socket(dir, name)
	if !ok {
		return fmt.Errorf("%w: %s/%s", node.ErrSocketNotFound, nodeID, name)
	}
	if err := n.RemoveSocket(s); err != nil {
		return err
	}
	m.Reconcile(m.nodes, m.nodes)
	return nil
}
