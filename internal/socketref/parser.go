package socketref

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/specialistvlad/graphquery/internal/node"
)

// ErrInvalidRef is returned by Parse for strings that are not references.
var ErrInvalidRef = errors.New("socketref: invalid reference")

// refRegex captures the node id and the optional socket name. The socket name
// may itself contain slashes.
var refRegex = regexp.MustCompile(`^#([^/]+)(/(.+))?$`)

// Parse creates a Ref from its string form.
func Parse(raw string) (Ref, error) {
	m := refRegex.FindStringSubmatch(raw)
	if m == nil {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalidRef, raw)
	}
	return Ref{NodeID: m[1], Socket: m[3]}, nil
}

// Format produces the canonical reference of socket s on node n. It is the
// exact inverse of Resolve for any socket that exists on the node.
func Format(n *node.Node, s *node.Socket) string {
	return Ref{NodeID: n.ID, Socket: s.Name}.String()
}

// Resolve looks ref up in nodes. ok is false when ref does not parse or its
// node is absent. When the node exists but no socket in the list selected by
// dir has the referenced name, the node is returned with a nil socket.
func Resolve(ref string, nodes map[string]*node.Node, dir node.Direction) (n *node.Node, s *node.Socket, ok bool) {
	r, err := Parse(ref)
	if err != nil {
		return nil, nil, false
	}
	n, found := nodes[r.NodeID]
	if !found || n == nil {
		return nil, nil, false
	}
	if !r.HasSocket() {
		return n, nil, true
	}
	if s, found := n.Socket(dir, r.Socket); found {
		return n, s, true
	}
	return n, nil, true
}
