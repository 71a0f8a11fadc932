package node

import (
	"errors"
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"
)

var (
	ErrSocketNotAddable   = errors.New("node: sockets cannot be added in this direction")
	ErrSocketNotRemovable = errors.New("node: socket is not synthetic and cannot be removed")
	ErrSocketNotFound     = errors.New("node: socket not found")
)

// SyntheticType is the type tag given to user-added sockets.
const SyntheticType = "synthetic"

// syntheticOutputName matches any band socket starting with a B (B20, Band1...).
const syntheticOutputName = "B.*"

// CanDestroy reports whether the node may be removed from a graph. The
// output node is the query's sink and always stays.
func (n *Node) CanDestroy() bool {
	return n.Type != TypeOutput
}

// CanAddSocket reports whether the user may add a socket in dir. Output
// nodes grow variables (inputs); input nodes grow bands (outputs).
func (n *Node) CanAddSocket(dir Direction) bool {
	switch {
	case n.Type == TypeOutput && dir == Input:
		return true
	case n.Type == TypeInput && dir == Output:
		return true
	}
	return false
}

// AddSocket appends a new synthetic socket in dir and returns it. Input
// sockets get the first free name of the form Band<j>; output sockets are
// named with a pattern matching any band.
func (n *Node) AddSocket(dir Direction) (*Socket, error) {
	if !n.CanAddSocket(dir) {
		return nil, fmt.Errorf("%w: %s on %s node %q", ErrSocketNotAddable, dir, n.Type, n.Name)
	}
	s := &Socket{
		Type:        SyntheticType,
		Mode:        ModeConnected,
		Connections: []string{},
		Synthetic:   true,
	}
	if dir == Input {
		taken := make(map[string]struct{}, len(n.Inputs))
		for _, other := range n.Inputs {
			taken[other.Name] = struct{}{}
		}
		for j := 0; ; j++ {
			name := fmt.Sprintf("Band%d", j)
			if _, ok := taken[name]; !ok {
				s.Name = name
				break
			}
		}
		n.Inputs = append(n.Inputs, s)
		return s, nil
	}
	s.Name = syntheticOutputName
	n.Outputs = append(n.Outputs, s)
	return s, nil
}

// CanRemoveSocket reports whether s may be deleted. Only user-added sockets
// can go; the rest come from the node's static definition.
func (n *Node) CanRemoveSocket(s *Socket) bool {
	return s != nil && s.Synthetic
}

// RemoveSocket deletes s from whichever list holds it.
func (n *Node) RemoveSocket(s *Socket) error {
	if !n.CanRemoveSocket(s) {
		return ErrSocketNotRemovable
	}
	if i := indexOf(n.Inputs, s); i >= 0 {
		n.Inputs = append(n.Inputs[:i], n.Inputs[i+1:]...)
		return nil
	}
	if i := indexOf(n.Outputs, s); i >= 0 {
		n.Outputs = append(n.Outputs[:i], n.Outputs[i+1:]...)
		return nil
	}
	return ErrSocketNotFound
}

func indexOf(list []*Socket, s *Socket) int {
	for i, candidate := range list {
		if candidate == s {
			return i
		}
	}
	return -1
}

// EditKind says how the user may edit a socket.
type EditKind int

const (
	EditNone EditKind = iota
	// EditRenameInputSide renames a variable of the output node. Other
	// nodes' outputs hold references to it.
	EditRenameInputSide
	// EditRenameOutputSide renames a band of an input node. Other nodes'
	// inputs hold references to it.
	EditRenameOutputSide
	// EditLiteral changes the value of a filter's literal socket.
	EditLiteral
)

// EditKindOf classifies s for editing.
func (n *Node) EditKindOf(s *Socket) EditKind {
	switch {
	case n.Type == TypeOutput && s.Synthetic:
		return EditRenameInputSide
	case n.Type == TypeInput && s.Synthetic:
		return EditRenameOutputSide
	case n.Type == TypeFilter && s.IsLiteral():
		return EditLiteral
	}
	return EditNone
}

var (
	longPrefix  = regexp.MustCompile(`^(input|output)(.+)$`)
	shortPrefix = regexp.MustCompile(`^(in|out)(.+)$`)
)

// DisplayName returns the label shown for a socket: filter fields such as
// "inputBand" or "outMask" lose their direction prefix. Names without a
// camel-case prefix are returned untouched.
func DisplayName(s *Socket) string {
	if m := longPrefix.FindStringSubmatch(s.Name); m != nil {
		return lowerFirst(m[2])
	}
	if m := shortPrefix.FindStringSubmatch(s.Name); m != nil && m[2] != "put" {
		return lowerFirst(m[2])
	}
	return s.Name
}

func lowerFirst(str string) string {
	r, size := utf8.DecodeRuneInString(str)
	if r == utf8.RuneError {
		return str
	}
	return string(unicode.ToLower(r)) + str[size:]
}
