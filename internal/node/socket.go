package node

import (
	"encoding/json"
)

// Mode is the state a socket is in. A normalized socket is either literal or
// connected; ModeUnset only exists between decoding and the first reconcile.
type Mode int

const (
	ModeUnset Mode = iota
	// ModeConnected sockets carry a list of references to other sockets.
	ModeConnected
	// ModeLiteral sockets carry a directly entered value.
	ModeLiteral
)

func (m Mode) String() string {
	switch m {
	case ModeConnected:
		return "connected"
	case ModeLiteral:
		return "literal"
	default:
		return "unset"
	}
}

// Socket is a named, typed port on a node.
type Socket struct {
	Name string
	// Type is a comma-separated list of capability tags, e.g. "scalar,axis".
	Type string
	Mode Mode
	// Connections is meaningful only in ModeConnected.
	Connections []string
	// Value is meaningful only in ModeLiteral.
	Value string
	// Synthetic sockets were added by the user and may be renamed or removed.
	Synthetic bool
}

// Clone returns a deep copy of the socket.
func (s *Socket) Clone() *Socket {
	if s == nil {
		return nil
	}
	c := *s
	if s.Connections != nil {
		c.Connections = append(make([]string, 0, len(s.Connections)), s.Connections...)
	}
	return &c
}

// IsLiteral reports whether the socket's type accepts a literal value.
func (s *Socket) IsLiteral() bool {
	return CapabilityOf(s.Type).LiteralCapable
}

// HasConnection reports whether ref appears in the connection list.
func (s *Socket) HasConnection(ref string) bool {
	for _, c := range s.Connections {
		if c == ref {
			return true
		}
	}
	return false
}

// socketJSON is the wire shape of a socket. Pointer fields keep "absent"
// distinguishable from "empty", which is what the mode is derived from.
type socketJSON struct {
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Connections *[]string `json:"connections,omitempty"`
	Value       *string   `json:"value,omitempty"`
	Synthetic   bool      `json:"synthetic,omitempty"`
}

// MarshalJSON emits only the field belonging to the socket's mode.
func (s *Socket) MarshalJSON() ([]byte, error) {
	w := socketJSON{Name: s.Name, Type: s.Type, Synthetic: s.Synthetic}
	switch s.Mode {
	case ModeLiteral:
		v := s.Value
		w.Value = &v
	case ModeConnected:
		conns := s.Connections
		if conns == nil {
			conns = []string{}
		}
		w.Connections = &conns
	default:
		if s.Connections != nil {
			conns := s.Connections
			w.Connections = &conns
		}
		if s.Value != "" {
			v := s.Value
			w.Value = &v
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON derives the mode from whichever field is present. A socket
// carrying neither stays ModeUnset until the graph reconciles it.
func (s *Socket) UnmarshalJSON(data []byte) error {
	var w socketJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Socket{Name: w.Name, Type: w.Type, Synthetic: w.Synthetic}
	switch {
	case w.Value != nil && w.Connections == nil:
		s.Mode = ModeLiteral
		s.Value = *w.Value
	case w.Connections != nil:
		s.Mode = ModeConnected
		s.Connections = append([]string{}, (*w.Connections)...)
		if w.Value != nil {
			s.Value = *w.Value
		}
	}
	return nil
}
