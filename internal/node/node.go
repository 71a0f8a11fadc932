package node

// Type distinguishes the three kinds of node that can appear in a graph.
type Type string

const (
	// TypeInput is a dataset node. Its sockets are all outputs (bands and axes).
	TypeInput Type = "input"
	// TypeOutput is the terminal sink of the query. Its inputs become the
	// variables of the produced file.
	TypeOutput Type = "output"
	// TypeFilter is a processing step backed by a filter class on the server.
	TypeFilter Type = "filter"
)

// Direction selects which socket list of a node an operation applies to.
type Direction int

const (
	// Any searches inputs first, then outputs.
	Any Direction = iota
	// Input restricts an operation to the input sockets.
	Input
	// Output restricts an operation to the output sockets.
	Output
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return "any"
	}
}

// Opposite returns the direction whose sockets hold references to sockets of
// this direction. Inputs are referenced from outputs and vice versa.
func (d Direction) Opposite() Direction {
	switch d {
	case Input:
		return Output
	case Output:
		return Input
	default:
		return Any
	}
}

// Position is the editor's layout information for a node. It is carried
// through snapshots untouched and never interpreted here.
type Position struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
}

// Node is a single vertex in the editor graph: a dataset, a filter or the
// output sink.
type Node struct {
	// ID is unique across the live node set. It is assigned lazily from Name
	// when the node first joins a graph.
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name"`
	Type        Type      `json:"type"`
	Qualname    string    `json:"qualname,omitempty"`
	Description string    `json:"description,omitempty"`
	Inputs      []*Socket `json:"inputs"`
	Outputs     []*Socket `json:"outputs"`

	// Position is editor layout, opaque to this package.
	Position *Position `json:"position,omitempty"`
	// Marks holds bookkeeping written by the hosting UI framework
	// (e.g. "$$hashKey"). It never reaches the processing service.
	Marks map[string]string `json:"marks,omitempty"`
}

// Sockets returns the socket list selected by dir. For Any the result is a
// new slice holding the inputs followed by the outputs.
func (n *Node) Sockets(dir Direction) []*Socket {
	switch dir {
	case Input:
		return n.Inputs
	case Output:
		return n.Outputs
	default:
		all := make([]*Socket, 0, len(n.Inputs)+len(n.Outputs))
		all = append(all, n.Inputs...)
		return append(all, n.Outputs...)
	}
}

// Socket returns the first socket named name in the list selected by dir.
func (n *Node) Socket(dir Direction, name string) (*Socket, bool) {
	for _, s := range n.Sockets(dir) {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// DirectionOf reports which list s belongs to.
func (n *Node) DirectionOf(s *Socket) (Direction, bool) {
	for _, in := range n.Inputs {
		if in == s {
			return Input, true
		}
	}
	for _, out := range n.Outputs {
		if out == s {
			return Output, true
		}
	}
	return Any, false
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Inputs = cloneSockets(n.Inputs)
	c.Outputs = cloneSockets(n.Outputs)
	if n.Position != nil {
		p := *n.Position
		c.Position = &p
	}
	if n.Marks != nil {
		c.Marks = make(map[string]string, len(n.Marks))
		for k, v := range n.Marks {
			c.Marks[k] = v
		}
	}
	return &c
}

// CloneAll deep copies a node list, preserving order.
func CloneAll(nodes []*Node) []*Node {
	if nodes == nil {
		return nil
	}
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

func cloneSockets(in []*Socket) []*Socket {
	if in == nil {
		return nil
	}
	out := make([]*Socket, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}
