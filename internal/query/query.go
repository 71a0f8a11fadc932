// Package query projects an editor graph onto the processing service's query
// document.
package query

import (
	"encoding/xml"
	"errors"
	"fmt"

	"github.com/specialistvlad/graphquery/internal/node"
	"github.com/specialistvlad/graphquery/internal/socketref"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

var (
	ErrNoOutput       = errors.New("query: graph has no output node")
	ErrNoGrid         = errors.New("query: no grid reference could be determined")
	ErrInvalidLiteral = errors.New("query: literal value does not match socket type")
)

// gridSocket is the output node input that selects the output grid.
const gridSocket = "grid"

// Options parameterize serialization.
type Options struct {
	Preview bool
}

// Document is the query as sent to the service.
type Document struct {
	XMLName xml.Name `xml:"query"`
	Inputs  []Input  `xml:"input"`
	Filters []Filter `xml:"filter"`
	Output  Output   `xml:"output"`
}

type Input struct {
	ID   string `xml:"id,attr"`
	Href string `xml:"href,attr"`
}

type Filter struct {
	ID       string    `xml:"id,attr"`
	Class    string    `xml:"cls,attr"`
	Literals []Literal `xml:"literal"`
	Samplers []Sampler `xml:"sampler"`
}

type Literal struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type Sampler struct {
	Name string `xml:"name,attr"`
	Ref  string `xml:"ref,attr"`
}

type Output struct {
	ID        string     `xml:"id,attr"`
	Preview   bool       `xml:"preview,attr,omitempty"`
	Grid      Grid       `xml:"grid"`
	Variables []Variable `xml:"variable"`
}

type Grid struct {
	Ref string `xml:"ref,attr"`
}

type Variable struct {
	Name string `xml:"name,attr"`
	Ref  string `xml:"ref,attr"`
}

// Serialise builds the query document for nodes. It reads the graph only and
// produces the same document for the same graph and options. Unconnected
// sockets are left out; the service reports what is missing.
func Serialise(nodes []*node.Node, opts Options) (*Document, error) {
	doc := &Document{}
	var out *node.Node
	for _, n := range nodes {
		switch n.Type {
		case node.TypeInput:
			doc.Inputs = append(doc.Inputs, Input{ID: n.ID, Href: n.Qualname})
		case node.TypeFilter:
			f, err := filterOf(n)
			if err != nil {
				return nil, err
			}
			doc.Filters = append(doc.Filters, f)
		case node.TypeOutput:
			if out == nil {
				out = n
			}
		}
	}
	if out == nil {
		return nil, ErrNoOutput
	}

	doc.Output = Output{ID: out.ID, Preview: opts.Preview}
	grid, err := gridRef(out, doc.Inputs)
	if err != nil {
		return nil, err
	}
	doc.Output.Grid = Grid{Ref: grid}
	for _, s := range out.Inputs {
		if s.Name == gridSocket || len(s.Connections) == 0 {
			continue
		}
		doc.Output.Variables = append(doc.Output.Variables, Variable{Name: s.Name, Ref: s.Connections[0]})
	}
	return doc, nil
}

func filterOf(n *node.Node) (Filter, error) {
	f := Filter{ID: n.ID, Class: n.Qualname}
	for _, s := range n.Inputs {
		if s.Mode == node.ModeLiteral {
			if err := validateLiteral(s); err != nil {
				return Filter{}, fmt.Errorf("%w: %s: %v", ErrInvalidLiteral, socketref.Format(n, s), err)
			}
			f.Literals = append(f.Literals, Literal{Name: s.Name, Value: s.Value})
			continue
		}
		if len(s.Connections) == 0 {
			continue
		}
		f.Samplers = append(f.Samplers, Sampler{Name: s.Name, Ref: s.Connections[0]})
	}
	return f, nil
}

// validateLiteral checks that the socket's value converts to the type its
// tags ask for.
func validateLiteral(s *node.Socket) error {
	c := node.CapabilityOf(s.Type)
	if !c.LiteralCapable || c.LiteralType.Equals(cty.String) {
		return nil
	}
	_, err := convert.Convert(cty.StringVal(s.Value), c.LiteralType)
	return err
}

// gridRef uses the dataset wired to the output's grid socket, falling back to
// the first input node.
func gridRef(out *node.Node, inputs []Input) (string, error) {
	if s, ok := out.Socket(node.Input, gridSocket); ok && len(s.Connections) > 0 {
		ref, err := socketref.Parse(s.Connections[0])
		if err == nil {
			return socketref.Ref{NodeID: ref.NodeID}.String(), nil
		}
	}
	if len(inputs) > 0 {
		return socketref.Ref{NodeID: inputs[0].ID}.String(), nil
	}
	return "", ErrNoGrid
}

// Encode renders the document as indented XML.
func (d *Document) Encode() ([]byte, error) {
	return xml.MarshalIndent(d, "", "  ")
}

func (d *Document) String() string {
	b, err := d.Encode()
	if err != nil {
		return fmt.Sprintf("<!-- %v -->", err)
	}
	return string(b)
}

// Strip returns a deep copy of nodes without editor bookkeeping, ready to be
// sent or kept as a snapshot.
func Strip(nodes []*node.Node) []*node.Node {
	out := node.CloneAll(nodes)
	for _, n := range out {
		n.Marks = nil
	}
	return out
}
