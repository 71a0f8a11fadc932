package controller

import (
	"github.com/specialistvlad/graphquery/internal/graphfile"
	"github.com/specialistvlad/graphquery/internal/node"
)

// Nodes returns a deep copy of the current graph.
func (c *Controller) Nodes() ([]*node.Node, error) {
	var nodes []*node.Node
	err := c.do(func() { nodes = c.graph.Snapshot() })
	return nodes, err
}

// ConsumeRepaint reports whether the graph was replaced wholesale since the
// last call.
func (c *Controller) ConsumeRepaint() (bool, error) {
	var r bool
	err := c.do(func() { r = c.graph.ConsumeRepaint() })
	return r, err
}

// AddNode adds n to the graph and returns its id. The controller takes
// ownership of n.
func (c *Controller) AddNode(n *node.Node) (string, error) {
	var id string
	err := c.do(func() { id = c.graph.Add(n).ID })
	return id, err
}

// RemoveNode deletes a node. The output node cannot be removed.
func (c *Controller) RemoveNode(id string) error {
	return c.edit(func() error { return c.graph.Remove(id) })
}

// Connect links an output socket to an input socket.
func (c *Controller) Connect(fromRef, toRef string) error {
	return c.edit(func() error { return c.graph.Connect(fromRef, toRef) })
}

// Disconnect removes a link.
func (c *Controller) Disconnect(fromRef, toRef string) error {
	return c.edit(func() error { return c.graph.Disconnect(fromRef, toRef) })
}

// RenameSocket renames a user-added socket and rewrites references to it.
func (c *Controller) RenameSocket(nodeID string, dir node.Direction, oldName, newName string) error {
	return c.edit(func() error {
		_, err := c.graph.RenameSocket(nodeID, dir, oldName, newName)
		return err
	})
}

// SetLiteral changes the value of a filter's literal input.
func (c *Controller) SetLiteral(ref, value string) error {
	return c.edit(func() error { return c.graph.SetLiteral(ref, value) })
}

// AddSocket adds a user socket and returns its name.
func (c *Controller) AddSocket(nodeID string, dir node.Direction) (string, error) {
	var name string
	err := c.edit(func() error {
		s, err := c.graph.AddSocket(nodeID, dir)
		if err != nil {
			return err
		}
		name = s.Name
		return nil
	})
	return name, err
}

// RemoveSocket deletes a user socket.
func (c *Controller) RemoveSocket(nodeID string, dir node.Direction, name string) error {
	return c.edit(func() error { return c.graph.RemoveSocket(nodeID, dir, name) })
}

// ApplyDeepLink seeds the graph's dataset node from link. It reports whether
// the graph changed.
func (c *Controller) ApplyDeepLink(link graphfile.DeepLink) (bool, error) {
	var changed bool
	err := c.do(func() {
		nodes := c.graph.Nodes()
		if changed = graphfile.ApplyDeepLink(nodes, link); changed {
			c.graph.Set(nodes)
		}
	})
	return changed, err
}

func (c *Controller) edit(fn func() error) error {
	var editErr error
	if err := c.do(func() { editErr = fn() }); err != nil {
		return err
	}
	return editErr
}
