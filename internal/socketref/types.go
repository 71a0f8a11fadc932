package socketref

// Ref is the structured form of a socket reference.
type Ref struct {
	NodeID string
	// Socket is empty for a bare node reference (`#nodeId`).
	Socket string
}

// HasSocket returns true if the reference names a socket.
func (r Ref) HasSocket() bool {
	return r.Socket != ""
}

// String serializes the Ref into its canonical `#node/socket` form.
func (r Ref) String() string {
	if !r.HasSocket() {
		return "#" + r.NodeID
	}
	return "#" + r.NodeID + "/" + r.Socket
}
