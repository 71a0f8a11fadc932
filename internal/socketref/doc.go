/*
Package socketref parses, formats and resolves socket references.

A reference names a node, and optionally one of its sockets, in the form
`#nodeId` or `#nodeId/socketName`. Connection lists store references as plain
strings so that a half-edited graph can hold references to nodes or sockets
that do not exist (yet). Resolution therefore never fails loudly: a reference
that does not parse, or that names a missing node, resolves to nothing, and a
reference whose node exists but whose socket does not resolves to the node
alone.
*/
package socketref
