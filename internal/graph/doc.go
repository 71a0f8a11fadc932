// Package graph holds the editor's node graph: the ordered node set, the
// id map that keeps node ids unique, and the normalization that keeps every
// socket in exactly one of its two modes.
//
// # Ownership
//
// A Model is owned by a single logical controller. It performs no locking;
// callers that share a Model between goroutines must serialize access (see
// internal/controller, which runs every mutation on one queue).
//
// # Reconciliation
//
// Every structural change (adding or removing nodes, adding or removing
// sockets, restoring a snapshot) ends in a reconcile pass over the whole node
// set:
//
//  1. Nodes no longer present are dropped from the id map.
//  2. Nodes without an id get one derived from their name.
//  3. Every socket is normalized: literal-capable input sockets hold a value
//     and no connections, all other sockets hold connections and no value.
//     Defaults are only filled in when absent, so the pass is idempotent.
//  4. The derived reference index (ref -> socket) is rebuilt.
//
// # References
//
// Connections are stored as reference strings (see internal/socketref).
// Dangling references are tolerated to support in-progress edits; renaming a
// socket rewrites every reference to it with a full scan (RewriteConnections).
package graph
