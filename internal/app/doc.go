// Package app wires a graphquery session together: it loads the graph and
// service settings, builds the service client and the controller, submits
// the query and follows it to a preview file or a downloaded output. It is
// decoupled from any specific entrypoint like a CLI.
package app
