// Package app wires conduit's dependencies and runs the desktop daemon.
//
// Config is assembled from defaults, an optional TOML file, environment
// variables and command-line flags, in that order. Wire builds the concrete
// stores and clients from it, and App.Run drives the relay link, the local
// API event watcher and the optional metrics endpoint until cancelled.
package app
