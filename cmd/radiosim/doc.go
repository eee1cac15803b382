// Package main hosts the radiosim CLI entrypoint and command graph.
//
// The Cobra command tree loads the configuration, builds the interferometer
// settings tree, attaches the configured backend (a TOML/YAML file or the
// SQLite profile store) and exposes inspection and editing commands on top
// of it. Add behaviour to the internal packages first and surface it here.
package main
