// Package app wires the transmission layer's dependency graph.
//
// It builds the audit queue and the session and transfer services from
// Config, exposing them via the Wire struct. One Wire per process (or per
// tenant) owns its own session and transfer arenas.
package app
