// Package commands defines the casewire CLI.
//
// The CLI is a thin exercise harness for the transmission layer: the demo
// command runs a complete session, transfer and channel exchange in
// process. Production callers embed the services via internal/app instead.
package commands
