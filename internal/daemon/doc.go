// Package daemon wires the engine together and exposes the operations the
// command surface invokes: track management, deployment configuration, and
// status. It enforces single-instance execution via a lock file and hosts
// the HTTP management API.
package daemon
