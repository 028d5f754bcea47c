// Package main hosts the Sentinel CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into tracking
// store mutations, presence lookups, deployment configuration, and status
// calls against the running daemon's management API. It centralizes
// configuration resolution so subcommands can focus on user experience
// instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
