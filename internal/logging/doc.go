// Package logging assembles the structured slog loggers used across
// sentinel components.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes attr helpers so engine code tags log lines with
// entity IDs, loop names, and dispatch event IDs in a consistent shape.
// Components receive their logger by injection; nothing in this package
// mutates global slog state.
package logging
