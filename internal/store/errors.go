package store

import "errors"

// ErrNotTracked indicates the requested entity has no tracked_users row.
var ErrNotTracked = errors.New("entity is not tracked")

// ErrNoHistory indicates a tracked entity is missing its user_history row.
// Callers treat this as a data-integrity gap: skip the metadata diff for
// the cycle rather than failing the sweep.
var ErrNoHistory = errors.New("entity has no metadata history")

// ErrSchemaMismatch indicates the database was created by an incompatible
// sentinel version.
var ErrSchemaMismatch = errors.New("schema version mismatch")
