// Package store owns sentinel's durable state: the tracked-entity table,
// the per-entity metadata history, and per-guild deployment configuration.
//
// The store is the only writer of these rows. Engine code reads snapshots
// and issues whole-field updates through the methods here; no caller mutates
// a row partially in place. Presence state (status, place, session) and
// metadata state (avatar, friends, group ranks) are disjoint column sets,
// which is what lets the presence loops and the metadata loop run without
// per-entity locking.
package store
