// Package tracker implements the presence-change detection engine: the
// scheduled polling loops, transition detection, debounce verification,
// and the metadata diff pass.
//
// Three independently timed loops drive the engine. The priority and
// standard loops poll presence for disjoint entity partitions (split by the
// priority flag) and are the only writers of presence state. The metadata
// loop refreshes avatars, friend sets, and group ranks, a disjoint column
// set. That partitioning is what makes the loops safe to overlap without
// per-entity locks; code that changes which loop touches which fields must
// preserve it or add locking.
package tracker
