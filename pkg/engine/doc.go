// Package engine provides the core types for the Lockwarden evaluation engine:
// the immutable resource graph built from a provider snapshot, and the lock
// index derived from it.
//
// The evaluation workflow is: Snapshot -> ResourceGraph -> LockIndex ->
// filter evaluation / action gating. A graph and its index are built once per
// evaluation cycle and are read-only afterwards, so they may be shared across
// concurrent evaluators without locking.
package engine
