// Package stores persists evaluation history: one row per evaluation cycle
// (snapshot build + filter run) and one row per gate decision. The store is
// an audit trail for the enforcement point, not an input to evaluation —
// graphs and indexes are always rebuilt from fresh snapshots.
package stores
