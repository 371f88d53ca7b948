// Package uploads persists the upload queue in a local SQLite database.
//
// The store supports insert, point lookup, index scans by state, and
// compare-and-swap state updates. Writes come from the background worker
// (sequential in practice); foreground contexts only read, so reads never
// block the drain and a slightly stale snapshot is acceptable.
package uploads
