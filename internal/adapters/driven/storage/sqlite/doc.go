// Package sqlite persists documents and embedded chunks in a single
// SQLite database file. Vector similarity is brute-force: SQL narrows
// candidates by document filters, then distances are computed over
// the stored float32 blobs in-process.
package sqlite
