// Package storage persists training artifacts in SQLite: run history with
// baseline vs projected MAP, per-epoch loss curves, learned projection
// matrices, and an embedding cache that outlives the process so remote
// provider calls are not repeated between runs.
//
// Two drivers are supported via build tags. The default build uses the pure
// Go modernc.org/sqlite driver (no C compiler needed); building with
// -tags cgo_sqlite switches to github.com/mattn/go-sqlite3.
//
// Nothing here is a retrieval index: ranking is always a brute-force pass in
// the retriever. The store only keeps what a run learned and measured.
package storage
