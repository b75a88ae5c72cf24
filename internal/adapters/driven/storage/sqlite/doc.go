// Package sqlite provides a SQLite-based implementation of the driven
// storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. It implements two store
// interfaces through a single database connection:
//
//   - VectorStore: chunk and embedding persistence with cosine queries
//   - ManifestStore: per-source ingestion manifest persistence
//
// Embeddings are stored as little-endian float32 blobs and scanned brute
// force at query time; there is no approximate index.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql
// files.
//
// # Data Location
//
// By default, the database is stored at ~/.datacore/data/index.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
