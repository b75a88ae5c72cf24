package driven

import (
	"context"

	"github.com/veldt-labs/datacore/internal/core/domain"
)

// QueryFilter restricts a vector query to chunks matching the filter.
type QueryFilter struct {
	// CategoryTag keeps only chunks carrying this category tag.
	CategoryTag string
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the normalised similarity score in [0,1].
	Similarity float64
}

// StoreStats summarises the persisted index for status reporting.
type StoreStats struct {
	Sources int
	Chunks  int
}

// VectorStore is the persistent index of (chunk id, vector, metadata).
// It survives process restarts and rejects vectors whose dimension
// disagrees with the store's configured dimension.
//
// Writes are exclusively owned by the ingest pipeline; the search
// service only reads. A reader running concurrently with an ingest
// may observe the store mid-run (a stale snapshot); each per-source
// replace is atomic, so no reader ever sees a half-written file.
type VectorStore interface {
	// Meta returns the embedding configuration the store was built
	// with, or nil for a fresh store.
	Meta(ctx context.Context) (*domain.StoreMeta, error)

	// SetMeta records the embedding configuration. Only valid on a
	// fresh store or after Reset.
	SetMeta(ctx context.Context, meta domain.StoreMeta) error

	// ReplaceSource atomically replaces every chunk of a source:
	// stale chunks are deleted and the new set inserted in one
	// transaction. Re-running with identical chunks is a no-op
	// overwrite, never a duplicate.
	ReplaceSource(ctx context.Context, sourceID string, chunks []domain.Chunk) error

	// DeleteSource removes all chunks of a source.
	DeleteSource(ctx context.Context, sourceID string) error

	// Query finds the topK nearest chunks to the query vector by
	// cosine similarity, optionally restricted by filter. Returns
	// domain.ErrDimensionMismatch when the vector's dimension
	// disagrees with the store's.
	Query(ctx context.Context, vector []float32, topK int, filter *QueryFilter) ([]VectorHit, error)

	// GetChunk retrieves a chunk by ID. Returns domain.ErrNotFound
	// when absent.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// Stats reports source and chunk counts.
	Stats(ctx context.Context) (*StoreStats, error)

	// Reset drops all persisted state, including store metadata.
	Reset(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ManifestStore persists the per-source ingestion manifest. It lives
// under the same data root as the vector store so the whole index can
// be relocated or wiped together.
type ManifestStore interface {
	// Get retrieves the manifest entry for a source.
	// Returns domain.ErrNotFound when the source was never ingested.
	Get(ctx context.Context, sourceID string) (*domain.ManifestEntry, error)

	// Save stores or updates a manifest entry.
	Save(ctx context.Context, entry domain.ManifestEntry) error

	// Delete removes a manifest entry.
	Delete(ctx context.Context, sourceID string) error

	// List returns all manifest entries.
	List(ctx context.Context) ([]domain.ManifestEntry, error)
}
