package domain

import (
	"crypto/sha1" //nolint:gosec // Used for stable IDs, not security
	"encoding/hex"
	"fmt"
	"time"
)

// RawSource represents the opaque bytes of one discovered file
// before normalisation.
type RawSource struct {
	// SourceID is the path of the file relative to the source root,
	// slash-separated. It is the stable identity of the source.
	SourceID string

	// Path is the absolute file path on disk.
	Path string

	// Content is the raw bytes.
	Content []byte

	// Tags are the category tags derived from the directory
	// structure: each path segment under the source root becomes one tag.
	Tags []string
}

// Document is the canonical representation of a source after
// normalisation: plain text plus provenance metadata. It is the input
// to the post-processing pipeline and is never persisted whole.
type Document struct {
	// SourceID is the stable identity of the originating file.
	SourceID string

	// Path is the absolute file path on disk.
	Path string

	// Title is the human-readable title.
	Title string

	// Format identifies the detected input format (e.g. "markdown").
	Format string

	// Checksum is the SHA-256 hex digest of the raw file bytes.
	Checksum string

	// Tags are the path-derived category tags.
	Tags []string

	// Content is the full plain-text content after normalisation,
	// before chunking.
	Content string
}

// Chunk is a bounded span of a document's normalised text, the unit
// of indexing and retrieval.
type Chunk struct {
	// ID is deterministic: re-ingesting unchanged content yields the
	// identical ID. See ChunkID.
	ID string

	// SourceID links to the originating source.
	SourceID string

	// Content is the text of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// StartOffset and EndOffset delimit the chunk within the
	// normalised document text, in bytes.
	StartOffset int
	EndOffset   int

	// Tags are the category tags inherited from the source.
	Tags []string

	// Embedding is the vector representation for semantic search.
	Embedding []float32
}

// ChunkID derives the stable chunk identifier from the source
// identity and the chunk's offset range.
func ChunkID(sourceID string, start, end int) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s#%d:%d", sourceID, start, end))) //nolint:gosec // Not security sensitive
	return hex.EncodeToString(sum[:])
}

// StoreMeta records the embedding configuration an index was built
// with. All records in one store share one provider and one
// dimension; a mismatch at ingest start is a configuration error.
type StoreMeta struct {
	// ProviderID is the stable identifier of the embedding provider.
	ProviderID string

	// Dimension is the embedding vector size.
	Dimension int
}

// ManifestEntry is the per-source record that makes re-ingestion
// idempotent: unchanged files are detected by checksum and skipped.
type ManifestEntry struct {
	// SourceID is the stable identity of the source.
	SourceID string

	// Path is the absolute file path at last ingestion.
	Path string

	// Checksum is the SHA-256 hex digest at last ingestion.
	Checksum string

	// ChunkIDs is the full chunk-id set written for this source.
	ChunkIDs []string

	// IngestedAt is when the source was last (re)ingested.
	IngestedAt time.Time
}
