package driven

import "context"

// EmbeddingService maps passage texts to fixed-dimension vectors.
//
// Two interchangeable backends exist: a local deterministic embedder
// with no network dependency, and a remote API-backed embedder with a
// larger dimension. The pipeline validates ProviderID and Dimensions
// against the store before any write; switching providers on an
// existing store without an explicit reset is a configuration error.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// This is more efficient than calling Embed in a loop for large batches.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 384, 1536).
	Dimensions() int

	// ProviderID returns a stable identifier for the provider and
	// model, recorded in store metadata.
	ProviderID() string

	// Ping validates the backend is reachable. Used at run start so a
	// misconfiguration surfaces before any work is done. The local
	// backend always succeeds.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
