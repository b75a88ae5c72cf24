// Package local provides a deterministic embedding service with no
// network dependency, suitable for zero-cost operation and tests.
//
// Each text is mapped to a fixed-size bag-of-hashes vector: every
// character contributes weight 1 at a hashed index and every
// character trigram contributes weight 2, then the vector is
// L2-normalised. The result is not semantically rich, but it is
// stable, fast, and good enough for literal and near-literal recall.
package local

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/veldt-labs/datacore/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Dimensions is the fixed vector size of the local embedder.
const Dimensions = 384

// ID is the stable provider identifier recorded in store metadata.
const ID = "local"

// EmbeddingService generates deterministic hash-bag embeddings.
type EmbeddingService struct{}

// NewEmbeddingService creates a new local embedding service.
func NewEmbeddingService() *EmbeddingService {
	return &EmbeddingService{}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	return embedOne(text), nil
}

// EmbedBatch generates embeddings for multiple texts.
func (s *EmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = embedOne(text)
	}
	return vectors, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return Dimensions
}

// ProviderID returns the stable provider identifier.
func (s *EmbeddingService) ProviderID() string {
	return ID
}

// Ping always succeeds: there is nothing to reach.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func embedOne(text string) []float32 {
	vec := make([]float64, Dimensions)

	runes := []rune(text)
	for _, r := range runes {
		vec[hashIndex(string(r))]++
	}
	for i := 0; i+3 <= len(runes); i++ {
		vec[hashIndex(string(runes[i:i+3]))] += 2
	}

	// L2-normalise so cosine similarity reduces to a dot product
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		norm = 1
	}

	out := make([]float32, Dimensions)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}

func hashIndex(s string) int {
	h := fnv.New32a()
	h.Write([]byte(s))
	return int(h.Sum32() % Dimensions)
}
