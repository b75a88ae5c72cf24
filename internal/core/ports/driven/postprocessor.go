package driven

import (
	"context"

	"github.com/veldt-labs/datacore/internal/core/domain"
)

// PostProcessor processes document content on the way to the index.
// PostProcessors are chained in a pipeline (e.g. scrubbing, chunking).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a document and the chunks produced so far.
	// A processor that rewrites text (e.g. scrubbing) mutates the
	// document and passes chunks through; a processor that creates
	// chunks (the chunker) ignores its input chunks and returns a
	// fresh set.
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order and
	// returns the final chunks.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
