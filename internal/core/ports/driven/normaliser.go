package driven

import (
	"context"

	"github.com/veldt-labs/datacore/internal/core/domain"
)

// Normaliser transforms raw source files into plain-text documents.
// Each normaliser handles specific file extensions (e.g. PDF, Markdown).
type Normaliser interface {
	// Extensions returns the lower-case file extensions this
	// normaliser handles, including the leading dot.
	Extensions() []string

	// Format returns the detected-format label recorded on documents.
	Format() string

	// Normalise transforms a raw source into a normalised document.
	// A failure is a parse error: the pipeline logs it, skips the
	// file, and continues with the rest of the run.
	Normalise(ctx context.Context, raw *domain.RawSource) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Normalisation only produces a Document with Content; chunking is
// handled by the post-processor pipeline.
type NormaliseResult struct {
	// Document is the normalised document with Content populated.
	Document domain.Document
}

// NormaliserRegistry selects the appropriate normaliser for a file.
type NormaliserRegistry interface {
	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// Normalise dispatches to the normaliser for the file's extension.
	// Returns domain.ErrUnsupportedType when no normaliser matches.
	Normalise(ctx context.Context, raw *domain.RawSource) (*NormaliseResult, error)

	// SupportedExtensions returns all extensions that can be normalised.
	SupportedExtensions() []string
}
