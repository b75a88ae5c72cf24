// Package scrub provides a PII-redaction processor that rewrites
// document text before chunking. Emails, phone numbers and
// API-key-shaped tokens are replaced with a redaction marker so they
// never reach the index.
package scrub

import (
	"context"
	"regexp"

	"github.com/veldt-labs/datacore/internal/core/domain"
)

// Redacted is the replacement marker for scrubbed spans.
const Redacted = "[REDACTED]"

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`(?:(?:(?:\+?1)[ -]?)?(?:\(\d{3}\)|\d{3})[ -]?)?\d{3}[ -]?\d{4}`)
	keyPattern   = regexp.MustCompile(`(?i)\b(sk-[A-Za-z0-9]{10,}|ghp_[A-Za-z0-9]{20,}|AIza[0-9A-Za-z_-]{20,})\b`)
)

// Processor redacts PII from document content.
// It implements the PostProcessor interface and must run before the
// chunker so redaction is reflected in chunk offsets.
type Processor struct{}

// New creates a new scrub processor.
func New() *Processor {
	return &Processor{}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "scrub"
}

// Process rewrites the document content in place and passes chunks through.
func (p *Processor) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	doc.Content = Scrub(doc.Content)
	return chunks, nil
}

// Scrub redacts emails, phone numbers and API-key-shaped tokens.
func Scrub(text string) string {
	t := emailPattern.ReplaceAllString(text, Redacted)
	t = phonePattern.ReplaceAllString(t, Redacted)
	t = keyPattern.ReplaceAllString(t, Redacted)
	return t
}
