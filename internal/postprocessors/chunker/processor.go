// Package chunker provides a boundary-aware text chunking processor.
package chunker

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/veldt-labs/datacore/internal/core/domain"
)

// DefaultChunkSize is the default maximum number of bytes per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping bytes
// between adjacent chunks.
const DefaultChunkOverlap = 200

// Processor splits document content into bounded, overlap-preserving
// chunks. It prefers paragraph and sentence boundaries and falls back
// to hard cuts only when no boundary exists within the size limit.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the maximum chunk size in bytes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between adjacent chunks in bytes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Overlap must leave room for forward progress
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from
// document content. Chunk IDs derive from the source identity and the
// offset range, so re-processing unchanged content yields the
// identical chunk-id set.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	content := doc.Content
	if strings.TrimSpace(content) == "" {
		// Empty or whitespace-only content produces no chunks
		return nil, nil
	}

	estimated := (len(content) / (p.chunkSize - p.overlap)) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	position := 0
	start := 0

	for start < len(content) {
		end := p.cut(content, start)
		piece := content[start:end]

		if strings.TrimSpace(piece) != "" {
			chunks = append(chunks, domain.Chunk{
				ID:          domain.ChunkID(doc.SourceID, start, end),
				SourceID:    doc.SourceID,
				Content:     piece,
				Position:    position,
				StartOffset: start,
				EndOffset:   end,
				Tags:        append([]string(nil), doc.Tags...),
			})
			position++
		}

		if end == len(content) {
			break
		}

		// Step back by the overlap so a sentence straddling the cut
		// appears whole in at least one chunk.
		next := end - p.overlap
		if next <= start {
			next = start + 1
		}
		for next < len(content) && !utf8.RuneStart(content[next]) {
			next++
		}
		start = next
	}

	return chunks, nil
}

// cut returns the end offset of the chunk starting at start. It
// prefers, in order: a paragraph break, a sentence end, a line break,
// each within the second half of the window. With no boundary it hard
// cuts at the size limit on a rune boundary.
func (p *Processor) cut(content string, start int) int {
	limit := start + p.chunkSize
	if limit >= len(content) {
		return len(content)
	}

	window := content[start:limit]
	half := len(window) / 2

	if idx := strings.LastIndex(window, "\n\n"); idx >= half {
		return start + idx + 2
	}
	if idx, width := lastSentenceEnd(window); idx >= half {
		return start + idx + width
	}
	if idx := strings.LastIndexByte(window, '\n'); idx >= half {
		return start + idx + 1
	}

	// Hard cut, but never split a rune
	for limit > start && !utf8.RuneStart(content[limit]) {
		limit--
	}
	return limit
}

// lastSentenceEnd finds the last sentence terminator followed by
// whitespace. Returns the terminator index and the width of the
// terminator plus its trailing whitespace byte, or (-1, 0).
func lastSentenceEnd(s string) (int, int) {
	for i := len(s) - 2; i >= 0; i-- {
		c := s[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		next := s[i+1]
		if next == ' ' || next == '\n' || next == '\t' {
			return i, 2
		}
	}
	return -1, 0
}
