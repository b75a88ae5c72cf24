// Package pdf provides the normaliser for PDF sources.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"

	"github.com/veldt-labs/datacore/internal/core/domain"
	"github.com/veldt-labs/datacore/internal/core/ports/driven"
	"github.com/veldt-labs/datacore/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles PDF documents.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Extensions returns the file extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".pdf"}
}

// Format returns the detected-format label.
func (n *Normaliser) Format() string {
	return "pdf"
}

// Normalise extracts the plain text of a PDF document.
// Scanned PDFs without a text layer normalise to empty content, which
// downstream chunking treats as zero chunks rather than an error.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawSource) (result *driven.NormaliseResult, err error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	// The pdf package panics on some malformed inputs; treat that as
	// a parse failure so one bad file cannot take down the run.
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: pdf extraction panicked: %v", domain.ErrParse, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %w", domain.ErrParse, err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("%w: extract pdf text: %w", domain.ErrParse, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, textReader); err != nil {
		return nil, fmt.Errorf("%w: read pdf text: %w", domain.ErrParse, err)
	}

	return &driven.NormaliseResult{
		Document: domain.Document{
			SourceID: raw.SourceID,
			Path:     raw.Path,
			Title:    plaintext.TitleFromPath(raw.Path),
			Format:   n.Format(),
			Tags:     raw.Tags,
			Content:  buf.String(),
		},
	}, nil
}
