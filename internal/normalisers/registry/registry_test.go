package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldt-labs/datacore/internal/core/domain"
	"github.com/veldt-labs/datacore/internal/core/ports/driven"
	"github.com/veldt-labs/datacore/internal/normalisers/markdown"
	"github.com/veldt-labs/datacore/internal/normalisers/plaintext"
)

func newRegistry() driven.NormaliserRegistry {
	r := New()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	return r
}

func TestNormalise_DispatchesByExtension(t *testing.T) {
	r := newRegistry()

	result, err := r.Normalise(context.Background(), &domain.RawSource{
		SourceID: "a.md",
		Path:     "/corpus/a.md",
		Content:  []byte("# Title\n\nbody"),
	})
	require.NoError(t, err)
	assert.Equal(t, "markdown", result.Document.Format)

	result, err = r.Normalise(context.Background(), &domain.RawSource{
		SourceID: "a.txt",
		Path:     "/corpus/a.txt",
		Content:  []byte("body"),
	})
	require.NoError(t, err)
	assert.Equal(t, "plaintext", result.Document.Format)
}

func TestNormalise_CaseInsensitiveExtension(t *testing.T) {
	r := newRegistry()

	result, err := r.Normalise(context.Background(), &domain.RawSource{
		SourceID: "A.MD",
		Path:     "/corpus/A.MD",
		Content:  []byte("# T"),
	})
	require.NoError(t, err)
	assert.Equal(t, "markdown", result.Document.Format)
}

func TestNormalise_UnsupportedExtension(t *testing.T) {
	r := newRegistry()

	_, err := r.Normalise(context.Background(), &domain.RawSource{
		SourceID: "binary.exe",
		Path:     "/corpus/binary.exe",
		Content:  []byte{0x4d, 0x5a},
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestNormalise_NilInput(t *testing.T) {
	r := newRegistry()
	_, err := r.Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSupportedExtensions(t *testing.T) {
	r := newRegistry()
	exts := r.SupportedExtensions()
	assert.Contains(t, exts, ".md")
	assert.Contains(t, exts, ".txt")
	assert.Contains(t, exts, ".json")
}
