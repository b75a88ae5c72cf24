// Package registry dispatches raw sources to format normalisers by
// file extension.
package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/veldt-labs/datacore/internal/core/domain"
	"github.com/veldt-labs/datacore/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry maps file extensions to normalisers.
type Registry struct {
	byExtension map[string]driven.Normaliser
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byExtension: make(map[string]driven.Normaliser),
	}
}

// Register adds a normaliser. A later registration for the same
// extension replaces the earlier one.
func (r *Registry) Register(normaliser driven.Normaliser) {
	for _, ext := range normaliser.Extensions() {
		r.byExtension[strings.ToLower(ext)] = normaliser
	}
}

// Normalise dispatches to the normaliser for the file's extension.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawSource) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	ext := strings.ToLower(filepath.Ext(raw.Path))
	normaliser, ok := r.byExtension[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, ext)
	}

	return normaliser.Normalise(ctx, raw)
}

// SupportedExtensions returns all registered extensions, sorted.
func (r *Registry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
