package driving

import (
	"context"

	"github.com/veldt-labs/datacore/internal/core/domain"
)

// Searcher is the read-side entrypoint. It never mutates the store
// and tolerates arbitrary concurrent callers.
type Searcher interface {
	// Search returns ranked, provenance-tagged passages for a query.
	// An empty query or a query matching nothing returns an empty
	// list, not an error.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}
