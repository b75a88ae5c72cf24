package driving

import (
	"context"

	"github.com/veldt-labs/datacore/internal/core/domain"
)

// Ingestor is the write-side entrypoint: it scans a source root and
// brings the persistent index up to date with it.
type Ingestor interface {
	// Run executes one ingest pass over the source root.
	//
	// Running twice on an unchanged corpus produces zero net changes
	// and an identical manifest. Per-file failures are recorded in the
	// report and skipped. A provider outage aborts the remaining batch
	// and returns an error wrapping domain.ErrEmbeddingProvider; the
	// report covering completed work is still returned.
	Run(ctx context.Context, root string) (*domain.IngestReport, error)
}
