package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veldt-labs/datacore/internal/adapters/driven/embedding/local"
	"github.com/veldt-labs/datacore/internal/adapters/driven/storage/sqlite"
	"github.com/veldt-labs/datacore/internal/core/domain"
	"github.com/veldt-labs/datacore/internal/core/ports/driven"
	"github.com/veldt-labs/datacore/internal/lexical"
	"github.com/veldt-labs/datacore/internal/normalisers/markdown"
	"github.com/veldt-labs/datacore/internal/normalisers/plaintext"
	"github.com/veldt-labs/datacore/internal/normalisers/registry"
	"github.com/veldt-labs/datacore/internal/postprocessors"
	"github.com/veldt-labs/datacore/internal/postprocessors/chunker"
)

// testEnv wires real components around a temporary store: local
// embedder, markdown and plaintext normalisers, boundary-aware
// chunker.
type testEnv struct {
	root     string
	dataDir  string
	store    *sqlite.Store
	embedder driven.EmbeddingService
	ingestor *IngestService
	searcher *SearchService
}

// newTestEnv builds a full pipeline over temp directories. The search
// side uses a weighted-blend reranker with the given alpha and
// candidate multiplier.
func newTestEnv(t *testing.T, alpha float64, multiplier int) *testEnv {
	t.Helper()

	root := t.TempDir()
	dataDir := t.TempDir()

	store, err := sqlite.NewStore(dataDir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	reg := registry.New()
	reg.Register(markdown.New())
	reg.Register(plaintext.New())

	pipeline := postprocessors.NewPipeline(chunker.New())
	embedder := local.NewEmbeddingService()

	ingestor := NewIngestService(
		reg, pipeline, embedder,
		store.VectorStore(), store.ManifestStore(),
		filepath.Join(dataDir, "ingest.lock"),
	)

	reranker := NewBlendReranker(lexical.New(), alpha, multiplier)
	searcher := NewSearchService(store.VectorStore(), store.ManifestStore(), embedder, reranker)

	return &testEnv{
		root:     root,
		dataDir:  dataDir,
		store:    store,
		embedder: embedder,
		ingestor: ingestor,
		searcher: searcher,
	}
}

// writeFile creates a file under the source root, creating parent
// directories as needed.
func (e *testEnv) writeFile(t *testing.T, rel, content string) {
	t.Helper()
	p := filepath.Join(e.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
}

// ingest runs one pass and requires it to succeed.
func (e *testEnv) ingest(t *testing.T) *domain.IngestReport {
	t.Helper()
	report, err := e.ingestor.Run(context.Background(), e.root)
	require.NoError(t, err)
	return report
}

// stats reads the store counters.
func (e *testEnv) stats(t *testing.T) *driven.StoreStats {
	t.Helper()
	stats, err := e.store.VectorStore().Stats(context.Background())
	require.NoError(t, err)
	return stats
}
