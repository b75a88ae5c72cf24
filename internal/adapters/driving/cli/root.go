// Package cli implements the command-line driving adapter. Each
// command wires the core services from configuration at run time;
// nothing touches the store until a command actually needs it.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veldt-labs/datacore/internal/adapters/driven/embedding/local"
	"github.com/veldt-labs/datacore/internal/adapters/driven/embedding/openai"
	"github.com/veldt-labs/datacore/internal/adapters/driven/storage/sqlite"
	"github.com/veldt-labs/datacore/internal/config"
	"github.com/veldt-labs/datacore/internal/core/ports/driven"
	"github.com/veldt-labs/datacore/internal/core/services"
	"github.com/veldt-labs/datacore/internal/lexical"
	"github.com/veldt-labs/datacore/internal/logger"
	"github.com/veldt-labs/datacore/internal/normalisers/docx"
	"github.com/veldt-labs/datacore/internal/normalisers/html"
	"github.com/veldt-labs/datacore/internal/normalisers/markdown"
	"github.com/veldt-labs/datacore/internal/normalisers/pdf"
	"github.com/veldt-labs/datacore/internal/normalisers/plaintext"
	"github.com/veldt-labs/datacore/internal/normalisers/registry"
	"github.com/veldt-labs/datacore/internal/postprocessors"
	"github.com/veldt-labs/datacore/internal/postprocessors/chunker"
	"github.com/veldt-labs/datacore/internal/postprocessors/scrub"
)

// version is set at build time via -ldflags.
var version = "dev"

// Persistent flags.
var (
	flagConfig  string
	flagDataDir string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "datacore",
	Short: "Local document index with hybrid search",
	Long: `datacore ingests a directory of documents into a local index and
answers queries by blending vector similarity with lexical matching.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.datacore/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default ~/.datacore/data)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging to stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig resolves the effective configuration from file + flags.
func loadConfig() (*config.Config, error) {
	path := flagConfig
	explicit := path != ""
	if !explicit {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path, explicit)
	if err != nil {
		return nil, err
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app bundles the wired services for one command invocation.
type app struct {
	cfg      *config.Config
	store    *sqlite.Store
	embedder driven.EmbeddingService
	ingestor *services.IngestService
	searcher *services.SearchService
}

// close releases the app's resources.
func (a *app) close() {
	if a.embedder != nil {
		a.embedder.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}

// newApp opens the store and wires the full pipeline.
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	reg := registry.New()
	reg.Register(plaintext.New())
	reg.Register(markdown.New())
	reg.Register(html.New())
	reg.Register(docx.New())
	reg.Register(pdf.New())

	processors := []driven.PostProcessor{}
	if cfg.ScrubEnabled {
		processors = append(processors, scrub.New())
	}
	processors = append(processors, chunker.New(
		chunker.WithChunkSize(cfg.ChunkMaxSize),
		chunker.WithOverlap(cfg.ChunkOverlap),
	))
	pipeline := postprocessors.NewPipeline(processors...)

	var ingestOpts []services.IngestOption
	if len(cfg.BlocklistGlobs) > 0 {
		ingestOpts = append(ingestOpts, services.WithBlocklist(cfg.BlocklistGlobs))
	}
	ingestor := services.NewIngestService(
		reg, pipeline, embedder,
		store.VectorStore(), store.ManifestStore(),
		lockPath(store),
		ingestOpts...,
	)

	var reranker driven.Reranker
	if cfg.RerankEnabled {
		reranker = services.NewBlendReranker(lexical.New(), cfg.RerankAlpha, cfg.RerankCandidateMultiplier)
	} else {
		reranker = services.NewIdentityReranker()
	}
	searcher := services.NewSearchService(store.VectorStore(), store.ManifestStore(), embedder, reranker)

	return &app{
		cfg:      cfg,
		store:    store,
		embedder: embedder,
		ingestor: ingestor,
		searcher: searcher,
	}, nil
}

// newEmbedder selects the embedding backend from configuration.
func newEmbedder(cfg *config.Config) (driven.EmbeddingService, error) {
	switch cfg.EmbedProvider {
	case config.ProviderLocal:
		return local.NewEmbeddingService(), nil
	case config.ProviderOpenAI:
		return openai.NewEmbeddingService(openai.Config{
			APIKey:  cfg.OpenAIKey(),
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
		})
	default:
		return nil, fmt.Errorf("unknown embed provider %q", cfg.EmbedProvider)
	}
}

// lockPath places the ingest run lock next to the database.
func lockPath(store *sqlite.Store) string {
	return store.Path() + ".lock"
}
