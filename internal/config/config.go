// Package config holds the single explicit configuration structure of
// the application. It is constructed once at startup from an optional
// TOML file plus command-line flags, then validated before anything
// else runs; invalid or unknown values fail immediately rather than
// deep inside a run.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/veldt-labs/datacore/internal/core/domain"
)

// Embedding provider names.
const (
	ProviderLocal  = "local"
	ProviderOpenAI = "openai"
)

// Default values.
const (
	DefaultChunkMaxSize  = 1200
	DefaultChunkOverlap  = 200
	DefaultTopK          = 5
	DefaultRerankAlpha   = 0.5
	DefaultMultiplier    = 3
	DefaultOpenAIModel   = "text-embedding-3-small"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
)

// OpenAI configures the remote embedding provider.
type OpenAI struct {
	// APIKey authenticates against the API. Falls back to the
	// OPENAI_API_KEY environment variable when empty.
	APIKey string `toml:"api_key"`

	// BaseURL overrides the API endpoint for compatible services.
	BaseURL string `toml:"base_url"`

	// Model is the embedding model name.
	Model string `toml:"model"`
}

// Config is the complete application configuration.
type Config struct {
	// DataDir is the root of all persisted state (index database,
	// manifest, lock file), independent of the source root.
	DataDir string `toml:"data_dir"`

	// EmbedProvider selects the embedding backend: local or openai.
	EmbedProvider string `toml:"embed_provider"`

	// ChunkMaxSize is the chunk budget in bytes.
	ChunkMaxSize int `toml:"chunk_max_size"`

	// ChunkOverlap is the tail shared between adjacent chunks.
	ChunkOverlap int `toml:"chunk_overlap"`

	// TopK is the default result count for search.
	TopK int `toml:"top_k"`

	// RerankEnabled toggles the weighted-blend reranker; when false
	// results keep the raw vector order.
	RerankEnabled bool `toml:"rerank_enabled"`

	// RerankAlpha weighs vector against lexical score in [0,1].
	RerankAlpha float64 `toml:"rerank_alpha"`

	// RerankCandidateMultiplier controls candidate overfetch.
	RerankCandidateMultiplier int `toml:"rerank_candidate_multiplier"`

	// ScrubEnabled redacts PII-looking content before chunking.
	ScrubEnabled bool `toml:"scrub_enabled"`

	// BlocklistGlobs skip matching paths during ingest. Empty keeps
	// the built-in defaults.
	BlocklistGlobs []string `toml:"blocklist_globs"`

	// OpenAI configures the remote provider.
	OpenAI OpenAI `toml:"openai"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		EmbedProvider:             ProviderLocal,
		ChunkMaxSize:              DefaultChunkMaxSize,
		ChunkOverlap:              DefaultChunkOverlap,
		TopK:                      DefaultTopK,
		RerankEnabled:             true,
		RerankAlpha:               DefaultRerankAlpha,
		RerankCandidateMultiplier: DefaultMultiplier,
		ScrubEnabled:              false,
		OpenAI: OpenAI{
			BaseURL: DefaultOpenAIBaseURL,
			Model:   DefaultOpenAIModel,
		},
	}
}

// Load reads a TOML file over the defaults. A missing file at the
// default location is fine; an explicitly named file must exist.
// Unknown keys are rejected.
func Load(path string, explicit bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// DefaultPath is the conventional config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".datacore", "config.toml")
}

// Validate checks every enumerated and bounded option. It returns the
// first violation wrapped around domain.ErrInvalidInput.
func (c *Config) Validate() error {
	switch c.EmbedProvider {
	case ProviderLocal, ProviderOpenAI:
	default:
		return fmt.Errorf("embed_provider must be %q or %q, got %q: %w",
			ProviderLocal, ProviderOpenAI, c.EmbedProvider, domain.ErrInvalidInput)
	}

	if c.ChunkMaxSize <= 0 {
		return fmt.Errorf("chunk_max_size must be positive, got %d: %w", c.ChunkMaxSize, domain.ErrInvalidInput)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkMaxSize {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_max_size), got %d with chunk_max_size %d: %w",
			c.ChunkOverlap, c.ChunkMaxSize, domain.ErrInvalidInput)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d: %w", c.TopK, domain.ErrInvalidInput)
	}
	if c.RerankAlpha < 0 || c.RerankAlpha > 1 {
		return fmt.Errorf("rerank_alpha must be in [0,1], got %g: %w", c.RerankAlpha, domain.ErrInvalidInput)
	}
	if c.RerankCandidateMultiplier < 1 {
		return fmt.Errorf("rerank_candidate_multiplier must be >= 1, got %d: %w",
			c.RerankCandidateMultiplier, domain.ErrInvalidInput)
	}

	if c.EmbedProvider == ProviderOpenAI && c.openAIKey() == "" {
		return fmt.Errorf("embed_provider %q requires openai.api_key or OPENAI_API_KEY: %w",
			ProviderOpenAI, domain.ErrInvalidInput)
	}

	return nil
}

// OpenAIKey resolves the API key from config or environment.
func (c *Config) OpenAIKey() string {
	return c.openAIKey()
}

func (c *Config) openAIKey() string {
	if c.OpenAI.APIKey != "" {
		return c.OpenAI.APIKey
	}
	return os.Getenv("OPENAI_API_KEY")
}
