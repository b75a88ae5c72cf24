package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/veldt-labs/datacore/internal/core/domain"
	"github.com/veldt-labs/datacore/internal/core/ports/driven"
	"github.com/veldt-labs/datacore/internal/core/ports/driving"
	"github.com/veldt-labs/datacore/internal/logger"
)

// DefaultTopK is the result count used when the caller does not ask
// for a specific one.
const DefaultTopK = 5

// Ensure SearchService implements the interface.
var _ driving.Searcher = (*SearchService)(nil)

// SearchService answers queries against the persistent index. It is
// read-only and safe for concurrent use; a search running during an
// ingest sees the store as of each per-source transaction boundary.
type SearchService struct {
	vectorStore   driven.VectorStore
	manifestStore driven.ManifestStore
	embedder      driven.EmbeddingService
	reranker      driven.Reranker
	defaultTopK   int
}

// NewSearchService creates a new search service.
func NewSearchService(
	vectorStore driven.VectorStore,
	manifestStore driven.ManifestStore,
	embedder driven.EmbeddingService,
	reranker driven.Reranker,
) *SearchService {
	return &SearchService{
		vectorStore:   vectorStore,
		manifestStore: manifestStore,
		embedder:      embedder,
		reranker:      reranker,
		defaultTopK:   DefaultTopK,
	}
}

// Search retrieves a candidate pool by vector similarity, reranks it
// and returns the topK results with provenance and highlights.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = s.defaultTopK
	}
	poolSize := s.reranker.PoolSize(topK)
	logger.Debug("TopK: %d, pool size: %d, reranker: %s", topK, poolSize, s.reranker.Name())

	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	var filter *driven.QueryFilter
	if opts.CategoryFilter != "" {
		filter = &driven.QueryFilter{CategoryTag: opts.CategoryFilter}
		logger.Debug("Category filter: %s", opts.CategoryFilter)
	}

	hits, err := s.vectorStore.Query(ctx, queryVector, poolSize, filter)
	if err != nil {
		return nil, fmt.Errorf("querying vector store: %w", err)
	}
	logger.Debug("Vector store returned %d candidates", len(hits))

	candidates, err := s.hydrateCandidates(ctx, hits)
	if err != nil {
		return nil, err
	}

	ranked := s.reranker.Rerank(query, candidates, topK)

	results := make([]domain.SearchResult, 0, len(ranked))
	for _, c := range ranked {
		results = append(results, domain.SearchResult{
			ChunkID:      c.ChunkID,
			Text:         c.Content,
			SourcePath:   c.SourcePath,
			CategoryTags: c.Tags,
			VectorScore:  c.VectorScore,
			LexicalScore: c.LexicalScore,
			BlendedScore: c.BlendedScore,
			Highlights:   generateHighlights(c.Content, query),
		})
	}

	logger.Info("Search returned %d results", len(results))
	return results, nil
}

// hydrateCandidates loads chunk content and provenance for each hit.
// Chunks deleted between query and hydration are skipped.
func (s *SearchService) hydrateCandidates(
	ctx context.Context, hits []driven.VectorHit,
) ([]domain.ScoredChunk, error) {
	// Per-query cache: many chunks share a source.
	paths := make(map[string]string)

	candidates := make([]domain.ScoredChunk, 0, len(hits))
	for _, hit := range hits {
		chunk, err := s.vectorStore.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", hit.ChunkID, err)
		}

		path, ok := paths[chunk.SourceID]
		if !ok {
			path, err = s.sourcePath(ctx, chunk.SourceID)
			if err != nil {
				return nil, err
			}
			paths[chunk.SourceID] = path
		}

		candidates = append(candidates, domain.ScoredChunk{
			ChunkID:     chunk.ID,
			Content:     chunk.Content,
			SourcePath:  path,
			Tags:        chunk.Tags,
			VectorScore: hit.Similarity,
		})
	}
	return candidates, nil
}

// sourcePath resolves a source id to its file path via the manifest.
// A missing entry degrades to the source id rather than failing the
// whole search.
func (s *SearchService) sourcePath(ctx context.Context, sourceID string) (string, error) {
	entry, err := s.manifestStore.Get(ctx, sourceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return sourceID, nil
		}
		return "", fmt.Errorf("get manifest %s: %w", sourceID, err)
	}
	return entry.Path, nil
}

// generateHighlights creates up to three sentence snippets containing
// query terms.
func generateHighlights(content, query string) []string {
	queryTerms := strings.Fields(strings.ToLower(query))
	if len(queryTerms) == 0 {
		return nil
	}

	var highlights []string
	for _, sentence := range splitSentences(content) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		sentenceLower := strings.ToLower(sentence)
		for _, term := range queryTerms {
			if strings.Contains(sentenceLower, term) {
				highlight := sentence
				if len(highlight) > 200 {
					highlight = highlight[:200] + "..."
				}
				highlights = append(highlights, highlight)
				break
			}
		}

		if len(highlights) >= 3 {
			break
		}
	}

	return highlights
}

// splitSentences splits content into sentences by common terminators.
func splitSentences(content string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range content {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			s := strings.TrimSpace(current.String())
			if s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
