package driven

import "github.com/veldt-labs/datacore/internal/core/domain"

// Reranker re-orders a vector-retrieved candidate pool into the final
// ranked result list. It is a strategy selected at configuration time
// so the search service code path is identical regardless of which
// implementation is active.
//
// Two implementations exist: identity (raw vector order) and
// weighted-blend (vector similarity blended with lexical similarity).
type Reranker interface {
	// Name returns the strategy name for logging and configuration.
	Name() string

	// PoolSize returns how many candidates to overfetch from the
	// vector store for a requested topK. Never less than topK.
	PoolSize(topK int) int

	// Rerank scores and re-orders candidates, truncating to topK.
	// Candidates arrive with VectorScore populated; the reranker
	// fills LexicalScore and BlendedScore.
	Rerank(query string, candidates []domain.ScoredChunk, topK int) []domain.ScoredChunk
}
