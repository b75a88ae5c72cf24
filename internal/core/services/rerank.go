package services

import (
	"sort"

	"github.com/veldt-labs/datacore/internal/core/domain"
	"github.com/veldt-labs/datacore/internal/core/ports/driven"
)

// Reranker strategy names.
const (
	RerankIdentity      = "identity"
	RerankWeightedBlend = "weighted-blend"
)

// Ensure both strategies implement the interface.
var (
	_ driven.Reranker = (*IdentityReranker)(nil)
	_ driven.Reranker = (*BlendReranker)(nil)
)

// IdentityReranker keeps the vector store's ranking untouched. The
// blended score is the vector score and no lexical scoring happens.
type IdentityReranker struct{}

// NewIdentityReranker creates a pass-through reranker.
func NewIdentityReranker() *IdentityReranker {
	return &IdentityReranker{}
}

// Name returns the strategy name.
func (r *IdentityReranker) Name() string { return RerankIdentity }

// PoolSize requests exactly topK candidates: with no re-ordering there
// is nothing to gain from overfetching.
func (r *IdentityReranker) PoolSize(topK int) int { return topK }

// Rerank copies the vector score into the blended score and truncates.
func (r *IdentityReranker) Rerank(query string, candidates []domain.ScoredChunk, topK int) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		c.BlendedScore = c.VectorScore
		out = append(out, c)
	}
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

// BlendReranker combines vector similarity with a lexical fuzzy score:
//
//	blended = alpha*vector + (1-alpha)*lexical
//
// With alpha=1 ranking degenerates to pure vector order; alpha=0 is
// pure lexical order over the vector-retrieved pool.
type BlendReranker struct {
	scorer     driven.LexicalScorer
	alpha      float64
	multiplier int
}

// NewBlendReranker creates a weighted-blend reranker. The multiplier
// controls candidate overfetch; values below 1 are treated as 1.
func NewBlendReranker(scorer driven.LexicalScorer, alpha float64, multiplier int) *BlendReranker {
	if multiplier < 1 {
		multiplier = 1
	}
	return &BlendReranker{
		scorer:     scorer,
		alpha:      alpha,
		multiplier: multiplier,
	}
}

// Name returns the strategy name.
func (r *BlendReranker) Name() string { return RerankWeightedBlend }

// PoolSize overfetches so lexical scoring can promote candidates the
// vector ranking under-ranked.
func (r *BlendReranker) PoolSize(topK int) int {
	size := topK * r.multiplier
	if size < topK {
		size = topK
	}
	return size
}

// Rerank scores each candidate lexically, blends, sorts and truncates.
func (r *BlendReranker) Rerank(query string, candidates []domain.ScoredChunk, topK int) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		c.LexicalScore = r.scorer.Score(query, c.Content)
		c.BlendedScore = r.alpha*c.VectorScore + (1-r.alpha)*c.LexicalScore
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].BlendedScore > out[j].BlendedScore
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}
