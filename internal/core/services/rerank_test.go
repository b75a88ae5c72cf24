package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldt-labs/datacore/internal/core/domain"
	"github.com/veldt-labs/datacore/internal/lexical"
)

func candidates() []domain.ScoredChunk {
	return []domain.ScoredChunk{
		{ChunkID: "c1", Content: "completely unrelated text about gardening", VectorScore: 0.9},
		{ChunkID: "c2", Content: "the exact billing reference code", VectorScore: 0.8},
		{ChunkID: "c3", Content: "another unrelated passage about weather", VectorScore: 0.7},
	}
}

func TestIdentityReranker(t *testing.T) {
	r := NewIdentityReranker()

	assert.Equal(t, RerankIdentity, r.Name())
	assert.Equal(t, 5, r.PoolSize(5))

	out := r.Rerank("billing reference code", candidates(), 2)
	require.Len(t, out, 2)
	assert.Equal(t, "c1", out[0].ChunkID, "identity keeps vector order")
	assert.Equal(t, out[0].VectorScore, out[0].BlendedScore)
	assert.Zero(t, out[0].LexicalScore)
}

func TestBlendReranker_PoolSize(t *testing.T) {
	r := NewBlendReranker(lexical.New(), 0.5, 4)
	assert.Equal(t, 20, r.PoolSize(5))

	// Multipliers below one never shrink the pool under topK.
	r = NewBlendReranker(lexical.New(), 0.5, 0)
	assert.Equal(t, 5, r.PoolSize(5))
}

func TestBlendReranker_AlphaOneIsVectorOrder(t *testing.T) {
	r := NewBlendReranker(lexical.New(), 1.0, 3)

	out := r.Rerank("billing reference code", candidates(), 3)
	require.Len(t, out, 3)
	assert.Equal(t, "c1", out[0].ChunkID)
	assert.Equal(t, "c2", out[1].ChunkID)
	assert.Equal(t, "c3", out[2].ChunkID)
	for _, c := range out {
		assert.InDelta(t, c.VectorScore, c.BlendedScore, 1e-9)
	}
}

func TestBlendReranker_AlphaZeroIsLexicalOrder(t *testing.T) {
	r := NewBlendReranker(lexical.New(), 0.0, 3)

	out := r.Rerank("billing reference code", candidates(), 3)
	require.Len(t, out, 3)
	assert.Equal(t, "c2", out[0].ChunkID, "literal match wins regardless of vector rank")
	assert.InDelta(t, out[0].LexicalScore, out[0].BlendedScore, 1e-9)
}

func TestBlendReranker_PromotesLiteralMatch(t *testing.T) {
	r := NewBlendReranker(lexical.New(), 0.5, 3)

	out := r.Rerank("billing reference code", candidates(), 3)
	require.Len(t, out, 3)
	assert.Equal(t, "c2", out[0].ChunkID,
		"a full lexical score outweighs a small vector deficit at alpha 0.5")
	assert.Greater(t, out[0].BlendedScore, 0.5)
}

func TestBlendReranker_Truncates(t *testing.T) {
	r := NewBlendReranker(lexical.New(), 0.5, 3)

	out := r.Rerank("anything", candidates(), 1)
	assert.Len(t, out, 1)

	out = r.Rerank("anything", nil, 5)
	assert.Empty(t, out)
}

func TestBlendReranker_WiderPoolKeepsExistingResults(t *testing.T) {
	r := NewBlendReranker(lexical.New(), 0.5, 3)
	query := "billing reference code"

	narrow := r.Rerank(query, candidates(), 2)
	require.Len(t, narrow, 2)

	wide := r.Rerank(query, append(candidates(),
		domain.ScoredChunk{ChunkID: "c4", Content: "archived meeting notes", VectorScore: 0.3},
		domain.ScoredChunk{ChunkID: "c5", Content: "old shipping labels", VectorScore: 0.2},
	), 2)
	require.Len(t, wide, 2)

	kept := map[string]bool{}
	for _, c := range wide {
		kept[c.ChunkID] = true
	}
	for _, c := range narrow {
		assert.True(t, kept[c.ChunkID],
			"chunk %s ranked in the narrow pool must survive a wider one", c.ChunkID)
	}
}

func TestBlendReranker_ScoresStayOrdered(t *testing.T) {
	r := NewBlendReranker(lexical.New(), 0.5, 3)

	out := r.Rerank("billing reference code", candidates(), 3)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].BlendedScore, out[i].BlendedScore)
	}
}
