package domain

// SearchOptions configures a search query.
type SearchOptions struct {
	// TopK is the maximum number of final results. Zero means the
	// configured default.
	TopK int

	// CategoryFilter restricts results to chunks carrying the given
	// category tag. Empty means no filter.
	CategoryFilter string
}

// ScoredChunk is an intermediate candidate flowing from the vector
// store through the reranker. Scores are similarities in [0,1].
type ScoredChunk struct {
	// ChunkID is the candidate chunk.
	ChunkID string

	// Content is the chunk text.
	Content string

	// SourcePath is the absolute path of the originating file.
	SourcePath string

	// Tags are the category tags inherited from the source.
	Tags []string

	// VectorScore is the normalised vector similarity.
	VectorScore float64

	// LexicalScore is the fuzzy string similarity against the query.
	// Zero until a reranker computes it.
	LexicalScore float64

	// BlendedScore is the final ranking score.
	BlendedScore float64
}

// SearchResult is one entry of the ordered result list returned to
// callers. It is ephemeral and JSON-serialisable.
type SearchResult struct {
	// ChunkID is the matched chunk.
	ChunkID string `json:"chunk_id"`

	// Text is the chunk content.
	Text string `json:"text"`

	// SourcePath is the provenance of the chunk.
	SourcePath string `json:"source_path"`

	// CategoryTags are the path-derived tags of the source.
	CategoryTags []string `json:"category_tags"`

	// VectorScore is the normalised vector similarity in [0,1].
	VectorScore float64 `json:"vector_score"`

	// LexicalScore is the fuzzy string similarity in [0,1].
	LexicalScore float64 `json:"lexical_score"`

	// BlendedScore is the final ranking score.
	BlendedScore float64 `json:"blended_score"`

	// Highlights contains up to three matched-sentence snippets.
	Highlights []string `json:"highlights,omitempty"`
}
