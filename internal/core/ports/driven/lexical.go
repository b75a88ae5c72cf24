package driven

// LexicalScorer measures fuzzy string similarity between a query and
// a candidate text, independent of embeddings. It is stateless: scores
// are computed on demand over the candidate set returned by the vector
// query, not from a separately persisted index.
//
// Its purpose is to catch exact or near-exact literal matches (proper
// nouns, identifiers, codes) that a semantic embedding may under-rank.
type LexicalScorer interface {
	// Score returns a similarity in [0,1].
	Score(query, candidate string) float64
}
