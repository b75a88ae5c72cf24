// Package lexical provides fuzzy string-similarity scoring over
// candidate passages. It is independent of embeddings and stateless:
// scores are computed on demand against the raw query text, so the
// two retrieval signals stay decoupled.
package lexical

import (
	"sort"
	"strings"
	"unicode"

	"github.com/xrash/smetrics"

	"github.com/veldt-labs/datacore/internal/core/ports/driven"
)

// Ensure Scorer implements the interface.
var _ driven.LexicalScorer = (*Scorer)(nil)

// Scorer computes a token-set ratio: tokens common to both strings
// score independently of the tokens unique to each side, so a short
// query that appears verbatim inside a long passage scores 1.0.
type Scorer struct{}

// New creates a new lexical scorer.
func New() *Scorer {
	return &Scorer{}
}

// Score returns the token-set similarity of query and candidate in [0,1].
func (s *Scorer) Score(query, candidate string) float64 {
	qTokens := tokenSet(query)
	cTokens := tokenSet(candidate)
	if len(qTokens) == 0 || len(cTokens) == 0 {
		return 0
	}

	var inter, qOnly, cOnly []string
	for tok := range qTokens {
		if _, ok := cTokens[tok]; ok {
			inter = append(inter, tok)
		} else {
			qOnly = append(qOnly, tok)
		}
	}
	for tok := range cTokens {
		if _, ok := qTokens[tok]; !ok {
			cOnly = append(cOnly, tok)
		}
	}
	sort.Strings(inter)
	sort.Strings(qOnly)
	sort.Strings(cOnly)

	base := strings.Join(inter, " ")
	withQuery := joinNonEmpty(base, strings.Join(qOnly, " "))
	withCandidate := joinNonEmpty(base, strings.Join(cOnly, " "))

	best := indelRatio(base, withQuery)
	if r := indelRatio(base, withCandidate); r > best {
		best = r
	}
	if r := indelRatio(withQuery, withCandidate); r > best {
		best = r
	}
	return best
}

// tokenSet lowercases and splits on non-alphanumeric runes.
func tokenSet(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

// indelRatio is the normalised insert/delete edit similarity:
// substitutions cost 2 so the distance degenerates to pure
// insertions plus deletions, matching the classic fuzzy ratio.
func indelRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	lenSum := len(a) + len(b)
	if lenSum == 0 {
		return 1
	}
	dist := smetrics.WagnerFischer(a, b, 1, 1, 2)
	return float64(lenSum-dist) / float64(lenSum)
}
