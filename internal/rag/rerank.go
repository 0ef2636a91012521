package rag

import (
	"sort"
	"strings"

	"github.com/mitscampus/campusbot/internal/knowledge"
)

// DefaultKeywords are the query terms that trigger leadership re-ranking.
var DefaultKeywords = []string{"principal", "vice principal", "dean", "director", "head"}

// DefaultBoostTerms is appended to the search query for triggered queries
// so retrieval favors administration pages.
const DefaultBoostTerms = "MITS leadership administration management executive-body"

// Reranker reorders retrieved chunks for queries about college leadership.
// Vector similarity alone tends to scatter such chunks, so chunks that
// actually mention the leadership terms are promoted.
type Reranker struct {
	keywords   []string
	boostTerms string
}

// NewReranker builds a Reranker. Nil or empty keywords and an empty boost
// string fall back to the defaults.
func NewReranker(keywords []string, boostTerms string) *Reranker {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	if boostTerms == "" {
		boostTerms = DefaultBoostTerms
	}
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return &Reranker{keywords: lowered, boostTerms: boostTerms}
}

// Triggered reports whether the query contains any keyword,
// case-insensitively.
func (r *Reranker) Triggered(query string) bool {
	q := strings.ToLower(query)
	for _, kw := range r.keywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// BoostQuery appends the boost terms to the search query when the
// user's question is a leadership query. Otherwise the query is
// returned unchanged.
func (r *Reranker) BoostQuery(searchQuery, question string) string {
	if !r.Triggered(question) {
		return searchQuery
	}
	return searchQuery + " " + r.boostTerms
}

// Rerank reorders results for a triggered query by the number of
// keywords each chunk mentions, highest first. The sort is stable, so
// chunks with equal scores keep their similarity order. For a
// non-triggered query the results pass through unchanged.
func (r *Reranker) Rerank(results []knowledge.Result, query string) []knowledge.Result {
	if !r.Triggered(query) || len(results) < 2 {
		return results
	}

	scores := make([]int, len(results))
	for i, res := range results {
		scores[i] = r.score(res.Chunk.Text)
	}

	reranked := make([]knowledge.Result, len(results))
	order := make([]int, len(results))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	for i, idx := range order {
		reranked[i] = results[idx]
	}
	return reranked
}

// score counts how many keywords appear in the text.
func (r *Reranker) score(text string) int {
	lowered := strings.ToLower(text)
	n := 0
	for _, kw := range r.keywords {
		if strings.Contains(lowered, kw) {
			n++
		}
	}
	return n
}
