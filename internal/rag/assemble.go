package rag

import (
	"strings"

	"github.com/mitscampus/campusbot/internal/knowledge"
)

// Assemble builds the generation context from retrieved chunks and, when
// present, the conversation so far. Chunk texts are joined in the order
// the re-ranker produced. History is serialized first, followed by a
// "Context:" marker. No length capping or token budgeting is applied;
// very long histories pass through as-is.
func Assemble(results []knowledge.Result, history History) string {
	texts := make([]string, len(results))
	for i, res := range results {
		texts[i] = res.Chunk.Text
	}
	chunkContext := strings.Join(texts, "\n\n")

	if len(history) == 0 {
		return chunkContext
	}
	return history.String() + "\nContext: " + chunkContext
}
