// Package rag implements the retrieval-augmented answer pipeline:
// retrieval with conversational query expansion, keyword re-ranking,
// context assembly, and answer generation.
package rag

import "strings"

// Turn is one completed question/answer exchange.
type Turn struct {
	Question string
	Answer   string
}

// History is the ordered, append-only record of a conversation.
// The zero value is an empty conversation.
type History []Turn

// Append returns a new history with one turn added at the end.
// The receiver is never mutated, so callers holding the old slice
// keep seeing exactly the turns that existed when they captured it.
func (h History) Append(question, answer string) History {
	next := make(History, len(h), len(h)+1)
	copy(next, h)
	return append(next, Turn{Question: question, Answer: answer})
}

// String serializes the history as alternating "Human:" and "AI:" lines
// in chronological order.
func (h History) String() string {
	if len(h) == 0 {
		return ""
	}
	lines := make([]string, len(h))
	for i, turn := range h {
		lines[i] = "Human: " + turn.Question + "\nAI: " + turn.Answer
	}
	return strings.Join(lines, "\n")
}

// ExpandQuery builds the retrieval query for a question. With a non-empty
// history the most recent answer is prepended so follow-up questions
// ("what about him?") still land near the right chunks. With an empty
// history the question is used verbatim.
func ExpandQuery(question string, history History) string {
	if len(history) == 0 {
		return question
	}
	return history[len(history)-1].Answer + " " + question
}
