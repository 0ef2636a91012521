package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_Append(t *testing.T) {
	t.Parallel()

	var before History
	after := before.Append("What is MITS?", "An engineering college in Varikoli.")

	require.Len(t, after, 1)
	assert.Equal(t, Turn{
		Question: "What is MITS?",
		Answer:   "An engineering college in Varikoli.",
	}, after[0])
	assert.Empty(t, before, "the prior history value must be unchanged")
}

func TestHistory_AppendGrowsByExactlyOne(t *testing.T) {
	t.Parallel()

	h := History{}
	for i := 0; i < 5; i++ {
		prev := h
		h = h.Append("q", "a")
		assert.Len(t, h, len(prev)+1)
		assert.Equal(t, prev, h[:len(prev)], "earlier turns are never reordered")
	}
}

func TestHistory_AppendDoesNotAliasPrior(t *testing.T) {
	t.Parallel()

	base := History{}.Append("first question", "first answer")
	a := base.Append("branch a", "answer a")
	b := base.Append("branch b", "answer b")

	assert.Equal(t, "branch a", a[1].Question)
	assert.Equal(t, "branch b", b[1].Question)
	assert.Equal(t, "first question", base[0].Question)
}

func TestHistory_String(t *testing.T) {
	t.Parallel()

	h := History{}.
		Append("Who is the principal?", "Dr. X is the Principal of MITS.").
		Append("Where is the campus?", "Varikoli, Puthencruz.")

	want := "Human: Who is the principal?\nAI: Dr. X is the Principal of MITS.\n" +
		"Human: Where is the campus?\nAI: Varikoli, Puthencruz."
	assert.Equal(t, want, h.String())
}

func TestHistory_StringEmpty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, History{}.String())
}

func TestExpandQuery_EmptyHistory(t *testing.T) {
	t.Parallel()

	q := "When do admissions open?"
	assert.Equal(t, q, ExpandQuery(q, nil), "question must pass through verbatim")
	assert.Equal(t, q, ExpandQuery(q, History{}))
}

func TestExpandQuery_UsesLastAnswer(t *testing.T) {
	t.Parallel()

	h := History{}.
		Append("Who is the principal?", "Dr. X is the Principal of MITS.").
		Append("Where is the campus?", "Varikoli, Puthencruz.")

	got := ExpandQuery("How do I get there?", h)
	assert.Equal(t, "Varikoli, Puthencruz. How do I get there?", got,
		"expansion is lastAnswer + space + question")
}
