package rag

import (
	"context"

	"github.com/mitscampus/campusbot/internal/knowledge"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 5

// Retriever returns the chunks most similar to a search query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]knowledge.Result, error)
}

// StoreRetriever adapts the knowledge store to the Retriever interface.
type StoreRetriever struct {
	store *knowledge.Store
}

// NewStoreRetriever wraps a knowledge store.
func NewStoreRetriever(store *knowledge.Store) *StoreRetriever {
	return &StoreRetriever{store: store}
}

// Retrieve runs a similarity search. Non-positive k falls back to
// DefaultTopK.
func (r *StoreRetriever) Retrieve(ctx context.Context, query string, k int) ([]knowledge.Result, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	return r.store.Search(ctx, query, knowledge.WithTopK(k))
}
