package knowledge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockEmbedder implements ai.Embedder for testing.
type mockEmbedder struct {
	embedErr      error
	returnEmpty   bool
	embeddings    []float32
	callCount     int
	lastInputText string
}

func (m *mockEmbedder) Name() string { return "mock-embedder" }

func (m *mockEmbedder) Register(r api.Registry) {}

func (m *mockEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	m.callCount++
	if len(req.Input) > 0 && len(req.Input[0].Content) > 0 {
		m.lastInputText = req.Input[0].Content[0].Text
	}
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.returnEmpty {
		return &ai.EmbedResponse{Embeddings: []*ai.Embedding{{Embedding: []float32{}}}}, nil
	}
	embeddings := m.embeddings
	if embeddings == nil {
		embeddings = []float32{0.1, 0.2, 0.3}
	}
	return &ai.EmbedResponse{Embeddings: []*ai.Embedding{{Embedding: embeddings}}}, nil
}

// mockQuerier implements Querier for testing.
type mockQuerier struct {
	upsertErr    error
	searchErr    error
	searchRows   []SearchChunksRow
	upserted     []UpsertChunkParams
	searchLimit  int32
	count        int64
	deleted      int64
	searchCalled int
}

func (m *mockQuerier) UpsertChunk(ctx context.Context, arg UpsertChunkParams) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, arg)
	return nil
}

func (m *mockQuerier) SearchChunks(ctx context.Context, embedding *pgvector.Vector, limit int32) ([]SearchChunksRow, error) {
	m.searchCalled++
	m.searchLimit = limit
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchRows, nil
}

func (m *mockQuerier) CountChunks(ctx context.Context) (int64, error) {
	return m.count, nil
}

func (m *mockQuerier) DeleteChunksBySource(ctx context.Context, sourceURL string) (int64, error) {
	return m.deleted, nil
}

func TestStore_Add(t *testing.T) {
	t.Parallel()

	querier := &mockQuerier{}
	embedder := &mockEmbedder{}
	store := New(querier, embedder, nil)

	chunk := Chunk{
		ID:        "chunk-1",
		Text:      "Dr. X is the Principal of MITS.",
		SourceURL: "https://mgmits.ac.in/administration/",
		Title:     "Administration",
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.Add(context.Background(), chunk))

	require.Len(t, querier.upserted, 1)
	got := querier.upserted[0]
	assert.Equal(t, "chunk-1", got.ID)
	assert.Equal(t, chunk.Text, got.Text)
	assert.Equal(t, chunk.SourceURL, got.SourceURL)
	assert.Equal(t, chunk.Title, got.Title)
	assert.NotNil(t, got.Embedding)
	assert.True(t, got.CreatedAt.Valid)
	assert.Equal(t, chunk.Text, embedder.lastInputText, "the chunk text must be what gets embedded")
}

func TestStore_Add_EmbedderError(t *testing.T) {
	t.Parallel()

	querier := &mockQuerier{}
	store := New(querier, &mockEmbedder{embedErr: errors.New("quota exceeded")}, nil)

	err := store.Add(context.Background(), Chunk{ID: "chunk-1", Text: "text"})
	require.Error(t, err)
	assert.Empty(t, querier.upserted, "nothing may be stored when embedding fails")
}

func TestStore_Add_EmptyEmbedding(t *testing.T) {
	t.Parallel()

	querier := &mockQuerier{}
	store := New(querier, &mockEmbedder{returnEmpty: true}, nil)

	err := store.Add(context.Background(), Chunk{ID: "chunk-1", Text: "text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty embedding")
}

func TestStore_Search(t *testing.T) {
	t.Parallel()

	now := time.Now()
	querier := &mockQuerier{
		searchRows: []SearchChunksRow{
			{
				ID: "a", Text: "Admissions open in June.",
				SourceURL: "https://mgmits.ac.in/b-tech-admissions-2021/", Title: "Admissions",
				CreatedAt: pgtype.Timestamptz{Time: now, Valid: true}, Similarity: 0.91,
			},
			{
				ID: "b", Text: "The campus is in Varikoli.",
				SourceURL: "https://mgmits.ac.in/contact-us/", Title: "Contact Us",
				Similarity: 0.72,
			},
		},
	}
	embedder := &mockEmbedder{}
	store := New(querier, embedder, nil)

	results, err := store.Search(context.Background(), "when do admissions open")
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Chunk.ID)
	assert.InDelta(t, 0.91, results[0].Similarity, 1e-6)
	assert.Equal(t, now, results[0].Chunk.CreatedAt)
	assert.True(t, results[1].Chunk.CreatedAt.IsZero(), "invalid timestamp maps to zero time")
	assert.Equal(t, "when do admissions open", embedder.lastInputText)
	assert.Equal(t, int32(5), querier.searchLimit, "default top k is 5")
}

func TestStore_Search_WithTopK(t *testing.T) {
	t.Parallel()

	querier := &mockQuerier{}
	store := New(querier, &mockEmbedder{}, nil)

	_, err := store.Search(context.Background(), "question", WithTopK(3))
	require.NoError(t, err)
	assert.Equal(t, int32(3), querier.searchLimit)
}

func TestStore_Search_EmptyResultIsNotError(t *testing.T) {
	t.Parallel()

	store := New(&mockQuerier{}, &mockEmbedder{}, nil)

	results, err := store.Search(context.Background(), "anything at all")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStore_Search_EmbedderError(t *testing.T) {
	t.Parallel()

	querier := &mockQuerier{}
	store := New(querier, &mockEmbedder{embedErr: errors.New("boom")}, nil)

	_, err := store.Search(context.Background(), "question")
	require.Error(t, err)
	assert.Zero(t, querier.searchCalled, "no search without an embedding")
}

func TestStore_Search_QuerierError(t *testing.T) {
	t.Parallel()

	store := New(&mockQuerier{searchErr: errors.New("connection reset")}, &mockEmbedder{}, nil)

	_, err := store.Search(context.Background(), "question")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search failed")
}

func TestStore_Count(t *testing.T) {
	t.Parallel()

	store := New(&mockQuerier{count: 42}, &mockEmbedder{}, nil)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}

func TestStore_DeleteBySource(t *testing.T) {
	t.Parallel()

	store := New(&mockQuerier{deleted: 7}, &mockEmbedder{}, nil)

	deleted, err := store.DeleteBySource(context.Background(), "https://mgmits.ac.in/contact-us/")
	require.NoError(t, err)
	assert.Equal(t, int64(7), deleted)

	_, err = store.DeleteBySource(context.Background(), "")
	assert.Error(t, err, "empty source must be rejected")
}
