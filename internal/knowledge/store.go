// Package knowledge manages the vector index of campus site chunks.
//
// Store handles embedding generation and vector similarity search on
// PostgreSQL + pgvector. Chunks are write-once: ingestion upserts them
// with their provenance metadata, and the retrieval path only reads.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pgvector/pgvector-go"

	"github.com/mitscampus/campusbot/internal/log"
)

// Querier defines the database operations Store depends on.
// The interface lives with the consumer so tests can substitute a mock
// for the pgx-backed Queries implementation.
type Querier interface {
	// UpsertChunk inserts or updates a chunk.
	UpsertChunk(ctx context.Context, arg UpsertChunkParams) error

	// SearchChunks performs vector similarity search.
	SearchChunks(ctx context.Context, embedding *pgvector.Vector, limit int32) ([]SearchChunksRow, error)

	// CountChunks counts all chunks.
	CountChunks(ctx context.Context) (int64, error)

	// DeleteChunksBySource deletes all chunks from one source page.
	DeleteChunksBySource(ctx context.Context, sourceURL string) (int64, error)
}

// Store manages campus page chunks with vector search capabilities.
// It is safe for concurrent use by multiple goroutines.
type Store struct {
	queries  Querier
	embedder ai.Embedder
	logger   log.Logger
}

// New creates a new Store instance.
// logger may be nil, in which case a no-op logger is used.
func New(querier Querier, embedder ai.Embedder, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{
		queries:  querier,
		embedder: embedder,
		logger:   logger,
	}
}

// Add embeds a chunk's text and upserts it into the index.
func (s *Store) Add(ctx context.Context, chunk Chunk) error {
	embedding, err := s.embed(ctx, chunk.Text)
	if err != nil {
		return fmt.Errorf("embedding chunk %q: %w", chunk.ID, err)
	}

	err = s.queries.UpsertChunk(ctx, UpsertChunkParams{
		ID:        chunk.ID,
		Text:      chunk.Text,
		SourceURL: chunk.SourceURL,
		Title:     chunk.Title,
		Embedding: embedding,
		CreatedAt: pgtype.Timestamptz{Time: chunk.CreatedAt, Valid: !chunk.CreatedAt.IsZero()},
	})
	if err != nil {
		return fmt.Errorf("storing chunk %q: %w", chunk.ID, err)
	}

	s.logger.Debug("added chunk", "id", chunk.ID, "source", chunk.SourceURL, "text_length", len(chunk.Text))
	return nil
}

// Search returns the chunks most similar to the query, ordered by
// similarity score. An empty result set is not an error: it means the
// index holds nothing relevant.
//
// A per-search timeout keeps a slow embedding call or vector scan from
// blocking the caller indefinitely.
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	cfg := buildSearchConfig(opts)

	queryCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	embedding, err := s.embed(queryCtx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("embedding generation timeout: %w", err)
		}
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	if cfg.topK > math.MaxInt32 {
		return nil, fmt.Errorf("top k %d exceeds int32 range", cfg.topK)
	}
	rows, err := s.queries.SearchChunks(queryCtx, embedding, int32(cfg.topK))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search query timeout: %w", err)
		}
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		chunk := Chunk{
			ID:        row.ID,
			Text:      row.Text,
			SourceURL: row.SourceURL,
			Title:     row.Title,
		}
		if row.CreatedAt.Valid {
			chunk.CreatedAt = row.CreatedAt.Time
		}
		results = append(results, Result{Chunk: chunk, Similarity: row.Similarity})
	}
	return results, nil
}

// Count returns the total number of indexed chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	count, err := s.queries.CountChunks(ctx)
	if err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	if count > math.MaxInt {
		return 0, fmt.Errorf("chunk count %d exceeds platform int capacity", count)
	}
	return int(count), nil
}

// DeleteBySource removes all chunks ingested from one page.
// Re-ingesting a changed page is delete-then-add.
func (s *Store) DeleteBySource(ctx context.Context, sourceURL string) (int64, error) {
	if sourceURL == "" {
		return 0, fmt.Errorf("sourceURL must not be empty")
	}
	deleted, err := s.queries.DeleteChunksBySource(ctx, sourceURL)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("deleted chunks", "source", sourceURL, "count", deleted)
	return deleted, nil
}

// embed generates the embedding vector for one piece of text.
func (s *Store) embed(ctx context.Context, text string) (*pgvector.Vector, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			{Content: []*ai.Part{ai.NewTextPart(text)}},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, errors.New("empty embedding returned")
	}
	vec := pgvector.NewVector(resp.Embeddings[0].Embedding)
	return &vec, nil
}
