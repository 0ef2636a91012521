package knowledge

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// UpsertChunkParams are the column values for an insert-or-update of one chunk.
type UpsertChunkParams struct {
	ID        string
	Text      string
	SourceURL string
	Title     string
	Embedding *pgvector.Vector
	CreatedAt pgtype.Timestamptz
}

// SearchChunksRow is one row of the similarity search result set.
type SearchChunksRow struct {
	ID         string
	Text       string
	SourceURL  string
	Title      string
	CreatedAt  pgtype.Timestamptz
	Similarity float32
}

const upsertChunkSQL = `
INSERT INTO chunks (id, text, source_url, title, embedding, created_at)
VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
ON CONFLICT (id) DO UPDATE SET
    text = EXCLUDED.text,
    source_url = EXCLUDED.source_url,
    title = EXCLUDED.title,
    embedding = EXCLUDED.embedding`

const searchChunksSQL = `
SELECT id, text, source_url, title, created_at,
       1 - (embedding <=> $1) AS similarity
FROM chunks
WHERE embedding IS NOT NULL
ORDER BY embedding <=> $1
LIMIT $2`

const countChunksSQL = `SELECT count(*) FROM chunks`

const deleteChunksBySourceSQL = `DELETE FROM chunks WHERE source_url = $1`

// Queries is the pgx-backed implementation of the Querier interface.
// All statements are parameterized; filter values never reach the SQL text.
type Queries struct {
	pool *pgxpool.Pool
}

// NewQueries creates a Queries instance over the given connection pool.
func NewQueries(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// UpsertChunk inserts a chunk or updates it in place when the ID exists.
func (q *Queries) UpsertChunk(ctx context.Context, arg UpsertChunkParams) error {
	var createdAt any
	if arg.CreatedAt.Valid {
		createdAt = arg.CreatedAt
	}
	_, err := q.pool.Exec(ctx, upsertChunkSQL,
		arg.ID, arg.Text, arg.SourceURL, arg.Title, arg.Embedding, createdAt)
	if err != nil {
		return fmt.Errorf("upserting chunk: %w", err)
	}
	return nil
}

// SearchChunks returns the chunks nearest to the query embedding by
// cosine distance, most similar first.
func (q *Queries) SearchChunks(ctx context.Context, embedding *pgvector.Vector, limit int32) ([]SearchChunksRow, error) {
	rows, err := q.pool.Query(ctx, searchChunksSQL, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	var results []SearchChunksRow
	for rows.Next() {
		var row SearchChunksRow
		var similarity float64
		if err := rows.Scan(&row.ID, &row.Text, &row.SourceURL, &row.Title, &row.CreatedAt, &similarity); err != nil {
			return nil, fmt.Errorf("scanning chunk row: %w", err)
		}
		row.Similarity = float32(similarity)
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading chunk rows: %w", err)
	}
	return results, nil
}

// CountChunks returns the total number of indexed chunks.
func (q *Queries) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	if err := q.pool.QueryRow(ctx, countChunksSQL).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// DeleteChunksBySource removes all chunks ingested from the given page.
// Returns the number of chunks removed.
func (q *Queries) DeleteChunksBySource(ctx context.Context, sourceURL string) (int64, error) {
	tag, err := q.pool.Exec(ctx, deleteChunksBySourceSQL, sourceURL)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks for %q: %w", sourceURL, err)
	}
	return tag.RowsAffected(), nil
}
