// Package ingest crawls the college website and turns its pages into
// embedded chunks in the knowledge store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mitscampus/campusbot/internal/knowledge"
	"github.com/mitscampus/campusbot/internal/log"
)

// ErrNoContent is returned when no page yielded any chunk.
var ErrNoContent = errors.New("no content was loaded from any URLs")

// Loader fetches website pages.
type Loader interface {
	Load(ctx context.Context, pageURL string) (Page, error)
	LoadSitemap(ctx context.Context, sitemapURL string) ([]string, error)
}

// ChunkStore persists embedded chunks.
type ChunkStore interface {
	Add(ctx context.Context, chunk knowledge.Chunk) error
	DeleteBySource(ctx context.Context, sourceURL string) (int64, error)
}

// Ingestor loads pages, splits them, and writes the chunks to the store.
type Ingestor struct {
	loader   Loader
	store    ChunkStore
	splitter *Splitter
	logger   log.Logger
}

// New builds an Ingestor. A nil logger is replaced with a no-op one.
func New(loader Loader, store ChunkStore, splitter *Splitter, logger log.Logger) *Ingestor {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Ingestor{loader: loader, store: store, splitter: splitter, logger: logger}
}

// Stats summarizes one ingestion run.
type Stats struct {
	Pages  int
	Chunks int
	Failed int
}

// IngestURLs processes each URL in order. A page that fails to load or
// store is logged and skipped; the run only fails when every page
// failed to produce content.
func (ing *Ingestor) IngestURLs(ctx context.Context, urls []string) (Stats, error) {
	var stats Stats
	for _, pageURL := range urls {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		chunks, err := ing.ingestPage(ctx, pageURL)
		if err != nil {
			ing.logger.Warn("skipping page", "url", pageURL, "error", err)
			stats.Failed++
			continue
		}
		stats.Pages++
		stats.Chunks += chunks
	}

	if stats.Chunks == 0 {
		return stats, ErrNoContent
	}
	ing.logger.Info("ingestion complete",
		"pages", stats.Pages, "chunks", stats.Chunks, "failed", stats.Failed)
	return stats, nil
}

// IngestSitemap loads the sitemap and ingests every page it lists.
func (ing *Ingestor) IngestSitemap(ctx context.Context, sitemapURL string) (Stats, error) {
	urls, err := ing.loader.LoadSitemap(ctx, sitemapURL)
	if err != nil {
		return Stats{}, err
	}
	if len(urls) == 0 {
		return Stats{}, fmt.Errorf("sitemap %s lists no pages", sitemapURL)
	}
	return ing.IngestURLs(ctx, urls)
}

// ingestPage loads one page and stores its chunks, replacing any chunks
// previously ingested from the same URL.
func (ing *Ingestor) ingestPage(ctx context.Context, pageURL string) (int, error) {
	page, err := ing.loader.Load(ctx, pageURL)
	if err != nil {
		return 0, err
	}

	texts := ing.splitter.Split(page.Text)
	if len(texts) == 0 {
		return 0, fmt.Errorf("page %s has no text content", pageURL)
	}

	// Re-ingesting a changed page is delete-then-add.
	if _, err := ing.store.DeleteBySource(ctx, pageURL); err != nil {
		return 0, fmt.Errorf("clear previous chunks for %s: %w", pageURL, err)
	}

	now := time.Now()
	for i, text := range texts {
		chunk := knowledge.Chunk{
			ID:        uuid.NewString(),
			Text:      text,
			SourceURL: pageURL,
			Title:     page.Title,
			CreatedAt: now,
		}
		if err := ing.store.Add(ctx, chunk); err != nil {
			return 0, fmt.Errorf("store chunk %d of %s: %w", i+1, pageURL, err)
		}
	}

	ing.logger.Debug("ingested page", "url", pageURL, "title", page.Title, "chunks", len(texts))
	return len(texts), nil
}
