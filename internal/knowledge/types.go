package knowledge

import "time"

// Chunk is a window of normalized page text with its provenance.
// SourceURL and Title are set once at ingestion time and never change.
type Chunk struct {
	ID        string    // Unique identifier (UUID assigned at ingestion)
	Text      string    // Chunk text content
	SourceURL string    // Page the chunk was extracted from
	Title     string    // Page title (or URL-derived fallback)
	CreatedAt time.Time // Ingestion timestamp
}

// Result is a single similarity search result.
type Result struct {
	Chunk      Chunk
	Similarity float32 // Cosine similarity score (0-1)
}

// SearchOption configures search behavior using the functional options pattern.
type SearchOption func(*searchConfig)

// searchConfig holds internal search configuration.
type searchConfig struct {
	topK    int
	timeout time.Duration
}

// WithTopK sets the maximum number of results to return.
// Default is 5 if not specified.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithTimeout overrides the per-search timeout. Default is 10 seconds.
func WithTimeout(d time.Duration) SearchOption {
	return func(c *searchConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// buildSearchConfig applies search options and returns the final configuration.
func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{
		topK:    5,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
