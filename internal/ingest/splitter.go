package ingest

import (
	"fmt"
	"strings"
	"unicode"
)

// Default chunking geometry for campus pages. A thousand characters is
// roughly two paragraphs of prose, and the overlap keeps sentences that
// straddle a boundary retrievable from both sides.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// Splitter cuts cleaned page text into fixed-size overlapping windows.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

// NewSplitter validates the geometry and returns a Splitter.
func NewSplitter(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be in [0, %d), got %d", chunkSize, overlap)
	}
	return &Splitter{ChunkSize: chunkSize, Overlap: overlap}, nil
}

// NormalizeWhitespace collapses every run of whitespace, including
// newlines and tabs, into a single space and trims the ends.
func NormalizeWhitespace(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	inSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// Split normalizes the text and cuts it into windows of ChunkSize runes,
// each window starting ChunkSize-Overlap runes after the previous one.
// Text at most ChunkSize runes long yields a single chunk. Empty or
// all-whitespace text yields nil.
func (s *Splitter) Split(text string) []string {
	normalized := NormalizeWhitespace(text)
	if normalized == "" {
		return nil
	}

	runes := []rune(normalized)
	if len(runes) <= s.ChunkSize {
		return []string{normalized}
	}

	step := s.ChunkSize - s.Overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
