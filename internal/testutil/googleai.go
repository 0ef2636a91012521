package testutil

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
)

// GoogleAISetup contains all resources needed for Google AI-based tests.
type GoogleAISetup struct {
	Embedder ai.Embedder
	Genkit   *genkit.Genkit
	Logger   *slog.Logger
}

// SetupGoogleAI creates a Google AI embedder with logger for testing.
//
// Requirements:
//   - GEMINI_API_KEY environment variable must be set
//   - Skips test if API key is not available
func SetupGoogleAI(t *testing.T) *GoogleAISetup {
	t.Helper()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set - skipping test requiring embedder")
	}

	ctx := context.Background()

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	embedder := googlegenai.GoogleAIEmbedder(g, "text-embedding-004")

	// Quiet logger for tests
	logger := slog.New(slog.DiscardHandler)

	return &GoogleAISetup{
		Embedder: embedder,
		Genkit:   g,
		Logger:   logger,
	}
}
