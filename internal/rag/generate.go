package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"google.golang.org/genai"

	"github.com/mitscampus/campusbot/internal/log"
)

// ErrGeneration marks a failure of the hosted generation service.
// Callers present a canned apology instead of the underlying error.
var ErrGeneration = errors.New("generation failed")

// systemPrompt is the campus assistant persona.
const systemPrompt = `You are the MITS (Muthoot Institute of Technology & Science) Campus Assistant, a helpful AI designed to assist students, faculty, and visitors with information about MITS.

Key points about your role:
1. Be professional, friendly, and concise
2. Focus on providing accurate information about Muthoot Institute of Technology & Science
3. If you're not sure about something, admit it and suggest contacting the relevant department
4. For questions about courses, admissions, or departments, provide official contact information
5. Maintain a helpful and encouraging tone`

// questionPrompt carries the assembled context and the user's question.
const questionPrompt = `Based on this context: %q

Question: %q

Provide a clear, helpful response focusing on MITS-specific information. If the context doesn't contain enough information, say you don't have specific information about that aspect of MITS and suggest where they might find the information.`

// GenkitGenerator produces answers through a Genkit-registered Gemini model.
type GenkitGenerator struct {
	g         *genkit.Genkit
	modelName string
	config    *genai.GenerateContentConfig
	logger    log.Logger
}

// NewGenkitGenerator builds a generator for the given model. Model names
// without a provider prefix are routed to the Google AI plugin. A nil
// logger is replaced with a no-op one.
func NewGenkitGenerator(g *genkit.Genkit, modelName string, temperature float32, maxOutputTokens int, logger log.Logger) *GenkitGenerator {
	if !strings.Contains(modelName, "/") {
		modelName = "googleai/" + modelName
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &GenkitGenerator{
		g:         g,
		modelName: modelName,
		config: &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(temperature),
			MaxOutputTokens: int32(maxOutputTokens),
		},
		logger: logger,
	}
}

// Generate asks the model to answer the question using the assembled
// context. The model's response text is returned verbatim.
func (gen *GenkitGenerator) Generate(ctx context.Context, question, contextText string) (string, error) {
	resp, err := genkit.Generate(ctx, gen.g,
		ai.WithModelName(gen.modelName),
		ai.WithSystem(systemPrompt),
		ai.WithPrompt(questionPrompt, contextText, question),
		ai.WithConfig(gen.config),
	)
	if err != nil {
		gen.logger.Error("model call failed", "model", gen.modelName, "error", err)
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return resp.Text(), nil
}
