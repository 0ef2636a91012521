package rag

import (
	"context"
	"fmt"

	"github.com/mitscampus/campusbot/internal/log"
)

// FallbackMessage is returned when retrieval produces no chunks.
const FallbackMessage = "I don't have specific information about that aspect of Muthoot Institute of Technology & Science. I recommend checking the official MITS website (www.mgits.ac.in) or contacting the relevant department for the most accurate information."

// ApologyMessage is shown to users when a turn fails internally.
const ApologyMessage = "I encountered an error while processing your question. Please try rephrasing it or contact MITS support for assistance."

// Generator produces an answer from a question and its assembled context.
type Generator interface {
	Generate(ctx context.Context, question, contextText string) (string, error)
}

// Stage identifies where in the answer pipeline a turn currently is.
// A turn moves Idle -> Retrieving -> Reranking (leadership queries only)
// -> Assembling -> Generating -> Idle. Failures return to Idle.
type Stage int

const (
	StageIdle Stage = iota
	StageRetrieving
	StageReranking
	StageAssembling
	StageGenerating
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageRetrieving:
		return "retrieving"
	case StageReranking:
		return "reranking"
	case StageAssembling:
		return "assembling"
	case StageGenerating:
		return "generating"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// StageHook observes pipeline stage transitions.
type StageHook func(Stage)

// Pipeline runs one question through retrieval, conditional re-ranking,
// context assembly, and generation. It holds no per-conversation state;
// callers own the History and pass it in per turn.
type Pipeline struct {
	retriever Retriever
	generator Generator
	reranker  *Reranker
	topK      int
	logger    log.Logger
	stageHook StageHook
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTopK overrides how many chunks are retrieved per question.
func WithTopK(k int) Option {
	return func(p *Pipeline) {
		if k > 0 {
			p.topK = k
		}
	}
}

// WithStageHook registers a hook observing stage transitions.
func WithStageHook(hook StageHook) Option {
	return func(p *Pipeline) { p.stageHook = hook }
}

// NewPipeline builds a pipeline. A nil reranker gets the default keyword
// set; a nil logger is replaced with a no-op one.
func NewPipeline(retriever Retriever, generator Generator, reranker *Reranker, logger log.Logger, opts ...Option) *Pipeline {
	if reranker == nil {
		reranker = NewReranker(nil, "")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	p := &Pipeline{
		retriever: retriever,
		generator: generator,
		reranker:  reranker,
		topK:      DefaultTopK,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) setStage(s Stage) {
	if p.stageHook != nil {
		p.stageHook(s)
	}
}

// Answer runs one turn. Empty retrieval, including retrieval failure,
// yields FallbackMessage without touching the generator. A generation
// failure returns a wrapped ErrGeneration; the caller shows
// ApologyMessage and must not record the turn in history.
func (p *Pipeline) Answer(ctx context.Context, question string, history History) (answer string, err error) {
	defer p.setStage(StageIdle)

	p.setStage(StageRetrieving)
	searchQuery := p.reranker.BoostQuery(ExpandQuery(question, history), question)
	results, err := p.retriever.Retrieve(ctx, searchQuery, p.topK)
	if err != nil {
		// Retrieval trouble reads as "no information available" to the
		// user, never as an exception.
		p.logger.Warn("retrieval failed, answering with fallback", "error", err)
		results = nil
	}
	if len(results) == 0 {
		p.logger.Info("no chunks retrieved", "question", question)
		return FallbackMessage, nil
	}

	if p.reranker.Triggered(question) {
		p.setStage(StageReranking)
		results = p.reranker.Rerank(results, question)
	}

	p.setStage(StageAssembling)
	contextText := Assemble(results, history)

	p.setStage(StageGenerating)
	answer, err = p.generator.Generate(ctx, question, contextText)
	if err != nil {
		return "", fmt.Errorf("answer %q: %w", question, err)
	}

	p.logger.Debug("turn complete",
		"question", question, "chunks", len(results), "context_chars", len(contextText))
	return answer, nil
}
