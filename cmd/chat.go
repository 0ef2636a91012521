package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mitscampus/campusbot/internal/app"
	"github.com/mitscampus/campusbot/internal/config"
	"github.com/mitscampus/campusbot/internal/log"
	"github.com/mitscampus/campusbot/internal/rag"
)

// answerer is the part of the pipeline the chat loop needs.
type answerer interface {
	Answer(ctx context.Context, question string, history rag.History) (string, error)
}

// runChat starts the interactive conversation loop.
func runChat(logger log.Logger) error {
	if err := checkRequiredEnv(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	return chatLoop(ctx, a.Pipeline, os.Stdin, os.Stdout, logger)
}

// chatLoop reads questions until EOF or an "exit" sentinel. Each
// completed turn extends the conversation history; a failed turn is
// reported and not recorded. The history is printed when the session
// ends.
func chatLoop(ctx context.Context, pipeline answerer, in io.Reader, out io.Writer, logger log.Logger) error {
	fmt.Fprintln(out, "CampusBot ready. Ask about MITS (type exit to quit).")

	var history rag.History
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "\nAsk about MITS: ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		// The sentinel ends the session before any retrieval happens.
		if strings.EqualFold(question, "exit") {
			break
		}

		answer, err := pipeline.Answer(ctx, question, history)
		if err != nil {
			logger.Error("turn failed", "error", err)
			fmt.Fprintf(out, "AI: %s\n", rag.ApologyMessage)
			continue
		}

		fmt.Fprintf(out, "AI: %s\n", answer)
		history = history.Append(question, answer)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	if len(history) > 0 {
		fmt.Fprintln(out, "\nConversation History:")
		for _, turn := range history {
			fmt.Fprintf(out, "Human: %s\n", turn.Question)
			fmt.Fprintf(out, "AI: %s\n\n", turn.Answer)
		}
	}
	return nil
}
