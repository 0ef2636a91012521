package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mitscampus/campusbot/internal/app"
	"github.com/mitscampus/campusbot/internal/config"
	"github.com/mitscampus/campusbot/internal/log"
	"github.com/mitscampus/campusbot/internal/rag"
)

// runAsk answers one question and exits.
func runAsk(logger log.Logger, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return errors.New(`usage: campusbot ask "your question"`)
	}

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

	answer, err := a.Pipeline.Answer(ctx, question, nil)
	if err != nil {
		logger.Error("turn failed", "error", err)
		fmt.Println(rag.ApologyMessage)
		return nil
	}

	fmt.Println(answer)
	return nil
}
