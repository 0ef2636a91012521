package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/mitscampus/campusbot/api"
	"github.com/mitscampus/campusbot/internal/app"
	"github.com/mitscampus/campusbot/internal/config"
	"github.com/mitscampus/campusbot/internal/log"
)

// runServe initializes the application and starts the HTTP API server.
func runServe(logger log.Logger) error {
	if err := checkRequiredEnv(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting HTTP API server", "version", AppVersion)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	srv := api.NewServer(api.ServerConfig{
		Logger:         logger,
		Answerer:       a.Pipeline,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
		TrustProxy:     cfg.RateLimit.TrustProxy,
	})

	ln, port, err := api.FindListener(cfg.Host, cfg.BasePort, cfg.MaxPortTries)
	if err != nil {
		return fmt.Errorf("binding server port: %w", err)
	}

	if err := api.WritePortFile(cfg.PortFile, port); err != nil {
		ln.Close()
		return fmt.Errorf("recording server port: %w", err)
	}

	logger.Info("server listening",
		"port", port,
		"health", fmt.Sprintf("http://%s:%d/health", cfg.Host, port))

	return srv.Serve(ctx, ln)
}
