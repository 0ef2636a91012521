// Package cmd provides the CampusBot CLI commands.
//
// Commands:
//   - serve: HTTP API server (health + chat endpoints)
//   - ingest: crawl pages or a sitemap into the knowledge store
//   - ask: answer a single question
//   - chat: interactive conversation loop
//
// All commands handle SIGINT/SIGTERM via context cancellation.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/mitscampus/campusbot/internal/log"
)

// Execute is the main entry point for the campusbot CLI.
func Execute() error {
	// Local development keeps credentials in .env; absence is fine.
	_ = godotenv.Load()

	logger := initLogger()
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe(logger)
	case "ingest":
		return runIngest(logger, os.Args[2:])
	case "ask":
		return runAsk(logger, os.Args[2:])
	case "chat":
		return runChat(logger)
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// initLogger builds the process logger. DEBUG in the environment
// enables debug level.
func initLogger() log.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}

// checkRequiredEnv verifies credentials that Genkit reads directly.
func checkRequiredEnv() error {
	if os.Getenv("GEMINI_API_KEY") == "" {
		return errors.New("GEMINI_API_KEY is not set (export it or add it to .env)")
	}
	return nil
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("CampusBot - MITS campus assistant")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  campusbot serve               Start the HTTP API server")
	fmt.Println("  campusbot ingest [url ...]    Ingest pages into the knowledge store")
	fmt.Println("  campusbot ingest --sitemap    Ingest every page in the configured sitemap")
	fmt.Println("  campusbot ask \"question\"      Answer a single question")
	fmt.Println("  campusbot chat                Start an interactive conversation")
	fmt.Println("  campusbot --version           Show version information")
	fmt.Println("  campusbot --help              Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  GEMINI_API_KEY     Required: Gemini API key")
	fmt.Println("  DATABASE_URL       Optional: PostgreSQL connection URL")
	fmt.Println("  DEBUG              Optional: Enable debug logging")
}
