package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/mitscampus/campusbot/internal/app"
	"github.com/mitscampus/campusbot/internal/config"
	"github.com/mitscampus/campusbot/internal/ingest"
	"github.com/mitscampus/campusbot/internal/log"
)

// runIngest crawls pages into the knowledge store. With --sitemap it
// walks the configured (or given) sitemap; otherwise it ingests the
// URLs listed on the command line.
func runIngest(logger log.Logger, args []string) error {
	flags := flag.NewFlagSet("ingest", flag.ContinueOnError)
	sitemap := flags.Bool("sitemap", false, "ingest every page listed in the sitemap")
	sitemapURL := flags.String("sitemap-url", "", "sitemap to walk (default: configured sitemap_url)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	urls := flags.Args()
	if !*sitemap && len(urls) == 0 {
		return errors.New("nothing to ingest: pass page URLs or --sitemap")
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

	var stats ingest.Stats
	if *sitemap {
		target := *sitemapURL
		if target == "" {
			target = cfg.SitemapURL
		}
		stats, err = a.Ingestor.IngestSitemap(ctx, target)
		if err != nil {
			return fmt.Errorf("ingesting sitemap: %w", err)
		}
	} else {
		stats, err = a.Ingestor.IngestURLs(ctx, urls)
		if err != nil {
			return fmt.Errorf("ingesting pages: %w", err)
		}
	}

	total, err := a.Knowledge.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting chunks: %w", err)
	}

	fmt.Printf("Ingested %d pages (%d chunks, %d failed). Store now holds %d chunks.\n",
		stats.Pages, stats.Chunks, stats.Failed, total)
	return nil
}
