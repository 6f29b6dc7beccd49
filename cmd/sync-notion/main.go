package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dvloznov/savings-coach/internal/app"
	"github.com/dvloznov/savings-coach/internal/config"
	"github.com/dvloznov/savings-coach/internal/logger"
	"github.com/dvloznov/savings-coach/internal/notionsync"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Initialize structured logger
	log := logger.NewWithConfig(cfg.Logging.Level, cfg.Logging.Format)

	// Parse CLI flags; config supplies the defaults
	notionToken := flag.String("notion-token", cfg.Notion.Token, "Notion API token (or set NOTION_TOKEN)")
	notionDBID := flag.String("notion-db-id", cfg.Notion.DatabaseID, "Notion database ID (or set NOTION_DATABASE_ID)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	// Validate required flags
	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}
	if !cfg.UseBigQuery() {
		log.Warn().Msg("No BigQuery project configured - syncing an empty in-memory store")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("notion_db_id", *notionDBID).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	deps, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize dependencies")
	}
	defer deps.Close()

	// Initialize Notion client
	notionClient := notionsync.NewNotionClient(*notionToken)

	stats, err := notionsync.SyncGoals(ctx, deps.Goals, notionClient, *notionDBID, time.Now(), *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Sync completed: %d created, %d updated, %d archived, %d failed.\n",
		stats.Created, stats.Updated, stats.Archived, stats.Failed)
}
