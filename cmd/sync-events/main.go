package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"time"

	"boothfair/internal/config"
	"boothfair/internal/external"
	"boothfair/internal/logger"
	"boothfair/internal/models"
	"boothfair/internal/search"
)

var (
	dryRun  = flag.Bool("dry-run", false, "Fetch listings without indexing them")
	timeout = flag.Duration("timeout", 2*time.Minute, "Overall sync timeout")
)

type eventLister interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
}

type eventIndexer interface {
	IndexEvents(ctx context.Context, events []models.Event) (int, error)
	DeleteEvent(ctx context.Context, id string) error
}

func main() {
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Starting event listing synchronization", "backend", cfg.VendorAPI.BaseURL, "index", cfg.Elasticsearch.Index)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	vendorClient := external.NewVendorClient(cfg.VendorAPI)

	if *dryRun {
		events, err := vendorClient.ListEvents(ctx)
		if err != nil {
			logger.Fatal("Failed to fetch events", "error", err)
		}
		published, hidden := splitPublished(events)
		slog.Info("Dry run finished", "published", len(published), "unpublished", len(hidden))
		return
	}

	esClient, err := search.NewElasticsearchClient(cfg.Elasticsearch)
	if err != nil {
		logger.Fatal("Failed to connect to Elasticsearch", "error", err)
	}

	if err := syncEvents(ctx, vendorClient, esClient); err != nil {
		logger.Fatal("Event synchronization failed", "error", err)
	}

	slog.Info("Event synchronization completed successfully")
}

func syncEvents(ctx context.Context, lister eventLister, indexer eventIndexer) error {
	start := time.Now()

	events, err := lister.ListEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch events from backend: %w", err)
	}
	slog.Info("Fetched events from backend", "count", len(events))

	published, hidden := splitPublished(events)

	indexed, err := indexer.IndexEvents(ctx, published)
	if err != nil {
		return fmt.Errorf("failed to index events: %w", err)
	}

	for _, event := range hidden {
		if err := indexer.DeleteEvent(ctx, event.ID); err != nil {
			slog.Error("Failed to remove unpublished event", "event_id", event.ID, "error", err)
		}
	}

	slog.Info("Event synchronization finished",
		"indexed", indexed,
		"rejected", len(published)-indexed,
		"removed", len(hidden),
		"duration", time.Since(start).String())

	if indexed < len(published) {
		return fmt.Errorf("%d of %d events were rejected by the index", len(published)-indexed, len(published))
	}
	return nil
}

func splitPublished(events []models.Event) (published, hidden []models.Event) {
	for _, event := range events {
		if event.ID == "" {
			continue
		}
		if event.Published {
			published = append(published, event)
		} else {
			hidden = append(hidden, event)
		}
	}
	return published, hidden
}
