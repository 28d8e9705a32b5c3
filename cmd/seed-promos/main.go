package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"boothfair/internal/booth"
	"boothfair/internal/config"
	"boothfair/internal/database"
	"boothfair/internal/logger"
	"boothfair/internal/models"
	"boothfair/internal/promo"
	"boothfair/internal/repository"
)

var (
	promoFile  = flag.String("promos", "", "JSON promo table keyed by code")
	layoutFile = flag.String("layout", "", "JSON array of booth spots (booth_id, category, price)")
	prune      = flag.Bool("prune", false, "Deactivate active codes missing from the promo file")
	dryRun     = flag.Bool("dry-run", false, "Validate the files without writing to the database")
)

func main() {
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	if *promoFile == "" && *layoutFile == "" {
		logger.Fatal("Nothing to seed, pass -promos and/or -layout")
	}

	var codes []promo.Code
	if *promoFile != "" {
		var err error
		if codes, err = loadPromoFile(*promoFile); err != nil {
			logger.Fatal("Invalid promo file", "file", *promoFile, "error", err)
		}
		slog.Info("Loaded promo file", "file", *promoFile, "codes", len(codes))
	}

	var spots []booth.Spot
	if *layoutFile != "" {
		var err error
		if spots, err = loadLayoutFile(*layoutFile); err != nil {
			logger.Fatal("Invalid layout file", "file", *layoutFile, "error", err)
		}
		slog.Info("Loaded layout file", "file", *layoutFile, "booths", len(spots))
	}

	if *dryRun {
		for _, c := range codes {
			slog.Info("Would upsert promo code",
				"code", c.Code,
				"type", c.DiscountType,
				"discount", c.Discount,
				"start", c.StartDate.Format(time.RFC3339),
				"end", c.EndDate.Format(time.RFC3339))
		}
		slog.Info("Dry run finished", "codes", len(codes), "booths", len(spots))
		return
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	repos := repository.NewRepositories(db)
	if err := seedPromos(ctx, repos.Promos, codes, *prune); err != nil {
		logger.Fatal("Promo seeding failed", "error", err)
	}
	if err := seedLayout(ctx, repos.Layout, spots); err != nil {
		logger.Fatal("Layout seeding failed", "error", err)
	}

	slog.Info("Seeding completed successfully", "codes", len(codes), "booths", len(spots))
}

type promoWriter interface {
	ListActive(ctx context.Context) ([]promo.Code, error)
	Upsert(ctx context.Context, c promo.Code) error
	Deactivate(ctx context.Context, code string) error
}

type layoutWriter interface {
	Upsert(ctx context.Context, spot booth.Spot) error
}

func seedPromos(ctx context.Context, repo promoWriter, codes []promo.Code, prune bool) error {
	if len(codes) == 0 {
		return nil
	}

	keep := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		if err := repo.Upsert(ctx, c); err != nil {
			return err
		}
		keep[c.Code] = struct{}{}
	}

	if !prune {
		return nil
	}

	active, err := repo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active codes: %w", err)
	}
	for _, c := range active {
		if _, ok := keep[c.Code]; ok {
			continue
		}
		if err := repo.Deactivate(ctx, c.Code); err != nil {
			return fmt.Errorf("failed to deactivate %s: %w", c.Code, err)
		}
		slog.Info("Deactivated promo code", "code", c.Code)
	}
	return nil
}

func seedLayout(ctx context.Context, repo layoutWriter, spots []booth.Spot) error {
	for _, spot := range spots {
		if err := repo.Upsert(ctx, spot); err != nil {
			return fmt.Errorf("failed to upsert booth %d: %w", spot.BoothID, err)
		}
	}
	return nil
}

// loadPromoFile reads a promo table of the form {"CODE": {...}, ...}.
// Codes are returned in lexical order.
func loadPromoFile(path string) ([]promo.Code, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries map[string]models.PromoCodeFileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode promo file: %w", err)
	}

	codes := make([]promo.Code, 0, len(entries))
	for key, entry := range entries {
		code := strings.ToUpper(strings.TrimSpace(key))
		if code == "" {
			return nil, fmt.Errorf("empty promo code key")
		}

		discountType, err := promo.ParseDiscountType(entry.DiscountType)
		if err != nil {
			return nil, fmt.Errorf("promo %s: %w", code, err)
		}
		if entry.Discount < 0 {
			return nil, fmt.Errorf("promo %s: negative discount", code)
		}
		if discountType == promo.Percent && entry.Discount > 100 {
			return nil, fmt.Errorf("promo %s: percent discount above 100", code)
		}

		start, end, err := promo.ParseWindow(entry.StartDate, entry.EndDate)
		if err != nil {
			return nil, fmt.Errorf("promo %s: %w", code, err)
		}

		codes = append(codes, promo.Code{
			Code:              code,
			Description:       entry.Description,
			Discount:          entry.Discount,
			DiscountType:      discountType,
			StartDate:         start,
			EndDate:           end,
			MaxDiscountAmount: entry.MaxDiscountAmount,
			MinPurchaseAmount: entry.MinPurchaseAmount,
		})
	}

	sort.Slice(codes, func(i, j int) bool { return codes[i].Code < codes[j].Code })
	return codes, nil
}

func loadLayoutFile(path string) ([]booth.Spot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rows []models.BoothSpotRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode layout file: %w", err)
	}

	seen := make(map[int]struct{}, len(rows))
	spots := make([]booth.Spot, 0, len(rows))
	for _, row := range rows {
		if row.BoothID <= 0 {
			return nil, fmt.Errorf("invalid booth id %d", row.BoothID)
		}
		if _, dup := seen[row.BoothID]; dup {
			return nil, fmt.Errorf("duplicate booth id %d", row.BoothID)
		}
		seen[row.BoothID] = struct{}{}

		category, err := booth.ParseCategory(row.Category)
		if err != nil || category == booth.CategoryNone {
			return nil, fmt.Errorf("booth %d: unknown category %q", row.BoothID, row.Category)
		}
		if row.Price < 0 {
			return nil, fmt.Errorf("booth %d: negative price", row.BoothID)
		}

		spots = append(spots, booth.Spot{BoothID: row.BoothID, Category: category, Price: row.Price})
	}
	return spots, nil
}
