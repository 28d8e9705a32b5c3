package repository

import (
	"context"
	"log/slog"

	"boothfair/internal/booth"
	"boothfair/internal/database"
	"boothfair/internal/models"
)

type BoothLayoutRepository struct {
	db *database.DB
}

func NewBoothLayoutRepository(db *database.DB) *BoothLayoutRepository {
	return &BoothLayoutRepository{db: db}
}

// Load returns the static seat map
func (r *BoothLayoutRepository) Load(ctx context.Context) (booth.Layout, error) {
	query := `SELECT booth_id, category, price FROM booth_layout ORDER BY booth_id`

	rows, err := r.db.QueryWithRetry(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spots []booth.Spot
	for rows.Next() {
		var row models.BoothSpotRow
		if err := rows.Scan(&row.BoothID, &row.Category, &row.Price); err != nil {
			return nil, err
		}
		category, err := booth.ParseCategory(row.Category)
		if err != nil {
			slog.Warn("Skipping booth with unknown category", "booth_id", row.BoothID, "error", err)
			continue
		}
		spots = append(spots, booth.Spot{BoothID: row.BoothID, Category: category, Price: row.Price})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return booth.NewLayout(spots), nil
}

// Upsert stores one booth of the seat map
func (r *BoothLayoutRepository) Upsert(ctx context.Context, spot booth.Spot) error {
	query := `
		INSERT INTO booth_layout (booth_id, category, price)
		VALUES ($1, $2, $3)
		ON CONFLICT (booth_id) DO UPDATE
		SET category = EXCLUDED.category, price = EXCLUDED.price`

	_, err := r.db.ExecContext(ctx, query, spot.BoothID, string(spot.Category), spot.Price)
	return err
}
