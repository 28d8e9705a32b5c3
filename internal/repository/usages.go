package repository

import (
	"context"
	"database/sql"
	"errors"

	"boothfair/internal/database"
	"boothfair/internal/models"
)

type PromoUsageRepository struct {
	db *database.DB
}

func NewPromoUsageRepository(db *database.DB) *PromoUsageRepository {
	return &PromoUsageRepository{db: db}
}

// Create inserts usage unless the same event was already recorded. It
// reports whether a row was written.
func (r *PromoUsageRepository) Create(ctx context.Context, usage *models.PromoUsage) (bool, error) {
	query := `
		INSERT INTO promo_usages (session_id, code, booth_id, discount_amount, action, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, code, action, occurred_at) DO NOTHING
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		usage.SessionID,
		usage.Code,
		usage.BoothID,
		usage.DiscountAmount,
		usage.Action,
		usage.OccurredAt,
	).Scan(&usage.ID, &usage.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CountApplied returns how many times code was applied and not later removed
func (r *PromoUsageRepository) CountApplied(ctx context.Context, code string) (int, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN action = 'applied' THEN 1 ELSE -1 END), 0)
		FROM promo_usages
		WHERE code = $1`

	var count int
	err := r.db.QueryRowContext(ctx, query, code).Scan(&count)
	return count, err
}
