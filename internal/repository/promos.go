package repository

import (
	"context"
	"fmt"
	"log/slog"

	"boothfair/internal/database"
	"boothfair/internal/models"
	"boothfair/internal/promo"
)

type PromoRepository struct {
	db *database.DB
}

func NewPromoRepository(db *database.DB) *PromoRepository {
	return &PromoRepository{db: db}
}

// ListActive loads every active promo code. Rows with an unknown discount type
// are skipped with a warning.
func (r *PromoRepository) ListActive(ctx context.Context) ([]promo.Code, error) {
	query := `
		SELECT code, description, discount, discount_type, start_date, end_date,
		       max_discount_amount, min_purchase_amount, active
		FROM promo_codes
		WHERE active = TRUE
		ORDER BY code`

	rows, err := r.db.QueryWithRetry(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []promo.Code
	for rows.Next() {
		var row models.PromoCodeRow
		err := rows.Scan(
			&row.Code,
			&row.Description,
			&row.Discount,
			&row.DiscountType,
			&row.StartDate,
			&row.EndDate,
			&row.MaxDiscountAmount,
			&row.MinPurchaseAmount,
			&row.Active,
		)
		if err != nil {
			return nil, err
		}

		code, err := rowToCode(row)
		if err != nil {
			slog.Warn("Skipping invalid promo code row", "code", row.Code, "error", err)
			continue
		}
		codes = append(codes, code)
	}

	return codes, rows.Err()
}

// Upsert inserts or replaces a promo code and marks it active
func (r *PromoRepository) Upsert(ctx context.Context, c promo.Code) error {
	query := `
		INSERT INTO promo_codes (code, description, discount, discount_type, start_date, end_date,
		                         max_discount_amount, min_purchase_amount, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
		ON CONFLICT (code) DO UPDATE
		SET description = EXCLUDED.description,
		    discount = EXCLUDED.discount,
		    discount_type = EXCLUDED.discount_type,
		    start_date = EXCLUDED.start_date,
		    end_date = EXCLUDED.end_date,
		    max_discount_amount = EXCLUDED.max_discount_amount,
		    min_purchase_amount = EXCLUDED.min_purchase_amount,
		    active = TRUE,
		    updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query,
		c.Code,
		c.Description,
		c.Discount,
		string(c.DiscountType),
		c.StartDate,
		c.EndDate,
		c.MaxDiscountAmount,
		c.MinPurchaseAmount,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert promo code %s: %w", c.Code, err)
	}
	return nil
}

// Deactivate hides a code from the promo table without deleting its history
func (r *PromoRepository) Deactivate(ctx context.Context, code string) error {
	query := `UPDATE promo_codes SET active = FALSE, updated_at = NOW() WHERE code = $1`
	_, err := r.db.ExecContext(ctx, query, code)
	return err
}

func rowToCode(row models.PromoCodeRow) (promo.Code, error) {
	dt, err := promo.ParseDiscountType(row.DiscountType)
	if err != nil {
		return promo.Code{}, err
	}
	return promo.Code{
		Code:              row.Code,
		Description:       row.Description,
		Discount:          row.Discount,
		DiscountType:      dt,
		StartDate:         row.StartDate,
		EndDate:           row.EndDate,
		MaxDiscountAmount: row.MaxDiscountAmount,
		MinPurchaseAmount: row.MinPurchaseAmount,
	}, nil
}
