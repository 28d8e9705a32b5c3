package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createPromoCodesTable,
		createBoothLayoutTable,
		createPromoUsagesTable,
		createPromoUsagesCodeIndex,
		addPromoUsagesOccurredAt,
		createPromoUsagesEventIndex,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createPromoCodesTable = `
CREATE TABLE IF NOT EXISTS promo_codes (
    code VARCHAR(64) PRIMARY KEY,
    description TEXT NOT NULL DEFAULT '',
    discount DECIMAL(10,2) NOT NULL,
    discount_type VARCHAR(16) NOT NULL,
    start_date TIMESTAMPTZ NOT NULL,
    end_date TIMESTAMPTZ NOT NULL,
    max_discount_amount DECIMAL(10,2),
    min_purchase_amount DECIMAL(10,2),
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (code = UPPER(code)),
    CHECK (discount_type IN ('percent', 'flat')),
    CHECK (end_date >= start_date)
);`

const createBoothLayoutTable = `
CREATE TABLE IF NOT EXISTS booth_layout (
    booth_id INTEGER PRIMARY KEY,
    category VARCHAR(20) NOT NULL,
    price DECIMAL(10,2) NOT NULL DEFAULT 0,

    CHECK (category IN ('food', 'craft', 'clothing', 'jewelry'))
);`

const createPromoUsagesTable = `
CREATE TABLE IF NOT EXISTS promo_usages (
    id SERIAL PRIMARY KEY,
    session_id VARCHAR(64) NOT NULL,
    code VARCHAR(64) NOT NULL,
    booth_id INTEGER NOT NULL,
    discount_amount DECIMAL(10,2) NOT NULL DEFAULT 0,
    action VARCHAR(16) NOT NULL,
    occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (action IN ('applied', 'removed'))
);`

const createPromoUsagesCodeIndex = `
CREATE INDEX IF NOT EXISTS promo_usages_code_idx ON promo_usages (code, created_at);`

const addPromoUsagesOccurredAt = `
ALTER TABLE promo_usages ADD COLUMN IF NOT EXISTS occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW();`

// One row per published event, so a redelivered message is a no-op
const createPromoUsagesEventIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS promo_usages_event_idx
    ON promo_usages (session_id, code, action, occurred_at);`
