package models

import (
	"encoding/json"
	"math"
	"time"

	"boothfair/internal/booth"
)

// BookingTimeline is the nested hold information on a vendor record
type BookingTimeline struct {
	HeldUntil FlexibleString `json:"heldUntil,omitempty"`
}

// VendorRecord is a vendor submission as returned by the backend listing endpoint
type VendorRecord struct {
	ID              FlexibleString  `json:"id"`
	BoothNumber     *FlexibleNumber `json:"boothNumber"`
	Status          FlexibleString  `json:"status"`
	BookingTimeline BookingTimeline `json:"bookingTimeline"`
	BusinessName    FlexibleString  `json:"businessName,omitempty"`
	SubmittedAt     FlexibleString  `json:"submittedAt,omitempty"`
}

// BoothRecord converts the wire shape into reconciler input. A missing booth
// number becomes NaN so the reconciler skips it; an unparseable submittedAt
// becomes the zero time.
func (v VendorRecord) BoothRecord() booth.Record {
	id := math.NaN()
	if v.BoothNumber != nil {
		id = v.BoothNumber.Float64()
	}
	rec := booth.Record{
		BoothID:   id,
		RawStatus: v.Status.String(),
		HeldUntil: v.BookingTimeline.HeldUntil.String(),
		RecordID:  v.ID.String(),
	}
	if t, ok := booth.ParseTimestamp(v.SubmittedAt.String()); ok {
		rec.SubmittedAt = t
	}
	return rec
}

// BoothRecords converts a vendor listing
func BoothRecords(vendors []VendorRecord) []booth.Record {
	records := make([]booth.Record, len(vendors))
	for i, v := range vendors {
		records[i] = v.BoothRecord()
	}
	return records
}

// Event is an event listing published by the backend
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartsAt    time.Time `json:"startsAt"`
	Published   bool      `json:"published"`
}

// PromoCodeRow represents a promo_codes row
type PromoCodeRow struct {
	Code              string    `db:"code"`
	Description       string    `db:"description"`
	Discount          float64   `db:"discount"`
	DiscountType      string    `db:"discount_type"`
	StartDate         time.Time `db:"start_date"`
	EndDate           time.Time `db:"end_date"`
	MaxDiscountAmount *float64  `db:"max_discount_amount"`
	MinPurchaseAmount *float64  `db:"min_purchase_amount"`
	Active            bool      `db:"active"`
}

// PromoCodeFileEntry is one entry of a static promo table file. Dates are
// plain dates or RFC 3339 timestamps.
type PromoCodeFileEntry struct {
	Discount          float64  `json:"discount"`
	DiscountType      string   `json:"discountType"`
	Description       string   `json:"description"`
	StartDate         string   `json:"startDate"`
	EndDate           string   `json:"endDate"`
	MaxDiscountAmount *float64 `json:"maxDiscountAmount,omitempty"`
	MinPurchaseAmount *float64 `json:"minPurchaseAmount,omitempty"`
}

// BoothSpotRow represents a booth_layout row
type BoothSpotRow struct {
	BoothID  int     `db:"booth_id" json:"booth_id"`
	Category string  `db:"category" json:"category"`
	Price    float64 `db:"price" json:"price"`
}

// PromoUsage represents a promo_usages row
type PromoUsage struct {
	ID             int64     `db:"id"`
	SessionID      string    `db:"session_id"`
	Code           string    `db:"code"`
	BoothID        int       `db:"booth_id"`
	DiscountAmount float64   `db:"discount_amount"`
	Action         string    `db:"action"`
	OccurredAt     time.Time `db:"occurred_at"`
	CreatedAt      time.Time `db:"created_at"`
}

// Draft is a partially filled registration form
type Draft struct {
	ID        string          `json:"id"`
	Form      string          `json:"form"`
	Fields    json.RawMessage `json:"fields"`
	UpdatedAt time.Time       `json:"updated_at"`
}
