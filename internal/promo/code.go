package promo

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DiscountType selects how Code.Discount is interpreted.
type DiscountType string

const (
	Percent DiscountType = "percent"
	Flat    DiscountType = "flat"
)

// ParseDiscountType accepts "percent"/"percentage" and "flat"/"fixed".
func ParseDiscountType(s string) (DiscountType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "percent", "percentage":
		return Percent, nil
	case "flat", "fixed":
		return Flat, nil
	}
	return "", fmt.Errorf("unknown discount type %q", s)
}

// Code is one entry of the promo table.
type Code struct {
	Code              string       `json:"code"`
	Description       string       `json:"description"`
	Discount          float64      `json:"discount"`
	DiscountType      DiscountType `json:"discountType"`
	StartDate         time.Time    `json:"startDate"`
	EndDate           time.Time    `json:"endDate"`
	MaxDiscountAmount *float64     `json:"maxDiscountAmount,omitempty"`
	MinPurchaseAmount *float64     `json:"minPurchaseAmount,omitempty"`
}

// Table is the promo table keyed by upper-case code.
type Table map[string]Code

// NewTable builds a table from codes, normalizing their keys. Later duplicates
// replace earlier ones.
func NewTable(codes []Code) Table {
	t := make(Table, len(codes))
	for _, c := range codes {
		c.Code = normalizeCode(c.Code)
		t[c.Code] = c
	}
	return t
}

// Lookup finds a code case-insensitively.
func (t Table) Lookup(code string) (Code, bool) {
	c, ok := t[normalizeCode(code)]
	return c, ok
}

// Validate checks that code exists, that now lies inside its validity window and
// that basePrice meets its minimum purchase, in that order. Failures are
// *ValidationError values wrapping one of the sentinel errors.
func (t Table) Validate(code string, basePrice float64, now time.Time) (Code, error) {
	key := normalizeCode(code)
	c, ok := t[key]
	if !ok {
		return Code{}, &ValidationError{Reason: ErrCodeNotFound, Code: key}
	}
	if now.Before(c.StartDate) {
		return Code{}, &ValidationError{Reason: ErrNotYetActive, Code: key, At: c.StartDate}
	}
	if now.After(c.EndDate) {
		return Code{}, &ValidationError{Reason: ErrExpired, Code: key, At: c.EndDate}
	}
	if c.MinPurchaseAmount != nil && basePrice < *c.MinPurchaseAmount {
		return Code{}, &ValidationError{Reason: ErrBelowMinimumPurchase, Code: key, Minimum: *c.MinPurchaseAmount}
	}
	return c, nil
}

// Quote is a priced purchase.
type Quote struct {
	BasePrice      float64 `json:"base_price"`
	DiscountAmount float64 `json:"discount_amount"`
	FinalPrice     float64 `json:"final_price"`
}

// ComputeDiscount prices basePrice with c. Percent discounts are capped by
// MaxDiscountAmount when set; flat discounts are taken as is. The final price
// never goes below zero.
func ComputeDiscount(basePrice float64, c Code) Quote {
	var amount float64
	switch c.DiscountType {
	case Percent:
		amount = basePrice * c.Discount / 100
		if c.MaxDiscountAmount != nil && amount > *c.MaxDiscountAmount {
			amount = *c.MaxDiscountAmount
		}
	case Flat:
		amount = c.Discount
	}
	amount = roundCents(amount)
	return Quote{
		BasePrice:      basePrice,
		DiscountAmount: amount,
		FinalPrice:     roundCents(math.Max(0, basePrice-amount)),
	}
}

// ParseWindow parses the start and end of a validity window. Both accept
// RFC 3339 timestamps or plain dates; a plain end date is inclusive through
// the last instant of that day in UTC.
func ParseWindow(start, end string) (time.Time, time.Time, error) {
	from, _, err := parseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %w", err)
	}
	to, dateOnly, err := parseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date: %w", err)
	}
	if dateOnly {
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return from, to, nil
}

func parseDate(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, false, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
