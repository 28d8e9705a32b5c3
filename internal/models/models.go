package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"boothfair/internal/booth"
	"boothfair/internal/promo"
)

// FlexibleNumber accepts a JSON number or a numeric string. Anything else,
// including null, decodes to NaN instead of failing the whole payload.
type FlexibleNumber float64

func (fn *FlexibleNumber) UnmarshalJSON(data []byte) error {
	str := strings.Trim(strings.TrimSpace(string(data)), `"`)
	v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		*fn = FlexibleNumber(math.NaN())
		return nil
	}
	*fn = FlexibleNumber(v)
	return nil
}

func (fn FlexibleNumber) MarshalJSON() ([]byte, error) {
	v := float64(fn)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func (fn FlexibleNumber) Float64() float64 {
	return float64(fn)
}

// FlexibleString accepts a JSON string, number or boolean as its text form.
// Any other value, null included, decodes to the empty string.
type FlexibleString string

func (fs *FlexibleString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*fs = FlexibleString(s)
		return nil
	}
	raw := strings.TrimSpace(string(data))
	if _, err := strconv.ParseFloat(raw, 64); err == nil || raw == "true" || raw == "false" {
		*fs = FlexibleString(raw)
		return nil
	}
	*fs = ""
	return nil
}

func (fs FlexibleString) String() string {
	return string(fs)
}

// ListBoothsResponseItem - one booth on the seat map
type ListBoothsResponseItem struct {
	BoothID       int            `json:"booth_id"`
	Category      booth.Category `json:"category"`
	Price         string         `json:"price"`
	Status        booth.Status   `json:"status"`
	DisplayStatus booth.Status   `json:"display_status"`
	HeldUntil     *string        `json:"held_until,omitempty"`
	HeldBy        string         `json:"held_by,omitempty"`
	Selectable    bool           `json:"selectable"`
}

// ListBoothsResponse - seat map with snapshot metadata
type ListBoothsResponse struct {
	Generation uint64                   `json:"generation"`
	FetchedAt  *string                  `json:"fetched_at,omitempty"`
	Booths     []ListBoothsResponseItem `json:"booths"`
}

// ValidatePromoRequest - check a code against a price without a session
type ValidatePromoRequest struct {
	Code      string  `json:"code" binding:"required"`
	BasePrice float64 `json:"base_price" binding:"gte=0"`
}

// ValidatePromoResponse - result of a promo check
type ValidatePromoResponse struct {
	Valid       bool         `json:"valid"`
	Code        string       `json:"code,omitempty"`
	Description string       `json:"description,omitempty"`
	Quote       *promo.Quote `json:"quote,omitempty"`
}

// CreateSessionRequest - start booking a booth
type CreateSessionRequest struct {
	BoothID int `json:"booth_id" binding:"required"`
}

// ApplyPromoRequest - attach a code to a session
type ApplyPromoRequest struct {
	Code string `json:"code" binding:"required"`
}

// SessionResponse - a booking session with its current price
type SessionResponse struct {
	ID          string         `json:"id"`
	BoothID     int            `json:"booth_id"`
	State       promo.State    `json:"state"`
	Applied     *promo.Applied `json:"applied,omitempty"`
	Quote       promo.Quote    `json:"quote"`
	CodeEnabled bool           `json:"code_input_enabled"`
}

// SaveDraftRequest - partial registration form contents
type SaveDraftRequest struct {
	Form   string          `json:"form" binding:"required,oneof=vendor sponsor volunteer participant"`
	Fields json.RawMessage `json:"fields" binding:"required"`
}

// ListEventsResponseItem - an event listing
type ListEventsResponseItem struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Date     string `json:"date,omitempty"`
	Location string `json:"location,omitempty"`
}

// ListEventsResponse - event search results
type ListEventsResponse []ListEventsResponseItem
