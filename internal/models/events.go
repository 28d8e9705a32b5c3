package models

import "time"

// NATS Event Types
const (
	EventBoothsRefreshed = "booths.refreshed"
	EventPromoApplied    = "promo.applied"
	EventPromoRemoved    = "promo.removed"
	EventDraftSaved      = "draft.saved"
)

// BoothsRefreshedEvent is published after a poll replaced the snapshot
type BoothsRefreshedEvent struct {
	Generation uint64         `json:"generation"`
	Booths     int            `json:"booths"`
	Counts     map[string]int `json:"counts"`
	Timestamp  time.Time      `json:"timestamp"`
}

// PromoAppliedEvent represents a promo attached to a session
type PromoAppliedEvent struct {
	SessionID      string    `json:"session_id"`
	BoothID        int       `json:"booth_id"`
	Code           string    `json:"code"`
	DiscountAmount float64   `json:"discount_amount"`
	FinalPrice     float64   `json:"final_price"`
	Timestamp      time.Time `json:"timestamp"`
}

// PromoRemovedEvent represents a promo detached from a session
type PromoRemovedEvent struct {
	SessionID string    `json:"session_id"`
	BoothID   int       `json:"booth_id"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

// DraftSavedEvent represents a persisted form draft
type DraftSavedEvent struct {
	DraftID   string    `json:"draft_id"`
	Form      string    `json:"form"`
	Timestamp time.Time `json:"timestamp"`
}
