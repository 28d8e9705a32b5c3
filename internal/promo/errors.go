package promo

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrCodeNotFound         = errors.New("promo code not found")
	ErrNotYetActive         = errors.New("promo code not yet active")
	ErrExpired              = errors.New("promo code expired")
	ErrBelowMinimumPurchase = errors.New("purchase below promo minimum")
	ErrAlreadyApplied       = errors.New("a promo code is already applied")
)

// ValidationError describes why a code was rejected. It unwraps to one of the
// sentinel errors above.
type ValidationError struct {
	Reason  error
	Code    string
	At      time.Time
	Minimum float64
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ErrCodeNotFound:
		return fmt.Sprintf("promo code %q not found", e.Code)
	case ErrNotYetActive:
		return fmt.Sprintf("promo code %q is not active until %s", e.Code, e.At.Format(time.DateOnly))
	case ErrExpired:
		return fmt.Sprintf("promo code %q expired on %s", e.Code, e.At.Format(time.DateOnly))
	case ErrBelowMinimumPurchase:
		return fmt.Sprintf("promo code %q requires a minimum purchase of %.2f", e.Code, e.Minimum)
	}
	return fmt.Sprintf("promo code %q: %v", e.Code, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// Reason returns a stable machine-readable identifier for err, or "" when err
// is not a promo error.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrCodeNotFound):
		return "code_not_found"
	case errors.Is(err, ErrNotYetActive):
		return "not_yet_active"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrBelowMinimumPurchase):
		return "below_minimum_purchase"
	case errors.Is(err, ErrAlreadyApplied):
		return "already_applied"
	}
	return ""
}
