package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/stan.go"

	"boothfair/internal/models"
)

const handleTimeout = 10 * time.Second

// UsageRecorder appends rows to the promo usage ledger
type UsageRecorder interface {
	Create(ctx context.Context, usage *models.PromoUsage) (bool, error)
	CountApplied(ctx context.Context, code string) (int, error)
}

// SummaryStore mirrors the booth snapshot summary for other instances
type SummaryStore interface {
	SetBoothSummary(ctx context.Context, ev models.BoothsRefreshedEvent) error
}

type Handlers struct {
	usages    UsageRecorder
	summaries SummaryStore
}

func NewHandlers(usages UsageRecorder, summaries SummaryStore) *Handlers {
	return &Handlers{
		usages:    usages,
		summaries: summaries,
	}
}

// decodeError marks payloads that can never be processed
type decodeError struct{ err error }

func (e decodeError) Error() string { return e.err.Error() }

// handle adapts fn to a manual-ack subscription. Messages are acked once
// processed; undecodable ones are acked and dropped, other failures are left
// for redelivery.
func (h *Handlers) handle(subject string, fn func(ctx context.Context, data []byte) error) stan.MsgHandler {
	return func(m *stan.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
		defer cancel()

		if err := fn(ctx, m.Data); err != nil {
			var decodeErr decodeError
			if errors.As(err, &decodeErr) {
				slog.Error("Dropping malformed message", "subject", subject, "sequence", m.Sequence, "error", err)
				m.Ack()
				return
			}
			slog.Error("Failed to process message, awaiting redelivery",
				"subject", subject,
				"sequence", m.Sequence,
				"redelivered", m.Redelivered,
				"error", err)
			return
		}
		m.Ack()
	}
}

func (h *Handlers) HandlePromoApplied(ctx context.Context, data []byte) error {
	var event models.PromoAppliedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return decodeError{fmt.Errorf("failed to unmarshal promo applied event: %w", err)}
	}

	return h.recordUsage(ctx, &models.PromoUsage{
		SessionID:      event.SessionID,
		Code:           event.Code,
		BoothID:        event.BoothID,
		DiscountAmount: event.DiscountAmount,
		Action:         "applied",
		OccurredAt:     occurredAt(event.Timestamp),
	})
}

func (h *Handlers) HandlePromoRemoved(ctx context.Context, data []byte) error {
	var event models.PromoRemovedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return decodeError{fmt.Errorf("failed to unmarshal promo removed event: %w", err)}
	}

	return h.recordUsage(ctx, &models.PromoUsage{
		SessionID:  event.SessionID,
		Code:       event.Code,
		BoothID:    event.BoothID,
		Action:     "removed",
		OccurredAt: occurredAt(event.Timestamp),
	})
}

func (h *Handlers) recordUsage(ctx context.Context, usage *models.PromoUsage) error {
	created, err := h.usages.Create(ctx, usage)
	if err != nil {
		return fmt.Errorf("failed to record promo usage: %w", err)
	}
	if !created {
		slog.Info("Promo usage already recorded",
			"session_id", usage.SessionID,
			"code", usage.Code,
			"action", usage.Action)
		return nil
	}

	active, err := h.usages.CountApplied(ctx, usage.Code)
	if err != nil {
		slog.Warn("Failed to count promo usages", "code", usage.Code, "error", err)
	}
	slog.Info("Recorded promo usage",
		"usage_id", usage.ID,
		"session_id", usage.SessionID,
		"code", usage.Code,
		"action", usage.Action,
		"active_uses", active)
	return nil
}

// occurredAt keys a usage row to its event. Events without a timestamp
// cannot be deduplicated and get the receive time.
func occurredAt(ts time.Time) time.Time {
	if ts.IsZero() {
		return time.Now().UTC()
	}
	return ts.UTC()
}

func (h *Handlers) HandleBoothsRefreshed(ctx context.Context, data []byte) error {
	var event models.BoothsRefreshedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return decodeError{fmt.Errorf("failed to unmarshal booths refreshed event: %w", err)}
	}

	if err := h.summaries.SetBoothSummary(ctx, event); err != nil {
		return fmt.Errorf("failed to mirror booth summary: %w", err)
	}

	slog.Debug("Mirrored booth summary", "generation", event.Generation, "booths", event.Booths)
	return nil
}
