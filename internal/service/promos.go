package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"boothfair/internal/metrics"
	"boothfair/internal/models"
	"boothfair/internal/promo"
)

// TableSource provides the currently loaded promo table
type TableSource interface {
	Table() promo.Table
}

// SessionStore persists booking sessions
type SessionStore interface {
	SaveSession(ctx context.Context, s *promo.Session, ttl time.Duration) error
	GetSession(ctx context.Context, id string) (*promo.Session, error)
}

// BoothCatalog prices booths that can be booked
type BoothCatalog interface {
	Bookable(boothID int) (float64, error)
}

// Publisher delivers domain events. Delivery is best effort.
type Publisher interface {
	Publish(subject string, data interface{}) error
}

const sessionLockStripes = 64

type PromoService struct {
	tables     TableSource
	sessions   SessionStore
	booths     BoothCatalog
	publisher  Publisher
	metrics    *metrics.Metrics
	sessionTTL time.Duration
	now        func() time.Time

	// serializes read-modify-write of one session within this instance;
	// sessions hash onto a fixed set of stripes
	locks [sessionLockStripes]sync.Mutex
}

func NewPromoService(tables TableSource, sessions SessionStore, booths BoothCatalog, publisher Publisher, m *metrics.Metrics, sessionTTL time.Duration) *PromoService {
	return &PromoService{
		tables:     tables,
		sessions:   sessions,
		booths:     booths,
		publisher:  publisher,
		metrics:    m,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// Validate checks code against basePrice without touching any session
func (s *PromoService) Validate(ctx context.Context, code string, basePrice float64) (*models.ValidatePromoResponse, error) {
	c, err := s.tables.Table().Validate(code, basePrice, s.now())
	if err != nil {
		s.countValidation(err)
		return nil, err
	}
	s.countValidation(nil)

	quote := promo.ComputeDiscount(basePrice, c)
	return &models.ValidatePromoResponse{
		Valid:       true,
		Code:        c.Code,
		Description: c.Description,
		Quote:       &quote,
	}, nil
}

// CreateSession starts a booking session for a bookable booth
func (s *PromoService) CreateSession(ctx context.Context, boothID int) (*promo.Session, error) {
	price, err := s.booths.Bookable(boothID)
	if err != nil {
		return nil, err
	}

	session := promo.NewSession(uuid.New().String(), boothID, price, s.now())
	if err := s.sessions.SaveSession(ctx, session, s.sessionTTL); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("Booking session created",
		"session_id", session.ID,
		"booth_id", boothID,
		"base_price", price)
	return session, nil
}

func (s *PromoService) GetSession(ctx context.Context, id string) (*promo.Session, error) {
	return s.sessions.GetSession(ctx, id)
}

// ApplyPromo attaches code to the session. Validation failures leave the
// session unchanged.
func (s *PromoService) ApplyPromo(ctx context.Context, id, code string) (*promo.Session, error) {
	unlock := s.lock(id)
	defer unlock()

	session, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	applied, err := session.Apply(s.tables.Table(), code, now)
	if err != nil {
		s.countValidation(err)
		return nil, err
	}
	s.countValidation(nil)

	if err := s.sessions.SaveSession(ctx, session, s.sessionTTL); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	quote := session.Quote()
	event := models.PromoAppliedEvent{
		SessionID:      session.ID,
		BoothID:        session.BoothID,
		Code:           applied.Code,
		DiscountAmount: quote.DiscountAmount,
		FinalPrice:     quote.FinalPrice,
		Timestamp:      now,
	}
	if err := s.publisher.Publish(models.EventPromoApplied, event); err != nil {
		slog.Error("Failed to publish promo applied event",
			"error", err,
			"session_id", session.ID,
			"code", applied.Code)
	}

	slog.Info("Promo code applied",
		"session_id", session.ID,
		"code", applied.Code,
		"discount_amount", quote.DiscountAmount)
	return session, nil
}

// RemovePromo clears the applied promo. Removing from a session without one
// is a no-op.
func (s *PromoService) RemovePromo(ctx context.Context, id string) (*promo.Session, error) {
	unlock := s.lock(id)
	defer unlock()

	session, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	removed := session.Remove(now)
	if removed == nil {
		return session, nil
	}

	if err := s.sessions.SaveSession(ctx, session, s.sessionTTL); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	event := models.PromoRemovedEvent{
		SessionID: session.ID,
		BoothID:   session.BoothID,
		Code:      removed.Code,
		Timestamp: now,
	}
	if err := s.publisher.Publish(models.EventPromoRemoved, event); err != nil {
		slog.Error("Failed to publish promo removed event",
			"error", err,
			"session_id", session.ID,
			"code", removed.Code)
	}

	return session, nil
}

func (s *PromoService) lock(id string) func() {
	mu := &s.locks[lockStripe(id)]
	mu.Lock()
	return mu.Unlock
}

func lockStripe(id string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(id))
	return h.Sum32() % sessionLockStripes
}

func (s *PromoService) countValidation(err error) {
	result := "valid"
	if err != nil {
		if result = promo.Reason(err); result == "" {
			result = "error"
		}
	}
	s.metrics.PromoValidations.WithLabelValues(result).Inc()
}
