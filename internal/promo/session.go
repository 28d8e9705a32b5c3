package promo

import "time"

// State is the applied-promo lifecycle state of a session.
type State string

const (
	StateNone    State = "none"
	StateApplied State = "applied"
)

// Applied is the promo attached to a booking session.
type Applied struct {
	Code              string       `json:"code"`
	Discount          float64      `json:"discount"`
	DiscountType      DiscountType `json:"discountType"`
	Description       string       `json:"description"`
	MaxDiscountAmount *float64     `json:"maxDiscountAmount,omitempty"`
	AppliedAt         time.Time    `json:"appliedAt"`
}

// Session is the booking state of one visitor: a booth, its price and at most
// one applied promo.
type Session struct {
	ID        string    `json:"id"`
	BoothID   int       `json:"booth_id"`
	BasePrice float64   `json:"base_price"`
	Applied   *Applied  `json:"applied,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSession(id string, boothID int, basePrice float64, now time.Time) *Session {
	return &Session{
		ID:        id,
		BoothID:   boothID,
		BasePrice: basePrice,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) State() State {
	if s.Applied != nil {
		return StateApplied
	}
	return StateNone
}

// Apply validates code against t and attaches it. A session that already has a
// promo must be cleared with Remove first. On failure the session is unchanged.
func (s *Session) Apply(t Table, code string, now time.Time) (*Applied, error) {
	if s.Applied != nil {
		return nil, ErrAlreadyApplied
	}
	c, err := t.Validate(code, s.BasePrice, now)
	if err != nil {
		return nil, err
	}
	s.Applied = &Applied{
		Code:              c.Code,
		Discount:          c.Discount,
		DiscountType:      c.DiscountType,
		Description:       c.Description,
		MaxDiscountAmount: c.MaxDiscountAmount,
		AppliedAt:         now,
	}
	s.UpdatedAt = now
	return s.Applied, nil
}

// Remove detaches the applied promo and returns it, or nil if none was applied.
func (s *Session) Remove(now time.Time) *Applied {
	removed := s.Applied
	if removed != nil {
		s.Applied = nil
		s.UpdatedAt = now
	}
	return removed
}

// Quote prices the session with its applied promo, if any.
func (s *Session) Quote() Quote {
	if s.Applied == nil {
		return Quote{BasePrice: s.BasePrice, FinalPrice: s.BasePrice}
	}
	return ComputeDiscount(s.BasePrice, Code{
		Code:              s.Applied.Code,
		Discount:          s.Applied.Discount,
		DiscountType:      s.Applied.DiscountType,
		MaxDiscountAmount: s.Applied.MaxDiscountAmount,
	})
}
