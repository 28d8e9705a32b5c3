package booth

import "strings"

// Status is the canonical state of a booth. The numeric value is its rank.
type Status int

const (
	Available Status = iota
	Held
	Booked
	Confirmed
)

func (s Status) String() string {
	switch s {
	case Held:
		return "held"
	case Booked:
		return "booked"
	case Confirmed:
		return "confirmed"
	default:
		return "available"
	}
}

// MarshalText encodes the status as its lower-case name
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Rank orders statuses for conflict resolution: confirmed > booked > held > available.
func (s Status) Rank() int {
	return int(s)
}

// Unavailable reports whether a booth in this state can not be picked on the map.
func (s Status) Unavailable() bool {
	return s == Held || s == Booked || s == Confirmed
}

// RawStatus is the closed vocabulary the backend uses on vendor records.
type RawStatus string

const (
	RawApproved    RawStatus = "approved"
	RawUnderReview RawStatus = "under_review"
	RawBooked      RawStatus = "booked"
	RawExpired     RawStatus = "expired"
	RawHeld        RawStatus = "held"
	RawAvailable   RawStatus = "available"
	RawSubmitted   RawStatus = "submitted"
	RawRejected    RawStatus = "rejected"
	RawPaid        RawStatus = "paid"
	RawConfirmed   RawStatus = "confirmed"
	RawUnknown     RawStatus = ""
)

// ParseRawStatus trims and lower-cases s and matches it against the known vocabulary.
// Anything else yields RawUnknown and false.
func ParseRawStatus(s string) (RawStatus, bool) {
	switch r := RawStatus(strings.ToLower(strings.TrimSpace(s))); r {
	case RawApproved, RawUnderReview, RawBooked, RawExpired, RawHeld,
		RawAvailable, RawSubmitted, RawRejected, RawPaid, RawConfirmed:
		return r, true
	}
	return RawUnknown, false
}

// Canonical maps a parsed raw status onto its canonical status.
func (r RawStatus) Canonical() Status {
	switch r {
	case RawPaid, RawConfirmed:
		return Confirmed
	case RawApproved, RawUnderReview, RawBooked, RawExpired:
		return Booked
	case RawHeld:
		return Held
	default:
		// available, submitted, rejected and unknown values stay bookable
		return Available
	}
}

// NormalizeStatus converts a free-text backend status into a canonical status.
// It never fails: unrecognized strings are Available.
func NormalizeStatus(raw string) Status {
	r, _ := ParseRawStatus(raw)
	return r.Canonical()
}
