package booth

import (
	"math"
	"time"
)

// Record is one raw vendor submission or booth entry as returned by the backend.
// Several records may reference the same booth while it is contended.
type Record struct {
	BoothID     float64
	RawStatus   string
	HeldUntil   string // ISO-8601, empty when the record carries no hold expiry
	RecordID    string
	SubmittedAt time.Time
}

// Canonical is the resolved state of a single booth.
//
// Status is the underlying state used for policy checks such as selectability.
// Display is what the map should render; it differs from Status only when
// held booths are configured to show as booked.
type Canonical struct {
	BoothID   int        `json:"booth_id"`
	Status    Status     `json:"status"`
	Display   Status     `json:"display_status"`
	HeldUntil *time.Time `json:"held_until,omitempty"`
	HeldBy    string     `json:"held_by,omitempty"`
}

// Options are presentation policies applied during reconciliation.
type Options struct {
	HeldShowsAsBooked bool
}

// Reconciler turns raw records into one canonical status per booth.
// It holds no state between calls.
type Reconciler struct {
	opts Options
}

func NewReconciler(opts Options) *Reconciler {
	return &Reconciler{opts: opts}
}

// Reconcile computes the canonical status of every booth referenced by records.
//
// Records without a finite integral booth id are skipped. A held record whose
// expiry parses and lies before now counts as available; an unparsable expiry
// keeps the hold. When several records share a booth id the highest rank wins.
// Equal ranks prefer the later submission, then the smaller record id, so the
// result does not depend on the order of records.
//
// Booths that no record references are absent from the result and should be
// treated as available by the caller.
func (r *Reconciler) Reconcile(records []Record, now time.Time) map[int]Canonical {
	best := make(map[int]candidate, len(records))
	for _, rec := range records {
		id, ok := boothID(rec.BoothID)
		if !ok {
			continue
		}

		status := NormalizeStatus(rec.RawStatus)
		heldUntil, parsed := ParseTimestamp(rec.HeldUntil)
		if status == Held && parsed && heldUntil.Before(now) {
			status = Available
		}

		c := candidate{
			Canonical: Canonical{
				BoothID: id,
				Status:  status,
				Display: r.display(status),
				HeldBy:  rec.RecordID,
			},
			submittedAt: rec.SubmittedAt,
		}
		if parsed {
			t := heldUntil
			c.HeldUntil = &t
		}

		existing, found := best[id]
		if !found || c.beats(existing) {
			best[id] = c
		}
	}

	out := make(map[int]Canonical, len(best))
	for id, c := range best {
		out[id] = c.Canonical
	}
	return out
}

func (r *Reconciler) display(s Status) Status {
	if s == Held && r.opts.HeldShowsAsBooked {
		return Booked
	}
	return s
}

type candidate struct {
	Canonical
	submittedAt time.Time
}

func (c candidate) beats(other candidate) bool {
	if c.Status.Rank() != other.Status.Rank() {
		return c.Status.Rank() > other.Status.Rank()
	}
	if !c.submittedAt.Equal(other.submittedAt) {
		return c.submittedAt.After(other.submittedAt)
	}
	return c.HeldBy < other.HeldBy
}

func boothID(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, false
	}
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, false
	}
	return int(v), true
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp accepts the ISO-8601 shapes the backend emits. Values without
// a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
