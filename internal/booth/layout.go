package booth

import (
	"fmt"
	"strings"
	"time"
)

// Category groups booths on the seat map.
type Category string

const (
	CategoryNone     Category = ""
	CategoryFood     Category = "food"
	CategoryCraft    Category = "craft"
	CategoryClothing Category = "clothing"
	CategoryJewelry  Category = "jewelry"
)

// ParseCategory accepts the category names case-insensitively. An empty string
// is CategoryNone, meaning no filter.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryNone, CategoryFood, CategoryCraft, CategoryClothing, CategoryJewelry:
		return c, nil
	}
	return CategoryNone, fmt.Errorf("unknown booth category %q", s)
}

// Spot is the static seat-map configuration of one booth.
type Spot struct {
	BoothID  int      `json:"booth_id"`
	Category Category `json:"category"`
	Price    float64  `json:"price"`
}

// Layout is the seat map keyed by booth id.
type Layout map[int]Spot

func NewLayout(spots []Spot) Layout {
	l := make(Layout, len(spots))
	for _, s := range spots {
		l[s.BoothID] = s
	}
	return l
}

// StatusOf returns the underlying status of a booth; unknown ids are available.
func StatusOf(statuses map[int]Canonical, boothID int) Status {
	if c, ok := statuses[boothID]; ok {
		return c.Status
	}
	return Available
}

// IsSelectable reports whether boothID can be picked on the map: a category
// filter must be set, the booth must belong to it, and it must not be held,
// booked or confirmed.
func IsSelectable(statuses map[int]Canonical, layout Layout, boothID int, filter Category) bool {
	if filter == CategoryNone {
		return false
	}
	spot, ok := layout[boothID]
	if !ok || spot.Category != filter {
		return false
	}
	return !StatusOf(statuses, boothID).Unavailable()
}

// Snapshot is one reconciled view of the map. It is replaced wholesale on every
// successful poll and never mutated after publication.
type Snapshot struct {
	Statuses   map[int]Canonical
	Generation uint64
	FetchedAt  time.Time
}

// Counts tallies booths per underlying status.
func (s *Snapshot) Counts() map[Status]int {
	counts := map[Status]int{Available: 0, Held: 0, Booked: 0, Confirmed: 0}
	if s == nil {
		return counts
	}
	for _, c := range s.Statuses {
		counts[c.Status]++
	}
	return counts
}

// Lookup returns the canonical entry for a booth, synthesizing an available one
// for ids without records.
func (s *Snapshot) Lookup(boothID int) Canonical {
	if s != nil {
		if c, ok := s.Statuses[boothID]; ok {
			return c
		}
	}
	return Canonical{BoothID: boothID, Status: Available, Display: Available}
}

// GetGeneration is nil-safe; zero means no snapshot has been published.
func (s *Snapshot) GetGeneration() uint64 {
	if s == nil {
		return 0
	}
	return s.Generation
}
