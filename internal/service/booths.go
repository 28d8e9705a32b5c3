package service

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"boothfair/internal/booth"
	apperrors "boothfair/internal/errors"
	"boothfair/internal/models"
)

// SnapshotSource provides the latest reconciled booth snapshot
type SnapshotSource interface {
	Snapshot() *booth.Snapshot
}

type BoothService struct {
	snapshots SnapshotSource
	layout    atomic.Pointer[booth.Layout]
}

func NewBoothService(snapshots SnapshotSource, layout booth.Layout) *BoothService {
	s := &BoothService{snapshots: snapshots}
	s.SetLayout(layout)
	return s
}

// SetLayout replaces the seat map. A nil layout clears it.
func (s *BoothService) SetLayout(layout booth.Layout) {
	if layout == nil {
		layout = booth.Layout{}
	}
	s.layout.Store(&layout)
}

// Layout returns the current seat map
func (s *BoothService) Layout() booth.Layout {
	return *s.layout.Load()
}

// List returns every booth on the seat map plus any booth the backend reports
// outside of it, ordered by id. With a category, selectable marks the booths
// of that category that can still be picked.
func (s *BoothService) List(ctx context.Context, category string) (*models.ListBoothsResponse, error) {
	filter, err := booth.ParseCategory(category)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}

	snap := s.snapshots.Snapshot()
	layout := s.Layout()

	ids := make(map[int]struct{}, len(layout))
	for id := range layout {
		ids[id] = struct{}{}
	}
	if snap != nil {
		for id := range snap.Statuses {
			ids[id] = struct{}{}
		}
	}

	sorted := make([]int, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Ints(sorted)

	response := &models.ListBoothsResponse{
		Generation: snap.GetGeneration(),
		Booths:     make([]models.ListBoothsResponseItem, 0, len(sorted)),
	}
	if snap != nil {
		fetchedAt := snap.FetchedAt.UTC().Format(time.RFC3339)
		response.FetchedAt = &fetchedAt
	}
	for _, id := range sorted {
		response.Booths = append(response.Booths, boothItem(snap, layout, id, filter))
	}

	return response, nil
}

// Get returns one booth. Ids without records report available.
func (s *BoothService) Get(ctx context.Context, boothID int, category string) (*models.ListBoothsResponseItem, error) {
	filter, err := booth.ParseCategory(category)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}

	item := boothItem(s.snapshots.Snapshot(), s.Layout(), boothID, filter)
	return &item, nil
}

// Bookable returns the seat-map price of a booth that can currently be booked
func (s *BoothService) Bookable(boothID int) (float64, error) {
	spot, ok := s.Layout()[boothID]
	if !ok {
		return 0, apperrors.ErrUnknownBooth
	}
	snap := s.snapshots.Snapshot()
	if snap.Lookup(boothID).Status.Unavailable() {
		return 0, apperrors.ErrBoothUnavailable
	}
	return spot.Price, nil
}

func boothItem(snap *booth.Snapshot, layout booth.Layout, boothID int, filter booth.Category) models.ListBoothsResponseItem {
	canonical := snap.Lookup(boothID)
	spot := layout[boothID]

	var statuses map[int]booth.Canonical
	if snap != nil {
		statuses = snap.Statuses
	}

	item := models.ListBoothsResponseItem{
		BoothID:       boothID,
		Category:      spot.Category,
		Price:         fmt.Sprintf("%.2f", spot.Price),
		Status:        canonical.Status,
		DisplayStatus: canonical.Display,
		HeldBy:        canonical.HeldBy,
		Selectable:    booth.IsSelectable(statuses, layout, boothID, filter),
	}
	if canonical.HeldUntil != nil {
		heldUntil := canonical.HeldUntil.UTC().Format(time.RFC3339)
		item.HeldUntil = &heldUntil
	}
	return item
}
