package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"boothfair/internal/models"
)

// EventSearcher queries the event listing index
type EventSearcher interface {
	Search(ctx context.Context, query string, page, pageSize int) ([]models.Event, error)
}

// EventLister reads event listings straight from the backend
type EventLister interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
}

type EventService struct {
	searcher EventSearcher
	lister   EventLister
}

// NewEventService searches the index when searcher is set and otherwise
// filters the backend listings in memory
func NewEventService(searcher EventSearcher, lister EventLister) *EventService {
	return &EventService{searcher: searcher, lister: lister}
}

func (s *EventService) List(ctx context.Context, query string, page, pageSize int) (models.ListEventsResponse, error) {
	var events []models.Event
	var err error
	if s.searcher != nil {
		events, err = s.searcher.Search(ctx, query, page, pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to search events: %w", err)
		}
	} else {
		events, err = s.lister.ListEvents(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list events: %w", err)
		}
		events = paginate(filterEvents(events, query), page, pageSize)
	}

	result := make(models.ListEventsResponse, len(events))
	for i, event := range events {
		item := models.ListEventsResponseItem{
			ID:       event.ID,
			Title:    event.Title,
			Location: event.Location,
		}
		if !event.StartsAt.IsZero() {
			item.Date = event.StartsAt.UTC().Format(time.DateOnly)
		}
		result[i] = item
	}
	return result, nil
}

func filterEvents(events []models.Event, query string) []models.Event {
	query = strings.ToLower(strings.TrimSpace(query))

	filtered := make([]models.Event, 0, len(events))
	for _, event := range events {
		if !event.Published {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(event.Title), query) &&
			!strings.Contains(strings.ToLower(event.Description), query) &&
			!strings.Contains(strings.ToLower(event.Location), query) {
			continue
		}
		filtered = append(filtered, event)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].StartsAt.Before(filtered[j].StartsAt)
	})
	return filtered
}

func paginate(events []models.Event, page, pageSize int) []models.Event {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	from := (page - 1) * pageSize
	if from >= len(events) {
		return nil
	}
	to := from + pageSize
	if to > len(events) {
		to = len(events)
	}
	return events[from:to]
}
