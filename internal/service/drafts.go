package service

import (
	"context"
	"time"

	"boothfair/internal/models"
)

// DraftWriter accepts drafts for delayed persistence
type DraftWriter interface {
	Save(d models.Draft)
	Pending(id string) (models.Draft, bool)
}

// DraftReader reads persisted drafts
type DraftReader interface {
	GetDraft(ctx context.Context, id string) (*models.Draft, error)
}

type DraftService struct {
	writer DraftWriter
	reader DraftReader
	now    func() time.Time
}

func NewDraftService(writer DraftWriter, reader DraftReader) *DraftService {
	return &DraftService{writer: writer, reader: reader, now: time.Now}
}

// Save schedules the draft contents for persistence and returns them
func (s *DraftService) Save(ctx context.Context, id string, req *models.SaveDraftRequest) models.Draft {
	d := models.Draft{
		ID:        id,
		Form:      req.Form,
		Fields:    req.Fields,
		UpdatedAt: s.now().UTC(),
	}
	s.writer.Save(d)
	return d
}

// Get prefers contents not yet written over the stored copy
func (s *DraftService) Get(ctx context.Context, id string) (*models.Draft, error) {
	if d, ok := s.writer.Pending(id); ok {
		return &d, nil
	}
	return s.reader.GetDraft(ctx, id)
}
