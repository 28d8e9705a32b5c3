package drafts

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"boothfair/internal/metrics"
	"boothfair/internal/models"
)

const writeTimeout = 5 * time.Second

// Store persists drafts
type Store interface {
	SaveDraft(ctx context.Context, d models.Draft, ttl time.Duration) error
}

// Publisher delivers domain events. Delivery is best effort.
type Publisher interface {
	Publish(subject string, data interface{}) error
}

type pending struct {
	draft   models.Draft
	timer   *time.Timer
	writing bool
}

// Writer coalesces rapid successive saves of the same draft. A draft is
// written once it has been idle for the debounce delay; only its latest
// contents reach the store.
type Writer struct {
	store     Store
	publisher Publisher
	metrics   *metrics.Metrics
	debounce  time.Duration
	ttl       time.Duration

	mu      sync.Mutex
	pending map[string]*pending
	// last write started per draft; closed when that write returns
	inflight map[string]chan struct{}
	wg       sync.WaitGroup
}

func NewWriter(store Store, publisher Publisher, m *metrics.Metrics, debounce, ttl time.Duration) *Writer {
	return &Writer{
		store:     store,
		publisher: publisher,
		metrics:   m,
		debounce:  debounce,
		ttl:       ttl,
		pending:   make(map[string]*pending),
		inflight:  make(map[string]chan struct{}),
	}
}

// Save schedules d to be written after the debounce delay, replacing any
// not yet written contents of the same draft
func (w *Writer) Save(d models.Draft) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[d.ID]; ok {
		p.timer.Stop()
	}

	p := &pending{draft: d}
	w.pending[d.ID] = p
	p.timer = time.AfterFunc(w.debounce, func() { w.fire(p) })
}

// Pending returns the contents of a draft that has not been written yet,
// including one whose write is still in progress
func (w *Writer) Pending(id string) (models.Draft, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[id]; ok {
		return p.draft, true
	}
	return models.Draft{}, false
}

// Flush writes every pending draft immediately and waits for writes already
// in progress
func (w *Writer) Flush(ctx context.Context) {
	w.mu.Lock()
	batch := make([]models.Draft, 0, len(w.pending))
	for id, p := range w.pending {
		if p.writing {
			continue
		}
		p.timer.Stop()
		batch = append(batch, p.draft)
		delete(w.pending, id)
	}
	w.mu.Unlock()

	w.wg.Wait()
	for _, d := range batch {
		w.write(ctx, d)
	}

	if len(batch) > 0 {
		slog.Info("Flushed pending drafts", "count", len(batch))
	}
}

func (w *Writer) fire(p *pending) {
	id := p.draft.ID

	w.mu.Lock()
	if w.pending[id] != p {
		// superseded by a later save or taken by Flush
		w.mu.Unlock()
		return
	}
	p.writing = true
	previous := w.inflight[id]
	done := make(chan struct{})
	w.inflight[id] = done
	w.wg.Add(1)
	w.mu.Unlock()

	defer w.wg.Done()
	defer close(done)

	// writes of one draft reach the store in save order
	if previous != nil {
		<-previous
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	w.write(ctx, p.draft)

	w.mu.Lock()
	if w.pending[id] == p {
		delete(w.pending, id)
	}
	if w.inflight[id] == done {
		delete(w.inflight, id)
	}
	w.mu.Unlock()
}

func (w *Writer) write(ctx context.Context, d models.Draft) {
	if err := w.store.SaveDraft(ctx, d, w.ttl); err != nil {
		w.metrics.DraftWrites.WithLabelValues("error").Inc()
		slog.Error("Failed to save draft",
			"error", err,
			"draft_id", d.ID,
			"form", d.Form)
		return
	}
	w.metrics.DraftWrites.WithLabelValues("saved").Inc()

	event := models.DraftSavedEvent{
		DraftID:   d.ID,
		Form:      d.Form,
		Timestamp: d.UpdatedAt,
	}
	if err := w.publisher.Publish(models.EventDraftSaved, event); err != nil {
		slog.Error("Failed to publish draft saved event",
			"error", err,
			"draft_id", d.ID)
	}
}
