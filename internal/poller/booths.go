package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"boothfair/internal/booth"
	"boothfair/internal/metrics"
	"boothfair/internal/models"
)

// VendorSource lists the raw vendor submissions for the seat map
type VendorSource interface {
	ListVendors(ctx context.Context) ([]models.VendorRecord, error)
}

// Publisher delivers domain events. Delivery is best effort.
type Publisher interface {
	Publish(subject string, data interface{}) error
}

type BoothPollerConfig struct {
	Interval          time.Duration
	Timeout           time.Duration
	HeldShowsAsBooked bool
}

// BoothPoller keeps the reconciled booth snapshot fresh.
//
// Every tick starts an independent fetch, so slow responses may overlap with
// newer ones. Each poll is numbered when it starts and its snapshot is only
// published if no later-started poll has been published already.
type BoothPoller struct {
	source     VendorSource
	reconciler *booth.Reconciler
	publisher  Publisher
	metrics    *metrics.Metrics
	interval   time.Duration
	timeout    time.Duration
	now        func() time.Time

	seq      atomic.Uint64
	current  atomic.Pointer[booth.Snapshot]
	ticker   *time.Ticker
	done     chan bool
	stopOnce sync.Once
}

func NewBoothPoller(source VendorSource, publisher Publisher, m *metrics.Metrics, cfg BoothPollerConfig) *BoothPoller {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Timeout <= 0 || cfg.Timeout > cfg.Interval {
		cfg.Timeout = cfg.Interval
	}

	return &BoothPoller{
		source:     source,
		reconciler: booth.NewReconciler(booth.Options{HeldShowsAsBooked: cfg.HeldShowsAsBooked}),
		publisher:  publisher,
		metrics:    m,
		interval:   cfg.Interval,
		timeout:    cfg.Timeout,
		now:        time.Now,
		done:       make(chan bool),
	}
}

// Snapshot returns the latest published snapshot, or nil before the first
// successful poll
func (p *BoothPoller) Snapshot() *booth.Snapshot {
	return p.current.Load()
}

// Start runs an initial poll immediately and then one per interval
func (p *BoothPoller) Start(ctx context.Context) {
	slog.Info("Starting booth poller", "interval", p.interval, "timeout", p.timeout)

	p.ticker = time.NewTicker(p.interval)

	go p.run(ctx)

	go func() {
		for {
			select {
			case <-p.ticker.C:
				go p.run(ctx)
			case <-ctx.Done():
				p.ticker.Stop()
				slog.Info("Booth poller stopped", "reason", ctx.Err())
				return
			case <-p.done:
				slog.Info("Booth poller stopped")
				return
			}
		}
	}()
}

// Stop halts the ticker. Polls already in flight finish on their own.
func (p *BoothPoller) Stop() {
	p.stopOnce.Do(func() {
		if p.ticker != nil {
			p.ticker.Stop()
		}
		close(p.done)
	})
}

func (p *BoothPoller) run(ctx context.Context) {
	if _, err := p.Poll(ctx); err != nil {
		slog.Error("Booth poll failed, keeping previous snapshot",
			"error", err,
			"generation", p.Snapshot().GetGeneration())
	}
}

// Poll fetches and reconciles once. It reports whether the resulting snapshot
// was published; false with a nil error means a newer poll won the race.
func (p *BoothPoller) Poll(ctx context.Context) (bool, error) {
	gen := p.seq.Add(1)

	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	vendors, err := p.source.ListVendors(fetchCtx)
	if err != nil {
		p.metrics.BoothPolls.WithLabelValues("error").Inc()
		return false, err
	}

	started := time.Now()
	now := p.now()
	statuses := p.reconciler.Reconcile(models.BoothRecords(vendors), now)
	p.metrics.ReconcileDuration.Observe(time.Since(started).Seconds())

	snap := &booth.Snapshot{Statuses: statuses, Generation: gen, FetchedAt: now}
	if !p.publish(snap) {
		p.metrics.BoothPolls.WithLabelValues("stale").Inc()
		slog.Debug("Dropping stale booth poll", "generation", gen,
			"current_generation", p.Snapshot().GetGeneration())
		return false, nil
	}
	p.metrics.BoothPolls.WithLabelValues("applied").Inc()

	counts := make(map[string]int, 4)
	for status, n := range snap.Counts() {
		counts[status.String()] = n
		p.metrics.BoothsByStatus.WithLabelValues(status.String()).Set(float64(n))
	}

	slog.Debug("Booth snapshot refreshed",
		"generation", gen,
		"records", len(vendors),
		"booths", len(statuses))

	event := models.BoothsRefreshedEvent{
		Generation: gen,
		Booths:     len(statuses),
		Counts:     counts,
		Timestamp:  now,
	}
	if err := p.publisher.Publish(models.EventBoothsRefreshed, event); err != nil {
		slog.Error("Failed to publish booths refreshed event",
			"error", err,
			"generation", gen)
	}

	return true, nil
}

func (p *BoothPoller) publish(snap *booth.Snapshot) bool {
	for {
		cur := p.current.Load()
		if cur != nil && cur.Generation >= snap.Generation {
			return false
		}
		if p.current.CompareAndSwap(cur, snap) {
			return true
		}
	}
}
