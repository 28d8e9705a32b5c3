package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"boothfair/internal/booth"
	"boothfair/internal/metrics"
)

// LayoutSource loads the static seat map
type LayoutSource interface {
	Load(ctx context.Context) (booth.Layout, error)
}

// LayoutTarget receives each freshly loaded seat map
type LayoutTarget interface {
	SetLayout(layout booth.Layout)
}

// LayoutRefresher reloads the seat map periodically so layout changes made
// after startup are picked up. A failed reload keeps the previous layout.
type LayoutRefresher struct {
	source   LayoutSource
	target   LayoutTarget
	metrics  *metrics.Metrics
	interval time.Duration

	ticker   *time.Ticker
	done     chan bool
	stopOnce sync.Once
}

func NewLayoutRefresher(source LayoutSource, target LayoutTarget, m *metrics.Metrics, interval time.Duration) *LayoutRefresher {
	if interval <= 0 {
		interval = time.Minute
	}
	return &LayoutRefresher{
		source:   source,
		target:   target,
		metrics:  m,
		interval: interval,
		done:     make(chan bool),
	}
}

// Refresh reloads the layout once
func (r *LayoutRefresher) Refresh(ctx context.Context) error {
	layout, err := r.source.Load(ctx)
	if err != nil {
		r.metrics.LayoutRefresh.WithLabelValues("error").Inc()
		return err
	}

	r.target.SetLayout(layout)
	r.metrics.LayoutRefresh.WithLabelValues("applied").Inc()
	r.metrics.LayoutBooths.Set(float64(len(layout)))

	slog.Debug("Booth layout refreshed", "booths", len(layout))
	return nil
}

// Start loads the layout synchronously, then keeps refreshing it in the background
func (r *LayoutRefresher) Start(ctx context.Context) {
	slog.Info("Starting booth layout refresher", "interval", r.interval)

	if err := r.Refresh(ctx); err != nil {
		slog.Error("Initial booth layout load failed", "error", err)
	}

	r.ticker = time.NewTicker(r.interval)
	go func() {
		for {
			select {
			case <-r.ticker.C:
				if err := r.Refresh(ctx); err != nil {
					slog.Error("Booth layout refresh failed, keeping previous layout", "error", err)
				}
			case <-ctx.Done():
				r.ticker.Stop()
				return
			case <-r.done:
				slog.Info("Booth layout refresher stopped")
				return
			}
		}
	}()
}

func (r *LayoutRefresher) Stop() {
	r.stopOnce.Do(func() {
		if r.ticker != nil {
			r.ticker.Stop()
		}
		close(r.done)
	})
}
