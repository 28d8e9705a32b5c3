package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"boothfair/internal/metrics"
	"boothfair/internal/promo"
)

// PromoSource loads the currently active promo codes
type PromoSource interface {
	ListActive(ctx context.Context) ([]promo.Code, error)
}

// PromoTableRefresher reloads the promo table periodically. A failed reload
// keeps serving the previous table.
type PromoTableRefresher struct {
	source   PromoSource
	metrics  *metrics.Metrics
	interval time.Duration

	table    atomic.Pointer[promo.Table]
	ticker   *time.Ticker
	done     chan bool
	stopOnce sync.Once
}

func NewPromoTableRefresher(source PromoSource, m *metrics.Metrics, interval time.Duration) *PromoTableRefresher {
	if interval <= 0 {
		interval = time.Minute
	}
	return &PromoTableRefresher{
		source:   source,
		metrics:  m,
		interval: interval,
		done:     make(chan bool),
	}
}

// Table returns the loaded table. Before the first successful load it is
// empty, so every lookup reports code not found.
func (r *PromoTableRefresher) Table() promo.Table {
	if t := r.table.Load(); t != nil {
		return *t
	}
	return promo.Table{}
}

// Refresh reloads the table once
func (r *PromoTableRefresher) Refresh(ctx context.Context) error {
	codes, err := r.source.ListActive(ctx)
	if err != nil {
		r.metrics.PromoTableRefresh.WithLabelValues("error").Inc()
		return err
	}

	table := promo.NewTable(codes)
	r.table.Store(&table)
	r.metrics.PromoTableRefresh.WithLabelValues("applied").Inc()
	r.metrics.PromoTableSize.Set(float64(len(table)))

	slog.Debug("Promo table refreshed", "codes", len(table))
	return nil
}

// Start loads the table synchronously, then keeps refreshing it in the background
func (r *PromoTableRefresher) Start(ctx context.Context) {
	slog.Info("Starting promo table refresher", "interval", r.interval)

	if err := r.Refresh(ctx); err != nil {
		slog.Error("Initial promo table load failed", "error", err)
	}

	r.ticker = time.NewTicker(r.interval)
	go func() {
		for {
			select {
			case <-r.ticker.C:
				if err := r.Refresh(ctx); err != nil {
					slog.Error("Promo table refresh failed, keeping previous table",
						"error", err,
						"codes", len(r.Table()))
				}
			case <-ctx.Done():
				r.ticker.Stop()
				return
			case <-r.done:
				slog.Info("Promo table refresher stopped")
				return
			}
		}
	}()
}

func (r *PromoTableRefresher) Stop() {
	r.stopOnce.Do(func() {
		if r.ticker != nil {
			r.ticker.Stop()
		}
		close(r.done)
	})
}
