package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "boothfair"

// Metrics holds every collector the service exports
type Metrics struct {
	BoothPolls        *prometheus.CounterVec
	ReconcileDuration prometheus.Histogram
	BoothsByStatus    *prometheus.GaugeVec
	PromoTableRefresh *prometheus.CounterVec
	PromoTableSize    prometheus.Gauge
	LayoutRefresh     *prometheus.CounterVec
	LayoutBooths      prometheus.Gauge
	PromoValidations  *prometheus.CounterVec
	DraftWrites       *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New registers the collectors on reg. Tests pass a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BoothPolls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booth_polls_total",
			Help:      "Vendor listing polls by outcome (applied, stale, error).",
		}, []string{"outcome"}),
		ReconcileDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "booth_reconcile_duration_seconds",
			Help:      "Time spent reconciling raw vendor records.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		BoothsByStatus: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "booths",
			Help:      "Booths in the current snapshot by canonical status.",
		}, []string{"status"}),
		PromoTableRefresh: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_table_refresh_total",
			Help:      "Promo table reloads by outcome (applied, error).",
		}, []string{"outcome"}),
		PromoTableSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "promo_codes",
			Help:      "Active promo codes in the loaded table.",
		}),
		LayoutRefresh: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_refresh_total",
			Help:      "Booth layout reloads by outcome (applied, error).",
		}, []string{"outcome"}),
		LayoutBooths: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "layout_booths",
			Help:      "Booths in the loaded seat map.",
		}),
		PromoValidations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promo_validations_total",
			Help:      "Promo code checks by result.",
		}, []string{"result"}),
		DraftWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draft_writes_total",
			Help:      "Debounced draft flushes by outcome.",
		}, []string{"outcome"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}
