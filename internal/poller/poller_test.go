package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boothfair/internal/booth"
	"boothfair/internal/metrics"
	"boothfair/internal/models"
	"boothfair/internal/promo"
)

type fakeSource struct {
	mu      sync.Mutex
	vendors []models.VendorRecord
	err     error
	calls   int
}

func (f *fakeSource) ListVendors(ctx context.Context) ([]models.VendorRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.vendors, f.err
}

// gatedSource blocks each call until its gate is released
type gatedSource struct {
	started chan int
	gates   []chan []models.VendorRecord
	mu      sync.Mutex
	n       int
}

func (g *gatedSource) ListVendors(ctx context.Context) ([]models.VendorRecord, error) {
	g.mu.Lock()
	i := g.n
	g.n++
	g.mu.Unlock()

	g.started <- i
	select {
	case v := <-g.gates[i]:
		return v, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads []interface{}
	err      error
}

func (f *fakePublisher) Publish(subject string, data interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return f.err
}

func num(v float64) *models.FlexibleNumber {
	n := models.FlexibleNumber(v)
	return &n
}

func vendor(id string, boothNumber float64, status string) models.VendorRecord {
	return models.VendorRecord{ID: models.FlexibleString(id), BoothNumber: num(boothNumber), Status: models.FlexibleString(status)}
}

func newTestPoller(src VendorSource, pub Publisher) (*BoothPoller, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	p := NewBoothPoller(src, pub, m, BoothPollerConfig{Interval: time.Hour, Timeout: time.Second})
	return p, m
}

func TestBoothPollerPublishesSnapshot(t *testing.T) {
	src := &fakeSource{vendors: []models.VendorRecord{
		vendor("a", 1, "approved"),
		vendor("b", 2, "paid"),
		vendor("c", 2, "pending"),
	}}
	pub := &fakePublisher{}
	p, m := newTestPoller(src, pub)

	assert.Nil(t, p.Snapshot())

	applied, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.True(t, applied)

	snap := p.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, uint64(1), snap.Generation)
	assert.Equal(t, booth.Booked, snap.Lookup(1).Status)
	assert.Equal(t, booth.Confirmed, snap.Lookup(2).Status)
	assert.Equal(t, booth.Available, snap.Lookup(99).Status)

	require.Len(t, pub.subjects, 1)
	assert.Equal(t, models.EventBoothsRefreshed, pub.subjects[0])
	ev := pub.payloads[0].(models.BoothsRefreshedEvent)
	assert.Equal(t, 2, ev.Booths)
	assert.Equal(t, 1, ev.Counts["confirmed"])
	assert.Equal(t, 1, ev.Counts["booked"])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BoothPolls.WithLabelValues("applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BoothsByStatus.WithLabelValues("confirmed")))
}

func TestBoothPollerFailStatic(t *testing.T) {
	src := &fakeSource{vendors: []models.VendorRecord{vendor("a", 5, "approved")}}
	p, m := newTestPoller(src, &fakePublisher{})

	_, err := p.Poll(context.Background())
	require.NoError(t, err)
	before := p.Snapshot()

	src.err = errors.New("backend down")
	applied, err := p.Poll(context.Background())
	assert.Error(t, err)
	assert.False(t, applied)
	assert.Same(t, before, p.Snapshot())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BoothPolls.WithLabelValues("error")))
}

func TestBoothPollerPublishErrorDoesNotFailPoll(t *testing.T) {
	src := &fakeSource{vendors: []models.VendorRecord{vendor("a", 5, "approved")}}
	p, _ := newTestPoller(src, &fakePublisher{err: errors.New("nats down")})

	applied, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestBoothPollerDropsStaleResponse(t *testing.T) {
	src := &gatedSource{
		started: make(chan int, 2),
		gates:   []chan []models.VendorRecord{make(chan []models.VendorRecord, 1), make(chan []models.VendorRecord, 1)},
	}
	p, m := newTestPoller(src, &fakePublisher{})

	type result struct {
		applied bool
		err     error
	}
	first := make(chan result, 1)
	second := make(chan result, 1)

	go func() {
		applied, err := p.Poll(context.Background())
		first <- result{applied, err}
	}()
	<-src.started

	go func() {
		applied, err := p.Poll(context.Background())
		second <- result{applied, err}
	}()
	<-src.started

	// the later poll answers first
	src.gates[1] <- []models.VendorRecord{vendor("new", 7, "paid")}
	r := <-second
	require.NoError(t, r.err)
	assert.True(t, r.applied)

	src.gates[0] <- []models.VendorRecord{vendor("old", 7, "pending")}
	r = <-first
	require.NoError(t, r.err)
	assert.False(t, r.applied)

	snap := p.Snapshot()
	assert.Equal(t, uint64(2), snap.Generation)
	assert.Equal(t, booth.Confirmed, snap.Lookup(7).Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BoothPolls.WithLabelValues("stale")))
}

func TestBoothPollerStartPollsImmediately(t *testing.T) {
	src := &fakeSource{vendors: []models.VendorRecord{vendor("a", 1, "approved")}}
	p, _ := newTestPoller(src, &fakePublisher{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	assert.Eventually(t, func() bool { return p.Snapshot() != nil }, time.Second, 5*time.Millisecond)
	p.Stop()
}

type fakePromoSource struct {
	codes []promo.Code
	err   error
}

func (f *fakePromoSource) ListActive(ctx context.Context) ([]promo.Code, error) {
	return f.codes, f.err
}

func TestPromoTableRefresher(t *testing.T) {
	src := &fakePromoSource{codes: []promo.Code{{Code: "FAIR10", Discount: 10, DiscountType: promo.Percent}}}
	m := metrics.New(prometheus.NewRegistry())
	r := NewPromoTableRefresher(src, m, time.Hour)

	assert.Empty(t, r.Table())

	require.NoError(t, r.Refresh(context.Background()))
	_, ok := r.Table().Lookup("fair10")
	assert.True(t, ok)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PromoTableSize))

	src.err = errors.New("db down")
	assert.Error(t, r.Refresh(context.Background()))
	_, ok = r.Table().Lookup("FAIR10")
	assert.True(t, ok, "previous table is kept")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PromoTableRefresh.WithLabelValues("error")))
}

type fakeLayoutSource struct {
	mu     sync.Mutex
	layout booth.Layout
	err    error
}

func (f *fakeLayoutSource) Load(ctx context.Context) (booth.Layout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.layout, f.err
}

func (f *fakeLayoutSource) set(layout booth.Layout, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.layout, f.err = layout, err
}

type layoutHolder struct {
	mu     sync.Mutex
	layout booth.Layout
}

func (h *layoutHolder) SetLayout(layout booth.Layout) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.layout = layout
}

func (h *layoutHolder) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.layout)
}

func TestLayoutRefresherKeepsLayoutOnFailure(t *testing.T) {
	src := &fakeLayoutSource{layout: booth.NewLayout([]booth.Spot{{BoothID: 1, Category: booth.CategoryFood, Price: 150}})}
	target := &layoutHolder{}
	m := metrics.New(prometheus.NewRegistry())
	r := NewLayoutRefresher(src, target, m, time.Hour)

	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, 1, target.size())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LayoutBooths))

	src.set(nil, errors.New("db down"))
	assert.Error(t, r.Refresh(context.Background()))
	assert.Equal(t, 1, target.size())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LayoutRefresh.WithLabelValues("error")))
}

func TestLayoutRefresherPicksUpLaterSeeding(t *testing.T) {
	src := &fakeLayoutSource{err: errors.New("relation booth_layout does not exist")}
	target := &layoutHolder{}
	r := NewLayoutRefresher(src, target, metrics.New(prometheus.NewRegistry()), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)
	defer r.Stop()
	assert.Equal(t, 0, target.size())

	src.set(booth.NewLayout([]booth.Spot{
		{BoothID: 1, Category: booth.CategoryFood, Price: 150},
		{BoothID: 2, Category: booth.CategoryCraft, Price: 90},
	}), nil)
	assert.Eventually(t, func() bool { return target.size() == 2 }, time.Second, 5*time.Millisecond)
}
