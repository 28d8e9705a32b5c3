package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "boothfair/internal/errors"
	"boothfair/internal/models"
	"boothfair/internal/promo"
)

func newTestClient(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisClientFrom(rdb, "test"), mr
}

func TestSessionRoundTripAndExpiry(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()
	now := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)

	s := promo.NewSession("abc", 14, 250, now)
	s.Applied = &promo.Applied{Code: "VENDOR50", Discount: 50, DiscountType: promo.Flat, AppliedAt: now}
	require.NoError(t, client.SaveSession(ctx, s, time.Minute))
	assert.True(t, mr.Exists("test:session:abc"))

	got, err := client.GetSession(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, 14, got.BoothID)
	require.NotNil(t, got.Applied)
	assert.Equal(t, "VENDOR50", got.Applied.Code)
	assert.Equal(t, promo.StateApplied, got.State())

	mr.FastForward(2 * time.Minute)
	_, err = client.GetSession(ctx, "abc")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDraftRoundTrip(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	_, err := client.GetDraft(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	d := models.Draft{ID: "d1", Form: "vendor", Fields: json.RawMessage(`{"businessName":"Tacos"}`), UpdatedAt: time.Now().UTC()}
	require.NoError(t, client.SaveDraft(ctx, d, time.Hour))

	got, err := client.GetDraft(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "vendor", got.Form)
	assert.JSONEq(t, `{"businessName":"Tacos"}`, string(got.Fields))
}

func TestBoothSummaryKeepsLatestFetch(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	ts := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)

	_, err := client.GetBoothSummary(ctx)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, client.SetBoothSummary(ctx, models.BoothsRefreshedEvent{
		Generation: 5, Booths: 3, Counts: map[string]int{"held": 1, "booked": 2}, Timestamp: ts,
	}))
	require.NoError(t, client.SetBoothSummary(ctx, models.BoothsRefreshedEvent{
		Generation: 9, Booths: 9, Counts: map[string]int{"held": 9}, Timestamp: ts.Add(-time.Second),
	}))

	got, err := client.GetBoothSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), got.Generation)
	assert.Equal(t, 3, got.Booths)
	assert.Equal(t, 1, got.Counts["held"])
	assert.Equal(t, 2, got.Counts["booked"])
	assert.True(t, ts.Equal(got.Timestamp))
}

func TestBoothSummaryAcceptsRestartedGenerations(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	ts := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)

	require.NoError(t, client.SetBoothSummary(ctx, models.BoothsRefreshedEvent{
		Generation: 500, Booths: 10, Counts: map[string]int{"booked": 10}, Timestamp: ts,
	}))
	require.NoError(t, client.SetBoothSummary(ctx, models.BoothsRefreshedEvent{
		Generation: 1, Booths: 10, Counts: map[string]int{"available": 10}, Timestamp: ts.Add(10 * time.Second),
	}))

	got, err := client.GetBoothSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.Generation)
	assert.Equal(t, map[string]int{"available": 10}, got.Counts)
}
