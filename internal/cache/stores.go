package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "boothfair/internal/errors"
	"boothfair/internal/models"
	"boothfair/internal/promo"
)

// SaveSession stores a booking session, refreshing its TTL
func (r *RedisClient) SaveSession(ctx context.Context, s *promo.Session, ttl time.Duration) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, r.key("session", s.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session %s: %w", s.ID, err)
	}
	return nil
}

// GetSession returns apperrors.ErrNotFound for unknown or expired sessions
func (r *RedisClient) GetSession(ctx context.Context, id string) (*promo.Session, error) {
	payload, err := r.client.Get(ctx, r.key("session", id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("session lookup error: %w", err)
	}

	var s promo.Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("invalid session payload: %w", err)
	}
	return &s, nil
}

// SaveDraft stores a form draft, refreshing its TTL
func (r *RedisClient) SaveDraft(ctx context.Context, d models.Draft, ttl time.Duration) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	if err := r.client.Set(ctx, r.key("draft", d.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store draft %s: %w", d.ID, err)
	}
	return nil
}

// GetDraft returns apperrors.ErrNotFound for unknown or expired drafts
func (r *RedisClient) GetDraft(ctx context.Context, id string) (*models.Draft, error) {
	payload, err := r.client.Get(ctx, r.key("draft", id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("draft lookup error: %w", err)
	}

	var d models.Draft
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, fmt.Errorf("invalid draft payload: %w", err)
	}
	return &d, nil
}

// setSummaryScript replaces the summary hash unless the stored one was
// fetched later. KEYS[1] summary hash, ARGV[1] fetch time in unix ms, then
// field/value pairs.
var setSummaryScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'fetched_ms')
if current and tonumber(current) > tonumber(ARGV[1]) then
	return 0
end
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], 'fetched_ms', ARGV[1], unpack(ARGV, 2))
return 1
`)

// SetBoothSummary mirrors the latest snapshot counts so that every instance
// can report them. Ordering is by fetch time: generations restart with each
// API process and differ between instances.
func (r *RedisClient) SetBoothSummary(ctx context.Context, ev models.BoothsRefreshedEvent) error {
	args := []interface{}{
		ev.Timestamp.UnixMilli(),
		"generation", ev.Generation,
		"booths", ev.Booths,
		"updated_at", ev.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	for status, n := range ev.Counts {
		args = append(args, "count:"+status, n)
	}

	applied, err := setSummaryScript.Run(ctx, r.client, []string{r.key("booths", "summary")}, args...).Int()
	if err != nil {
		return fmt.Errorf("failed to store booth summary: %w", err)
	}
	if applied == 0 {
		slog.Debug("Ignoring older booth summary", "generation", ev.Generation, "fetched_at", ev.Timestamp)
	}
	return nil
}

// GetBoothSummary reads the mirrored snapshot counts
func (r *RedisClient) GetBoothSummary(ctx context.Context) (*models.BoothsRefreshedEvent, error) {
	values, err := r.client.HGetAll(ctx, r.key("booths", "summary")).Result()
	if err != nil {
		return nil, fmt.Errorf("summary lookup error: %w", err)
	}
	if len(values) == 0 {
		return nil, apperrors.ErrNotFound
	}

	ev := &models.BoothsRefreshedEvent{Counts: map[string]int{}}
	for field, value := range values {
		switch {
		case field == "generation":
			ev.Generation, _ = strconv.ParseUint(value, 10, 64)
		case field == "booths":
			ev.Booths, _ = strconv.Atoi(value)
		case field == "updated_at":
			ev.Timestamp, _ = time.Parse(time.RFC3339Nano, value)
		case strings.HasPrefix(field, "count:"):
			n, _ := strconv.Atoi(value)
			ev.Counts[strings.TrimPrefix(field, "count:")] = n
		}
	}
	return ev, nil
}
