package donor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	dErrors "lifeline/pkg/domain-errors"
)

// LeaderboardCache caches the serialized leaderboard projection. The donor
// table stays the source of truth; the cache is invalidated on every credit.
type LeaderboardCache interface {
	Get(ctx context.Context, limit int) ([]LeaderboardEntry, bool, error)
	Set(ctx context.Context, limit int, entries []LeaderboardEntry) error
	Invalidate(ctx context.Context) error
}

// Leaderboard returns up to limit donors ordered by points descending with
// ascending donor id as the deterministic tie-break. A cache failure degrades
// to a direct store read, never to an error.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	if s.cache != nil {
		entries, ok, err := s.cache.Get(ctx, limit)
		if err != nil {
			s.logger.WarnContext(ctx, "leaderboard cache read failed", "error", err)
		} else if ok {
			return entries, nil
		}
	}

	donors, err := s.store.TopByPoints(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load leaderboard")
	}
	entries := make([]LeaderboardEntry, 0, len(donors))
	for _, d := range donors {
		entries = append(entries, LeaderboardEntry{
			DonorID:        d.ID,
			Name:           d.Name,
			BloodType:      d.BloodType.String(),
			TotalDonations: d.TotalDonations,
			Points:         d.Points,
			Badges:         d.Badges,
		})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, limit, entries); err != nil {
			s.logger.WarnContext(ctx, "leaderboard cache write failed", "error", err)
		}
	}
	return entries, nil
}

// RedisLeaderboardCache stores serialized leaderboards keyed by limit.
type RedisLeaderboardCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewRedisLeaderboardCache(client *goredis.Client, ttl time.Duration) *RedisLeaderboardCache {
	return &RedisLeaderboardCache{client: client, ttl: ttl}
}

func (c *RedisLeaderboardCache) key(limit int) string {
	return fmt.Sprintf("lifeline:leaderboard:%d", limit)
}

func (c *RedisLeaderboardCache) Get(ctx context.Context, limit int) ([]LeaderboardEntry, bool, error) {
	raw, err := c.client.Get(ctx, c.key(limit)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("leaderboard cache get: %w", err)
	}
	var entries []LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false, fmt.Errorf("leaderboard cache decode: %w", err)
	}
	return entries, true, nil
}

func (c *RedisLeaderboardCache) Set(ctx context.Context, limit int, entries []LeaderboardEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("leaderboard cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.key(limit), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("leaderboard cache set: %w", err)
	}
	return nil
}

func (c *RedisLeaderboardCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "lifeline:leaderboard:*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("leaderboard cache scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("leaderboard cache del: %w", err)
	}
	return nil
}
