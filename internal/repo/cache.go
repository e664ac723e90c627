package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"timetable-service/internal/models"
)

// SectionCache is a redis-backed read cache for enriched section timetables.
// It is strictly best-effort: any redis failure degrades to a miss.
type SectionCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisClient connects to redis with short timeouts. Returns nil when
// addr is empty so caching stays optional.
func NewRedisClient(addr string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
}

func NewSectionCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *SectionCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionCache{client: client, ttl: ttl, logger: logger}
}

func cacheKey(sectionID string) string {
	return "timetable:section:" + sectionID
}

func (c *SectionCache) GetSection(ctx context.Context, sectionID string) ([]models.EnrichedEntry, bool) {
	raw, err := c.client.Get(ctx, cacheKey(sectionID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("cache get failed", zap.Error(err))
		}
		return nil, false
	}
	var entries []models.EnrichedEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (c *SectionCache) SetSection(ctx context.Context, sectionID string, entries []models.EnrichedEntry) {
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(sectionID), raw, c.ttl).Err(); err != nil {
		c.logger.Debug("cache set failed", zap.Error(err))
	}
}

func (c *SectionCache) InvalidateSections(ctx context.Context, sectionIDs ...string) {
	if len(sectionIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(sectionIDs))
	for _, id := range sectionIDs {
		keys = append(keys, cacheKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Debug("cache invalidate failed", zap.Error(err))
	}
}
