package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/whale-tracker/internal/models"
)

// snapshotKey holds the serialized last-good snapshot.
const snapshotKey = "whales:snapshot"

// SnapshotCache persists the last-good snapshot in Redis so a restarted
// process can serve immediately instead of waiting for its first refresh.
type SnapshotCache struct {
	cache *RedisCache
	ttl   time.Duration
}

// NewSnapshotCache creates a snapshot cache. The TTL should comfortably
// outlive the refresh interval; an expired entry just means a cold start.
func NewSnapshotCache(cache *RedisCache, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{cache: cache, ttl: ttl}
}

// Save stores snapshot as the warm-start copy.
func (s *SnapshotCache) Save(ctx context.Context, snapshot *models.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	if err := s.cache.Set(ctx, snapshotKey, payload, s.ttl); err != nil {
		return fmt.Errorf("failed to cache snapshot: %w", err)
	}
	return nil
}

// Load returns the cached snapshot, or nil when none is stored.
func (s *SnapshotCache) Load(ctx context.Context) (*models.Snapshot, error) {
	raw, err := s.cache.Get(ctx, snapshotKey)
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cached snapshot: %w", err)
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse cached snapshot: %w", err)
	}
	return &snapshot, nil
}

// Clear drops the warm-start copy.
func (s *SnapshotCache) Clear(ctx context.Context) error {
	return s.cache.Del(ctx, snapshotKey)
}
