package redis

import (
	"context"
	"errors"
	"time"

	"jobmarket-bot/internal/models"
	"jobmarket-bot/internal/store"
)

// SnapshotCache shares analytics snapshots between sessions for ttl.
type SnapshotCache struct {
	cache *Cache
	ttl   time.Duration
}

var _ store.SnapshotCache = (*SnapshotCache)(nil)

func NewSnapshotCache(cache *Cache, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{cache: cache, ttl: ttl}
}

func (s *SnapshotCache) AdminAnalytics(ctx context.Context, timeRange string) (*models.AdminAnalytics, error) {
	var snapshot models.AdminAnalytics
	if err := s.cache.Get(ctx, AdminAnalyticsKey(timeRange), &snapshot); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

func (s *SnapshotCache) SetAdminAnalytics(ctx context.Context, timeRange string, snapshot *models.AdminAnalytics) error {
	return s.cache.Set(ctx, AdminAnalyticsKey(timeRange), snapshot, s.ttl)
}

func (s *SnapshotCache) RecruiterAnalytics(ctx context.Context, recruiterID, timeRange string) (*models.RecruiterAnalytics, error) {
	var snapshot models.RecruiterAnalytics
	if err := s.cache.Get(ctx, RecruiterAnalyticsKey(recruiterID, timeRange), &snapshot); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

func (s *SnapshotCache) SetRecruiterAnalytics(ctx context.Context, recruiterID, timeRange string, snapshot *models.RecruiterAnalytics) error {
	return s.cache.Set(ctx, RecruiterAnalyticsKey(recruiterID, timeRange), snapshot, s.ttl)
}
