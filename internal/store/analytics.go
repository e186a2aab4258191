package store

import (
	"context"
	"fmt"
	"sync"

	"jobmarket-bot/internal/models"

	"go.uber.org/zap"
)

type AnalyticsAPI interface {
	AdminAnalytics(ctx context.Context, timeRange string) (*models.AdminAnalytics, error)
	RecruiterAnalytics(ctx context.Context, recruiterID, timeRange string) (*models.RecruiterAnalytics, error)
}

// SnapshotCache is an optional shared cache of analytics snapshots.
// Lookups return nil, nil on a miss.
type SnapshotCache interface {
	AdminAnalytics(ctx context.Context, timeRange string) (*models.AdminAnalytics, error)
	SetAdminAnalytics(ctx context.Context, timeRange string, snapshot *models.AdminAnalytics) error
	RecruiterAnalytics(ctx context.Context, recruiterID, timeRange string) (*models.RecruiterAnalytics, error)
	SetRecruiterAnalytics(ctx context.Context, recruiterID, timeRange string, snapshot *models.RecruiterAnalytics) error
}

// AnalyticsStore holds at most one admin snapshot and one recruiter snapshot.
// Every successful fetch replaces the previous snapshot of its kind.
type AnalyticsStore struct {
	api    AnalyticsAPI
	cache  SnapshotCache
	logger *zap.Logger

	mu        sync.RWMutex
	admin     *models.AdminAnalytics
	recruiter *models.RecruiterAnalytics
	status    opStatus
}

func NewAnalyticsStore(api AnalyticsAPI, cache SnapshotCache, logger *zap.Logger) *AnalyticsStore {
	return &AnalyticsStore{
		api:    api,
		cache:  cache,
		logger: logger,
	}
}

func (s *AnalyticsStore) FetchAdmin(ctx context.Context, timeRange string) (models.AdminAnalytics, error) {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	snapshot, err := s.loadAdmin(ctx, timeRange)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status.fail(failureMessage(err, "Failed to fetch analytics"))
		s.logger.Error("failed to fetch admin analytics",
			zap.String("time_range", timeRange),
			zap.Error(err),
		)
		return models.AdminAnalytics{}, fmt.Errorf("fetch admin analytics: %w", err)
	}

	s.admin = snapshot
	s.status.end()
	return *snapshot, nil
}

func (s *AnalyticsStore) FetchRecruiter(ctx context.Context, recruiterID, timeRange string) (models.RecruiterAnalytics, error) {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	snapshot, err := s.loadRecruiter(ctx, recruiterID, timeRange)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status.fail(failureMessage(err, "Failed to fetch analytics"))
		s.logger.Error("failed to fetch recruiter analytics",
			zap.String("recruiter_id", recruiterID),
			zap.String("time_range", timeRange),
			zap.Error(err),
		)
		return models.RecruiterAnalytics{}, fmt.Errorf("fetch recruiter analytics: %w", err)
	}

	s.recruiter = snapshot
	s.status.end()
	return *snapshot, nil
}

// Admin returns the current admin snapshot, if any.
func (s *AnalyticsStore) Admin() (models.AdminAnalytics, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.admin == nil {
		return models.AdminAnalytics{}, false
	}
	return *s.admin, true
}

// Recruiter returns the current recruiter snapshot, if any.
func (s *AnalyticsStore) Recruiter() (models.RecruiterAnalytics, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.recruiter == nil {
		return models.RecruiterAnalytics{}, false
	}
	return *s.recruiter, true
}

func (s *AnalyticsStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status.inflight > 0
}

func (s *AnalyticsStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status.err
}

func (s *AnalyticsStore) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.err = ""
}

func (s *AnalyticsStore) loadAdmin(ctx context.Context, timeRange string) (*models.AdminAnalytics, error) {
	if s.cache != nil {
		cached, err := s.cache.AdminAnalytics(ctx, timeRange)
		if err != nil {
			s.logger.Warn("analytics cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	snapshot, err := s.api.AdminAnalytics(ctx, timeRange)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetAdminAnalytics(ctx, timeRange, snapshot); err != nil {
			s.logger.Warn("analytics cache write failed", zap.Error(err))
		}
	}
	return snapshot, nil
}

func (s *AnalyticsStore) loadRecruiter(ctx context.Context, recruiterID, timeRange string) (*models.RecruiterAnalytics, error) {
	if s.cache != nil {
		cached, err := s.cache.RecruiterAnalytics(ctx, recruiterID, timeRange)
		if err != nil {
			s.logger.Warn("analytics cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	snapshot, err := s.api.RecruiterAnalytics(ctx, recruiterID, timeRange)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetRecruiterAnalytics(ctx, recruiterID, timeRange, snapshot); err != nil {
			s.logger.Warn("analytics cache write failed", zap.Error(err))
		}
	}
	return snapshot, nil
}
