package marketplace

import (
	"context"
	"fmt"
	"net/url"

	"jobmarket-bot/internal/models"

	"go.uber.org/zap"
)

func (c *Client) AdminAnalytics(ctx context.Context, timeRange string) (*models.AdminAnalytics, error) {
	params := url.Values{}
	params.Set("timeRange", timeRange)

	var snapshot models.AdminAnalytics
	if err := c.get(ctx, "/analytics/admin", params, &snapshot); err != nil {
		c.logger.Error("failed to get admin analytics",
			zap.String("time_range", timeRange),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get admin analytics: %w", err)
	}

	return &snapshot, nil
}

func (c *Client) RecruiterAnalytics(ctx context.Context, recruiterID, timeRange string) (*models.RecruiterAnalytics, error) {
	params := url.Values{}
	params.Set("timeRange", timeRange)

	var snapshot models.RecruiterAnalytics
	if err := c.get(ctx, resourcePath("analytics", "recruiter", recruiterID), params, &snapshot); err != nil {
		c.logger.Error("failed to get recruiter analytics",
			zap.String("recruiter_id", recruiterID),
			zap.String("time_range", timeRange),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get recruiter analytics: %w", err)
	}

	return &snapshot, nil
}
