package marketplace

import (
	"context"
	"fmt"
	"net/http"

	"jobmarket-bot/internal/models"

	"go.uber.org/zap"
)

func (c *Client) ListApplications(ctx context.Context) ([]models.Application, error) {
	var apps []models.Application
	if err := c.get(ctx, "/applications", nil, &apps); err != nil {
		c.logger.Error("failed to list applications", zap.Error(err))
		return nil, fmt.Errorf("list applications: %w", err)
	}

	c.logger.Debug("applications listed", zap.Int("count", len(apps)))
	return apps, nil
}

func (c *Client) ListRecruiterApplications(ctx context.Context, recruiterID string) ([]models.Application, error) {
	var apps []models.Application
	if err := c.get(ctx, resourcePath("applications", "recruiter", recruiterID), nil, &apps); err != nil {
		c.logger.Error("failed to list recruiter applications",
			zap.String("recruiter_id", recruiterID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list recruiter applications: %w", err)
	}

	return apps, nil
}

func (c *Client) ListUserApplications(ctx context.Context, userID string) ([]models.Application, error) {
	var apps []models.Application
	if err := c.get(ctx, resourcePath("applications", "user", userID), nil, &apps); err != nil {
		c.logger.Error("failed to list user applications",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list user applications: %w", err)
	}

	return apps, nil
}

func (c *Client) Apply(ctx context.Context, input models.ApplicationInput) (*models.Application, error) {
	var app models.Application
	if err := c.send(ctx, http.MethodPost, "/applications", input, &app); err != nil {
		c.logger.Error("failed to apply to job",
			zap.String("user_id", input.UserID),
			zap.String("job_id", input.JobID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("apply to job: %w", err)
	}

	c.logger.Info("application submitted",
		zap.String("application_id", app.ID),
		zap.String("job_id", input.JobID),
	)
	return &app, nil
}

func (c *Client) UpdateApplication(ctx context.Context, applicationID string, update models.ApplicationUpdate) (*models.Application, error) {
	var app models.Application
	if err := c.send(ctx, http.MethodPatch, resourcePath("applications", applicationID), update, &app); err != nil {
		c.logger.Error("failed to update application",
			zap.String("application_id", applicationID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("update application: %w", err)
	}

	return &app, nil
}
