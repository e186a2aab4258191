package marketplace

import (
	"context"
	"fmt"
	"net/http"

	"jobmarket-bot/internal/models"

	"go.uber.org/zap"
)

func (c *Client) ListSavedJobs(ctx context.Context, userID string) ([]models.SavedJob, error) {
	var saved []models.SavedJob
	if err := c.get(ctx, resourcePath("saved-jobs", "user", userID), nil, &saved); err != nil {
		c.logger.Error("failed to list saved jobs",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list saved jobs: %w", err)
	}

	return saved, nil
}

func (c *Client) SaveJob(ctx context.Context, input models.SavedJobInput) (*models.SavedJob, error) {
	var saved models.SavedJob
	if err := c.send(ctx, http.MethodPost, "/saved-jobs", input, &saved); err != nil {
		c.logger.Error("failed to save job",
			zap.String("user_id", input.UserID),
			zap.String("job_id", input.JobID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("save job: %w", err)
	}

	return &saved, nil
}

func (c *Client) UpdateSavedJobNotes(ctx context.Context, savedJobID, notes string) (*models.SavedJob, error) {
	var saved models.SavedJob
	if err := c.send(ctx, http.MethodPatch, resourcePath("saved-jobs", savedJobID), notesRequest{Notes: notes}, &saved); err != nil {
		c.logger.Error("failed to update saved job notes",
			zap.String("saved_job_id", savedJobID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("update saved job notes: %w", err)
	}

	return &saved, nil
}

func (c *Client) DeleteSavedJob(ctx context.Context, savedJobID string) error {
	if err := c.send(ctx, http.MethodDelete, resourcePath("saved-jobs", savedJobID), nil, nil); err != nil {
		c.logger.Error("failed to delete saved job",
			zap.String("saved_job_id", savedJobID),
			zap.Error(err),
		)
		return fmt.Errorf("delete saved job: %w", err)
	}

	return nil
}
